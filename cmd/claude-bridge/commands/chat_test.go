package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/claude-vim/claude-bridge/internal/transcript"
)

func runChat(t *testing.T, dbPath string, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	root := newRootCommand("test", "none")
	root.Writer = &out

	argv := append([]string{"claude-bridge", "--db", dbPath, "--log-level", "error", "chat"}, args...)
	err := root.Run(context.Background(), argv)
	return out.String(), err
}

func TestChatCommands(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "chats.db")
	messages := `[{"role":"user","content":"hello"},{"role":"assistant","content":[{"type":"text","text":"hi there"}]}]`

	out, err := runChat(t, dbPath, "save", "--title", "greeting", "--messages", messages)
	require.NoError(t, err)

	var saved struct {
		ChatID int64 `json:"chat_id"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &saved))
	assert.Positive(t, saved.ChatID)
	id := strconv.FormatInt(saved.ChatID, 10)

	out, err = runChat(t, dbPath, "load", "--chat-id", id)
	require.NoError(t, err)

	var chat transcript.Chat
	require.NoError(t, json.Unmarshal([]byte(out), &chat))
	assert.Equal(t, "greeting", chat.Title)
	require.Len(t, chat.Messages, 2)
	assert.Nil(t, chat.ArchivedAt)

	_, err = runChat(t, dbPath, "archive", "--chat-id", id)
	require.NoError(t, err)

	out, err = runChat(t, dbPath, "list")
	require.NoError(t, err)
	assert.JSONEq(t, `{"chats":[]}`, out)

	out, err = runChat(t, dbPath, "list", "--include-archived")
	require.NoError(t, err)

	var listed struct {
		Chats []transcript.ChatSummary `json:"chats"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &listed))
	require.Len(t, listed.Chats, 1)
	assert.Equal(t, saved.ChatID, listed.Chats[0].ID)
	assert.NotNil(t, listed.Chats[0].ArchivedAt)

	_, err = runChat(t, dbPath, "delete", "--chat-id", id)
	require.NoError(t, err)

	_, err = runChat(t, dbPath, "load", "--chat-id", id)
	assert.ErrorIs(t, err, transcript.ErrNotFound)
}

func TestChatSave_InvalidMessages(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "chats.db")

	_, err := runChat(t, dbPath, "save", "--title", "x", "--messages", "not json")
	assert.ErrorContains(t, err, "invalid --messages")

	_, err = runChat(t, dbPath, "save", "--title", "x", "--messages", `[{"role":"system","content":"hi"}]`)
	assert.Error(t, err)
}
