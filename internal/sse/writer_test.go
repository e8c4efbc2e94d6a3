package sse

import (
	"bufio"
	"bytes"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/anthropics/anthropic-sdk-go/packages/ssestream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

func TestWriteEvent_CompactFraming(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, Compact())

	require.NoError(t, w.WriteEvent("message_stop", payload{Type: "message_stop"}))
	require.NoError(t, w.WriteEvent("content_block_stop", payload{Type: "content_block_stop"}))

	assert.Equal(t,
		"event: message_stop\ndata: {\"type\":\"message_stop\"}\n"+
			"event: content_block_stop\ndata: {\"type\":\"content_block_stop\"}\n",
		buf.String())
}

func TestWriteEvent_StandardFraming(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)

	require.NoError(t, w.WriteEvent("message_stop", payload{Type: "message_stop"}))

	assert.Equal(t, "event: message_stop\ndata: {\"type\":\"message_stop\"}\n\n", buf.String())
}

func TestWriteEvent_DoesNotEscapeHTML(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, Compact())

	require.NoError(t, w.WriteEvent("x", payload{Type: "x", Text: "<a>&</a>"}))

	assert.Contains(t, buf.String(), `"text":"<a>&</a>"`)
}

func TestWriteEvent_FlushesEachRecord(t *testing.T) {
	var out bytes.Buffer
	bw := bufio.NewWriterSize(&out, 4096)
	w := NewWriter(bw, Compact())

	require.NoError(t, w.WriteEvent("message_stop", payload{Type: "message_stop"}))

	// The record reached the underlying writer without an explicit flush by the caller.
	assert.Equal(t, "event: message_stop\ndata: {\"type\":\"message_stop\"}\n", out.String())
}

func TestWriteEvent_EncodingFailureWritesNothing(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)

	err := w.WriteEvent("bad", map[string]any{"ch": make(chan int)})

	require.Error(t, err)
	assert.Empty(t, buf.String())
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("broken pipe") }

func TestWriteEvent_WriteFailure(t *testing.T) {
	w := NewWriter(failingWriter{})

	err := w.WriteEvent("message_stop", payload{Type: "message_stop"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken pipe")
}

func TestNewHTTPWriter_DecodableBySSEClient(t *testing.T) {
	rec := httptest.NewRecorder()

	w, err := NewHTTPWriter(rec)
	require.NoError(t, err)
	require.NoError(t, w.WriteEvent("content_block_delta", payload{Type: "content_block_delta", Text: "hel"}))
	require.NoError(t, w.WriteEvent("message_stop", payload{Type: "message_stop"}))

	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.True(t, rec.Flushed)

	dec := ssestream.NewDecoder(rec.Result())
	defer func() { _ = dec.Close() }()

	var names []string
	for dec.Next() {
		names = append(names, dec.Event().Type)
	}
	require.NoError(t, dec.Err())
	assert.Equal(t, []string{"content_block_delta", "message_stop"}, names)
}
