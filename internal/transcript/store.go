// Package transcript persists chats in a local SQLite database.
//
// A chat is a titled, ordered list of messages. Chats can be archived (hidden
// from the default listing but kept) or deleted together with their messages.
package transcript

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/claude-vim/claude-bridge/internal/claudeadapter/types"
)

// ErrNotFound is returned when no chat has the requested id.
var ErrNotFound = errors.New("chat not found")

// Chat is a stored conversation.
type Chat struct {
	ID         int64           `json:"id"`
	Title      string          `json:"title"`
	CreatedAt  time.Time       `json:"created_at"`
	ArchivedAt *time.Time      `json:"archived_at"`
	Messages   []types.Message `json:"messages"`
}

// ChatSummary is a chat without its messages, as returned by List.
type ChatSummary struct {
	ID         int64      `json:"id"`
	Title      string     `json:"title"`
	CreatedAt  time.Time  `json:"created_at"`
	ArchivedAt *time.Time `json:"archived_at"`
}

// Store is a SQLite-backed chat store. It is safe for concurrent use.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source used for created_at and archived_at.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// Open opens (creating if needed) the database at path and applies pending migrations.
func Open(ctx context.Context, path string, opts ...Option) (*Store, error) {
	if path == "" {
		return nil, errors.New("database path cannot be empty")
	}

	if err := ensureDatabaseDirectory(ctx, path); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// WAL for concurrent readers; foreign keys for ON DELETE CASCADE.
	dsn := path + "?_foreign_keys=1&_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL"

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", path, err)
	}

	// SQLite works best with a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := runMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	s := &Store{db: db, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}

	slog.DebugContext(ctx, "transcript store opened", "path", path)
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save stores a new chat and returns its id. Messages keep their order.
func (s *Store) Save(ctx context.Context, title string, messages []types.Message) (int64, error) {
	if title == "" {
		return 0, errors.New("title cannot be empty")
	}
	for i := range messages {
		if err := types.Validator().Struct(&messages[i]); err != nil {
			return 0, fmt.Errorf("message %d: %w", i, err)
		}
	}

	now := s.now().UnixMilli()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `INSERT INTO chats (title, created_at) VALUES (?, ?)`, title, now)
	if err != nil {
		return 0, fmt.Errorf("failed to insert chat: %w", err)
	}
	chatID, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	for i, msg := range messages {
		content, err := json.Marshal(msg.Content)
		if err != nil {
			return 0, fmt.Errorf("failed to encode message %d: %w", i, err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO messages (chat_id, position, role, content, created_at)
			VALUES (?, ?, ?, ?, ?)
		`, chatID, i, string(msg.Role), string(content), now)
		if err != nil {
			return 0, fmt.Errorf("failed to insert message %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return chatID, nil
}

// Load returns the chat with its messages in saved order, or ErrNotFound.
func (s *Store) Load(ctx context.Context, id int64) (*Chat, error) {
	var (
		chat       Chat
		createdAt  int64
		archivedAt sql.NullInt64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, title, created_at, archived_at
		FROM chats
		WHERE id = ?
	`, id).Scan(&chat.ID, &chat.Title, &createdAt, &archivedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	chat.CreatedAt = fromMillis(createdAt)
	chat.ArchivedAt = fromNullMillis(archivedAt)

	rows, err := s.db.QueryContext(ctx, `
		SELECT role, content
		FROM messages
		WHERE chat_id = ?
		ORDER BY position
	`, id)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	chat.Messages = []types.Message{}
	for rows.Next() {
		var role, content string
		if err := rows.Scan(&role, &content); err != nil {
			return nil, err
		}
		var blocks types.Content
		if err := json.Unmarshal([]byte(content), &blocks); err != nil {
			return nil, fmt.Errorf("failed to decode message %d of chat %d: %w", len(chat.Messages), id, err)
		}
		chat.Messages = append(chat.Messages, types.Message{Role: types.Role(role), Content: blocks})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &chat, nil
}

// List returns chat summaries, newest first. Archived chats are included only
// when includeArchived is set.
func (s *Store) List(ctx context.Context, includeArchived bool) ([]ChatSummary, error) {
	query := `SELECT id, title, created_at, archived_at FROM chats`
	if !includeArchived {
		query += ` WHERE archived_at IS NULL`
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	chats := []ChatSummary{}
	for rows.Next() {
		var (
			c          ChatSummary
			createdAt  int64
			archivedAt sql.NullInt64
		)
		if err := rows.Scan(&c.ID, &c.Title, &createdAt, &archivedAt); err != nil {
			return nil, err
		}
		c.CreatedAt = fromMillis(createdAt)
		c.ArchivedAt = fromNullMillis(archivedAt)
		chats = append(chats, c)
	}
	return chats, rows.Err()
}

// Archive marks the chat as archived. Archiving an archived chat keeps the
// original archive time. Returns ErrNotFound when the chat does not exist.
func (s *Store) Archive(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE chats
		SET archived_at = COALESCE(archived_at, ?)
		WHERE id = ?
	`, s.now().UnixMilli(), id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

// Delete removes the chat and its messages. Returns ErrNotFound when the chat
// does not exist.
func (s *Store) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM chats WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ensureDatabaseDirectory creates the directory for the database file if it doesn't exist.
func ensureDatabaseDirectory(ctx context.Context, dbPath string) error {
	dir := filepath.Dir(dbPath)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
		slog.InfoContext(ctx, "created database directory", "dir", dir)
	}
	return nil
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

func fromNullMillis(ms sql.NullInt64) *time.Time {
	if !ms.Valid {
		return nil
	}
	t := fromMillis(ms.Int64)
	return &t
}
