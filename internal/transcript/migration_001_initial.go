package transcript

import (
	"context"
	"database/sql"
)

func init() {
	RegisterMigration(Migration{
		Version:     1,
		Description: "Create chats and messages tables",
		Up:          migration001Initial,
	})
}

func migration001Initial(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS chats (
			id INTEGER PRIMARY KEY,
			title TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			archived_at INTEGER
		);
		CREATE INDEX IF NOT EXISTS idx_chats_created_at ON chats(created_at);

		CREATE TABLE IF NOT EXISTS messages (
			id INTEGER PRIMARY KEY,
			chat_id INTEGER NOT NULL REFERENCES chats(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			created_at INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_messages_chat_id ON messages(chat_id, position);
	`)
	return err
}
