package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/urfave/cli/v3"

	"github.com/claude-vim/claude-bridge/internal/app"
	"github.com/claude-vim/claude-bridge/internal/claudeadapter/types"
	"github.com/claude-vim/claude-bridge/internal/transcript"
)

func chatCommand() *cli.Command {
	return &cli.Command{
		Name:  "chat",
		Usage: "Manage saved chat transcripts",
		Commands: []*cli.Command{
			{
				Name:  "save",
				Usage: "Save a transcript and print its id",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "title", Usage: "chat title", Required: true},
					&cli.StringFlag{Name: "messages", Usage: "messages JSON array", Required: true},
				},
				Action: withStore(func(ctx context.Context, cmd *cli.Command, store *transcript.Store) error {
					var messages []types.Message
					if err := json.Unmarshal([]byte(cmd.String("messages")), &messages); err != nil {
						return fmt.Errorf("invalid --messages: %w", err)
					}

					id, err := store.Save(ctx, cmd.String("title"), messages)
					if err != nil {
						return err
					}
					return writeJSONOutput(cmd.Root().Writer, map[string]int64{"chat_id": id})
				}),
			},
			{
				Name:  "load",
				Usage: "Print a saved transcript",
				Flags: []cli.Flag{chatIDFlag()},
				Action: withStore(func(ctx context.Context, cmd *cli.Command, store *transcript.Store) error {
					chat, err := store.Load(ctx, cmd.Int64("chat-id"))
					if err != nil {
						return chatError(cmd.Int64("chat-id"), err)
					}
					return writeJSONOutput(cmd.Root().Writer, chat)
				}),
			},
			{
				Name:  "list",
				Usage: "List saved chats, newest first",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "include-archived", Usage: "include archived chats"},
				},
				Action: withStore(func(ctx context.Context, cmd *cli.Command, store *transcript.Store) error {
					chats, err := store.List(ctx, cmd.Bool("include-archived"))
					if err != nil {
						return err
					}
					return writeJSONOutput(cmd.Root().Writer, map[string][]transcript.ChatSummary{"chats": chats})
				}),
			},
			{
				Name:  "archive",
				Usage: "Archive a chat",
				Flags: []cli.Flag{chatIDFlag()},
				Action: withStore(func(ctx context.Context, cmd *cli.Command, store *transcript.Store) error {
					return chatError(cmd.Int64("chat-id"), store.Archive(ctx, cmd.Int64("chat-id")))
				}),
			},
			{
				Name:  "delete",
				Usage: "Delete a chat and its messages",
				Flags: []cli.Flag{chatIDFlag()},
				Action: withStore(func(ctx context.Context, cmd *cli.Command, store *transcript.Store) error {
					return chatError(cmd.Int64("chat-id"), store.Delete(ctx, cmd.Int64("chat-id")))
				}),
			},
		},
	}
}

func chatIDFlag() cli.Flag {
	return &cli.Int64Flag{
		Name:     "chat-id",
		Usage:    "chat identifier",
		Required: true,
	}
}

// withStore opens the transcript store for the duration of action.
func withStore(action func(context.Context, *cli.Command, *transcript.Store) error) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		cfg, shutdown, err := setup(ctx, cmd)
		if err != nil {
			return err
		}
		defer shutdown()

		store, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		return action(ctx, cmd, store)
	}
}

func openStore(ctx context.Context, cfg *app.Config) (*transcript.Store, error) {
	return transcript.Open(ctx, cfg.StorePath())
}

func chatError(id int64, err error) error {
	if errors.Is(err, transcript.ErrNotFound) {
		return fmt.Errorf("chat %d: %w", id, err)
	}
	return err
}

func writeJSONOutput(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
