package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/urfave/cli/v3"

	"github.com/claude-vim/claude-bridge/internal/app"
)

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the Claude Messages API over HTTP backed by Bedrock",
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:  "listen",
				Usage: "listen address (host:port)",
			},
		}, bedrockFlags()...),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, shutdown, err := setup(ctx, cmd)
			if err != nil {
				return err
			}
			defer shutdown()

			if err := cfg.RequireUpstream(); err != nil {
				return err
			}

			streamer, err := newStreamer(ctx, cfg.ClientConfig())
			if err != nil {
				return err
			}

			application, err := app.New(cfg, streamer)
			if err != nil {
				return fmt.Errorf("failed to create application: %w", err)
			}

			slog.InfoContext(ctx, "serving", "listen", cfg.Server.Listen, "region", cfg.Bedrock.Region)
			return application.Start(ctx)
		},
	}
}
