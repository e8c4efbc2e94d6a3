package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/claude-vim/claude-bridge/internal/app"
	"github.com/claude-vim/claude-bridge/internal/observability"
)

// Execute runs the root command with the given context and arguments.
func Execute(ctx context.Context, args []string, version, commit string) error {
	return newRootCommand(version, commit).Run(ctx, args)
}

func newRootCommand(version, commit string) *cli.Command {
	return &cli.Command{
		Name:    "claude-bridge",
		Usage:   "Claude Messages to Amazon Bedrock Converse streaming bridge",
		Version: fmt.Sprintf("%s (%s)", version, commit),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Usage:   "path to a TOML config file",
				Sources: cli.EnvVars("CLAUDE_BRIDGE_CONFIG"),
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "log level (debug|info|warn|error)",
				Value: slog.LevelInfo.String(),
			},
			&cli.StringFlag{
				Name:  "log-format",
				Usage: "log format (text|json)",
				Value: "text",
			},
			&cli.StringFlag{
				Name:  "log-exporter",
				Usage: "OpenTelemetry log exporter (none|console|otlp-http|otlp-grpc)",
				Value: observability.ExporterNone,
			},
			&cli.StringFlag{
				Name:  "db",
				Usage: "transcript database path (default: $XDG_DATA_HOME/claude-vim/chats.db)",
			},
		},
		Commands: []*cli.Command{
			streamCommand(),
			serveCommand(),
			chatCommand(),
		},
	}
}

// setup loads the configuration and installs logging. The returned function
// flushes log exporters and must be called before the command returns.
func setup(ctx context.Context, cmd *cli.Command) (*app.Config, func(), error) {
	cfg, err := loadConfig(cmd.String("config"), cmd, os.Environ)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	level, err := observability.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, nil, err
	}

	// Set up observability before doing any work
	shutdown, err := observability.Instrument(ctx, level, cfg.Log.Format, cfg.Log.Exporter)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to set up observability layer: %w", err)
	}

	return cfg, func() {
		if err := shutdown(context.WithoutCancel(ctx)); err != nil {
			slog.WarnContext(ctx, "failed to flush log exporter", "error", err)
		}
	}, nil
}
