package commands

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/claude-vim/claude-bridge/internal/claudeadapter/bedrockconverse"
	"github.com/claude-vim/claude-bridge/internal/claudeadapter/types"
	"github.com/claude-vim/claude-bridge/internal/observability"
	"github.com/claude-vim/claude-bridge/internal/sse"
)

// newStreamer builds the upstream transport. Tests replace it.
var newStreamer = func(ctx context.Context, cfg bedrockconverse.ClientConfig) (bedrockconverse.Streamer, error) {
	return bedrockconverse.NewBedrockStreamer(ctx, cfg)
}

func bedrockFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "region",
			Usage: "AWS region of the Bedrock runtime",
		},
		&cli.StringFlag{
			Name:  "profile",
			Usage: "AWS shared config profile",
		},
		&cli.StringFlag{
			Name:  "endpoint",
			Usage: "Bedrock runtime endpoint override",
		},
		&cli.StringFlag{
			Name:  "model-id",
			Usage: "default Bedrock model ID",
		},
		&cli.IntFlag{
			Name:  "max-tokens",
			Usage: "default maximum output tokens",
		},
		&cli.Float64Flag{
			Name:  "temperature",
			Usage: "default sampling temperature (0 to 1)",
		},
		&cli.StringFlag{
			Name:  "unknown-blocks",
			Usage: "handling of unsupported content blocks (drop|reject)",
		},
	}
}

func streamCommand() *cli.Command {
	return &cli.Command{
		Name:  "stream",
		Usage: "Send one request to Bedrock and print the Claude event stream to stdout",
		Description: "The request is read from --request, from --messages (with --tools and --system-prompt), " +
			"or from stdin. Events are written as 'event: <type>' and 'data: <json>' lines.",
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:  "request",
				Usage: "complete request JSON (\"-\" reads stdin)",
			},
			&cli.StringFlag{
				Name:  "messages",
				Usage: "messages JSON array",
			},
			&cli.StringFlag{
				Name:  "tools",
				Usage: "tool definitions JSON array",
			},
			&cli.StringFlag{
				Name:  "system-prompt",
				Usage: "system prompt",
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

			req, err := readStreamRequest(requestInput{
				Request:      cmd.String("request"),
				Messages:     cmd.String("messages"),
				Tools:        cmd.String("tools"),
				SystemPrompt: cmd.String("system-prompt"),
				Stdin:        os.Stdin,
				Interactive:  term.IsTerminal(int(os.Stdin.Fd())),
			})
			if err != nil {
				return err
			}

			streamer, err := newStreamer(ctx, cfg.ClientConfig())
			if err != nil {
				return err
			}

			ctx = observability.ContextWithRequestID(ctx, observability.NewRequestID())
			adapter := bedrockconverse.NewCreateMessageAdapter(cfg.RequestOptions())
			return runStream(ctx, cmd.Root().Writer, adapter, streamer, req)
		},
	}
}

// requestInput collects the sources a stream request may be read from.
type requestInput struct {
	Request      string
	Messages     string
	Tools        string
	SystemPrompt string
	Stdin        io.Reader
	Interactive  bool
}

// readStreamRequest assembles the request. A full request (flag or stdin) takes
// precedence over --messages; --tools and --system-prompt override its fields.
func readStreamRequest(in requestInput) (types.Request, error) {
	var req types.Request

	switch {
	case in.Request == "-":
		if err := decodeRequest(in.Stdin, &req); err != nil {
			return req, err
		}
	case in.Request != "":
		if err := decodeRequest(bytes.NewBufferString(in.Request), &req); err != nil {
			return req, err
		}
	case in.Messages != "":
		if err := json.Unmarshal([]byte(in.Messages), &req.Messages); err != nil {
			return req, fmt.Errorf("invalid --messages: %w", err)
		}
	case !in.Interactive && in.Stdin != nil:
		if err := decodeRequest(in.Stdin, &req); err != nil {
			return req, err
		}
	default:
		return req, errors.New("no request given: use --request, --messages or pipe a request on stdin")
	}

	if in.Tools != "" {
		if err := json.Unmarshal([]byte(in.Tools), &req.Tools); err != nil {
			return req, fmt.Errorf("invalid --tools: %w", err)
		}
	}
	if in.SystemPrompt != "" {
		req.SystemPrompt = in.SystemPrompt
	}
	return req, nil
}

func decodeRequest(r io.Reader, req *types.Request) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read request: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return errors.New("empty request")
	}
	if err := json.Unmarshal(data, req); err != nil {
		return fmt.Errorf("invalid request JSON: %w", err)
	}
	return nil
}

// runStream writes every event of one streaming call to out in compact SSE framing.
// The first error ends the stream; events already written stay written.
func runStream(
	ctx context.Context,
	out io.Writer,
	adapter *bedrockconverse.CreateMessageAdapter,
	streamer bedrockconverse.Streamer,
	req types.Request,
) error {
	stream, err := adapter.ProcessStreamingRequest(ctx, req, streamer)
	if err != nil {
		return err
	}

	buffered := bufio.NewWriter(out)
	writer := sse.NewWriter(buffered, sse.Compact())

	for event, err := range stream {
		if err != nil {
			// Keep what was already emitted.
			_ = writer.Flush()
			return err
		}
		if err := writer.WriteEvent(event.EventName(), event); err != nil {
			return fmt.Errorf("failed to write event: %w", err)
		}
	}

	return writer.Flush()
}
