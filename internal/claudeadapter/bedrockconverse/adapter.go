package bedrockconverse

import (
	"context"
	"errors"
	"iter"
	"log/slog"

	"github.com/claude-vim/claude-bridge/internal/claudeadapter"
	"github.com/claude-vim/claude-bridge/internal/claudeadapter/types"
)

// CreateMessageAdapter translates Claude create-message requests into Bedrock
// ConverseStream calls and re-emits the stream as Claude events.
type CreateMessageAdapter struct {
	options RequestOptions
}

// Compile-time check that CreateMessageAdapter implements the adapter contract
var _ claudeadapter.Adapter[claudeadapter.CreateMessageRequest, claudeadapter.MessageStreamEvent, Streamer] = (*CreateMessageAdapter)(nil)

// NewCreateMessageAdapter creates an adapter applying opts as request defaults.
func NewCreateMessageAdapter(opts RequestOptions) *CreateMessageAdapter {
	if opts.UnknownBlocks == "" {
		opts.UnknownBlocks = UnknownBlockDrop
	}
	return &CreateMessageAdapter{options: opts}
}

// ProcessStreamingRequest translates the request, starts the upstream stream and
// returns an iterator of client events.
//
// Errors returned directly mean nothing was streamed: *claudeadapter.TranslationError
// for a malformed request (no upstream call was made) or *claudeadapter.UpstreamInvocationError
// with PhaseInvoke. Errors yielded by the iterator are UpstreamInvocationErrors with
// PhaseStream; events yielded before them remain valid.
func (a *CreateMessageAdapter) ProcessStreamingRequest(
	ctx context.Context,
	clientReq types.Request,
	streamer Streamer,
) (iter.Seq2[types.Event, error], error) {
	if streamer == nil {
		return nil, errors.New("streamer cannot be nil")
	}

	converseReq, err := BuildRequest(ctx, clientReq, a.options)
	if err != nil {
		return nil, err
	}

	slog.DebugContext(ctx, "invoking converse stream",
		"model_id", converseReq.ModelID,
		"messages", len(converseReq.Messages),
		"tools", len(clientReq.Tools),
	)

	upstream, err := streamer.ConverseStream(ctx, converseReq)
	if err != nil {
		return nil, wrapUpstreamError(claudeadapter.PhaseInvoke, err)
	}

	return Reemit(ctx, wrapStreamErrors(upstream)), nil
}

// wrapStreamErrors wraps mid-stream errors as UpstreamInvocationError.
func wrapStreamErrors(upstream iter.Seq2[StreamEvent, error]) iter.Seq2[StreamEvent, error] {
	return func(yield func(StreamEvent, error) bool) {
		for event, err := range upstream {
			if err != nil {
				yield(nil, wrapUpstreamError(claudeadapter.PhaseStream, err))
				return
			}
			if !yield(event, nil) {
				return
			}
		}
	}
}
