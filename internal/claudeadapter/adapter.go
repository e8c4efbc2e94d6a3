package claudeadapter

import (
	"context"
	"iter"

	"github.com/claude-vim/claude-bridge/internal/claudeadapter/types"
)

// Adapter defines the contract for transforming client requests into provider streaming calls.
//
// Type parameters allow the interface to express transformation contracts for different
// request/event shapes and upstream transports while maintaining compile-time type safety.
//
// Type parameters:
//   - TRequest:   Client-specific request structure
//   - TEvent:     Client-specific streaming event protocol
//   - TTransport: Provider transport that executes the upstream call
type Adapter[TRequest, TEvent, TTransport any] interface {
	// ProcessStreamingRequest transforms the client request, calls the provider streaming API,
	// and returns an iterator of transformed events. Implementations should remain stateless
	// between calls; all stream state lives inside the returned iterator.
	ProcessStreamingRequest(ctx context.Context, clientReq TRequest, transport TTransport) (iter.Seq2[TEvent, error], error)
}

// Type aliases for Claude-compatible create-message operations.
// Request and event types are hand-written sum types (see types package).
type (
	CreateMessageRequest = types.Request
	MessageStreamEvent   = types.Event
)
