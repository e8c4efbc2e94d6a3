package bedrockconverse

import (
	"context"
	"fmt"
	"iter"
	"log/slog"

	"github.com/claude-vim/claude-bridge/internal/claudeadapter/types"
)

// BlockState is the lifecycle state of one content block index.
type BlockState int

const (
	BlockNotStarted BlockState = iota
	BlockOpen
	BlockClosed
)

func (s BlockState) String() string {
	switch s {
	case BlockNotStarted:
		return "not_started"
	case BlockOpen:
		return "open"
	case BlockClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Reemitter translates Converse stream events into client stream events.
//
// It tracks the state of every content block index it has seen and the running
// usage totals. Upstream ordering is trusted: events are never reordered or held
// back, and open blocks are not force-closed before message_stop.
// A Reemitter serves a single stream and is not safe for concurrent use.
type Reemitter struct {
	ctx         context.Context
	blocks      map[int]BlockState
	usage       usageAccumulator
	messageDone bool
}

// NewReemitter returns a Reemitter for one stream. ctx is used for logging only.
func NewReemitter(ctx context.Context) *Reemitter {
	return &Reemitter{
		ctx:    ctx,
		blocks: make(map[int]BlockState),
	}
}

// State returns the current state of the block at index.
func (r *Reemitter) State(index int) BlockState {
	return r.blocks[index]
}

// Usage returns the usage accumulated so far.
func (r *Reemitter) Usage() types.Usage {
	return r.usage.total()
}

// Handle consumes one upstream event and returns the client events to emit, in order.
// Unrecognized events yield no output.
func (r *Reemitter) Handle(event StreamEvent) []types.Event {
	switch ev := event.(type) {
	case BlockStart:
		return r.handleBlockStart(ev)
	case BlockDelta:
		return r.handleBlockDelta(ev)
	case BlockStop:
		return r.handleBlockStop(ev)
	case MessageStop:
		return r.handleMessageStop(ev)
	case Metadata:
		return r.handleMetadata(ev)
	case MessageStart:
		// The client protocol has no message_start; role is always assistant.
		return nil
	case UnknownEvent:
		slog.DebugContext(r.ctx, "ignoring unrecognized stream event", "kind", ev.Kind)
		return nil
	default:
		slog.DebugContext(r.ctx, "ignoring unrecognized stream event", "kind", fmt.Sprintf("%T", event))
		return nil
	}
}

func (r *Reemitter) handleBlockStart(ev BlockStart) []types.Event {
	if state := r.blocks[ev.Index]; state != BlockNotStarted {
		slog.WarnContext(r.ctx, "content block started twice", "index", ev.Index, "state", state.String())
	}
	r.blocks[ev.Index] = BlockOpen

	var id, name string
	if ev.ToolUse != nil {
		id = ev.ToolUse.ToolUseID
		name = ev.ToolUse.Name
	}
	return []types.Event{types.NewToolUseStart(ev.Index, id, name)}
}

func (r *Reemitter) handleBlockDelta(ev BlockDelta) []types.Event {
	switch state := r.blocks[ev.Index]; state {
	case BlockNotStarted:
		// Converse sends no start event for text blocks; the first delta opens the block.
		r.blocks[ev.Index] = BlockOpen
	case BlockClosed:
		slog.WarnContext(r.ctx, "delta for closed content block", "index", ev.Index)
	}

	switch d := ev.Delta.(type) {
	case ToolInputDelta:
		return []types.Event{types.NewInputJSONDelta(ev.Index, d.Input)}
	case TextDelta:
		return []types.Event{types.NewTextDelta(ev.Index, d.Text)}
	case UnknownDelta:
		slog.DebugContext(r.ctx, "ignoring unrecognized delta", "index", ev.Index, "kind", d.Kind)
		return nil
	default:
		slog.DebugContext(r.ctx, "ignoring unrecognized delta", "index", ev.Index)
		return nil
	}
}

func (r *Reemitter) handleBlockStop(ev BlockStop) []types.Event {
	if state := r.blocks[ev.Index]; state == BlockClosed {
		slog.WarnContext(r.ctx, "content block stopped twice", "index", ev.Index)
	}
	r.blocks[ev.Index] = BlockClosed
	return []types.Event{types.NewContentBlockStop(ev.Index)}
}

func (r *Reemitter) handleMessageStop(ev MessageStop) []types.Event {
	if r.messageDone {
		slog.WarnContext(r.ctx, "duplicate message stop ignored")
		return nil
	}
	r.messageDone = true
	slog.DebugContext(r.ctx, "message stopped", "stop_reason", ev.StopReason)
	return []types.Event{types.NewMessageStop()}
}

func (r *Reemitter) handleMetadata(ev Metadata) []types.Event {
	r.usage.add(ev.Usage)
	if ev.LatencyMs != nil {
		slog.DebugContext(r.ctx, "upstream latency", "latency_ms", *ev.LatencyMs)
	}
	return []types.Event{types.NewMessageDelta(r.usage.total())}
}

// Reemit drives a Reemitter over an upstream event sequence.
//
// Each upstream event is fully translated and its client events yielded before the
// next upstream event is pulled, so a consumer that writes and flushes inside the
// loop sees events as soon as upstream produces them. An upstream error is yielded
// once and ends the sequence. Cancelling ctx stops pulling upstream events.
func Reemit(ctx context.Context, upstream iter.Seq2[StreamEvent, error]) iter.Seq2[types.Event, error] {
	return func(yield func(types.Event, error) bool) {
		r := NewReemitter(ctx)
		for event, err := range upstream {
			if err != nil {
				yield(nil, err)
				return
			}
			for _, out := range r.Handle(event) {
				if !yield(out, nil) {
					return
				}
			}
			if ctx.Err() != nil {
				return
			}
		}
	}
}
