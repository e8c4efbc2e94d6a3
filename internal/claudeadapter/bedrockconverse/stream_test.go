package bedrockconverse

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"iter"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/claude-vim/claude-bridge/internal/claudeadapter/types"
)

func seqOf(events ...StreamEvent) iter.Seq2[StreamEvent, error] {
	return func(yield func(StreamEvent, error) bool) {
		for _, ev := range events {
			if !yield(ev, nil) {
				return
			}
		}
	}
}

func collect(t *testing.T, stream iter.Seq2[types.Event, error]) ([]types.Event, error) {
	t.Helper()
	var events []types.Event
	for ev, err := range stream {
		if err != nil {
			return events, err
		}
		events = append(events, ev)
	}
	return events, nil
}

func eventNames(events []types.Event) []string {
	names := make([]string, 0, len(events))
	for _, ev := range events {
		names = append(names, ev.EventName())
	}
	return names
}

func ptr[T any](v T) *T { return &v }

func TestReemit_ToolBlockSequence(t *testing.T) {
	upstream := seqOf(
		BlockStart{Index: 0, ToolUse: &ToolUseStart{ToolUseID: "toolu_1", Name: "get_weather"}},
		BlockDelta{Index: 0, Delta: TextDelta{Text: "Hel"}},
		BlockDelta{Index: 0, Delta: TextDelta{Text: "lo"}},
		BlockStop{Index: 0},
		MessageStop{StopReason: "tool_use"},
	)

	events, err := collect(t, Reemit(context.Background(), upstream))
	require.NoError(t, err)

	assert.Equal(t, []string{
		types.EventContentBlockStart,
		types.EventContentBlockDelta,
		types.EventContentBlockDelta,
		types.EventContentBlockStop,
		types.EventMessageStop,
	}, eventNames(events))

	start, err := json.Marshal(events[0])
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"content_block_start","content_block_index":0,
		"content_block":{"type":"tool_use","id":"toolu_1","name":"get_weather","input":{}}}`, string(start))

	delta, err := json.Marshal(events[2])
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"lo"}}`, string(delta))

	stop, err := json.Marshal(events[3])
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"content_block_stop","content_block_index":0}`, string(stop))
}

func TestReemit_ToolInputFragmentsVerbatim(t *testing.T) {
	fragments := []string{`{"ci`, `ty": "Par`, `is"}`, ``, `not json at all`}

	var upstream []StreamEvent
	upstream = append(upstream, BlockStart{Index: 1, ToolUse: &ToolUseStart{ToolUseID: "t", Name: "n"}})
	for _, f := range fragments {
		upstream = append(upstream, BlockDelta{Index: 1, Delta: ToolInputDelta{Input: f}})
	}

	events, err := collect(t, Reemit(context.Background(), seqOf(upstream...)))
	require.NoError(t, err)
	require.Len(t, events, 1+len(fragments))

	for i, f := range fragments {
		delta, ok := events[i+1].(types.ContentBlockDeltaEvent)
		require.True(t, ok)
		assert.Equal(t, 1, delta.Index)
		assert.Equal(t, types.DeltaTypeInputJSON, delta.Delta.Type)
		require.NotNil(t, delta.Delta.PartialJSON)
		assert.Equal(t, f, *delta.Delta.PartialJSON)
		assert.Nil(t, delta.Delta.Text)
	}
}

func TestReemit_MissingUsageCountersAreZero(t *testing.T) {
	upstream := seqOf(
		MessageStop{},
		Metadata{Usage: &TokenUsage{OutputTokens: ptr(12)}},
	)

	events, err := collect(t, Reemit(context.Background(), upstream))
	require.NoError(t, err)
	require.Len(t, events, 2)

	data, err := json.Marshal(events[1])
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"message_delta","usage":{"input_tokens":0,"output_tokens":12,"total_tokens":0}}`, string(data))
}

func TestReemit_MetadataWithoutUsage(t *testing.T) {
	events, err := collect(t, Reemit(context.Background(), seqOf(Metadata{LatencyMs: ptr[int64](40)})))
	require.NoError(t, err)

	require.Len(t, events, 1)
	assert.Equal(t, types.NewMessageDelta(types.Usage{}), events[0])
}

func TestReemit_UsageAccumulates(t *testing.T) {
	r := NewReemitter(context.Background())
	r.Handle(Metadata{Usage: &TokenUsage{InputTokens: ptr(10), OutputTokens: ptr(1), TotalTokens: ptr(11)}})
	out := r.Handle(Metadata{Usage: &TokenUsage{InputTokens: ptr(0), OutputTokens: ptr(4), TotalTokens: ptr(4)}})

	want := types.Usage{InputTokens: 10, OutputTokens: 5, TotalTokens: 15}
	assert.Equal(t, want, r.Usage())
	assert.Equal(t, []types.Event{types.NewMessageDelta(want)}, out)
}

func TestReemit_IgnoresUnrecognizedEvents(t *testing.T) {
	upstream := seqOf(
		MessageStart{Role: "assistant"},
		UnknownEvent{Kind: "guardrailTrace"},
		BlockDelta{Index: 0, Delta: UnknownDelta{Kind: "reasoningContent"}},
		BlockDelta{Index: 0, Delta: TextDelta{Text: "ok"}},
	)

	events, err := collect(t, Reemit(context.Background(), upstream))
	require.NoError(t, err)

	assert.Equal(t, []types.Event{types.NewTextDelta(0, "ok")}, events)
}

func TestReemit_MessageStopOnce(t *testing.T) {
	upstream := seqOf(
		BlockStart{Index: 0},
		MessageStop{},
		MessageStop{},
	)

	events, err := collect(t, Reemit(context.Background(), upstream))
	require.NoError(t, err)

	// Open blocks are not force-closed.
	assert.Equal(t, []string{types.EventContentBlockStart, types.EventMessageStop}, eventNames(events))
}

func TestReemitter_LogsStopReason(t *testing.T) {
	var buf bytes.Buffer
	previous := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { slog.SetDefault(previous) })

	events := NewReemitter(context.Background()).Handle(MessageStop{StopReason: "max_tokens"})

	assert.Equal(t, []types.Event{types.NewMessageStop()}, events)
	assert.Contains(t, buf.String(), "stop_reason=max_tokens")
}

func TestReemit_StartWithoutToolDescriptor(t *testing.T) {
	events, err := collect(t, Reemit(context.Background(), seqOf(BlockStart{Index: 2})))
	require.NoError(t, err)

	assert.Equal(t, []types.Event{types.NewToolUseStart(2, "", "")}, events)
}

func TestReemitter_BlockStates(t *testing.T) {
	r := NewReemitter(context.Background())
	assert.Equal(t, BlockNotStarted, r.State(0))

	// Text blocks open implicitly on their first delta.
	r.Handle(BlockDelta{Index: 0, Delta: TextDelta{Text: "a"}})
	assert.Equal(t, BlockOpen, r.State(0))

	r.Handle(BlockStop{Index: 0})
	assert.Equal(t, BlockClosed, r.State(0))

	r.Handle(BlockStart{Index: 1, ToolUse: &ToolUseStart{ToolUseID: "t", Name: "n"}})
	assert.Equal(t, BlockOpen, r.State(1))
	assert.Equal(t, BlockClosed, r.State(0))

	assert.Equal(t, "closed", r.State(0).String())
}

func TestReemit_PreservesIndexOrder(t *testing.T) {
	upstream := seqOf(
		BlockDelta{Index: 0, Delta: TextDelta{Text: "a"}},
		BlockStop{Index: 0},
		BlockStart{Index: 1, ToolUse: &ToolUseStart{ToolUseID: "t", Name: "n"}},
		BlockDelta{Index: 1, Delta: ToolInputDelta{Input: "{}"}},
		BlockStop{Index: 1},
	)

	events, err := collect(t, Reemit(context.Background(), upstream))
	require.NoError(t, err)

	assert.Equal(t, []types.Event{
		types.NewTextDelta(0, "a"),
		types.NewContentBlockStop(0),
		types.NewToolUseStart(1, "t", "n"),
		types.NewInputJSONDelta(1, "{}"),
		types.NewContentBlockStop(1),
	}, events)
}

func TestReemit_UpstreamErrorEndsStream(t *testing.T) {
	upstreamErr := errors.New("connection reset")
	upstream := func(yield func(StreamEvent, error) bool) {
		if !yield(BlockDelta{Index: 0, Delta: TextDelta{Text: "partial"}}, nil) {
			return
		}
		if !yield(nil, upstreamErr) {
			return
		}
		yield(BlockStop{Index: 0}, nil)
	}

	events, err := collect(t, Reemit(context.Background(), upstream))

	assert.ErrorIs(t, err, upstreamErr)
	assert.Equal(t, []types.Event{types.NewTextDelta(0, "partial")}, events)
}

func TestReemit_StopsPullingAfterCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	pulled := 0
	upstream := func(yield func(StreamEvent, error) bool) {
		for i := 0; i < 10; i++ {
			pulled++
			if i == 1 {
				cancel()
			}
			if !yield(BlockDelta{Index: 0, Delta: TextDelta{Text: "x"}}, nil) {
				return
			}
		}
	}

	events, err := collect(t, Reemit(ctx, upstream))
	require.NoError(t, err)

	assert.Len(t, events, 2)
	assert.Equal(t, 2, pulled)
}

func TestReemit_ConsumerStopsEarly(t *testing.T) {
	upstream := seqOf(
		BlockDelta{Index: 0, Delta: TextDelta{Text: "a"}},
		BlockDelta{Index: 0, Delta: TextDelta{Text: "b"}},
	)

	count := 0
	for range Reemit(context.Background(), upstream) {
		count++
		break
	}
	assert.Equal(t, 1, count)
}
