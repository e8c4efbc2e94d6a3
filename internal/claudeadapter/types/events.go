package types

import "encoding/json"

// Stream event names.
const (
	EventContentBlockStart = "content_block_start"
	EventContentBlockDelta = "content_block_delta"
	EventContentBlockStop  = "content_block_stop"
	EventMessageStop       = "message_stop"
	EventMessageDelta      = "message_delta"
)

// Delta kinds carried by content_block_delta.
const (
	DeltaTypeText      = "text_delta"
	DeltaTypeInputJSON = "input_json_delta"
)

// Event is one outbound SSE record. EventName is used for the "event:" line and
// the JSON encoding of the value for the "data:" line.
type Event interface {
	EventName() string
}

// ToolUseContentBlock is the content_block payload of a content_block_start event.
type ToolUseContentBlock struct {
	Type  string          `json:"type"`
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Input json.RawMessage `json:"input"`
}

// ContentBlockStartEvent opens a content block.
type ContentBlockStartEvent struct {
	Type              string              `json:"type"`
	ContentBlockIndex int                 `json:"content_block_index"`
	ContentBlock      ToolUseContentBlock `json:"content_block"`
}

// BlockDelta is the delta payload of a content_block_delta event.
// Exactly one of Text and PartialJSON is set, matching Type.
type BlockDelta struct {
	Type        string  `json:"type"`
	Text        *string `json:"text,omitempty"`
	PartialJSON *string `json:"partial_json,omitempty"`
}

// ContentBlockDeltaEvent carries an incremental fragment of a content block.
type ContentBlockDeltaEvent struct {
	Type  string     `json:"type"`
	Index int        `json:"index"`
	Delta BlockDelta `json:"delta"`
}

// ContentBlockStopEvent closes a content block.
type ContentBlockStopEvent struct {
	Type              string `json:"type"`
	ContentBlockIndex int    `json:"content_block_index"`
}

// MessageStopEvent ends the message.
type MessageStopEvent struct {
	Type string `json:"type"`
}

// Usage holds token counters. Counters absent upstream are zero, never omitted.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

// MessageDeltaEvent reports accumulated usage.
type MessageDeltaEvent struct {
	Type  string `json:"type"`
	Usage Usage  `json:"usage"`
}

func (ContentBlockStartEvent) EventName() string { return EventContentBlockStart }
func (ContentBlockDeltaEvent) EventName() string { return EventContentBlockDelta }
func (ContentBlockStopEvent) EventName() string  { return EventContentBlockStop }
func (MessageStopEvent) EventName() string       { return EventMessageStop }
func (MessageDeltaEvent) EventName() string      { return EventMessageDelta }

// NewToolUseStart returns a content_block_start event for a tool_use block.
func NewToolUseStart(index int, id, name string) ContentBlockStartEvent {
	return ContentBlockStartEvent{
		Type:              EventContentBlockStart,
		ContentBlockIndex: index,
		ContentBlock: ToolUseContentBlock{
			Type:  BlockTypeToolUse,
			ID:    id,
			Name:  name,
			Input: json.RawMessage("{}"),
		},
	}
}

// NewTextDelta returns a content_block_delta event carrying a text fragment.
func NewTextDelta(index int, text string) ContentBlockDeltaEvent {
	return ContentBlockDeltaEvent{
		Type:  EventContentBlockDelta,
		Index: index,
		Delta: BlockDelta{Type: DeltaTypeText, Text: &text},
	}
}

// NewInputJSONDelta returns a content_block_delta event carrying a partial JSON fragment.
func NewInputJSONDelta(index int, partialJSON string) ContentBlockDeltaEvent {
	return ContentBlockDeltaEvent{
		Type:  EventContentBlockDelta,
		Index: index,
		Delta: BlockDelta{Type: DeltaTypeInputJSON, PartialJSON: &partialJSON},
	}
}

// NewContentBlockStop returns a content_block_stop event.
func NewContentBlockStop(index int) ContentBlockStopEvent {
	return ContentBlockStopEvent{Type: EventContentBlockStop, ContentBlockIndex: index}
}

// NewMessageStop returns a message_stop event.
func NewMessageStop() MessageStopEvent {
	return MessageStopEvent{Type: EventMessageStop}
}

// NewMessageDelta returns a message_delta event carrying usage.
func NewMessageDelta(usage Usage) MessageDeltaEvent {
	return MessageDeltaEvent{Type: EventMessageDelta, Usage: usage}
}
