package bedrockconverse

import "encoding/json"

// ConverseRequest is the vendor-native request. Its JSON encoding matches the
// Bedrock Converse wire format; optional sections are absent, never null.
type ConverseRequest struct {
	ModelID         string           `json:"modelId"`
	Messages        []Message        `json:"messages"`
	System          []SystemBlock    `json:"system,omitempty"`
	ToolConfig      *ToolConfig      `json:"toolConfig,omitempty"`
	InferenceConfig *InferenceConfig `json:"inferenceConfig,omitempty"`
}

// Message is a role-tagged list of Converse content blocks.
type Message struct {
	Role    string         `json:"role"`
	Content []ContentBlock `json:"content"`
}

// ContentBlock is a Converse content block. Exactly one field is set.
type ContentBlock struct {
	Text       *string          `json:"text,omitempty"`
	ToolUse    *ToolUseBlock    `json:"toolUse,omitempty"`
	ToolResult *ToolResultBlock `json:"toolResult,omitempty"`
}

// ToolUseBlock is a tool invocation issued by the model.
type ToolUseBlock struct {
	ToolUseID string          `json:"toolUseId"`
	Name      string          `json:"name"`
	Input     json.RawMessage `json:"input"`
}

// ToolResultStatusError marks a tool result as a failed tool call. Successful
// results carry no status.
const ToolResultStatusError = "error"

// ToolResultBlock carries the result of a tool invocation.
type ToolResultBlock struct {
	ToolUseID string              `json:"toolUseId"`
	Content   []ToolResultContent `json:"content"`
	Status    string              `json:"status,omitempty"`
}

// ToolResultContent is one text part of a tool result.
type ToolResultContent struct {
	Text string `json:"text"`
}

// SystemBlock is one system prompt entry.
type SystemBlock struct {
	Text string `json:"text"`
}

// ToolConfig wraps the tools available to the model.
type ToolConfig struct {
	Tools []Tool `json:"tools"`
}

// Tool is a tool entry of a ToolConfig.
type Tool struct {
	ToolSpec ToolSpecification `json:"toolSpec"`
}

// ToolSpecification declares a tool with its JSON input schema.
type ToolSpecification struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	InputSchema ToolInputSchema `json:"inputSchema"`
}

// ToolInputSchema wraps a JSON schema document.
type ToolInputSchema struct {
	JSON json.RawMessage `json:"json"`
}

// InferenceConfig holds sampling parameters.
type InferenceConfig struct {
	MaxTokens     *int32   `json:"maxTokens,omitempty"`
	Temperature   *float32 `json:"temperature,omitempty"`
	TopP          *float32 `json:"topP,omitempty"`
	StopSequences []string `json:"stopSequences,omitempty"`
}

////////////////////////////////////////////////////////////////////////////////
// STREAM EVENTS

// StreamEvent is one vendor-native stream event.
// Implementations: MessageStart, BlockStart, BlockDelta, BlockStop, MessageStop,
// Metadata, UnknownEvent.
type StreamEvent interface {
	streamEvent()
}

// MessageStart opens the assistant message.
type MessageStart struct {
	Role string
}

// ToolUseStart describes the tool invocation a block starts.
type ToolUseStart struct {
	ToolUseID string
	Name      string
}

// BlockStart opens the content block at Index. ToolUse is nil when the vendor
// sent no tool-use descriptor.
type BlockStart struct {
	Index   int
	ToolUse *ToolUseStart
}

// BlockDelta carries a fragment for the content block at Index.
type BlockDelta struct {
	Index int
	Delta Delta
}

// BlockStop closes the content block at Index.
type BlockStop struct {
	Index int
}

// MessageStop ends the assistant message.
type MessageStop struct {
	StopReason string
}

// TokenUsage holds token counters; a nil counter was absent upstream.
type TokenUsage struct {
	InputTokens  *int
	OutputTokens *int
	TotalTokens  *int
}

// Metadata carries usage information, usually after MessageStop.
type Metadata struct {
	Usage     *TokenUsage
	LatencyMs *int64
}

// UnknownEvent is a vendor event this bridge does not recognize.
type UnknownEvent struct {
	Kind string
}

func (MessageStart) streamEvent() {}
func (BlockStart) streamEvent()   {}
func (BlockDelta) streamEvent()   {}
func (BlockStop) streamEvent()    {}
func (MessageStop) streamEvent()  {}
func (Metadata) streamEvent()     {}
func (UnknownEvent) streamEvent() {}

// Delta is the payload of a BlockDelta.
// Implementations: TextDelta, ToolInputDelta, UnknownDelta.
type Delta interface {
	delta()
}

// TextDelta is a text fragment.
type TextDelta struct {
	Text string
}

// ToolInputDelta is a fragment of the tool input JSON. Fragments concatenate to
// the full input; a single fragment is not necessarily valid JSON.
type ToolInputDelta struct {
	Input string
}

// UnknownDelta is a delta kind this bridge does not recognize.
type UnknownDelta struct {
	Kind string
}

func (TextDelta) delta()      {}
func (ToolInputDelta) delta() {}
func (UnknownDelta) delta()   {}
