package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Content block type discriminators.
const (
	BlockTypeText       = "text"
	BlockTypeToolUse    = "tool_use"
	BlockTypeToolResult = "tool_result"
)

// ContentBlock is one typed unit of message content.
// Implementations: *Text, *ToolUse, *ToolResult, *UnknownBlock.
type ContentBlock interface {
	// BlockType returns the wire discriminator of the block.
	BlockType() string
	contentBlock()
}

// Text is plain text content.
type Text struct {
	Text string
}

// ToolUse is a model-initiated tool invocation.
type ToolUse struct {
	ID    string          `validate:"required"`
	Name  string          `validate:"required"`
	Input json.RawMessage // JSON object
}

// ToolResult is the caller-supplied return value of a tool invocation.
type ToolResult struct {
	ToolUseID string `validate:"required"`
	Content   string
	IsError   bool
}

// UnknownBlock keeps a block whose type this bridge does not recognize.
// Translation decides whether it is dropped or rejected.
type UnknownBlock struct {
	Type string
	Raw  json.RawMessage
}

func (*Text) contentBlock()         {}
func (*ToolUse) contentBlock()      {}
func (*ToolResult) contentBlock()   {}
func (*UnknownBlock) contentBlock() {}

func (*Text) BlockType() string           { return BlockTypeText }
func (*ToolUse) BlockType() string        { return BlockTypeToolUse }
func (*ToolResult) BlockType() string     { return BlockTypeToolResult }
func (b *UnknownBlock) BlockType() string { return b.Type }

// NewText returns a text block.
func NewText(text string) *Text {
	return &Text{Text: text}
}

// wireBlock is the union of all block fields as they appear on the wire.
type wireBlock struct {
	Type      string          `json:"type"`
	Text      *string         `json:"text,omitempty"`
	ID        string          `json:"id,omitempty"`
	Name      string          `json:"name,omitempty"`
	Input     json.RawMessage `json:"input,omitempty"`
	ToolUseID string          `json:"tool_use_id,omitempty"`
	Content   json.RawMessage `json:"content,omitempty"`
	IsError   bool            `json:"is_error,omitempty"`
}

// decodeContentBlock decodes a single wire block into its variant.
func decodeContentBlock(data []byte) (ContentBlock, error) {
	var wb wireBlock
	if err := json.Unmarshal(data, &wb); err != nil {
		return nil, err
	}

	switch wb.Type {
	case BlockTypeText:
		if wb.Text == nil {
			return nil, fmt.Errorf("text block missing text field")
		}
		return &Text{Text: *wb.Text}, nil

	case BlockTypeToolUse:
		input := wb.Input
		if len(input) == 0 || bytes.Equal(input, []byte("null")) {
			input = json.RawMessage("{}")
		}
		return &ToolUse{ID: wb.ID, Name: wb.Name, Input: input}, nil

	case BlockTypeToolResult:
		content, err := decodeTextContent("tool_result content", wb.Content)
		if err != nil {
			return nil, err
		}
		return &ToolResult{ToolUseID: wb.ToolUseID, Content: content, IsError: wb.IsError}, nil

	case "":
		return nil, fmt.Errorf("content block missing type field")

	default:
		raw := make(json.RawMessage, len(data))
		copy(raw, data)
		return &UnknownBlock{Type: wb.Type, Raw: raw}, nil
	}
}

// decodeTextContent accepts either a string or an array of text parts, joined by
// newlines. field names the value in error messages.
func decodeTextContent(field string, data json.RawMessage) (string, error) {
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return "", nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		return s, nil
	}

	var parts []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	}
	if err := json.Unmarshal(data, &parts); err != nil {
		return "", fmt.Errorf("%s must be a string or an array of text parts: %w", field, err)
	}

	texts := make([]string, 0, len(parts))
	for i, p := range parts {
		if p.Type != BlockTypeText {
			return "", fmt.Errorf("%s part %d: type %q not supported", field, i, p.Type)
		}
		texts = append(texts, p.Text)
	}
	return strings.Join(texts, "\n"), nil
}

// encodeContentBlock encodes a block in its wire form.
func encodeContentBlock(block ContentBlock) ([]byte, error) {
	switch b := block.(type) {
	case *Text:
		return json.Marshal(wireBlock{Type: BlockTypeText, Text: &b.Text})
	case *ToolUse:
		input := b.Input
		if len(input) == 0 {
			input = json.RawMessage("{}")
		}
		return json.Marshal(wireBlock{Type: BlockTypeToolUse, ID: b.ID, Name: b.Name, Input: input})
	case *ToolResult:
		content, err := json.Marshal(b.Content)
		if err != nil {
			return nil, err
		}
		return json.Marshal(wireBlock{Type: BlockTypeToolResult, ToolUseID: b.ToolUseID, Content: content, IsError: b.IsError})
	case *UnknownBlock:
		return b.Raw, nil
	default:
		return nil, fmt.Errorf("unsupported content block %T", block)
	}
}

// Content is an ordered list of content blocks.
// It decodes from either a bare string (one text block) or an array of blocks.
type Content []ContentBlock

// UnmarshalJSON implements json.Unmarshaler.
func (c *Content) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*c = nil
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*c = Content{NewText(s)}
		return nil
	}

	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return fmt.Errorf("content must be a string or an array of content blocks: %w", err)
	}

	blocks := make(Content, 0, len(raws))
	for i, raw := range raws {
		block, err := decodeContentBlock(raw)
		if err != nil {
			return fmt.Errorf("content block %d: %w", i, err)
		}
		blocks = append(blocks, block)
	}
	*c = blocks
	return nil
}

// MarshalJSON implements json.Marshaler. Content is always encoded as a block array.
func (c Content) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, block := range c {
		if i > 0 {
			buf.WriteByte(',')
		}
		data, err := encodeContentBlock(block)
		if err != nil {
			return nil, fmt.Errorf("content block %d: %w", i, err)
		}
		buf.Write(data)
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}
