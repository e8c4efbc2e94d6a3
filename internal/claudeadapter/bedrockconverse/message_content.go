package bedrockconverse

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/claude-vim/claude-bridge/internal/claudeadapter"
	"github.com/claude-vim/claude-bridge/internal/claudeadapter/types"
)

// fromMessages converts client messages to Converse messages, preserving message order.
func fromMessages(ctx context.Context, messages []types.Message, policy UnknownBlockPolicy) ([]Message, error) {
	converseMessages := make([]Message, 0, len(messages))
	for i, msg := range messages {
		blocks, err := fromContentBlocks(ctx, i, msg.Content, policy)
		if err != nil {
			return nil, err
		}
		converseMessages = append(converseMessages, Message{
			Role:    string(msg.Role),
			Content: blocks,
		})
	}
	return converseMessages, nil
}

// fromContentBlocks converts the content of message msgIndex, preserving block order.
func fromContentBlocks(ctx context.Context, msgIndex int, content types.Content, policy UnknownBlockPolicy) ([]ContentBlock, error) {
	blocks := make([]ContentBlock, 0, len(content))
	for i, block := range content {
		switch b := block.(type) {
		case *types.Text:
			blocks = append(blocks, fromText(b))

		case *types.ToolUse:
			blocks = append(blocks, fromToolUse(b))

		case *types.ToolResult:
			blocks = append(blocks, fromToolResult(b))

		case *types.UnknownBlock:
			if policy == UnknownBlockReject {
				return nil, &claudeadapter.TranslationError{
					Field: fmt.Sprintf("messages[%d].content[%d]", msgIndex, i),
					Err:   fmt.Errorf("content block type %q not supported", b.Type),
				}
			}
			slog.WarnContext(ctx, "dropping unsupported content block",
				"type", b.Type,
				"message_index", msgIndex,
				"block_index", i,
			)

		default:
			return nil, &claudeadapter.TranslationError{
				Field: fmt.Sprintf("messages[%d].content[%d]", msgIndex, i),
				Err:   fmt.Errorf("unsupported content block %T", block),
			}
		}
	}
	if len(blocks) == 0 && len(content) > 0 {
		return nil, &claudeadapter.TranslationError{
			Field: fmt.Sprintf("messages[%d].content", msgIndex),
			Err:   errors.New("no supported content blocks left after dropping unknown blocks"),
		}
	}
	return blocks, nil
}

// fromText converts a text block to a Converse text block.
func fromText(b *types.Text) ContentBlock {
	text := b.Text
	return ContentBlock{Text: &text}
}

// fromToolUse converts a tool_use block to a Converse toolUse block.
func fromToolUse(b *types.ToolUse) ContentBlock {
	input := b.Input
	if len(input) == 0 {
		input = json.RawMessage("{}")
	}
	return ContentBlock{ToolUse: &ToolUseBlock{
		ToolUseID: b.ID,
		Name:      b.Name,
		Input:     input,
	}}
}

// fromToolResult converts a tool_result block to a Converse toolResult block.
// The string content becomes a single text part; errors are flagged via status.
func fromToolResult(b *types.ToolResult) ContentBlock {
	result := &ToolResultBlock{
		ToolUseID: b.ToolUseID,
		Content:   []ToolResultContent{{Text: b.Content}},
	}
	if b.IsError {
		result.Status = ToolResultStatusError
	}
	return ContentBlock{ToolResult: result}
}

////////////////////////////////////////////////////////////////////////////////
// CONVERSE → CLIENT

// FromConverseMessages converts Converse messages back to client messages.
// It is the inverse of the request translation for text, toolUse and toolResult blocks.
func FromConverseMessages(messages []Message) ([]types.Message, error) {
	result := make([]types.Message, 0, len(messages))
	for i, msg := range messages {
		converted, err := FromConverseMessage(msg)
		if err != nil {
			return nil, fmt.Errorf("message %d: %w", i, err)
		}
		result = append(result, converted)
	}
	return result, nil
}

// FromConverseMessage converts a single Converse message back to a client message.
func FromConverseMessage(msg Message) (types.Message, error) {
	content := make(types.Content, 0, len(msg.Content))
	for i, block := range msg.Content {
		switch {
		case block.Text != nil:
			content = append(content, types.NewText(*block.Text))

		case block.ToolUse != nil:
			input := block.ToolUse.Input
			if len(input) == 0 {
				input = json.RawMessage("{}")
			}
			content = append(content, &types.ToolUse{
				ID:    block.ToolUse.ToolUseID,
				Name:  block.ToolUse.Name,
				Input: input,
			})

		case block.ToolResult != nil:
			content = append(content, toToolResult(block.ToolResult))

		default:
			return types.Message{}, fmt.Errorf("content block %d has no supported variant", i)
		}
	}

	return types.Message{
		Role:    types.Role(msg.Role),
		Content: content,
	}, nil
}

// toToolResult joins the text parts of a Converse tool result into one string.
func toToolResult(b *ToolResultBlock) *types.ToolResult {
	var text string
	for i, part := range b.Content {
		if i > 0 {
			text += "\n"
		}
		text += part.Text
	}
	return &types.ToolResult{
		ToolUseID: b.ToolUseID,
		Content:   text,
		IsError:   b.Status == ToolResultStatusError,
	}
}
