package bedrockconverse

import (
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/document"
	brtypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
)

////////////////////////////////////////////////////////////////////////////////
// CONVERSE REQUEST → SDK

// toConverseStreamInput converts the vendor-native request into SDK input.
// JSON documents (tool input, input schema) are decoded into generic values because
// the SDK's lazy documents encode json.RawMessage as a byte string.
func toConverseStreamInput(req *ConverseRequest) (*bedrockruntime.ConverseStreamInput, error) {
	messages := make([]brtypes.Message, 0, len(req.Messages))
	for i, msg := range req.Messages {
		content, err := toSDKContentBlocks(msg.Content)
		if err != nil {
			return nil, fmt.Errorf("message %d: %w", i, err)
		}
		messages = append(messages, brtypes.Message{
			Role:    brtypes.ConversationRole(msg.Role),
			Content: content,
		})
	}

	input := &bedrockruntime.ConverseStreamInput{
		ModelId:  aws.String(req.ModelID),
		Messages: messages,
	}

	if len(req.System) > 0 {
		system := make([]brtypes.SystemContentBlock, 0, len(req.System))
		for _, block := range req.System {
			system = append(system, &brtypes.SystemContentBlockMemberText{Value: block.Text})
		}
		input.System = system
	}

	if req.ToolConfig != nil {
		toolConfig, err := toSDKToolConfig(req.ToolConfig)
		if err != nil {
			return nil, err
		}
		input.ToolConfig = toolConfig
	}

	if cfg := req.InferenceConfig; cfg != nil {
		input.InferenceConfig = &brtypes.InferenceConfiguration{
			MaxTokens:     cfg.MaxTokens,
			Temperature:   cfg.Temperature,
			TopP:          cfg.TopP,
			StopSequences: cfg.StopSequences,
		}
	}

	return input, nil
}

// toSDKContentBlocks converts Converse content blocks to SDK union members.
func toSDKContentBlocks(blocks []ContentBlock) ([]brtypes.ContentBlock, error) {
	result := make([]brtypes.ContentBlock, 0, len(blocks))
	for i, block := range blocks {
		switch {
		case block.Text != nil:
			result = append(result, &brtypes.ContentBlockMemberText{Value: *block.Text})

		case block.ToolUse != nil:
			input, err := decodeDocument(block.ToolUse.Input)
			if err != nil {
				return nil, fmt.Errorf("tool use input in block %d: %w", i, err)
			}
			result = append(result, &brtypes.ContentBlockMemberToolUse{Value: brtypes.ToolUseBlock{
				ToolUseId: aws.String(block.ToolUse.ToolUseID),
				Name:      aws.String(block.ToolUse.Name),
				Input:     input,
			}})

		case block.ToolResult != nil:
			content := make([]brtypes.ToolResultContentBlock, 0, len(block.ToolResult.Content))
			for _, part := range block.ToolResult.Content {
				content = append(content, &brtypes.ToolResultContentBlockMemberText{Value: part.Text})
			}
			toolResult := brtypes.ToolResultBlock{
				ToolUseId: aws.String(block.ToolResult.ToolUseID),
				Content:   content,
			}
			if block.ToolResult.Status != "" {
				toolResult.Status = brtypes.ToolResultStatus(block.ToolResult.Status)
			}
			result = append(result, &brtypes.ContentBlockMemberToolResult{Value: toolResult})

		default:
			return nil, fmt.Errorf("content block %d has no variant set", i)
		}
	}
	return result, nil
}

// toSDKToolConfig converts the tool configuration to SDK types.
func toSDKToolConfig(config *ToolConfig) (*brtypes.ToolConfiguration, error) {
	tools := make([]brtypes.Tool, 0, len(config.Tools))
	for i, tool := range config.Tools {
		schema, err := decodeDocument(tool.ToolSpec.InputSchema.JSON)
		if err != nil {
			return nil, fmt.Errorf("input schema of tool %d: %w", i, err)
		}

		spec := brtypes.ToolSpecification{
			Name:        aws.String(tool.ToolSpec.Name),
			InputSchema: &brtypes.ToolInputSchemaMemberJson{Value: schema},
		}
		// Bedrock rejects empty descriptions; omit instead.
		if tool.ToolSpec.Description != "" {
			spec.Description = aws.String(tool.ToolSpec.Description)
		}

		tools = append(tools, &brtypes.ToolMemberToolSpec{Value: spec})
	}
	return &brtypes.ToolConfiguration{Tools: tools}, nil
}

// decodeDocument decodes raw JSON into a lazy SDK document.
func decodeDocument(raw json.RawMessage) (document.Interface, error) {
	var v any
	if len(raw) == 0 {
		v = map[string]any{}
	} else if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return document.NewLazyDocument(v), nil
}

////////////////////////////////////////////////////////////////////////////////
// SDK STREAM EVENT → CONVERSE STREAM EVENT

// fromSDKEvent converts an SDK stream union member to a StreamEvent.
// Members this bridge does not know become UnknownEvent.
func fromSDKEvent(event brtypes.ConverseStreamOutput) StreamEvent {
	switch v := event.(type) {
	case *brtypes.ConverseStreamOutputMemberMessageStart:
		return MessageStart{Role: string(v.Value.Role)}

	case *brtypes.ConverseStreamOutputMemberContentBlockStart:
		start := BlockStart{Index: int(aws.ToInt32(v.Value.ContentBlockIndex))}
		if toolUse, ok := v.Value.Start.(*brtypes.ContentBlockStartMemberToolUse); ok {
			start.ToolUse = &ToolUseStart{
				ToolUseID: aws.ToString(toolUse.Value.ToolUseId),
				Name:      aws.ToString(toolUse.Value.Name),
			}
		}
		return start

	case *brtypes.ConverseStreamOutputMemberContentBlockDelta:
		return BlockDelta{
			Index: int(aws.ToInt32(v.Value.ContentBlockIndex)),
			Delta: fromSDKDelta(v.Value.Delta),
		}

	case *brtypes.ConverseStreamOutputMemberContentBlockStop:
		return BlockStop{Index: int(aws.ToInt32(v.Value.ContentBlockIndex))}

	case *brtypes.ConverseStreamOutputMemberMessageStop:
		return MessageStop{StopReason: string(v.Value.StopReason)}

	case *brtypes.ConverseStreamOutputMemberMetadata:
		metadata := Metadata{}
		if usage := v.Value.Usage; usage != nil {
			metadata.Usage = &TokenUsage{
				InputTokens:  intPtr(usage.InputTokens),
				OutputTokens: intPtr(usage.OutputTokens),
				TotalTokens:  intPtr(usage.TotalTokens),
			}
		}
		if metrics := v.Value.Metrics; metrics != nil {
			metadata.LatencyMs = metrics.LatencyMs
		}
		return metadata

	case *brtypes.UnknownUnionMember:
		return UnknownEvent{Kind: v.Tag}

	default:
		return UnknownEvent{Kind: fmt.Sprintf("%T", event)}
	}
}

// fromSDKDelta converts an SDK delta union member to a Delta.
func fromSDKDelta(delta brtypes.ContentBlockDelta) Delta {
	switch d := delta.(type) {
	case *brtypes.ContentBlockDeltaMemberText:
		return TextDelta{Text: d.Value}
	case *brtypes.ContentBlockDeltaMemberToolUse:
		return ToolInputDelta{Input: aws.ToString(d.Value.Input)}
	case *brtypes.UnknownUnionMember:
		return UnknownDelta{Kind: d.Tag}
	default:
		return UnknownDelta{Kind: fmt.Sprintf("%T", delta)}
	}
}

func intPtr(v *int32) *int {
	if v == nil {
		return nil
	}
	i := int(*v)
	return &i
}
