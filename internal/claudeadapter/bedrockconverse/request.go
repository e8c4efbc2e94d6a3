package bedrockconverse

import (
	"context"
	"errors"
	"fmt"

	"github.com/claude-vim/claude-bridge/internal/claudeadapter"
	"github.com/claude-vim/claude-bridge/internal/claudeadapter/types"
)

// UnknownBlockPolicy decides what happens to content blocks of unrecognized type.
type UnknownBlockPolicy string

const (
	// UnknownBlockDrop removes the block from the request and logs a warning.
	UnknownBlockDrop UnknownBlockPolicy = "drop"
	// UnknownBlockReject fails the translation with a TranslationError.
	UnknownBlockReject UnknownBlockPolicy = "reject"
)

// ParseUnknownBlockPolicy parses a policy name. The empty string selects UnknownBlockDrop.
func ParseUnknownBlockPolicy(s string) (UnknownBlockPolicy, error) {
	switch UnknownBlockPolicy(s) {
	case "", UnknownBlockDrop:
		return UnknownBlockDrop, nil
	case UnknownBlockReject:
		return UnknownBlockReject, nil
	default:
		return "", fmt.Errorf("unknown block policy %q (expected: drop, reject)", s)
	}
}

// RequestOptions carries the defaults applied when the client request leaves a
// setting unspecified.
type RequestOptions struct {
	ModelID       string
	MaxTokens     int
	Temperature   *float64
	UnknownBlocks UnknownBlockPolicy
}

// BuildRequest validates the client request and translates it into a Converse request.
// Validation failures are returned as *claudeadapter.TranslationError.
func BuildRequest(ctx context.Context, clientReq types.Request, opts RequestOptions) (*ConverseRequest, error) {
	if err := clientReq.Validate(); err != nil {
		return nil, toTranslationError(err)
	}

	modelID := clientReq.Model
	if modelID == "" {
		modelID = opts.ModelID
	}
	if modelID == "" {
		return nil, &claudeadapter.TranslationError{Field: "model", Err: errors.New("no model specified and no default configured")}
	}

	messages, err := fromMessages(ctx, clientReq.Messages, opts.UnknownBlocks)
	if err != nil {
		return nil, err
	}

	converseReq := &ConverseRequest{
		ModelID:         modelID,
		Messages:        messages,
		System:          buildSystem(clientReq.SystemPrompt),
		ToolConfig:      fromToolSpecs(clientReq.Tools),
		InferenceConfig: buildInferenceConfig(clientReq, opts),
	}

	return converseReq, nil
}

// buildSystem wraps the system prompt as a single-element block list.
// Returns nil for an empty prompt so the field is absent from the request.
func buildSystem(prompt string) []SystemBlock {
	if prompt == "" {
		return nil
	}
	return []SystemBlock{{Text: prompt}}
}

// buildInferenceConfig merges request overrides over configured defaults.
// Returns nil when nothing is set.
func buildInferenceConfig(clientReq types.Request, opts RequestOptions) *InferenceConfig {
	var config InferenceConfig

	maxTokens := opts.MaxTokens
	if clientReq.MaxTokens != nil {
		maxTokens = *clientReq.MaxTokens
	}
	if maxTokens > 0 {
		v := int32(maxTokens)
		config.MaxTokens = &v
	}

	temperature := opts.Temperature
	if clientReq.Temperature != nil {
		temperature = clientReq.Temperature
	}
	if temperature != nil {
		v := float32(*temperature)
		config.Temperature = &v
	}

	if clientReq.TopP != nil {
		v := float32(*clientReq.TopP)
		config.TopP = &v
	}
	config.StopSequences = clientReq.StopSequences

	if config.MaxTokens == nil && config.Temperature == nil && config.TopP == nil && len(config.StopSequences) == 0 {
		return nil
	}
	return &config
}

// ToRequest converts a Converse request back into a client request.
// Inference settings are carried over; the unknown-block policy has no inverse.
func ToRequest(converseReq *ConverseRequest) (types.Request, error) {
	messages, err := FromConverseMessages(converseReq.Messages)
	if err != nil {
		return types.Request{}, err
	}

	req := types.Request{
		Model:    converseReq.ModelID,
		Messages: messages,
		Tools:    toToolSpecs(converseReq.ToolConfig),
	}
	for i, block := range converseReq.System {
		if i > 0 {
			req.SystemPrompt += "\n"
		}
		req.SystemPrompt += block.Text
	}
	if cfg := converseReq.InferenceConfig; cfg != nil {
		if cfg.MaxTokens != nil {
			v := int(*cfg.MaxTokens)
			req.MaxTokens = &v
		}
		if cfg.Temperature != nil {
			v := float64(*cfg.Temperature)
			req.Temperature = &v
		}
		if cfg.TopP != nil {
			v := float64(*cfg.TopP)
			req.TopP = &v
		}
		req.StopSequences = cfg.StopSequences
	}
	return req, nil
}

// toTranslationError wraps request validation failures.
func toTranslationError(err error) error {
	var fieldErr *types.FieldError
	if errors.As(err, &fieldErr) {
		return &claudeadapter.TranslationError{Field: fieldErr.Field, Err: fieldErr.Err}
	}
	return &claudeadapter.TranslationError{Err: err}
}
