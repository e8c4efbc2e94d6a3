package types

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// Role is the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single conversation turn.
type Message struct {
	Role    Role    `json:"role" validate:"required,oneof=user assistant"`
	Content Content `json:"content" validate:"required,min=1"`
}

// ToolSpec declares a tool the model may call.
type ToolSpec struct {
	Name        string          `json:"name" validate:"required"`
	Description string          `json:"description,omitempty"`
	InputSchema json.RawMessage `json:"input_schema" validate:"required"`
}

// Request is an inbound create-message request.
//
// Model, MaxTokens and Temperature are optional overrides of the configured defaults.
// TopP and StopSequences have no configured default and are sent only when set.
type Request struct {
	Model         string     `json:"model,omitempty"`
	Messages      []Message  `json:"messages" validate:"required,min=1,dive"`
	Tools         []ToolSpec `json:"tools,omitempty" validate:"dive"`
	SystemPrompt  string     `json:"system_prompt,omitempty"`
	MaxTokens     *int       `json:"max_tokens,omitempty" validate:"omitempty,min=1"`
	Temperature   *float64   `json:"temperature,omitempty" validate:"omitempty,min=0,max=1"`
	TopP          *float64   `json:"top_p,omitempty" validate:"omitempty,min=0,max=1"`
	StopSequences []string   `json:"stop_sequences,omitempty"`
	Stream        *bool      `json:"stream,omitempty"`
}

// UnmarshalJSON implements json.Unmarshaler. It accepts "system" as an alias of
// "system_prompt", either as a string or as an array of text blocks.
func (r *Request) UnmarshalJSON(data []byte) error {
	type plain Request
	aux := struct {
		*plain
		System json.RawMessage `json:"system,omitempty"`
	}{plain: (*plain)(r)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	if r.SystemPrompt == "" && len(aux.System) > 0 {
		system, err := decodeTextContent("system", aux.System)
		if err != nil {
			return err
		}
		r.SystemPrompt = system
	}
	return nil
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// Validator returns the shared validator instance.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// FieldError reports a request field that failed validation.
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

// Validate checks that every required field of the request is present.
// The first violation is returned as a *FieldError.
func (r *Request) Validate() error {
	if err := Validator().Struct(r); err != nil {
		return toFieldError(err)
	}

	for i, msg := range r.Messages {
		for j, block := range msg.Content {
			switch b := block.(type) {
			case *Text, *UnknownBlock:
				// nothing required beyond the decoded shape
			case *ToolUse:
				if err := Validator().Struct(b); err != nil {
					return prefixFieldError(fmt.Sprintf("messages[%d].content[%d]", i, j), toFieldError(err))
				}
				if !isJSONObject(b.Input) {
					return &FieldError{
						Field: fmt.Sprintf("messages[%d].content[%d].input", i, j),
						Err:   errors.New("must be a JSON object"),
					}
				}
			case *ToolResult:
				if err := Validator().Struct(b); err != nil {
					return prefixFieldError(fmt.Sprintf("messages[%d].content[%d]", i, j), toFieldError(err))
				}
			case nil:
				return &FieldError{
					Field: fmt.Sprintf("messages[%d].content[%d]", i, j),
					Err:   errors.New("content block is null"),
				}
			}
		}
	}

	for i, tool := range r.Tools {
		if !isJSONObject(tool.InputSchema) {
			return &FieldError{
				Field: fmt.Sprintf("tools[%d].input_schema", i),
				Err:   errors.New("must be a JSON object"),
			}
		}
	}

	return nil
}

// toFieldError converts the first validator failure into a FieldError.
func toFieldError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	fe := verrs[0]
	return &FieldError{
		Field: jsonFieldPath(fe.Namespace()),
		Err:   fmt.Errorf("failed %q validation", fe.Tag()),
	}
}

func prefixFieldError(prefix string, err error) error {
	var fe *FieldError
	if errors.As(err, &fe) {
		return &FieldError{Field: prefix + "." + fe.Field, Err: fe.Err}
	}
	return err
}

// jsonFieldPath turns a validator namespace ("Request.Messages[0].Role") into
// the JSON path clients sent ("messages[0].role").
func jsonFieldPath(namespace string) string {
	parts := strings.Split(namespace, ".")
	if len(parts) > 1 {
		parts = parts[1:]
	}
	for i, p := range parts {
		name, index, _ := strings.Cut(p, "[")
		name = snakeCase(name)
		if index != "" {
			name += "[" + index
		}
		parts[i] = name
	}
	return strings.Join(parts, ".")
}

func snakeCase(s string) string {
	switch s {
	case "ID":
		return "id"
	case "ToolUseID":
		return "tool_use_id"
	}
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}

func isJSONObject(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return false
	}
	return json.Valid(trimmed)
}
