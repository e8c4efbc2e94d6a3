package claudeadapter

import "fmt"

// Claude-compatible error types.
const (
	ErrorTypeInvalidRequest = "invalid_request_error"
	ErrorTypeAuthentication = "authentication_error"
	ErrorTypePermission     = "permission_error"
	ErrorTypeNotFound       = "not_found_error"
	ErrorTypeTooLarge       = "request_too_large"
	ErrorTypeRateLimit      = "rate_limit_error"
	ErrorTypeTimeout        = "timeout_error"
	ErrorTypeOverloaded     = "overloaded_error"
	ErrorTypeAPI            = "api_error"
)

// APIError represents a Claude-formatted error detail.
type APIError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// Error implements the error interface, returning the error message.
func (e *APIError) Error() string {
	return e.Message
}

// ErrorResponse wraps APIError in the envelope Claude clients expect:
// {"type":"error","error":{...}}. It is used for JSON bodies and SSE error events.
type ErrorResponse struct {
	Type string   `json:"type"`
	Err  APIError `json:"error"`
}

// NewErrorResponse returns an error envelope with the given type and message.
func NewErrorResponse(errType, message string) *ErrorResponse {
	return &ErrorResponse{
		Type: "error",
		Err:  APIError{Type: errType, Message: message},
	}
}

// Error implements the error interface, returning the underlying error message.
// This allows ErrorResponse to be used directly in error returns while keeping
// the full structure for marshaling.
func (e *ErrorResponse) Error() string {
	return e.Err.Message
}

// TranslationError reports a malformed inbound request. It is raised before any
// upstream call is made.
type TranslationError struct {
	Field string
	Err   error
}

func (e *TranslationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("invalid request: %v", e.Err)
	}
	return fmt.Sprintf("invalid request: %s: %v", e.Field, e.Err)
}

func (e *TranslationError) Unwrap() error {
	return e.Err
}

// ErrorResponse returns the client-facing envelope for the translation failure.
func (e *TranslationError) ErrorResponse() *ErrorResponse {
	return NewErrorResponse(ErrorTypeInvalidRequest, e.Error())
}

// Upstream call phases.
const (
	PhaseInvoke = "invoke"
	PhaseStream = "stream"
)

// UpstreamInvocationError reports a failed provider call. Phase tells whether the
// call failed before any event was received (PhaseInvoke) or mid-stream (PhaseStream).
type UpstreamInvocationError struct {
	Phase    string
	Err      error
	Response *ErrorResponse
}

func (e *UpstreamInvocationError) Error() string {
	return fmt.Sprintf("upstream %s failed: %v", e.Phase, e.Err)
}

func (e *UpstreamInvocationError) Unwrap() error {
	return e.Err
}

// ErrorResponse returns the client-facing envelope, falling back to a generic api_error.
func (e *UpstreamInvocationError) ErrorResponse() *ErrorResponse {
	if e.Response != nil {
		return e.Response
	}
	return NewErrorResponse(ErrorTypeAPI, e.Err.Error())
}
