package bedrockconverse

import (
	"context"
	"errors"

	"github.com/aws/smithy-go"

	"github.com/claude-vim/claude-bridge/internal/claudeadapter"
)

// toErrorResponse converts any upstream error into a Claude-compatible error envelope.
// Bedrock errors surface as smithy.APIError with an exception name as code, for both
// the initial call and exceptions delivered inside the event stream.
// Non-API errors (network, timeouts) are wrapped as generic api_error.
func toErrorResponse(err error) *claudeadapter.ErrorResponse {
	if err == nil {
		return nil
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		message := apiErr.ErrorMessage()
		if message == "" {
			message = apiErr.Error()
		}
		return claudeadapter.NewErrorResponse(mapBedrockErrorCode(apiErr.ErrorCode()), message)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return claudeadapter.NewErrorResponse(claudeadapter.ErrorTypeTimeout, err.Error())
	}

	// Fallback: wrap non-Bedrock errors (network, credentials resolution, etc.) as api_error
	return claudeadapter.NewErrorResponse(claudeadapter.ErrorTypeAPI, err.Error())
}

// wrapUpstreamError builds an UpstreamInvocationError for the given phase.
func wrapUpstreamError(phase string, err error) *claudeadapter.UpstreamInvocationError {
	return &claudeadapter.UpstreamInvocationError{
		Phase:    phase,
		Err:      err,
		Response: toErrorResponse(err),
	}
}

// mapBedrockErrorCode translates Bedrock exception names to Claude error types.
func mapBedrockErrorCode(code string) string {
	switch code {
	case "ValidationException":
		return claudeadapter.ErrorTypeInvalidRequest
	case "AccessDeniedException":
		return claudeadapter.ErrorTypePermission
	case "UnrecognizedClientException", "ExpiredTokenException", "InvalidSignatureException":
		return claudeadapter.ErrorTypeAuthentication
	case "ResourceNotFoundException":
		return claudeadapter.ErrorTypeNotFound
	case "ThrottlingException", "ServiceQuotaExceededException":
		return claudeadapter.ErrorTypeRateLimit
	case "ModelTimeoutException":
		return claudeadapter.ErrorTypeTimeout
	case "ServiceUnavailableException", "ModelNotReadyException":
		return claudeadapter.ErrorTypeOverloaded
	case "InternalServerException", "ModelStreamErrorException", "ModelErrorException":
		return claudeadapter.ErrorTypeAPI
	default:
		// Unknown error codes default to api_error for safe handling
		return claudeadapter.ErrorTypeAPI
	}
}
