package proxy

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/claude-vim/claude-bridge/internal/claudeadapter"
)

// writeJSON writes a JSON response with the given status code.
// Logs encoding failures internally using the provided context.
func writeJSON(ctx context.Context, w http.ResponseWriter, data any, status int) {
	w.Header().Set("Content-Type", "application/json")
	// Headers and status are written before encoding to avoid buffering.
	// If encoding fails, the client may receive a partial response.
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.ErrorContext(ctx, "failed to encode JSON response", "error", err)
	}
}

// writeJSONClaudeError writes a Claude-compatible error response with the HTTP status
// code Claude clients associate with the error type.
func writeJSONClaudeError(ctx context.Context, w http.ResponseWriter, errResp *claudeadapter.ErrorResponse) {
	writeJSON(ctx, w, errResp, statusForErrorType(errResp.Err.Type))
}

// statusForErrorType maps Claude error types to HTTP status codes.
func statusForErrorType(errType string) int {
	switch errType {
	case claudeadapter.ErrorTypeInvalidRequest:
		return http.StatusBadRequest
	case claudeadapter.ErrorTypeAuthentication:
		return http.StatusUnauthorized
	case claudeadapter.ErrorTypePermission:
		return http.StatusForbidden
	case claudeadapter.ErrorTypeNotFound:
		return http.StatusNotFound
	case claudeadapter.ErrorTypeTooLarge:
		return http.StatusRequestEntityTooLarge
	case claudeadapter.ErrorTypeRateLimit:
		return http.StatusTooManyRequests
	case claudeadapter.ErrorTypeTimeout:
		return http.StatusGatewayTimeout
	case claudeadapter.ErrorTypeOverloaded:
		// Non-standard status used by the Claude API for overload.
		return 529
	default:
		return http.StatusInternalServerError
	}
}
