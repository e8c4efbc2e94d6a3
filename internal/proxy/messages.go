package proxy

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/claude-vim/claude-bridge/internal/claudeadapter"
	"github.com/claude-vim/claude-bridge/internal/claudeadapter/bedrockconverse"
	"github.com/claude-vim/claude-bridge/internal/observability/middleware"
	"github.com/claude-vim/claude-bridge/internal/sse"
)

// CreateMessagesHandler handles Claude-compatible streaming message requests.
type CreateMessagesHandler struct {
	Adapter  *bedrockconverse.CreateMessageAdapter
	Streamer bedrockconverse.Streamer
}

// Compile-time check to ensure CreateMessagesHandler implements http.Handler
var _ http.Handler = (*CreateMessagesHandler)(nil)

// ServeHTTP implements http.Handler. Only streaming requests are supported.
func (h *CreateMessagesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req claudeadapter.CreateMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			slog.WarnContext(ctx, "request exceeds size limit", "limit_bytes", maxBytesErr.Limit)
			writeJSONClaudeError(ctx, w, claudeadapter.NewErrorResponse(
				claudeadapter.ErrorTypeTooLarge,
				http.StatusText(http.StatusRequestEntityTooLarge),
			))
			return
		}
		slog.WarnContext(ctx, "failed to decode request", "error", err)
		writeJSONClaudeError(ctx, w, claudeadapter.NewErrorResponse(
			claudeadapter.ErrorTypeInvalidRequest,
			err.Error(),
		))
		return
	}

	if req.Stream != nil && !*req.Stream {
		writeJSONClaudeError(ctx, w, claudeadapter.NewErrorResponse(
			claudeadapter.ErrorTypeInvalidRequest,
			"only streaming requests are supported",
		))
		return
	}

	middleware.SetLogAttrs(ctx, slog.String("model", req.Model))

	h.streamResponse(ctx, w, req)
}

// streamResponse streams message events using SSE.
func (h *CreateMessagesHandler) streamResponse(
	ctx context.Context,
	w http.ResponseWriter,
	req claudeadapter.CreateMessageRequest,
) {
	if ctx.Err() != nil {
		return
	}
	stream, err := h.Adapter.ProcessStreamingRequest(ctx, req, h.Streamer)
	if err != nil {
		slog.ErrorContext(ctx, "streaming request failed", "error", err)
		writeJSONClaudeError(ctx, w, errorResponseFor(err))
		return
	}

	writer, err := sse.NewHTTPWriter(w)
	if err != nil {
		slog.ErrorContext(ctx, "SSE not supported", "error", err)
		writeJSONClaudeError(ctx, w, claudeadapter.NewErrorResponse(
			claudeadapter.ErrorTypeAPI,
			http.StatusText(http.StatusInternalServerError),
		))
		return
	}

	for event, err := range stream {
		// Check for client disconnect before processing event
		if ctx.Err() != nil {
			slog.DebugContext(ctx, "client disconnected during stream")
			return
		}

		if err != nil {
			slog.ErrorContext(ctx, "stream error", "error", err)
			if writeErr := writer.WriteEvent("error", errorResponseFor(err)); writeErr != nil {
				slog.ErrorContext(ctx, "failed to write error event", "error", writeErr)
			}
			return
		}

		if err := writer.WriteEvent(event.EventName(), event); err != nil {
			slog.ErrorContext(ctx, "failed to write event", "error", err)
			return
		}
	}
}

// errorResponseFor extracts the client-facing envelope from adapter errors,
// wrapping unexpected errors as api_error.
func errorResponseFor(err error) *claudeadapter.ErrorResponse {
	var translationErr *claudeadapter.TranslationError
	if errors.As(err, &translationErr) {
		return translationErr.ErrorResponse()
	}

	var upstreamErr *claudeadapter.UpstreamInvocationError
	if errors.As(err, &upstreamErr) {
		return upstreamErr.ErrorResponse()
	}

	var errResp *claudeadapter.ErrorResponse
	if errors.As(err, &errResp) {
		return errResp
	}

	return claudeadapter.NewErrorResponse(claudeadapter.ErrorTypeAPI, err.Error())
}
