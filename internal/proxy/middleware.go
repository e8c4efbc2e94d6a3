package proxy

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/claude-vim/claude-bridge/internal/claudeadapter"
)

// Recovery turns a handler panic into a Claude api_error response.
// A panic after the event stream has started cannot change the status; the
// connection is then closed by net/http when the handler returns.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			slog.ErrorContext(r.Context(), "handler panic", "panic", fmt.Sprint(rec), "path", r.URL.Path)
			writeJSONClaudeError(r.Context(), w, claudeadapter.NewErrorResponse(
				claudeadapter.ErrorTypeAPI,
				http.StatusText(http.StatusInternalServerError),
			))
		}()

		next.ServeHTTP(w, r)
	})
}

// RequestSizeLimit caps request bodies at maxBytes. Reads past the limit fail with
// *http.MaxBytesError, which the messages handler reports as request_too_large.
func RequestSizeLimit(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > maxBytes {
				writeJSONClaudeError(r.Context(), w, claudeadapter.NewErrorResponse(
					claudeadapter.ErrorTypeTooLarge,
					fmt.Sprintf("request body exceeds %d bytes", maxBytes),
				))
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}

// applyMiddlewares wraps h so that the first middleware runs outermost.
func applyMiddlewares(h http.Handler, middlewares ...func(http.Handler) http.Handler) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}
