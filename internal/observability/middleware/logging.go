package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/httplog/v3"
)

// Logging writes one ECS-shaped record per request.
// Bodies are never logged so prompts and completions stay out of the logs.
// Successful health probes are skipped.
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	return httplog.RequestLogger(logger, &httplog.Options{
		Level:  slog.LevelInfo,
		Schema: httplog.SchemaECS.Concise(true),
		Skip: func(r *http.Request, status int) bool {
			return strings.HasPrefix(r.URL.Path, "/health/") && status < http.StatusBadRequest
		},

		LogRequestHeaders:  []string{"Content-Type", "Anthropic-Version", "User-Agent"},
		LogResponseHeaders: []string{},
		LogRequestBody:     nil,
		LogResponseBody:    nil,

		// Recovery middleware writes the error response.
		RecoverPanics: false,
	})
}

// SetLogAttrs adds attributes to the request's log record. It is a no-op outside Logging.
func SetLogAttrs(ctx context.Context, attrs ...slog.Attr) {
	httplog.SetAttrs(ctx, attrs...)
}
