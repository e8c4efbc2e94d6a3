package middleware

import (
	"net/http"
	"strings"

	"github.com/claude-vim/claude-bridge/internal/observability"
)

// Request ID headers. Claude clients read Request-Id; X-Request-ID is accepted from
// and echoed to generic HTTP tooling.
const (
	HeaderRequestID  = "Request-Id"
	HeaderXRequestID = "X-Request-ID"
)

const maxRequestIDLength = 128

// inboundRequestID returns the caller-supplied request ID if it is usable.
func inboundRequestID(r *http.Request) (string, bool) {
	for _, header := range []string{HeaderXRequestID, HeaderRequestID} {
		id := strings.TrimSpace(r.Header.Get(header))
		if id != "" && len(id) <= maxRequestIDLength && isVisibleASCII(id) {
			return id, true
		}
	}
	return "", false
}

func isVisibleASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '!' || s[i] > '~' {
			return false
		}
	}
	return true
}

// RequestIDGeneration stores a request ID in the request context, reusing the
// caller's ID when present. Log records written with that context carry it.
func RequestIDGeneration(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := inboundRequestID(r)
		if !ok {
			id = observability.NewRequestID()
		}

		next.ServeHTTP(w, r.WithContext(observability.ContextWithRequestID(r.Context(), id)))
	})
}

// RequestIDPropagation echoes the request ID in the response headers.
// Headers are set before next runs so streamed and recovered responses carry them.
func RequestIDPropagation(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id, ok := observability.RequestIDFromContext(r.Context()); ok {
			w.Header().Set(HeaderRequestID, id)
			w.Header().Set(HeaderXRequestID, id)
		}

		next.ServeHTTP(w, r)
	})
}
