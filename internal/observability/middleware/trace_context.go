package middleware

import (
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// TraceContextExtraction joins the caller's W3C trace without starting spans.
//
// The span context from the traceparent/tracestate headers is stored in the request
// context, where the log handler turns it into trace_id and span_id attributes, and
// is echoed in the response headers.
func TraceContextExtraction(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		propagator := otel.GetTextMapPropagator()
		ctx := propagator.Extract(r.Context(), propagation.HeaderCarrier(r.Header))

		if trace.SpanContextFromContext(ctx).IsValid() {
			propagator.Inject(ctx, propagation.HeaderCarrier(w.Header()))
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
