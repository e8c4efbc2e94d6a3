package proxy

import "net/http"

// healthStatus is the body of the health endpoints.
type healthStatus struct {
	Status string `json:"status"`
}

// livenessHandler reports that the process is serving HTTP. It never checks Bedrock.
func livenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-cache")
		writeJSON(r.Context(), w, healthStatus{Status: "ok"}, http.StatusOK)
	}
}

// readinessHandler reports whether message requests are accepted: 200 while the
// application is ready, 503 while it is starting or draining streams on shutdown.
func readinessHandler(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-cache")
		if !checker.IsReady() {
			writeJSON(r.Context(), w, healthStatus{Status: "unavailable"}, http.StatusServiceUnavailable)
			return
		}
		writeJSON(r.Context(), w, healthStatus{Status: "ready"}, http.StatusOK)
	}
}
