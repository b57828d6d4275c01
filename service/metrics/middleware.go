package metrics

import (
	"net/http"
	"time"
)

// HTTPMetricsMiddleware creates middleware that records HTTP request metrics.
// The handlerName parameter should be a constant identifier for the endpoint
// (e.g., "/api/transactions"), not the raw request path.
func HTTPMetricsMiddleware(m *Metrics, handlerName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// Wrap ResponseWriter to capture the status code.
			wrapped := &responseWriter{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
			}

			next.ServeHTTP(wrapped, r)

			m.RecordHTTPRequest(handlerName, r.Method, wrapped.statusCode, time.Since(start).Seconds())
		})
	}
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (w *responseWriter) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}
