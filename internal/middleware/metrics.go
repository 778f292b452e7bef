package middleware

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/usergate/user_service/internal/metrics"
)

// Metrics records request counts, durations and in-flight gauge values.
func Metrics() mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			metrics.IncrementInFlight()
			defer metrics.DecrementInFlight()

			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(wrapped, r)

			path := r.URL.Path
			// Use route pattern if available to keep label cardinality bounded.
			if route := mux.CurrentRoute(r); route != nil {
				if pathTemplate, err := route.GetPathTemplate(); err == nil {
					path = pathTemplate
				}
			}

			metrics.RecordHTTPRequest(r.Method, path, wrapped.statusCode, time.Since(start))
		})
	}
}
