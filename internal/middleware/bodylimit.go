package middleware

import "net/http"

// BodyLimit caps the size of inbound request bodies. Reads past the cap fail
// with http.MaxBytesError, which the JSON decoder surfaces as a 400 and
// net/http as a 413.
func BodyLimit(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			}
			next.ServeHTTP(w, r)
		})
	}
}
