package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/usergate/user_service/internal/httputil"
	"github.com/usergate/user_service/internal/logging"
)

// Recovery converts panics from any downstream stage into the uniform 500
// envelope. The panic value and stack are logged server-side only.
func Recovery(logger *logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.WithContext(r.Context()).WithFields(map[string]interface{}{
						"panic":  rec,
						"method": r.Method,
						"path":   r.URL.Path,
						"stack":  string(debug.Stack()),
					}).Error("panic recovered")

					httputil.WriteError(w, http.StatusInternalServerError, "Internal Server Error")
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
