package api

import (
	"context"
	"net/http"

	"github.com/usergate/user_service/internal/httputil"
)

// ConnectivityProber reports whether the backing store is reachable.
type ConnectivityProber interface {
	TestConnection(ctx context.Context) bool
}

// HealthHandler reports liveness plus database connectivity.
func HealthHandler(prober ConnectivityProber) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body := map[string]string{"status": "ok", "database": "ok"}
		status := http.StatusOK

		if prober != nil && !prober.TestConnection(r.Context()) {
			body["status"] = "degraded"
			body["database"] = "unreachable"
			status = http.StatusServiceUnavailable
		}

		httputil.WriteJSON(w, status, body)
	})
}
