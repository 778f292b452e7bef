// Package middleware provides the request-processing stages composed into
// the server's handler chain at startup.
package middleware

import (
	"net/http"
	"strings"

	"github.com/usergate/user_service/internal/auth"
	"github.com/usergate/user_service/internal/httputil"
	"github.com/usergate/user_service/internal/logging"
)

// AuthMiddleware authenticates requests with a bearer token before they
// reach protected routes.
type AuthMiddleware struct {
	verifier  auth.TokenVerifier
	logger    *logging.Logger
	skipPaths map[string]bool
}

// NewAuthMiddleware creates a new authentication middleware. Requests to
// skipPaths bypass authentication.
func NewAuthMiddleware(verifier auth.TokenVerifier, logger *logging.Logger, skipPaths []string) *AuthMiddleware {
	skip := make(map[string]bool)
	for _, path := range skipPaths {
		skip[path] = true
	}

	return &AuthMiddleware{
		verifier:  verifier,
		logger:    logger,
		skipPaths: skip,
	}
}

// Handler returns the middleware handler. A rejected request terminates here;
// only the surrounding logging stage still observes it.
func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.skipPaths[r.URL.Path] {
			next.ServeHTTP(w, r)
			return
		}

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			m.logger.WithContext(r.Context()).Error("authentication failed: no token provided")
			httputil.WriteError(w, http.StatusUnauthorized, "Authentication required")
			return
		}

		token := strings.TrimPrefix(authHeader, "Bearer ")

		identity, err := m.verifier.Verify(r.Context(), token)
		if err != nil {
			m.logger.WithContext(r.Context()).WithError(err).Error("authentication failed")
			httputil.WriteError(w, http.StatusUnauthorized, "Invalid authentication token")
			return
		}

		ctx := auth.WithIdentity(r.Context(), identity)
		ctx = logging.WithUserID(ctx, identity.ID)
		SetAuthenticatedUser(ctx, identity.ID)

		m.logger.WithContext(ctx).Infof("user %s authenticated successfully", identity.ID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
