package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/tidwall/gjson"

	"github.com/usergate/user_service/internal/logging"
)

// sensitiveFields are redacted from logged request bodies. Matching is exact
// and case-sensitive on top-level keys.
var sensitiveFields = []string{"password", "token", "secret", "authorization", "key", "apiKey", "api_key"}

// identityHolder lets the inner auth stage report the resolved user id back
// to this outer stage for the completion log.
type identityHolder struct {
	userID string
}

type identityHolderKey struct{}

// SetAuthenticatedUser records the authenticated user id for the completion
// log of the current request. No-op when the logging stage is absent.
func SetAuthenticatedUser(ctx context.Context, userID string) {
	if holder, ok := ctx.Value(identityHolderKey{}).(*identityHolder); ok {
		holder.userID = userID
	}
}

// RequestLogger logs one line at request ingress and one at completion,
// correlated by a per-request id.
type RequestLogger struct {
	logger  *logging.Logger
	maxBody int64
}

// NewRequestLogger creates the logging middleware. Bodies larger than maxBody
// are never buffered for the ingress log.
func NewRequestLogger(logger *logging.Logger, maxBody int64) *RequestLogger {
	if maxBody <= 0 {
		maxBody = 1 << 20
	}
	return &RequestLogger{logger: logger, maxBody: maxBody}
}

// Handler returns the middleware handler. It wraps the full chain: the
// completion line fires exactly once, whatever the downstream outcome.
func (m *RequestLogger) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := logging.NewRequestID()
		start := time.Now()

		holder := &identityHolder{}
		ctx := logging.WithRequestID(r.Context(), requestID)
		ctx = context.WithValue(ctx, identityHolderKey{}, holder)
		r = r.WithContext(ctx)

		w.Header().Set("X-Request-ID", requestID)

		m.logger.WithContext(ctx).WithFields(map[string]interface{}{
			"method":     r.Method,
			"path":       r.URL.Path,
			"ip":         r.RemoteAddr,
			"user_agent": r.UserAgent(),
			"body":       m.sanitizeBody(r),
			"query":      r.URL.Query().Encode(),
		}).Info("request received")

		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		userID := holder.userID
		if userID == "" {
			userID = "unauthenticated"
		}

		m.logger.WithContext(ctx).WithFields(map[string]interface{}{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      wrapped.statusCode,
			"duration_ms": time.Since(start).Milliseconds(),
			"user":        userID,
		}).Info("request completed")
	})
}

// sanitizeBody reads the request body, replaces sensitive top-level keys with
// a marker and restores the body for downstream handlers. Non-JSON bodies and
// bodies over the cap are logged as an empty object; the read is bounded so an
// oversized upload is never buffered here.
func (m *RequestLogger) sanitizeBody(r *http.Request) string {
	if r.Body == nil {
		return "{}"
	}

	raw, err := io.ReadAll(io.LimitReader(r.Body, m.maxBody+1))
	if err != nil {
		return "{}"
	}
	r.Body = io.NopCloser(io.MultiReader(bytes.NewReader(raw), r.Body))

	if int64(len(raw)) > m.maxBody {
		return "{}"
	}

	if len(raw) == 0 || !gjson.ValidBytes(raw) {
		return "{}"
	}

	parsed := gjson.ParseBytes(raw)
	if !parsed.IsObject() {
		return "{}"
	}

	sanitized := make(map[string]interface{})
	parsed.ForEach(func(key, value gjson.Result) bool {
		sanitized[key.Str] = value.Value()
		return true
	})
	for _, field := range sensitiveFields {
		if _, ok := sanitized[field]; ok {
			sanitized[field] = "[REDACTED]"
		}
	}

	out, err := json.Marshal(sanitized)
	if err != nil {
		return "{}"
	}
	return string(out)
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	written    bool
}

func (rw *responseWriter) WriteHeader(code int) {
	if !rw.written {
		rw.statusCode = code
		rw.written = true
		rw.ResponseWriter.WriteHeader(code)
	}
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if !rw.written {
		rw.WriteHeader(http.StatusOK)
	}
	return rw.ResponseWriter.Write(b)
}
