package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/usergate/user_service/internal/httputil"
	"github.com/usergate/user_service/internal/logging"
)

// rateLimitMessage is the fixed body returned to throttled clients.
const rateLimitMessage = "Too many requests, try again later"

// RateLimiter throttles clients to a maximum number of requests per window.
// Each client gets its own token bucket refilled across the window, so the
// limit slides rather than resetting on a fixed boundary.
type RateLimiter struct {
	limiters map[string]*rate.Limiter
	mu       sync.Mutex
	rate     rate.Limit
	burst    int
	logger   *logging.Logger
}

// NewRateLimiter creates a limiter allowing maxRequests per client per window.
// Non-positive limits are rejected at config load; clamp here so a direct
// caller cannot divide by zero.
func NewRateLimiter(window time.Duration, maxRequests int, logger *logging.Logger) *RateLimiter {
	if maxRequests < 1 {
		maxRequests = 1
	}
	return &RateLimiter{
		limiters: make(map[string]*rate.Limiter),
		rate:     rate.Every(window / time.Duration(maxRequests)),
		burst:    maxRequests,
		logger:   logger,
	}
}

// getLimiter returns the limiter for the given client key.
func (rl *RateLimiter) getLimiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	limiter, exists := rl.limiters[key]
	if !exists {
		limiter = rate.NewLimiter(rl.rate, rl.burst)
		rl.limiters[key] = limiter
	}

	return limiter
}

// Handler returns the rate limiting middleware handler. Clients are keyed by
// remote IP; the limiter runs ahead of authentication so every request,
// authenticated or not, counts against the same per-address budget.
func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := clientIP(r)

		if !rl.getLimiter(key).Allow() {
			rl.logger.WithContext(r.Context()).WithFields(map[string]interface{}{
				"client": key,
				"path":   r.URL.Path,
				"method": r.Method,
			}).Warn("rate limit exceeded")

			httputil.WriteError(w, http.StatusTooManyRequests, rateLimitMessage)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// Cleanup drops all per-client state once the map grows past a bound, to keep
// memory use flat under client churn.
func (rl *RateLimiter) Cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if len(rl.limiters) > 10000 {
		rl.limiters = make(map[string]*rate.Limiter)
	}
}

// StartCleanup starts a background goroutine to periodically cleanup old limiters.
func (rl *RateLimiter) StartCleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		for range ticker.C {
			rl.Cleanup()
		}
	}()
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
