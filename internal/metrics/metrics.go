// Package metrics exposes the service's Prometheus collectors.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "user_service",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "user_service",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "user_service",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "path"},
	)

	userOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "user_service",
			Subsystem: "users",
			Name:      "operations_total",
			Help:      "Total number of user CRUD operations.",
		},
		[]string{"operation", "outcome"},
	)
)

func init() {
	Registry.MustRegister(httpInFlight, httpRequests, httpDuration, userOperations)
}

// IncrementInFlight bumps the in-flight request gauge.
func IncrementInFlight() { httpInFlight.Inc() }

// DecrementInFlight lowers the in-flight request gauge.
func DecrementInFlight() { httpInFlight.Dec() }

// RecordHTTPRequest records one handled request.
func RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	httpRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	httpDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordUserOperation records one user CRUD operation outcome.
func RecordUserOperation(operation, outcome string) {
	userOperations.WithLabelValues(operation, outcome).Inc()
}

// Handler serves the registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}
