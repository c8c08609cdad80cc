// Package metrics exposes the store's Prometheus collectors.
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

	operations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ministore",
			Subsystem: "grid",
			Name:      "operations_total",
			Help:      "Total number of install/uninstall operations by outcome.",
		},
		[]string{"kind", "outcome"},
	)

	resolutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ministore",
			Subsystem: "grid",
			Name:      "resolutions_total",
			Help:      "Total number of grid document resolutions by resulting state.",
		},
		[]string{"state"},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ministore",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ministore",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "path"},
	)
)

func init() {
	Registry.MustRegister(operations, resolutions, httpRequests, httpDuration)
}

// Outcome records a settled install/uninstall outcome.
func Outcome(kind, outcome string) {
	operations.WithLabelValues(kind, outcome).Inc()
}

// InstallOutcome records an install outcome.
func InstallOutcome(outcome string) {
	Outcome("install", outcome)
}

// Resolution records the resulting state of a document resolution.
func Resolution(state string) {
	resolutions.WithLabelValues(state).Inc()
}

// ObserveHTTP records one handled HTTP request.
func ObserveHTTP(method, path string, status int, elapsed time.Duration) {
	httpRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	httpDuration.WithLabelValues(method, path).Observe(elapsed.Seconds())
}

// Handler returns the /metrics endpoint for the registry.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}
