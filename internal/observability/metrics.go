// Prometheus metrics for the workflow engine and HTTP transport. Counters
// track transition outcomes and permission denials; the histogram tracks
// request latency.
package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "escalation"

var (
	// TransitionsTotal counts transition-engine operations by outcome.
	TransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transitions_total",
			Help:      "Total workflow transitions attempted, by operation and outcome",
		},
		[]string{"operation", "outcome"},
	)

	// PermissionDenialsTotal counts permission-matrix denials.
	PermissionDenialsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "permission_denials_total",
			Help:      "Total permission matrix denials, by operation and actor role",
		},
		[]string{"operation", "role"},
	)

	// RequestDuration measures HTTP request latency.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"path", "method", "status"},
	)

	// ErrorsTotal counts error responses by domain error code.
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_total",
			Help:      "Total error responses, by path, method and error code",
		},
		[]string{"path", "method", "code"},
	)
)

// RecordRequest observes a completed HTTP request.
func RecordRequest(path, method string, status int, duration time.Duration) {
	RequestDuration.WithLabelValues(path, method, strconv.Itoa(status)).Observe(duration.Seconds())
}

// RecordError increments the error counter.
func RecordError(path, method, code string) {
	ErrorsTotal.WithLabelValues(path, method, code).Inc()
}

// RecordTransition increments the transition counter.
func RecordTransition(operation, outcome string) {
	TransitionsTotal.WithLabelValues(operation, outcome).Inc()
}

// RecordDenial increments the permission-denial counter.
func RecordDenial(operation, role string) {
	PermissionDenialsTotal.WithLabelValues(operation, role).Inc()
}
