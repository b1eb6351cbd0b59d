// Package metrics provides Prometheus metrics for HTTP traffic and the
// prescription safety pipeline:
//   - http_request_total: Counter with method, path, and status labels
//   - http_request_duration_seconds: Histogram with method and path labels
//   - http_request_in_flight: Gauge for concurrent requests
//   - safety_checks_total: Counter with check type and status labels
//   - prescriptions_blocked_total: Counter for blocked recommendations
//   - panics_recovered_total: Counter for recovered handler panics
//
// All metrics are registered with the Prometheus default registry during
// package initialization.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	HTTPRequestTotals = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_request_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"method", "path"},
	)

	HTTPRequestInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_request_in_flight",
			Help: "Current in-flight requests",
		},
	)

	SafetyChecksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "safety_checks_total",
			Help: "Safety check outcomes by check type and status",
		},
		[]string{"check_type", "status"},
	)

	PrescriptionsBlockedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "prescriptions_blocked_total",
			Help: "Recommendations blocked by the safety engine",
		},
	)

	PanicsRecoveredTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "panics_recovered_total",
			Help: "Handler panics converted to 500 responses",
		},
	)
)

func init() {
	prometheus.MustRegister(HTTPRequestTotals)
	prometheus.MustRegister(HTTPRequestDuration)
	prometheus.MustRegister(HTTPRequestInFlight)
	prometheus.MustRegister(SafetyChecksTotal)
	prometheus.MustRegister(PrescriptionsBlockedTotal)
	prometheus.MustRegister(PanicsRecoveredTotal)
}
