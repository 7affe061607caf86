// Package metrics provides Prometheus metrics for the vendortrail service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var registry = prometheus.NewRegistry()

// Ingestion pipeline metrics.
var (
	eventsIngested = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "vendortrail",
		Name:      "events_ingested_total",
		Help:      "Events accepted and persisted by the ingestion coordinator.",
	})
	eventsRejected = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "vendortrail",
		Name:      "events_rejected_total",
		Help:      "Events rejected by validation before any write.",
	})
	predictionsAttached = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "vendortrail",
		Name:      "predictions_attached_total",
		Help:      "Events that received a prediction after a successful oracle call.",
	})
)

// Scoring oracle metrics.
var (
	oracleCalls = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "vendortrail",
		Name:      "oracle_calls_total",
		Help:      "Calls to the scoring oracle by operation and outcome.",
	}, []string{"operation", "outcome"})
	oracleLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "vendortrail",
		Name:      "oracle_latency_ms",
		Help:      "Scoring oracle round-trip latency in milliseconds.",
		Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
	})
)

// Rescore backlog metrics.
var (
	rescoreQueueSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "vendortrail",
		Name:      "rescore_queue_size",
		Help:      "Events currently waiting for a scoring retry.",
	})
	rescoreAttempts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "vendortrail",
		Name:      "rescore_attempts_total",
		Help:      "Scoring retries by outcome.",
	}, []string{"outcome"})
)

// Store metrics.
var (
	storeOpLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "vendortrail",
		Name:      "store_op_latency_ms",
		Help:      "Event store operation latency in milliseconds.",
		Buckets:   []float64{1, 2, 5, 10, 25, 50, 100, 250},
	}, []string{"op"})
	storeErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "vendortrail",
		Name:      "store_errors_total",
		Help:      "Event store failures by operation.",
	}, []string{"op"})
)

// HTTP metrics.
var (
	httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "vendortrail",
		Name:      "http_requests_total",
		Help:      "HTTP requests by endpoint, method and status.",
	}, []string{"endpoint", "method", "status"})
	httpRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "vendortrail",
		Name:      "http_request_duration_ms",
		Help:      "HTTP request duration in milliseconds.",
		Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 5000},
	}, []string{"endpoint", "method", "status"})
)

// System metrics, updated by a background ticker in main.
var (
	systemMemoryBytes = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "vendortrail",
		Name:      "system_memory_bytes",
		Help:      "Allocated heap bytes.",
	})
	systemGoroutines = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "vendortrail",
		Name:      "system_goroutines",
		Help:      "Current goroutine count.",
	})
)

func init() { //nolint:gochecknoinits // registers metrics on the package registry
	registry.MustRegister(
		eventsIngested,
		eventsRejected,
		predictionsAttached,
		oracleCalls,
		oracleLatency,
		rescoreQueueSize,
		rescoreAttempts,
		storeOpLatency,
		storeErrors,
		httpRequests,
		httpRequestDuration,
		systemMemoryBytes,
		systemGoroutines,
	)
}

// GetRegistry returns the registry used to serve /healthz.
func GetRegistry() *prometheus.Registry {
	return registry
}

// RecordEventIngested increments the persisted-event counter.
func RecordEventIngested() { eventsIngested.Inc() }

// RecordEventRejected increments the validation-reject counter.
func RecordEventRejected() { eventsRejected.Inc() }

// RecordPredictionAttached increments the attached-prediction counter.
func RecordPredictionAttached() { predictionsAttached.Inc() }

// RecordOracleCall records one oracle call with its outcome ("ok", "error",
// "empty").
func RecordOracleCall(operation, outcome string) {
	oracleCalls.WithLabelValues(operation, outcome).Inc()
}

// RecordOracleLatency records oracle round-trip latency.
func RecordOracleLatency(latencyMs float64) { oracleLatency.Observe(latencyMs) }

// UpdateRescoreQueueSize sets the rescore backlog size gauge.
func UpdateRescoreQueueSize(size int) { rescoreQueueSize.Set(float64(size)) }

// RecordRescoreAttempt records one scoring retry outcome.
func RecordRescoreAttempt(outcome string) { rescoreAttempts.WithLabelValues(outcome).Inc() }

// RecordStoreOpLatency records an event store operation latency.
func RecordStoreOpLatency(op string, latencyMs float64) {
	storeOpLatency.WithLabelValues(op).Observe(latencyMs)
}

// RecordStoreError records an event store failure.
func RecordStoreError(op string) { storeErrors.WithLabelValues(op).Inc() }

// RecordHTTPRequest records one HTTP request.
func RecordHTTPRequest(endpoint, method, status string) {
	httpRequests.WithLabelValues(endpoint, method, status).Inc()
}

// RecordHTTPRequestDuration records one HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, status string, durationMs float64) {
	httpRequestDuration.WithLabelValues(endpoint, method, status).Observe(durationMs)
}

// UpdateSystemMemoryUsage sets the heap gauge.
func UpdateSystemMemoryUsage(bytes uint64) { systemMemoryBytes.Set(float64(bytes)) }

// UpdateSystemGoroutineCount sets the goroutine gauge.
func UpdateSystemGoroutineCount(count int) { systemGoroutines.Set(float64(count)) }
