// Package metrics exposes Prometheus counters/histograms for the
// write path (aggregate commits, conflicts), the outbox, the
// projection runner, and the scheduler.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)

	httpRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)

	// Write-path / Unit of Work metrics
	aggregatesCommitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aggregates_committed_total",
			Help: "Total number of aggregate commits by type",
		},
		[]string{"aggregate_type"},
	)

	optimisticConflicts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "optimistic_concurrency_conflicts_total",
			Help: "Total number of optimistic concurrency conflicts by aggregate type",
		},
		[]string{"aggregate_type"},
	)

	commandDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "command_duration_seconds",
			Help:    "Command service execution duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"command_type", "outcome"},
	)

	// Outbox / projection metrics
	outboxLag = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "outbox_pending_entries",
			Help: "Number of outbox entries not yet delivered",
		},
	)

	outboxDeliveries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "outbox_deliveries_total",
			Help: "Total outbox delivery attempts by outcome",
		},
		[]string{"outcome"},
	)

	projectionCursorLag = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "projection_cursor_lag",
			Help: "Difference between the latest event sequence and a projection's cursor",
		},
		[]string{"projection"},
	)

	// Scheduler metrics
	scheduleExecutions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "schedule_executions_total",
			Help: "Total schedule executions by outcome",
		},
		[]string{"command_type", "outcome"},
	)

	// Database metrics
	dbConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_connections_active",
			Help: "Number of active database connections",
		},
	)

	dbQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"operation"},
	)
)

// Handler returns the Prometheus metrics HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware creates HTTP metrics middleware
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		httpRequestsInFlight.Inc()
		defer httpRequestsInFlight.Dec()

		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		duration := time.Since(start).Seconds()
		path := normalizePath(r.URL.Path)

		httpRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.statusCode)).Inc()
		httpRequestDuration.WithLabelValues(r.Method, path).Observe(duration)
	})
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// normalizePath collapses the two command/query ingress routes so
// cardinality stays bounded regardless of command/query type.
func normalizePath(path string) string {
	if len(path) > 100 {
		return "/api/..."
	}
	return path
}

// --- Business metric helpers ---

// RecordAggregateCommitted records a successful Unit of Work commit
// for an aggregate type.
func RecordAggregateCommitted(aggregateType string) {
	aggregatesCommitted.WithLabelValues(aggregateType).Inc()
}

// RecordOptimisticConflict records an expectedVersion mismatch.
func RecordOptimisticConflict(aggregateType string) {
	optimisticConflicts.WithLabelValues(aggregateType).Inc()
}

// RecordCommand records a command service invocation outcome.
func RecordCommand(commandType, outcome string, duration time.Duration) {
	commandDuration.WithLabelValues(commandType, outcome).Observe(duration.Seconds())
}

// SetOutboxLag reports the current count of undelivered outbox rows.
func SetOutboxLag(n int) {
	outboxLag.Set(float64(n))
}

// RecordOutboxDelivery records an outbox publish attempt's outcome.
func RecordOutboxDelivery(outcome string) {
	outboxDeliveries.WithLabelValues(outcome).Inc()
}

// SetProjectionCursorLag reports how far behind a projection's cursor is.
func SetProjectionCursorLag(projection string, lag int64) {
	projectionCursorLag.WithLabelValues(projection).Set(float64(lag))
}

// RecordScheduleExecution records a scheduler tick's execution outcome.
func RecordScheduleExecution(commandType, outcome string) {
	scheduleExecutions.WithLabelValues(commandType, outcome).Inc()
}

// RecordDBConnections records active database connections
func RecordDBConnections(count int) {
	dbConnectionsActive.Set(float64(count))
}

// RecordDBQuery records a database query duration
func RecordDBQuery(operation string, duration time.Duration) {
	dbQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
}
