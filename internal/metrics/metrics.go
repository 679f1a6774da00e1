package metrics

import (
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestCounter counts HTTP requests by status code, method, and route
	RequestCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "topten_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"status", "method", "path"},
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "topten_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"status", "method", "path"},
	)

	RequestInProgress = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "topten_http_requests_in_progress",
			Help: "Number of HTTP requests currently being processed",
		},
		[]string{"method", "path"},
	)

	// RoundTransitions counts state machine transitions by effect kind
	RoundTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "topten_round_effects_total",
			Help: "Round effects produced by the state machine",
		},
		[]string{"kind"},
	)

	RejectedGuesses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "topten_rejected_guesses_total",
			Help: "Guess assignments rejected by the state machine",
		},
		[]string{"reason"},
	)

	// MirrorFailures counts effects that could not be written to the database
	MirrorFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "topten_mirror_failures_total",
			Help: "Round effects that failed to persist",
		},
		[]string{"kind"},
	)

	MirrorDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "topten_mirror_dropped_total",
			Help: "Round effects dropped because the mirror queue was full",
		},
	)

	MirrorQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "topten_mirror_queue_depth",
			Help: "Effects waiting to be mirrored",
		},
	)

	ActiveRounds = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "topten_active_rounds",
			Help: "Rounds held in memory",
		},
	)

	WebsocketClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "topten_websocket_clients",
			Help: "Connected round board websocket clients",
		},
	)

	DatabaseOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "topten_db_operation_duration_seconds",
			Help:    "Database operation duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "table"},
	)

	JanitorRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "topten_janitor_runs_total",
			Help: "Janitor job executions by job and outcome",
		},
		[]string{"job", "outcome"},
	)

	MemoryStats = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "topten_memory_stats_bytes",
			Help: "Memory statistics in bytes",
		},
		[]string{"type"},
	)

	GoroutineCount = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "topten_goroutine_count",
			Help: "Number of goroutines",
		},
	)
)

// RecordDBOperation records the duration of a database operation
func RecordDBOperation(operation string, table string, startTime time.Time) {
	duration := time.Since(startTime).Seconds()
	DatabaseOperationDuration.WithLabelValues(operation, table).Observe(duration)
}

// SampleRuntime refreshes the memory and goroutine gauges.
func SampleRuntime() {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)
	MemoryStats.WithLabelValues("alloc").Set(float64(memStats.Alloc))
	MemoryStats.WithLabelValues("sys").Set(float64(memStats.Sys))
	MemoryStats.WithLabelValues("heap_alloc").Set(float64(memStats.HeapAlloc))
	MemoryStats.WithLabelValues("heap_inuse").Set(float64(memStats.HeapInuse))
	GoroutineCount.Set(float64(runtime.NumGoroutine()))
}
