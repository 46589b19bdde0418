package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "threadboard_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "threadboard_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// ThreadViews counts single-thread reads that incremented the view counter.
	ThreadViews = promauto.NewCounter(prometheus.CounterOpts{
		Name: "threadboard_thread_views_total",
		Help: "Total number of thread views recorded",
	})

	// LikeToggles counts like toggles by target kind and resulting direction.
	LikeToggles = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "threadboard_like_toggles_total",
		Help: "Total number of like toggles by target and direction",
	}, []string{"target", "direction"})

	// CascadeDeletedReplies counts replies removed as part of a thread delete.
	CascadeDeletedReplies = promauto.NewCounter(prometheus.CounterOpts{
		Name: "threadboard_cascade_deleted_replies_total",
		Help: "Total number of replies removed by thread deletion",
	})

	// OrphanedReplyCascades counts thread deletes whose reply cascade failed.
	OrphanedReplyCascades = promauto.NewCounter(prometheus.CounterOpts{
		Name: "threadboard_orphaned_reply_cascades_total",
		Help: "Thread deletions whose reply cascade did not complete",
	})

	// OracleRequests counts suggestion oracle calls by operation and outcome.
	OracleRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "threadboard_oracle_requests_total",
		Help: "Total number of oracle requests by operation and outcome",
	}, []string{"operation", "outcome"})

	// OracleLatency records oracle round-trip latency.
	OracleLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "threadboard_oracle_latency_seconds",
		Help:    "Oracle request latency in seconds",
		Buckets: []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32},
	}, []string{"operation"})

	// SuggestionFallbacks counts suggestions answered with the fallback payload.
	SuggestionFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "threadboard_suggestion_fallbacks_total",
		Help: "Suggestions that fell back to the default payload",
	})

	// SearchBackend counts thread searches by the backend that served them.
	SearchBackend = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "threadboard_search_requests_total",
		Help: "Thread searches by serving backend",
	}, []string{"backend"})
)

// TrackQuery returns a function that records query latency when called (e.g. defer).
func TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}

// ObserveOracle records the outcome and latency of one oracle call.
func ObserveOracle(operation, outcome string, start time.Time) {
	OracleRequests.WithLabelValues(operation, outcome).Inc()
	OracleLatency.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}
