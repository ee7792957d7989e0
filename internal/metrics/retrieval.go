package metrics

import "github.com/prometheus/client_golang/prometheus"

// Retrieval pipeline collectors.
var (
	RetrievalRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ragdex",
			Name:      "retrieval_requests_total",
			Help:      "Total retrieval calls",
		},
		[]string{"status"}, // "ok" / "error"
	)

	RetrievalStageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ragdex",
			Name:      "retrieval_stage_duration_seconds",
			Help:      "Per-stage retrieval duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"stage"}, // "semantic" / "text"
	)

	RetrievalDegradedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ragdex",
			Name:      "retrieval_degraded_total",
			Help:      "Retrieval calls that lost one stage and served the other",
		},
		[]string{"stage"}, // the stage that failed
	)

	RetrievalPoolSize = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "ragdex",
			Name:      "retrieval_pool_size",
			Help:      "Fused candidate pool size per retrieval call",
			Buckets:   prometheus.LinearBuckets(0, 10, 11),
		},
	)
)

var retrievalMetricsRegistered bool

// RegisterRetrievalMetrics registers the retrieval collectors. Call once from main.
func RegisterRetrievalMetrics() {
	if retrievalMetricsRegistered {
		return
	}
	prometheus.MustRegister(RetrievalRequestsTotal)
	prometheus.MustRegister(RetrievalStageDuration)
	prometheus.MustRegister(RetrievalDegradedTotal)
	prometheus.MustRegister(RetrievalPoolSize)
	retrievalMetricsRegistered = true
}
