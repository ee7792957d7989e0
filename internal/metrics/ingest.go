package metrics

import "github.com/prometheus/client_golang/prometheus"

// Ingestion collectors.
var (
	IngestChunksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "ragdex",
			Name:      "ingest_chunks_total",
			Help:      "Chunks written to the index",
		},
	)

	IngestBatchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ragdex",
			Name:      "ingest_batches_total",
			Help:      "Index upsert batches by outcome",
		},
		[]string{"status"}, // "ok" / "failed"
	)
)

var ingestMetricsRegistered bool

// RegisterIngestMetrics registers the ingestion collectors. Call once from main.
func RegisterIngestMetrics() {
	if ingestMetricsRegistered {
		return
	}
	prometheus.MustRegister(IngestChunksTotal)
	prometheus.MustRegister(IngestBatchesTotal)
	ingestMetricsRegistered = true
}
