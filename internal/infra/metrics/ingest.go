package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(ingestTotal, ingestDurationMs, ingestChunks) }

var ingestTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "ingest_total",
		Help: "Document ingestions, by outcome.",
	},
	[]string{"outcome"}, // 'ok', 'invalid', 'extraction', 'index_build', 'internal'
)

var ingestDurationMs = prometheus.NewHistogram(
	prometheus.HistogramOpts{
		Name:    "ingest_duration_ms",
		Help:    "End-to-end ingestion duration in milliseconds.",
		Buckets: []float64{50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000, 60000},
	},
)

var ingestChunks = prometheus.NewHistogram(
	prometheus.HistogramOpts{
		Name:    "ingest_chunks",
		Help:    "Chunks produced per successful ingestion.",
		Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
	},
)

func ObserveIngest(outcome string, durationMs float64, chunks int) {
	ingestTotal.WithLabelValues(norm(outcome)).Inc()
	ingestDurationMs.Observe(durationMs)
	if outcome == "ok" && chunks > 0 {
		ingestChunks.Observe(float64(chunks))
	}
}
