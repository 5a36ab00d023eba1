package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(queryTotal, queryDurationMs) }

var queryTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "query_total",
		Help: "Session queries, by outcome.",
	},
	[]string{"outcome"}, // 'ok', 'invalid', 'no_document', 'generation', 'rate_limited'
)

var queryDurationMs = prometheus.NewHistogram(
	prometheus.HistogramOpts{
		Name:    "query_duration_ms",
		Help:    "End-to-end query duration in milliseconds.",
		Buckets: []float64{25, 50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000},
	},
)

func ObserveQuery(outcome string, durationMs float64) {
	queryTotal.WithLabelValues(norm(outcome)).Inc()
	queryDurationMs.Observe(durationMs)
}
