package metrics

import "github.com/prometheus/client_golang/prometheus"

// Sparse vectorizer Prometheus metrics.
var (
	SparseTextsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "qdrant_api",
			Name:      "sparse_texts_total",
			Help:      "Total texts vectorized per sparse path",
		},
		[]string{"path"}, // "korean" / "fallback"
	)

	SparseBuildDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "qdrant_api",
			Name:      "sparse_build_duration_seconds",
			Help:      "Sparse vector construction duration in seconds",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"path"},
	)
)

var vecMetricsRegistered bool

// RegisterVectorizerMetrics registers sparse vectorizer metrics. Must be
// called once from main.
func RegisterVectorizerMetrics() {
	if vecMetricsRegistered {
		return
	}
	prometheus.MustRegister(SparseTextsTotal)
	prometheus.MustRegister(SparseBuildDuration)
	vecMetricsRegistered = true
}
