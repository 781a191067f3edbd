package metrics

import "github.com/prometheus/client_golang/prometheus"

// Catalog Prometheus metrics.
var (
	RecountTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recount_total",
			Help:      "Total number of category recount jobs",
		},
		[]string{"status"}, // "ok" / "error" / "rejected" / "coalesced"
	)

	RecountDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "recount_duration_seconds",
			Help:      "Category recount duration in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)

	BulkWaitTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bulk_wait_total",
			Help:      "Bulk writes by indexing wait outcome",
		},
		[]string{"outcome"}, // "indexed" / "timeout" / "error"
	)

	BulkDocumentsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bulk_documents_total",
			Help:      "Total documents submitted through bulk writes",
		},
	)

	RatingLookupFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rating_lookup_failures_total",
			Help:      "Rating lookups that failed and were omitted from results",
		},
	)
)

var catalogMetricsRegistered bool

// RegisterCatalogMetrics registers catalog metrics. Must be called once from main.
func RegisterCatalogMetrics() {
	if catalogMetricsRegistered {
		return
	}
	prometheus.MustRegister(RecountTotal)
	prometheus.MustRegister(RecountDuration)
	prometheus.MustRegister(BulkWaitTotal)
	prometheus.MustRegister(BulkDocumentsTotal)
	prometheus.MustRegister(RatingLookupFailuresTotal)
	catalogMetricsRegistered = true
}
