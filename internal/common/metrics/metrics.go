// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// outcome: accepted, invalid, blacklisted, unavailable, failed
	SubmissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taf_submissions_total",
			Help: "Total number of TAF submissions by outcome",
		},
		[]string{"outcome"},
	)

	EvaluationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taf_evaluations_total",
			Help: "Total number of criteria evaluations by verdict",
		},
		[]string{"approved"},
	)

	BlacklistChecksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taf_blacklist_checks_total",
			Help: "Total number of blacklist lookups by result",
		},
		[]string{"result"},
	)

	StatusMismatchTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "taf_status_mismatch_total",
			Help: "Submissions whose supplied status disagreed with the server-side evaluation",
		},
	)

	StoreOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "taf_store_operation_duration_seconds",
			Help:    "Duration of record store operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	CacheLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taf_cache_lookups_total",
			Help: "Listing cache lookups by result",
		},
		[]string{"result"},
	)
)

// BoolLabel renders a bool as a Prometheus label value.
func BoolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
