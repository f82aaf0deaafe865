package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	completionPersistGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "anotashape",
		Subsystem: "persistence",
		Name:      "last_completion_persisted_timestamp_seconds",
		Help:      "Unix timestamp of the most recent workout completion persisted to Postgres.",
	})
	unlockCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "anotashape",
		Subsystem: "achievements",
		Name:      "unlocks_recorded_total",
		Help:      "Number of achievement unlocks written, labeled by category.",
	}, []string{"category"})
	aggregationDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "anotashape",
		Subsystem: "progress",
		Name:      "aggregation_duration_seconds",
		Help:      "Time spent computing derived activity views, labeled by view.",
		Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
	}, []string{"view"})
)

func init() {
	prometheus.MustRegister(completionPersistGauge, unlockCounter, aggregationDuration)
}

// RecordCompletionPersisted updates the persistence watermark gauge.
func RecordCompletionPersisted(ts time.Time) {
	if ts.IsZero() {
		return
	}
	completionPersistGauge.Set(float64(ts.Unix()))
}

// RecordUnlock counts one recorded achievement unlock.
func RecordUnlock(category string) {
	unlockCounter.WithLabelValues(category).Inc()
}

// ObserveAggregation records how long one derived-view computation took.
func ObserveAggregation(view string, elapsed time.Duration) {
	aggregationDuration.WithLabelValues(view).Observe(elapsed.Seconds())
}
