package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// StorefrontMetrics records mutation outcomes, ingested media sizes and the moderation backlog.
type StorefrontMetrics struct {
	mutations      *prometheus.CounterVec
	ingestBytes    prometheus.Histogram
	pendingReviews prometheus.Gauge
	invalidations  *prometheus.CounterVec
}

// NewStorefrontMetrics registers the storefront metrics on the provided registerer.
// A nil registerer yields a no-op recorder.
func NewStorefrontMetrics(reg prometheus.Registerer) *StorefrontMetrics {
	if reg == nil {
		return &StorefrontMetrics{}
	}
	mutations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_mutations_total",
		Help: "Storefront mutations by operation and outcome.",
	}, []string{"operation", "outcome"})
	ingestBytes := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "storefront_media_ingest_bytes",
		Help:    "Size of stored media after transformation.",
		Buckets: prometheus.ExponentialBuckets(16<<10, 2, 8),
	})
	pendingReviews := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "storefront_pending_reviews",
		Help: "Reviews waiting for moderation.",
	})
	invalidations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_invalidations_total",
		Help: "Stale markers emitted per sink and outcome.",
	}, []string{"sink", "outcome"})
	reg.MustRegister(mutations, ingestBytes, pendingReviews, invalidations)
	return &StorefrontMetrics{
		mutations:      mutations,
		ingestBytes:    ingestBytes,
		pendingReviews: pendingReviews,
		invalidations:  invalidations,
	}
}

// ObserveMutation counts one mutation; err decides the outcome label.
func (m *StorefrontMetrics) ObserveMutation(operation string, err error) {
	if m == nil || m.mutations == nil {
		return
	}
	m.mutations.WithLabelValues(normalizeLabel(operation), outcome(err)).Inc()
}

// ObserveIngestBytes records the size of a stored object.
func (m *StorefrontMetrics) ObserveIngestBytes(n int) {
	if m == nil || m.ingestBytes == nil {
		return
	}
	m.ingestBytes.Observe(float64(n))
}

// SetPendingReviews updates the moderation backlog gauge.
func (m *StorefrontMetrics) SetPendingReviews(n int64) {
	if m == nil || m.pendingReviews == nil {
		return
	}
	m.pendingReviews.Set(float64(n))
}

// ObserveInvalidation counts one stale marker delivery attempt.
func (m *StorefrontMetrics) ObserveInvalidation(sink string, err error) {
	if m == nil || m.invalidations == nil {
		return
	}
	m.invalidations.WithLabelValues(normalizeLabel(sink), outcome(err)).Inc()
}

func outcome(err error) string {
	if err != nil {
		return OutcomeFailure
	}
	return OutcomeSuccess
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
