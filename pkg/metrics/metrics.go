package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// RefreshMetrics records cache refresh cycles per collection.
type RefreshMetrics struct {
	duration *prometheus.HistogramVec
	success  *prometheus.CounterVec
	failure  *prometheus.CounterVec
	degraded *prometheus.GaugeVec
}

// NewRefreshMetrics registers the cache refresh metrics on the provided registerer.
func NewRefreshMetrics(reg prometheus.Registerer) *RefreshMetrics {
	if reg == nil {
		return &RefreshMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cache_refresh_duration_seconds",
		Help:    "Duration of entity cache refreshes in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"collection"})
	success := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cache_refresh_success",
		Help: "Successful entity cache refreshes.",
	}, []string{"collection"})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cache_refresh_failure",
		Help: "Failed entity cache refreshes.",
	}, []string{"collection"})
	degraded := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "cache_collection_degraded",
		Help: "1 when a collection is serving stale data after a failed refresh.",
	}, []string{"collection"})
	reg.MustRegister(duration, success, failure, degraded)
	return &RefreshMetrics{
		duration: duration,
		success:  success,
		failure:  failure,
		degraded: degraded,
	}
}

// ObserveDuration records the refresh duration for the named collection.
func (m *RefreshMetrics) ObserveDuration(collection string, duration time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.WithLabelValues(normalizeLabel(collection)).Observe(duration.Seconds())
}

// IncSuccess increments the success counter for the named collection.
func (m *RefreshMetrics) IncSuccess(collection string) {
	if m == nil || m.success == nil {
		return
	}
	m.success.WithLabelValues(normalizeLabel(collection)).Inc()
}

// IncFailure increments the failure counter for the named collection.
func (m *RefreshMetrics) IncFailure(collection string) {
	if m == nil || m.failure == nil {
		return
	}
	m.failure.WithLabelValues(normalizeLabel(collection)).Inc()
}

// SetDegraded flips the stale-data gauge for the named collection.
func (m *RefreshMetrics) SetDegraded(collection string, degraded bool) {
	if m == nil || m.degraded == nil {
		return
	}
	value := 0.0
	if degraded {
		value = 1.0
	}
	m.degraded.WithLabelValues(normalizeLabel(collection)).Set(value)
}

// ConsumerMetrics records change-feed consumer outcomes.
type ConsumerMetrics struct {
	processed *prometheus.CounterVec
	failed    *prometheus.CounterVec
}

// NewConsumerMetrics registers the consumer metrics on the provided registerer.
func NewConsumerMetrics(reg prometheus.Registerer) *ConsumerMetrics {
	if reg == nil {
		return &ConsumerMetrics{}
	}
	processed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "consumer_messages_processed",
		Help: "Change feed messages handled successfully.",
	}, []string{"consumer", "event_type"})
	failed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "consumer_messages_failed",
		Help: "Change feed messages that errored.",
	}, []string{"consumer", "event_type"})
	reg.MustRegister(processed, failed)
	return &ConsumerMetrics{processed: processed, failed: failed}
}

// IncProcessed increments the processed counter.
func (m *ConsumerMetrics) IncProcessed(consumer, eventType string) {
	if m == nil || m.processed == nil {
		return
	}
	m.processed.WithLabelValues(normalizeLabel(consumer), normalizeLabel(eventType)).Inc()
}

// IncFailed increments the failure counter.
func (m *ConsumerMetrics) IncFailed(consumer, eventType string) {
	if m == nil || m.failed == nil {
		return
	}
	m.failed.WithLabelValues(normalizeLabel(consumer), normalizeLabel(eventType)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
