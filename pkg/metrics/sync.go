package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// SyncMetrics records reconciliation run outcomes for the dashboard.
type SyncMetrics struct {
	duration *prometheus.HistogramVec
	runs     *prometheus.CounterVec
	pending  prometheus.Gauge
}

// NewSyncMetrics registers the sync metrics on the provided registerer.
// A nil registerer yields a no-op instance, which keeps tests quiet.
func NewSyncMetrics(reg prometheus.Registerer) *SyncMetrics {
	if reg == nil {
		return &SyncMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "sync_duration_seconds",
		Help:    "Duration of reconciliation runs in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})
	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sync_runs_total",
		Help: "Reconciliation runs by outcome.",
	}, []string{"outcome"})
	pending := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "sync_pending_items",
		Help: "Sales and purchase orders queued for push.",
	})
	reg.MustRegister(duration, runs, pending)
	return &SyncMetrics{
		duration: duration,
		runs:     runs,
		pending:  pending,
	}
}

// ObserveRun records one reconciliation run with its duration.
func (m *SyncMetrics) ObserveRun(outcome string, elapsed time.Duration) {
	if m == nil || m.runs == nil {
		return
	}
	m.runs.WithLabelValues(outcome).Inc()
	m.duration.WithLabelValues(outcome).Observe(elapsed.Seconds())
}

// SetPendingItems updates the queued-item gauge.
func (m *SyncMetrics) SetPendingItems(n int) {
	if m == nil || m.pending == nil {
		return
	}
	m.pending.Set(float64(n))
}
