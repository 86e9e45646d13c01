package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// SyncMetrics records sync runs and change-channel activity.
type SyncMetrics struct {
	duration      *prometheus.HistogramVec
	runs          *prometheus.CounterVec
	failures      *prometheus.CounterVec
	records       *prometheus.CounterVec
	notifications *prometheus.CounterVec
	refreshes     *prometheus.CounterVec
}

// NewSyncMetrics registers the sync metrics on the provided registerer. A nil
// registerer yields a no-op recorder.
func NewSyncMetrics(reg prometheus.Registerer) *SyncMetrics {
	if reg == nil {
		return &SyncMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "shipbridge_sync_duration_seconds",
		Help:    "Duration of sync runs in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})
	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "shipbridge_sync_runs_total",
		Help: "Sync runs by outcome.",
	}, []string{"outcome"})
	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "shipbridge_sync_failures_total",
		Help: "Failed sync runs by error code.",
	}, []string{"code"})
	records := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "shipbridge_sync_records_total",
		Help: "Records pushed or pulled by collection.",
	}, []string{"kind", "direction"})
	notifications := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "shipbridge_change_notifications_total",
		Help: "Change notifications received from the remote store.",
	}, []string{"kind"})
	refreshes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "shipbridge_live_refresh_total",
		Help: "Full re-reads triggered by change notifications.",
	}, []string{"outcome"})
	reg.MustRegister(duration, runs, failures, records, notifications, refreshes)
	return &SyncMetrics{
		duration:      duration,
		runs:          runs,
		failures:      failures,
		records:       records,
		notifications: notifications,
		refreshes:     refreshes,
	}
}

// ObserveRun records a finished sync run. code is empty on success.
func (m *SyncMetrics) ObserveRun(code string, duration time.Duration) {
	if m == nil || m.runs == nil {
		return
	}
	outcome := "success"
	if code != "" {
		outcome = "failure"
		m.failures.WithLabelValues(code).Inc()
	}
	m.runs.WithLabelValues(outcome).Inc()
	m.duration.WithLabelValues(outcome).Observe(duration.Seconds())
}

// AddRecords counts records moved in one direction ("push" or "pull").
func (m *SyncMetrics) AddRecords(kind, direction string, n int) {
	if m == nil || m.records == nil || n <= 0 {
		return
	}
	m.records.WithLabelValues(normalizeLabel(kind), direction).Add(float64(n))
}

// IncNotification counts a raw change notification.
func (m *SyncMetrics) IncNotification(kind string) {
	if m == nil || m.notifications == nil {
		return
	}
	m.notifications.WithLabelValues(normalizeLabel(kind)).Inc()
}

// IncRefresh counts a debounced re-read.
func (m *SyncMetrics) IncRefresh(ok bool) {
	if m == nil || m.refreshes == nil {
		return
	}
	outcome := "success"
	if !ok {
		outcome = "failure"
	}
	m.refreshes.WithLabelValues(outcome).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
