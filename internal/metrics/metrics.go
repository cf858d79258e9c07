// Package metrics defines the Prometheus collectors for the board.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the board's collectors. A nil *Metrics is valid and
// records nothing, so packages can be used without wiring metrics.
type Metrics struct {
	registry *prometheus.Registry

	Toggles       *prometheus.CounterVec
	GroupChanges  *prometheus.CounterVec
	Cleared       prometheus.Counter
	Repairs       *prometheus.CounterVec
	StoreWrites   *prometheus.CounterVec
	Watchers      prometheus.Gauge
	MergeDuration prometheus.Histogram
}

// New creates the collectors and registers them on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Toggles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "board_toggles_total",
			Help: "Assignment toggles by outcome.",
		}, []string{"outcome"}),
		GroupChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "board_group_size_changes_total",
			Help: "Group size adjustments by direction.",
		}, []string{"direction"}),
		Cleared: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "board_assignments_cleared_total",
			Help: "Roster entries removed by admin clears.",
		}),
		Repairs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "board_document_repairs_total",
			Help: "Route documents rebuilt after corruption, by trigger.",
		}, []string{"trigger"}),
		StoreWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "board_store_writes_total",
			Help: "Route document writes by result.",
		}, []string{"result"}),
		Watchers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "board_watchers",
			Help: "Open route change streams.",
		}),
		MergeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "board_read_merge_write_seconds",
			Help:    "Time spent in one read-merge-write of the route document.",
			Buckets: prometheus.DefBuckets,
		}),
	}
	m.registry.MustRegister(
		m.Toggles,
		m.GroupChanges,
		m.Cleared,
		m.Repairs,
		m.StoreWrites,
		m.Watchers,
		m.MergeDuration,
		collectors.NewGoCollector(),
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Toggle records one assignment toggle.
func (m *Metrics) Toggle(outcome string) {
	if m == nil {
		return
	}
	m.Toggles.WithLabelValues(outcome).Inc()
}

// GroupChange records one group size adjustment.
func (m *Metrics) GroupChange(delta int) {
	if m == nil {
		return
	}
	direction := "up"
	if delta < 0 {
		direction = "down"
	}
	m.GroupChanges.WithLabelValues(direction).Inc()
}

// Clear records roster entries removed by an admin clear.
func (m *Metrics) Clear(removed int) {
	if m == nil {
		return
	}
	m.Cleared.Add(float64(removed))
}

// Repair records a document rebuild.
func (m *Metrics) Repair(trigger string) {
	if m == nil {
		return
	}
	m.Repairs.WithLabelValues(trigger).Inc()
}

// StoreWrite records the result of a route document write.
func (m *Metrics) StoreWrite(err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.StoreWrites.WithLabelValues(result).Inc()
}

// WatchStarted and WatchEnded track open change streams.
func (m *Metrics) WatchStarted() {
	if m == nil {
		return
	}
	m.Watchers.Inc()
}

func (m *Metrics) WatchEnded() {
	if m == nil {
		return
	}
	m.Watchers.Dec()
}

// ObserveMerge records how long a read-merge-write took.
func (m *Metrics) ObserveMerge(seconds float64) {
	if m == nil {
		return
	}
	m.MergeDuration.Observe(seconds)
}
