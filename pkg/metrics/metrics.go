// Package metrics exposes prometheus instrumentation for the motion runtime.
//
// A nil *Metrics is valid and records nothing, so components accept an
// optional collector without guarding every call site.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics groups the runtime's collectors. Controller metrics are labelled
// by animation name.
type Metrics struct {
	frames        *prometheus.CounterVec
	frameDuration *prometheus.HistogramVec
	started       *prometheus.CounterVec
	completed     *prometheus.CounterVec
	cancelled     *prometheus.CounterVec
	failed        *prometheus.CounterVec
	running       prometheus.Gauge
	rejected      prometheus.Counter

	flushes         prometheus.Counter
	flushedUpdates  prometheus.Counter
	flushedRemovals prometheus.Counter
	flushFaults     prometheus.Counter
}

// New registers the runtime collectors on reg. Pass prometheus.NewRegistry()
// in tests to avoid clashing with the default registry.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		frames: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "motion_frames_total",
			Help: "The total number of animation frames computed",
		}, []string{"animation"}),
		frameDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name: "motion_frame_compute_seconds",
			Help: "Time spent computing and submitting one animation frame",
			Buckets: []float64{
				0.00001, // 10us
				0.0001,  // 100us
				0.001,   // 1ms
				0.004,   // 4ms
				0.016,   // one 60Hz frame
				0.05,
			},
		}, []string{"animation"}),
		started: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "motion_runs_started_total",
			Help: "The total number of animation runs started",
		}, []string{"animation"}),
		completed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "motion_runs_completed_total",
			Help: "The total number of animation runs that completed",
		}, []string{"animation"}),
		cancelled: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "motion_runs_cancelled_total",
			Help: "The total number of animation runs that were cancelled",
		}, []string{"animation"}),
		failed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "motion_runs_failed_total",
			Help: "The total number of animation runs that ended in the error state",
		}, []string{"animation"}),
		running: factory.NewGauge(prometheus.GaugeOpts{
			Name: "motion_runs_active",
			Help: "The number of animation runs currently preparing, running or paused",
		}),
		rejected: factory.NewCounter(prometheus.CounterOpts{
			Name: "motion_rejected_operations_total",
			Help: "The total number of controller operations rejected in the current state",
		}),
		flushes: factory.NewCounter(prometheus.CounterOpts{
			Name: "motion_flushes_total",
			Help: "The total number of mutation sink flushes",
		}),
		flushedUpdates: factory.NewCounter(prometheus.CounterOpts{
			Name: "motion_flushed_updates_total",
			Help: "The total number of property updates applied to the surface",
		}),
		flushedRemovals: factory.NewCounter(prometheus.CounterOpts{
			Name: "motion_flushed_removals_total",
			Help: "The total number of property removals applied to the surface",
		}),
		flushFaults: factory.NewCounter(prometheus.CounterOpts{
			Name: "motion_flush_faults_total",
			Help: "The total number of surface faults recovered during flush",
		}),
	}
}

// Frame records one computed frame.
func (m *Metrics) Frame(animation string, d time.Duration) {
	if m == nil {
		return
	}
	m.frames.WithLabelValues(animation).Inc()
	m.frameDuration.WithLabelValues(animation).Observe(d.Seconds())
}

// Started records a run entering preparing or running from idle.
func (m *Metrics) Started(animation string) {
	if m == nil {
		return
	}
	m.started.WithLabelValues(animation).Inc()
	m.running.Inc()
}

// Completed records a run reaching the completed state.
func (m *Metrics) Completed(animation string) {
	if m == nil {
		return
	}
	m.completed.WithLabelValues(animation).Inc()
	m.running.Dec()
}

// Cancelled records a run reaching the cancelled state.
func (m *Metrics) Cancelled(animation string) {
	if m == nil {
		return
	}
	m.cancelled.WithLabelValues(animation).Inc()
	m.running.Dec()
}

// Failed records a run reaching the error state.
func (m *Metrics) Failed(animation string) {
	if m == nil {
		return
	}
	m.failed.WithLabelValues(animation).Inc()
	m.running.Dec()
}

// Rejected records an operation ignored because of the current state.
func (m *Metrics) Rejected() {
	if m == nil {
		return
	}
	m.rejected.Inc()
}

// Flushed records one sink flush.
func (m *Metrics) Flushed(updates, removals int) {
	if m == nil {
		return
	}
	m.flushes.Inc()
	m.flushedUpdates.Add(float64(updates))
	m.flushedRemovals.Add(float64(removals))
}

// FlushFault records a recovered surface fault.
func (m *Metrics) FlushFault() {
	if m == nil {
		return
	}
	m.flushFaults.Inc()
}
