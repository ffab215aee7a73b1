package testing

import (
	"testing"
	"time"

	"github.com/neilotoole/slogt"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/go-drift/motion/pkg/errors"
	"github.com/go-drift/motion/pkg/metrics"
	"github.com/go-drift/motion/pkg/style"
	"github.com/go-drift/motion/pkg/timing"
)

// FrameDuration is the virtual frame period used by PumpAndSettle.
const FrameDuration = 16 * time.Millisecond

// Tester bundles a virtual scheduler, an in-memory surface, and a processor
// wired to both, with logs routed through t.Log and errors captured for
// assertions.
type Tester struct {
	Scheduler *timing.VirtualScheduler
	Surface   *MemorySurface
	Processor *style.Processor
	Metrics   *metrics.Metrics
	Registry  *prometheus.Registry
	Errors    *ErrorRecorder
	t         testing.TB
}

// NewTester creates a tester for t.
func NewTester(t testing.TB) *Tester {
	t.Helper()
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	rec := &ErrorRecorder{}
	sched := timing.NewVirtualScheduler()
	sched.SetErrorHandler(rec)
	surface := NewMemorySurface()
	return &Tester{
		Scheduler: sched,
		Surface:   surface,
		Processor: style.NewProcessor(surface, sched,
			style.WithLogger(slogt.New(t)),
			style.WithErrorHandler(rec),
			style.WithMetrics(m)),
		Metrics:  m,
		Registry: reg,
		Errors:   rec,
		t:        t,
	}
}

// Advance moves virtual time forward by d and runs one frame round.
func (t *Tester) Advance(d time.Duration) {
	t.Scheduler.Advance(d)
}

// AdvanceAndFlush advances by d and then drains the processor so the surface
// reflects the values computed in that frame.
func (t *Tester) AdvanceAndFlush(d time.Duration) {
	t.Scheduler.Advance(d)
	t.Processor.FlushNow()
}

// Pump runs one frame round without moving time.
func (t *Tester) Pump() {
	t.Scheduler.Frame()
}

// PumpAndSettle advances in FrameDuration steps until nothing is scheduled
// or timeout elapses. It fails the test on timeout.
func (t *Tester) PumpAndSettle(timeout time.Duration) {
	t.t.Helper()
	var elapsed time.Duration
	for elapsed < timeout {
		if t.Scheduler.PendingFrames() == 0 && t.Scheduler.PendingTimers() == 0 {
			return
		}
		t.Scheduler.Advance(FrameDuration)
		elapsed += FrameDuration
	}
	t.t.Fatalf("PumpAndSettle timed out after %v: %d frames, %d timers pending",
		timeout, t.Scheduler.PendingFrames(), t.Scheduler.PendingTimers())
}

// Value returns the applied value of property on node id.
func (t *Tester) Value(id, property string) string {
	v, _ := t.Surface.Value(id, property)
	return v
}

// ErrorRecorder is an errors.ErrorHandler that keeps everything it receives.
type ErrorRecorder struct {
	Errors []*errors.MotionError
	Panics []*errors.PanicError
}

// HandleError implements errors.ErrorHandler.
func (r *ErrorRecorder) HandleError(err *errors.MotionError) {
	r.Errors = append(r.Errors, err)
}

// HandlePanic implements errors.ErrorHandler.
func (r *ErrorRecorder) HandlePanic(err *errors.PanicError) {
	r.Panics = append(r.Panics, err)
}

// Kinds returns the kinds of the recorded errors in order.
func (r *ErrorRecorder) Kinds() []errors.ErrorKind {
	out := make([]errors.ErrorKind, len(r.Errors))
	for i, err := range r.Errors {
		out[i] = err.Kind
	}
	return out
}
