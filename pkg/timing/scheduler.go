// Package timing abstracts the passage of time and frame scheduling.
//
// Animation code never touches wall-clock or frame-pump primitives directly.
// It talks to a [Scheduler], which has one production backing ([FramePump])
// and one deterministic, manually advanced backing ([VirtualScheduler]) for
// tests.
//
// Every Scheduler implementation guarantees that a cancelled handle's
// callback never fires once cancellation has been requested on the
// scheduler's logical thread.
package timing

import "time"

// Handle identifies a scheduled callback. The zero Handle means nothing is
// scheduled, and cancelling it is a no-op.
type Handle uint64

// FrameCallback is invoked once near the next render opportunity with the
// frame timestamp, measured on the scheduler's monotonic time base.
type FrameCallback func(timestamp time.Duration)

// Scheduler supplies the current time and schedules cancellable callbacks.
type Scheduler interface {
	// Now returns monotonic time since the scheduler's origin.
	Now() time.Duration
	// ScheduleFrame arranges for cb to run once on the next frame.
	ScheduleFrame(cb FrameCallback) Handle
	// CancelFrame cancels a pending frame callback.
	CancelFrame(h Handle)
	// ScheduleAfter arranges for cb to run once after delay.
	ScheduleAfter(cb func(), delay time.Duration) Handle
	// CancelScheduled cancels a pending delayed callback.
	CancelScheduled(h Handle)
}

// Clock provides wall time to the production scheduler. Tests can inject a
// fixed clock to make FramePump.Now deterministic.
type Clock interface {
	Now() time.Time
}

// realClock uses system time.
type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// SystemClock returns a Clock backed by time.Now.
func SystemClock() Clock { return realClock{} }
