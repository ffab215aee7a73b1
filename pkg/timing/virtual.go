package timing

import (
	"sort"
	"time"

	"github.com/go-drift/motion/pkg/errors"
)

// VirtualScheduler is a deterministic Scheduler driven by a manually advanced
// virtual clock. Nothing fires until the test calls Advance, Step or Frame.
//
// Frames do not fire on a fixed period: each Advance ends with exactly one
// frame round at the destination time. Delayed callbacks fire at their due
// time, in due order, before that round.
type VirtualScheduler struct {
	now     time.Duration
	nextID  Handle
	frames  map[Handle]FrameCallback
	order   []Handle
	timers  map[Handle]*virtualTimer
	handler errors.ErrorHandler
	rounds  int
}

type virtualTimer struct {
	handle Handle
	due    time.Duration
	cb     func()
}

// NewVirtualScheduler returns a scheduler with virtual time at zero.
func NewVirtualScheduler() *VirtualScheduler {
	return &VirtualScheduler{
		frames: make(map[Handle]FrameCallback),
		timers: make(map[Handle]*virtualTimer),
	}
}

// SetErrorHandler sets where callback panics are reported.
func (s *VirtualScheduler) SetErrorHandler(h errors.ErrorHandler) {
	s.handler = h
}

// Now returns the virtual time.
func (s *VirtualScheduler) Now() time.Duration {
	return s.now
}

// ScheduleFrame arranges for cb to run on the next frame round.
func (s *VirtualScheduler) ScheduleFrame(cb FrameCallback) Handle {
	s.nextID++
	s.frames[s.nextID] = cb
	s.order = append(s.order, s.nextID)
	return s.nextID
}

// CancelFrame cancels a pending frame callback.
func (s *VirtualScheduler) CancelFrame(h Handle) {
	delete(s.frames, h)
}

// ScheduleAfter arranges for cb to run once virtual time reaches now+delay.
func (s *VirtualScheduler) ScheduleAfter(cb func(), delay time.Duration) Handle {
	if delay < 0 {
		delay = 0
	}
	s.nextID++
	s.timers[s.nextID] = &virtualTimer{handle: s.nextID, due: s.now + delay, cb: cb}
	return s.nextID
}

// CancelScheduled cancels a pending delayed callback.
func (s *VirtualScheduler) CancelScheduled(h Handle) {
	delete(s.timers, h)
}

// Advance moves virtual time forward by d, firing due delayed callbacks and
// then one frame round at the new time.
func (s *VirtualScheduler) Advance(d time.Duration) {
	if d < 0 {
		d = 0
	}
	target := s.now + d
	for {
		t := s.nextDue(target)
		if t == nil {
			break
		}
		delete(s.timers, t.handle)
		if t.due > s.now {
			s.now = t.due
		}
		s.safeCall("timing.VirtualScheduler.timer", t.cb)
	}
	s.now = target
	s.Frame()
}

// Step advances by total in increments of step, so every increment gets its
// own frame round.
func (s *VirtualScheduler) Step(total, step time.Duration) {
	if step <= 0 {
		s.Advance(total)
		return
	}
	for total > 0 {
		d := min(step, total)
		s.Advance(d)
		total -= d
	}
}

// Frame runs one frame round at the current virtual time. Callbacks
// scheduled during the round wait for the next one.
func (s *VirtualScheduler) Frame() {
	s.rounds++
	order := s.order
	s.order = nil
	for _, h := range order {
		cb, ok := s.frames[h]
		if !ok {
			continue
		}
		delete(s.frames, h)
		ts := s.now
		s.safeCall("timing.VirtualScheduler.frame", func() { cb(ts) })
	}
}

// Rounds returns how many frame rounds have run.
func (s *VirtualScheduler) Rounds() int {
	return s.rounds
}

// PendingFrames returns the number of frame callbacks waiting to fire.
func (s *VirtualScheduler) PendingFrames() int {
	return len(s.frames)
}

// PendingTimers returns the number of delayed callbacks waiting to fire.
func (s *VirtualScheduler) PendingTimers() int {
	return len(s.timers)
}

func (s *VirtualScheduler) nextDue(limit time.Duration) *virtualTimer {
	if len(s.timers) == 0 {
		return nil
	}
	due := make([]*virtualTimer, 0, len(s.timers))
	for _, t := range s.timers {
		if t.due <= limit {
			due = append(due, t)
		}
	}
	if len(due) == 0 {
		return nil
	}
	sort.Slice(due, func(i, j int) bool {
		if due[i].due != due[j].due {
			return due[i].due < due[j].due
		}
		return due[i].handle < due[j].handle
	})
	return due[0]
}

func (s *VirtualScheduler) safeCall(op string, fn func()) {
	defer errors.Recover(s.handler, op)
	fn()
}
