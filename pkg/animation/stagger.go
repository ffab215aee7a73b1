package animation

import (
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/go-drift/motion/pkg/errors"
	"github.com/go-drift/motion/pkg/lifecycle"
	"github.com/go-drift/motion/pkg/timing"
)

// completionEpsilon is how close to 1 every item must be before a stagger
// counts as complete. Progress alone is not enough: it is measured per
// iteration, so alternating, repeating and overshooting items pass 1 while
// still running. An item also has to have reached StateCompleted.
const completionEpsilon = 0.999

// StaggerConfig shapes the per-item start delays of a stagger.
type StaggerConfig struct {
	// Delay between consecutive items on the linear base.
	Delay time.Duration
	// Easing reshapes the spread of delays across the span. Empty keeps
	// the linear spread.
	Easing string
	// MaxSpan caps the last item's delay. Zero means no cap.
	MaxSpan time.Duration
	// Reverse starts the last item first.
	Reverse bool
}

// StaggerDelays computes count start delays. The base is index*Delay; an
// easing curve redistributes the same total span, MaxSpan scales the result
// down proportionally, and Reverse flips the order.
func StaggerDelays(count int, cfg StaggerConfig) []time.Duration {
	if count <= 0 {
		return nil
	}
	delays := make([]time.Duration, count)
	span := time.Duration(count-1) * cfg.Delay

	var curve Curve
	if cfg.Easing != "" {
		curve, _ = LookupCurve(cfg.Easing)
	}
	for i := range delays {
		if curve == nil || count == 1 {
			delays[i] = time.Duration(i) * cfg.Delay
			continue
		}
		t := float64(i) / float64(count-1)
		delays[i] = time.Duration(math.Round(float64(span) * curve(t)))
	}

	if cfg.MaxSpan > 0 && span > cfg.MaxSpan {
		scale := float64(cfg.MaxSpan) / float64(span)
		for i, d := range delays {
			delays[i] = time.Duration(math.Round(float64(d) * scale))
		}
	}
	for i, d := range delays {
		if d < 0 {
			delays[i] = 0
		}
	}
	if cfg.Reverse {
		slices.Reverse(delays)
	}
	return delays
}

// Stagger runs a group of controllers offset by per-item start delays.
// Completion fires once, when every item has completed with its progress at
// the completion epsilon.
type Stagger struct {
	items      []*Controller
	onComplete []func()
	completed  bool
	unsubs     []func()
}

// NewStagger groups existing controllers. Their delays are whatever their
// options say.
func NewStagger(items ...*Controller) *Stagger {
	s := &Stagger{items: items}
	for _, c := range items {
		s.unsubs = append(s.unsubs,
			c.AddListener(s.check),
			c.OnStateChange(func(lifecycle.State, lifecycle.Event) { s.check() }),
		)
	}
	return s
}

// BuildStagger creates count controllers sharing base options, each delayed
// by base.Delay plus its stagger offset. setup, when non-nil, registers the
// item's style entries and callbacks.
func BuildStagger(count int, base Options, cfg StaggerConfig, scheduler timing.Scheduler, sink Sink,
	setup func(index int, c *Controller), copts ...ControllerOption) (*Stagger, error) {
	if count <= 0 {
		return nil, fmt.Errorf("%w: stagger needs at least one item, got %d", errors.ErrInvalidOptions, count)
	}
	if cfg.Delay < 0 || cfg.MaxSpan < 0 {
		return nil, fmt.Errorf("%w: stagger delay and span must not be negative", errors.ErrInvalidOptions)
	}
	delays := StaggerDelays(count, cfg)
	items := make([]*Controller, count)
	for i := range items {
		opts := base
		opts.Delay = base.Delay + delays[i]
		c, err := NewController(opts, scheduler, sink, copts...)
		if err != nil {
			return nil, fmt.Errorf("stagger item %d: %w", i, err)
		}
		if setup != nil {
			setup(i, c)
		}
		items[i] = c
	}
	return NewStagger(items...), nil
}

// Items returns the grouped controllers.
func (s *Stagger) Items() []*Controller {
	return s.items
}

// Start starts every item, resetting cancelled or failed items first. It
// reports whether all items accepted.
func (s *Stagger) Start() bool {
	s.completed = false
	ok := true
	for _, c := range s.items {
		if st := c.State(); st == lifecycle.StateCancelled || st == lifecycle.StateError {
			c.Reset()
		}
		ok = c.Start() && ok
	}
	return ok
}

// Pause pauses every running item.
func (s *Stagger) Pause() {
	for _, c := range s.items {
		if c.State() == lifecycle.StateRunning {
			c.Pause()
		}
	}
}

// Resume resumes every paused item.
func (s *Stagger) Resume() {
	for _, c := range s.items {
		if c.State() == lifecycle.StatePaused {
			c.Resume()
		}
	}
}

// Cancel cancels every item.
func (s *Stagger) Cancel() {
	for _, c := range s.items {
		c.Cancel()
	}
}

// Dispose disposes every item and drops completion callbacks.
func (s *Stagger) Dispose() {
	for _, unsub := range s.unsubs {
		unsub()
	}
	s.unsubs = nil
	for _, c := range s.items {
		c.Dispose()
	}
	s.onComplete = nil
}

// Progresses returns each item's progress.
func (s *Stagger) Progresses() []float64 {
	out := make([]float64, len(s.items))
	for i, c := range s.items {
		out[i] = c.Progress()
	}
	return out
}

// Progress returns the mean progress of all items.
func (s *Stagger) Progress() float64 {
	if len(s.items) == 0 {
		return 0
	}
	var sum float64
	for _, c := range s.items {
		sum += c.Progress()
	}
	return sum / float64(len(s.items))
}

// Completed reports whether the completion callbacks have fired for the
// current run.
func (s *Stagger) Completed() bool {
	return s.completed
}

// OnComplete registers fn to run when every item has finished.
func (s *Stagger) OnComplete(fn func()) {
	s.onComplete = append(s.onComplete, fn)
}

func (s *Stagger) check() {
	if s.completed || len(s.items) == 0 {
		return
	}
	for _, c := range s.items {
		if c.State() != lifecycle.StateCompleted || c.Progress() < completionEpsilon {
			return
		}
	}
	s.completed = true
	for _, fn := range s.onComplete {
		fn()
	}
}
