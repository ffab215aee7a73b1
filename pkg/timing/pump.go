package timing

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.uber.org/atomic"

	"github.com/go-drift/motion/pkg/errors"
)

// DefaultFrameInterval is the frame period used when none is configured.
const DefaultFrameInterval = time.Second / 60

// FramePump is the production Scheduler. Run turns the calling goroutine into
// the runtime's single logical thread: frame rounds, delayed callbacks and
// posted work all execute there, one at a time.
//
// Scheduling and cancelling may be called from any goroutine.
type FramePump struct {
	interval time.Duration
	clock    Clock
	origin   time.Time
	logger   *slog.Logger
	handler  errors.ErrorHandler

	mu     sync.Mutex
	frames map[Handle]FrameCallback
	order  []Handle
	timers map[Handle]*pumpTimer

	tasks   chan func()
	done    chan struct{}
	nextID  *atomic.Uint64
	running *atomic.Bool
	rounds  *atomic.Uint64
}

type pumpTimer struct {
	timer *time.Timer
	cb    func()
}

// PumpOption configures a FramePump.
type PumpOption func(*FramePump)

// WithFrameInterval sets the frame period.
func WithFrameInterval(d time.Duration) PumpOption {
	return func(p *FramePump) {
		if d > 0 {
			p.interval = d
		}
	}
}

// WithClock replaces the wall clock.
func WithClock(c Clock) PumpOption {
	return func(p *FramePump) {
		if c != nil {
			p.clock = c
		}
	}
}

// WithLogger sets the pump logger.
func WithLogger(logger *slog.Logger) PumpOption {
	return func(p *FramePump) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithErrorHandler sets where callback panics are reported.
func WithErrorHandler(h errors.ErrorHandler) PumpOption {
	return func(p *FramePump) { p.handler = h }
}

// NewFramePump creates a pump. Nothing fires until Run is called.
func NewFramePump(opts ...PumpOption) *FramePump {
	p := &FramePump{
		interval: DefaultFrameInterval,
		clock:    realClock{},
		logger:   slog.Default(),
		frames:   make(map[Handle]FrameCallback),
		timers:   make(map[Handle]*pumpTimer),
		tasks:    make(chan func(), 64),
		done:     make(chan struct{}),
		nextID:   atomic.NewUint64(0),
		running:  atomic.NewBool(false),
		rounds:   atomic.NewUint64(0),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.origin = p.clock.Now()
	return p
}

// Now returns time elapsed since the pump was created.
func (p *FramePump) Now() time.Duration {
	return p.clock.Now().Sub(p.origin)
}

// Interval returns the frame period.
func (p *FramePump) Interval() time.Duration {
	return p.interval
}

// Rounds returns how many frame rounds have run.
func (p *FramePump) Rounds() uint64 {
	return p.rounds.Load()
}

// ScheduleFrame arranges for cb to run on the next frame round.
func (p *FramePump) ScheduleFrame(cb FrameCallback) Handle {
	h := Handle(p.nextID.Inc())
	p.mu.Lock()
	p.frames[h] = cb
	p.order = append(p.order, h)
	p.mu.Unlock()
	return h
}

// CancelFrame cancels a pending frame callback.
func (p *FramePump) CancelFrame(h Handle) {
	if h == 0 {
		return
	}
	p.mu.Lock()
	delete(p.frames, h)
	p.mu.Unlock()
}

// ScheduleAfter arranges for cb to run on the loop after delay.
func (p *FramePump) ScheduleAfter(cb func(), delay time.Duration) Handle {
	h := Handle(p.nextID.Inc())
	t := &pumpTimer{cb: cb}
	p.mu.Lock()
	p.timers[h] = t
	// Holding the lock keeps fireTimer from observing t before timer is set.
	t.timer = time.AfterFunc(delay, func() {
		p.Post(func() { p.fireTimer(h) })
	})
	p.mu.Unlock()
	return h
}

// CancelScheduled cancels a pending delayed callback. If the timer already
// expired and its callback is queued on the loop, the loop drops it.
func (p *FramePump) CancelScheduled(h Handle) {
	if h == 0 {
		return
	}
	p.mu.Lock()
	t, ok := p.timers[h]
	delete(p.timers, h)
	p.mu.Unlock()
	if ok {
		t.timer.Stop()
	}
}

// Post queues fn to run on the loop. It returns false once the pump has
// stopped.
func (p *FramePump) Post(fn func()) bool {
	select {
	case <-p.done:
		return false
	default:
	}
	select {
	case p.tasks <- fn:
		return true
	case <-p.done:
		return false
	}
}

// Done is closed once Run returns.
func (p *FramePump) Done() <-chan struct{} {
	return p.done
}

// Run drives the pump until ctx is done. It returns ctx.Err(), or an error if
// the pump is already running or has stopped.
func (p *FramePump) Run(ctx context.Context) error {
	if !p.running.CompareAndSwap(false, true) {
		return fmt.Errorf("timing: frame pump already started")
	}
	defer close(p.done)
	defer p.stopTimers()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.logger.Debug("frame pump started", slog.Duration("interval", p.interval))
	for {
		select {
		case <-ctx.Done():
			p.logger.Debug("frame pump stopped", slog.Uint64("rounds", p.rounds.Load()))
			return ctx.Err()
		case <-ticker.C:
			p.frame()
		case fn := <-p.tasks:
			p.safeCall("timing.FramePump.task", fn)
		}
	}
}

// frame runs one frame round. Callbacks registered during the round wait for
// the next one.
func (p *FramePump) frame() {
	p.rounds.Inc()
	ts := p.Now()

	p.mu.Lock()
	order := p.order
	p.order = nil
	p.mu.Unlock()

	for _, h := range order {
		p.mu.Lock()
		cb, ok := p.frames[h]
		delete(p.frames, h)
		p.mu.Unlock()
		if !ok {
			continue
		}
		p.safeCall("timing.FramePump.frame", func() { cb(ts) })
	}
}

func (p *FramePump) fireTimer(h Handle) {
	p.mu.Lock()
	t, ok := p.timers[h]
	delete(p.timers, h)
	p.mu.Unlock()
	if !ok {
		return
	}
	p.safeCall("timing.FramePump.timer", t.cb)
}

func (p *FramePump) stopTimers() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for h, t := range p.timers {
		t.timer.Stop()
		delete(p.timers, h)
	}
	clear(p.frames)
	p.order = nil
}

func (p *FramePump) safeCall(op string, fn func()) {
	defer errors.Recover(p.handler, op)
	fn()
}
