// Package animation drives time-based property interpolation.
//
// # Core Components
//
//   - [Controller]: runs one animation. Each frame it computes progress from
//     elapsed time (easing, iterations, alternation), interpolates every
//     registered property, submits the values to a [Sink], and drives the
//     lifecycle state machine and caller callbacks.
//
//   - [Curve]: easing functions. See [LookupCurve] for named curves.
//
//   - [Tween]: value interpolation for numeric values with units; other
//     values switch discretely at the midpoint.
//
//   - [Stagger] and [Sequence]: orchestrate several controllers, either
//     offset by per-item delays or one after another.
//
//   - [Runtime]: production wiring of a frame pump, a batching processor and
//     metrics.
//
// # Basic Usage
//
//	c, err := animation.NewController(animation.Options{
//	    Duration: 300 * time.Millisecond,
//	    Easing:   "ease-out",
//	}, scheduler, processor)
//	if err != nil {
//	    return err
//	}
//	c.RegisterStyleUpdate(style.Select(".card"), "opacity", "0", "1")
//	c.SetCallbacks(animation.Callbacks{
//	    OnComplete: func() { log.Println("shown") },
//	})
//	c.Start()
//
//	// When done with it:
//	c.Dispose()
//
// Controllers are not safe for concurrent use. Every call must happen on the
// scheduler's logical thread; with a [timing.FramePump] use Post.
package animation

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/go-drift/motion/pkg/errors"
	"github.com/go-drift/motion/pkg/lifecycle"
	"github.com/go-drift/motion/pkg/metrics"
	"github.com/go-drift/motion/pkg/style"
	"github.com/go-drift/motion/pkg/timing"
)

// Sink receives the interpolated values. *style.Processor implements it.
type Sink interface {
	SubmitUpdate(u style.Update)
	SubmitRemoval(r style.Removal)
	ScheduleFlush()
}

// Callbacks are invoked synchronously from the controller. There is no
// re-entrancy protection: calling back into the controller from a callback
// takes effect immediately.
//
// OnComplete runs after the machine has entered completed, so state
// observers (a Sequence starting its next stage, say) see the completion
// first.
type Callbacks struct {
	OnStart    func()
	OnUpdate   func(progress float64, elapsed time.Duration)
	OnPause    func()
	OnResume   func()
	OnComplete func()
	OnCancel   func()
	// OnError receives frame faults. When nil, faults go to the controller's
	// error handler.
	OnError func(err error)
}

// StyleEntry is one registered property interpolation.
type StyleEntry struct {
	Target   style.Target
	Property string
	From     string
	To       string
	Priority style.Priority

	tween Tween
}

// Controller drives one animation run at a time.
type Controller struct {
	id        uuid.UUID
	name      string
	opts      Options
	curve     Curve
	scheduler timing.Scheduler
	sink      Sink
	machine   *lifecycle.Machine
	logger    *slog.Logger
	handler   errors.ErrorHandler
	metrics   *metrics.Metrics

	entries        []StyleEntry
	pendingEntries []StyleEntry
	callbacks      Callbacks
	listeners      map[int]func()
	nextListenerID int
	disposed       bool

	startTime time.Duration
	elapsed   time.Duration
	progress  float64
	iteration int
	frame     timing.Handle
	delay     timing.Handle
}

// ControllerOption configures a Controller.
type ControllerOption func(*Controller)

// WithName labels logs, metrics and error reports.
func WithName(name string) ControllerOption {
	return func(c *Controller) { c.name = name }
}

// WithLogger sets the controller logger.
func WithLogger(logger *slog.Logger) ControllerOption {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithErrorHandler sets where faults are reported when no OnError callback
// is registered.
func WithErrorHandler(h errors.ErrorHandler) ControllerOption {
	return func(c *Controller) { c.handler = h }
}

// WithMetrics records frames and run outcomes.
func WithMetrics(m *metrics.Metrics) ControllerOption {
	return func(c *Controller) { c.metrics = m }
}

// NewController creates a controller in the idle state. The options are
// copied; they cannot change for the controller's lifetime.
func NewController(opts Options, scheduler timing.Scheduler, sink Sink, copts ...ControllerOption) (*Controller, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if scheduler == nil || sink == nil {
		return nil, fmt.Errorf("%w: scheduler and sink are required", errors.ErrInvalidOptions)
	}

	c := &Controller{
		id:        uuid.New(),
		opts:      opts.withDefaults(),
		scheduler: scheduler,
		sink:      sink,
		logger:    slog.Default(),
		listeners: make(map[int]func()),
	}
	for _, opt := range copts {
		opt(c)
	}
	if c.name == "" {
		c.name = "animation-" + c.id.String()[:8]
	}
	c.logger = c.logger.With(slog.String("animation", c.name))

	c.curve = c.opts.Curve
	if c.curve == nil {
		curve, ok := LookupCurve(c.opts.Easing)
		if !ok {
			c.logger.Debug("unknown easing, using linear", slog.String("easing", c.opts.Easing))
		}
		c.curve = curve
	}

	c.machine = lifecycle.NewMachine(
		lifecycle.WithName(c.name),
		lifecycle.WithLogger(c.logger),
		lifecycle.WithErrorHandler(c.handler),
	)
	c.machine.OnStateChange(c.recordTransition)
	return c, nil
}

// ID returns the controller's unique id.
func (c *Controller) ID() uuid.UUID { return c.id }

// Name returns the controller's name.
func (c *Controller) Name() string { return c.name }

// Options returns the options the controller was built with.
func (c *Controller) Options() Options { return c.opts }

// State returns the current lifecycle state.
func (c *Controller) State() lifecycle.State { return c.machine.State() }

// Progress returns the progress applied by the latest frame.
func (c *Controller) Progress() float64 { return c.progress }

// Elapsed returns the active time accounted to the current run. It excludes
// the start delay and any time spent paused.
func (c *Controller) Elapsed() time.Duration { return c.elapsed }

// Iteration returns the zero-based iteration of the latest frame.
func (c *Controller) Iteration() int { return c.iteration }

// Entries returns a copy of the registered style entries.
func (c *Controller) Entries() []StyleEntry {
	out := make([]StyleEntry, len(c.entries))
	copy(out, c.entries)
	return out
}

// OnStateChange observes lifecycle transitions. Returns an unsubscribe
// function.
func (c *Controller) OnStateChange(fn lifecycle.Observer) func() {
	return c.machine.OnStateChange(fn)
}

// AddListener adds a callback that fires after every frame's values are
// submitted. Unlike Callbacks, listeners accumulate. Returns an unsubscribe
// function.
func (c *Controller) AddListener(fn func()) func() {
	id := c.nextListenerID
	c.nextListenerID++
	c.listeners[id] = fn
	return func() {
		delete(c.listeners, id)
	}
}

// RegisterStyleUpdate adds a property to interpolate from from to to. Entries
// registered during a run take effect on the next run.
func (c *Controller) RegisterStyleUpdate(target style.Target, property, from, to string, priority ...style.Priority) {
	e := StyleEntry{
		Target:   target,
		Property: property,
		From:     from,
		To:       to,
		tween:    NewTween(from, to),
	}
	if len(priority) > 0 {
		e.Priority = priority[0]
	}
	if !e.tween.Numeric() {
		c.logger.Debug("values switch discretely at the midpoint",
			slog.String("kind", errors.KindInterpolation.String()),
			slog.String("property", property),
			slog.String("from", from),
			slog.String("to", to))
	}
	if c.machine.IsActive() {
		c.pendingEntries = append(c.pendingEntries, e)
		return
	}
	c.entries = append(c.entries, e)
}

// SetCallbacks replaces the whole callback set.
func (c *Controller) SetCallbacks(cb Callbacks) {
	c.callbacks = cb
}

// Start begins a run. It is legal from idle, and from completed after an
// implicit reset. It returns false (and does nothing) otherwise.
func (c *Controller) Start() bool {
	if c.disposed {
		c.reject("Start")
		return false
	}
	state := c.machine.State()
	if state != lifecycle.StateIdle && state != lifecycle.StateCompleted {
		c.reject("Start")
		return false
	}
	c.elapsed, c.progress, c.iteration = 0, 0, 0
	if state == lifecycle.StateCompleted {
		c.machine.Transition(lifecycle.EventReset)
	}
	c.adoptPendingEntries()

	if c.opts.Delay > 0 {
		c.machine.Transition(lifecycle.EventPrepare)
		if c.opts.FillMode.appliesDuringDelay() {
			if !c.protect("animation.Controller.prepare", func() { c.apply(0) }) {
				return true
			}
		}
		c.delay = c.scheduler.ScheduleAfter(c.begin, c.opts.Delay)
		return true
	}
	c.begin()
	return true
}

// begin runs when the delay (if any) has elapsed.
func (c *Controller) begin() {
	c.delay = 0
	c.startTime = c.scheduler.Now()
	c.elapsed, c.progress, c.iteration = 0, 0, 0
	if !c.machine.Transition(lifecycle.EventStart) {
		return
	}
	ok := c.protect("animation.Controller.start", func() {
		c.apply(0)
		c.invoke(c.callbacks.OnStart)
	})
	if ok && c.machine.State() == lifecycle.StateRunning && c.frame == 0 {
		c.frame = c.scheduler.ScheduleFrame(c.tick)
	}
}

// Pause suspends a running animation, freezing elapsed time at the value the
// latest frame computed.
func (c *Controller) Pause() bool {
	if c.machine.State() != lifecycle.StateRunning {
		c.reject("Pause")
		return false
	}
	c.machine.Transition(lifecycle.EventPause)
	c.cancelFrame()
	c.protect("animation.Controller.pause", func() { c.invoke(c.callbacks.OnPause) })
	return true
}

// Resume continues a paused animation. Time spent paused does not count
// toward elapsed time.
func (c *Controller) Resume() bool {
	if c.machine.State() != lifecycle.StatePaused {
		c.reject("Resume")
		return false
	}
	c.machine.Transition(lifecycle.EventResume)
	c.startTime = c.scheduler.Now() - c.elapsed
	if c.frame == 0 {
		c.frame = c.scheduler.ScheduleFrame(c.tick)
	}
	c.protect("animation.Controller.resume", func() { c.invoke(c.callbacks.OnResume) })
	return true
}

// Cancel stops the run. With FillForwards or FillBoth the last applied
// values stay; otherwise the start values are applied again. Cancel is a
// no-op when idle, completed or already cancelled.
func (c *Controller) Cancel() bool {
	switch c.machine.State() {
	case lifecycle.StateIdle, lifecycle.StateCompleted, lifecycle.StateCancelled:
		return false
	case lifecycle.StateError:
		// No transition leaves Error except Reset; just make sure nothing
		// is left scheduled.
		c.cancelHandles()
		return false
	}
	c.cancelHandles()
	c.machine.Transition(lifecycle.EventCancel)
	c.protect("animation.Controller.cancel", func() {
		if !c.opts.FillMode.keepsEnd() {
			c.apply(0)
		}
		c.invoke(c.callbacks.OnCancel)
	})
	return true
}

// Reset returns a completed, cancelled or failed controller to idle so it can
// start again. Applied values are left as they are.
func (c *Controller) Reset() bool {
	if !c.machine.IsTerminal() {
		c.reject("Reset")
		return false
	}
	c.cancelHandles()
	c.elapsed, c.progress, c.iteration = 0, 0, 0
	return c.machine.Transition(lifecycle.EventReset)
}

// Dispose cancels the run, resets the state machine to idle and drops all
// style entries, callbacks and listeners. A disposed controller cannot start
// again. Dispose is safe to call more than once.
func (c *Controller) Dispose() {
	if c.disposed {
		return
	}
	c.Cancel()
	c.cancelHandles()
	c.machine.Reset()
	c.entries = nil
	c.pendingEntries = nil
	c.callbacks = Callbacks{}
	clear(c.listeners)
	c.disposed = true
}

// tick is the frame callback.
func (c *Controller) tick(timestamp time.Duration) {
	c.frame = 0
	if c.machine.State() != lifecycle.StateRunning {
		return
	}
	began := time.Now()
	ok := c.protect("animation.Controller.frame", func() { c.step(timestamp) })
	c.metrics.Frame(c.name, time.Since(began))
	if ok && c.machine.State() == lifecycle.StateRunning && c.frame == 0 {
		c.frame = c.scheduler.ScheduleFrame(c.tick)
	}
}

// step computes and applies one frame.
func (c *Controller) step(timestamp time.Duration) {
	elapsed := timestamp - c.startTime
	if elapsed < 0 {
		elapsed = 0
	}
	c.elapsed = elapsed

	duration := c.opts.Duration
	total, finite := c.opts.TotalDuration()
	if finite && elapsed >= total {
		c.progress = 1
		c.iteration = int(c.opts.Iterations) - 1
		c.apply(1)
		c.invokeUpdate(1, elapsed)
		c.notifyListeners()
		c.machine.Transition(lifecycle.EventComplete)
		c.invoke(c.callbacks.OnComplete)
		return
	}

	iteration := int(elapsed / duration)
	if finite && iteration > int(c.opts.Iterations)-1 {
		iteration = int(c.opts.Iterations) - 1
	}
	progress := c.curve(float64(elapsed%duration) / float64(duration))
	if c.opts.Alternate && iteration%2 == 1 {
		progress = 1 - progress
	}
	c.iteration = iteration
	c.progress = progress

	c.apply(progress)
	c.invokeUpdate(progress, elapsed)
	c.notifyListeners()
}

// apply submits every entry's value at progress and asks for a flush.
func (c *Controller) apply(progress float64) {
	if len(c.entries) == 0 {
		return
	}
	for _, e := range c.entries {
		c.sink.SubmitUpdate(style.Update{
			Target:   e.Target,
			Property: e.Property,
			Value:    e.tween.Evaluate(progress),
			Priority: e.Priority,
		})
	}
	c.sink.ScheduleFlush()
}

// protect runs fn and converts a panic into the error state.
func (c *Controller) protect(op string, fn func()) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			c.fail(op, errors.FromPanic(op, r))
			ok = false
		}
	}()
	fn()
	return true
}

// fail forces the error state and reports err. No retry is attempted.
func (c *Controller) fail(op string, cause error) {
	c.cancelHandles()
	err := &errors.MotionError{
		Op:         op,
		Kind:       errors.KindFrame,
		Err:        cause,
		Controller: c.name,
		State:      c.machine.State().String(),
		StackTrace: errors.CaptureStack(),
	}
	if c.machine.CanTransition(lifecycle.EventError) {
		c.machine.Transition(lifecycle.EventError)
	}

	onError := c.callbacks.OnError
	if onError == nil {
		errors.Report(c.handler, err)
		return
	}
	defer func() {
		if r := recover(); r != nil {
			// The error callback itself failed; fall back to the handler.
			errors.Report(c.handler, err)
			errors.ReportPanic(c.handler, errors.FromPanic("animation.Callbacks.OnError", r))
		}
	}()
	onError(err)
}

func (c *Controller) invoke(fn func()) {
	if fn != nil {
		fn()
	}
}

func (c *Controller) invokeUpdate(progress float64, elapsed time.Duration) {
	if c.callbacks.OnUpdate != nil {
		c.callbacks.OnUpdate(progress, elapsed)
	}
}

func (c *Controller) notifyListeners() {
	for _, listener := range c.listeners {
		listener()
	}
}

func (c *Controller) cancelFrame() {
	if c.frame != 0 {
		c.scheduler.CancelFrame(c.frame)
		c.frame = 0
	}
}

func (c *Controller) cancelHandles() {
	c.cancelFrame()
	if c.delay != 0 {
		c.scheduler.CancelScheduled(c.delay)
		c.delay = 0
	}
}

func (c *Controller) adoptPendingEntries() {
	if len(c.pendingEntries) == 0 {
		return
	}
	c.entries = append(c.entries, c.pendingEntries...)
	c.pendingEntries = nil
}

func (c *Controller) reject(op string) {
	c.metrics.Rejected()
	state := c.machine.State().String()
	c.logger.Warn("operation rejected",
		slog.String("op", op),
		slog.String("kind", errors.KindTransition.String()),
		slog.String("state", state),
		slog.Bool("disposed", c.disposed),
		slog.Any("error", fmt.Errorf("%w: %s while %s", errors.ErrRejectedTransition, op, state)))
}

func (c *Controller) recordTransition(prev lifecycle.State, ev lifecycle.Event) {
	switch c.machine.State() {
	case lifecycle.StatePreparing:
		c.metrics.Started(c.name)
	case lifecycle.StateRunning:
		if prev == lifecycle.StateIdle {
			c.metrics.Started(c.name)
		}
	case lifecycle.StateCompleted:
		c.metrics.Completed(c.name)
	case lifecycle.StateCancelled:
		c.metrics.Cancelled(c.name)
	case lifecycle.StateError:
		c.metrics.Failed(c.name)
	}
	c.logger.Debug("transition",
		slog.String("from", prev.String()),
		slog.String("event", ev.String()),
		slog.String("to", c.machine.State().String()))
}
