package style

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/go-drift/motion/pkg/errors"
	"github.com/go-drift/motion/pkg/metrics"
	"github.com/go-drift/motion/pkg/timing"
)

// Processor is the batched mutation sink. Any number of controllers may share
// one processor; entries are independent and queue order is flush order.
//
// Processor is not safe for concurrent use. All calls happen on the
// scheduler's logical thread.
type Processor struct {
	surface   Surface
	scheduler timing.Scheduler
	logger    *slog.Logger
	handler   errors.ErrorHandler
	metrics   *metrics.Metrics

	updates  []Update
	removals []Removal
	pending  timing.Handle
	flushes  int
}

// ProcessorOption configures a Processor.
type ProcessorOption func(*Processor)

// WithLogger sets the processor logger.
func WithLogger(logger *slog.Logger) ProcessorOption {
	return func(p *Processor) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithErrorHandler sets where surface faults are reported.
func WithErrorHandler(h errors.ErrorHandler) ProcessorOption {
	return func(p *Processor) { p.handler = h }
}

// WithMetrics records flush counts.
func WithMetrics(m *metrics.Metrics) ProcessorOption {
	return func(p *Processor) { p.metrics = m }
}

// NewProcessor creates a processor that writes to surface and schedules its
// flushes on scheduler.
func NewProcessor(surface Surface, scheduler timing.Scheduler, opts ...ProcessorOption) *Processor {
	p := &Processor{
		surface:   surface,
		scheduler: scheduler,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// SubmitUpdate queues an update.
func (p *Processor) SubmitUpdate(u Update) {
	p.updates = append(p.updates, u)
}

// SubmitRemoval queues a removal.
func (p *Processor) SubmitRemoval(r Removal) {
	p.removals = append(p.removals, r)
}

// ScheduleFlush requests a drain on the next frame. Calls made before that
// frame fires coalesce into one flush.
func (p *Processor) ScheduleFlush() {
	if p.pending != 0 {
		return
	}
	p.pending = p.scheduler.ScheduleFrame(func(time.Duration) {
		p.pending = 0
		p.flush()
	})
}

// FlushNow cancels any scheduled flush and drains synchronously.
func (p *Processor) FlushNow() {
	if p.pending != 0 {
		p.scheduler.CancelFrame(p.pending)
		p.pending = 0
	}
	p.flush()
}

// Pending returns the number of queued updates and removals.
func (p *Processor) Pending() (updates, removals int) {
	return len(p.updates), len(p.removals)
}

// FlushScheduled reports whether a flush frame is outstanding.
func (p *Processor) FlushScheduled() bool {
	return p.pending != 0
}

// Flushes returns how many non-empty flushes have run.
func (p *Processor) Flushes() int {
	return p.flushes
}

// flush applies every removal, then every update. Entries submitted while
// flushing (by a surface reacting to writes) wait for the next flush.
func (p *Processor) flush() {
	removals, updates := p.removals, p.updates
	p.removals, p.updates = nil, nil
	if len(removals) == 0 && len(updates) == 0 {
		return
	}
	p.flushes++

	for _, r := range removals {
		p.apply("style.Processor.remove", r.Target, r.Property, func(el Element) {
			p.surface.RemoveProperty(el, r.Property)
		})
	}
	for _, u := range updates {
		p.apply("style.Processor.update", u.Target, u.Property, func(el Element) {
			p.surface.SetProperty(el, u.Property, u.Value, u.Priority)
		})
	}

	p.metrics.Flushed(len(updates), len(removals))
	p.logger.Debug("flushed style mutations",
		slog.Int("updates", len(updates)),
		slog.Int("removals", len(removals)))
}

// apply resolves target at flush time and writes to each element. A surface
// fault skips only the entry that caused it.
func (p *Processor) apply(op string, target Target, property string, write func(Element)) {
	defer func() {
		if r := recover(); r != nil {
			p.metrics.FlushFault()
			errors.Report(p.handler, &errors.MotionError{
				Op:   op,
				Kind: errors.KindFlush,
				Err:  fmt.Errorf("%s on %s: %w", property, target, errors.FromPanic(op, r)),
			})
		}
	}()
	for _, el := range target.Resolve(p.surface) {
		write(el)
	}
}
