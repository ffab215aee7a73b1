package animation

import (
	"context"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/go-drift/motion/pkg/errors"
	"github.com/go-drift/motion/pkg/metrics"
	"github.com/go-drift/motion/pkg/style"
	"github.com/go-drift/motion/pkg/timing"
)

// RuntimeConfig configures a Runtime. The zero value is usable.
type RuntimeConfig struct {
	// FrameInterval defaults to timing.DefaultFrameInterval.
	FrameInterval time.Duration
	// Logger defaults to slog.Default().
	Logger *slog.Logger
	// Registerer receives the runtime metrics. Nil disables metrics.
	Registerer prometheus.Registerer
	// ErrorHandler defaults to errors.DefaultHandler.
	ErrorHandler errors.ErrorHandler
}

// Runtime wires a frame pump, a batching processor over a surface and
// optional metrics. Controllers created through it share the processor.
type Runtime struct {
	Pump      *timing.FramePump
	Processor *style.Processor
	Metrics   *metrics.Metrics

	logger  *slog.Logger
	handler errors.ErrorHandler
}

// NewRuntime creates a runtime writing to surface. Call Run to start frames.
func NewRuntime(surface style.Surface, cfg RuntimeConfig) *Runtime {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	var m *metrics.Metrics
	if cfg.Registerer != nil {
		m = metrics.New(cfg.Registerer)
	}
	pump := timing.NewFramePump(
		timing.WithFrameInterval(cfg.FrameInterval),
		timing.WithLogger(logger),
		timing.WithErrorHandler(cfg.ErrorHandler),
	)
	return &Runtime{
		Pump: pump,
		Processor: style.NewProcessor(surface, pump,
			style.WithLogger(logger),
			style.WithErrorHandler(cfg.ErrorHandler),
			style.WithMetrics(m)),
		Metrics: m,
		logger:  logger,
		handler: cfg.ErrorHandler,
	}
}

// NewController creates a controller on the runtime's pump and processor.
// Extra options are applied after the runtime defaults.
func (r *Runtime) NewController(opts Options, copts ...ControllerOption) (*Controller, error) {
	base := []ControllerOption{
		WithLogger(r.logger),
		WithMetrics(r.Metrics),
		WithErrorHandler(r.handler),
	}
	return NewController(opts, r.Pump, r.Processor, append(base, copts...)...)
}

// Run drives frames until ctx is done. Pending mutations are flushed before
// it returns.
func (r *Runtime) Run(ctx context.Context) error {
	err := r.Pump.Run(ctx)
	r.Processor.FlushNow()
	return err
}

// Do runs fn on the runtime's loop and waits for it. It returns false if the
// runtime stopped before fn ran. Do must not be called from the loop itself.
func (r *Runtime) Do(fn func()) bool {
	done := make(chan struct{})
	if !r.Pump.Post(func() {
		defer close(done)
		fn()
	}) {
		return false
	}
	select {
	case <-done:
		return true
	case <-r.Pump.Done():
		// The task may still have run just before the pump stopped.
		select {
		case <-done:
			return true
		default:
			return false
		}
	}
}
