package errors

import (
	"context"
	"log/slog"
)

// LogHandler is an ErrorHandler that writes structured log records.
type LogHandler struct {
	// Logger receives the records. Nil means slog.Default().
	Logger *slog.Logger
	// Verbose adds stack traces to the records.
	Verbose bool
}

func (h *LogHandler) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// HandleError logs a MotionError. Rejected transitions and interpolation
// fallbacks are expected during normal operation and log below error level.
func (h *LogHandler) HandleError(err *MotionError) {
	if err == nil {
		return
	}
	level := slog.LevelError
	switch err.Kind {
	case KindTransition:
		level = slog.LevelWarn
	case KindInterpolation:
		level = slog.LevelDebug
	}

	attrs := []slog.Attr{
		slog.String("op", err.Op),
		slog.String("kind", err.Kind.String()),
		slog.Any("error", err.Err),
	}
	if err.Controller != "" {
		attrs = append(attrs, slog.String("controller", err.Controller))
	}
	if err.State != "" {
		attrs = append(attrs, slog.String("state", err.State))
	}
	if h.Verbose && err.StackTrace != "" {
		attrs = append(attrs, slog.String("stack", err.StackTrace))
	}
	h.logger().LogAttrs(context.Background(), level, "motion error", attrs...)
}

// HandlePanic logs a PanicError.
func (h *LogHandler) HandlePanic(err *PanicError) {
	if err == nil {
		return
	}
	attrs := []slog.Attr{
		slog.String("op", err.Op),
		slog.Any("value", err.Value),
	}
	if h.Verbose && err.StackTrace != "" {
		attrs = append(attrs, slog.String("stack", err.StackTrace))
	}
	h.logger().LogAttrs(context.Background(), slog.LevelError, "motion panic", attrs...)
}
