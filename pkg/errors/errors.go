// Package errors provides structured error reporting for the motion runtime.
//
// Faults never propagate out of the public controller operations. They are
// converted into lifecycle transitions, callback invocations, or reports sent
// to an [ErrorHandler].
package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// ErrorKind identifies the category of an error.
type ErrorKind int

const (
	// KindUnknown indicates an error of unknown type.
	KindUnknown ErrorKind = iota
	// KindTransition indicates a lifecycle event with no matching table row.
	KindTransition
	// KindFrame indicates a fault while computing or applying a frame.
	KindFrame
	// KindInterpolation indicates values that could not be interpolated
	// numerically and fell back to a discrete switch.
	KindInterpolation
	// KindObserver indicates a state-change observer that panicked.
	KindObserver
	// KindFlush indicates a rendering surface fault while draining the sink.
	KindFlush
	// KindPanic indicates a recovered panic in a scheduled callback.
	KindPanic
	// KindConfig indicates a preset loading or validation failure.
	KindConfig
)

func (k ErrorKind) String() string {
	switch k {
	case KindTransition:
		return "transition"
	case KindFrame:
		return "frame"
	case KindInterpolation:
		return "interpolation"
	case KindObserver:
		return "observer"
	case KindFlush:
		return "flush"
	case KindPanic:
		return "panic"
	case KindConfig:
		return "config"
	default:
		return "unknown"
	}
}

var (
	// ErrInvalidOptions is returned when animation options fail validation.
	ErrInvalidOptions = stderrors.New("invalid animation options")
	// ErrRejectedTransition marks a lifecycle event that was not legal in
	// the current state.
	ErrRejectedTransition = stderrors.New("rejected transition")
)

// MotionError represents a structured error in the motion runtime.
type MotionError struct {
	// Op is the operation that failed (e.g., "animation.Controller.frame").
	Op string
	// Kind categorizes the error.
	Kind ErrorKind
	// Err is the underlying error.
	Err error
	// Controller names the controller involved, if any.
	Controller string
	// State is the lifecycle state at the time of the error, if known.
	State string
	// StackTrace contains the call stack at the time of the error.
	StackTrace string
	// Timestamp is when the error occurred.
	Timestamp time.Time
}

func (e *MotionError) Error() string {
	if e.Controller != "" {
		return fmt.Sprintf("%s [%s] controller=%s: %v", e.Op, e.Kind, e.Controller, e.Err)
	}
	return fmt.Sprintf("%s [%s]: %v", e.Op, e.Kind, e.Err)
}

func (e *MotionError) Unwrap() error {
	return e.Err
}

// PanicError represents a recovered panic.
type PanicError struct {
	// Op is the operation that panicked (e.g., "timing.FramePump.frame").
	Op string
	// Value is the value passed to panic().
	Value any
	// StackTrace contains the call stack at the time of the panic.
	StackTrace string
	// Timestamp is when the panic occurred.
	Timestamp time.Time
}

func (e *PanicError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("panic in %s: %v", e.Op, e.Value)
	}
	return fmt.Sprintf("panic: %v", e.Value)
}

// FromPanic converts a recovered value into an error. Values that already
// are errors are wrapped so callers can still match them with errors.Is.
func FromPanic(op string, r any) *PanicError {
	return &PanicError{
		Op:         op,
		Value:      r,
		StackTrace: CaptureStack(),
		Timestamp:  time.Now(),
	}
}

// Unwrap returns the panic value when it is an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// Is, As and New are re-exported so callers importing this package under the
// name errors keep access to the standard helpers.
var (
	Is  = stderrors.Is
	As  = stderrors.As
	New = stderrors.New
)

// ErrorHandler receives errors reported by the motion runtime.
type ErrorHandler interface {
	// HandleError is called when an error occurs.
	HandleError(err *MotionError)
	// HandlePanic is called when a panic is recovered.
	HandlePanic(err *PanicError)
}
