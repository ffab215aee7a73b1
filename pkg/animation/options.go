package animation

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/go-drift/motion/pkg/errors"
)

// FillMode decides which values persist once a run is no longer active.
type FillMode int

const (
	// FillNone reverts to the start values when a run is cancelled.
	FillNone FillMode = iota
	// FillForwards keeps the last applied values after cancel.
	FillForwards
	// FillBackwards applies the start values while waiting out the delay.
	FillBackwards
	// FillBoth combines forwards and backwards.
	FillBoth
)

// String returns the CSS-style name of the fill mode.
func (f FillMode) String() string {
	switch f {
	case FillNone:
		return "none"
	case FillForwards:
		return "forwards"
	case FillBackwards:
		return "backwards"
	case FillBoth:
		return "both"
	default:
		return fmt.Sprintf("FillMode(%d)", int(f))
	}
}

// ParseFillMode parses "none", "forwards", "backwards" or "both". The empty
// string is FillNone.
func ParseFillMode(s string) (FillMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return FillNone, nil
	case "forwards":
		return FillForwards, nil
	case "backwards":
		return FillBackwards, nil
	case "both":
		return FillBoth, nil
	default:
		return FillNone, fmt.Errorf("unknown fill mode %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (f FillMode) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *FillMode) UnmarshalText(text []byte) error {
	v, err := ParseFillMode(string(text))
	if err != nil {
		return err
	}
	*f = v
	return nil
}

func (f FillMode) keepsEnd() bool {
	return f == FillForwards || f == FillBoth
}

func (f FillMode) appliesDuringDelay() bool {
	return f == FillBackwards || f == FillBoth
}

// Iterations is a positive repeat count or Infinite. Zero means one.
type Iterations int

// Infinite repeats forever; the run never completes on its own.
const Infinite Iterations = -1

// String returns the count, or "infinite".
func (n Iterations) String() string {
	if n == Infinite {
		return "infinite"
	}
	return strconv.Itoa(int(n))
}

// MarshalText implements encoding.TextMarshaler.
func (n Iterations) MarshalText() ([]byte, error) {
	return []byte(n.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (n *Iterations) UnmarshalText(text []byte) error {
	s := strings.ToLower(strings.TrimSpace(string(text)))
	if s == "infinite" {
		*n = Infinite
		return nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("iterations must be a positive integer or \"infinite\": %w", err)
	}
	*n = Iterations(v)
	return nil
}

// Options configure one animation run. A controller copies them at
// construction; to change options, cancel and create a new controller.
type Options struct {
	// Duration of one iteration. Must be positive.
	Duration time.Duration
	// Delay before the first frame. Must not be negative.
	Delay time.Duration
	// Easing names the curve applied to per-iteration progress. Empty means
	// linear; unknown names fall back to linear.
	Easing string
	// Curve overrides Easing when set.
	Curve Curve
	// Iterations is the repeat count. Zero means one.
	Iterations Iterations
	// Alternate reverses direction on odd iterations.
	Alternate bool
	// FillMode decides what persists after cancel.
	FillMode FillMode
}

// Validate reports whether the options can drive a run.
func (o Options) Validate() error {
	if o.Duration <= 0 {
		return fmt.Errorf("%w: duration must be positive, got %v", errors.ErrInvalidOptions, o.Duration)
	}
	if o.Delay < 0 {
		return fmt.Errorf("%w: delay must not be negative, got %v", errors.ErrInvalidOptions, o.Delay)
	}
	if o.Iterations < 0 && o.Iterations != Infinite {
		return fmt.Errorf("%w: iterations must be positive or infinite, got %d", errors.ErrInvalidOptions, o.Iterations)
	}
	if o.Iterations > 0 && int64(o.Iterations) > math.MaxInt64/int64(o.Duration) {
		return fmt.Errorf("%w: %d iterations of %v overflow the total duration", errors.ErrInvalidOptions, o.Iterations, o.Duration)
	}
	if o.FillMode < FillNone || o.FillMode > FillBoth {
		return fmt.Errorf("%w: unknown fill mode %d", errors.ErrInvalidOptions, o.FillMode)
	}
	return nil
}

func (o Options) withDefaults() Options {
	if o.Iterations == 0 {
		o.Iterations = 1
	}
	return o
}

// TotalDuration returns Duration times Iterations, and false for Infinite.
// A product that does not fit in a time.Duration saturates.
func (o Options) TotalDuration() (time.Duration, bool) {
	o = o.withDefaults()
	if o.Iterations == Infinite {
		return 0, false
	}
	if o.Duration > 0 && int64(o.Iterations) > math.MaxInt64/int64(o.Duration) {
		return time.Duration(math.MaxInt64), true
	}
	return o.Duration * time.Duration(o.Iterations), true
}
