package animation

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/tanema/gween/ease"
)

// Curve transforms linear per-iteration progress into eased progress.
//
// Curves take t in [0, 1]. Most return values in [0, 1]; back and elastic
// curves overshoot on purpose.
//
// Named curves are resolved with [LookupCurve]. The quadratic family
// ([Linear], [EaseIn], [EaseOut], [EaseInOut]) is computed exactly; the
// extended family comes from gween's easing functions.
type Curve func(t float64) float64

// Linear returns t unchanged.
func Linear(t float64) float64 {
	return t
}

// EaseIn is quadratic ease-in: t².
func EaseIn(t float64) float64 {
	return t * t
}

// EaseOut is quadratic ease-out: t(2-t).
func EaseOut(t float64) float64 {
	return t * (2 - t)
}

// EaseInOut is quadratic ease-in for the first half and ease-out for the
// second.
func EaseInOut(t float64) float64 {
	if t < 0.5 {
		return 2 * t * t
	}
	return -1 + (4-2*t)*t
}

// CSSEase is a cubic bezier matching CSS "ease".
var CSSEase = CubicBezier(0.25, 0.1, 0.25, 1.0)

// IOSNavigationCurve approximates iOS navigation transition easing.
var IOSNavigationCurve = CubicBezier(0.22, 1.0, 0.36, 1.0)

// FromTween adapts a gween easing function to a Curve.
func FromTween(fn ease.TweenFunc) Curve {
	return func(t float64) float64 {
		return float64(fn(float32(t), 0, 1, 1))
	}
}

var tweenFamilies = []string{
	"quad", "cubic", "quart", "quint", "sine",
	"expo", "circ", "elastic", "back", "bounce",
}

// namedTweens maps "<direction>-<family>" to gween functions.
var namedTweens = map[string]ease.TweenFunc{
	"in-quad": ease.InQuad, "out-quad": ease.OutQuad, "in-out-quad": ease.InOutQuad, "out-in-quad": ease.OutInQuad,
	"in-cubic": ease.InCubic, "out-cubic": ease.OutCubic, "in-out-cubic": ease.InOutCubic, "out-in-cubic": ease.OutInCubic,
	"in-quart": ease.InQuart, "out-quart": ease.OutQuart, "in-out-quart": ease.InOutQuart, "out-in-quart": ease.OutInQuart,
	"in-quint": ease.InQuint, "out-quint": ease.OutQuint, "in-out-quint": ease.InOutQuint, "out-in-quint": ease.OutInQuint,
	"in-sine": ease.InSine, "out-sine": ease.OutSine, "in-out-sine": ease.InOutSine, "out-in-sine": ease.OutInSine,
	"in-expo": ease.InExpo, "out-expo": ease.OutExpo, "in-out-expo": ease.InOutExpo, "out-in-expo": ease.OutInExpo,
	"in-circ": ease.InCirc, "out-circ": ease.OutCirc, "in-out-circ": ease.InOutCirc, "out-in-circ": ease.OutInCirc,
	"in-elastic": ease.InElastic, "out-elastic": ease.OutElastic, "in-out-elastic": ease.InOutElastic, "out-in-elastic": ease.OutInElastic,
	"in-back": ease.InBack, "out-back": ease.OutBack, "in-out-back": ease.InOutBack, "out-in-back": ease.OutInBack,
	"in-bounce": ease.InBounce, "out-bounce": ease.OutBounce, "in-out-bounce": ease.InOutBounce, "out-in-bounce": ease.OutInBounce,
}

// LookupCurve resolves a curve name. Recognized names:
//
//	linear, ease-in, ease-out, ease-in-out   quadratic family
//	ease                                     CSS ease
//	ios-navigation                           iOS navigation transition
//	cubic-bezier(x1, y1, x2, y2)             custom bezier
//	ease-<in|out|in-out|out-in>-<family>     gween family: quad, cubic,
//	                                         quart, quint, sine, expo, circ,
//	                                         elastic, back, bounce
//
// The empty name is linear. For unknown names LookupCurve returns Linear and
// false.
func LookupCurve(name string) (Curve, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	switch name {
	case "", "linear":
		return Linear, true
	case "ease-in":
		return EaseIn, true
	case "ease-out":
		return EaseOut, true
	case "ease-in-out":
		return EaseInOut, true
	case "ease":
		return CSSEase, true
	case "ios-navigation":
		return IOSNavigationCurve, true
	}
	if strings.HasPrefix(name, "cubic-bezier(") {
		c, err := parseCubicBezier(name)
		if err != nil {
			return Linear, false
		}
		return c, true
	}
	if rest, ok := strings.CutPrefix(name, "ease-"); ok {
		if fn, ok := namedTweens[rest]; ok {
			return FromTween(fn), true
		}
	}
	return Linear, false
}

// CurveFamilies lists the gween family names accepted by LookupCurve.
func CurveFamilies() []string {
	return slices.Clone(tweenFamilies)
}

func parseCubicBezier(s string) (Curve, error) {
	inner, ok := strings.CutPrefix(s, "cubic-bezier(")
	if !ok || !strings.HasSuffix(inner, ")") {
		return nil, fmt.Errorf("malformed cubic-bezier %q", s)
	}
	parts := strings.Split(strings.TrimSuffix(inner, ")"), ",")
	if len(parts) != 4 {
		return nil, fmt.Errorf("cubic-bezier needs 4 values, got %d", len(parts))
	}
	var v [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("cubic-bezier value %d: %w", i, err)
		}
		v[i] = f
	}
	if v[0] < 0 || v[0] > 1 || v[2] < 0 || v[2] > 1 {
		return nil, fmt.Errorf("cubic-bezier x values must be in [0, 1]")
	}
	return CubicBezier(v[0], v[1], v[2], v[3]), nil
}

// CubicBezier returns a cubic-bezier easing function matching CSS cubic-bezier().
// The parameters define the two control points (x1,y1) and (x2,y2) of the curve.
// The curve starts at (0,0) and ends at (1,1).
func CubicBezier(x1, y1, x2, y2 float64) Curve {
	return func(t float64) float64 {
		if t <= 0 {
			return 0
		}
		if t >= 1 {
			return 1
		}

		u := t
		// Newton-Raphson converges quickly for most values.
		for range 8 {
			x := sampleCurve(x1, x2, u) - t
			if math.Abs(x) < 1e-7 {
				return sampleCurve(y1, y2, clampUnit(u))
			}
			dx := sampleCurveDerivative(x1, x2, u)
			if math.Abs(dx) < 1e-7 {
				break
			}
			u -= x / dx
		}

		// Fallback to bisection to guarantee a stable solution in [0,1].
		lo, hi := 0.0, 1.0
		u = clampUnit(u)
		for range 12 {
			x := sampleCurve(x1, x2, u) - t
			if math.Abs(x) < 1e-7 {
				break
			}
			if x > 0 {
				hi = u
			} else {
				lo = u
			}
			u = (lo + hi) * 0.5
		}

		return sampleCurve(y1, y2, u)
	}
}

func sampleCurve(a, b, t float64) float64 {
	inv := 1 - t
	return 3*inv*inv*t*a + 3*inv*t*t*b + t*t*t
}

func sampleCurveDerivative(a, b, t float64) float64 {
	inv := 1 - t
	return 3*inv*inv*a + 6*inv*t*(b-a) + 3*t*t*(1-b)
}

func clampUnit(value float64) float64 {
	if value < 0 {
		return 0
	}
	if value > 1 {
		return 1
	}
	return value
}
