package animation

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// numeric matches a leading number and captures the rest as its suffix,
// e.g. "12.5px" -> ("12.5", "px").
var numeric = regexp.MustCompile(`^([-+]?(?:\d+\.?\d*|\.\d+)(?:[eE][-+]?\d+)?)(.*)$`)

// Tween interpolates between two property values.
//
// Values that are numbers sharing the same non-numeric suffix ("0" -> "100",
// "10px" -> "20px") interpolate linearly, rounded to two decimals. Anything
// else, including colors, switches discretely from From to To at progress
// 0.5. Color interpolation is a known gap: the color space was never pinned
// down, so colors keep the discrete behaviour.
type Tween struct {
	From string
	To   string

	numeric  bool
	from, to float64
	suffix   string
}

// NewTween parses both ends once so per-frame evaluation does no parsing.
func NewTween(from, to string) Tween {
	tw := Tween{From: from, To: to}
	a, sa, okA := parseNumeric(from)
	b, sb, okB := parseNumeric(to)
	if okA && okB && sa == sb {
		tw.numeric = true
		tw.from, tw.to, tw.suffix = a, b, sa
	}
	return tw
}

// Numeric reports whether the tween interpolates continuously.
func (tw Tween) Numeric() bool {
	return tw.numeric
}

// Evaluate returns the value at progress t.
func (tw Tween) Evaluate(t float64) string {
	if !tw.numeric {
		if t < 0.5 {
			return tw.From
		}
		return tw.To
	}
	return formatNumber(round2(LerpFloat64(tw.from, tw.to, t))) + tw.suffix
}

// Interpolate evaluates the value between from and to at progress t.
func Interpolate(from, to string, t float64) string {
	return NewTween(from, to).Evaluate(t)
}

// LerpFloat64 linearly interpolates between two float64 values.
func LerpFloat64(a, b float64, t float64) float64 {
	return a + (b-a)*t
}

func parseNumeric(v string) (float64, string, bool) {
	m := numeric.FindStringSubmatch(strings.TrimSpace(v))
	if m == nil {
		return 0, "", false
	}
	f, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, "", false
	}
	return f, strings.TrimSpace(m[2]), true
}

func round2(v float64) float64 {
	r := math.Round(v*100) / 100
	if r == 0 {
		// Avoid "-0".
		return 0
	}
	return r
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
