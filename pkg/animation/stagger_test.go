package animation_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/neilotoole/slogt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-drift/motion/pkg/animation"
	"github.com/go-drift/motion/pkg/errors"
	"github.com/go-drift/motion/pkg/lifecycle"
	"github.com/go-drift/motion/pkg/style"
	motiontest "github.com/go-drift/motion/pkg/testing"
)

func ms(values ...int) []time.Duration {
	out := make([]time.Duration, len(values))
	for i, v := range values {
		out[i] = time.Duration(v) * time.Millisecond
	}
	return out
}

func TestStaggerDelays(t *testing.T) {
	tests := []struct {
		name  string
		count int
		cfg   animation.StaggerConfig
		want  []time.Duration
	}{
		{
			name:  "linear",
			count: 5,
			cfg:   animation.StaggerConfig{Delay: 100 * time.Millisecond, Easing: "linear"},
			want:  ms(0, 100, 200, 300, 400),
		},
		{
			name:  "reversed",
			count: 5,
			cfg:   animation.StaggerConfig{Delay: 100 * time.Millisecond, Reverse: true},
			want:  ms(400, 300, 200, 100, 0),
		},
		{
			name:  "eased",
			count: 5,
			cfg:   animation.StaggerConfig{Delay: 100 * time.Millisecond, Easing: "ease-in"},
			want:  ms(0, 25, 100, 225, 400),
		},
		{
			name:  "capped span",
			count: 5,
			cfg:   animation.StaggerConfig{Delay: 100 * time.Millisecond, MaxSpan: 200 * time.Millisecond},
			want:  ms(0, 50, 100, 150, 200),
		},
		{
			name:  "cap above span is ignored",
			count: 3,
			cfg:   animation.StaggerConfig{Delay: 100 * time.Millisecond, MaxSpan: time.Second},
			want:  ms(0, 100, 200),
		},
		{
			name:  "single item",
			count: 1,
			cfg:   animation.StaggerConfig{Delay: 100 * time.Millisecond, Easing: "ease-out"},
			want:  ms(0),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, animation.StaggerDelays(tt.count, tt.cfg))
		})
	}
	assert.Nil(t, animation.StaggerDelays(0, animation.StaggerConfig{}))
}

func buildStagger(t *testing.T, tester *motiontest.Tester, count int, cfg animation.StaggerConfig) *animation.Stagger {
	t.Helper()
	s, err := animation.BuildStagger(count, animation.Options{Duration: 100 * time.Millisecond}, cfg,
		tester.Scheduler, tester.Processor,
		func(i int, c *animation.Controller) {
			node := tester.Surface.Add(fmt.Sprintf("item%d", i), "item")
			c.RegisterStyleUpdate(style.Direct(node), "opacity", "0", "1")
		},
		animation.WithLogger(slogt.New(t)),
		animation.WithErrorHandler(tester.Errors),
	)
	require.NoError(t, err)
	return s
}

func TestStagger_CompletesOnceWhenAllItemsFinish(t *testing.T) {
	tester := motiontest.NewTester(t)
	s := buildStagger(t, tester, 3, animation.StaggerConfig{Delay: 50 * time.Millisecond})

	var completions int
	s.OnComplete(func() { completions++ })

	items := s.Items()
	require.Len(t, items, 3)
	assert.Equal(t, 100*time.Millisecond, items[2].Options().Delay)

	require.True(t, s.Start())
	tester.Scheduler.Step(190*time.Millisecond, 10*time.Millisecond)

	assert.False(t, s.Completed())
	assert.InDeltaSlice(t, []float64{1, 1, 0.9}, s.Progresses(), 1e-9)
	assert.InDelta(t, 2.9/3, s.Progress(), 1e-9)

	tester.Advance(10 * time.Millisecond)
	assert.True(t, s.Completed())
	assert.Equal(t, 1, completions)

	tester.PumpAndSettle(time.Second)
	assert.Equal(t, 1, completions)
}

func TestStagger_AlternatingItemsCompleteAfterLastIteration(t *testing.T) {
	tester := motiontest.NewTester(t)
	s, err := animation.BuildStagger(2,
		animation.Options{Duration: 100 * time.Millisecond, Iterations: 2, Alternate: true},
		animation.StaggerConfig{}, tester.Scheduler, tester.Processor, nil,
		animation.WithLogger(slogt.New(t)))
	require.NoError(t, err)

	var completions int
	s.OnComplete(func() { completions++ })
	require.True(t, s.Start())

	// The odd iteration starts at the far end, so progress reads 1 here.
	tester.Advance(100 * time.Millisecond)
	assert.InDeltaSlice(t, []float64{1, 1}, s.Progresses(), 1e-9)
	for _, c := range s.Items() {
		assert.Equal(t, lifecycle.StateRunning, c.State())
	}
	assert.False(t, s.Completed())
	assert.Equal(t, 0, completions)

	tester.Advance(100 * time.Millisecond)
	assert.True(t, s.Completed())
	assert.Equal(t, 1, completions)
}

func TestStagger_OvershootingCurveWaitsForCompletion(t *testing.T) {
	tester := motiontest.NewTester(t)
	s, err := animation.BuildStagger(1,
		animation.Options{Duration: 100 * time.Millisecond, Easing: "ease-out-back"},
		animation.StaggerConfig{}, tester.Scheduler, tester.Processor, nil)
	require.NoError(t, err)
	require.True(t, s.Start())

	tester.Advance(60 * time.Millisecond)
	require.Greater(t, s.Progress(), 1.0)
	assert.False(t, s.Completed())

	tester.Advance(40 * time.Millisecond)
	assert.True(t, s.Completed())
}

func TestStagger_ReverseStartsLastItemFirst(t *testing.T) {
	tester := motiontest.NewTester(t)
	s := buildStagger(t, tester, 3, animation.StaggerConfig{Delay: 50 * time.Millisecond, Reverse: true})

	s.Start()
	items := s.Items()
	assert.Equal(t, lifecycle.StatePreparing, items[0].State())
	assert.Equal(t, lifecycle.StatePreparing, items[1].State())
	assert.Equal(t, lifecycle.StateRunning, items[2].State())
}

func TestStagger_PauseResumeCancel(t *testing.T) {
	tester := motiontest.NewTester(t)
	s := buildStagger(t, tester, 2, animation.StaggerConfig{Delay: 50 * time.Millisecond})

	s.Start()
	tester.Advance(60 * time.Millisecond)
	s.Pause()
	for _, c := range s.Items() {
		assert.Equal(t, lifecycle.StatePaused, c.State())
	}

	s.Resume()
	for _, c := range s.Items() {
		assert.Equal(t, lifecycle.StateRunning, c.State())
	}

	s.Cancel()
	for _, c := range s.Items() {
		assert.Equal(t, lifecycle.StateCancelled, c.State())
	}
	assert.False(t, s.Completed())
}

func TestStagger_Restart(t *testing.T) {
	tester := motiontest.NewTester(t)
	s := buildStagger(t, tester, 2, animation.StaggerConfig{Delay: 50 * time.Millisecond})

	var completions int
	s.OnComplete(func() { completions++ })

	s.Start()
	tester.PumpAndSettle(time.Second)
	require.Equal(t, 1, completions)

	require.True(t, s.Start())
	assert.False(t, s.Completed(), "a restart must not complete on stale progress")
	tester.PumpAndSettle(time.Second)
	assert.Equal(t, 2, completions)
}

func TestBuildStagger_Validation(t *testing.T) {
	tester := motiontest.NewTester(t)

	_, err := animation.BuildStagger(0, animation.Options{Duration: time.Second}, animation.StaggerConfig{},
		tester.Scheduler, tester.Processor, nil)
	assert.ErrorIs(t, err, errors.ErrInvalidOptions)

	_, err = animation.BuildStagger(2, animation.Options{}, animation.StaggerConfig{},
		tester.Scheduler, tester.Processor, nil)
	assert.ErrorIs(t, err, errors.ErrInvalidOptions)
}
