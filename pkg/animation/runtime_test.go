package animation_test

import (
	"context"
	"testing"
	"time"

	"github.com/neilotoole/slogt"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-drift/motion/pkg/animation"
	"github.com/go-drift/motion/pkg/lifecycle"
	"github.com/go-drift/motion/pkg/style"
	motiontest "github.com/go-drift/motion/pkg/testing"
)

func TestRuntime_RunsControllerToCompletion(t *testing.T) {
	surface := motiontest.NewMemorySurface()
	box := surface.Add("box")
	reg := prometheus.NewRegistry()
	rt := animation.NewRuntime(surface, animation.RuntimeConfig{
		FrameInterval: time.Millisecond,
		Logger:        slogt.New(t),
		Registerer:    reg,
	})

	ctx, cancel := context.WithCancel(context.Background())
	runErr := make(chan error, 1)
	go func() { runErr <- rt.Run(ctx) }()

	var c *animation.Controller
	require.True(t, rt.Do(func() {
		var err error
		c, err = rt.NewController(animation.Options{Duration: 20 * time.Millisecond}, animation.WithName("runtime"))
		assert.NoError(t, err)
		c.RegisterStyleUpdate(style.Direct(box), "width", "0px", "100px")
		c.Start()
	}))

	require.Eventually(t, func() bool {
		var state lifecycle.State
		rt.Do(func() { state = c.State() })
		return state == lifecycle.StateCompleted
	}, 2*time.Second, 5*time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-runErr, context.Canceled)

	v, ok := surface.Value("box", "width")
	require.True(t, ok)
	assert.Equal(t, "100px", v, "pending mutations flush before Run returns")
	assert.Equal(t, 1.0, counterValue(t, reg, "motion_runs_completed_total"))

	assert.False(t, rt.Do(func() {}), "Do after stop")
}
