package timing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-drift/motion/pkg/errors"
)

func TestVirtualScheduler_AdvanceRunsOneFrameRound(t *testing.T) {
	s := NewVirtualScheduler()

	var stamps []time.Duration
	s.ScheduleFrame(func(ts time.Duration) { stamps = append(stamps, ts) })
	s.ScheduleFrame(func(ts time.Duration) { stamps = append(stamps, ts+1) })

	s.Advance(500 * time.Millisecond)

	assert.Equal(t, 500*time.Millisecond, s.Now())
	assert.Equal(t, []time.Duration{500 * time.Millisecond, 500*time.Millisecond + 1}, stamps)
	assert.Zero(t, s.PendingFrames())
	assert.Equal(t, 1, s.Rounds())
}

func TestVirtualScheduler_FramesScheduledDuringRoundWait(t *testing.T) {
	s := NewVirtualScheduler()

	calls := 0
	var loop FrameCallback
	loop = func(time.Duration) {
		calls++
		s.ScheduleFrame(loop)
	}
	s.ScheduleFrame(loop)

	s.Frame()
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, s.PendingFrames())

	s.Advance(16 * time.Millisecond)
	assert.Equal(t, 2, calls)
}

func TestVirtualScheduler_CancelledFrameNeverFires(t *testing.T) {
	s := NewVirtualScheduler()

	fired := false
	var second Handle
	s.ScheduleFrame(func(time.Duration) { s.CancelFrame(second) })
	second = s.ScheduleFrame(func(time.Duration) { fired = true })

	s.Advance(time.Millisecond)
	assert.False(t, fired, "cancellation within the same round is authoritative")

	s.CancelFrame(0)
	s.CancelFrame(second)
}

func TestVirtualScheduler_TimersFireInDueOrder(t *testing.T) {
	s := NewVirtualScheduler()

	var got []string
	var at []time.Duration
	s.ScheduleAfter(func() { got = append(got, "c"); at = append(at, s.Now()) }, 300*time.Millisecond)
	s.ScheduleAfter(func() { got = append(got, "a"); at = append(at, s.Now()) }, 100*time.Millisecond)
	s.ScheduleAfter(func() { got = append(got, "b"); at = append(at, s.Now()) }, 100*time.Millisecond)
	late := s.ScheduleAfter(func() { got = append(got, "late") }, time.Second)

	s.Advance(400 * time.Millisecond)

	assert.Equal(t, []string{"a", "b", "c"}, got)
	assert.Equal(t, []time.Duration{100 * time.Millisecond, 100 * time.Millisecond, 300 * time.Millisecond}, at)
	assert.Equal(t, 1, s.PendingTimers())

	s.CancelScheduled(late)
	s.Advance(time.Second)
	assert.NotContains(t, got, "late")
}

func TestVirtualScheduler_TimerScheduledByTimerWithinWindow(t *testing.T) {
	s := NewVirtualScheduler()

	var at time.Duration
	s.ScheduleAfter(func() {
		s.ScheduleAfter(func() { at = s.Now() }, 50*time.Millisecond)
	}, 100*time.Millisecond)

	s.Advance(200 * time.Millisecond)
	assert.Equal(t, 150*time.Millisecond, at)
}

func TestVirtualScheduler_TimerThenFrame(t *testing.T) {
	s := NewVirtualScheduler()

	var frameAt time.Duration = -1
	s.ScheduleAfter(func() {
		s.ScheduleFrame(func(ts time.Duration) { frameAt = ts })
	}, 100*time.Millisecond)

	s.Advance(250 * time.Millisecond)
	assert.Equal(t, 250*time.Millisecond, frameAt)
}

func TestVirtualScheduler_Step(t *testing.T) {
	s := NewVirtualScheduler()

	var stamps []time.Duration
	var loop FrameCallback
	loop = func(ts time.Duration) {
		stamps = append(stamps, ts)
		s.ScheduleFrame(loop)
	}
	s.ScheduleFrame(loop)

	s.Step(50*time.Millisecond, 20*time.Millisecond)
	assert.Equal(t, []time.Duration{20 * time.Millisecond, 40 * time.Millisecond, 50 * time.Millisecond}, stamps)
}

func TestVirtualScheduler_PanicsAreReported(t *testing.T) {
	s := NewVirtualScheduler()
	var reported []*errors.PanicError
	s.SetErrorHandler(panicRecorder(func(err *errors.PanicError) { reported = append(reported, err) }))

	after := false
	s.ScheduleFrame(func(time.Duration) { panic("frame boom") })
	s.ScheduleFrame(func(time.Duration) { after = true })
	s.Advance(time.Millisecond)

	require.Len(t, reported, 1)
	assert.Equal(t, "frame boom", reported[0].Value)
	assert.True(t, after)
}

type panicRecorder func(*errors.PanicError)

func (panicRecorder) HandleError(*errors.MotionError) {}

func (f panicRecorder) HandlePanic(err *errors.PanicError) { f(err) }
