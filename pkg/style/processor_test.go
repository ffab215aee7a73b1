package style_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-drift/motion/pkg/errors"
	"github.com/go-drift/motion/pkg/style"
	motiontest "github.com/go-drift/motion/pkg/testing"
)

func TestProcessor_FlushNowAppliesUpdates(t *testing.T) {
	tester := motiontest.NewTester(t)
	box := tester.Surface.Add("box")

	tester.Processor.SubmitUpdate(style.Update{Target: style.Direct(box), Property: "width", Value: "10px"})
	tester.Processor.SubmitUpdate(style.Update{
		Target: style.Direct(box), Property: "opacity", Value: "0.5", Priority: style.PriorityImportant,
	})

	u, r := tester.Processor.Pending()
	assert.Equal(t, 2, u)
	assert.Zero(t, r)

	tester.Processor.FlushNow()

	assert.Equal(t, "10px", tester.Value("box", "width"))
	prop, ok := tester.Surface.Prop("box", "opacity")
	require.True(t, ok)
	assert.Equal(t, style.PriorityImportant, prop.Priority)

	u, r = tester.Processor.Pending()
	assert.Zero(t, u+r)
	assert.Equal(t, 1, tester.Processor.Flushes())
}

func TestProcessor_RemovalsBeforeUpdates(t *testing.T) {
	tester := motiontest.NewTester(t)
	box := tester.Surface.Add("box")

	// Queued update first, removal second: the removal still applies first.
	tester.Processor.SubmitUpdate(style.Update{Target: style.Direct(box), Property: "width", Value: "20px"})
	tester.Processor.SubmitRemoval(style.Removal{Target: style.Direct(box), Property: "width"})
	tester.Processor.FlushNow()

	v, ok := tester.Surface.Value("box", "width")
	assert.True(t, ok, "re-applied property must survive the flush")
	assert.Equal(t, "20px", v)

	ops := tester.Surface.Ops()
	require.Len(t, ops, 2)
	assert.True(t, ops[0].Removed)
	assert.False(t, ops[1].Removed)
}

func TestProcessor_LastWriteWinsByOrder(t *testing.T) {
	tester := motiontest.NewTester(t)
	box := tester.Surface.Add("box")

	for _, v := range []string{"1", "2", "3"} {
		tester.Processor.SubmitUpdate(style.Update{Target: style.Direct(box), Property: "opacity", Value: v})
	}
	tester.Processor.FlushNow()

	assert.Equal(t, "3", tester.Value("box", "opacity"))
	assert.Len(t, tester.Surface.Ops(), 3, "entries are not deduplicated")
}

func TestProcessor_ScheduleFlushCoalesces(t *testing.T) {
	tester := motiontest.NewTester(t)
	box := tester.Surface.Add("box")

	tester.Processor.SubmitUpdate(style.Update{Target: style.Direct(box), Property: "left", Value: "1px"})
	tester.Processor.ScheduleFlush()
	tester.Processor.ScheduleFlush()
	tester.Processor.SubmitUpdate(style.Update{Target: style.Direct(box), Property: "top", Value: "2px"})
	tester.Processor.ScheduleFlush()

	assert.Equal(t, 1, tester.Scheduler.PendingFrames())
	assert.True(t, tester.Processor.FlushScheduled())
	assert.Empty(t, tester.Surface.Ops(), "nothing applies before the frame")

	tester.Advance(16 * time.Millisecond)

	assert.Equal(t, "1px", tester.Value("box", "left"))
	assert.Equal(t, "2px", tester.Value("box", "top"))
	assert.Equal(t, 1, tester.Processor.Flushes())
	assert.False(t, tester.Processor.FlushScheduled())
}

func TestProcessor_FlushNowCancelsScheduledFlush(t *testing.T) {
	tester := motiontest.NewTester(t)
	box := tester.Surface.Add("box")

	tester.Processor.SubmitUpdate(style.Update{Target: style.Direct(box), Property: "left", Value: "1px"})
	tester.Processor.ScheduleFlush()
	tester.Processor.FlushNow()

	assert.Zero(t, tester.Scheduler.PendingFrames())
	assert.Equal(t, "1px", tester.Value("box", "left"))
}

func TestProcessor_SelectorResolvesAtFlushTime(t *testing.T) {
	tester := motiontest.NewTester(t)
	tester.Surface.Add("a", "item")

	tester.Processor.SubmitUpdate(style.Update{Target: style.Select(".item"), Property: "opacity", Value: "1"})
	tester.Surface.Add("b", "item")
	tester.Surface.Add("c", "other")
	tester.Processor.FlushNow()

	assert.Equal(t, "1", tester.Value("a", "opacity"))
	assert.Equal(t, "1", tester.Value("b", "opacity"), "late-joining elements are included")
	assert.Empty(t, tester.Value("c", "opacity"))
}

func TestProcessor_SurfaceFaultSkipsOnlyThatEntry(t *testing.T) {
	tester := motiontest.NewTester(t)
	box := tester.Surface.Add("box")
	tester.Surface.PanicOn("transform")

	tester.Processor.SubmitUpdate(style.Update{Target: style.Direct(box), Property: "transform", Value: "scale(2)"})
	tester.Processor.SubmitUpdate(style.Update{Target: style.Direct(box), Property: "width", Value: "5px"})

	assert.NotPanics(t, tester.Processor.FlushNow)
	assert.Equal(t, "5px", tester.Value("box", "width"))
	assert.Equal(t, []errors.ErrorKind{errors.KindFlush}, tester.Errors.Kinds())
}

func TestProcessor_EmptyFlushIsNoop(t *testing.T) {
	tester := motiontest.NewTester(t)
	tester.Processor.FlushNow()
	assert.Zero(t, tester.Processor.Flushes())
}

func TestTarget(t *testing.T) {
	surface := motiontest.NewMemorySurface()
	box := surface.Add("box", "panel")

	direct := style.Direct(box)
	assert.False(t, direct.IsSelector())
	assert.Equal(t, "#box", direct.String())
	assert.Equal(t, []style.Element{box}, direct.Resolve(surface))

	sel := style.Select(".panel")
	assert.True(t, sel.IsSelector())
	assert.Equal(t, ".panel", sel.Selector())
	assert.Equal(t, []style.Element{box}, sel.Resolve(surface))

	assert.Empty(t, style.Direct(nil).Resolve(surface))
}
