package animation_test

import (
	"fmt"
	"time"

	"github.com/go-drift/motion/pkg/animation"
	"github.com/go-drift/motion/pkg/style"
	motiontest "github.com/go-drift/motion/pkg/testing"
	"github.com/go-drift/motion/pkg/timing"
)

// This example drives a controller with a virtual scheduler and reads the
// applied values back from an in-memory surface.
func ExampleController() {
	sched := timing.NewVirtualScheduler()
	surface := motiontest.NewMemorySurface()
	box := surface.Add("box")
	proc := style.NewProcessor(surface, sched)

	c, err := animation.NewController(animation.Options{Duration: time.Second}, sched, proc)
	if err != nil {
		panic(err)
	}
	c.RegisterStyleUpdate(style.Direct(box), "width", "0px", "100px")
	c.Start()

	for range 4 {
		sched.Advance(250 * time.Millisecond)
		proc.FlushNow()
		width, _ := surface.Value("box", "width")
		fmt.Println(c.State(), width)
	}

	// Output:
	// running 25px
	// running 50px
	// running 75px
	// completed 100px
}

// This example shows the delays a stagger assigns to its items.
func ExampleStaggerDelays() {
	delays := animation.StaggerDelays(5, animation.StaggerConfig{
		Delay:   100 * time.Millisecond,
		Reverse: true,
	})
	fmt.Println(delays)

	// Output:
	// [400ms 300ms 200ms 100ms 0s]
}

// This example chains two controllers into a sequence.
func ExampleSequence() {
	sched := timing.NewVirtualScheduler()
	surface := motiontest.NewMemorySurface()
	box := surface.Add("box")
	proc := style.NewProcessor(surface, sched)

	fadeIn, _ := animation.NewController(animation.Options{Duration: 500 * time.Millisecond}, sched, proc)
	fadeIn.RegisterStyleUpdate(style.Direct(box), "opacity", "0", "1")
	slide, _ := animation.NewController(animation.Options{Duration: 300 * time.Millisecond}, sched, proc)
	slide.RegisterStyleUpdate(style.Direct(box), "left", "0px", "40px")

	seq, _ := animation.NewSequence([]*animation.Controller{fadeIn, slide}, animation.SequenceOptions{})
	seq.OnComplete(func() { fmt.Println("done") })
	seq.Start()

	sched.Advance(500 * time.Millisecond)
	sched.Advance(150 * time.Millisecond)
	fmt.Printf("%.4f\n", seq.Progress())
	sched.Advance(150 * time.Millisecond)

	// Output:
	// 0.8125
	// done
}
