// Package testing provides deterministic test scaffolding for the motion
// runtime.
//
// # Quick Start
//
// Create a tester, build a controller on its scheduler and processor, and
// advance virtual time:
//
//	func TestFade(t *testing.T) {
//	    tester := motiontest.NewTester(t)
//	    tester.Surface.Add("box")
//
//	    c, _ := animation.NewController(animation.Options{Duration: time.Second},
//	        tester.Scheduler, tester.Processor)
//	    c.RegisterStyleUpdate(style.Select("#box"), "opacity", "0", "1")
//	    c.Start()
//
//	    tester.AdvanceAndFlush(500 * time.Millisecond)
//	    if got := tester.Value("box", "opacity"); got != "0.5" {
//	        t.Errorf("opacity = %q, want 0.5", got)
//	    }
//	}
//
// # Surfaces
//
// [MemorySurface] is an in-memory rendering surface with "*", "#id" and
// ".class" selectors and a write log, usable outside tests as well.
//
// # Snapshots
//
// [MemorySurface.CaptureSnapshot] records applied properties and the write
// log. Compare against a golden file with [Snapshot.MatchesFile]; set
// MOTION_UPDATE_SNAPSHOTS=1 to rewrite the files.
//
// # Import Alias
//
// Since this package has the same name as the standard library testing
// package, import it with an alias:
//
//	import motiontest "github.com/go-drift/motion/pkg/testing"
package testing
