package cmd

import (
	"fmt"
	"strings"

	"github.com/go-drift/motion/pkg/animation"
	"github.com/go-drift/motion/pkg/config"
	"github.com/go-drift/motion/pkg/lifecycle"
)

// playback adapts a controller, stagger or sequence to one control surface.
// Every method must run on the runtime loop.
type playback struct {
	kind     string
	name     string
	start    func() bool
	restart  func() bool
	pause    func()
	resume   func()
	cancel   func()
	dispose  func()
	progress func() float64
	status   func() string
	// onDone registers a callback for natural completion or failure. fn
	// runs at most once.
	onDone func(fn func(err error))
}

// doneOnce wraps fn so only the first outcome is delivered.
func doneOnce(fn func(error)) func(error) {
	fired := false
	return func(err error) {
		if fired {
			return
		}
		fired = true
		fn(err)
	}
}

// resolvePlayback finds name among the preset's animations, staggers and
// sequences, in that order.
func resolvePlayback(b *config.Builder, p *config.Preset, name string) (*playback, error) {
	if _, ok := p.Animations[name]; ok {
		c, err := b.Controller(name)
		if err != nil {
			return nil, err
		}
		return controllerPlayback(name, c), nil
	}
	if _, ok := p.Staggers[name]; ok {
		s, err := b.Stagger(name)
		if err != nil {
			return nil, err
		}
		return staggerPlayback(name, s), nil
	}
	if _, ok := p.Sequences[name]; ok {
		s, err := b.Sequence(name)
		if err != nil {
			return nil, err
		}
		return sequencePlayback(name, s), nil
	}
	animations, staggers, sequences := p.Names()
	all := append(append(animations, staggers...), sequences...)
	return nil, fmt.Errorf("no animation, stagger or sequence named %q (have: %s)", name, strings.Join(all, ", "))
}

func controllerPlayback(name string, c *animation.Controller) *playback {
	return &playback{
		kind:  "animation",
		name:  name,
		start: c.Start,
		restart: func() bool {
			c.Cancel()
			if c.State().IsTerminal() {
				c.Reset()
			}
			return c.Start()
		},
		pause:    func() { c.Pause() },
		resume:   func() { c.Resume() },
		cancel:   func() { c.Cancel() },
		dispose:  c.Dispose,
		progress: c.Progress,
		status:   func() string { return c.State().String() },
		onDone: func(fn func(error)) {
			fn = doneOnce(fn)
			c.OnStateChange(func(lifecycle.State, lifecycle.Event) {
				switch c.State() {
				case lifecycle.StateCompleted:
					fn(nil)
				case lifecycle.StateError:
					fn(fmt.Errorf("animation %q failed", name))
				}
			})
		},
	}
}

func staggerPlayback(name string, s *animation.Stagger) *playback {
	return &playback{
		kind:  "stagger",
		name:  name,
		start: s.Start,
		restart: func() bool {
			s.Cancel()
			return s.Start()
		},
		pause:    s.Pause,
		resume:   s.Resume,
		cancel:   s.Cancel,
		dispose:  s.Dispose,
		progress: s.Progress,
		status: func() string {
			if s.Completed() {
				return "completed"
			}
			return fmt.Sprintf("%d items", len(s.Items()))
		},
		onDone: func(fn func(error)) {
			fn = doneOnce(fn)
			s.OnComplete(func() { fn(nil) })
			for i, item := range s.Items() {
				item.OnStateChange(func(lifecycle.State, lifecycle.Event) {
					switch item.State() {
					case lifecycle.StateError:
						fn(fmt.Errorf("stagger %q item %d failed", name, i))
					case lifecycle.StateCancelled:
						fn(fmt.Errorf("stagger %q item %d cancelled", name, i))
					}
				})
			}
		},
	}
}

func sequencePlayback(name string, s *animation.Sequence) *playback {
	return &playback{
		kind:  "sequence",
		name:  name,
		start: s.Start,
		restart: func() bool {
			s.Cancel()
			return s.Start()
		},
		pause:    func() { s.Pause() },
		resume:   func() { s.Resume() },
		cancel:   s.Cancel,
		dispose:  s.Dispose,
		progress: s.Progress,
		status: func() string {
			if s.Finished() {
				return "completed"
			}
			return fmt.Sprintf("stage %d/%d loop %d", s.Current()+1, len(s.Stages()), s.Loops())
		},
		onDone: func(fn func(error)) {
			fn = doneOnce(fn)
			s.OnComplete(func() { fn(nil) })
			// The sequence observes its stages first, so by now it has
			// already stopped.
			for i, stage := range s.Stages() {
				stage.OnStateChange(func(lifecycle.State, lifecycle.Event) {
					state := stage.State()
					if s.Active() || s.Finished() {
						return
					}
					if state == lifecycle.StateCancelled || state == lifecycle.StateError {
						fn(fmt.Errorf("sequence %q stopped: stage %d %s", name, i, state))
					}
				})
			}
		},
	}
}
