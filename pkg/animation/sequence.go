package animation

import (
	"fmt"
	"time"

	"github.com/go-drift/motion/pkg/errors"
	"github.com/go-drift/motion/pkg/lifecycle"
)

// SequenceOptions configure a Sequence.
type SequenceOptions struct {
	// Loop restarts from the first stage after the last completes.
	Loop bool
}

// Sequence runs controllers one after another. It advances when the current
// stage's state machine reaches completed, starting the next stage from
// inside that transition. The next stage's OnStart therefore runs before the
// finished stage's OnComplete callback. A stage that is cancelled or fails
// stops the sequence.
type Sequence struct {
	stages    []*Controller
	durations []time.Duration
	total     time.Duration
	opts      SequenceOptions

	current  int
	active   bool
	finished bool
	loops    int

	onStage    []func(index int)
	onComplete []func()
	unsubs     []func()
}

// NewSequence builds a sequence over stages. Every stage needs a finite
// duration.
func NewSequence(stages []*Controller, opts SequenceOptions) (*Sequence, error) {
	if len(stages) == 0 {
		return nil, fmt.Errorf("%w: sequence needs at least one stage", errors.ErrInvalidOptions)
	}
	s := &Sequence{
		stages:    stages,
		durations: make([]time.Duration, len(stages)),
		opts:      opts,
	}
	for i, c := range stages {
		d, finite := c.Options().TotalDuration()
		if !finite {
			return nil, fmt.Errorf("%w: sequence stage %d repeats forever", errors.ErrInvalidOptions, i)
		}
		s.durations[i] = d
		s.total += d
	}
	for i, c := range stages {
		s.unsubs = append(s.unsubs, c.OnStateChange(func(lifecycle.State, lifecycle.Event) {
			s.stageChanged(i)
		}))
	}
	return s, nil
}

// Stages returns the staged controllers.
func (s *Sequence) Stages() []*Controller {
	return s.stages
}

// Current returns the index of the running stage.
func (s *Sequence) Current() int {
	return s.current
}

// Active reports whether the sequence is between Start and its end.
func (s *Sequence) Active() bool {
	return s.active
}

// Finished reports whether the last stage completed without looping.
func (s *Sequence) Finished() bool {
	return s.finished
}

// Loops returns how many times a looping sequence has wrapped around.
func (s *Sequence) Loops() int {
	return s.loops
}

// TotalDuration returns the summed active duration of all stages.
func (s *Sequence) TotalDuration() time.Duration {
	return s.total
}

// OnStageChange registers fn to run whenever a stage starts.
func (s *Sequence) OnStageChange(fn func(index int)) {
	s.onStage = append(s.onStage, fn)
}

// OnComplete registers fn to run when the last stage of a non-looping
// sequence completes.
func (s *Sequence) OnComplete(fn func()) {
	s.onComplete = append(s.onComplete, fn)
}

// Start runs the first stage. Rejected while the sequence is active.
func (s *Sequence) Start() bool {
	if s.active {
		return false
	}
	s.active = true
	s.finished = false
	s.loops = 0
	return s.startStage(0)
}

// Pause pauses the current stage.
func (s *Sequence) Pause() bool {
	if !s.active {
		return false
	}
	return s.stages[s.current].Pause()
}

// Resume resumes the current stage.
func (s *Sequence) Resume() bool {
	if !s.active {
		return false
	}
	return s.stages[s.current].Resume()
}

// Cancel cancels the current stage, which stops the sequence.
func (s *Sequence) Cancel() {
	if !s.active {
		return
	}
	s.stages[s.current].Cancel()
	s.active = false
}

// Dispose stops observing the stages and disposes them.
func (s *Sequence) Dispose() {
	for _, unsub := range s.unsubs {
		unsub()
	}
	s.unsubs = nil
	s.active = false
	for _, c := range s.stages {
		c.Dispose()
	}
	s.onStage = nil
	s.onComplete = nil
}

// Progress is the completed stages' durations plus the elapsed time within
// the current stage, over the total duration.
func (s *Sequence) Progress() float64 {
	if s.finished {
		return 1
	}
	if s.total <= 0 {
		return 0
	}
	var done time.Duration
	for i := 0; i < s.current; i++ {
		done += s.durations[i]
	}
	cur := s.stages[s.current]
	switch cur.State() {
	case lifecycle.StateCompleted:
		done += s.durations[s.current]
	case lifecycle.StateRunning, lifecycle.StatePaused:
		done += min(cur.Elapsed(), s.durations[s.current])
	}
	return float64(done) / float64(s.total)
}

func (s *Sequence) startStage(i int) bool {
	s.current = i
	stage := s.stages[i]
	if st := stage.State(); st == lifecycle.StateCancelled || st == lifecycle.StateError {
		stage.Reset()
	}
	if !stage.Start() {
		s.active = false
		return false
	}
	for _, fn := range s.onStage {
		fn(i)
	}
	return true
}

func (s *Sequence) stageChanged(i int) {
	if !s.active || i != s.current {
		return
	}
	switch s.stages[i].State() {
	case lifecycle.StateCompleted:
		s.advance()
	case lifecycle.StateCancelled, lifecycle.StateError:
		s.active = false
	}
}

func (s *Sequence) advance() {
	next := s.current + 1
	if next < len(s.stages) {
		s.startStage(next)
		return
	}
	if s.opts.Loop {
		s.loops++
		s.startStage(0)
		return
	}
	s.active = false
	s.finished = true
	for _, fn := range s.onComplete {
		fn()
	}
}
