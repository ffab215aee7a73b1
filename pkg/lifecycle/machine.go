// Package lifecycle implements the table-driven state machine that governs an
// animation run.
//
// The machine is the single source of truth for what an animation is doing.
// Controllers read its state and issue events; they never assign state
// directly. The transition table is fixed:
//
//	Idle      + Prepare  -> Preparing
//	Idle      + Start    -> Running
//	Idle      + Error    -> Error
//	Preparing + Start    -> Running
//	Preparing + Cancel   -> Cancelled
//	Preparing + Error    -> Error
//	Running   + Pause    -> Paused
//	Running   + Complete -> Completed
//	Running   + Cancel   -> Cancelled
//	Running   + Error    -> Error
//	Paused    + Resume   -> Running
//	Paused    + Cancel   -> Cancelled
//	Paused    + Error    -> Error
//	Completed + Reset    -> Idle
//	Cancelled + Reset    -> Idle
//	Error     + Reset    -> Idle
//
// Any other (state, event) pair is rejected without changing state.
package lifecycle

import (
	"fmt"
	"log/slog"

	"github.com/go-drift/motion/pkg/errors"
)

// State is a lifecycle state of an animation run.
type State int

const (
	// StateIdle means the run has not started, or was reset.
	StateIdle State = iota
	// StatePreparing means the run is waiting out its start delay.
	StatePreparing
	// StateRunning means frames are being computed.
	StateRunning
	// StatePaused means the run is suspended with elapsed time frozen.
	StatePaused
	// StateCompleted means the run reached the end of its last iteration.
	StateCompleted
	// StateCancelled means the run was stopped before completing.
	StateCancelled
	// StateError means a frame fault ended the run.
	StateError
)

// String returns a human-readable representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePreparing:
		return "preparing"
	case StateRunning:
		return "running"
	case StatePaused:
		return "paused"
	case StateCompleted:
		return "completed"
	case StateCancelled:
		return "cancelled"
	case StateError:
		return "error"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// IsTerminal reports whether the state can only be left through Reset.
func (s State) IsTerminal() bool {
	return s == StateCompleted || s == StateCancelled || s == StateError
}

// IsActive reports whether the run is in flight (preparing, running or paused).
func (s State) IsActive() bool {
	return s == StatePreparing || s == StateRunning || s == StatePaused
}

// Event drives a transition.
type Event int

const (
	EventPrepare Event = iota
	EventStart
	EventPause
	EventResume
	EventComplete
	EventCancel
	EventError
	EventReset
)

// String returns a human-readable representation of the event.
func (e Event) String() string {
	switch e {
	case EventPrepare:
		return "prepare"
	case EventStart:
		return "start"
	case EventPause:
		return "pause"
	case EventResume:
		return "resume"
	case EventComplete:
		return "complete"
	case EventCancel:
		return "cancel"
	case EventError:
		return "error"
	case EventReset:
		return "reset"
	default:
		return fmt.Sprintf("Event(%d)", int(e))
	}
}

// Transition is one row of the transition table.
type Transition struct {
	From  State
	Event Event
	To    State
}

type key struct {
	state State
	event Event
}

var table = []Transition{
	{StateIdle, EventPrepare, StatePreparing},
	{StateIdle, EventStart, StateRunning},
	{StateIdle, EventError, StateError},
	{StatePreparing, EventStart, StateRunning},
	{StatePreparing, EventCancel, StateCancelled},
	{StatePreparing, EventError, StateError},
	{StateRunning, EventPause, StatePaused},
	{StateRunning, EventComplete, StateCompleted},
	{StateRunning, EventCancel, StateCancelled},
	{StateRunning, EventError, StateError},
	{StatePaused, EventResume, StateRunning},
	{StatePaused, EventCancel, StateCancelled},
	{StatePaused, EventError, StateError},
	{StateCompleted, EventReset, StateIdle},
	{StateCancelled, EventReset, StateIdle},
	{StateError, EventReset, StateIdle},
}

var rows = func() map[key]State {
	m := make(map[key]State, len(table))
	for _, t := range table {
		m[key{t.From, t.Event}] = t.To
	}
	return m
}()

// Transitions returns a copy of the transition table.
func Transitions() []Transition {
	out := make([]Transition, len(table))
	copy(out, table)
	return out
}

// Observer is notified after every successful transition with the state
// that was left and the event that caused the change.
type Observer func(prev State, ev Event)

type observerEntry struct {
	id int
	fn Observer
}

// Machine is a lifecycle state machine. It is not safe for concurrent use;
// all calls are expected on the runtime's single logical thread.
type Machine struct {
	name       string
	state      State
	observers  []observerEntry
	nextID     int
	rejections int
	logger     *slog.Logger
	handler    errors.ErrorHandler
}

// Option configures a Machine.
type Option func(*Machine)

// WithName labels log records and error reports.
func WithName(name string) Option {
	return func(m *Machine) { m.name = name }
}

// WithLogger sets the logger used for rejected transitions.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Machine) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithErrorHandler sets where observer faults are reported.
func WithErrorHandler(h errors.ErrorHandler) Option {
	return func(m *Machine) { m.handler = h }
}

// NewMachine creates a machine in StateIdle.
func NewMachine(opts ...Option) *Machine {
	m := &Machine{
		state:  StateIdle,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// State returns the current state.
func (m *Machine) State() State {
	return m.state
}

// IsTerminal reports whether the current state is terminal.
func (m *Machine) IsTerminal() bool {
	return m.state.IsTerminal()
}

// IsActive reports whether the current state is preparing, running or paused.
func (m *Machine) IsActive() bool {
	return m.state.IsActive()
}

// Rejections returns how many transitions have been rejected.
func (m *Machine) Rejections() int {
	return m.rejections
}

// CanTransition reports whether ev is legal in the current state.
func (m *Machine) CanTransition(ev Event) bool {
	_, ok := rows[key{m.state, ev}]
	return ok
}

// Transition applies ev. It returns false and leaves the state unchanged when
// the table has no row for the current state and ev.
func (m *Machine) Transition(ev Event) bool {
	return m.TryTransition(ev) == nil
}

// TryTransition is Transition returning the rejection instead of a bool. A
// rejected event yields a KindTransition *errors.MotionError wrapping
// errors.ErrRejectedTransition; it is also logged at warn level.
func (m *Machine) TryTransition(ev Event) error {
	to, ok := rows[key{m.state, ev}]
	if !ok {
		m.rejections++
		err := &errors.MotionError{
			Op:         "lifecycle.Machine.Transition",
			Kind:       errors.KindTransition,
			Err:        fmt.Errorf("%w: %s in %s", errors.ErrRejectedTransition, ev, m.state),
			Controller: m.name,
			State:      m.state.String(),
		}
		m.logger.Warn("rejected transition",
			slog.String("machine", m.name),
			slog.String("kind", err.Kind.String()),
			slog.String("state", m.state.String()),
			slog.String("event", ev.String()),
			slog.Any("error", err.Err))
		return err
	}
	prev := m.state
	m.state = to
	m.notify(prev, ev)
	return nil
}

// Reset forces the machine back to StateIdle regardless of the table and
// notifies observers with EventReset.
func (m *Machine) Reset() {
	prev := m.state
	m.state = StateIdle
	m.notify(prev, EventReset)
}

// OnStateChange registers an observer and returns a function that removes it.
func (m *Machine) OnStateChange(fn Observer) func() {
	id := m.nextID
	m.nextID++
	m.observers = append(m.observers, observerEntry{id: id, fn: fn})
	return func() {
		for i, o := range m.observers {
			if o.id == id {
				m.observers = append(m.observers[:i:i], m.observers[i+1:]...)
				return
			}
		}
	}
}

func (m *Machine) notify(prev State, ev Event) {
	// Snapshot so observers may unsubscribe while being notified.
	observers := make([]observerEntry, len(m.observers))
	copy(observers, m.observers)
	for _, o := range observers {
		m.call(o.fn, prev, ev)
	}
}

func (m *Machine) call(fn Observer, prev State, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			errors.Report(m.handler, &errors.MotionError{
				Op:         "lifecycle.Machine.notify",
				Kind:       errors.KindObserver,
				Err:        errors.FromPanic("lifecycle.Observer", r),
				Controller: m.name,
				State:      m.state.String(),
			})
		}
	}()
	fn(prev, ev)
}
