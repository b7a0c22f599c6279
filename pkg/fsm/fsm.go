package fsm

import (
	"fmt"
	"sync"

	"github.com/cuemby/protobase/pkg/types"
)

// State is one named state of a Machine.
type State string

// Event is a named transition input.
type Event string

// Lifecycle states shared by the background tasks this package
// targets: a task starts Idle, moves to Running once its loop goroutine
// is live, moves to Stopping once Close has been requested, and
// settles in Stopped once the loop has observed that request and
// returned.
const (
	StateIdle     State = "idle"
	StateRunning  State = "running"
	StateStopping State = "stopping"
	StateStopped  State = "stopped"
)

const (
	EventStart      Event = "start"
	EventStopSignal Event = "stop_signal"
	EventStopped    Event = "stopped"
)

// Machine is a deterministic state machine: Apply feeds one event into
// the current state and returns the resulting state, or an error if
// that event is not valid from the current state. Snapshot and Restore
// let a caller persist and recover a Machine's state across restarts,
// mirroring the shape of the teacher's raft.FSM without any consensus
// log behind it.
type Machine interface {
	Apply(event Event) (State, error)
	Snapshot() State
	Restore(state State) error
}

// table is a deterministic transition table: table[current][event] is
// the resulting state, absent if that event is invalid from that state.
type table map[State]map[Event]State

// TableMachine is a small, table-driven Machine suitable for the
// start/running/stopping/stopped lifecycle of a background task.
type TableMachine struct {
	mu      sync.Mutex
	current State
	valid   map[State]struct{}
	edges   table
}

// NewTableMachine builds a TableMachine starting at initial, accepting
// only the states named as keys of edges (plus any state reachable as
// an edges value) and only the transitions edges describes.
func NewTableMachine(initial State, edges table) *TableMachine {
	valid := make(map[State]struct{})
	valid[initial] = struct{}{}
	for from, byEvent := range edges {
		valid[from] = struct{}{}
		for _, to := range byEvent {
			valid[to] = struct{}{}
		}
	}
	return &TableMachine{current: initial, valid: valid, edges: edges}
}

// NewBackgroundTaskMachine builds a TableMachine for the lifecycle of
// a background task such as the WAL flusher (spec §9: "regular tasks
// with a running flag and a bounded join at close"); the WAL store
// does not use it and tracks its flusher with its own fields. The
// transitions are idle -> running on start, running ->
// stopping on a stop signal, stopping -> stopped once the task's loop
// goroutine observes it and returns. There are no backward edges; a
// stopped task is not restarted in place.
func NewBackgroundTaskMachine() *TableMachine {
	return NewTableMachine(StateIdle, table{
		StateIdle:     {EventStart: StateRunning},
		StateRunning:  {EventStopSignal: StateStopping},
		StateStopping: {EventStopped: StateStopped},
	})
}

// Apply feeds event into the machine. It returns types.ErrValidation
// if event is not a valid transition from the current state.
func (m *TableMachine) Apply(event Event) (State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	next, ok := m.edges[m.current][event]
	if !ok {
		return m.current, fmt.Errorf("%w: event %q is not valid from state %q", types.ErrValidation, event, m.current)
	}
	m.current = next
	return m.current, nil
}

// Snapshot returns the machine's current state.
func (m *TableMachine) Snapshot() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Restore sets the machine's current state directly, for a caller
// recovering a previously snapshotted state. It returns
// types.ErrValidation if state is not one the machine's table ever
// names, on either side of an edge.
func (m *TableMachine) Restore(state State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.valid[state]; !ok {
		return fmt.Errorf("%w: %q is not a state of this machine", types.ErrValidation, state)
	}
	m.current = state
	return nil
}
