// Package flow holds the input controllers for the barcode and label
// screens. Each is a finite-state machine driven by a transition table so
// that invalid flag combinations cannot be represented.
package flow

import (
	"fmt"
	"sync"
)

// State is a flow state.
type State string

// Event drives a transition.
type Event string

const (
	evSubmit  Event = "submit"
	evSucceed Event = "succeed"
	evFail    Event = "fail"
	evReset   Event = "reset"
	evCapture Event = "capture"
	evDiscard Event = "discard"
)

type edge struct {
	from State
	ev   Event
}

// machine is a mutex-guarded state holder over a fixed transition table.
type machine struct {
	mu    sync.Mutex
	state State
	table map[edge]State
}

func newMachine(initial State, table map[edge]State) *machine {
	return &machine{state: initial, table: table}
}

func (m *machine) current() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *machine) fire(ev Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fireLocked(ev)
}

func (m *machine) fireLocked(ev Event) error {
	next, ok := m.table[edge{m.state, ev}]
	if !ok {
		return fmt.Errorf("%w: %s in state %s", ErrInvalidTransition, ev, m.state)
	}
	m.state = next
	return nil
}

// can reports whether ev is allowed in the current state.
func (m *machine) can(ev Event) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.table[edge{m.state, ev}]
	return ok
}
