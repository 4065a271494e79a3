// Package statemachine implements the generic (State, Trigger) -> (State,
// Actions) transition kernel reused by every node and by the strategy
// runtime. A rejected transition is a first-class error, never a panic.
package statemachine

import (
	"sync"

	"github.com/atlas-desktop/backtest-workflow-engine/internal/apperrors"
)

// Action is an opaque side effect the caller runs after a transition
// commits, outside the machine's lock.
type Action func()

// TransitionFunc computes the next state and actions for a trigger, or
// rejects the transition with an error.
type TransitionFunc[S comparable, T any] func(current S, trigger T) (S, []Action, error)

// Machine is a generic, thread-safe state machine. Metadata is a
// free-form side-channel for opaque diagnostic fields (e.g. the last
// error code), independent of the state itself.
type Machine[S comparable, T any] struct {
	mu         sync.Mutex
	state      S
	transition TransitionFunc[S, T]
	metadata   sync.Map
	errPrefix  string
}

// New creates a machine starting in initial, driven by fn. errPrefix
// names the subsystem for the *_STATE_MACHINE_1001 error this machine
// raises on a rejected transition (e.g. "NODE", "STRATEGY").
func New[S comparable, T any](initial S, fn TransitionFunc[S, T], errPrefix string) *Machine[S, T] {
	return &Machine[S, T]{
		state:      initial,
		transition: fn,
		errPrefix:  errPrefix,
	}
}

// CurrentState returns the machine's current state.
func (m *Machine[S, T]) CurrentState() S {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Trigger atomically applies trigger, committing the new state on
// success. Actions are returned for the caller to run outside the lock.
func (m *Machine[S, T]) Trigger(trigger T) ([]Action, error) {
	m.mu.Lock()
	next, actions, err := m.transition(m.state, trigger)
	if err != nil {
		m.mu.Unlock()
		return nil, apperrors.NewStateMachineError(m.errPrefix, err.Error(), err.Error())
	}
	m.state = next
	m.mu.Unlock()
	return actions, nil
}

// SetMetadata stores an opaque diagnostic field.
func (m *Machine[S, T]) SetMetadata(key string, value any) {
	m.metadata.Store(key, value)
}

// Metadata retrieves an opaque diagnostic field.
func (m *Machine[S, T]) Metadata(key string) (any, bool) {
	return m.metadata.Load(key)
}
