package machine

import (
	"github.com/nrwiersma/runekernel/job"
)

// DefaultName is the name of the default lifecycle machine.
const DefaultName = "default"

// Transition is a legal move between two states.
type Transition struct {
	From job.State
	To   job.State

	// Condition describes when the transition applies. It is part of the
	// definition only; CanTransition does not evaluate it.
	Condition string
}

// StateMachine validates job state transitions against a fixed table.
type StateMachine interface {
	// Name returns the machine name.
	Name() string

	// Transitions returns the ordered transition table. Each call
	// returns a fresh copy.
	Transitions() []Transition

	// CanTransition reports whether from -> to is in the table.
	CanTransition(from, to job.State) bool

	// ValidateTransition returns a *job.TransitionError when from -> to
	// is not in the table.
	ValidateTransition(from, to job.State) error
}

// Simple is a state machine backed by a transition list.
type Simple struct {
	name        string
	transitions []Transition
}

// New returns a machine over the given transitions.
func New(name string, transitions ...Transition) *Simple {
	return &Simple{
		name:        name,
		transitions: append([]Transition(nil), transitions...),
	}
}

// NewSimple returns a machine with the default job lifecycle:
// Pending -> Running, Running -> Completed and Running -> Failed.
func NewSimple(name string) *Simple {
	return New(name,
		Transition{From: job.Pending, To: job.Running},
		Transition{From: job.Running, To: job.Completed},
		Transition{From: job.Running, To: job.Failed},
	)
}

// Name returns the machine name.
func (m *Simple) Name() string {
	return m.name
}

// Transitions returns a copy of the transition table.
func (m *Simple) Transitions() []Transition {
	return append([]Transition(nil), m.transitions...)
}

// CanTransition reports whether from -> to is an exact match in the table.
func (m *Simple) CanTransition(from, to job.State) bool {
	for _, t := range m.transitions {
		if t.From == from && t.To == to {
			return true
		}
	}
	return false
}

// ValidateTransition returns an error if from -> to is not allowed.
func (m *Simple) ValidateTransition(from, to job.State) error {
	if !m.CanTransition(from, to) {
		return job.NewTransitionError(from, to)
	}
	return nil
}
