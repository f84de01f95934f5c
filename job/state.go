package job

import (
	"fmt"
	"strings"
)

// State is the lifecycle state of a job.
type State int8

// State constants.
const (
	Pending State = iota
	Running
	Completed
	Failed
	Cancelled
)

var stateNames = [...]string{
	Pending:   "Pending",
	Running:   "Running",
	Completed: "Completed",
	Failed:    "Failed",
	Cancelled: "Cancelled",
}

// States returns all known states in declaration order.
func States() []State {
	return []State{Pending, Running, Completed, Failed, Cancelled}
}

// ParseState parses a state name, ignoring case.
func ParseState(s string) (State, error) {
	for i, name := range stateNames {
		if strings.EqualFold(name, strings.TrimSpace(s)) {
			return State(i), nil
		}
	}
	return 0, fmt.Errorf("job: unknown state %q", s)
}

// String returns the state name.
func (s State) String() string {
	if !s.Valid() {
		return fmt.Sprintf("State(%d)", int8(s))
	}
	return stateNames[s]
}

// Valid reports whether s is a known state.
func (s State) Valid() bool {
	return s >= Pending && int(s) < len(stateNames)
}

// Terminal reports whether no further work happens in this state.
func (s State) Terminal() bool {
	return s == Completed || s == Failed || s == Cancelled
}

// MarshalText encodes the state as its name.
func (s State) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("job: invalid state %d", int8(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText decodes a state name.
func (s *State) UnmarshalText(b []byte) error {
	st, err := ParseState(string(b))
	if err != nil {
		return err
	}
	*s = st
	return nil
}
