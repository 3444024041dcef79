package edit

import (
	"fmt"
	"slices"
)

type State int

const (
	StateIdle State = iota
	StateClean
	StateEditing
	StateSaving
	StateConflictRetry
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateClean:
		return "clean"
	case StateEditing:
		return "editing"
	case StateSaving:
		return "saving"
	case StateConflictRetry:
		return "conflict-retry"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

var transitions = map[State][]State{
	StateIdle:          {StateClean},
	StateClean:         {StateClean, StateEditing, StateIdle},
	StateEditing:       {StateSaving, StateClean},
	StateSaving:        {StateClean, StateEditing, StateConflictRetry},
	StateConflictRetry: {StateClean, StateIdle},
}

// canTransition reports whether from -> to is a legal edge.
func canTransition(from, to State) bool {
	return slices.Contains(transitions[from], to)
}
