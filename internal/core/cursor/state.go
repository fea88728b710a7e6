package cursor

import (
	"errors"
	"slices"
	"time"

	"github.com/vietddude/swapwatch/internal/core/domain"
)

// State is an alias for domain.CursorState for internal use.
type State = domain.CursorState

// ErrInvalidTransition is returned when an invalid state transition is attempted.
var ErrInvalidTransition = errors.New("invalid state transition")

// ValidTransitions defines allowed state transitions.
// Key is the current state, value is the list of valid next states.
var ValidTransitions = map[State][]State{
	domain.CursorStateInit:    {domain.CursorStatePolling, domain.CursorStateBackoff},
	domain.CursorStatePolling: {domain.CursorStateBackoff},
	domain.CursorStateBackoff: {domain.CursorStatePolling},
}

// CanTransition checks if a transition from one state to another is valid.
func CanTransition(from, to State) bool {
	return slices.Contains(ValidTransitions[from], to)
}

// Transition represents a state change with metadata.
type Transition struct {
	From      State     `json:"from"`
	To        State     `json:"to"`
	Reason    string    `json:"reason"`
	Timestamp time.Time `json:"at"`
}

// NewTransition creates a new transition record.
func NewTransition(from, to State, reason string) Transition {
	return Transition{
		From:      from,
		To:        to,
		Reason:    reason,
		Timestamp: time.Now(),
	}
}

// IsValid returns true if this transition is allowed by the state machine.
func (t Transition) IsValid() bool {
	return CanTransition(t.From, t.To)
}

// StateDescription returns a human-readable description of a state.
func StateDescription(s State) string {
	switch s {
	case domain.CursorStateInit:
		return "Initializing - cursor placed at the chain head, first poll pending"
	case domain.CursorStatePolling:
		return "Polling - scanning new blocks every interval"
	case domain.CursorStateBackoff:
		return "Backing off - last query failed, cursor held in place"
	default:
		return "Unknown state"
	}
}
