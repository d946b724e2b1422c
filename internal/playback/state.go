// Package playback runs the unattended display loop: one session per
// connected display drives an embedded video widget through the active set,
// recovering from stalls and errors without operator input.
package playback

import "errors"

// State represents the current state of a playback session
type State string

// Playback state constants
const (
	StateIdle    State = "idle"    // Nothing to play, no widget
	StateLoading State = "loading" // Widget created or loading a video
	StatePlaying State = "playing" // Widget reports playback
	StatePaused  State = "paused"  // Widget paused, play re-asserted
	StateEnded   State = "ended"   // Current video finished
	StateError   State = "error"   // Widget failed, skip pending
)

// Common errors
var (
	ErrInvalidStateTransition = errors.New("invalid state transition")
	ErrSessionClosed          = errors.New("session closed")
)

// String returns the string representation of the playback state
func (s State) String() string {
	return string(s)
}

// IsValid checks if the playback state is a known valid value
func (s State) IsValid() bool {
	switch s {
	case StateIdle, StateLoading, StatePlaying, StatePaused, StateEnded, StateError:
		return true
	default:
		return false
	}
}

// CanTransitionTo checks if a transition from current state to newState is valid
func (s State) CanTransitionTo(newState State) bool {
	if !newState.IsValid() {
		return false
	}
	switch s {
	case StateIdle:
		// From idle, only a new widget can start
		return newState == StateLoading
	case StateLoading, StatePlaying, StatePaused:
		return newState != s
	case StateEnded:
		// Ended always advances or replays
		return newState != StatePaused && newState != StateEnded
	case StateError:
		// From error, skip to the next entry or recover
		return newState == StateLoading || newState == StatePlaying || newState == StateIdle
	default:
		return false
	}
}
