package playback

import "fmt"

// ErrorCode classifies a playback failure
type ErrorCode string

// Playback error codes
const (
	ErrorWidget        ErrorCode = "widget_error"   // widget reported an error (unavailable, embedding refused)
	ErrorCommandFailed ErrorCode = "command_failed" // a widget command returned an error
	ErrorCreateFailed  ErrorCode = "create_failed"  // the widget could not be created
)

// SignalLostMessage is the transient message shown while a failed video is skipped.
const SignalLostMessage = "Signal lost. Skipping..."

// PlaybackError is a recoverable failure of the current video. It never
// stops the session; the entry is skipped after a delay.
type PlaybackError struct {
	Code    ErrorCode
	Message string
	Cause   error
}

// NewPlaybackError creates a PlaybackError
func NewPlaybackError(code ErrorCode, message string, cause error) *PlaybackError {
	return &PlaybackError{Code: code, Message: message, Cause: cause}
}

// Error implements the error interface
func (e *PlaybackError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap implements error unwrapping for errors.Is and errors.As
func (e *PlaybackError) Unwrap() error {
	return e.Cause
}
