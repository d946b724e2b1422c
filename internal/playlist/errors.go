package playlist

import "errors"

// Custom playlist controller errors
var (
	// ErrDuplicateVideo indicates a new entry would silently start a second campaign
	ErrDuplicateVideo = errors.New("this video is already in the playlist; use duplicate to schedule it again")

	// ErrEntryNotFound indicates the requested entry does not exist
	ErrEntryNotFound = errors.New("entry not found")

	// ErrInvalidScope indicates an unknown delete scope
	ErrInvalidScope = errors.New("delete scope must be instance or campaign")

	// ErrInvalidScheduleMode indicates an unknown schedule mode
	ErrInvalidScheduleMode = errors.New("schedule mode must be now or schedule")

	// ErrInvalidDate indicates a date that is not YYYY-MM-DD
	ErrInvalidDate = errors.New("dates must use YYYY-MM-DD")

	// ErrInvalidOrder indicates a submitted order that is not a permutation of the playlist
	ErrInvalidOrder = errors.New("order must list every entry exactly once")

	// ErrNoDrag indicates a drag that was already cancelled or committed
	ErrNoDrag = errors.New("no reorder in progress")
)

// IsDuplicateVideo checks if the error is a duplicate video error
func IsDuplicateVideo(err error) bool {
	return errors.Is(err, ErrDuplicateVideo)
}

// IsEntryNotFound checks if the error is an entry not found error
func IsEntryNotFound(err error) bool {
	return errors.Is(err, ErrEntryNotFound)
}

// ErrIndexOutOfRange indicates a drag index outside the playlist
var ErrIndexOutOfRange = errors.New("index out of range")
