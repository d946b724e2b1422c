package playback

import "time"

// Timer is a cancellable pending callback.
type Timer interface {
	Stop() bool
}

// Clock abstracts time so sessions can be driven deterministically.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

// RealClock is the wall clock.
type RealClock struct{}

// Now returns the current time
func (RealClock) Now() time.Time { return time.Now() }

// AfterFunc calls f on its own goroutine after d
func (RealClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
