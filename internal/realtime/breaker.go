package realtime

import (
	"sync"
	"time"
)

// breakerState is the publish breaker position.
type breakerState int

const (
	breakerClosed breakerState = iota
	breakerOpen
	breakerHalfOpen
)

// String returns the state name used in logs.
func (s breakerState) String() string {
	switch s {
	case breakerClosed:
		return "closed"
	case breakerOpen:
		return "open"
	case breakerHalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

// breaker stops publish attempts after repeated failures so an unreachable
// redis does not add a timeout to every commit. After cooldown one trial
// publish is let through; success closes it again.
type breaker struct {
	threshold int
	cooldown  time.Duration
	now       func() time.Time

	mu       sync.Mutex
	state    breakerState
	failures int
	openedAt time.Time
}

func newBreaker(threshold int, cooldown time.Duration) *breaker {
	return &breaker{threshold: threshold, cooldown: cooldown, now: time.Now}
}

// allow reports whether a publish may be attempted.
func (b *breaker) allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch b.state {
	case breakerOpen:
		if b.now().Sub(b.openedAt) < b.cooldown {
			return false
		}
		b.state = breakerHalfOpen
		return true
	case breakerHalfOpen:
		// one trial at a time
		return false
	default:
		return true
	}
}

// record feeds back the outcome of an allowed attempt and returns the
// resulting state and whether it changed.
func (b *breaker) record(err error) (breakerState, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	prev := b.state
	if err == nil {
		b.failures = 0
		b.state = breakerClosed
		return b.state, prev != b.state
	}

	b.failures++
	if b.state == breakerHalfOpen || b.failures >= b.threshold {
		b.state = breakerOpen
		b.openedAt = b.now()
	}
	return b.state, prev != b.state
}

func (b *breaker) current() breakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}
