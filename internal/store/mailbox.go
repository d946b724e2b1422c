package store

import "sync"

// mailbox delivers values to fn in push order on its own goroutine.
// The queue is unbounded so a slow subscriber never loses a change.
type mailbox[T any] struct {
	fn     func(T)
	mu     sync.Mutex
	queue  []T
	closed bool
	wake   chan struct{}
	done   chan struct{}
}

func newMailbox[T any](fn func(T)) *mailbox[T] {
	m := &mailbox[T]{
		fn:   fn,
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
	go m.run()
	return m
}

func (m *mailbox[T]) push(v T) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.queue = append(m.queue, v)
	m.mu.Unlock()

	select {
	case m.wake <- struct{}{}:
	default:
	}
}

// close stops delivery. A delivery already in progress completes.
func (m *mailbox[T]) close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.closed = true
	m.queue = nil
	close(m.done)
}

func (m *mailbox[T]) next() (T, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var zero T
	if m.closed || len(m.queue) == 0 {
		return zero, false
	}
	v := m.queue[0]
	m.queue[0] = zero
	m.queue = m.queue[1:]
	return v, true
}

func (m *mailbox[T]) run() {
	for {
		select {
		case <-m.done:
			return
		case <-m.wake:
		}
		for {
			v, ok := m.next()
			if !ok {
				break
			}
			m.fn(v)
		}
	}
}
