package playback

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/stwalsh4118/streamhub/internal/logger"
	"github.com/stwalsh4118/streamhub/internal/store"
)

const eventBuffer = 64

// Options configures a Session. Factory is required.
type Options struct {
	ID       string
	Config   Config
	Clock    Clock
	Factory  WidgetFactory
	OnStatus func(Status)
}

// Session owns the playback state machine for one display. All events are
// processed sequentially on the goroutine running Run.
type Session struct {
	id     string
	events chan any
	stop   chan struct{}
	done   chan struct{}
	m      *machine

	mu      sync.Mutex
	running bool
	closed  bool
}

// NewSession creates a session. It does nothing until Run is called.
func NewSession(opts Options) *Session {
	if opts.ID == "" {
		opts.ID = uuid.New().String()
	}
	if opts.Clock == nil {
		opts.Clock = RealClock{}
	}

	s := &Session{
		id:     opts.ID,
		events: make(chan any, eventBuffer),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	log := logger.For("playback").With().Str("session_id", opts.ID).Logger()
	s.m = newMachine(opts.Config, opts.Clock, opts.Factory, s.post, opts.OnStatus, log)
	return s
}

// ID returns the session identifier
func (s *Session) ID() string {
	return s.id
}

// Run processes events until ctx is cancelled or Close is called.
func (s *Session) Run(ctx context.Context) error {
	s.mu.Lock()
	if s.closed || s.running {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	s.running = true
	s.mu.Unlock()

	defer close(s.done)
	defer s.m.close()

	s.m.emit()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.stop:
			return nil
		case ev := <-s.events:
			s.dispatch(ev)
		}
	}
}

func (s *Session) dispatch(ev any) {
	defer func() {
		if r := recover(); r != nil {
			s.m.log.Error().Str("panic", fmt.Sprint(r)).Msgf("Recovered from panic handling %T", ev)
		}
	}()
	s.m.handle(ev)
}

// post queues an event. Events posted after Close are dropped.
func (s *Session) post(ev any) {
	select {
	case s.events <- ev:
	case <-s.stop:
	case <-s.done:
	}
}

// ApplySnapshot feeds a store snapshot into the session. It matches the
// store.Subscribe callback signature.
func (s *Session) ApplySnapshot(snap store.Snapshot) {
	s.post(snapshotEvent{version: snap.Version, entries: snap.Entries})
}

// PointerActivity shows the controls overlay for a moment.
func (s *Session) PointerActivity() {
	s.post(pointerEvent{})
}

// Unmute is the manual tap-to-unmute path.
func (s *Session) Unmute() {
	s.post(unmuteEvent{})
}

// Close stops every timer, destroys the widget and waits for Run to return.
// It is idempotent and must not be called from an OnStatus callback.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	running := s.running
	close(s.stop)
	s.mu.Unlock()

	if running {
		<-s.done
		return
	}
	s.m.close()
}
