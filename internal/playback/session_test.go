package playback

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stwalsh4118/streamhub/internal/media"
	"github.com/stwalsh4118/streamhub/internal/models"
	"github.com/stwalsh4118/streamhub/internal/store"
)

type statusLog struct {
	mu       sync.Mutex
	statuses []Status
}

func (l *statusLog) add(s Status) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.statuses = append(l.statuses, s)
}

func (l *statusLog) last() (Status, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.statuses) == 0 {
		return Status{}, false
	}
	return l.statuses[len(l.statuses)-1], true
}

func (l *statusLog) waitState(t *testing.T, want State) Status {
	t.Helper()
	var got Status
	require.Eventually(t, func() bool {
		s, ok := l.last()
		got = s
		return ok && s.State == want
	}, 2*time.Second, 5*time.Millisecond)
	return got
}

func startSession(t *testing.T, factory WidgetFactory) (*Session, *statusLog, chan error) {
	t.Helper()
	log := &statusLog{}
	s := NewSession(Options{
		Config:   DefaultConfig(),
		Clock:    newFakeClock(testNow),
		Factory:  factory,
		OnStatus: log.add,
	})
	errCh := make(chan error, 1)
	go func() { errCh <- s.Run(context.Background()) }()
	t.Cleanup(s.Close)
	return s, log, errCh
}

func TestSessionRunAppliesSnapshots(t *testing.T) {
	factory := &fakeFactory{}
	s, log, _ := startSession(t, factory)
	assert.NotEmpty(t, s.ID())

	log.waitState(t, StateIdle)

	s.ApplySnapshot(store.Snapshot{Version: 1, Entries: []models.Entry{visibleEntry("aaaaaaaaaaa", 0)}})
	status := log.waitState(t, StateLoading)
	assert.Equal(t, 1, status.Total)

	factory.last().emit(WidgetEvent{Type: EventReady})
	log.waitState(t, StatePlaying)

	s.PointerActivity()
	require.Eventually(t, func() bool {
		st, _ := log.last()
		return st.ControlsVisible
	}, 2*time.Second, 5*time.Millisecond)
}

func TestSessionCloseIsSynchronousAndIdempotent(t *testing.T) {
	factory := &fakeFactory{}
	s, log, errCh := startSession(t, factory)

	s.ApplySnapshot(store.Snapshot{Version: 1, Entries: []models.Entry{visibleEntry("aaaaaaaaaaa", 0)}})
	log.waitState(t, StateLoading)
	w := factory.last()

	s.Close()
	assert.True(t, w.isDestroyed(), "widget destroyed before Close returns")
	s.Close()

	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after Close")
	}

	// Posting after close must not block.
	done := make(chan struct{})
	go func() {
		for i := 0; i < eventBuffer*2; i++ {
			s.PointerActivity()
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("post blocked after Close")
	}
}

func TestSessionCloseBeforeRun(t *testing.T) {
	s := NewSession(Options{Config: DefaultConfig(), Factory: &fakeFactory{}})
	s.Close()
	assert.ErrorIs(t, s.Run(context.Background()), ErrSessionClosed)
}

func TestSessionStopsOnContextCancel(t *testing.T) {
	factory := &fakeFactory{}
	s := NewSession(Options{Config: DefaultConfig(), Clock: newFakeClock(testNow), Factory: factory})
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- s.Run(ctx) }()

	s.ApplySnapshot(store.Snapshot{Version: 1, Entries: []models.Entry{visibleEntry("aaaaaaaaaaa", 0)}})
	require.Eventually(t, func() bool { return factory.created() == 1 }, 2*time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.True(t, factory.last().isDestroyed())
	s.Close()
}

// panicFactory panics on the first create.
type panicFactory struct {
	fakeFactory
	once sync.Once
}

func (f *panicFactory) Create(cfg WidgetConfig, ref media.VideoRef, events func(WidgetEvent)) (Widget, error) {
	panicked := false
	f.once.Do(func() { panicked = true })
	if panicked {
		panic("widget exploded")
	}
	return f.fakeFactory.Create(cfg, ref, events)
}

func TestSessionRecoversFromPanics(t *testing.T) {
	factory := &panicFactory{}
	s, log, _ := startSession(t, factory)

	s.ApplySnapshot(store.Snapshot{Version: 1, Entries: []models.Entry{visibleEntry("aaaaaaaaaaa", 0)}})
	s.ApplySnapshot(store.Snapshot{Version: 2, Entries: []models.Entry{visibleEntry("bbbbbbbbbbb", 0)}})

	log.waitState(t, StateLoading)
	assert.Equal(t, 1, factory.created())
}
