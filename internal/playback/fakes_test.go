package playback

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/stwalsh4118/streamhub/internal/media"
)

// fakeClock fires timers only when advanced.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	seq    int
	timers []*fakeTimer
}

type fakeTimer struct {
	c       *fakeClock
	at      time.Time
	seq     int
	f       func()
	stopped bool
	fired   bool
}

func newFakeClock(now time.Time) *fakeClock {
	return &fakeClock{now: now}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	t := &fakeTimer{c: c, at: c.now.Add(d), seq: c.seq, f: f}
	c.timers = append(c.timers, t)
	return t
}

func (t *fakeTimer) Stop() bool {
	t.c.mu.Lock()
	defer t.c.mu.Unlock()
	pending := !t.stopped && !t.fired
	t.stopped = true
	return pending
}

// fireNext fires the earliest pending timer due at or before target.
func (c *fakeClock) fireNext(target time.Time) bool {
	c.mu.Lock()
	pending := make([]*fakeTimer, 0, len(c.timers))
	for _, t := range c.timers {
		if !t.stopped && !t.fired && !t.at.After(target) {
			pending = append(pending, t)
		}
	}
	if len(pending) == 0 {
		c.now = target
		c.mu.Unlock()
		return false
	}
	sort.Slice(pending, func(i, j int) bool {
		if !pending[i].at.Equal(pending[j].at) {
			return pending[i].at.Before(pending[j].at)
		}
		return pending[i].seq < pending[j].seq
	})
	t := pending[0]
	t.fired = true
	if t.at.After(c.now) {
		c.now = t.at
	}
	c.mu.Unlock()

	t.f()
	return true
}

// pendingCount reports timers that have neither fired nor been stopped.
func (c *fakeClock) pendingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

var errFake = errors.New("widget command failed")

// fakeWidget records commands and plays back scripted failures.
type fakeWidget struct {
	mu sync.Mutex

	ref         media.VideoRef
	events      func(WidgetEvent)
	cfg         WidgetConfig
	commands    []string
	muted       bool
	playerState PlayerState
	destroyed   bool

	rejectUnmute bool
	failLoad     bool
	failPlay     bool
}

func (w *fakeWidget) record(cmd string) {
	w.commands = append(w.commands, cmd)
}

func (w *fakeWidget) Load(ref media.VideoRef) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.record("load:" + ref.String())
	if w.failLoad {
		return errFake
	}
	w.ref = ref
	w.playerState = PlayerUnstarted
	return nil
}

func (w *fakeWidget) Play() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.record("play")
	if w.failPlay {
		return errFake
	}
	return nil
}

func (w *fakeWidget) SeekTo(seconds float64) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.record("seek")
	return nil
}

func (w *fakeWidget) Mute() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.record("mute")
	w.muted = true
	return nil
}

func (w *fakeWidget) Unmute() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.record("unmute")
	if w.rejectUnmute {
		return ErrUnmuteRejected
	}
	w.muted = false
	return nil
}

func (w *fakeWidget) IsMuted() (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.muted, nil
}

func (w *fakeWidget) State() (PlayerState, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.playerState, nil
}

func (w *fakeWidget) Destroy() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.record("destroy")
	w.destroyed = true
	return nil
}

func (w *fakeWidget) setPlayerState(ps PlayerState) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.playerState = ps
}

func (w *fakeWidget) setRejectUnmute(v bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.rejectUnmute = v
}

func (w *fakeWidget) setFailLoad(v bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.failLoad = v
}

func (w *fakeWidget) count(cmd string) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	n := 0
	for _, c := range w.commands {
		if c == cmd {
			n++
		}
	}
	return n
}

func (w *fakeWidget) emit(ev WidgetEvent) {
	w.mu.Lock()
	sink := w.events
	w.mu.Unlock()
	sink(ev)
}

func (w *fakeWidget) isDestroyed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.destroyed
}

// fakeFactory hands out fakeWidgets and remembers them.
type fakeFactory struct {
	mu      sync.Mutex
	widgets []*fakeWidget
	fail    bool

	rejectUnmute bool
}

func (f *fakeFactory) Create(cfg WidgetConfig, ref media.VideoRef, events func(WidgetEvent)) (Widget, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return nil, errFake
	}
	w := &fakeWidget{
		ref:          ref,
		events:       events,
		cfg:          cfg,
		muted:        cfg.StartMuted,
		playerState:  PlayerUnstarted,
		rejectUnmute: f.rejectUnmute,
	}
	f.widgets = append(f.widgets, w)
	return w, nil
}

func (f *fakeFactory) created() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.widgets)
}

func (f *fakeFactory) last() *fakeWidget {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.widgets) == 0 {
		return nil
	}
	return f.widgets[len(f.widgets)-1]
}
