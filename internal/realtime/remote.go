package realtime

import (
	"sync"

	"github.com/stwalsh4118/streamhub/internal/media"
	"github.com/stwalsh4118/streamhub/internal/playback"
)

// RemoteFactory creates widgets that live in a display browser. Commands go
// out through send; callbacks arrive through Dispatch.
type RemoteFactory struct {
	send func(Command) error

	mu      sync.Mutex
	nextID  uint64
	current *remoteWidget
}

// NewRemoteFactory creates a factory that sends commands with send.
func NewRemoteFactory(send func(Command) error) *RemoteFactory {
	return &RemoteFactory{send: send}
}

// Create asks the display to embed a player for ref.
func (f *RemoteFactory) Create(cfg playback.WidgetConfig, ref media.VideoRef, events func(playback.WidgetEvent)) (playback.Widget, error) {
	f.mu.Lock()
	f.nextID++
	w := &remoteWidget{
		id:     f.nextID,
		f:      f,
		events: events,
		muted:  cfg.StartMuted,
		state:  playback.PlayerUnstarted,
	}
	prev := f.current
	f.current = w
	f.mu.Unlock()

	if prev != nil {
		prev.markDestroyed()
	}

	c := cfg
	if err := f.send(Command{Type: CmdCreate, Widget: w.id, VideoRef: ref.String(), Config: &c}); err != nil {
		w.markDestroyed()
		return nil, err
	}
	return w, nil
}

// Dispatch routes a display callback to the widget it names. Callbacks for
// replaced or destroyed widgets are dropped.
func (f *RemoteFactory) Dispatch(msg ClientMessage) bool {
	f.mu.Lock()
	w := f.current
	f.mu.Unlock()
	if w == nil || w.id != msg.Widget {
		return false
	}

	var ev playback.WidgetEvent
	switch msg.Type {
	case MsgReady:
		ev = playback.WidgetEvent{Type: playback.EventReady}
	case MsgStateChange:
		ps, ok := playback.ParsePlayerState(msg.State)
		if !ok {
			return false
		}
		w.setState(ps)
		ev = playback.WidgetEvent{Type: playback.EventStateChange, State: ps}
	case MsgError:
		ev = playback.WidgetEvent{Type: playback.EventError, Code: msg.Code}
	case MsgMuted:
		w.setMuted(msg.Muted)
		ev = playback.WidgetEvent{Type: playback.EventMuteChange, Muted: msg.Muted, Rejected: msg.Rejected}
	default:
		return false
	}
	return w.emit(ev)
}

func (f *RemoteFactory) release(w *remoteWidget) {
	f.mu.Lock()
	if f.current == w {
		f.current = nil
	}
	f.mu.Unlock()
}

// remoteWidget caches the last reported mute and player state.
type remoteWidget struct {
	id     uint64
	f      *RemoteFactory
	events func(playback.WidgetEvent)

	mu        sync.Mutex
	muted     bool
	state     playback.PlayerState
	destroyed bool
}

func (w *remoteWidget) command(cmd Command) error {
	w.mu.Lock()
	destroyed := w.destroyed
	w.mu.Unlock()
	if destroyed {
		return ErrWidgetDestroyed
	}
	cmd.Widget = w.id
	return w.f.send(cmd)
}

func (w *remoteWidget) Load(ref media.VideoRef) error {
	if err := w.command(Command{Type: CmdLoad, VideoRef: ref.String()}); err != nil {
		return err
	}
	w.setState(playback.PlayerUnstarted)
	return nil
}

func (w *remoteWidget) Play() error {
	return w.command(Command{Type: CmdPlay})
}

func (w *remoteWidget) SeekTo(seconds float64) error {
	return w.command(Command{Type: CmdSeek, Seconds: seconds})
}

func (w *remoteWidget) Mute() error {
	if err := w.command(Command{Type: CmdMute}); err != nil {
		return err
	}
	w.setMuted(true)
	return nil
}

// Unmute is optimistic. A refusal comes back as a muted callback with Rejected set.
func (w *remoteWidget) Unmute() error {
	if err := w.command(Command{Type: CmdUnmute}); err != nil {
		return err
	}
	w.setMuted(false)
	return nil
}

func (w *remoteWidget) IsMuted() (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.muted, nil
}

func (w *remoteWidget) State() (playback.PlayerState, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state, nil
}

func (w *remoteWidget) Destroy() error {
	w.mu.Lock()
	if w.destroyed {
		w.mu.Unlock()
		return nil
	}
	w.mu.Unlock()

	err := w.f.send(Command{Type: CmdDestroy, Widget: w.id})
	w.markDestroyed()
	return err
}

func (w *remoteWidget) markDestroyed() {
	w.mu.Lock()
	w.destroyed = true
	w.mu.Unlock()
	w.f.release(w)
}

func (w *remoteWidget) emit(ev playback.WidgetEvent) bool {
	w.mu.Lock()
	destroyed := w.destroyed
	w.mu.Unlock()
	if destroyed {
		return false
	}
	w.events(ev)
	return true
}

func (w *remoteWidget) setMuted(v bool) {
	w.mu.Lock()
	w.muted = v
	w.mu.Unlock()
}

func (w *remoteWidget) setState(ps playback.PlayerState) {
	w.mu.Lock()
	w.state = ps
	w.mu.Unlock()
}
