package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/stwalsh4118/streamhub/internal/auth"
	"github.com/stwalsh4118/streamhub/internal/logger"
	"github.com/stwalsh4118/streamhub/internal/playback"
	"github.com/stwalsh4118/streamhub/internal/store"
)

// SnapshotSource publishes playlist snapshots.
type SnapshotSource interface {
	Subscribe(onChange func(store.Snapshot)) store.Unsubscribe
}

// SignIner resolves a display identity from an optional custom token.
type SignIner interface {
	SignIn(customToken string) (*auth.Identity, error)
}

// DisplayOptions configures a DisplayHandler.
type DisplayOptions struct {
	Source         SnapshotSource
	Auth           SignIner
	Playback       playback.Config
	Clock          playback.Clock
	AllowedOrigins []string
}

// DisplayHandler runs one playback session per display websocket.
type DisplayHandler struct {
	opts     DisplayOptions
	upgrader *websocket.Upgrader

	mu     sync.Mutex
	conns  map[*conn]struct{}
	closed bool
	wg     sync.WaitGroup
}

// NewDisplayHandler creates a display websocket handler.
func NewDisplayHandler(opts DisplayOptions) *DisplayHandler {
	return &DisplayHandler{
		opts:     opts,
		upgrader: newUpgrader(opts.AllowedOrigins),
		conns:    make(map[*conn]struct{}),
	}
}

// Active reports connected displays.
func (h *DisplayHandler) Active() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

// ServeHTTP upgrades the request and blocks until the display disconnects.
func (h *DisplayHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log := logger.For("display")

	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("Display websocket upgrade failed")
		return
	}
	c := newConn(ws, log)

	identity, err := h.opts.Auth.SignIn(r.URL.Query().Get("token"))
	if err != nil {
		log.Error().Err(err).Msg("Display sign-in failed")
		_ = c.sendJSON(Command{Type: MsgStatus, Connection: ConnectionReconnecting})
		c.close()
		return
	}

	if !h.track(c) {
		c.close()
		return
	}

	cfg := h.opts.Playback
	if cfg.Widget.Origin == "" {
		cfg.Widget.Origin = pageOrigin(r)
	}

	factory := NewRemoteFactory(func(cmd Command) error { return c.sendJSON(cmd) })
	session := playback.NewSession(playback.Options{
		Config:  cfg,
		Clock:   h.opts.Clock,
		Factory: factory,
		OnStatus: func(s playback.Status) {
			_ = c.sendJSON(Command{Type: MsgStatus, Status: &s, Connection: ConnectionLive})
		},
	})
	log = log.With().Str("session_id", session.ID()).Str("user_id", identity.UserID).Logger()
	_ = c.sendJSON(Command{Type: MsgStatus, Connection: ConnectionLive, UserID: identity.UserID})

	ctx, cancel := context.WithCancel(context.Background())
	runDone := make(chan struct{})
	go func() {
		defer close(runDone)
		if err := session.Run(ctx); err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, playback.ErrSessionClosed) {
			log.Error().Err(err).Msg("Playback session stopped")
		}
	}()

	unsubscribe := h.opts.Source.Subscribe(session.ApplySnapshot)
	log.Info().Msg("Display connected")

	c.readPump(func(data []byte) {
		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			log.Debug().Err(err).Msg("Ignoring malformed display message")
			return
		}
		switch msg.Type {
		case MsgPointer:
			session.PointerActivity()
		case MsgUnmute:
			session.Unmute()
		default:
			factory.Dispatch(msg)
		}
	})

	unsubscribe()
	session.Close()
	cancel()
	<-runDone
	c.close()
	h.untrack(c)
	log.Info().Msg("Display disconnected")
}

// Close disconnects every display and waits for their sessions to stop.
func (h *DisplayHandler) Close() {
	h.mu.Lock()
	h.closed = true
	for c := range h.conns {
		c.close()
	}
	h.mu.Unlock()
	h.wg.Wait()
}

func (h *DisplayHandler) track(c *conn) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.conns[c] = struct{}{}
	h.wg.Add(1)
	return true
}

func (h *DisplayHandler) untrack(c *conn) {
	h.mu.Lock()
	delete(h.conns, c)
	h.mu.Unlock()
	h.wg.Done()
}

// pageOrigin is the origin of the page that opened the socket: the Origin
// header when the browser sent one, otherwise the request host.
func pageOrigin(r *http.Request) string {
	if origin := r.Header.Get("Origin"); origin != "" {
		return origin
	}
	scheme := "http"
	if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	return scheme + "://" + r.Host
}
