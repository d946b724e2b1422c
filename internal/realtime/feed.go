package realtime

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/stwalsh4118/streamhub/internal/auth"
	"github.com/stwalsh4118/streamhub/internal/logger"
	"github.com/stwalsh4118/streamhub/internal/notify"
	"github.com/stwalsh4118/streamhub/internal/store"
)

// Authorizer checks a bearer token for a role.
type Authorizer interface {
	Authorize(raw string, role auth.Role) (*auth.TokenClaims, error)
}

// FeedOptions configures a Feed.
type FeedOptions struct {
	Source         SnapshotSource
	Auth           Authorizer
	AllowedOrigins []string
}

// Feed pushes playlist snapshots and toasts to connected admin dashboards.
// Client bookkeeping happens on the goroutine running Run.
type Feed struct {
	opts     FeedOptions
	upgrader *websocket.Upgrader

	clients    map[*conn]struct{}
	latest     []byte
	register   chan *conn
	unregister chan *conn
	broadcast  chan feedFrame
	stopped    chan struct{}
}

type feedFrame struct {
	data     []byte
	snapshot bool
}

// NewFeed creates an admin feed. It does nothing until Run is called.
func NewFeed(opts FeedOptions) *Feed {
	return &Feed{
		opts:       opts,
		upgrader:   newUpgrader(opts.AllowedOrigins),
		clients:    make(map[*conn]struct{}),
		register:   make(chan *conn),
		unregister: make(chan *conn),
		broadcast:  make(chan feedFrame, 16),
		stopped:    make(chan struct{}),
	}
}

// Run subscribes to the store and serves clients until ctx is done.
func (f *Feed) Run(ctx context.Context) {
	defer close(f.stopped)
	unsubscribe := f.opts.Source.Subscribe(f.publishSnapshot)
	defer unsubscribe()

	for {
		select {
		case <-ctx.Done():
			for c := range f.clients {
				c.close()
				delete(f.clients, c)
			}
			return

		case c := <-f.register:
			f.clients[c] = struct{}{}
			if f.latest != nil {
				_ = c.sendRaw(f.latest)
			}

		case c := <-f.unregister:
			if _, ok := f.clients[c]; ok {
				delete(f.clients, c)
				c.close()
			}

		case frame := <-f.broadcast:
			if frame.snapshot {
				f.latest = frame.data
			}
			for c := range f.clients {
				if err := c.sendRaw(frame.data); err != nil {
					delete(f.clients, c)
					c.close()
				}
			}
		}
	}
}

// Notify pushes a toast to every dashboard.
func (f *Feed) Notify(t notify.Toast) {
	data, err := json.Marshal(FeedMessage{Type: FeedToast, Toast: &t})
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to encode feed toast")
		return
	}
	f.push(feedFrame{data: data})
}

func (f *Feed) publishSnapshot(snap store.Snapshot) {
	data, err := json.Marshal(FeedMessage{Type: FeedSnapshot, Version: snap.Version, Entries: snap.Entries})
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to encode feed snapshot")
		return
	}
	f.push(feedFrame{data: data, snapshot: true})
}

func (f *Feed) push(frame feedFrame) {
	select {
	case f.broadcast <- frame:
	case <-f.stopped:
	}
}

// ServeHTTP authorizes an admin token from the query string and streams
// feed messages until the dashboard disconnects.
func (f *Feed) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log := logger.For("feed")

	if _, err := f.opts.Auth.Authorize(r.URL.Query().Get("token"), auth.RoleAdmin); err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	ws, err := f.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("Feed websocket upgrade failed")
		return
	}
	c := newConn(ws, log)

	select {
	case f.register <- c:
	case <-f.stopped:
		c.close()
		return
	}

	c.readPump(func([]byte) {})

	select {
	case f.unregister <- c:
	case <-f.stopped:
	}
	c.close()
}
