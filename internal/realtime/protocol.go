// Package realtime carries playback commands to display browsers over
// websockets, feeds playlist changes to admin dashboards and relays change
// notices between instances through redis.
package realtime

import (
	"github.com/stwalsh4118/streamhub/internal/models"
	"github.com/stwalsh4118/streamhub/internal/notify"
	"github.com/stwalsh4118/streamhub/internal/playback"
)

// Server to display messages
const (
	CmdCreate  = "create"
	CmdLoad    = "load"
	CmdPlay    = "play"
	CmdSeek    = "seek"
	CmdMute    = "mute"
	CmdUnmute  = "unmute"
	CmdDestroy = "destroy"
	MsgStatus  = "status"
)

// Display to server messages
const (
	MsgReady       = "ready"
	MsgStateChange = "state_change"
	MsgError       = "error"
	MsgPointer     = "pointer"
	MsgUnmute      = "unmute"
	MsgMuted       = "muted"
)

// Connection states reported in status messages
const (
	ConnectionLive         = "live"
	ConnectionReconnecting = "reconnecting"
)

// Command is a message sent to a display.
type Command struct {
	Type       string                 `json:"type"`
	Widget     uint64                 `json:"widget,omitempty"`
	VideoRef   string                 `json:"video_ref,omitempty"`
	Seconds    float64                `json:"seconds,omitempty"`
	Config     *playback.WidgetConfig `json:"config,omitempty"`
	Status     *playback.Status       `json:"status,omitempty"`
	Connection string                 `json:"connection,omitempty"`
	UserID     string                 `json:"user_id,omitempty"`
}

// ClientMessage is a message received from a display. State carries the
// player state name for state_change.
type ClientMessage struct {
	Type     string `json:"type"`
	Widget   uint64 `json:"widget"`
	State    string `json:"state,omitempty"`
	Code     int    `json:"code,omitempty"`
	Muted    bool   `json:"muted,omitempty"`
	Rejected bool   `json:"rejected,omitempty"`
}

// Feed message types
const (
	FeedSnapshot = "snapshot"
	FeedToast    = "toast"
)

// FeedMessage is a message pushed to admin dashboards.
type FeedMessage struct {
	Type    string         `json:"type"`
	Version uint64         `json:"version,omitempty"`
	Entries []models.Entry `json:"entries,omitempty"`
	Toast   *notify.Toast  `json:"toast,omitempty"`
}

// Notice announces a committed change to other instances.
type Notice struct {
	Instance string `json:"instance"`
	Kind     string `json:"kind"`
}
