package playback

import (
	"errors"
	"strings"

	"github.com/stwalsh4118/streamhub/internal/media"
)

// PlayerState is the widget-reported player state. Values follow the
// embedded player API.
type PlayerState int

// Player states
const (
	PlayerUnstarted PlayerState = -1
	PlayerEnded     PlayerState = 0
	PlayerPlaying   PlayerState = 1
	PlayerPaused    PlayerState = 2
	PlayerBuffering PlayerState = 3
	PlayerCued      PlayerState = 5
)

// String returns the wire name of the player state
func (p PlayerState) String() string {
	switch p {
	case PlayerUnstarted:
		return "unstarted"
	case PlayerEnded:
		return "ended"
	case PlayerPlaying:
		return "playing"
	case PlayerPaused:
		return "paused"
	case PlayerBuffering:
		return "buffering"
	case PlayerCued:
		return "cued"
	default:
		return "unknown"
	}
}

// ParsePlayerState accepts a wire name.
func ParsePlayerState(name string) (PlayerState, bool) {
	switch strings.ToLower(name) {
	case "unstarted":
		return PlayerUnstarted, true
	case "ended":
		return PlayerEnded, true
	case "playing":
		return PlayerPlaying, true
	case "paused":
		return PlayerPaused, true
	case "buffering":
		return PlayerBuffering, true
	case "cued":
		return PlayerCued, true
	default:
		return PlayerUnstarted, false
	}
}

// ErrUnmuteRejected is returned by a widget when the environment refuses to
// unmute without a user gesture.
var ErrUnmuteRejected = errors.New("unmute rejected")

// WidgetConfig configures a widget instance.
type WidgetConfig struct {
	Autoplay         bool   `json:"autoplay"`
	StartMuted       bool   `json:"start_muted"`
	Controls         bool   `json:"controls"`
	RelatedContent   bool   `json:"related_content"`
	ModestBranding   bool   `json:"modest_branding"`
	PreferredQuality string `json:"preferred_quality"`
	Origin           string `json:"origin,omitempty"`
}

// DefaultWidgetConfig matches an unattended display: autoplay, muted start,
// no controls, no related content.
func DefaultWidgetConfig() WidgetConfig {
	return WidgetConfig{
		Autoplay:         true,
		StartMuted:       true,
		Controls:         false,
		RelatedContent:   false,
		ModestBranding:   true,
		PreferredQuality: "hd1080",
	}
}

// Widget is a handle to one embedded player. Implementations report
// asynchronous callbacks through the sink passed to WidgetFactory.Create.
type Widget interface {
	Load(ref media.VideoRef) error
	Play() error
	SeekTo(seconds float64) error
	Mute() error
	Unmute() error
	IsMuted() (bool, error)
	State() (PlayerState, error)
	Destroy() error
}

// WidgetFactory creates widgets bound to an event sink.
type WidgetFactory interface {
	Create(cfg WidgetConfig, ref media.VideoRef, events func(WidgetEvent)) (Widget, error)
}

// WidgetEventType names a widget callback.
type WidgetEventType string

// Widget callbacks
const (
	EventReady       WidgetEventType = "ready"
	EventStateChange WidgetEventType = "state_change"
	EventError       WidgetEventType = "error"
	EventMuteChange  WidgetEventType = "muted"
)

// WidgetEvent is one callback from a widget.
// Rejected is set on a mute report that follows a refused unmute.
type WidgetEvent struct {
	Type     WidgetEventType
	State    PlayerState
	Code     int
	Muted    bool
	Rejected bool
}
