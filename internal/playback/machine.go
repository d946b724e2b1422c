package playback

import (
	"time"

	"github.com/rs/zerolog"
	"github.com/stwalsh4118/streamhub/internal/media"
	"github.com/stwalsh4118/streamhub/internal/models"
	"github.com/stwalsh4118/streamhub/internal/schedule"
)

// Config holds the session timings and widget options.
type Config struct {
	ErrorSkipDelay    time.Duration
	WatchdogInterval  time.Duration
	ControlsHideDelay time.Duration
	UnmuteDelay       time.Duration
	Widget            WidgetConfig
}

// DefaultConfig returns the standard display timings
func DefaultConfig() Config {
	return Config{
		ErrorSkipDelay:    3 * time.Second,
		WatchdogInterval:  5 * time.Second,
		ControlsHideDelay: 3 * time.Second,
		UnmuteDelay:       800 * time.Millisecond,
		Widget:            DefaultWidgetConfig(),
	}
}

// Status is the observable state of a session.
type Status struct {
	State             State         `json:"state"`
	Index             int           `json:"index"`
	Total             int           `json:"total"`
	Current           *models.Entry `json:"current,omitempty"`
	Muted             bool          `json:"muted"`
	NeedsManualUnmute bool          `json:"needs_manual_unmute"`
	ErrorMessage      string        `json:"error_message,omitempty"`
	ControlsVisible   bool          `json:"controls_visible"`
}

func (s Status) equal(o Status) bool {
	if s.State != o.State || s.Index != o.Index || s.Total != o.Total ||
		s.Muted != o.Muted || s.NeedsManualUnmute != o.NeedsManualUnmute ||
		s.ErrorMessage != o.ErrorMessage || s.ControlsVisible != o.ControlsVisible {
		return false
	}
	if (s.Current == nil) != (o.Current == nil) {
		return false
	}
	return s.Current == nil || *s.Current == *o.Current
}

type timerKind int

const (
	timerSkip timerKind = iota
	timerWatchdog
	timerUnmute
	timerControls
	timerRollover
	numTimers
)

func (k timerKind) String() string {
	switch k {
	case timerSkip:
		return "skip"
	case timerWatchdog:
		return "watchdog"
	case timerUnmute:
		return "unmute"
	case timerControls:
		return "controls"
	case timerRollover:
		return "rollover"
	default:
		return "unknown"
	}
}

type timerSlot struct {
	t   Timer
	gen int
}

// events processed by the machine
type (
	snapshotEvent struct {
		version uint64
		entries []models.Entry
	}
	widgetEvent struct {
		gen int
		ev  WidgetEvent
	}
	timerEvent struct {
		kind timerKind
		gen  int
	}
	pointerEvent struct{}
	unmuteEvent  struct{}
)

// machine is the single-threaded playback state machine. Every method runs
// on the session goroutine; timers and widget callbacks re-enter through post.
type machine struct {
	cfg     Config
	clock   Clock
	factory WidgetFactory
	post    func(any)
	publish func(Status)
	log     zerolog.Logger

	state   State
	entries []models.Entry
	active  []models.Entry
	version uint64
	applied bool
	index   int

	widget    Widget
	widgetGen int
	loadedRef media.VideoRef

	muted             bool
	unmuteAttempted   bool
	needsManualUnmute bool
	errorMessage      string
	controlsVisible   bool
	bufferingStrikes  int

	timers [numTimers]timerSlot
	last   Status
	closed bool
}

func newMachine(cfg Config, clock Clock, factory WidgetFactory, post func(any), publish func(Status), log zerolog.Logger) *machine {
	if publish == nil {
		publish = func(Status) {}
	}
	return &machine{
		cfg:     cfg,
		clock:   clock,
		factory: factory,
		post:    post,
		publish: publish,
		log:     log,
		state:   StateIdle,
		muted:   cfg.Widget.StartMuted,
	}
}

// handle dispatches one event and publishes the resulting status.
func (m *machine) handle(ev any) {
	if m.closed {
		return
	}
	switch e := ev.(type) {
	case snapshotEvent:
		m.applySnapshot(e.version, e.entries)
	case widgetEvent:
		if e.gen != m.widgetGen || m.widget == nil {
			m.log.Debug().Str("event", string(e.ev.Type)).Msg("Ignoring event from stale widget")
			return
		}
		m.onWidgetEvent(e.ev)
	case timerEvent:
		slot := &m.timers[e.kind]
		if e.gen != slot.gen {
			return
		}
		slot.t = nil
		m.onTimer(e.kind)
	case pointerEvent:
		m.controlsVisible = true
		m.arm(timerControls, m.cfg.ControlsHideDelay)
	case unmuteEvent:
		m.manualUnmute()
	default:
		m.log.Warn().Msgf("Unknown session event %T", ev)
		return
	}
	m.emit()
}

func (m *machine) applySnapshot(version uint64, entries []models.Entry) {
	if m.applied && version < m.version {
		m.log.Debug().
			Uint64("version", version).
			Uint64("applied_version", m.version).
			Msg("Ignoring stale snapshot")
		return
	}
	m.applied = true
	m.version = version
	m.entries = entries
	m.recompute()
}

// recompute derives the active set for today and reconciles the cursor and widget.
func (m *machine) recompute() {
	if m.timers[timerRollover].t == nil {
		m.arm(timerRollover, schedule.NextRollover(m.clock.Now()).Sub(m.clock.Now()))
	}

	next := schedule.ComputeActiveSet(m.entries, media.Today(m.clock.Now()))
	if len(next) == 0 {
		m.active = nil
		m.index = 0
		m.errorMessage = ""
		m.disarm(timerSkip)
		m.destroyWidget()
		m.setState(StateIdle)
		return
	}

	if len(m.active) > 0 && m.index < len(m.active) {
		if i := models.IndexOf(next, m.active[m.index].ID); i >= 0 {
			m.index = i
		}
	}
	if m.index >= len(next) {
		m.index = 0
	}
	m.active = next

	current := m.active[m.index]
	switch {
	case m.widget == nil:
		m.createWidget(current)
	case current.Ref() != m.loadedRef:
		m.loadCurrent()
	}
}

func (m *machine) createWidget(entry models.Entry) {
	m.setState(StateLoading)
	m.widgetGen++
	gen := m.widgetGen
	sink := func(ev WidgetEvent) { m.post(widgetEvent{gen: gen, ev: ev}) }

	w, err := m.factory.Create(m.cfg.Widget, entry.Ref(), sink)
	if err != nil {
		m.fail(NewPlaybackError(ErrorCreateFailed, SignalLostMessage, err))
		return
	}

	m.widget = w
	m.loadedRef = entry.Ref()
	m.muted = m.cfg.Widget.StartMuted
	m.unmuteAttempted = false
	m.bufferingStrikes = 0
	m.arm(timerWatchdog, m.cfg.WatchdogInterval)
	m.recovered()

	m.log.Info().
		Str("entry_id", entry.ID.String()).
		Str("video_ref", entry.VideoRef).
		Msg("Widget created")
}

func (m *machine) loadCurrent() {
	entry := m.active[m.index]
	m.setState(StateLoading)
	m.loadedRef = entry.Ref()
	m.bufferingStrikes = 0
	if err := m.widget.Load(entry.Ref()); err != nil {
		m.fail(NewPlaybackError(ErrorCommandFailed, SignalLostMessage, err))
		return
	}
	m.recovered()

	m.log.Info().
		Str("entry_id", entry.ID.String()).
		Str("video_ref", entry.VideoRef).
		Int("index", m.index).
		Msg("Loaded entry")
}

// advance moves to the next entry. A single-entry set replays from the start.
func (m *machine) advance() {
	m.disarm(timerSkip)
	n := len(m.active)
	if n == 0 {
		return
	}

	if m.widget == nil {
		m.index = (m.index + 1) % n
		m.createWidget(m.active[m.index])
		return
	}

	if n == 1 {
		m.setState(StateLoading)
		if err := m.widget.SeekTo(0); err != nil {
			m.fail(NewPlaybackError(ErrorCommandFailed, SignalLostMessage, err))
			return
		}
		if err := m.widget.Play(); err != nil {
			m.fail(NewPlaybackError(ErrorCommandFailed, SignalLostMessage, err))
			return
		}
		m.recovered()
		return
	}

	m.index = (m.index + 1) % n
	m.loadCurrent()
}

// recovered clears a pending error after a successful track change.
func (m *machine) recovered() {
	m.errorMessage = ""
	m.disarm(timerSkip)
}

// fail records err and schedules a single skip to the next entry.
func (m *machine) fail(err *PlaybackError) {
	m.log.Warn().Err(err).Str("code", string(err.Code)).Int("index", m.index).Msg("Playback error, skipping")
	m.setState(StateError)
	m.errorMessage = err.Message
	if m.timers[timerSkip].t == nil {
		m.arm(timerSkip, m.cfg.ErrorSkipDelay)
	}
}

func (m *machine) onWidgetEvent(ev WidgetEvent) {
	switch ev.Type {
	case EventReady:
		m.setState(StatePlaying)
		m.command("play", m.widget.Play)
		m.arm(timerUnmute, m.cfg.UnmuteDelay)
	case EventStateChange:
		m.onPlayerState(ev.State)
	case EventError:
		m.fail(NewPlaybackError(ErrorWidget, SignalLostMessage, nil))
		m.log.Debug().Int("widget_code", ev.Code).Msg("Widget reported error")
	case EventMuteChange:
		m.muted = ev.Muted
		if !ev.Muted {
			m.needsManualUnmute = false
		} else if ev.Rejected || m.unmuteAttempted {
			m.needsManualUnmute = true
		}
	}
}

func (m *machine) onPlayerState(ps PlayerState) {
	switch ps {
	case PlayerPlaying:
		m.bufferingStrikes = 0
		m.setState(StatePlaying)
		m.autoUnmute()
	case PlayerPaused:
		m.setState(StatePaused)
		m.command("play", m.widget.Play)
	case PlayerEnded:
		m.setState(StateEnded)
		m.advance()
	case PlayerBuffering, PlayerCued, PlayerUnstarted:
		// watchdog handles stalls
	}
}

func (m *machine) onTimer(kind timerKind) {
	switch kind {
	case timerSkip:
		m.advance()
	case timerWatchdog:
		m.arm(timerWatchdog, m.cfg.WatchdogInterval)
		m.watchdog()
	case timerUnmute:
		m.autoUnmute()
	case timerControls:
		m.controlsVisible = false
	case timerRollover:
		m.log.Info().Str("date", string(media.Today(m.clock.Now()))).Msg("Date rollover")
		m.recompute()
	}
}

// watchdog re-asserts play on a widget that stopped without being told to.
func (m *machine) watchdog() {
	if m.widget == nil || m.state == StateError {
		return
	}
	ps, err := m.widget.State()
	if err != nil {
		m.log.Debug().Err(err).Msg("Watchdog could not read widget state")
		return
	}
	switch ps {
	case PlayerPaused, PlayerCued, PlayerUnstarted:
		m.bufferingStrikes = 0
		m.log.Debug().Str("player_state", ps.String()).Msg("Watchdog re-asserting play")
		m.command("play", m.widget.Play)
	case PlayerBuffering:
		m.bufferingStrikes++
		if m.bufferingStrikes >= 2 {
			m.bufferingStrikes = 0
			m.log.Debug().Msg("Watchdog re-asserting play after stalled buffering")
			m.command("play", m.widget.Play)
		}
	default:
		m.bufferingStrikes = 0
	}
}

func (m *machine) autoUnmute() {
	if m.widget == nil {
		return
	}
	if muted, err := m.widget.IsMuted(); err == nil && !muted {
		m.muted = false
		m.needsManualUnmute = false
		return
	}
	m.unmuteAttempted = true
	if err := m.widget.Unmute(); err != nil {
		m.muted = true
		m.needsManualUnmute = true
		m.log.Debug().Err(err).Msg("Automatic unmute rejected")
		return
	}
	m.muted = false
	m.needsManualUnmute = false
}

func (m *machine) manualUnmute() {
	if m.widget == nil {
		return
	}
	if err := m.widget.Unmute(); err != nil {
		m.log.Warn().Err(err).Msg("Manual unmute failed")
		return
	}
	m.muted = false
	m.needsManualUnmute = false
}

// command runs a widget command, turning failure into a skip.
func (m *machine) command(name string, fn func() error) {
	if err := fn(); err != nil {
		m.log.Debug().Str("command", name).Err(err).Msg("Widget command failed")
		m.fail(NewPlaybackError(ErrorCommandFailed, SignalLostMessage, err))
	}
}

func (m *machine) destroyWidget() {
	m.disarm(timerWatchdog)
	m.disarm(timerUnmute)
	if m.widget == nil {
		return
	}
	if err := m.widget.Destroy(); err != nil {
		m.log.Debug().Err(err).Msg("Widget destroy failed")
	}
	m.widget = nil
	m.widgetGen++
	m.loadedRef = ""
	m.muted = m.cfg.Widget.StartMuted
	m.needsManualUnmute = false
	m.unmuteAttempted = false
	m.bufferingStrikes = 0
	m.log.Info().Msg("Widget destroyed")
}

func (m *machine) setState(next State) {
	if next == m.state {
		return
	}
	if !m.state.CanTransitionTo(next) {
		m.log.Debug().Str("from", m.state.String()).Str("to", next.String()).Msg("Ignoring invalid state transition")
		return
	}
	m.log.Debug().Str("from", m.state.String()).Str("state", next.String()).Msg("State changed")
	m.state = next
}

func (m *machine) arm(kind timerKind, d time.Duration) {
	slot := &m.timers[kind]
	if slot.t != nil {
		slot.t.Stop()
	}
	slot.gen++
	gen := slot.gen
	slot.t = m.clock.AfterFunc(d, func() { m.post(timerEvent{kind: kind, gen: gen}) })
}

func (m *machine) disarm(kind timerKind) {
	slot := &m.timers[kind]
	if slot.t != nil {
		slot.t.Stop()
		slot.t = nil
	}
	slot.gen++
}

func (m *machine) status() Status {
	s := Status{
		State:             m.state,
		Index:             m.index,
		Total:             len(m.active),
		Muted:             m.muted,
		NeedsManualUnmute: m.needsManualUnmute,
		ErrorMessage:      m.errorMessage,
		ControlsVisible:   m.controlsVisible,
	}
	if m.index < len(m.active) {
		current := m.active[m.index]
		s.Current = &current
	}
	return s
}

func (m *machine) emit() {
	s := m.status()
	if s.equal(m.last) {
		return
	}
	m.last = s
	m.publish(s)
}

// close stops every timer and destroys the widget. Safe to call repeatedly.
func (m *machine) close() {
	if m.closed {
		return
	}
	for kind := timerKind(0); kind < numTimers; kind++ {
		m.disarm(kind)
	}
	m.destroyWidget()
	m.active = nil
	m.index = 0
	m.closed = true
	m.log.Info().Msg("Session closed")
}
