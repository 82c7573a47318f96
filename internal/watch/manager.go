package watch

import (
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dverner/matinee/internal/domain"
	"github.com/dverner/matinee/internal/player"
)

var (
	ErrMediaActive = errors.New("shared media already active")
	ErrNotOwner    = errors.New("not the shared media owner")
)

// DefaultUpdateInterval is the owner's broadcast cadence.
const DefaultUpdateInterval = 5 * time.Second

const defaultParticipantName = "Shared Media"

// Roster is the participant-list collaborator. Calls are
// fire-and-forget requests; the core does not depend on their
// completion ordering.
type Roster interface {
	AddSyntheticParticipant(id, displayName string)
	RemoveSyntheticParticipant(id string)
	Pin(id string)
}

// Dock is the UI collaborator notified when the shared-media view is
// shown or hidden.
type Dock interface {
	SetDocked(bool)
}

// MicControl is the microphone collaborator. RequestMute is advisory;
// it never mutates hardware state directly.
type MicControl interface {
	IsMuted() bool
	RequestMute(muted bool, automatic bool)
}

// Channel publishes shared-media commands to the conference. Delivery
// is best effort and unordered.
type Channel interface {
	Publish(Command) error
}

// BackendFactory builds a playback backend for a media locator. The
// handler receives the backend's normalized event signals.
type BackendFactory func(url string, h player.Handler) player.Controller

type Config struct {
	// UpdateInterval is the owner's broadcast period.
	UpdateInterval time.Duration
	// DriftThreshold is the maximum tolerated follower drift in
	// seconds before a corrective seek. Zero derives it from
	// UpdateInterval.
	DriftThreshold float64
}

// Manager is the session bridge and state machine owner. A single
// mutex serializes inbound commands, player events and the broadcast
// tick; there is at most one session per conference.
type Manager struct {
	mu      sync.Mutex
	localID domain.UserID

	ch     Channel
	roster Roster
	dock   Dock
	guard  *audioGuard

	newPlayer      BackendFactory
	updateInterval time.Duration
	driftThreshold float64

	sess *session
	gen  uint64
}

func NewManager(localID domain.UserID, ch Channel, roster Roster, dock Dock, mic MicControl, cfg Config) *Manager {
	interval := cfg.UpdateInterval
	if interval <= 0 {
		interval = DefaultUpdateInterval
	}
	threshold := cfg.DriftThreshold
	if threshold <= 0 {
		threshold = interval.Seconds()
	}
	return &Manager{
		localID:        localID,
		ch:             ch,
		roster:         roster,
		dock:           dock,
		guard:          newAudioGuard(mic),
		newPlayer:      player.New,
		updateInterval: interval,
		driftThreshold: threshold,
	}
}

// State reports the current session state.
func (m *Manager) State() SessionState {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sess == nil {
		return Inactive
	}
	return m.sess.state
}

// OwnerID reports the current owner, empty when inactive.
func (m *Manager) OwnerID() domain.UserID {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sess == nil {
		return ""
	}
	return m.sess.ownerID
}

// Share starts sharing url as the local owner: the start command is
// published to the conference and applied locally.
func (m *Manager) Share(url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sess != nil {
		return ErrMediaActive
	}
	if err := m.ch.Publish(Command{Kind: CommandStart, SenderID: m.localID, URL: url}); err != nil {
		return err
	}
	m.handleStartLocked(m.localID, url, nil)
	return nil
}

// Unshare stops the local owner's session.
func (m *Manager) Unshare() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sess == nil || m.sess.ownerID != m.localID {
		return ErrNotOwner
	}
	if err := m.ch.Publish(Command{Kind: CommandStop, SenderID: m.localID, URL: m.sess.url}); err != nil {
		return err
	}
	m.teardownLocked()
	return nil
}

// HandleCommand dispatches an inbound conference command.
func (m *Manager) HandleCommand(cmd Command) {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch cmd.Kind {
	case CommandStart:
		m.handleStartLocked(cmd.SenderID, cmd.URL, cmd.Attributes)
	case CommandUpdate:
		m.handleUpdateLocked(cmd.SenderID, cmd.URL, cmd.Attributes)
	case CommandStop:
		m.handleStopLocked(cmd.SenderID)
	default:
		log.Warn().Str("module", "watch").Str("kind", string(cmd.Kind)).Msg("unknown command")
	}
}

// OnLocalAudioMuted informs the feedback guard about local microphone
// changes. byUser marks an explicit user action as opposed to a
// programmatic one.
func (m *Manager) OnLocalAudioMuted(muted, byUser bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.guard.note(muted, byUser)
}

func (m *Manager) handleStartLocked(sender domain.UserID, url string, attrs *Attributes) {
	if m.sess != nil {
		// At most one shared media session per conference; the first
		// owner wins and later starts are dropped.
		log.Debug().Str("module", "watch").Str("sender", string(sender)).Msg("start rejected, media already active")
		return
	}

	m.gen++
	gen := m.gen
	ctrl := m.newPlayer(url, func(ev player.Event) { m.onPlayerEvent(gen, ev) })
	m.sess = &session{
		url:     url,
		ownerID: sender,
		state:   Starting,
		player:  ctrl,
		pending: attrs,
		gen:     gen,
	}
	m.guard.begin()
	log.Info().Str("module", "watch").Str("owner", string(sender)).Str("url", url).Msg("shared media starting")
}

func (m *Manager) handleUpdateLocked(sender domain.UserID, url string, attrs *Attributes) {
	if m.sess == nil {
		// A follower can join mid-session; the first update doubles as
		// the start command.
		m.handleStartLocked(sender, url, attrs)
		return
	}
	if m.sess.ownerID == m.localID {
		// Own broadcast echoed back.
		return
	}
	if sender != m.sess.ownerID {
		log.Debug().Str("module", "watch").Str("sender", string(sender)).Msg("update from non-owner ignored")
		return
	}
	if attrs == nil {
		return
	}
	switch m.sess.state {
	case Starting:
		// Player not ready yet; buffer for a single replay on Ready.
		m.sess.pending = attrs
	case ActiveRemoteOwner:
		m.applyAttributesLocked(*attrs)
	case Stopping, Inactive, ActiveLocalOwner:
	}
}

func (m *Manager) handleStopLocked(sender domain.UserID) {
	if m.sess == nil {
		return
	}
	if sender != m.sess.ownerID {
		// Normal message-ordering race, not an error.
		log.Debug().Str("module", "watch").Str("sender", string(sender)).Msg("stop from non-owner ignored")
		return
	}
	m.teardownLocked()
}

// onPlayerEvent receives normalized backend signals. Events carrying a
// stale generation belong to an already torn-down player and are
// dropped.
func (m *Manager) onPlayerEvent(gen uint64, ev player.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sess == nil || m.sess.gen != gen {
		return
	}

	switch ev.Kind {
	case player.EventReady:
		m.onReadyLocked()
	case player.EventStateChanged:
		if m.sess.state == ActiveLocalOwner {
			m.publishSnapshotLocked(ev.Paused)
			m.evaluateGuardLocked()
		}
	case player.EventVolumeChanged:
		if m.sess.state == ActiveLocalOwner {
			m.publishSnapshotLocked(false)
			m.evaluateGuardLocked()
		}
	case player.EventError:
		if m.sess.state == Starting {
			// Non-fatal: the session stays in Starting so a later stop
			// can still account for the failed player.
			m.sess.lastPlayerErr = ev.Err
			log.Warn().Err(ev.Err).Str("module", "watch").Msg("player error before ready")
			return
		}
		log.Warn().Err(ev.Err).Str("module", "watch").Msg("player error ignored, sync continues")
	}
}

func (m *Manager) onReadyLocked() {
	sess := m.sess
	if sess.state != Starting {
		// Ready racing a stop; the teardown already destroyed the
		// player, nothing left to do.
		log.Debug().Str("module", "watch").Str("state", sess.state.String()).Msg("late ready ignored")
		return
	}

	if sess.ownerID == m.localID {
		sess.state = ActiveLocalOwner
	} else {
		sess.state = ActiveRemoteOwner
	}

	name := sess.player.Title()
	if name == "" {
		name = defaultParticipantName
	}
	m.roster.AddSyntheticParticipant(sess.url, name)
	m.roster.Pin(sess.url)
	m.dock.SetDocked(true)

	if a := sess.takePending(); a != nil {
		m.applyAttributesLocked(*a)
	}

	if sess.state == ActiveLocalOwner {
		m.startBroadcastLocked()
		m.evaluateGuardLocked()
	}
	log.Info().Str("module", "watch").Str("state", sess.state.String()).Str("url", sess.url).Msg("shared media active")
}

// teardownLocked releases every session resource: broadcast timer,
// synthetic roster entry, dock state and the player itself, even when
// the player never reached ready. Only then does the session become
// inactive.
func (m *Manager) teardownLocked() {
	sess := m.sess
	wasLocalOwner := sess.state == ActiveLocalOwner
	sess.state = Stopping

	if sess.cancelBroadcast != nil {
		sess.cancelBroadcast()
		sess.cancelBroadcast = nil
	}

	m.roster.RemoveSyntheticParticipant(sess.url)
	m.dock.SetDocked(false)

	if wasLocalOwner {
		m.guard.end()
	}

	if sess.lastPlayerErr != nil {
		log.Info().Err(sess.lastPlayerErr).Str("module", "watch").Msg("destroying player that failed to initialize")
	}
	if sess.player != nil {
		sess.player.Destroy()
	}

	m.sess = nil
	log.Info().Str("module", "watch").Str("url", sess.url).Msg("shared media stopped")
}

func (m *Manager) evaluateGuardLocked() {
	p := m.sess.player
	audible := p.State() == player.StatePlaying && !p.IsMuted() && p.Volume() > 0
	m.guard.evaluate(audible)
}
