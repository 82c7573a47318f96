package watch

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dverner/matinee/internal/domain"
	"github.com/dverner/matinee/internal/player"
)

type fakeChannel struct {
	mu   sync.Mutex
	cmds []Command
	err  error
}

func (c *fakeChannel) Publish(cmd Command) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.cmds = append(c.cmds, cmd)
	return nil
}

func (c *fakeChannel) commands() []Command {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Command, len(c.cmds))
	copy(out, c.cmds)
	return out
}

type fakeRoster struct {
	added   map[string]string
	pinned  []string
	removed []string
}

func newFakeRoster() *fakeRoster {
	return &fakeRoster{added: make(map[string]string)}
}

func (r *fakeRoster) AddSyntheticParticipant(id, displayName string) { r.added[id] = displayName }
func (r *fakeRoster) RemoveSyntheticParticipant(id string)           { r.removed = append(r.removed, id) }
func (r *fakeRoster) Pin(id string)                                  { r.pinned = append(r.pinned, id) }

type fakeDock struct {
	docked  bool
	history []bool
}

func (d *fakeDock) SetDocked(v bool) {
	d.docked = v
	d.history = append(d.history, v)
}

type muteRequest struct {
	muted     bool
	automatic bool
}

type fakeMic struct {
	muted    bool
	requests []muteRequest
}

func (m *fakeMic) IsMuted() bool { return m.muted }

func (m *fakeMic) RequestMute(muted bool, automatic bool) {
	m.muted = muted
	m.requests = append(m.requests, muteRequest{muted, automatic})
}

type fakePlayer struct {
	title   string
	state   player.State
	pos     float64
	muted   bool
	volume  float64
	plIndex int

	plays     int
	pauses    int
	seeks     []float64
	playAt    []int
	destroyed bool
}

func newFakePlayer() *fakePlayer {
	return &fakePlayer{volume: 1.0, plIndex: -1}
}

func (p *fakePlayer) Play() {
	p.plays++
	p.state = player.StatePlaying
}

func (p *fakePlayer) Pause() {
	p.pauses++
	p.state = player.StatePaused
}

func (p *fakePlayer) IsMuted() bool       { return p.muted }
func (p *fakePlayer) Mute()               { p.muted = true }
func (p *fakePlayer) Unmute()             { p.muted = false }
func (p *fakePlayer) Volume() float64     { return p.volume }
func (p *fakePlayer) SetVolume(v float64) { p.volume = v }
func (p *fakePlayer) Position() float64   { return p.pos }

func (p *fakePlayer) SeekTo(pos float64) {
	p.seeks = append(p.seeks, pos)
	p.pos = pos
}

func (p *fakePlayer) State() player.State { return p.state }
func (p *fakePlayer) PlaylistIndex() int  { return p.plIndex }

func (p *fakePlayer) PlayAt(index int) {
	p.playAt = append(p.playAt, index)
	p.plIndex = index
	p.pos = 0
	p.state = player.StatePlaying
}

func (p *fakePlayer) Title() string { return p.title }
func (p *fakePlayer) Destroy()      { p.destroyed = true }

// harness wires a manager to in-memory collaborators and a
// hand-cranked player backend.
type harness struct {
	m      *Manager
	ch     *fakeChannel
	roster *fakeRoster
	dock   *fakeDock
	mic    *fakeMic
	fp     *fakePlayer

	handler player.Handler
}

func newHarness(localID domain.UserID, cfg Config) *harness {
	if cfg.UpdateInterval == 0 {
		// Keep the periodic broadcast quiet unless a test opts in.
		cfg.UpdateInterval = time.Hour
	}
	h := &harness{
		ch:     &fakeChannel{},
		roster: newFakeRoster(),
		dock:   &fakeDock{},
		mic:    &fakeMic{},
		fp:     newFakePlayer(),
	}
	h.m = NewManager(localID, h.ch, h.roster, h.dock, h.mic, cfg)
	h.m.newPlayer = func(url string, ph player.Handler) player.Controller {
		h.handler = ph
		return h.fp
	}
	return h
}

func (h *harness) ready() {
	h.handler(player.Event{Kind: player.EventReady})
}

const (
	localUser  = domain.UserID("local-user")
	remoteUser = domain.UserID("remote-user")
	otherUser  = domain.UserID("other-user")
)

func TestShareBecomesLocalOwner(t *testing.T) {
	h := newHarness(localUser, Config{})

	require.NoError(t, h.m.Share("https://example.com/movie.mp4"))
	assert.Equal(t, Starting, h.m.State())
	assert.Equal(t, localUser, h.m.OwnerID())

	cmds := h.ch.commands()
	require.Len(t, cmds, 1)
	assert.Equal(t, CommandStart, cmds[0].Kind)
	assert.Equal(t, localUser, cmds[0].SenderID)
	assert.Equal(t, "https://example.com/movie.mp4", cmds[0].URL)

	h.ready()
	assert.Equal(t, ActiveLocalOwner, h.m.State())
	assert.Equal(t, "Shared Media", h.roster.added["https://example.com/movie.mp4"])
	assert.Equal(t, []string{"https://example.com/movie.mp4"}, h.roster.pinned)
	assert.True(t, h.dock.docked)
}

func TestShareRejectedWhileActive(t *testing.T) {
	h := newHarness(localUser, Config{})
	require.NoError(t, h.m.Share("https://example.com/a.mp4"))

	assert.ErrorIs(t, h.m.Share("https://example.com/b.mp4"), ErrMediaActive)
}

func TestSharePublishFailure(t *testing.T) {
	h := newHarness(localUser, Config{})
	h.ch.err = errors.New("conference unreachable")

	assert.Error(t, h.m.Share("https://example.com/movie.mp4"))
	assert.Equal(t, Inactive, h.m.State())
}

func TestUnshareTearsDownCompletely(t *testing.T) {
	h := newHarness(localUser, Config{})
	require.NoError(t, h.m.Share("https://example.com/movie.mp4"))
	h.ready()

	require.NoError(t, h.m.Unshare())

	assert.Equal(t, Inactive, h.m.State())
	assert.True(t, h.fp.destroyed)
	assert.Equal(t, []string{"https://example.com/movie.mp4"}, h.roster.removed)
	assert.False(t, h.dock.docked)

	cmds := h.ch.commands()
	assert.Equal(t, CommandStop, cmds[len(cmds)-1].Kind)
}

func TestUnshareRequiresOwnership(t *testing.T) {
	h := newHarness(localUser, Config{})

	assert.ErrorIs(t, h.m.Unshare(), ErrNotOwner)

	h.m.HandleCommand(Command{Kind: CommandStart, SenderID: remoteUser, URL: "https://example.com/movie.mp4"})
	assert.ErrorIs(t, h.m.Unshare(), ErrNotOwner)
}

func TestFirstOwnerWins(t *testing.T) {
	h := newHarness(localUser, Config{})

	h.m.HandleCommand(Command{Kind: CommandStart, SenderID: remoteUser, URL: "https://example.com/a.mp4"})
	h.m.HandleCommand(Command{Kind: CommandStart, SenderID: otherUser, URL: "https://example.com/b.mp4"})

	assert.Equal(t, remoteUser, h.m.OwnerID())
}

func TestPendingAttributesAppliedOnce(t *testing.T) {
	h := newHarness(localUser, Config{})

	h.m.HandleCommand(Command{Kind: CommandStart, SenderID: remoteUser, URL: "https://example.com/movie.mp4"})
	assert.Equal(t, Starting, h.m.State())

	// Updates before ready are buffered; the latest one wins.
	a1 := NewAttributes(StatePlaying, 20, false, 1.0, -1)
	a2 := NewAttributes(StatePlaying, 50, false, 1.0, -1)
	h.m.HandleCommand(Command{Kind: CommandUpdate, SenderID: remoteUser, URL: "https://example.com/movie.mp4", Attributes: &a1})
	h.m.HandleCommand(Command{Kind: CommandUpdate, SenderID: remoteUser, URL: "https://example.com/movie.mp4", Attributes: &a2})

	assert.Empty(t, h.fp.seeks)

	h.ready()
	assert.Equal(t, ActiveRemoteOwner, h.m.State())
	assert.Equal(t, []float64{50}, h.fp.seeks)
	assert.Equal(t, 1, h.fp.plays)
}

func TestUpdateActsAsImplicitStart(t *testing.T) {
	h := newHarness(localUser, Config{})

	a := NewAttributes(StatePlaying, 12, false, 1.0, -1)
	h.m.HandleCommand(Command{Kind: CommandUpdate, SenderID: remoteUser, URL: "https://example.com/movie.mp4", Attributes: &a})

	assert.Equal(t, Starting, h.m.State())
	assert.Equal(t, remoteUser, h.m.OwnerID())

	h.ready()
	assert.Equal(t, ActiveRemoteOwner, h.m.State())
	assert.Equal(t, []float64{12}, h.fp.seeks)
}

func TestOwnEchoIgnored(t *testing.T) {
	h := newHarness(localUser, Config{})
	require.NoError(t, h.m.Share("https://example.com/movie.mp4"))
	h.ready()

	seeksBefore := len(h.fp.seeks)
	a := NewAttributes(StatePlaying, 500, false, 1.0, -1)
	h.m.HandleCommand(Command{Kind: CommandUpdate, SenderID: localUser, URL: "https://example.com/movie.mp4", Attributes: &a})

	assert.Len(t, h.fp.seeks, seeksBefore)
}

func TestNonOwnerUpdateIgnored(t *testing.T) {
	h := newHarness(localUser, Config{})
	h.m.HandleCommand(Command{Kind: CommandStart, SenderID: remoteUser, URL: "https://example.com/movie.mp4"})
	h.ready()

	a := NewAttributes(StatePlaying, 500, false, 1.0, -1)
	h.m.HandleCommand(Command{Kind: CommandUpdate, SenderID: otherUser, URL: "https://example.com/movie.mp4", Attributes: &a})

	assert.Empty(t, h.fp.seeks)
}

func TestNonOwnerStopIgnored(t *testing.T) {
	h := newHarness(localUser, Config{})
	h.m.HandleCommand(Command{Kind: CommandStart, SenderID: remoteUser, URL: "https://example.com/movie.mp4"})
	h.ready()

	h.m.HandleCommand(Command{Kind: CommandStop, SenderID: otherUser})
	assert.Equal(t, ActiveRemoteOwner, h.m.State())
	assert.False(t, h.fp.destroyed)

	h.m.HandleCommand(Command{Kind: CommandStop, SenderID: remoteUser})
	assert.Equal(t, Inactive, h.m.State())
	assert.True(t, h.fp.destroyed)
}

func TestStopDuringStartingCleansFailedPlayer(t *testing.T) {
	h := newHarness(localUser, Config{})
	h.m.HandleCommand(Command{Kind: CommandStart, SenderID: remoteUser, URL: "https://example.com/movie.mp4"})

	// The backend fails before ever becoming ready.
	h.handler(player.Event{Kind: player.EventError, Err: errors.New("embed blocked")})
	assert.Equal(t, Starting, h.m.State())

	h.m.HandleCommand(Command{Kind: CommandStop, SenderID: remoteUser})
	assert.Equal(t, Inactive, h.m.State())
	assert.True(t, h.fp.destroyed)
	assert.False(t, h.dock.docked)
}

func TestLateReadyAfterStopIsNoOp(t *testing.T) {
	h := newHarness(localUser, Config{})
	h.m.HandleCommand(Command{Kind: CommandStart, SenderID: remoteUser, URL: "https://example.com/movie.mp4"})
	stale := h.handler

	h.m.HandleCommand(Command{Kind: CommandStop, SenderID: remoteUser})
	require.Equal(t, Inactive, h.m.State())

	// The old backend reports ready after teardown already ran.
	stale(player.Event{Kind: player.EventReady})
	assert.Equal(t, Inactive, h.m.State())
	assert.Empty(t, h.roster.added)
	assert.False(t, h.dock.docked)
}

func TestStaleGenerationEventsDropped(t *testing.T) {
	h := newHarness(localUser, Config{})
	h.m.HandleCommand(Command{Kind: CommandStart, SenderID: remoteUser, URL: "https://example.com/a.mp4"})
	stale := h.handler
	h.m.HandleCommand(Command{Kind: CommandStop, SenderID: remoteUser})

	// Second session; the first backend's events must not touch it.
	h.fp = newFakePlayer()
	h.m.HandleCommand(Command{Kind: CommandStart, SenderID: otherUser, URL: "https://example.com/b.mp4"})
	stale(player.Event{Kind: player.EventReady})

	assert.Equal(t, Starting, h.m.State())
}

func TestSyntheticParticipantUsesTitle(t *testing.T) {
	h := newHarness(localUser, Config{})
	h.fp.title = "Night Show"

	h.m.HandleCommand(Command{Kind: CommandStart, SenderID: remoteUser, URL: "https://example.com/movie.mp4"})
	h.ready()

	assert.Equal(t, "Night Show", h.roster.added["https://example.com/movie.mp4"])
}

func TestOwnerPublishesOnStateChange(t *testing.T) {
	h := newHarness(localUser, Config{})
	require.NoError(t, h.m.Share("https://example.com/movie.mp4"))
	h.ready()

	h.fp.state = player.StatePlaying
	h.fp.pos = 33
	h.handler(player.Event{Kind: player.EventStateChanged, Paused: false})

	cmds := h.ch.commands()
	last := cmds[len(cmds)-1]
	require.Equal(t, CommandUpdate, last.Kind)
	require.NotNil(t, last.Attributes)
	assert.Equal(t, StatePlaying, last.Attributes.State)
	assert.Equal(t, 33.0, last.Attributes.Time)
}

// TestShareRealBackend goes through the real backend factory: a short
// streaming link becomes an embed backend whose asynchronous ready
// signal activates the session.
func TestShareRealBackend(t *testing.T) {
	h := newHarness(localUser, Config{})
	h.m.newPlayer = player.New

	require.NoError(t, h.m.Share("https://youtu.be/dQw4w9WgXcQ"))

	require.Eventually(t, func() bool {
		return h.m.State() == ActiveLocalOwner
	}, time.Second, 5*time.Millisecond)

	assert.Equal(t, "Shared Media", h.roster.added["https://youtu.be/dQw4w9WgXcQ"])
	assert.Equal(t, []string{"https://youtu.be/dQw4w9WgXcQ"}, h.roster.pinned)
	assert.True(t, h.dock.docked)

	require.NoError(t, h.m.Unshare())
	assert.Equal(t, Inactive, h.m.State())
}

func TestPlayerErrorAfterActiveIgnored(t *testing.T) {
	h := newHarness(localUser, Config{})
	h.m.HandleCommand(Command{Kind: CommandStart, SenderID: remoteUser, URL: "https://example.com/movie.mp4"})
	h.ready()

	h.handler(player.Event{Kind: player.EventError, Err: errors.New("transient decode error")})
	assert.Equal(t, ActiveRemoteOwner, h.m.State())
	assert.False(t, h.fp.destroyed)
}
