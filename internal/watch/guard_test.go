package watch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dverner/matinee/internal/player"
)

func TestGuardMutesOnAudibleMedia(t *testing.T) {
	mic := &fakeMic{}
	g := newAudioGuard(mic)
	g.begin()

	g.evaluate(true)
	require.Len(t, mic.requests, 1)
	assert.Equal(t, muteRequest{muted: true, automatic: true}, mic.requests[0])
	assert.True(t, mic.muted)
}

func TestGuardRestoresAutoMute(t *testing.T) {
	mic := &fakeMic{}
	g := newAudioGuard(mic)
	g.begin()

	g.evaluate(true)
	g.evaluate(false)

	require.Len(t, mic.requests, 2)
	assert.Equal(t, muteRequest{muted: false, automatic: true}, mic.requests[1])
	assert.False(t, mic.muted)
}

func TestGuardKeepsUserMute(t *testing.T) {
	mic := &fakeMic{muted: true}
	g := newAudioGuard(mic)
	// Mic already muted at session start counts as user intent.
	g.begin()

	g.evaluate(true)
	g.evaluate(false)

	assert.Empty(t, mic.requests)
	assert.True(t, mic.muted)
}

func TestGuardUserMuteDuringSessionSticks(t *testing.T) {
	mic := &fakeMic{}
	g := newAudioGuard(mic)
	g.begin()

	g.evaluate(true)
	// The user mutes explicitly while auto-muted; the unmute on
	// inaudible media must not fire anymore.
	g.note(true, true)
	g.evaluate(false)

	require.Len(t, mic.requests, 1)
	assert.True(t, mic.muted)
}

func TestGuardEndRestoresMic(t *testing.T) {
	mic := &fakeMic{}
	g := newAudioGuard(mic)
	g.begin()

	g.evaluate(true)
	g.end()

	assert.False(t, mic.muted)
}

func TestManagerRoutesMuteNotesToGuard(t *testing.T) {
	h := newHarness(localUser, Config{})
	require.NoError(t, h.m.Share("https://example.com/movie.mp4"))
	h.ready()

	// Media becomes audible, the guard auto-mutes.
	h.fp.state = player.StatePlaying
	h.handler(player.Event{Kind: player.EventStateChanged, Paused: false})
	require.True(t, h.mic.muted)

	// The user confirms the mute explicitly; pausing the media must
	// not unmute behind their back.
	h.m.OnLocalAudioMuted(true, true)
	h.fp.state = player.StatePaused
	h.handler(player.Event{Kind: player.EventStateChanged, Paused: true})

	assert.True(t, h.mic.muted)
}
