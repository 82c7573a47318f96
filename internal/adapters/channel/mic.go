package channel

import (
	"sync/atomic"

	"github.com/rs/zerolog/log"
)

// MicGate holds the agent's microphone mute flag and mirrors every
// transition onto the conference. RequestMute may be called from the
// sync core while it holds its own lock, so the notify callback runs
// on a fresh goroutine.
type MicGate struct {
	muted  atomic.Bool
	send   func(muted, auto bool) error
	notify func(muted, byUser bool)
}

func NewMicGate(send func(muted, auto bool) error) *MicGate {
	return &MicGate{send: send}
}

// OnChange registers a local mute observer. Must be set before the
// gate is handed to the sync core.
func (g *MicGate) OnChange(fn func(muted, byUser bool)) {
	g.notify = fn
}

func (g *MicGate) IsMuted() bool { return g.muted.Load() }

// RequestMute applies an automatic (or programmatic) mute request.
func (g *MicGate) RequestMute(muted bool, automatic bool) {
	if g.muted.Swap(muted) == muted {
		return
	}
	log.Info().Str("module", "channel.mic").Bool("muted", muted).Bool("auto", automatic).Msg("mic state changed")
	if g.send != nil {
		if err := g.send(muted, automatic); err != nil {
			log.Warn().Err(err).Str("module", "channel.mic").Msg("mute publish failed")
		}
	}
	if g.notify != nil {
		go g.notify(muted, !automatic)
	}
}

// SetMutedByUser applies an explicit user toggle.
func (g *MicGate) SetMutedByUser(muted bool) {
	g.RequestMute(muted, false)
}
