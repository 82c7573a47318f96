package watch

import "github.com/rs/zerolog/log"

// audioGuard arbitrates between the shared media's audio and the local
// microphone to avoid an echo loop: audible media asks for an
// automatic mic mute, inaudible media asks for an unmute unless the
// user muted explicitly. Requests go through the MicControl
// collaborator; the guard never touches hardware state itself.
type audioGuard struct {
	mic MicControl

	// mutedByUser tracks whether the current mute came from an explicit
	// user action; automatic mutes must not override the user's choice
	// on the way back.
	mutedByUser bool
	autoMuted   bool
}

func newAudioGuard(mic MicControl) *audioGuard {
	return &audioGuard{mic: mic}
}

// begin snapshots the mic state at session start: a mic already muted
// at that point counts as user intent.
func (g *audioGuard) begin() {
	g.mutedByUser = g.mic.IsMuted()
	g.autoMuted = false
}

// note records a local mute transition and whether the user caused it.
func (g *audioGuard) note(muted, byUser bool) {
	if muted {
		g.mutedByUser = byUser
		if byUser {
			g.autoMuted = false
		}
	} else {
		g.mutedByUser = false
		g.autoMuted = false
	}
}

func (g *audioGuard) evaluate(audible bool) {
	if audible {
		if !g.mic.IsMuted() {
			log.Info().Str("module", "watch.guard").Msg("media audible, requesting mic mute")
			g.mic.RequestMute(true, true)
			g.autoMuted = true
		}
		return
	}
	if g.mic.IsMuted() && !g.mutedByUser {
		log.Info().Str("module", "watch.guard").Msg("media inaudible, requesting mic unmute")
		g.mic.RequestMute(false, true)
		g.autoMuted = false
	}
}

// end restores the microphone when the session goes away.
func (g *audioGuard) end() {
	g.evaluate(false)
}
