package player

import "time"

// playhead tracks a headless playback position: while playing, the
// position advances with wall time from the last transition mark.
type playhead struct {
	playing bool
	base    float64
	mark    time.Time
}

func (p *playhead) position(now time.Time) float64 {
	if !p.playing {
		return p.base
	}
	return p.base + now.Sub(p.mark).Seconds()
}

func (p *playhead) play(now time.Time) {
	if p.playing {
		return
	}
	p.playing = true
	p.mark = now
}

func (p *playhead) pause(now time.Time) {
	if !p.playing {
		return
	}
	p.base = p.position(now)
	p.playing = false
}

func (p *playhead) seek(pos float64, now time.Time) {
	if pos < 0 {
		pos = 0
	}
	p.base = pos
	p.mark = now
}
