package player

import (
	"sync"
	"time"
)

// Clip is the direct-media backend: a headless playback clock over a
// plain media locator, optionally bundled with a caption track and a
// display title.
type Clip struct {
	mu         sync.Mutex
	src        string
	captionURL string
	title      string

	head      playhead
	muted     bool
	volume    float64
	destroyed bool

	em  *emitter
	now func() time.Time
}

func NewClip(bundle string, h Handler) *Clip {
	src, captionURL, title := SplitClipBundle(bundle)
	c := &Clip{
		src:        src,
		captionURL: captionURL,
		title:      title,
		volume:     1.0,
		em:         newEmitter(h),
		now:        time.Now,
	}
	c.em.emit(Event{Kind: EventReady})
	return c
}

func (c *Clip) Src() string        { return c.src }
func (c *Clip) CaptionURL() string { return c.captionURL }
func (c *Clip) Title() string      { return c.title }

func (c *Clip) Play() {
	c.mu.Lock()
	if c.destroyed || c.head.playing {
		c.mu.Unlock()
		return
	}
	c.head.play(c.now())
	c.mu.Unlock()
	c.em.emit(Event{Kind: EventStateChanged, Paused: false})
}

func (c *Clip) Pause() {
	c.mu.Lock()
	if c.destroyed || !c.head.playing {
		c.mu.Unlock()
		return
	}
	c.head.pause(c.now())
	c.mu.Unlock()
	c.em.emit(Event{Kind: EventStateChanged, Paused: true})
}

func (c *Clip) IsMuted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.muted
}

func (c *Clip) Mute() {
	c.setMuted(true)
}

func (c *Clip) Unmute() {
	c.setMuted(false)
}

func (c *Clip) setMuted(muted bool) {
	c.mu.Lock()
	if c.destroyed || c.muted == muted {
		c.mu.Unlock()
		return
	}
	c.muted = muted
	c.mu.Unlock()
	c.em.emit(Event{Kind: EventVolumeChanged})
}

func (c *Clip) Volume() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.volume
}

func (c *Clip) SetVolume(v float64) {
	if v < 0 {
		v = 0
	} else if v > 1 {
		v = 1
	}
	c.mu.Lock()
	if c.destroyed || c.volume == v {
		c.mu.Unlock()
		return
	}
	c.volume = v
	c.mu.Unlock()
	c.em.emit(Event{Kind: EventVolumeChanged})
}

func (c *Clip) Position() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.head.position(c.now())
}

func (c *Clip) SeekTo(pos float64) {
	c.mu.Lock()
	if c.destroyed {
		c.mu.Unlock()
		return
	}
	c.head.seek(pos, c.now())
	paused := !c.head.playing
	c.mu.Unlock()
	// A seek while paused surfaces as a paused state signal so the
	// owner can broadcast the new position out of cadence.
	if paused {
		c.em.emit(Event{Kind: EventStateChanged, Paused: true})
	}
}

func (c *Clip) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.head.playing {
		return StatePlaying
	}
	return StatePaused
}

func (c *Clip) PlaylistIndex() int { return -1 }
func (c *Clip) PlayAt(int)        {}

func (c *Clip) Destroy() {
	c.mu.Lock()
	if c.destroyed {
		c.mu.Unlock()
		return
	}
	c.destroyed = true
	c.head.pause(c.now())
	c.mu.Unlock()
	c.em.close()
}
