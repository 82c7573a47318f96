package player

import (
	"sync"
	"time"
)

// Tube is the streaming-service embed backend. It carries either a
// single video id or a playlist id, in which case the playlist index is
// part of the synchronized state.
type Tube struct {
	mu       sync.Mutex
	id       string
	playlist bool
	index    int

	head      playhead
	muted     bool
	volume    float64
	destroyed bool

	em  *emitter
	now func() time.Time
}

func NewTube(id string, h Handler) *Tube {
	t := &Tube{
		id:       id,
		playlist: IsPlaylistID(id),
		volume:   1.0,
		em:       newEmitter(h),
		now:      time.Now,
	}
	t.em.emit(Event{Kind: EventReady})
	return t
}

func (t *Tube) ID() string { return t.id }

func (t *Tube) Title() string { return "" }

func (t *Tube) Play() {
	t.mu.Lock()
	if t.destroyed || t.head.playing {
		t.mu.Unlock()
		return
	}
	t.head.play(t.now())
	t.mu.Unlock()
	t.em.emit(Event{Kind: EventStateChanged, Paused: false})
}

func (t *Tube) Pause() {
	t.mu.Lock()
	if t.destroyed || !t.head.playing {
		t.mu.Unlock()
		return
	}
	t.head.pause(t.now())
	t.mu.Unlock()
	t.em.emit(Event{Kind: EventStateChanged, Paused: true})
}

func (t *Tube) IsMuted() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.muted
}

func (t *Tube) Mute()   { t.setMuted(true) }
func (t *Tube) Unmute() { t.setMuted(false) }

func (t *Tube) setMuted(muted bool) {
	t.mu.Lock()
	if t.destroyed || t.muted == muted {
		t.mu.Unlock()
		return
	}
	t.muted = muted
	t.mu.Unlock()
	t.em.emit(Event{Kind: EventVolumeChanged})
}

func (t *Tube) Volume() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.volume
}

func (t *Tube) SetVolume(v float64) {
	if v < 0 {
		v = 0
	} else if v > 1 {
		v = 1
	}
	t.mu.Lock()
	if t.destroyed || t.volume == v {
		t.mu.Unlock()
		return
	}
	t.volume = v
	t.mu.Unlock()
	t.em.emit(Event{Kind: EventVolumeChanged})
}

func (t *Tube) Position() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.head.position(t.now())
}

func (t *Tube) SeekTo(pos float64) {
	t.mu.Lock()
	if t.destroyed {
		t.mu.Unlock()
		return
	}
	t.head.seek(pos, t.now())
	paused := !t.head.playing
	t.mu.Unlock()
	if paused {
		t.em.emit(Event{Kind: EventStateChanged, Paused: true})
	}
}

func (t *Tube) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.head.playing {
		return StatePlaying
	}
	return StatePaused
}

func (t *Tube) PlaylistIndex() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.playlist {
		return -1
	}
	return t.index
}

// PlayAt switches to another playlist entry and restarts playback from
// its beginning. No-op for single-video embeds.
func (t *Tube) PlayAt(index int) {
	t.mu.Lock()
	if t.destroyed || !t.playlist || index < 0 || t.index == index {
		t.mu.Unlock()
		return
	}
	t.index = index
	t.head.seek(0, t.now())
	t.head.play(t.now())
	t.mu.Unlock()
	t.em.emit(Event{Kind: EventStateChanged, Paused: false})
}

func (t *Tube) Destroy() {
	t.mu.Lock()
	if t.destroyed {
		t.mu.Unlock()
		return
	}
	t.destroyed = true
	t.head.pause(t.now())
	t.mu.Unlock()
	t.em.close()
}
