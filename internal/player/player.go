// Package player presents one uniform control surface over the two
// playback backends a shared-media session can drive: a direct media
// clip and a streaming-service embed. Backend callbacks are normalized
// into a small set of signals delivered to an instance-scoped handler,
// never to shared global state.
package player

type State int

const (
	StatePaused State = iota
	StatePlaying
)

func (s State) String() string {
	if s == StatePlaying {
		return "playing"
	}
	return "paused"
}

type EventKind int

const (
	// EventReady fires once the backend finished initializing. It may
	// arrive arbitrarily late, or never; an EventError governs cleanup
	// in that case.
	EventReady EventKind = iota
	// EventStateChanged fires on play/pause transitions and on a seek
	// performed while paused.
	EventStateChanged
	EventVolumeChanged
	EventError
)

// Event is a normalized backend signal. Paused is meaningful only for
// EventStateChanged, Err only for EventError.
type Event struct {
	Kind   EventKind
	Paused bool
	Err    error
}

// Handler receives events on a goroutine owned by the backend instance.
type Handler func(Event)

// Controller is the capability surface of a playback backend.
// Calls are synchronous and expected to return promptly. After Destroy
// no further calls may be made.
type Controller interface {
	Play()
	Pause()
	IsMuted() bool
	Mute()
	Unmute()
	Volume() float64
	SetVolume(v float64)
	Position() float64
	SeekTo(pos float64)
	State() State
	// PlaylistIndex returns -1 for backends without playlist support.
	PlaylistIndex() int
	// PlayAt switches to the given playlist entry; no-op for
	// non-playlist backends.
	PlayAt(index int)
	Title() string
	Destroy()
}

// New selects a backend by URL classification: known streaming-service
// link shapes get the embed backend, everything else is treated as a
// direct media clip (optionally bundled with captions and a title).
func New(rawURL string, h Handler) Controller {
	if id, ok := TubeID(rawURL); ok {
		return NewTube(id, h)
	}
	return NewClip(rawURL, h)
}
