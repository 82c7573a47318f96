// Package watch implements the shared-media synchronization core: one
// participant plays an externally hosted video while every other
// participant mirrors playback over the conference message channel.
// There is no central clock; the owner broadcasts periodic snapshots
// and followers correct bounded drift against them.
package watch

import "github.com/dverner/matinee/internal/domain"

type PlayState string

const (
	StatePlaying PlayState = "playing"
	StatePaused  PlayState = "pause"
)

// Attributes is the immutable wire snapshot of the owner's player
// state. Muted is a string on the wire for compatibility with the
// original signaling format.
type Attributes struct {
	State         PlayState `json:"state"`
	Time          float64   `json:"time"`
	Muted         string    `json:"muted"`
	Volume        float64   `json:"volume"`
	PlaylistIndex int       `json:"playlistIndex"`
}

func NewAttributes(state PlayState, pos float64, muted bool, volume float64, playlistIndex int) Attributes {
	m := "false"
	if muted {
		m = "true"
	}
	return Attributes{
		State:         state,
		Time:          pos,
		Muted:         m,
		Volume:        volume,
		PlaylistIndex: playlistIndex,
	}
}

func (a Attributes) IsMuted() bool { return a.Muted == "true" }

type CommandKind string

const (
	CommandStart  CommandKind = "start"
	CommandUpdate CommandKind = "update"
	CommandStop   CommandKind = "stop"
)

// Command is a shared-media message on the conference channel.
// Attributes is optional for start, required for update, absent for
// stop.
type Command struct {
	Kind       CommandKind   `json:"kind"`
	SenderID   domain.UserID `json:"senderId"`
	URL        string        `json:"url,omitempty"`
	Attributes *Attributes   `json:"attributes,omitempty"`
}
