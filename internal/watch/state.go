package watch

import (
	"context"

	"github.com/dverner/matinee/internal/domain"
	"github.com/dverner/matinee/internal/player"
)

type SessionState int

const (
	Inactive SessionState = iota
	Starting
	ActiveLocalOwner
	ActiveRemoteOwner
	Stopping
)

func (s SessionState) String() string {
	switch s {
	case Starting:
		return "starting"
	case ActiveLocalOwner:
		return "active_local_owner"
	case ActiveRemoteOwner:
		return "active_remote_owner"
	case Stopping:
		return "stopping"
	default:
		return "inactive"
	}
}

func (s SessionState) Active() bool {
	return s == ActiveLocalOwner || s == ActiveRemoteOwner
}

// session is the per-conference shared-media record. There is at most
// one; it exists from start acceptance until teardown completes.
type session struct {
	url     string
	ownerID domain.UserID
	state   SessionState
	player  player.Controller

	// pending buffers attributes received before the player became
	// ready. It is applied exactly once on activation, then cleared.
	pending *Attributes

	// lastPlayerErr is retained when the backend fails before ready, so
	// a later stop can still account for the partial player instance.
	lastPlayerErr error

	// gen ties backend events to this session; events from a torn-down
	// player carry a stale generation and are dropped.
	gen uint64

	cancelBroadcast context.CancelFunc
}

// takePending hands out the buffered attributes at most once.
func (s *session) takePending() *Attributes {
	a := s.pending
	s.pending = nil
	return a
}
