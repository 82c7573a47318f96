package orch

import (
	"github.com/dverner/matinee/internal/app"
	"github.com/dverner/matinee/internal/app/sfu"
	"github.com/dverner/matinee/internal/core"
	"github.com/dverner/matinee/internal/domain"
)

type Orchestrator struct {
	Registry *app.Registry
	Rooms    core.RoomManager
	Policy   app.Policy
	Relays   *sfu.RelayManager
}

// Publish fans a signal frame out to everyone else in sid's room and
// applies the backpressure policy to members that could not keep up.
func (o *Orchestrator) Publish(sid core.SessionID, data core.Frame) {
	roomID, _, ok := o.Registry.RoomOf(sid)
	if !ok {
		return
	}
	room, ok := o.Rooms.GetRoom(roomID)
	if !ok {
		return
	}

	res := room.Broadcast(sid, data)
	if o.Policy == nil {
		return
	}
	for _, slow := range res.Dropped {
		switch o.Policy.OnBackPressure(room, slow) {
		case app.KickMember:
			for _, snap := range o.Registry.MembersOfRoom(roomID) {
				if snap.Session == slow {
					o.KickBySID(snap.SID)
				}
			}
		case app.MarkSlow, app.DropFrame, app.NoAction:
		}
	}
}

// RoomService resolves sid's current room, if any.
func (o *Orchestrator) RoomService(sid core.SessionID) (core.RoomService, bool) {
	roomID, _, ok := o.Registry.RoomOf(sid)
	if !ok {
		return nil, false
	}
	return o.Rooms.GetRoom(roomID)
}

// UserOf resolves the domain user bound to a session.
func (o *Orchestrator) UserOf(sid core.SessionID) *domain.User {
	return o.Registry.GetOrCreateUser(sid)
}
