package orch

import (
	"github.com/rs/zerolog/log"

	"github.com/dverner/matinee/internal/core"
	"github.com/dverner/matinee/internal/domain"
)

func (o *Orchestrator) Join(sid core.SessionID, roomName domain.RoomName) (core.RoomService, bool) {
	if fromRoom, _, ok := o.Registry.RoomOf(sid); ok {
		o.KickBySID(sid)
		log.Info().Str("module", "orch").Str("sid", string(sid)).Str("from_room", string(fromRoom)).Msg("kicked from room")
	}
	session, ok := o.Registry.GetSession(sid)
	if !ok {
		return nil, false
	}
	room := o.Rooms.GetOrCreate(roomName)
	room.AddMember(sid, session)
	o.Registry.UpdateRoom(sid, room.Room().ID)
	log.Info().Str("module", "orch").Str("sid", string(sid)).Str("room", string(room.Room().ID)).Msg("added to room")
	return room, true
}

func (o *Orchestrator) Move(sid core.SessionID, toRoomName domain.RoomName) bool {
	fromRoomID, session, ok := o.Registry.RoomOf(sid)
	if !ok {
		return false
	}
	from, ok := o.Rooms.GetRoom(fromRoomID)
	if !ok {
		return false
	}
	toRoom := o.Rooms.GetOrCreate(toRoomName)
	if toRoom.Room().ID == fromRoomID {
		return true
	}

	// Unsubscribe from speakers in the old room, if any.
	if o.Relays != nil {
		for _, snap := range o.Registry.MembersOfRoom(fromRoomID) {
			o.Relays.MarkSubscriberDelete(snap.SID, sid)
		}
	}

	from.RemoveMember(sid)
	toRoom.AddMember(sid, session)
	ok = o.Registry.UpdateRoom(sid, toRoom.Room().ID)

	if ok {
		o.OnMediaReady(sid)
	}

	return ok
}

func (o *Orchestrator) KickBySID(sid core.SessionID) {
	o.cleanupMedia(sid)
	o.cleanupMembership(sid)
}

func (o *Orchestrator) cleanupMembership(sid core.SessionID) {
	roomID, _, ok := o.Registry.RoomOf(sid)
	if !ok {
		return
	}
	if room, ok := o.Rooms.GetRoom(roomID); ok {
		room.RemoveMember(sid)
	}
	o.Registry.RemoveRoom(sid)
}

func (o *Orchestrator) EvictRoom(id domain.RoomID) {
	for _, snap := range o.Registry.MembersOfRoom(id) {
		o.KickBySID(snap.SID)
	}
	o.Rooms.StopRoom(id)
}
