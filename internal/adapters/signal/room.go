package signal

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/dverner/matinee/internal/core"
	"github.com/dverner/matinee/internal/domain"
)

func (ctl *SignalWSController) handleJoin(
	sid core.SessionID,
	conn *wsSignalConn,
	data []byte,
) {
	type joinPayload struct {
		Type string `json:"type"`
		Room string `json:"room"`
		Name string `json:"name,omitempty"`
	}
	var p joinPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad join payload")
		ctl.sendJSON(conn, map[string]any{
			"type":  "error",
			"error": "bad_payload",
		})
		return
	}
	if p.Room == "" {
		ctl.sendJSON(conn, map[string]any{
			"type":  "error",
			"error": "empty room",
		})
		return
	}

	if p.Name != "" {
		if err := ctl.Orch.Registry.UpdateUsername(sid, p.Name); err != nil {
			log.Warn().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("rename on join rejected")
		}
	}

	log.Info().Str("module", "signal").Str("sid", string(sid)).Str("room", p.Room).Msg("join")
	// Switching rooms ends any share the member owns in the old room.
	ctl.releaseSharedMedia(sid)
	room, ok := ctl.Orch.Join(sid, domain.RoomName(p.Room))
	if !ok {
		ctl.sendJSON(conn, map[string]any{
			"type":  "error",
			"error": "join failed",
		})
		return
	}

	clientResp := struct {
		Type     string           `json:"type"`
		Room     domain.RoomID    `json:"room"`
		RoomName domain.RoomName  `json:"room_name"`
		Members  []core.MemberDTO `json:"members"`
		Count    int              `json:"count"`
	}{
		Type:     "room_state",
		Room:     room.Room().ID,
		RoomName: room.Room().Name,
		Members:  room.MembersSnapshot(),
		Count:    room.MemberCount(),
	}
	ctl.sendJSON(conn, clientResp)

	// Late joiners receive the room's active shared media right away.
	ctl.replaySharedMedia(room, conn)

	user := ctl.Orch.Registry.GetOrCreateUser(sid)
	broadcastResp := struct {
		Type string      `json:"type"`
		User domain.User `json:"user"`
	}{
		Type: "member_joined",
		User: *user,
	}
	ctl.BroadcastFrom(sid, broadcastResp)
}

// handleLeave leaves the current room; the connection stays open.
func (ctl *SignalWSController) handleLeave(
	sid core.SessionID,
	conn *wsSignalConn,
) {
	log.Info().Str("module", "signal").Str("sid", string(sid)).Msg("leave")
	roomID, _, ok := ctl.Orch.Registry.RoomOf(sid)

	ctl.releaseSharedMedia(sid)
	ctl.Orch.KickBySID(sid)
	ctl.sendJSON(conn, map[string]any{
		"type": "left",
	})

	if ok {
		user := ctl.Orch.Registry.GetOrCreateUser(sid)
		broadcastResp := struct {
			Type string      `json:"type"`
			User domain.User `json:"user"`
		}{
			Type: "member_left",
			User: *user,
		}
		ctl.BroadcastRoom(roomID, broadcastResp)
	}
}

func (ctl *SignalWSController) onDisconnect(sid core.SessionID) {
	roomID, _, inRoom := ctl.Orch.Registry.RoomOf(sid)

	ctl.releaseSharedMedia(sid)
	ctl.Orch.KickBySID(sid)
	ctl.Orch.OnMediaDisconnect(sid)
	ctl.Orch.Registry.Unbind(sid)

	if inRoom {
		user := ctl.Orch.Registry.GetOrCreateUser(sid)
		broadcastResp := struct {
			Type string      `json:"type"`
			User domain.User `json:"user"`
		}{
			Type: "member_left",
			User: *user,
		}
		ctl.BroadcastRoom(roomID, broadcastResp)
	}
}
