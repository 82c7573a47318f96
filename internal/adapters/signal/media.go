package signal

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/dverner/matinee/internal/core"
	"github.com/dverner/matinee/internal/domain"
	"github.com/dverner/matinee/internal/watch"
)

// mediaEnvelope is a watch.Command wrapped in the signal "type" field.
type mediaEnvelope struct {
	Type       string            `json:"type"`
	Kind       watch.CommandKind `json:"kind"`
	SenderID   domain.UserID     `json:"senderId"`
	URL        string            `json:"url,omitempty"`
	Attributes *watch.Attributes `json:"attributes,omitempty"`
}

// handleMedia validates a shared-media command against the room's
// single ownership slot and relays it to the other members. The room
// keeps start/stop bookkeeping so late joiners can be caught up and a
// departing owner's session can be torn down.
func (ctl *SignalWSController) handleMedia(
	sid core.SessionID,
	conn *wsSignalConn,
	data []byte,
) {
	var env mediaEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad media payload")
		ctl.sendJSON(conn, map[string]any{
			"type":  "error",
			"error": "bad_payload",
		})
		return
	}

	user := ctl.Orch.Registry.GetOrCreateUser(sid)
	// The sender id is stamped server side so a member cannot speak for
	// another owner.
	env.SenderID = user.ID

	room, ok := ctl.Orch.RoomService(sid)
	if !ok {
		log.Warn().Str("module", "signal").Str("sid", string(sid)).Msg("media: not in a room")
		return
	}

	if !ctl.limiter.Allow(user.ID) {
		log.Warn().Str("module", "signal").Str("sid", string(sid)).Msg("media: rate limited")
		return
	}

	switch env.Kind {
	case watch.CommandStart:
		claimed := room.SetSharedMedia(core.SharedMedia{
			OwnerSID: sid,
			OwnerID:  user.ID,
			URL:      env.URL,
		})
		if !claimed {
			log.Debug().Str("module", "signal").Str("sid", string(sid)).Msg("media: slot already owned, start dropped")
			return
		}
		log.Info().Str("module", "signal").Str("sid", string(sid)).Str("url", env.URL).Msg("media: start")

	case watch.CommandUpdate:
		sm, active := room.SharedMedia()
		if !active {
			// An update without a preceding start still claims the slot;
			// followers treat it as an implicit start too.
			if !room.SetSharedMedia(core.SharedMedia{OwnerSID: sid, OwnerID: user.ID, URL: env.URL}) {
				return
			}
		} else if sm.OwnerID != user.ID {
			log.Debug().Str("module", "signal").Str("sid", string(sid)).Msg("media: update from non-owner dropped")
			return
		}

	case watch.CommandStop:
		if !room.ClearSharedMedia(user.ID) {
			log.Debug().Str("module", "signal").Str("sid", string(sid)).Msg("media: stop from non-owner dropped")
			return
		}
		log.Info().Str("module", "signal").Str("sid", string(sid)).Msg("media: stop")

	default:
		log.Warn().Str("module", "signal").Str("kind", string(env.Kind)).Msg("media: unknown kind")
		return
	}

	b, err := json.Marshal(env)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("media marshal")
		return
	}
	ctl.Orch.Publish(sid, b)
}

// replaySharedMedia sends the room's active share to a single member,
// used when someone joins mid session.
func (ctl *SignalWSController) replaySharedMedia(room core.RoomService, conn *wsSignalConn) {
	sm, ok := room.SharedMedia()
	if !ok {
		return
	}
	ctl.sendJSON(conn, mediaEnvelope{
		Type:     "media",
		Kind:     watch.CommandStart,
		SenderID: sm.OwnerID,
		URL:      sm.URL,
	})
}

// releaseSharedMedia broadcasts a stop on the owner's behalf when the
// owner leaves without ending the share.
func (ctl *SignalWSController) releaseSharedMedia(sid core.SessionID) {
	room, ok := ctl.Orch.RoomService(sid)
	if !ok {
		return
	}
	sm, active := room.SharedMedia()
	if !active || sm.OwnerSID != sid {
		return
	}
	room.ClearSharedMedia(sm.OwnerID)
	log.Info().Str("module", "signal").Str("sid", string(sid)).Msg("media: owner left, releasing share")

	b, err := json.Marshal(mediaEnvelope{
		Type:     "media",
		Kind:     watch.CommandStop,
		SenderID: sm.OwnerID,
	})
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("media release marshal")
		return
	}
	ctl.Orch.Publish(sid, b)
}
