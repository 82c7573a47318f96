package orch

import (
	"context"

	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"

	"github.com/dverner/matinee/internal/core"
)

func (o *Orchestrator) BindMediaHandlers(mc core.MediaConnection, sid core.SessionID) {
	mc.OnTrack(func(trackCtx context.Context, track *webrtc.TrackRemote, receiver *webrtc.RTPReceiver) {
		o.OnTrack(trackCtx, sid, track)
	})
	mc.OnClosed(func() { o.OnMediaDisconnect(sid) })
}

func (o *Orchestrator) OnMediaDisconnect(sid core.SessionID) {
	o.cleanupMedia(sid)
}

func (o *Orchestrator) cleanupMedia(sid core.SessionID) {
	if o.Relays != nil {
		o.Relays.StopRelay(sid)

		roomID, _, ok := o.Registry.RoomOf(sid)
		if ok {
			for _, snap := range o.Registry.MembersOfRoom(roomID) {
				o.Relays.MarkSubscriberDelete(snap.SID, sid)
			}
		}
	}

	if sess, ok := o.Registry.GetSession(sid); ok {
		if mc := sess.Media(); mc != nil {
			mc.Close()
		}
	}
}

// OnTrack is called when a new remote microphone track appears for a given session.
func (o *Orchestrator) OnTrack(ctx context.Context, sid core.SessionID, track *webrtc.TrackRemote) {
	if o.Relays == nil {
		return
	}
	if sess, ok := o.Registry.GetSession(sid); !ok || sess.Media() == nil {
		return
	}
	o.Relays.StartRelay(ctx, sid, track)

	roomID, _, ok := o.Registry.RoomOf(sid)
	if !ok {
		log.Info().
			Str("module", "orch.media").
			Str("sid", string(sid)).
			Msg("OnTrack: no room for sid")
		return
	}

	// Subscribe all existing members in the room to this speaker.
	for _, snap := range o.Registry.MembersOfRoom(roomID) {
		if snap.SID == sid {
			continue
		}
		mc := snap.Session.Media()
		if mc == nil {
			continue
		}
		o.subscribe(sid, snap.SID, mc, track)
	}
}

// OnMediaReady is called when MediaConnection is attached to the session (offer/answer done).
// It subscribes this user as a subscriber to all existing relays in the same room.
func (o *Orchestrator) OnMediaReady(sid core.SessionID) {
	if o.Relays == nil {
		return
	}
	roomID, _, ok := o.Registry.RoomOf(sid)
	if !ok {
		return
	}

	sess, ok := o.Registry.GetSession(sid)
	if !ok {
		return
	}
	mc := sess.Media()
	if mc == nil {
		return
	}

	for _, snap := range o.Registry.MembersOfRoom(roomID) {
		if snap.SID == sid {
			continue
		}
		srcTrack, ok := o.Relays.SrcTrack(snap.SID)
		if !ok {
			continue
		}
		o.subscribe(snap.SID, sid, mc, srcTrack)
	}
}

// subscribe mints a local out track mirroring src's codec, attaches it to
// the subscriber's PeerConnection and registers it with the relay.
func (o *Orchestrator) subscribe(srcSID, dstSID core.SessionID, mc core.MediaConnection, src *webrtc.TrackRemote) {
	local, err := webrtc.NewTrackLocalStaticRTP(src.Codec().RTPCodecCapability, src.ID(), src.StreamID())
	if err != nil {
		log.Error().Err(err).Str("module", "orch.media").Str("src_sid", string(srcSID)).Msg("new local track")
		return
	}
	if _, err := mc.AddLocalTrack(local); err != nil {
		log.Error().Err(err).Str("module", "orch.media").Str("dst_sid", string(dstSID)).Msg("add local track")
		return
	}
	o.Relays.Subscribe(srcSID, dstSID, local)
}

// SetMicMuted records a participant's microphone state and gates their
// audio relay accordingly. Automatic requests come from the shared-media
// feedback guard; both kinds are treated the same at the relay.
func (o *Orchestrator) SetMicMuted(sid core.SessionID, muted bool) {
	if sess, ok := o.Registry.GetSession(sid); ok {
		sess.Meta().Mute = muted
	}
	if o.Relays != nil {
		o.Relays.SetMuted(sid, muted)
	}
}
