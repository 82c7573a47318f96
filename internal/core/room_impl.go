package core

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/dverner/matinee/internal/domain"
)

// roomImpl is a threadsafe in-memory room.
// It never closes adapter-owned resources.
type roomImpl struct {
	room   *domain.Room
	mu     sync.RWMutex
	bySID  map[SessionID]MemberSession
	byUser map[domain.UserID]SessionID

	shared    SharedMedia
	sharedSet bool
}

func NewRoomService(room *domain.Room) RoomService {
	return &roomImpl{
		room:   room,
		bySID:  make(map[SessionID]MemberSession),
		byUser: make(map[domain.UserID]SessionID),
	}
}

func (r *roomImpl) Room() *domain.Room { return r.room }

func (r *roomImpl) MemberCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.bySID)
}

func (r *roomImpl) AddMember(sid SessionID, ms MemberSession) {
	u := ms.Meta().User.ID
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bySID[sid] = ms
	r.byUser[u] = sid
	log.Info().Str("module", "core.room").Str("sid", string(sid)).Str("user", string(u)).Msg("member added")
}

func (r *roomImpl) RemoveMember(sid SessionID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ms, ok := r.bySID[sid]; ok {
		u := ms.Meta().User.ID
		delete(r.byUser, u)
	}
	delete(r.bySID, sid)
	log.Info().Str("module", "core.room").Str("sid", string(sid)).Msg("member removed")
}

func (r *roomImpl) Broadcast(from SessionID, data Frame) PublishResult {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res := PublishResult{}
	for sid, m := range r.bySID {
		if sid == from {
			continue
		}
		if err := m.Signal().TrySend(data); err != nil {
			res.Dropped = append(res.Dropped, m)
			continue
		}
		res.SendTo++
	}
	log.Debug().Str("module", "core.room").Str("from", string(from)).Int("sent_to", res.SendTo).Int("dropped", len(res.Dropped)).Msg("broadcast result")
	return res
}

func (r *roomImpl) MembersSnapshot() []MemberDTO {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]MemberDTO, 0, len(r.bySID))
	for _, ms := range r.bySID {
		meta := ms.Meta()
		out = append(out, MemberDTO{ID: meta.User.ID, Username: meta.User.Username, Muted: meta.Mute})
	}
	return out
}

// SetSharedMedia claims the single shared-media slot. First owner wins;
// a second claim while one is active is rejected.
func (r *roomImpl) SetSharedMedia(sm SharedMedia) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sharedSet {
		log.Debug().Str("module", "core.room").Str("owner", string(r.shared.OwnerID)).Str("rejected", string(sm.OwnerID)).Msg("shared media already active")
		return false
	}
	r.shared = sm
	r.sharedSet = true
	log.Info().Str("module", "core.room").Str("owner", string(sm.OwnerID)).Str("url", sm.URL).Msg("shared media set")
	return true
}

func (r *roomImpl) SharedMedia() (SharedMedia, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.shared, r.sharedSet
}

func (r *roomImpl) ClearSharedMedia(owner domain.UserID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.sharedSet || r.shared.OwnerID != owner {
		return false
	}
	r.shared = SharedMedia{}
	r.sharedSet = false
	log.Info().Str("module", "core.room").Str("owner", string(owner)).Msg("shared media cleared")
	return true
}
