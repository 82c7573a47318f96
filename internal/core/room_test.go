package core

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dverner/matinee/internal/domain"
)

type fakeSignal struct {
	frames []Frame
	err    error
	closed bool
}

func (f *fakeSignal) TrySend(data Frame) error {
	if f.err != nil {
		return f.err
	}
	f.frames = append(f.frames, data)
	return nil
}

func (f *fakeSignal) Close() { f.closed = true }

func addMember(t *testing.T, r RoomService, sid SessionID, uid domain.UserID) *fakeSignal {
	t.Helper()
	conn := &fakeSignal{}
	user := &domain.User{ID: uid, Username: "guest"}
	r.AddMember(sid, NewMemberSession(domain.NewMember(user)).UpdateSignal(conn))
	return conn
}

func newTestRoom() RoomService {
	return NewRoomService(&domain.Room{ID: "room-1", Name: "movie night"})
}

func TestBroadcastExcludesSender(t *testing.T) {
	r := newTestRoom()
	connA := addMember(t, r, "sid-a", "user-a")
	connB := addMember(t, r, "sid-b", "user-b")
	connC := addMember(t, r, "sid-c", "user-c")

	res := r.Broadcast("sid-a", Frame(`{"type":"media"}`))

	assert.Equal(t, 2, res.SendTo)
	assert.Empty(t, res.Dropped)
	assert.Empty(t, connA.frames)
	assert.Len(t, connB.frames, 1)
	assert.Len(t, connC.frames, 1)
}

func TestBroadcastCollectsDropped(t *testing.T) {
	r := newTestRoom()
	addMember(t, r, "sid-a", "user-a")
	connB := addMember(t, r, "sid-b", "user-b")
	connB.err = errors.New("send buffer full")
	addMember(t, r, "sid-c", "user-c")

	res := r.Broadcast("sid-a", Frame(`x`))

	assert.Equal(t, 1, res.SendTo)
	require.Len(t, res.Dropped, 1)
	assert.Equal(t, domain.UserID("user-b"), res.Dropped[0].Meta().User.ID)
}

func TestSharedMediaFirstOwnerWins(t *testing.T) {
	r := newTestRoom()

	ok := r.SetSharedMedia(SharedMedia{OwnerSID: "sid-a", OwnerID: "user-a", URL: "https://example.com/a.mp4"})
	require.True(t, ok)

	ok = r.SetSharedMedia(SharedMedia{OwnerSID: "sid-b", OwnerID: "user-b", URL: "https://example.com/b.mp4"})
	assert.False(t, ok)

	sm, active := r.SharedMedia()
	require.True(t, active)
	assert.Equal(t, domain.UserID("user-a"), sm.OwnerID)
	assert.Equal(t, "https://example.com/a.mp4", sm.URL)
}

func TestSharedMediaOwnerOnlyClear(t *testing.T) {
	r := newTestRoom()
	require.True(t, r.SetSharedMedia(SharedMedia{OwnerSID: "sid-a", OwnerID: "user-a", URL: "https://example.com/a.mp4"}))

	assert.False(t, r.ClearSharedMedia("user-b"))
	_, active := r.SharedMedia()
	assert.True(t, active)

	assert.True(t, r.ClearSharedMedia("user-a"))
	_, active = r.SharedMedia()
	assert.False(t, active)

	// Cleared slot is claimable again.
	assert.True(t, r.SetSharedMedia(SharedMedia{OwnerSID: "sid-b", OwnerID: "user-b", URL: "https://example.com/b.mp4"}))
}

func TestSharedMediaClearOnEmptySlot(t *testing.T) {
	r := newTestRoom()
	assert.False(t, r.ClearSharedMedia("user-a"))
}

func TestMembersSnapshot(t *testing.T) {
	r := newTestRoom()
	addMember(t, r, "sid-a", "user-a")
	addMember(t, r, "sid-b", "user-b")

	assert.Equal(t, 2, r.MemberCount())
	snap := r.MembersSnapshot()
	assert.Len(t, snap, 2)

	r.RemoveMember("sid-a")
	assert.Equal(t, 1, r.MemberCount())
}
