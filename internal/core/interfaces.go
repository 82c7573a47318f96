package core

import "github.com/dverner/matinee/internal/domain"

// Frame is a raw binary payload (signal envelope or audio frame).
type Frame []byte

type SessionID string

// SignalConnection abstracts a system messaging transport.
// Owned by the adapter; the adapter must Close() it.
type SignalConnection interface {
	TrySend(Frame) error
	Close()
}

// PublishResult reports delivery stats/backpressure to orchestrator.
type PublishResult struct {
	SendTo  int
	Dropped []MemberSession
}

// MemberDTO is a read-only view for APIs (no transport fields).
type MemberDTO struct {
	ID       domain.UserID `json:"id"`
	Username string        `json:"username"`
	Muted    bool          `json:"muted"`
}

// SharedMedia describes the media session currently shared into a room.
// OwnerID is the only participant allowed to update or clear it.
type SharedMedia struct {
	OwnerSID SessionID
	OwnerID  domain.UserID
	URL      string
}

// RoomService is the core-facing API of a room.
// It owns the membership set but never touches transport resources.
type RoomService interface {
	Room() *domain.Room
	MemberCount() int
	MembersSnapshot() []MemberDTO

	AddMember(sid SessionID, ms MemberSession)
	RemoveMember(sid SessionID)
	Broadcast(from SessionID, data Frame) PublishResult

	// SetSharedMedia claims the room's single shared-media slot.
	// Returns false when another owner already holds it.
	SetSharedMedia(sm SharedMedia) bool
	SharedMedia() (SharedMedia, bool)
	// ClearSharedMedia releases the slot; only the owner may release it.
	ClearSharedMedia(owner domain.UserID) bool
}

type RoomInfo struct {
	ID          domain.RoomID   `json:"id"`
	Name        domain.RoomName `json:"name"`
	MemberCount int             `json:"client_count"`
}

type RoomManager interface {
	GetOrCreate(name domain.RoomName) RoomService
	GetRoom(id domain.RoomID) (RoomService, bool)
	List() []RoomInfo
	StopRoom(id domain.RoomID)
}
