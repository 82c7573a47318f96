package domain

type (
	// RoomName is the human-facing name members join by.
	RoomName string
	// RoomID keys membership and the room's shared-media slot.
	RoomID string
)

// Room is a named conference. Members, playback state and relays hang
// off its ID elsewhere; the entity itself carries only identity.
type Room struct {
	ID   RoomID
	Name RoomName
}
