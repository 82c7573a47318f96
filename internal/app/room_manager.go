package app

import (
	"sync"

	"github.com/google/uuid"

	"github.com/dverner/matinee/internal/core"
	"github.com/dverner/matinee/internal/domain"
)

type RoomManagerImpl struct {
	mu     sync.RWMutex
	byID   map[domain.RoomID]core.RoomService
	byName map[domain.RoomName]domain.RoomID
}

func NewRoomManager() core.RoomManager {
	return &RoomManagerImpl{
		byID:   make(map[domain.RoomID]core.RoomService),
		byName: make(map[domain.RoomName]domain.RoomID),
	}
}

func (f *RoomManagerImpl) GetOrCreate(name domain.RoomName) core.RoomService {
	f.mu.RLock()
	id, ok := f.byName[name]
	f.mu.RUnlock()
	if ok {
		if room, found := f.GetRoom(id); found {
			return room
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if id, ok := f.byName[name]; ok {
		if room, found := f.byID[id]; found {
			return room
		}
	}
	id = domain.RoomID(uuid.NewString())
	room := core.NewRoomService(&domain.Room{ID: id, Name: name})
	f.byID[id] = room
	f.byName[name] = id
	return room
}

func (f *RoomManagerImpl) GetRoom(id domain.RoomID) (core.RoomService, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	room, ok := f.byID[id]
	return room, ok
}

func (f *RoomManagerImpl) List() []core.RoomInfo {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]core.RoomInfo, 0, len(f.byID))
	for _, room := range f.byID {
		meta := room.Room()
		out = append(out, core.RoomInfo{ID: meta.ID, Name: meta.Name, MemberCount: room.MemberCount()})
	}
	return out
}

func (f *RoomManagerImpl) StopRoom(id domain.RoomID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if room, ok := f.byID[id]; ok {
		delete(f.byName, room.Room().Name)
		delete(f.byID, id)
	}
}
