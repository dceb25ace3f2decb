package chat

import (
	"slices"
	"strings"
	"sync"
)

// Store maps room names to rooms. Rooms are created by the first joiner and
// removed when they empty out or their host deletes them.
type Store struct {
	rooms map[string]*Room
	lock  sync.RWMutex
}

func NewStore() *Store {
	return &Store{rooms: make(map[string]*Room)}
}

// GetOrCreate returns the room called name, creating it with requester as
// host and the given password when absent. The password of an existing
// room is never touched. The returned room is locked; created reports
// whether it is new.
func (s *Store) GetOrCreate(name, password string, requester ConnID) (room *Room, created bool) {
	for {
		s.lock.Lock()
		room, exists := s.rooms[name]
		if !exists {
			room = newRoom(name, password, requester)
			room.lock.Lock()
			s.rooms[name] = room
			s.lock.Unlock()
			return room, true
		}
		s.lock.Unlock()

		room.lock.Lock()
		if !room.removed {
			return room, false
		}
		room.lock.Unlock()
	}
}

func (s *Store) Get(name string) (*Room, bool) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	room, exists := s.rooms[name]
	return room, exists
}

// Delete removes name from the store and marks the room removed. The caller
// holds the room's lock.
func (s *Store) Delete(name string) {
	s.lock.Lock()
	defer s.lock.Unlock()
	if room, exists := s.rooms[name]; exists {
		room.removed = true
		delete(s.rooms, name)
	}
}

func (s *Store) Count() int {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return len(s.rooms)
}

// lockRoom returns the named room locked, or false if it does not exist.
func (s *Store) lockRoom(name string) (*Room, bool) {
	room, exists := s.Get(name)
	if !exists {
		return nil, false
	}
	room.lock.Lock()
	if room.removed {
		room.lock.Unlock()
		return nil, false
	}
	return room, true
}

func (s *Store) list() []*Room {
	s.lock.RLock()
	defer s.lock.RUnlock()
	rooms := make([]*Room, 0, len(s.rooms))
	for _, room := range s.rooms {
		rooms = append(rooms, room)
	}
	slices.SortFunc(rooms, func(a, b *Room) int { return strings.Compare(a.Name, b.Name) })
	return rooms
}
