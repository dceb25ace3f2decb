package chat

import (
	"slices"
	"strconv"
	"sync"
)

// HistoryCapacity is how many messages a room keeps for new joiners.
const HistoryCapacity = 20

// Room is the state of one named room. All fields behind lock; a room that
// has been removed from the store is never mutated again.
type Room struct {
	Name string

	lock     sync.Mutex
	password string
	hostID   ConnID
	members  []Member
	history  []Message
	removed  bool
}

func newRoom(name, password string, host ConnID) *Room {
	return &Room{
		Name:     name,
		password: password,
		hostID:   host,
		members:  make([]Member, 0),
		history:  make([]Message, 0, HistoryCapacity),
	}
}

// CheckPassword reports whether supplied opens the room. A public room
// accepts anything.
func (r *Room) CheckPassword(supplied string) bool {
	return r.password == "" || r.password == supplied
}

func (r *Room) isHost(id ConnID) bool {
	return r.hostID == id
}

func (r *Room) member(id ConnID) (Member, bool) {
	for _, m := range r.members {
		if m.ID == id {
			return m, true
		}
	}
	return Member{}, false
}

func (r *Room) nameTaken(name string) bool {
	return slices.ContainsFunc(r.members, func(m Member) bool { return m.Username == name })
}

// uniqueName returns name, or name-2, name-3, ... whichever is first free.
func (r *Room) uniqueName(name string) string {
	final := name
	for counter := 2; r.nameTaken(final); counter++ {
		final = name + "-" + strconv.Itoa(counter)
	}
	return final
}

func (r *Room) addMember(m Member) {
	r.members = append(r.members, m)
}

func (r *Room) removeMember(id ConnID) (Member, bool) {
	for i, m := range r.members {
		if m.ID == id {
			r.members = slices.Delete(r.members, i, i+1)
			return m, true
		}
	}
	return Member{}, false
}

func (r *Room) appendHistory(msg Message) {
	if len(r.history) == HistoryCapacity {
		r.history = slices.Delete(r.history, 0, 1)
	}
	r.history = append(r.history, msg)
}

func (r *Room) historySnapshot() []Message {
	return slices.Clone(r.history)
}

func (r *Room) info() RoomInfo {
	return RoomInfo{
		Roomname: r.Name,
		Users:    slices.Clone(r.members),
		HostID:   r.hostID,
		Password: passwordField(r.password),
	}
}
