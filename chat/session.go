package chat

import "strings"

// Join puts connection id into roomname under username, creating the room
// with id as host when it does not exist yet. A wrong password for an
// existing room is reported to the joiner with an errorMsg and leaves the
// room untouched.
func (h *Hub) Join(id ConnID, username, roomname, password string) error {
	if strings.TrimSpace(username) == "" || strings.TrimSpace(roomname) == "" {
		return ErrInvalidJoin
	}
	sink, identity, exists := h.registry.lookup(id)
	if !exists {
		return ErrUnknownConnection
	}
	if identity.Room != "" {
		return ErrAlreadyJoined
	}

	room, created := h.store.GetOrCreate(roomname, password, id)
	defer room.lock.Unlock()
	logger := h.roomLogger(id, roomname)

	if created {
		logger.CreatedRoom()
		h.metrics.roomCreated()
	} else if !room.CheckPassword(password) {
		err := &PasswordError{Room: roomname}
		sink.Send(ErrorMsg{Text: err.userMessage()})
		logger.PasswordRejected()
		h.metrics.passwordRejected()
		return err
	}

	name := room.uniqueName(username)
	room.addMember(Member{ID: id, Username: name})
	h.registry.assign(id, Identity{Username: name, Room: roomname})

	sink.Send(JoinSuccess{
		MyUsername: name,
		Roomname:   roomname,
		IsHost:     room.isHost(id),
		Password:   passwordField(room.password),
		History:    room.historySnapshot(),
	})
	h.announce(room, name+" joined")
	h.notifyRoomState(room)

	logger.JoinedRoom(name)
	h.metrics.joined()
	return nil
}

// Disconnect runs the leave protocol for a closed connection and forgets
// it. It is safe to call for connections that never joined or are already
// gone.
func (h *Hub) Disconnect(id ConnID) {
	h.limiter.forget(id)

	identity, exists := h.registry.Identity(id)
	if !exists {
		return
	}
	defer func() {
		h.registry.Unregister(id)
		h.metrics.connectionClosed()
	}()
	if identity.Room == "" {
		return
	}

	room, exists := h.store.lockRoom(identity.Room)
	if !exists {
		return
	}
	defer room.lock.Unlock()
	h.leave(room, id)
}

// leave removes id from a locked room, hands the host role to the earliest
// remaining member and drops the room once nobody is left.
func (h *Hub) leave(room *Room, id ConnID) {
	member, ok := room.removeMember(id)
	if !ok {
		return
	}
	logger := h.roomLogger(id, room.Name)
	logger.LeftRoom(member.Username)
	h.announce(room, member.Username+" left")

	if len(room.members) == 0 {
		h.store.Delete(room.Name)
		logger.RemovingRoom()
		h.metrics.roomRemoved(false)
		return
	}
	if room.isHost(id) {
		room.hostID = room.members[0].ID
		logger.HostChanged(room.hostID)
	}
	h.notifyRoomState(room)
}

// hostRoom returns the room requester is hosting, locked.
func (h *Hub) hostRoom(requester ConnID) (*Room, error) {
	identity, exists := h.registry.Identity(requester)
	if !exists || identity.Room == "" {
		return nil, ErrNotMember
	}
	room, exists := h.store.lockRoom(identity.Room)
	if !exists {
		return nil, ErrNotMember
	}
	if _, ok := room.member(requester); !ok {
		room.lock.Unlock()
		return nil, ErrNotMember
	}
	if !room.isHost(requester) {
		room.lock.Unlock()
		return nil, ErrNotAuthorized
	}
	return room, nil
}

// Kick tells target it was kicked and closes its connection. The transport
// then calls Disconnect for it, which removes it from the room.
func (h *Hub) Kick(requester, target ConnID) error {
	room, err := h.hostRoom(requester)
	if err != nil {
		return err
	}
	defer room.lock.Unlock()

	if _, ok := room.member(target); !ok {
		return ErrUnknownTarget
	}
	sink, ok := h.registry.sink(target)
	if !ok {
		return ErrUnknownTarget
	}
	sink.Send(Kicked{})
	sink.Close()

	h.roomLogger(requester, room.Name).Kicked(target)
	h.metrics.kicked()
	return nil
}

func (h *Hub) Promote(requester, target ConnID) error {
	room, err := h.hostRoom(requester)
	if err != nil {
		return err
	}
	defer room.lock.Unlock()

	if _, ok := room.member(target); !ok {
		return ErrUnknownTarget
	}
	room.hostID = target
	h.notifyRoomState(room)

	h.roomLogger(requester, room.Name).HostChanged(target)
	return nil
}

// DeleteRoom removes the requester's room and closes every member. The
// members are detached first so their disconnects do nothing more.
func (h *Hub) DeleteRoom(requester ConnID) error {
	room, err := h.hostRoom(requester)
	if err != nil {
		return err
	}
	defer room.lock.Unlock()

	h.broadcast(room, RoomDeleted{})
	members := room.members
	room.members = make([]Member, 0)
	h.store.Delete(room.Name)

	for _, m := range members {
		h.registry.assign(m.ID, Identity{})
		if sink, ok := h.registry.sink(m.ID); ok {
			sink.Close()
		}
	}

	h.roomLogger(requester, room.Name).RemovingRoom()
	h.metrics.roomRemoved(true)
	return nil
}

// UpdatePassword sets the room password; an empty one makes the room public.
func (h *Hub) UpdatePassword(requester ConnID, password string) error {
	room, err := h.hostRoom(requester)
	if err != nil {
		return err
	}
	defer room.lock.Unlock()

	room.password = password
	h.notifyRoomState(room)

	status := "unlocked, the room is now public"
	if password != "" {
		status = "locked with a password"
	}
	h.announce(room, "Room settings changed: "+status)

	h.roomLogger(requester, room.Name).PasswordChanged(password != "")
	return nil
}
