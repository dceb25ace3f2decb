package chat

// Submit accepts a chat message from id and sends it to everyone in its
// room, the sender included. The author is always the name the server
// gave id on join.
func (h *Hub) Submit(id ConnID, kind MessageKind, text string) error {
	if kind == "" {
		kind = KindNormal
	}
	switch kind {
	case KindNormal, KindImage, KindCode:
	default:
		h.metrics.messageDropped("invalid_kind")
		return ErrInvalidKind
	}

	identity, exists := h.registry.Identity(id)
	if !exists || identity.Room == "" {
		h.metrics.messageDropped("not_member")
		return ErrNotMember
	}
	room, exists := h.store.lockRoom(identity.Room)
	if !exists {
		h.metrics.messageDropped("not_member")
		return ErrNotMember
	}
	defer room.lock.Unlock()

	member, ok := room.member(id)
	if !ok {
		h.metrics.messageDropped("not_member")
		return ErrNotMember
	}
	now := h.now()
	if !h.limiter.allow(id, now) {
		h.metrics.messageDropped("rate_limited")
		return ErrRateLimited
	}

	msg := Message{
		Type:     kind,
		Username: member.Username,
		Text:     text,
		RawTime:  Timestamp(now),
	}
	room.appendHistory(msg)
	h.broadcast(room, msg)
	h.metrics.messageAccepted(kind)
	return nil
}

// announce sends a system notice to a locked room. Notices skip the rate
// limit and are not kept in history.
func (h *Hub) announce(room *Room, text string) {
	h.broadcast(room, Message{Type: KindSystem, Text: text, RawTime: Timestamp(h.now())})
}
