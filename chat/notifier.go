package chat

// notifyRoomState sends every member of a locked room the full room
// snapshot.
func (h *Hub) notifyRoomState(room *Room) {
	h.broadcast(room, room.info())
}

func (h *Hub) broadcast(room *Room, event Event) {
	recipients := 0
	for _, m := range room.members {
		if sink, ok := h.registry.sink(m.ID); ok {
			sink.Send(event)
			recipients++
		}
	}
	h.metrics.broadcast(recipients)
}
