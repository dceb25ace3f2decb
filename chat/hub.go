package chat

import (
	"time"

	"github.com/rs/zerolog"
)

// Hub ties the registry and the room store together and runs every room
// operation. Each operation holds at most one room lock and never blocks
// on a connection while holding it.
type Hub struct {
	registry *Registry
	store    *Store
	limiter  *limiter
	metrics  *Metrics
	logger   zerolog.Logger
	now      func() time.Time
}

func NewHub(registry *Registry, store *Store, metrics *Metrics, logger zerolog.Logger) *Hub {
	return &Hub{
		registry: registry,
		store:    store,
		limiter:  newLimiter(MinMessageInterval),
		metrics:  metrics,
		logger:   logger,
		now:      time.Now,
	}
}

// Connect registers a new live connection.
func (h *Hub) Connect(id ConnID, sink Sink) error {
	if err := h.registry.Register(id, sink); err != nil {
		return err
	}
	h.metrics.connectionOpened()
	h.logger.Debug().Str("conn", string(id)).Msg("Connection registered")
	return nil
}

// Identity is the server-side record for id.
func (h *Hub) Identity(id ConnID) (Identity, bool) {
	return h.registry.Identity(id)
}

// CloseAll closes every live connection and refuses new ones. Each
// transport then runs Disconnect for its own connection.
func (h *Hub) CloseAll() {
	for _, sink := range h.registry.close() {
		sink.Close()
	}
}

// RoomSummary is a read-only view of a room for operators.
type RoomSummary struct {
	Name        string `json:"name"`
	Members     int    `json:"members"`
	HostID      ConnID `json:"hostId"`
	Locked      bool   `json:"locked"`
	HistorySize int    `json:"historySize"`
}

func (h *Hub) Rooms() []RoomSummary {
	rooms := h.store.list()
	summaries := make([]RoomSummary, 0, len(rooms))
	for _, room := range rooms {
		room.lock.Lock()
		if !room.removed {
			summaries = append(summaries, RoomSummary{
				Name:        room.Name,
				Members:     len(room.members),
				HostID:      room.hostID,
				Locked:      room.password != "",
				HistorySize: len(room.history),
			})
		}
		room.lock.Unlock()
	}
	return summaries
}
