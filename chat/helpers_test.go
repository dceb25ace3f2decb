package chat

import (
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

type fakeSink struct {
	mu     sync.Mutex
	events []Event
	closed bool
}

func (s *fakeSink) Send(event Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
}

func (s *fakeSink) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

func (s *fakeSink) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *fakeSink) all() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Event(nil), s.events...)
}

func (s *fakeSink) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = nil
}

func eventsOf[T Event](s *fakeSink) []T {
	var out []T
	for _, e := range s.all() {
		if typed, ok := e.(T); ok {
			out = append(out, typed)
		}
	}
	return out
}

type fataler interface {
	Helper()
	Fatalf(format string, args ...any)
}

func lastOf[T Event](t fataler, s *fakeSink) T {
	t.Helper()
	events := eventsOf[T](s)
	if len(events) == 0 {
		var zero T
		t.Fatalf("no %s event received", zero.EventName())
	}
	return events[len(events)-1]
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func newTestHub() (*Hub, *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	hub := NewHub(NewRegistry(), NewStore(), NewMetrics(prometheus.NewRegistry()), zerolog.Nop())
	hub.now = clock.now
	return hub, clock
}

func connect(h *Hub, id ConnID) *fakeSink {
	sink := &fakeSink{}
	if err := h.Connect(id, sink); err != nil {
		panic(err)
	}
	return sink
}

func members(t *testing.T, h *Hub, roomname string) []Member {
	t.Helper()
	room, ok := h.store.lockRoom(roomname)
	if !ok {
		t.Fatalf("room %q does not exist", roomname)
	}
	defer room.lock.Unlock()
	return append([]Member(nil), room.members...)
}

func usernames(ms []Member) []string {
	names := make([]string, 0, len(ms))
	for _, m := range ms {
		names = append(names, m.Username)
	}
	return names
}
