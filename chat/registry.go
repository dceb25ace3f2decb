package chat

import "sync"

// Identity is what the server knows about a connection. Room is empty
// until the connection has joined one.
type Identity struct {
	Username string
	Room     string
}

type connection struct {
	sink     Sink
	identity Identity
}

// Registry maps live connection ids to their sink and identity.
type Registry struct {
	conns  map[ConnID]*connection
	closed bool
	lock   sync.RWMutex
}

func NewRegistry() *Registry {
	return &Registry{conns: make(map[ConnID]*connection)}
}

// Register adds a connection. It fails with ErrShuttingDown once the
// registry has been closed.
func (r *Registry) Register(id ConnID, sink Sink) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	if r.closed {
		return ErrShuttingDown
	}
	r.conns[id] = &connection{sink: sink}
	return nil
}

func (r *Registry) Identity(id ConnID) (Identity, bool) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	conn, exists := r.conns[id]
	if !exists {
		return Identity{}, false
	}
	return conn.identity, true
}

func (r *Registry) Unregister(id ConnID) {
	r.lock.Lock()
	defer r.lock.Unlock()
	delete(r.conns, id)
}

func (r *Registry) Count() int {
	r.lock.RLock()
	defer r.lock.RUnlock()
	return len(r.conns)
}

func (r *Registry) lookup(id ConnID) (Sink, Identity, bool) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	conn, exists := r.conns[id]
	if !exists {
		return nil, Identity{}, false
	}
	return conn.sink, conn.identity, true
}

func (r *Registry) sink(id ConnID) (Sink, bool) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	conn, exists := r.conns[id]
	if !exists {
		return nil, false
	}
	return conn.sink, true
}

// close stops new registrations and returns the sinks of every live
// connection.
func (r *Registry) close() []Sink {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.closed = true
	sinks := make([]Sink, 0, len(r.conns))
	for _, conn := range r.conns {
		sinks = append(sinks, conn.sink)
	}
	return sinks
}

func (r *Registry) assign(id ConnID, identity Identity) {
	r.lock.Lock()
	defer r.lock.Unlock()
	if conn, exists := r.conns[id]; exists {
		conn.identity = identity
	}
}
