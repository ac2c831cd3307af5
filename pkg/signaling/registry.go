package signaling

import (
	"fmt"
	"sync"
)

// Connection is the signaling view of one transport connection.
type Connection struct {
	ID    ConnID
	Room  string
	Role  Role
	State State
}

// Registry maps live connection ids to their room, role and state.
// Values are stored by copy so callers never share mutable state.
type Registry struct {
	mu    sync.RWMutex
	conns map[ConnID]Connection
}

func NewRegistry() *Registry {
	return &Registry{conns: make(map[ConnID]Connection)}
}

// Register adds an unassigned connection. Registering a known id resets it.
func (r *Registry) Register(id ConnID) Connection {
	c := Connection{ID: id, Role: Unassigned, State: StateUnassigned}
	r.mu.Lock()
	r.conns[id] = c
	r.mu.Unlock()
	return c
}

func (r *Registry) Lookup(id ConnID) (Connection, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.conns[id]
	if !ok {
		return Connection{}, fmt.Errorf("%w: connection %s", ErrNotFound, id)
	}
	return c, nil
}

// SetRoom assigns a room and role and moves the connection to StateJoined.
func (r *Registry) SetRoom(id ConnID, room string, role Role) error {
	return r.update(id, func(c *Connection) {
		c.Room = room
		c.Role = role
		c.State = StateJoined
	})
}

func (r *Registry) SetState(id ConnID, state State) error {
	return r.update(id, func(c *Connection) { c.State = state })
}

// Unregister removes the connection and returns its last known value.
// It is a no-op reporting false when the id is already gone.
func (r *Registry) Unregister(id ConnID) (Connection, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.conns[id]
	if !ok {
		return Connection{}, false
	}
	delete(r.conns, id)
	c.State = StateDisconnected
	return c, true
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

func (r *Registry) update(id ConnID, fn func(*Connection)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.conns[id]
	if !ok {
		return fmt.Errorf("%w: connection %s", ErrNotFound, id)
	}
	fn(&c)
	r.conns[id] = c
	return nil
}
