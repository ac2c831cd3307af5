package signaling

import (
	"fmt"
	"sort"
	"sync"
)

// JoinResult reports the outcome of adding a member to a room.
type JoinResult int

const (
	Accepted JoinResult = iota
	Full
)

// Room is a named rendezvous of at most RoomCapacity connections.
//
// Apart from Snapshot, Room methods assume the room lock is held, which is the
// case inside RoomTable.Update.
type Room struct {
	Name string

	mu      sync.Mutex
	members []ConnID
	caller  ConnID
	dead    bool
}

func (r *Room) Len() int { return len(r.members) }

// Members returns the members in join order.
func (r *Room) Members() []ConnID {
	return append([]ConnID(nil), r.members...)
}

func (r *Room) Has(id ConnID) bool {
	for _, m := range r.members {
		if m == id {
			return true
		}
	}
	return false
}

func (r *Room) CallerID() ConnID { return r.caller }

func (r *Room) SetCaller(id ConnID) { r.caller = id }

// Add appends id unless the room is full. The first member becomes the caller.
func (r *Room) Add(id ConnID) JoinResult {
	if r.Has(id) {
		return Accepted
	}
	if len(r.members) >= RoomCapacity {
		return Full
	}
	r.members = append(r.members, id)
	if len(r.members) == 1 {
		r.caller = id
	}
	return Accepted
}

// Remove drops id and reports whether it was a member. The caller slot is
// cleared when the caller leaves.
func (r *Room) Remove(id ConnID) bool {
	for i, m := range r.members {
		if m == id {
			r.members = append(r.members[:i], r.members[i+1:]...)
			if r.caller == id {
				r.caller = ""
			}
			return true
		}
	}
	return false
}

// Others returns every member except id.
func (r *Room) Others(id ConnID) []ConnID {
	out := make([]ConnID, 0, len(r.members))
	for _, m := range r.members {
		if m != id {
			out = append(out, m)
		}
	}
	return out
}

// RoomSnapshot is a point-in-time copy of a room.
type RoomSnapshot struct {
	Name     string   `json:"room"`
	Members  []ConnID `json:"members"`
	CallerID ConnID   `json:"callerId,omitempty"`
}

func (r *Room) Snapshot() (RoomSnapshot, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.dead {
		return RoomSnapshot{}, false
	}
	return RoomSnapshot{Name: r.Name, Members: r.Members(), CallerID: r.caller}, true
}

// RoomTable maps room names to rooms. Each room carries its own mutex; the
// table lock only guards the map. Lock order is always room then table.
type RoomTable struct {
	mu    sync.RWMutex
	rooms map[string]*Room
}

func NewRoomTable() *RoomTable {
	return &RoomTable{rooms: make(map[string]*Room)}
}

// GetOrCreate returns the live room for name, creating an empty one if needed.
func (t *RoomTable) GetOrCreate(name string) *Room {
	t.mu.Lock()
	defer t.mu.Unlock()
	r, ok := t.rooms[name]
	if !ok {
		r = &Room{Name: name}
		t.rooms[name] = r
	}
	return r
}

func (t *RoomTable) Get(name string) (*Room, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	r, ok := t.rooms[name]
	if !ok {
		return nil, fmt.Errorf("%w: room %q", ErrNotFound, name)
	}
	return r, nil
}

// Update runs fn with exclusive access to the named room. With create set a
// missing room is created first, otherwise ErrNotFound is returned. A room
// left empty by fn is removed from the table before the lock is released.
func (t *RoomTable) Update(name string, create bool, fn func(*Room) error) error {
	r, err := t.acquire(name, create)
	if err != nil {
		return err
	}
	defer t.release(r)
	return fn(r)
}

// AddMember adds id to the named room, creating the room if necessary.
func (t *RoomTable) AddMember(name string, id ConnID) JoinResult {
	var res JoinResult
	_ = t.Update(name, true, func(r *Room) error {
		res = r.Add(id)
		return nil
	})
	return res
}

// RemoveMember removes id from the named room. Unknown rooms are ignored.
func (t *RoomTable) RemoveMember(name string, id ConnID) {
	_ = t.Update(name, false, func(r *Room) error {
		r.Remove(id)
		return nil
	})
}

func (t *RoomTable) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.rooms)
}

// Snapshots returns a copy of every live room ordered by name.
func (t *RoomTable) Snapshots() []RoomSnapshot {
	t.mu.RLock()
	rooms := make([]*Room, 0, len(t.rooms))
	for _, r := range t.rooms {
		rooms = append(rooms, r)
	}
	t.mu.RUnlock()

	out := make([]RoomSnapshot, 0, len(rooms))
	for _, r := range rooms {
		if snap, ok := r.Snapshot(); ok && len(snap.Members) > 0 {
			out = append(out, snap)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// acquire returns the live room locked. A room deleted between the map
// lookup and the lock is retried so nothing lands in a detached room.
func (t *RoomTable) acquire(name string, create bool) (*Room, error) {
	for {
		var r *Room
		if create {
			r = t.GetOrCreate(name)
		} else {
			var err error
			if r, err = t.Get(name); err != nil {
				return nil, err
			}
		}
		r.mu.Lock()
		if !r.dead {
			return r, nil
		}
		r.mu.Unlock()
	}
}

func (t *RoomTable) release(r *Room) {
	if len(r.members) == 0 {
		r.dead = true
		t.mu.Lock()
		if t.rooms[r.Name] == r {
			delete(t.rooms, r.Name)
		}
		t.mu.Unlock()
	}
	r.mu.Unlock()
}
