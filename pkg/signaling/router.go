package signaling

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/YuarenArt/peerjam/internal/logging"
)

// Transport delivers outbound events to a single connection. Emit is called
// with a room lock held and must not block.
type Transport interface {
	Emit(to ConnID, event string, payload json.RawMessage)
}

// Router is the signaling state machine. It is the only component that
// mutates the Registry and the RoomTable.
type Router struct {
	registry  *Registry
	rooms     *RoomTable
	transport Transport
	observer  Observer
	logger    logging.Logger
}

type RouterOption func(*Router)

func WithObserver(o Observer) RouterOption {
	return func(r *Router) { r.observer = o }
}

func WithLogger(l logging.Logger) RouterOption {
	return func(r *Router) { r.logger = l }
}

func NewRouter(transport Transport, opts ...RouterOption) *Router {
	r := &Router{
		registry:  NewRegistry(),
		rooms:     NewRoomTable(),
		transport: transport,
		observer:  nopObserver{},
		logger:    logging.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (rt *Router) Registry() *Registry { return rt.registry }

func (rt *Router) Rooms() *RoomTable { return rt.rooms }

// Connect registers a new transport connection as Unassigned.
func (rt *Router) Connect(ctx context.Context, id ConnID) {
	rt.registry.Register(id)
	rt.logger.Debug(ctx, "Connection registered", "conn_id", id)
}

// Handle dispatches one inbound event. Every error it returns has already been
// logged; none of them is fatal and callers may ignore them.
func (rt *Router) Handle(ctx context.Context, id ConnID, event string, data json.RawMessage) error {
	var err error
	switch event {
	case EventJoinRoom:
		err = rt.joinRoom(id, data)
	case EventReady:
		err = rt.ready(id, data)
	case EventOffer:
		err = rt.relay(id, EventOffer, data)
	case EventAnswer:
		err = rt.relay(id, EventAnswer, data)
	case EventCandidate:
		err = rt.relay(id, EventCandidate, data)
	case EventSendMessage:
		err = rt.sendMessage(id, data)
	case EventPeerList:
		err = rt.peerList(id)
	default:
		err = fmt.Errorf("%w: unknown event %q", ErrProtocolViolation, event)
	}

	switch {
	case err == nil:
		rt.logger.Debug(ctx, "Event handled", "conn_id", id, "event", event)
	case errors.Is(err, ErrRoomFull):
		rt.logger.Info(ctx, "Join rejected", "conn_id", id, "error", err.Error())
	case errors.Is(err, ErrProtocolViolation), errors.Is(err, ErrInvalidRoomName):
		rt.observer.Violation(event)
		rt.logger.Debug(ctx, "Event ignored", "conn_id", id, "event", event, "error", err.Error())
	default:
		rt.logger.Debug(ctx, "Stale event", "conn_id", id, "event", event, "error", err.Error())
	}
	return err
}

// Disconnect removes the connection from its room and the registry. The
// remaining member, if any, is told and becomes the Caller. Safe to call more
// than once.
func (rt *Router) Disconnect(ctx context.Context, id ConnID) {
	conn, ok := rt.registry.Unregister(id)
	if !ok {
		return
	}
	if conn.Room == "" {
		rt.logger.Debug(ctx, "Connection closed", "conn_id", id)
		return
	}

	err := rt.rooms.Update(conn.Room, false, func(r *Room) error {
		if !r.Remove(id) {
			return nil
		}
		var effects []Effect
		for _, m := range r.Members() {
			r.SetCaller(m)
			// A member already unregistered is on its own way out.
			if err := rt.registry.SetRoom(m, r.Name, Caller); err != nil {
				continue
			}
			effects = append(effects, Effect{To: m, Event: EventUserDisconnected})
		}
		rt.observer.Left(r.Name, id, r.Len() == 0)
		rt.emit(effects)
		return nil
	})
	if err != nil {
		rt.logger.Warn(ctx, "Disconnect cleanup incomplete", "conn_id", id, "room", conn.Room, "error", err.Error())
		return
	}
	rt.logger.Info(ctx, "Peer left room", "conn_id", id, "room", conn.Room)
}

// Snapshot returns the named room's current members.
func (rt *Router) Snapshot(name string) (RoomSnapshot, error) {
	r, err := rt.rooms.Get(name)
	if err != nil {
		return RoomSnapshot{}, err
	}
	snap, ok := r.Snapshot()
	if !ok || len(snap.Members) == 0 {
		return RoomSnapshot{}, fmt.Errorf("%w: room %q", ErrNotFound, name)
	}
	return snap, nil
}

func (rt *Router) Snapshots() []RoomSnapshot { return rt.rooms.Snapshots() }

func (rt *Router) joinRoom(id ConnID, data json.RawMessage) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: joinRoom payload: %v", ErrProtocolViolation, err)
	}
	name, err := ValidateRoomName(raw)
	if err != nil {
		return err
	}
	conn, err := rt.registry.Lookup(id)
	if err != nil {
		return err
	}
	if conn.State != StateUnassigned {
		return fmt.Errorf("%w: joinRoom while %s in %q", ErrProtocolViolation, conn.State, conn.Room)
	}

	return rt.rooms.Update(name, true, func(r *Room) error {
		if r.Add(id) == Full {
			rt.observer.Rejected(name, id)
			rt.emit([]Effect{{To: id, Event: EventFull}})
			return fmt.Errorf("%w: %q", ErrRoomFull, name)
		}

		role, event := Callee, EventJoined
		if r.Len() == 1 {
			role, event = Caller, EventCreated
		}
		// Fails only when a disconnect already unregistered id.
		if err := rt.registry.SetRoom(id, name, role); err != nil {
			r.Remove(id)
			return err
		}
		rt.observer.Joined(name, id, role)
		rt.emit([]Effect{{To: id, Event: event}})
		return nil
	})
}

func (rt *Router) ready(id ConnID, data json.RawMessage) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return fmt.Errorf("%w: ready payload: %v", ErrProtocolViolation, err)
	}
	conn, err := rt.registry.Lookup(id)
	if err != nil {
		return err
	}
	if conn.Room == "" || conn.Room != name {
		return fmt.Errorf("%w: ready for %q from member of %q", ErrProtocolViolation, name, conn.Room)
	}

	return rt.rooms.Update(name, false, func(r *Room) error {
		conn, err := rt.registry.Lookup(id)
		if err != nil {
			return err
		}
		if conn.Role != Callee || conn.State != StateJoined || r.Len() != RoomCapacity || !r.Has(id) {
			return fmt.Errorf("%w: ready from %s/%s in room of %d", ErrProtocolViolation, conn.Role, conn.State, r.Len())
		}
		if err := rt.registry.SetState(id, StateNegotiating); err != nil {
			return err
		}

		caller := r.CallerID()
		payload, err := json.Marshal(SetCallerPayload{CallerID: caller})
		if err != nil {
			return err
		}
		var effects []Effect
		for _, m := range r.Members() {
			effects = append(effects, Effect{To: m, Event: EventSetCaller, Payload: payload})
		}
		effects = append(effects, Effect{To: caller, Event: EventReady})
		rt.emit(effects)
		return nil
	})
}

// relay forwards offer, answer and candidate payloads verbatim to the other
// member. Routing uses server-side membership only; the payload's room field
// is never read. Relays change no connection state.
func (rt *Router) relay(id ConnID, event string, data json.RawMessage) error {
	conn, err := rt.registry.Lookup(id)
	if err != nil {
		return err
	}
	if conn.Room == "" {
		return fmt.Errorf("%w: %s before joinRoom", ErrProtocolViolation, event)
	}

	return rt.rooms.Update(conn.Room, false, func(r *Room) error {
		conn, err := rt.registry.Lookup(id)
		if err != nil {
			return err
		}
		if !r.Has(id) {
			return fmt.Errorf("%w: %s not in %q", ErrNotFound, id, r.Name)
		}
		if err := relayAllowed(event, conn); err != nil {
			return err
		}
		others := r.Others(id)
		if len(others) == 0 {
			return nil
		}

		effects := make([]Effect, 0, len(others))
		for _, m := range others {
			effects = append(effects, Effect{To: m, Event: event, Payload: data})
		}
		rt.emit(effects)
		return nil
	})
}

func relayAllowed(event string, conn Connection) error {
	switch event {
	case EventOffer:
		if conn.Role != Caller {
			return fmt.Errorf("%w: offer from %s", ErrProtocolViolation, conn.Role)
		}
	case EventAnswer:
		if conn.Role != Callee {
			return fmt.Errorf("%w: answer from %s", ErrProtocolViolation, conn.Role)
		}
	case EventCandidate:
		switch conn.State {
		case StateJoined, StateNegotiating, StateConnected:
		default:
			return fmt.Errorf("%w: candidate while %s", ErrProtocolViolation, conn.State)
		}
	}
	return nil
}

func (rt *Router) sendMessage(id ConnID, data json.RawMessage) error {
	var msg SendMessagePayload
	if err := json.Unmarshal(data, &msg); err != nil {
		return fmt.Errorf("%w: sendMessage payload: %v", ErrProtocolViolation, err)
	}
	if !validChat(msg.Message) {
		return fmt.Errorf("%w: empty or oversized chat message", ErrProtocolViolation)
	}
	conn, err := rt.registry.Lookup(id)
	if err != nil {
		return err
	}
	if conn.Room == "" {
		return fmt.Errorf("%w: sendMessage before joinRoom", ErrProtocolViolation)
	}

	payload, err := json.Marshal(ReceiveMessagePayload{SenderID: id, Message: msg.Message})
	if err != nil {
		return err
	}
	return rt.rooms.Update(conn.Room, false, func(r *Room) error {
		if !r.Has(id) {
			return fmt.Errorf("%w: %s not in %q", ErrNotFound, id, r.Name)
		}
		var effects []Effect
		for _, m := range r.Others(id) {
			effects = append(effects, Effect{To: m, Event: EventReceiveMessage, Payload: payload})
		}
		rt.emit(effects)
		return nil
	})
}

// peerList answers the sender with the ids of the other members of its room.
// A connection outside any room sees an empty list.
func (rt *Router) peerList(id ConnID) error {
	conn, err := rt.registry.Lookup(id)
	if err != nil {
		return err
	}
	if conn.Room == "" {
		rt.emit([]Effect{{To: id, Event: EventPeerList, Payload: json.RawMessage(`[]`)}})
		return nil
	}

	return rt.rooms.Update(conn.Room, false, func(r *Room) error {
		if !r.Has(id) {
			return fmt.Errorf("%w: %s not in %q", ErrNotFound, id, r.Name)
		}
		payload, err := json.Marshal(r.Others(id))
		if err != nil {
			return err
		}
		rt.emit([]Effect{{To: id, Event: EventPeerList, Payload: payload}})
		return nil
	})
}

func (rt *Router) emit(effects []Effect) {
	for _, e := range effects {
		rt.transport.Emit(e.To, e.Event, e.Payload)
	}
}
