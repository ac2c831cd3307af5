package signaling

import "errors"

var (
	// ErrRoomFull is returned when a join targets a room that already holds two members.
	ErrRoomFull = errors.New("room is full")
	// ErrInvalidRoomName is returned for empty or oversized room names.
	ErrInvalidRoomName = errors.New("invalid room name")
	// ErrNotFound marks an event referencing an unknown connection or room.
	ErrNotFound = errors.New("not found")
	// ErrProtocolViolation marks an event the sender's state does not permit.
	ErrProtocolViolation = errors.New("protocol violation")
)
