package signaling

import (
	"encoding/json"
	"strings"
	"unicode/utf8"
)

// ConnID identifies a live transport connection.
type ConnID string

// Role is the part a connection plays in its room's negotiation.
type Role int

const (
	Unassigned Role = iota
	Caller
	Callee
)

func (r Role) String() string {
	switch r {
	case Caller:
		return "caller"
	case Callee:
		return "callee"
	default:
		return "unassigned"
	}
}

// State is the per-connection protocol state.
type State int

const (
	StateUnassigned State = iota
	StateJoined
	StateNegotiating
	StateConnected
	StateDisconnected
)

func (s State) String() string {
	switch s {
	case StateJoined:
		return "joined"
	case StateNegotiating:
		return "negotiating"
	case StateConnected:
		return "connected"
	case StateDisconnected:
		return "disconnected"
	default:
		return "unassigned"
	}
}

// Inbound event names.
const (
	EventJoinRoom    = "joinRoom"
	EventReady       = "ready"
	EventOffer       = "offer"
	EventAnswer      = "answer"
	EventCandidate   = "candidate"
	EventSendMessage = "sendMessage"

	// EventPeerList asks for the other members of the sender's room; the
	// reply uses the same name.
	EventPeerList = "peerList"
)

// Outbound event names. EventReady, EventOffer, EventAnswer and EventCandidate
// are reused outbound under the same name.
const (
	EventCreated          = "created"
	EventJoined           = "joined"
	EventFull             = "full"
	EventSetCaller        = "setCaller"
	EventReceiveMessage   = "receiveMessage"
	EventUserDisconnected = "userDisconnected"
)

const (
	RoomCapacity      = 2
	MaxRoomNameLength = 128
	MaxTextLength     = 1000
)

// SetCallerPayload is the data of a setCaller event.
type SetCallerPayload struct {
	CallerID ConnID `json:"callerId"`
}

// SendMessagePayload is the inbound chat payload.
type SendMessagePayload struct {
	Message string `json:"message"`
}

// ReceiveMessagePayload is the chat payload delivered to the other members.
type ReceiveMessagePayload struct {
	SenderID ConnID `json:"senderId"`
	Message  string `json:"message"`
}

// Effect is one outbound event addressed to a single connection.
type Effect struct {
	To      ConnID
	Event   string
	Payload json.RawMessage
}

// ValidateRoomName normalizes a room name and rejects empty or oversized ones.
func ValidateRoomName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > MaxRoomNameLength {
		return "", ErrInvalidRoomName
	}
	return name, nil
}

func validChat(text string) bool {
	text = strings.TrimSpace(text)
	return text != "" && utf8.RuneCountInString(text) <= MaxTextLength
}
