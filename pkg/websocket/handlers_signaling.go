package websocket

import (
	"context"

	"github.com/YuarenArt/peerjam/pkg/signaling"
)

// RegisterDefaultSignaling binds every client event to the router.
func RegisterDefaultSignaling(sh *SignalingHandler) {
	forward := func(ctx context.Context, c *Client, msg Message) {
		_ = sh.router.Handle(ctx, c.ID, msg.Type, msg.Data)
	}

	sh.Register(signaling.EventJoinRoom, forward)
	sh.Register(signaling.EventReady, forward)

	// WebRTC offer / answer / ICE candidate
	sh.Register(signaling.EventOffer, forward)
	sh.Register(signaling.EventAnswer, forward)
	sh.Register(signaling.EventCandidate, forward)

	sh.Register(signaling.EventSendMessage, forward)
	sh.Register(signaling.EventPeerList, forward)
}
