package websocket

import (
	"context"

	"github.com/YuarenArt/peerjam/pkg/signaling"
)

// HandlerFunc processes a signaling message
type HandlerFunc func(ctx context.Context, c *Client, msg Message)

// SignalingHandler routes messages by type
type SignalingHandler struct {
	handlers map[string]HandlerFunc
	router   *signaling.Router
	metrics  MetricsNotifier
}

func NewSignalingHandler(router *signaling.Router, metrics MetricsNotifier) *SignalingHandler {
	if metrics == nil {
		metrics = nopMetrics{}
	}
	return &SignalingHandler{
		handlers: make(map[string]HandlerFunc),
		router:   router,
		metrics:  metrics,
	}
}

// Register new handler for message type
func (s *SignalingHandler) Register(msgType string, fn HandlerFunc) {
	s.handlers[msgType] = fn
}

// Handle incoming message
func (s *SignalingHandler) Handle(ctx context.Context, c *Client, msg Message) {
	s.metrics.MessageReceived(msg.Type)
	if fn, ok := s.handlers[msg.Type]; ok {
		fn(ctx, c, msg)
		return
	}
	// default: let the router log and count it as a violation
	_ = s.router.Handle(ctx, c.ID, msg.Type, msg.Data)
}

// Connect announces a new client to the router.
func (s *SignalingHandler) Connect(ctx context.Context, c *Client) {
	s.router.Connect(ctx, c.ID)
}

// Disconnect runs the router's teardown for a closed client.
func (s *SignalingHandler) Disconnect(ctx context.Context, c *Client) {
	s.router.Disconnect(ctx, c.ID)
}
