package websocket

import "encoding/json"

// Message Base message structure
// @Description Envelope for every WebSocket frame in both directions
type Message struct {
	Type string          `json:"type" example:"joinRoom"`
	Data json.RawMessage `json:"data,omitempty" swaggertype:"object"`
}

// ErrorResponse Standard error response
type ErrorResponse struct {
	Code  int    `json:"code" example:"403"`
	Error string `json:"error" example:"origin not allowed"`
}

// MetricsNotifier receives transport level counters.
type MetricsNotifier interface {
	ConnectionOpened()
	ConnectionClosed()
	MessageReceived(event string)
	MessageSent(event string)
	DroppedMessage(connID string)
}

type nopMetrics struct{}

func (nopMetrics) ConnectionOpened() {}
func (nopMetrics) ConnectionClosed() {}
func (nopMetrics) MessageReceived(string) {}
func (nopMetrics) MessageSent(string) {}
func (nopMetrics) DroppedMessage(string) {}
