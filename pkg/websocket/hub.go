package websocket

import (
	"encoding/json"
	"sync"

	"github.com/YuarenArt/peerjam/pkg/signaling"
)

// Hub tracks live clients by connection id and delivers outbound events.
// It implements signaling.Transport.
type Hub struct {
	Clients *sync.Map // Clients map[signaling.ConnID]*Client
	metrics MetricsNotifier
}

func NewHub(metrics MetricsNotifier) *Hub {
	if metrics == nil {
		metrics = nopMetrics{}
	}
	return &Hub{
		Clients: &sync.Map{},
		metrics: metrics,
	}
}

func (h *Hub) Register(c *Client) {
	h.Clients.Store(c.ID, c)
	h.metrics.ConnectionOpened()
}

// Unregister removes the client and closes its send buffer. Repeated calls are no-ops.
func (h *Hub) Unregister(c *Client) {
	if _, loaded := h.Clients.LoadAndDelete(c.ID); loaded {
		h.metrics.ConnectionClosed()
	}
	c.closeSend()
}

func (h *Hub) GetClient(id signaling.ConnID) (*Client, bool) {
	c, ok := h.Clients.Load(id)
	if !ok {
		return nil, false
	}
	return c.(*Client), true
}

func (h *Hub) ClientCount() int {
	n := 0
	h.Clients.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// Emit queues one event for a client without blocking. Events for unknown
// clients or full buffers are dropped.
func (h *Hub) Emit(to signaling.ConnID, event string, payload json.RawMessage) {
	c, ok := h.GetClient(to)
	if !ok {
		return
	}
	data, err := encodeMessage(event, payload)
	if err != nil || !c.trySend(data) {
		h.metrics.DroppedMessage(string(to))
		return
	}
	h.metrics.MessageSent(event)
}

// CloseAll closes every client connection; their read pumps then run the
// usual disconnect path.
func (h *Hub) CloseAll() {
	h.Clients.Range(func(_, value any) bool {
		value.(*Client).Conn.Close()
		return true
	})
}

// encodeMessage builds the envelope by hand: json.Marshal would compact and
// HTML-escape the payload, and relayed payloads must reach the peer byte for byte.
func encodeMessage(event string, payload json.RawMessage) ([]byte, error) {
	typ, err := json.Marshal(event)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, 0, len(typ)+len(payload)+18)
	buf = append(buf, `{"type":`...)
	buf = append(buf, typ...)
	if len(payload) > 0 {
		buf = append(buf, `,"data":`...)
		buf = append(buf, payload...)
	}
	return append(buf, '}'), nil
}
