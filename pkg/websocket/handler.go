package websocket

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/YuarenArt/peerjam/internal/logging"
	"github.com/YuarenArt/peerjam/pkg/signaling"
)

const bufferSize = 256

type Handler struct {
	Hub              *Hub
	Router           *signaling.Router
	Upgrader         websocket.Upgrader
	Pool             *TaskPool
	SignalingHandler *SignalingHandler
	Logger           logging.Logger

	allowedOrigins []string
	sendBuffer     int
}

type HandlerOption func(*Handler)

// WithAllowedOrigins restricts browser origins. "*" allows every origin.
func WithAllowedOrigins(origins []string) HandlerOption {
	return func(h *Handler) { h.allowedOrigins = origins }
}

func WithSendBuffer(n int) HandlerOption {
	return func(h *Handler) {
		if n > 0 {
			h.sendBuffer = n
		}
	}
}

func WithHandlerLogger(l logging.Logger) HandlerOption {
	return func(h *Handler) { h.Logger = l }
}

func WithMetrics(m MetricsNotifier) HandlerOption {
	return func(h *Handler) {
		if m != nil {
			h.SignalingHandler.metrics = m
		}
	}
}

func NewHandler(hub *Hub, router *signaling.Router, pool *TaskPool, opts ...HandlerOption) *Handler {
	h := &Handler{
		Hub:              hub,
		Router:           router,
		Pool:             pool,
		SignalingHandler: NewSignalingHandler(router, nil),
		Logger:           logging.NewNopLogger(),
		allowedOrigins:   []string{"*"},
		sendBuffer:       bufferSize,
	}
	for _, opt := range opts {
		opt(h)
	}
	h.Upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	RegisterDefaultSignaling(h.SignalingHandler)
	return h
}

func (h *Handler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range h.allowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}

// HandleWebSocket godoc
// @Summary Open a signaling connection
// @Description Upgrades to a WebSocket. Frames are {"type", "data"} envelopes: joinRoom, ready, offer, answer, candidate, sendMessage and peerList inbound; created, joined, full, setCaller, ready, offer, answer, candidate, receiveMessage, peerList and userDisconnected outbound.
// @Tags websocket
// @Success 101 {string} string "Switching Protocols (WebSocket upgraded)"
// @Failure 403 {object} ErrorResponse "Origin not allowed"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /ws [get]
func (h *Handler) HandleWebSocket(c *gin.Context) {
	ctx := c.Request.Context()

	if !h.checkOrigin(c.Request) {
		c.JSON(http.StatusForbidden, ErrorResponse{
			Code:  http.StatusForbidden,
			Error: "origin not allowed",
		})
		return
	}

	conn, err := h.Upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote an HTTP error response.
		h.Logger.Warn(ctx, "WebSocket upgrade failed", "error", err.Error())
		return
	}

	client := &Client{
		ID:        signaling.ConnID(uuid.New().String()),
		Conn:      conn,
		Send:      make(chan []byte, h.sendBuffer),
		hub:       h.Hub,
		signaling: h.SignalingHandler,
		logger:    h.Logger,
	}

	h.Hub.Register(client)
	h.SignalingHandler.Connect(ctx, client)
	h.Logger.Info(ctx, "Peer connected", "conn_id", client.ID, "remote_addr", conn.RemoteAddr().String())

	if err := h.Pool.Submit(func() {
		client.Write()
	}); err != nil {
		h.Logger.Error(ctx, "Write task failed", "conn_id", client.ID, "error", err.Error())
		conn.Close()
	}

	if err := h.Pool.Submit(func() {
		client.Read()
	}); err != nil {
		h.Logger.Error(ctx, "Read task failed", "conn_id", client.ID, "error", err.Error())
		h.SignalingHandler.Disconnect(ctx, client)
		h.Hub.Unregister(client)
		conn.Close()
	}
}
