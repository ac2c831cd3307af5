package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pion/webrtc/v4"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/YuarenArt/peerjam/internal/config"
	"github.com/YuarenArt/peerjam/internal/logging"
	"github.com/YuarenArt/peerjam/pkg/signaling"
	"github.com/YuarenArt/peerjam/pkg/websocket"
)

const maxRequestBody = 1 << 20

// RoomResponse describes one live room.
type RoomResponse struct {
	Room        string             `json:"room" example:"lobby"`
	Members     []signaling.ConnID `json:"members" swaggertype:"array,string"`
	CallerID    signaling.ConnID   `json:"callerId,omitempty" swaggertype:"string" example:"1f0c8d5e-6a7b-4c2d-9e3f-0a1b2c3d4e5f"`
	MemberCount int                `json:"memberCount" example:"2"`
}

// HealthResponse is the body of GET /api/health.
type HealthResponse struct {
	Status      string `json:"status" example:"ok"`
	Connections int    `json:"connections" example:"2"`
	Rooms       int    `json:"rooms" example:"1"`
	Workers     int    `json:"workers" example:"4"`
}

// ICEServerResponse is one entry of GET /api/ice-servers, in the shape a
// browser RTCPeerConnection accepts.
type ICEServerResponse struct {
	URLs       []string `json:"urls" example:"stun:stun.l.google.com:19302"`
	Username   string   `json:"username,omitempty"`
	Credential string   `json:"credential,omitempty"`
}

type Server struct {
	Handler    *websocket.Handler
	Engine     *gin.Engine
	Addr       string
	Logger     logging.Logger
	APILogger  logging.Logger
	Metrics    *Metrics
	Config     *config.Config
	ICEServers []webrtc.ICEServer

	startedAt time.Time
}

type Option func(*Server)

func WithAPILogger(l logging.Logger) Option {
	return func(s *Server) { s.APILogger = l }
}

func WithICEServers(servers []webrtc.ICEServer) Option {
	return func(s *Server) { s.ICEServers = servers }
}

func NewServer(cfg *config.Config, handler *websocket.Handler, metrics *Metrics, logger logging.Logger, opts ...Option) *Server {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		Handler:   handler,
		Engine:    gin.New(),
		Addr:      ":" + cfg.Port,
		Logger:    logger,
		APILogger: logger,
		Metrics:   metrics,
		Config:    cfg,
		startedAt: time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.ICEServers == nil {
		s.ICEServers = []webrtc.ICEServer{}
	}

	s.Engine.Use(gin.Recovery())
	s.Engine.Use(metrics.PrometheusMiddleware())
	s.Engine.Use(CORSMiddleware(cfg.AllowedOrigins))
	s.Engine.Use(BodyLimitMiddleware(maxRequestBody))
	s.Engine.Use(APILoggerMiddleware(s.APILogger))

	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.Engine.GET("/ws", s.Handler.HandleWebSocket)

	api := s.Engine.Group("/api")
	api.GET("/health", s.Health())
	api.GET("/rooms", s.Rooms())
	api.GET("/rooms/:room", s.Room())
	api.GET("/ice-servers", s.ICEServerList())

	s.Engine.GET("/metrics", s.Metrics.MetricsHandler())
	s.Engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	s.Logger.Debug(context.Background(), "Routes registered", "routes", len(s.Engine.Routes()))
}

// Run serves HTTP until ctx is cancelled, then shuts the listener down.
func (s *Server) Run(ctx context.Context) error {
	s.Logger.Info(ctx, "Starting server", "addr", s.Addr)

	srv := &http.Server{
		Addr:              s.Addr,
		Handler:           s.Engine,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	s.Logger.Info(ctx, "Shutting down HTTP server gracefully")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.Logger.Error(ctx, "HTTP shutdown error", "error", err.Error())
		return err
	}
	return nil
}

// Shutdown closes every peer connection, waits for their disconnects to run
// and releases the worker pool.
func (s *Server) Shutdown(ctx context.Context) error {
	s.Logger.Info(ctx, "Closing peer connections", "connections", s.Handler.Hub.ClientCount())
	s.Handler.Hub.CloseAll()

	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	var err error
wait:
	for s.Handler.Hub.ClientCount() > 0 {
		select {
		case <-ctx.Done():
			err = ctx.Err()
			s.Logger.Warn(ctx, "Shutdown timeout, some connections may not have closed gracefully",
				"remaining", s.Handler.Hub.ClientCount())
			break wait
		case <-ticker.C:
		}
	}

	s.Metrics.Stop()
	s.Handler.Pool.Release()
	return err
}

// Health godoc
// @Summary Health check
// @Description Returns server status with live connection and room counts
// @Tags health
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /api/health [get]
func (s *Server) Health() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, HealthResponse{
			Status:      "ok",
			Connections: s.Handler.Hub.ClientCount(),
			Rooms:       s.Handler.Router.Rooms().Len(),
			Workers:     s.Handler.Pool.Running(),
		})
		s.Logger.Debug(c.Request.Context(), "Health check", "status", "ok", "uptime", time.Since(s.startedAt).String())
	}
}

// Rooms godoc
// @Summary List rooms
// @Description Returns every room that currently has members, sorted by name
// @Tags rooms
// @Produce json
// @Success 200 {array} RoomResponse
// @Router /api/rooms [get]
func (s *Server) Rooms() gin.HandlerFunc {
	return func(c *gin.Context) {
		snaps := s.Handler.Router.Snapshots()
		out := make([]RoomResponse, 0, len(snaps))
		for _, snap := range snaps {
			out = append(out, roomResponse(snap))
		}
		c.JSON(http.StatusOK, out)
	}
}

// Room godoc
// @Summary Get room info
// @Description Returns the members of a room and which of them is the caller
// @Tags rooms
// @Produce json
// @Param room path string true "Room name"
// @Success 200 {object} RoomResponse
// @Failure 400 {object} websocket.ErrorResponse
// @Failure 404 {object} websocket.ErrorResponse
// @Router /api/rooms/{room} [get]
func (s *Server) Room() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		raw := c.Param("room")

		name, err := signaling.ValidateRoomName(raw)
		if err != nil {
			s.Logger.Warn(ctx, "Invalid room name provided", "room", raw, "error", err.Error())
			c.JSON(http.StatusBadRequest, websocket.ErrorResponse{
				Code:  http.StatusBadRequest,
				Error: "invalid room name",
			})
			return
		}

		snap, err := s.Handler.Router.Snapshot(name)
		if errors.Is(err, signaling.ErrNotFound) {
			c.JSON(http.StatusNotFound, websocket.ErrorResponse{
				Code:  http.StatusNotFound,
				Error: "room not found",
			})
			return
		}
		if err != nil {
			s.Logger.Error(ctx, "Room lookup failed", "room", name, "error", err.Error())
			c.JSON(http.StatusInternalServerError, websocket.ErrorResponse{
				Code:  http.StatusInternalServerError,
				Error: "internal server error",
			})
			return
		}

		c.JSON(http.StatusOK, roomResponse(snap))
	}
}

// ICEServerList godoc
// @Summary ICE servers
// @Description Returns the STUN/TURN servers browsers should use for their peer connections
// @Tags webrtc
// @Produce json
// @Success 200 {array} ICEServerResponse
// @Router /api/ice-servers [get]
func (s *Server) ICEServerList() gin.HandlerFunc {
	return func(c *gin.Context) {
		out := make([]ICEServerResponse, 0, len(s.ICEServers))
		for _, ice := range s.ICEServers {
			out = append(out, iceServerResponse(ice))
		}
		c.JSON(http.StatusOK, out)
	}
}

// iceServerResponse drops the pion-only fields; webrtc.ICEServer's own
// MarshalJSON always writes credentialType.
func iceServerResponse(ice webrtc.ICEServer) ICEServerResponse {
	resp := ICEServerResponse{URLs: ice.URLs, Username: ice.Username}
	if cred, ok := ice.Credential.(string); ok {
		resp.Credential = cred
	}
	return resp
}

func roomResponse(snap signaling.RoomSnapshot) RoomResponse {
	return RoomResponse{
		Room:        snap.Name,
		Members:     snap.Members,
		CallerID:    snap.CallerID,
		MemberCount: len(snap.Members),
	}
}

// CORSMiddleware answers preflights and echoes allowed origins.
func CORSMiddleware(allowed []string) gin.HandlerFunc {
	allowAll := false
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			allowAll = true
		}
		set[o] = true
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		switch {
		case allowAll:
			c.Header("Access-Control-Allow-Origin", "*")
		case origin != "" && set[origin]:
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Vary", "Origin")
		}
		c.Header("Access-Control-Allow-Methods", "GET, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Length, Content-Type")
		c.Header("Access-Control-Max-Age", "43200") // 12 hours

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// BodyLimitMiddleware rejects requests declaring a body larger than limit.
func BodyLimitMiddleware(limit int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > limit {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, websocket.ErrorResponse{
				Code:  http.StatusRequestEntityTooLarge,
				Error: "request too large",
			})
			return
		}
		c.Next()
	}
}

func APILoggerMiddleware(logger logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		ctx := context.WithValue(c.Request.Context(), logging.RequestIDKey, requestID)
		c.Request = c.Request.WithContext(ctx)
		c.Header("X-Request-ID", requestID)

		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		logger.Info(ctx, "HTTP request",
			"method", method,
			"path", path,
			"status", c.Writer.Status(),
			"latency", time.Since(start).String(),
			"client_ip", c.ClientIP(),
			"response_size", c.Writer.Size(),
		)
	}
}
