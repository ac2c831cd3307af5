package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	gorilla "github.com/gorilla/websocket"
	"github.com/pion/webrtc/v4"
	"github.com/stretchr/testify/suite"

	"github.com/YuarenArt/peerjam/internal/config"
	"github.com/YuarenArt/peerjam/internal/logging"
	"github.com/YuarenArt/peerjam/pkg/signaling"
	"github.com/YuarenArt/peerjam/pkg/websocket"
)

type ServerTestSuite struct {
	suite.Suite
	server  *Server
	router  *signaling.Router
	metrics *Metrics
	stopped bool
}

func (s *ServerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	s.stopped = false

	cfg, err := config.Load(nil)
	s.Require().NoError(err)
	cfg.AllowedOrigins = []string{"http://app.test"}

	pool, err := websocket.NewTaskPool(20)
	s.Require().NoError(err)

	s.metrics = NewMetrics()
	hub := websocket.NewHub(s.metrics)
	s.router = signaling.NewRouter(hub, signaling.WithObserver(s.metrics))
	handler := websocket.NewHandler(hub, s.router, pool, websocket.WithMetrics(s.metrics))

	ice := []webrtc.ICEServer{
		{URLs: []string{"stun:stun.example.com:3478"}},
		{URLs: []string{"turn:turn.example.com:3478"}, Username: "u", Credential: "p"},
	}
	s.server = NewServer(cfg, handler, s.metrics, logging.NewNopLogger(), WithICEServers(ice))
}

func (s *ServerTestSuite) TearDownTest() {
	if s.stopped {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	s.NoError(s.server.Shutdown(ctx))
}

func (s *ServerTestSuite) do(method, path string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	w := httptest.NewRecorder()
	s.server.Engine.ServeHTTP(w, req)
	return w
}

func (s *ServerTestSuite) join(id signaling.ConnID, room string) {
	ctx := context.Background()
	s.router.Connect(ctx, id)
	s.Require().NoError(s.router.Handle(ctx, id, signaling.EventJoinRoom, json.RawMessage(`"`+room+`"`)))
}

func (s *ServerTestSuite) TestHealth() {
	s.join("a", "lobby")

	w := s.do(http.MethodGet, "/api/health", nil)
	s.Equal(http.StatusOK, w.Code)

	var body HealthResponse
	s.NoError(json.Unmarshal(w.Body.Bytes(), &body))
	s.Equal("ok", body.Status)
	s.Equal(1, body.Rooms)
	s.NotEmpty(w.Header().Get("X-Request-ID"))
}

func (s *ServerTestSuite) TestRequestIDIsEchoed() {
	w := s.do(http.MethodGet, "/api/health", http.Header{"X-Request-Id": []string{"req-42"}})
	s.Equal("req-42", w.Header().Get("X-Request-ID"))
}

func (s *ServerTestSuite) TestRoomsListsOccupiedRooms() {
	w := s.do(http.MethodGet, "/api/rooms", nil)
	s.Equal(http.StatusOK, w.Code)
	s.JSONEq(`[]`, w.Body.String())

	s.join("b1", "beta")
	s.join("a1", "alpha")
	s.join("a2", "alpha")

	w = s.do(http.MethodGet, "/api/rooms", nil)
	var rooms []RoomResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &rooms))
	s.Require().Len(rooms, 2)
	s.Equal("alpha", rooms[0].Room)
	s.Equal(2, rooms[0].MemberCount)
	s.Equal(signaling.ConnID("a1"), rooms[0].CallerID)
	s.Equal("beta", rooms[1].Room)
}

func (s *ServerTestSuite) TestRoom() {
	s.join("a", "lobby")
	s.join("b", "lobby")

	w := s.do(http.MethodGet, "/api/rooms/lobby", nil)
	s.Equal(http.StatusOK, w.Code)
	s.JSONEq(`{"room":"lobby","members":["a","b"],"callerId":"a","memberCount":2}`, w.Body.String())

	s.router.Disconnect(context.Background(), "a")
	w = s.do(http.MethodGet, "/api/rooms/lobby", nil)
	s.JSONEq(`{"room":"lobby","members":["b"],"callerId":"b","memberCount":1}`, w.Body.String())
}

func (s *ServerTestSuite) TestRoomErrors() {
	w := s.do(http.MethodGet, "/api/rooms/nowhere", nil)
	s.Equal(http.StatusNotFound, w.Code)
	s.JSONEq(`{"code":404,"error":"room not found"}`, w.Body.String())

	w = s.do(http.MethodGet, "/api/rooms/"+strings.Repeat("x", signaling.MaxRoomNameLength+1), nil)
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *ServerTestSuite) TestICEServers() {
	w := s.do(http.MethodGet, "/api/ice-servers", nil)
	s.Equal(http.StatusOK, w.Code)

	s.JSONEq(`[
		{"urls":["stun:stun.example.com:3478"]},
		{"urls":["turn:turn.example.com:3478"],"username":"u","credential":"p"}
	]`, w.Body.String())
}

func (s *ServerTestSuite) TestMetricsExposeSignalingCounters() {
	s.join("a", "lobby")
	s.join("b", "lobby")
	s.join("c", "lobby")

	w := s.do(http.MethodGet, "/metrics", nil)
	s.Equal(http.StatusOK, w.Code)
	body := w.Body.String()
	s.Contains(body, `signaling_joins_total{result="created"} 1`)
	s.Contains(body, `signaling_joins_total{result="joined"} 1`)
	s.Contains(body, `signaling_joins_total{result="full"} 1`)
	s.Contains(body, `signaling_rooms_active 1`)
}

func (s *ServerTestSuite) TestCORS() {
	w := s.do(http.MethodOptions, "/api/rooms", http.Header{"Origin": []string{"http://app.test"}})
	s.Equal(http.StatusNoContent, w.Code)
	s.Equal("http://app.test", w.Header().Get("Access-Control-Allow-Origin"))

	w = s.do(http.MethodGet, "/api/rooms", http.Header{"Origin": []string{"http://other.test"}})
	s.Empty(w.Header().Get("Access-Control-Allow-Origin"))
}

func (s *ServerTestSuite) TestShutdownClosesPeers() {
	ts := httptest.NewServer(s.server.Engine)
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := gorilla.DefaultDialer.Dial(url, nil)
	s.Require().NoError(err)
	defer conn.Close()

	s.Require().NoError(conn.WriteMessage(gorilla.TextMessage, []byte(`{"type":"joinRoom","data":"lobby"}`)))
	s.Require().NoError(conn.SetReadDeadline(time.Now().Add(2 * time.Second)))
	_, raw, err := conn.ReadMessage()
	s.Require().NoError(err)
	s.JSONEq(`{"type":"created"}`, string(raw))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	s.stopped = true
	s.Require().NoError(s.server.Shutdown(ctx))

	s.Zero(s.server.Handler.Hub.ClientCount())
	s.Zero(s.router.Rooms().Len())
	_, _, err = conn.ReadMessage()
	s.Error(err)
}

func TestServerTestSuite(t *testing.T) {
	suite.Run(t, new(ServerTestSuite))
}
