package server

import (
	"os"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shirou/gopsutil/v3/process"

	"github.com/YuarenArt/peerjam/pkg/signaling"
)

// Metrics holds Prometheus metrics for HTTP, WebSocket and signaling monitoring.
// It implements websocket.MetricsNotifier and signaling.Observer.
type Metrics struct {
	Registry *prometheus.Registry

	RequestDuration *prometheus.HistogramVec
	RequestCounter  *prometheus.CounterVec
	WSConnections   prometheus.Gauge
	WSMessages      *prometheus.CounterVec
	RoomsActive     prometheus.Gauge
	Joins           *prometheus.CounterVec
	Violations      *prometheus.CounterVec
	Goroutines      prometheus.Gauge
	MemoryAlloc     prometheus.Gauge
	HeapAlloc       prometheus.Gauge
	CPUUsage        prometheus.Gauge

	stopChan chan struct{}
	stopOnce sync.Once
}

var knownEvents = map[string]bool{
	signaling.EventJoinRoom:         true,
	signaling.EventReady:            true,
	signaling.EventOffer:            true,
	signaling.EventAnswer:           true,
	signaling.EventCandidate:        true,
	signaling.EventSendMessage:      true,
	signaling.EventPeerList:         true,
	signaling.EventCreated:          true,
	signaling.EventJoined:           true,
	signaling.EventFull:             true,
	signaling.EventSetCaller:        true,
	signaling.EventReceiveMessage:   true,
	signaling.EventUserDisconnected: true,
}

// eventLabel keeps client-chosen event names out of label values.
func eventLabel(event string) string {
	if knownEvents[event] {
		return event
	}
	return "unknown"
}

// NewMetrics initializes all metrics on a private registry and starts the
// runtime updater. Call Stop to end it.
func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests",
				Buckets: prometheus.ExponentialBuckets(0.01, 2, 15),
			},
			[]string{"method", "path", "status"},
		),
		RequestCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		WSConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ws_active_connections",
			Help: "Number of active WebSocket connections",
		}),
		WSMessages: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ws_messages_total",
				Help: "Total number of WebSocket messages",
			},
			[]string{"direction", "event"},
		),
		RoomsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "signaling_rooms_active",
			Help: "Number of rooms with at least one member",
		}),
		Joins: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "signaling_joins_total",
				Help: "Join attempts by outcome",
			},
			[]string{"result"},
		),
		Violations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "signaling_protocol_violations_total",
				Help: "Events ignored because the sender was not allowed to send them",
			},
			[]string{"event"},
		),
		Goroutines: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "goroutines",
			Help: "Number of active goroutines",
		}),
		MemoryAlloc: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "go_mem_alloc_bytes",
			Help: "Memory allocated and still in use",
		}),
		HeapAlloc: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "go_heap_alloc_bytes",
			Help: "Heap memory allocated",
		}),
		CPUUsage: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "process_cpu_percent",
			Help: "CPU usage of the process in percent",
		}),
		stopChan: make(chan struct{}),
	}

	m.Registry.MustRegister(
		m.Goroutines,
		m.MemoryAlloc,
		m.HeapAlloc,
		m.CPUUsage,
		m.RequestCounter,
		m.RequestDuration,
		m.WSConnections,
		m.WSMessages,
		m.RoomsActive,
		m.Joins,
		m.Violations,
	)

	go m.startRuntimeMetricsUpdater(5 * time.Second)

	return m
}

// PrometheusMiddleware collects HTTP metrics for each request
func (m *Metrics) PrometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start).Seconds()

		status := strconv.Itoa(c.Writer.Status())
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		m.RequestDuration.WithLabelValues(c.Request.Method, path, status).Observe(latency)
		m.RequestCounter.WithLabelValues(c.Request.Method, path, status).Inc()
	}
}

// MetricsHandler returns a handler for Prometheus metrics endpoint
func (m *Metrics) MetricsHandler() gin.HandlerFunc {
	h := promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

// UpdateRuntimeMetrics updates runtime metrics like memory, goroutines, and CPU usage
func (m *Metrics) UpdateRuntimeMetrics() {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	m.Goroutines.Set(float64(runtime.NumGoroutine()))
	m.MemoryAlloc.Set(float64(mem.Alloc))
	m.HeapAlloc.Set(float64(mem.HeapAlloc))

	p, err := process.NewProcess(int32(os.Getpid()))
	if err == nil {
		if percent, err := p.CPUPercent(); err == nil {
			m.CPUUsage.Set(percent)
		}
	}
}

func (m *Metrics) startRuntimeMetricsUpdater(interval time.Duration) {
	m.UpdateRuntimeMetrics()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			m.UpdateRuntimeMetrics()
		case <-m.stopChan:
			return
		}
	}
}

func (m *Metrics) ConnectionOpened() { m.WSConnections.Inc() }

func (m *Metrics) ConnectionClosed() { m.WSConnections.Dec() }

func (m *Metrics) MessageReceived(event string) {
	m.WSMessages.WithLabelValues("in", eventLabel(event)).Inc()
}

func (m *Metrics) MessageSent(event string) {
	m.WSMessages.WithLabelValues("out", eventLabel(event)).Inc()
}

// DroppedMessage counts an outbound frame lost to a full send buffer.
func (m *Metrics) DroppedMessage(string) {
	m.WSMessages.WithLabelValues("dropped", "unknown").Inc()
}

// Joined counts a successful join; a caller join means the room was just created.
func (m *Metrics) Joined(_ string, _ signaling.ConnID, role signaling.Role) {
	if role == signaling.Caller {
		m.Joins.WithLabelValues(signaling.EventCreated).Inc()
		m.RoomsActive.Inc()
		return
	}
	m.Joins.WithLabelValues(signaling.EventJoined).Inc()
}

func (m *Metrics) Rejected(string, signaling.ConnID) {
	m.Joins.WithLabelValues(signaling.EventFull).Inc()
}

func (m *Metrics) Left(_ string, _ signaling.ConnID, empty bool) {
	if empty {
		m.RoomsActive.Dec()
	}
}

func (m *Metrics) Violation(event string) {
	m.Violations.WithLabelValues(eventLabel(event)).Inc()
}

// Stop stops runtime metrics updater. Safe to call more than once.
func (m *Metrics) Stop() {
	m.stopOnce.Do(func() { close(m.stopChan) })
}
