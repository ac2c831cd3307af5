// Package presence mirrors room occupancy into Redis so operators and other
// services can see who is connected where. The mirror is write-only: the
// signaling router never reads it back.
package presence

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/YuarenArt/peerjam/internal/config"
	"github.com/YuarenArt/peerjam/internal/logging"
	"github.com/YuarenArt/peerjam/pkg/signaling"
)

const (
	queueSize   = 1024
	opTimeout   = 2 * time.Second
	pingTimeout = 5 * time.Second
)

// Store is the subset of the Redis client the mirror needs.
type Store interface {
	SAdd(ctx context.Context, key string, members ...interface{}) *redis.IntCmd
	SRem(ctx context.Context, key string, members ...interface{}) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// Submitter runs a long-lived task, e.g. a websocket.TaskPool.
type Submitter interface {
	Submit(task func()) error
}

// Connect initializes the Redis client and checks it is reachable.
func Connect(cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

func RoomKey(room string) string {
	return "room:" + room + ":peers"
}

// Mirror is a signaling.Observer that applies membership changes to Redis
// from a single worker, so writes for a room land in the order they happened.
type Mirror struct {
	store  Store
	ttl    time.Duration
	logger logging.Logger
	jobs   chan func(context.Context) error
	done   chan struct{}

	mu     sync.Mutex
	closed bool
}

func NewMirror(store Store, ttl time.Duration, logger logging.Logger) *Mirror {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Mirror{
		store:  store,
		ttl:    ttl,
		logger: logger,
		jobs:   make(chan func(context.Context) error, queueSize),
		done:   make(chan struct{}),
	}
}

// Start runs the worker on pool until Close.
func (m *Mirror) Start(pool Submitter) error {
	return pool.Submit(m.run)
}

// Close stops accepting jobs and waits for the queue to drain. Updates
// reported after Close are discarded. Repeated calls are no-ops.
func (m *Mirror) Close() {
	m.mu.Lock()
	if !m.closed {
		m.closed = true
		close(m.jobs)
	}
	m.mu.Unlock()
	<-m.done
}

func (m *Mirror) run() {
	defer close(m.done)
	for job := range m.jobs {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		if err := job(ctx); err != nil {
			m.logger.Warn(ctx, "Presence update failed", "error", err.Error())
		}
		cancel()
	}
}

func (m *Mirror) enqueue(job func(context.Context) error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	select {
	case m.jobs <- job:
	default:
		m.logger.Warn(context.Background(), "Presence queue full, update dropped")
	}
}

func (m *Mirror) Joined(room string, id signaling.ConnID, _ signaling.Role) {
	key := RoomKey(room)
	m.enqueue(func(ctx context.Context) error {
		if err := m.store.SAdd(ctx, key, string(id)).Err(); err != nil {
			return err
		}
		return m.store.Expire(ctx, key, m.ttl).Err()
	})
}

func (m *Mirror) Rejected(string, signaling.ConnID) {}

func (m *Mirror) Left(room string, id signaling.ConnID, empty bool) {
	key := RoomKey(room)
	m.enqueue(func(ctx context.Context) error {
		if empty {
			return m.store.Del(ctx, key).Err()
		}
		return m.store.SRem(ctx, key, string(id)).Err()
	})
}

func (m *Mirror) Violation(string) {}
