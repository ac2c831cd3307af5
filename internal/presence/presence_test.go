package presence

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"github.com/YuarenArt/peerjam/pkg/signaling"
)

type fakeStore struct {
	mu   sync.Mutex
	ops  []string
	fail bool
}

func (f *fakeStore) record(op string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ops = append(f.ops, op)
}

func (f *fakeStore) intCmd(ctx context.Context) *redis.IntCmd {
	cmd := redis.NewIntCmd(ctx)
	if f.fail {
		cmd.SetErr(errors.New("connection refused"))
	}
	return cmd
}

func (f *fakeStore) SAdd(ctx context.Context, key string, members ...interface{}) *redis.IntCmd {
	f.record(fmt.Sprintf("SADD %s %v", key, members[0]))
	return f.intCmd(ctx)
}

func (f *fakeStore) SRem(ctx context.Context, key string, members ...interface{}) *redis.IntCmd {
	f.record(fmt.Sprintf("SREM %s %v", key, members[0]))
	return f.intCmd(ctx)
}

func (f *fakeStore) Expire(ctx context.Context, key string, ttl time.Duration) *redis.BoolCmd {
	f.record(fmt.Sprintf("EXPIRE %s %s", key, ttl))
	return redis.NewBoolCmd(ctx)
}

func (f *fakeStore) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	f.record("DEL " + keys[0])
	return f.intCmd(ctx)
}

type goSubmitter struct{}

func (goSubmitter) Submit(task func()) error {
	go task()
	return nil
}

type MirrorTestSuite struct {
	suite.Suite
	store  *fakeStore
	mirror *Mirror
}

func (s *MirrorTestSuite) SetupTest() {
	s.store = &fakeStore{}
	s.mirror = NewMirror(s.store, time.Hour, nil)
	s.Require().NoError(s.mirror.Start(goSubmitter{}))
}

func (s *MirrorTestSuite) TestMembershipChangesInOrder() {
	s.mirror.Joined("lobby", "a", signaling.Caller)
	s.mirror.Joined("lobby", "b", signaling.Callee)
	s.mirror.Rejected("lobby", "c")
	s.mirror.Left("lobby", "a", false)
	s.mirror.Left("lobby", "b", true)
	s.mirror.Close()

	s.Equal([]string{
		"SADD room:lobby:peers a",
		"EXPIRE room:lobby:peers 1h0m0s",
		"SADD room:lobby:peers b",
		"EXPIRE room:lobby:peers 1h0m0s",
		"SREM room:lobby:peers a",
		"DEL room:lobby:peers",
	}, s.store.ops)
}

func (s *MirrorTestSuite) TestFailuresAreNotFatal() {
	s.store.fail = true
	s.mirror.Joined("lobby", "a", signaling.Caller)
	s.mirror.Left("lobby", "a", true)
	s.mirror.Close()

	s.Equal([]string{"SADD room:lobby:peers a", "DEL room:lobby:peers"}, s.store.ops)
}

func (s *MirrorTestSuite) TestUpdatesAfterCloseAreDiscarded() {
	s.mirror.Joined("lobby", "a", signaling.Caller)
	s.mirror.Close()

	s.NotPanics(func() {
		s.mirror.Joined("lobby", "b", signaling.Callee)
		s.mirror.Left("lobby", "a", false)
		s.mirror.Close()
	})
	s.Equal([]string{"SADD room:lobby:peers a", "EXPIRE room:lobby:peers 1h0m0s"}, s.store.ops)
}

func (s *MirrorTestSuite) TestCloseRacesWithUpdates() {
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := signaling.ConnID(fmt.Sprintf("p%d", i))
			for j := 0; j < 50; j++ {
				s.mirror.Joined("lobby", id, signaling.Caller)
				s.mirror.Left("lobby", id, false)
			}
		}(i)
	}
	s.mirror.Close()
	wg.Wait()
	s.mirror.Close()
}

func (s *MirrorTestSuite) TestRoomKey() {
	s.Equal("room:x:peers", RoomKey("x"))
}

func TestMirrorTestSuite(t *testing.T) {
	suite.Run(t, new(MirrorTestSuite))
}
