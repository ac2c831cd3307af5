package signaling

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoomTableCapacity(t *testing.T) {
	table := NewRoomTable()

	assert.Equal(t, Accepted, table.AddMember("lobby", "a"))
	assert.Equal(t, Accepted, table.AddMember("lobby", "b"))
	assert.Equal(t, Full, table.AddMember("lobby", "c"))

	r, err := table.Get("lobby")
	require.NoError(t, err)
	snap, ok := r.Snapshot()
	require.True(t, ok)
	assert.Equal(t, []ConnID{"a", "b"}, snap.Members)
	assert.Equal(t, ConnID("a"), snap.CallerID)
}

func TestRoomTableDeletesEmptyRoom(t *testing.T) {
	table := NewRoomTable()
	table.AddMember("lobby", "a")
	old, err := table.Get("lobby")
	require.NoError(t, err)

	table.RemoveMember("lobby", "a")
	_, err = table.Get("lobby")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Zero(t, table.Len())

	_, ok := old.Snapshot()
	assert.False(t, ok, "a deleted room is dead")

	table.AddMember("lobby", "b")
	fresh, err := table.Get("lobby")
	require.NoError(t, err)
	assert.NotSame(t, old, fresh)
	assert.Equal(t, ConnID("b"), fresh.CallerID())
}

func TestRoomTableUpdateMissingRoom(t *testing.T) {
	table := NewRoomTable()
	called := false
	err := table.Update("nowhere", false, func(*Room) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.False(t, called)
}

func TestRoomTableUpdateDropsRoomLeftEmpty(t *testing.T) {
	table := NewRoomTable()
	boom := errors.New("boom")

	err := table.Update("lobby", true, func(*Room) error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, table.Len(), "room created but never joined is removed")
}

func TestRoomCallerClearedOnLeave(t *testing.T) {
	r := &Room{Name: "lobby"}
	r.Add("a")
	r.Add("b")
	assert.True(t, r.Remove("a"))
	assert.Empty(t, r.CallerID())
	assert.False(t, r.Remove("a"))
	assert.Equal(t, []ConnID{"b"}, r.Others("a"))
}

func TestSnapshotsSkipEmptyRoomsAndSort(t *testing.T) {
	table := NewRoomTable()
	table.AddMember("zeta", "a")
	table.AddMember("alpha", "b")
	table.GetOrCreate("pending")

	snaps := table.Snapshots()
	require.Len(t, snaps, 2)
	assert.Equal(t, "alpha", snaps[0].Name)
	assert.Equal(t, "zeta", snaps[1].Name)
}

func TestValidateRoomName(t *testing.T) {
	name, err := ValidateRoomName("  lobby ")
	require.NoError(t, err)
	assert.Equal(t, "lobby", name)

	_, err = ValidateRoomName("   ")
	assert.ErrorIs(t, err, ErrInvalidRoomName)

	long := make([]byte, MaxRoomNameLength+1)
	for i := range long {
		long[i] = 'x'
	}
	_, err = ValidateRoomName(string(long))
	assert.ErrorIs(t, err, ErrInvalidRoomName)
}
