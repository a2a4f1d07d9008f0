package app_test

import (
	"testing"

	"github.com/dkeye/Relay/internal/app"
	"github.com/dkeye/Relay/internal/core"
	"github.com/dkeye/Relay/internal/core/coretest"
	"github.com/dkeye/Relay/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type roomFixture struct {
	reg   *app.Registry
	rooms core.RoomManager
	conns map[core.SessionID]*coretest.Recorder
}

func newRoomFixture(sids ...core.SessionID) *roomFixture {
	f := &roomFixture{reg: app.NewRegistry(), conns: map[core.SessionID]*coretest.Recorder{}}
	f.rooms = app.NewRoomManager(f.reg)
	for _, sid := range sids {
		c := coretest.NewRecorder()
		f.conns[sid] = c
		f.reg.Bind(sid, c, nil)
	}
	return f
}

func TestJoinTwiceKeepsMembership(t *testing.T) {
	f := newRoomFixture("s1")

	added, err := f.rooms.Join("r1", "s1")
	require.NoError(t, err)
	assert.True(t, added)
	added, err = f.rooms.Join("r1", "s1")
	require.NoError(t, err)
	assert.False(t, added)

	assert.Len(t, f.rooms.Members("r1"), 1)
}

func TestJoinUnknownConnection(t *testing.T) {
	f := newRoomFixture()
	_, err := f.rooms.Join("r1", "ghost")
	assert.ErrorIs(t, err, app.ErrUnknownConnection)
	assert.Empty(t, f.rooms.List())
}

func TestLeaveDiscardsEmptyRoom(t *testing.T) {
	f := newRoomFixture("s1")
	_, err := f.rooms.Join("r1", "s1")
	require.NoError(t, err)

	assert.True(t, f.rooms.Leave("r1", "s1"))
	assert.False(t, f.rooms.Leave("r1", "s1"))
	assert.Empty(t, f.rooms.List())
	assert.Empty(t, f.rooms.RoomsOf("s1"))
}

func TestLeaveAllRemovesEveryMembership(t *testing.T) {
	f := newRoomFixture("s1", "s2")
	for _, r := range []domain.RoomID{"r1", "r2", domain.NotificationRoom("u1")} {
		_, err := f.rooms.Join(r, "s1")
		require.NoError(t, err)
	}
	_, err := f.rooms.Join("r1", "s2")
	require.NoError(t, err)

	left := f.rooms.LeaveAll("s1")

	assert.ElementsMatch(t, []domain.RoomID{"r1", "r2", "user:u1"}, left)
	assert.Empty(t, f.rooms.RoomsOf("s1"))
	assert.Equal(t, []core.SessionID{"s2"}, f.rooms.Members("r1"))
	assert.Nil(t, f.rooms.Members("r2"))
}

func TestBroadcastRoomIsolation(t *testing.T) {
	f := newRoomFixture("a", "b")
	_, _ = f.rooms.Join("A", "a")
	_, _ = f.rooms.Join("B", "b")

	res := f.rooms.BroadcastToRoom("A", core.Frame(`{}`), "")

	assert.Equal(t, 1, res.SendTo)
	assert.Len(t, f.conns["a"].Frames(), 1)
	assert.Empty(t, f.conns["b"].Frames())
}

func TestBroadcastToEmptyRoomIsNoop(t *testing.T) {
	f := newRoomFixture()
	res := f.rooms.BroadcastToRoom("nobody", core.Frame(`{}`), "")
	assert.Zero(t, res.SendTo)
	assert.Empty(t, res.Dropped)
}

func TestBroadcastToUserReachesEveryDevice(t *testing.T) {
	f := newRoomFixture("phone", "laptop", "other")
	_, _ = f.rooms.Join(domain.NotificationRoom("u1"), "phone")
	_, _ = f.rooms.Join(domain.NotificationRoom("u1"), "laptop")
	_, _ = f.rooms.Join(domain.NotificationRoom("u2"), "other")

	res := f.rooms.BroadcastToUser("u1", core.Frame(`{}`))

	assert.Equal(t, 2, res.SendTo)
	assert.Empty(t, f.conns["other"].Frames())
}

func TestBroadcastReportsDropped(t *testing.T) {
	f := newRoomFixture("a", "b")
	_, _ = f.rooms.Join("r1", "a")
	_, _ = f.rooms.Join("r1", "b")
	f.conns["a"].SetFull(true)

	res := f.rooms.BroadcastToRoom("r1", core.Frame(`{}`), "")

	assert.Equal(t, 1, res.SendTo)
	assert.Equal(t, []core.SessionID{"a"}, res.Dropped)
	assert.Len(t, f.conns["b"].Frames(), 1)
}
