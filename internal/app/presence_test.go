package app_test

import (
	"testing"
	"time"

	"github.com/dkeye/Relay/internal/app"
	"github.com/dkeye/Relay/internal/core/coretest"
	"github.com/dkeye/Relay/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newPresenceFixture(t *testing.T) (*app.Registry, *app.Presence) {
	t.Helper()
	reg := app.NewRegistry()
	return reg, app.NewPresence(reg, app.WithClock(func() time.Time { return fixedNow }))
}

func connect(t *testing.T, reg *app.Registry, sid string, user domain.UserID) {
	t.Helper()
	reg.Bind(coreSID(sid), coretest.NewRecorder(), nil)
	_, err := reg.Associate(coreSID(sid), user)
	require.NoError(t, err)
}

func TestPresenceOnlineThenOffline(t *testing.T) {
	reg, p := newPresenceFixture(t)

	connect(t, reg, "s1", "u1")
	ch, ok := p.MarkConnected("u1")
	require.True(t, ok)
	assert.True(t, ch.Online)
	assert.Equal(t, domain.Presence{Online: true}, p.Query([]domain.UserID{"u1"})["u1"])

	reg.Disassociate("s1")
	ch, ok = p.MarkDisconnected("u1")
	require.True(t, ok)
	assert.False(t, ch.Online)
	assert.Equal(t, fixedNow, ch.LastSeen)

	rec := p.Query([]domain.UserID{"u1"})["u1"]
	assert.False(t, rec.Online)
	require.NotNil(t, rec.LastSeen)
	assert.Equal(t, fixedNow, *rec.LastSeen)
}

func TestPresenceMultiDevice(t *testing.T) {
	reg, p := newPresenceFixture(t)

	connect(t, reg, "phone", "u1")
	_, ok := p.MarkConnected("u1")
	require.True(t, ok)
	connect(t, reg, "laptop", "u1")
	_, ok = p.MarkConnected("u1")
	assert.False(t, ok, "second device is not an edge")

	reg.Disassociate("phone")
	_, ok = p.MarkDisconnected("u1")
	assert.False(t, ok, "still one device online")
	assert.True(t, p.Query([]domain.UserID{"u1"})["u1"].Online)

	reg.Disassociate("laptop")
	_, ok = p.MarkDisconnected("u1")
	assert.True(t, ok)
	assert.False(t, p.Query([]domain.UserID{"u1"})["u1"].Online)
}

func TestPresenceReconnectClearsLastSeen(t *testing.T) {
	reg, p := newPresenceFixture(t)
	connect(t, reg, "s1", "u1")
	p.MarkConnected("u1")
	reg.Disassociate("s1")
	p.MarkDisconnected("u1")

	connect(t, reg, "s2", "u1")
	_, ok := p.MarkConnected("u1")
	assert.True(t, ok)
	assert.Nil(t, p.Query([]domain.UserID{"u1"})["u1"].LastSeen)
}

func TestPresenceUnknownUserDefaults(t *testing.T) {
	_, p := newPresenceFixture(t)
	got := p.Query([]domain.UserID{"ghost"})
	assert.Equal(t, domain.Presence{}, got["ghost"])

	_, ok := p.MarkDisconnected("ghost")
	assert.False(t, ok)
}

func TestPresenceMarkConnectedWithoutConnectionIsIgnored(t *testing.T) {
	_, p := newPresenceFixture(t)
	_, ok := p.MarkConnected("u1")
	assert.False(t, ok)
	assert.Zero(t, p.OnlineCount())
}

func TestPresenceWatchers(t *testing.T) {
	_, p := newPresenceFixture(t)
	p.Watch("w1", []domain.UserID{"u1", "u2", "w1"})
	p.Watch("w2", []domain.UserID{"u1"})

	assert.ElementsMatch(t, []domain.UserID{"w1", "w2"}, p.Watchers("u1"))
	assert.Empty(t, p.Watchers("w1"), "self-watch is ignored")

	p.Forget("w1")
	assert.Equal(t, []domain.UserID{"w2"}, p.Watchers("u1"))
	assert.Empty(t, p.Watchers("u2"))
}
