package app_test

import (
	"testing"
	"time"

	"github.com/dkeye/Relay/internal/app"
	"github.com/dkeye/Relay/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func callEvent(room domain.RoomID) app.CallEvent {
	return app.CallEvent{
		RoomID:  room,
		From:    domain.Participant{UserID: "u1", Name: "Ann"},
		To:      domain.Participant{UserID: "u2", Name: "Bob"},
		IsVideo: true,
	}
}

func TestCallRequestAcceptEnd(t *testing.T) {
	clock := fixedNow
	m := app.NewCallMachine(app.WithCallClock(func() time.Time { return clock }))
	ev := callEvent("r1")

	var notices []domain.NoticeEvent
	tr, err := m.Request(ev)
	require.NoError(t, err)
	assert.Equal(t, domain.CallRinging, tr.To)
	assert.Equal(t, "Ann started a video call", tr.Notice.Text)
	notices = append(notices, tr.Notice.Event)

	tr = m.Accept(ev)
	assert.True(t, tr.Applied)
	assert.Equal(t, domain.CallActive, tr.To)
	assert.Equal(t, "Bob accepted the call", tr.Notice.Text)
	notices = append(notices, tr.Notice.Event)

	clock = clock.Add(95 * time.Second)
	tr = m.End(ev)
	assert.True(t, tr.Applied)
	assert.Equal(t, domain.CallEnded, tr.To)
	assert.Equal(t, "Call ended (01:35)", tr.Notice.Text)
	notices = append(notices, tr.Notice.Event)

	assert.Equal(t, []domain.NoticeEvent{domain.NoticeStarted, domain.NoticeAccepted, domain.NoticeEnded}, notices)
	_, ok := m.Get("r1")
	assert.False(t, ok)
	assert.Zero(t, m.Active())
}

func TestCallRejectThenNewRequest(t *testing.T) {
	m := app.NewCallMachine()
	ev := callEvent("r1")
	_, err := m.Request(ev)
	require.NoError(t, err)

	tr := m.Reject(ev)
	assert.True(t, tr.Applied)
	assert.Equal(t, domain.CallRejected, tr.To)
	assert.Equal(t, domain.NoticeMissed, tr.Notice.Event)
	assert.Equal(t, "Missed call from Ann", tr.Notice.Text)
	_, ok := m.Get("r1")
	assert.False(t, ok)

	tr, err = m.Request(ev)
	require.NoError(t, err)
	assert.Equal(t, domain.CallRinging, tr.To)
}

func TestCallSecondRequestIsBusy(t *testing.T) {
	m := app.NewCallMachine()
	_, err := m.Request(callEvent("r1"))
	require.NoError(t, err)

	_, err = m.Request(callEvent("r1"))
	assert.ErrorIs(t, err, app.ErrCallInProgress)

	_, err = m.Request(callEvent("r2"))
	assert.NoError(t, err, "other rooms are independent")
	assert.Equal(t, 2, m.Active())
}

func TestCallInvalidTransitionsStillProduceNotices(t *testing.T) {
	m := app.NewCallMachine()
	ev := callEvent("r1")

	tr := m.End(ev)
	assert.False(t, tr.Applied)
	assert.Equal(t, domain.CallNone, tr.To)
	assert.Equal(t, domain.NoticeEnded, tr.Notice.Event)
	assert.Equal(t, "Call ended", tr.Notice.Text)

	tr = m.Accept(ev)
	assert.False(t, tr.Applied)
	assert.Equal(t, domain.NoticeAccepted, tr.Notice.Event)

	_, err := m.Request(ev)
	require.NoError(t, err)
	m.Accept(ev)
	tr = m.Reject(ev)
	assert.False(t, tr.Applied, "reject needs a ringing call")
	assert.Equal(t, domain.CallActive, tr.To)
	s, ok := m.Get("r1")
	require.True(t, ok)
	assert.Equal(t, domain.CallActive, s.State)
}

func TestCallMissedFromAnyState(t *testing.T) {
	m := app.NewCallMachine()
	ev := callEvent("r1")

	tr := m.Missed(ev)
	assert.False(t, tr.Applied)
	assert.Equal(t, domain.NoticeMissed, tr.Notice.Event)

	_, err := m.Request(ev)
	require.NoError(t, err)
	m.Accept(ev)
	tr = m.Missed(ev)
	assert.True(t, tr.Applied)
	assert.Equal(t, domain.CallActive, tr.From)
	assert.Equal(t, domain.CallMissed, tr.To)
	assert.Zero(t, m.Active())
}

func TestCallRingTimeout(t *testing.T) {
	fired := make(chan *domain.CallSession, 1)
	m := app.NewCallMachine(app.WithRingTimeout(10 * time.Millisecond))
	m.SetExpiryHandler(func(_ domain.RoomID, s *domain.CallSession) { fired <- s })

	_, err := m.Request(callEvent("r1"))
	require.NoError(t, err)

	var s *domain.CallSession
	select {
	case s = <-fired:
	case <-time.After(time.Second):
		t.Fatal("ring timer did not fire")
	}
	tr, ok := m.Expire("r1", s)
	require.True(t, ok)
	assert.Equal(t, domain.CallMissed, tr.To)
	assert.Zero(t, m.Active())

	_, ok = m.Expire("r1", s)
	assert.False(t, ok, "expiry is one-shot")
}

func TestCallAcceptCancelsRingTimeout(t *testing.T) {
	fired := make(chan struct{}, 1)
	m := app.NewCallMachine(app.WithRingTimeout(20 * time.Millisecond))
	m.SetExpiryHandler(func(domain.RoomID, *domain.CallSession) { fired <- struct{}{} })

	ev := callEvent("r1")
	_, err := m.Request(ev)
	require.NoError(t, err)
	m.Accept(ev)

	select {
	case <-fired:
		t.Fatal("timer fired after accept")
	case <-time.After(60 * time.Millisecond):
	}
	s, ok := m.Get("r1")
	require.True(t, ok)
	assert.Equal(t, domain.CallActive, s.State)
}
