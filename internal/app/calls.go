package app

import (
	"errors"
	"sync"
	"time"

	"github.com/dkeye/Relay/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

var ErrCallInProgress = errors.New("call already in progress")

// CallEvent is the payload every call transition is driven by.
type CallEvent struct {
	RoomID  domain.RoomID
	From    domain.Participant
	To      domain.Participant
	IsVideo bool
}

// CallTransition describes what one event did to a room's call.
// Applied is false when the precondition did not hold; the notice is
// produced either way.
type CallTransition struct {
	From    domain.CallState
	To      domain.CallState
	Applied bool
	Session domain.CallSession
	Notice  domain.SystemMessage
}

// ExpiryHandler is invoked from a timer goroutine when a ringing call
// times out. It must serialize with the other transitions itself.
type ExpiryHandler func(roomID domain.RoomID, session *domain.CallSession)

type callEntry struct {
	session *domain.CallSession
	timer   *time.Timer
}

// CallMachine holds at most one call session per room.
type CallMachine struct {
	ringTimeout time.Duration
	now         func() time.Time
	newID       func() string

	mu       sync.RWMutex
	sessions map[domain.RoomID]*callEntry
	onExpire ExpiryHandler
}

type CallOption func(*CallMachine)

// WithRingTimeout turns unanswered calls into missed calls after d.
func WithRingTimeout(d time.Duration) CallOption {
	return func(m *CallMachine) { m.ringTimeout = d }
}

func WithCallClock(now func() time.Time) CallOption {
	return func(m *CallMachine) { m.now = now }
}

func NewCallMachine(opts ...CallOption) *CallMachine {
	m := &CallMachine{
		now:      time.Now,
		newID:    uuid.NewString,
		sessions: make(map[domain.RoomID]*callEntry),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *CallMachine) SetExpiryHandler(fn ExpiryHandler) {
	m.mu.Lock()
	m.onExpire = fn
	m.mu.Unlock()
}

func (m *CallMachine) Request(ev CallEvent) (CallTransition, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.sessions[ev.RoomID]; ok {
		log.Info().Str("module", "app.calls").Str("room", string(ev.RoomID)).Str("state", string(e.session.State)).Msg("call request rejected, room busy")
		return CallTransition{From: e.session.State, To: e.session.State, Session: *e.session}, ErrCallInProgress
	}
	s := &domain.CallSession{
		RoomID:    ev.RoomID,
		State:     domain.CallRinging,
		From:      ev.From,
		To:        ev.To,
		IsVideo:   ev.IsVideo,
		StartedAt: m.now().UTC(),
	}
	e := &callEntry{session: s}
	if m.ringTimeout > 0 && m.onExpire != nil {
		fn := m.onExpire
		e.timer = time.AfterFunc(m.ringTimeout, func() { fn(s.RoomID, s) })
	}
	m.sessions[ev.RoomID] = e
	log.Info().Str("module", "app.calls").Str("room", string(ev.RoomID)).Str("from", string(ev.From.UserID)).Str("to", string(ev.To.UserID)).Bool("video", ev.IsVideo).Msg("ringing")
	return m.transition(domain.CallNone, domain.CallRinging, true, *s, domain.NoticeStarted), nil
}

func (m *CallMachine) Accept(ev CallEvent) CallTransition {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.sessions[ev.RoomID]
	if !ok || e.session.State != domain.CallRinging {
		return m.noop(e, ev, domain.NoticeAccepted)
	}
	e.stop()
	at := m.now().UTC()
	e.session.State = domain.CallActive
	e.session.AcceptedAt = &at
	log.Info().Str("module", "app.calls").Str("room", string(ev.RoomID)).Msg("active")
	return m.transition(domain.CallRinging, domain.CallActive, true, *e.session, domain.NoticeAccepted)
}

func (m *CallMachine) Reject(ev CallEvent) CallTransition {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.sessions[ev.RoomID]
	if !ok || e.session.State != domain.CallRinging {
		return m.noop(e, ev, domain.NoticeMissed)
	}
	return m.finish(e, domain.CallRejected, domain.NoticeMissed)
}

func (m *CallMachine) End(ev CallEvent) CallTransition {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.sessions[ev.RoomID]
	if !ok || (e.session.State != domain.CallRinging && e.session.State != domain.CallActive) {
		return m.noop(e, ev, domain.NoticeEnded)
	}
	return m.finish(e, domain.CallEnded, domain.NoticeEnded)
}

// Missed is valid from any state and clears the room's session if present.
func (m *CallMachine) Missed(ev CallEvent) CallTransition {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.sessions[ev.RoomID]
	if !ok {
		return m.noop(nil, ev, domain.NoticeMissed)
	}
	return m.finish(e, domain.CallMissed, domain.NoticeMissed)
}

// Expire moves a still-ringing session to MISSED. It reports false when
// the session was answered or replaced after the timer was armed.
func (m *CallMachine) Expire(roomID domain.RoomID, s *domain.CallSession) (CallTransition, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.sessions[roomID]
	if !ok || e.session != s || s.State != domain.CallRinging {
		return CallTransition{}, false
	}
	log.Info().Str("module", "app.calls").Str("room", string(roomID)).Msg("ring timed out")
	return m.finish(e, domain.CallMissed, domain.NoticeMissed), true
}

func (m *CallMachine) finish(e *callEntry, to domain.CallState, event domain.NoticeEvent) CallTransition {
	e.stop()
	from := e.session.State
	e.session.State = to
	delete(m.sessions, e.session.RoomID)
	log.Info().Str("module", "app.calls").Str("room", string(e.session.RoomID)).Str("from", string(from)).Str("to", string(to)).Msg("call finished")
	return m.transition(from, to, true, *e.session, event)
}

// noop keeps the state but still yields the notice for the given payload.
func (m *CallMachine) noop(e *callEntry, ev CallEvent, event domain.NoticeEvent) CallTransition {
	state := domain.CallNone
	s := domain.CallSession{
		RoomID:  ev.RoomID,
		State:   state,
		From:    ev.From,
		To:      ev.To,
		IsVideo: ev.IsVideo,
	}
	if e != nil {
		state = e.session.State
		s = *e.session
	}
	log.Debug().Str("module", "app.calls").Str("room", string(ev.RoomID)).Str("state", string(state)).Str("notice", string(event)).Msg("transition precondition failed")
	return m.transition(state, state, false, s, event)
}

func (m *CallMachine) transition(from, to domain.CallState, applied bool, s domain.CallSession, event domain.NoticeEvent) CallTransition {
	now := m.now().UTC()
	return CallTransition{
		From:    from,
		To:      to,
		Applied: applied,
		Session: s,
		Notice: domain.SystemMessage{
			ID:      m.newID(),
			Kind:    domain.MessageKindSystem,
			Event:   event,
			RoomID:  s.RoomID,
			From:    s.From,
			To:      s.To,
			IsVideo: s.IsVideo,
			Text:    noticeText(event, s, now),
			Time:    now,
		},
	}
}

func (e *callEntry) stop() {
	if e != nil && e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
}

func (m *CallMachine) Get(roomID domain.RoomID) (domain.CallSession, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.sessions[roomID]
	if !ok {
		return domain.CallSession{}, false
	}
	return *e.session, true
}

func (m *CallMachine) Snapshot() []domain.CallSession {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.CallSession, 0, len(m.sessions))
	for _, e := range m.sessions {
		out = append(out, *e.session)
	}
	return out
}

func (m *CallMachine) Active() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
