package app

import (
	"context"
	"errors"
	"sync"

	"github.com/dkeye/Relay/internal/core"
	"github.com/dkeye/Relay/internal/domain"
	"github.com/rs/zerolog/log"
)

var ErrUnknownConnection = errors.New("unknown connection")

type sessionEntry struct {
	Conn   core.SignalConnection
	User   domain.UserID
	Cancel context.CancelFunc
}

// Registry maps live connections to users and back.
// A connection belongs to at most one user; a user may hold many connections.
type Registry struct {
	mu       sync.RWMutex
	sessions map[core.SessionID]*sessionEntry
	users    map[domain.UserID]map[core.SessionID]struct{}
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[core.SessionID]*sessionEntry),
		users:    make(map[domain.UserID]map[core.SessionID]struct{}),
	}
}

// Bind registers a freshly accepted transport connection.
func (r *Registry) Bind(sid core.SessionID, conn core.SignalConnection, cancel context.CancelFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[sid] = &sessionEntry{Conn: conn, Cancel: cancel}
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("bound connection")
}

// Associate binds sid to user and returns the user it was bound to before,
// if any. Re-associating with the same user is a no-op.
func (r *Registry) Associate(sid core.SessionID, user domain.UserID) (domain.UserID, error) {
	if err := user.Validate(); err != nil {
		return "", err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[sid]
	if !ok {
		return "", ErrUnknownConnection
	}
	prev := e.User
	if prev == user {
		return prev, nil
	}
	if prev != "" {
		r.detach(prev, sid)
	}
	e.User = user
	conns, ok := r.users[user]
	if !ok {
		conns = make(map[core.SessionID]struct{})
		r.users[user] = conns
	}
	conns[sid] = struct{}{}
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Str("user", string(user)).Str("prev", string(prev)).Int("connections", len(conns)).Msg("associated")
	return prev, nil
}

// Disassociate drops the user binding of sid; the connection itself stays
// bound until Unbind.
func (r *Registry) Disassociate(sid core.SessionID) (domain.UserID, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[sid]
	if !ok || e.User == "" {
		return "", false
	}
	user := e.User
	e.User = ""
	r.detach(user, sid)
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Str("user", string(user)).Msg("disassociated")
	return user, true
}

func (r *Registry) detach(user domain.UserID, sid core.SessionID) {
	conns := r.users[user]
	delete(conns, sid)
	if len(conns) == 0 {
		delete(r.users, user)
	}
}

// Unbind forgets the connection entirely.
func (r *Registry) Unbind(sid core.SessionID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.sessions[sid]; ok && e.User != "" {
		r.detach(e.User, sid)
	}
	delete(r.sessions, sid)
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("unbind connection")
}

func (r *Registry) Conn(sid core.SessionID) (core.SignalConnection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.sessions[sid]; ok {
		return e.Conn, true
	}
	return nil, false
}

func (r *Registry) UserOf(sid core.SessionID) (domain.UserID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.sessions[sid]
	if !ok || e.User == "" {
		return "", false
	}
	return e.User, true
}

func (r *Registry) ConnectionsForUser(user domain.UserID) []core.SessionID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conns := r.users[user]
	out := make([]core.SessionID, 0, len(conns))
	for sid := range conns {
		out = append(out, sid)
	}
	return out
}

func (r *Registry) ConnectionCount(user domain.UserID) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users[user])
}

// Count returns the number of live connections.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Cancel stops the connection's pumps through its context.
func (r *Registry) Cancel(sid core.SessionID) bool {
	r.mu.RLock()
	e, ok := r.sessions[sid]
	r.mu.RUnlock()
	if !ok {
		return false
	}
	if e.Cancel != nil {
		e.Cancel()
	}
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("canceled connection")
	return true
}
