package app

import (
	"sync"
	"time"

	"github.com/dkeye/Relay/internal/domain"
	"github.com/rs/zerolog/log"
)

// ConnectionCounter is the source of truth for whether a user is online.
type ConnectionCounter interface {
	ConnectionCount(user domain.UserID) int
}

// PresenceChange is an online/offline edge to publish.
type PresenceChange struct {
	UserID   domain.UserID
	Online   bool
	LastSeen time.Time
}

// Presence tracks online state and last-seen per user, plus which users
// asked to hear about whom. Edges fire only when the connection count
// crosses between zero and one.
type Presence struct {
	counter ConnectionCounter
	now     func() time.Time

	mu       sync.RWMutex
	records  map[domain.UserID]domain.Presence
	watchers map[domain.UserID]map[domain.UserID]struct{}
	watching map[domain.UserID]map[domain.UserID]struct{}
}

type PresenceOption func(*Presence)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) PresenceOption {
	return func(p *Presence) { p.now = now }
}

func NewPresence(counter ConnectionCounter, opts ...PresenceOption) *Presence {
	p := &Presence{
		counter:  counter,
		now:      time.Now,
		records:  make(map[domain.UserID]domain.Presence),
		watchers: make(map[domain.UserID]map[domain.UserID]struct{}),
		watching: make(map[domain.UserID]map[domain.UserID]struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// MarkConnected runs after a connection was associated with user.
func (p *Presence) MarkConnected(user domain.UserID) (PresenceChange, bool) {
	if p.counter.ConnectionCount(user) == 0 {
		return PresenceChange{}, false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	wasOnline := p.records[user].Online
	p.records[user] = domain.Presence{Online: true}
	if wasOnline {
		return PresenceChange{}, false
	}
	log.Info().Str("module", "app.presence").Str("user", string(user)).Msg("online")
	return PresenceChange{UserID: user, Online: true}, true
}

// MarkDisconnected runs after a connection of user went away.
func (p *Presence) MarkDisconnected(user domain.UserID) (PresenceChange, bool) {
	if p.counter.ConnectionCount(user) > 0 {
		return PresenceChange{}, false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.records[user].Online {
		return PresenceChange{}, false
	}
	seen := p.now().UTC()
	p.records[user] = domain.Presence{Online: false, LastSeen: &seen}
	log.Info().Str("module", "app.presence").Str("user", string(user)).Time("last_seen", seen).Msg("offline")
	return PresenceChange{UserID: user, Online: false, LastSeen: seen}, true
}

// Query answers point lookups; unknown users are offline with no last-seen.
func (p *Presence) Query(users []domain.UserID) map[domain.UserID]domain.Presence {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make(map[domain.UserID]domain.Presence, len(users))
	for _, u := range users {
		rec := p.records[u]
		if rec.LastSeen != nil {
			seen := *rec.LastSeen
			rec.LastSeen = &seen
		}
		out[u] = rec
	}
	return out
}

// Watch subscribes watcher to presence edges of subjects.
func (p *Presence) Watch(watcher domain.UserID, subjects []domain.UserID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, s := range subjects {
		if s == watcher {
			continue
		}
		ws, ok := p.watchers[s]
		if !ok {
			ws = make(map[domain.UserID]struct{})
			p.watchers[s] = ws
		}
		ws[watcher] = struct{}{}
		subs, ok := p.watching[watcher]
		if !ok {
			subs = make(map[domain.UserID]struct{})
			p.watching[watcher] = subs
		}
		subs[s] = struct{}{}
	}
}

func (p *Presence) Watchers(subject domain.UserID) []domain.UserID {
	p.mu.RLock()
	defer p.mu.RUnlock()
	ws := p.watchers[subject]
	out := make([]domain.UserID, 0, len(ws))
	for w := range ws {
		out = append(out, w)
	}
	return out
}

// Forget drops every subscription held by watcher.
func (p *Presence) Forget(watcher domain.UserID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for s := range p.watching[watcher] {
		ws := p.watchers[s]
		delete(ws, watcher)
		if len(ws) == 0 {
			delete(p.watchers, s)
		}
	}
	delete(p.watching, watcher)
}

func (p *Presence) OnlineCount() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	n := 0
	for _, rec := range p.records {
		if rec.Online {
			n++
		}
	}
	return n
}
