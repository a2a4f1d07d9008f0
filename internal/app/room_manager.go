package app

import (
	"sync"

	"github.com/dkeye/Relay/internal/core"
	"github.com/dkeye/Relay/internal/domain"
	"github.com/rs/zerolog/log"
)

// ConnResolver looks up the transport handle of a connection.
type ConnResolver interface {
	Conn(sid core.SessionID) (core.SignalConnection, bool)
}

type RoomManagerImpl struct {
	conns ConnResolver

	mu       sync.RWMutex
	rooms    map[domain.RoomID]core.RoomService
	memberOf map[core.SessionID]map[domain.RoomID]struct{}
}

func NewRoomManager(conns ConnResolver) core.RoomManager {
	return &RoomManagerImpl{
		conns:    conns,
		rooms:    make(map[domain.RoomID]core.RoomService),
		memberOf: make(map[core.SessionID]map[domain.RoomID]struct{}),
	}
}

func (f *RoomManagerImpl) Join(roomID domain.RoomID, sid core.SessionID) (bool, error) {
	conn, ok := f.conns.Conn(sid)
	if !ok {
		return false, ErrUnknownConnection
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	room, ok := f.rooms[roomID]
	if !ok {
		room = core.NewRoomService(domain.NewRoom(roomID))
		f.rooms[roomID] = room
	}
	added := room.AddMember(sid, conn)
	joined, ok := f.memberOf[sid]
	if !ok {
		joined = make(map[domain.RoomID]struct{})
		f.memberOf[sid] = joined
	}
	joined[roomID] = struct{}{}
	if added {
		log.Info().Str("module", "app.rooms").Str("room", string(roomID)).Str("sid", string(sid)).Int("members", room.MemberCount()).Msg("joined")
	}
	return added, nil
}

func (f *RoomManagerImpl) Leave(roomID domain.RoomID, sid core.SessionID) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.leaveLocked(roomID, sid)
}

func (f *RoomManagerImpl) leaveLocked(roomID domain.RoomID, sid core.SessionID) bool {
	if joined, ok := f.memberOf[sid]; ok {
		delete(joined, roomID)
		if len(joined) == 0 {
			delete(f.memberOf, sid)
		}
	}
	room, ok := f.rooms[roomID]
	if !ok {
		return false
	}
	removed := room.RemoveMember(sid)
	if room.MemberCount() == 0 {
		delete(f.rooms, roomID)
		log.Debug().Str("module", "app.rooms").Str("room", string(roomID)).Msg("discarded empty room")
	}
	if removed {
		log.Info().Str("module", "app.rooms").Str("room", string(roomID)).Str("sid", string(sid)).Msg("left")
	}
	return removed
}

func (f *RoomManagerImpl) LeaveAll(sid core.SessionID) []domain.RoomID {
	f.mu.Lock()
	defer f.mu.Unlock()
	joined := f.memberOf[sid]
	out := make([]domain.RoomID, 0, len(joined))
	for roomID := range joined {
		out = append(out, roomID)
	}
	for _, roomID := range out {
		f.leaveLocked(roomID, sid)
	}
	return out
}

// BroadcastToRoom is a silent no-op for rooms without members.
func (f *RoomManagerImpl) BroadcastToRoom(roomID domain.RoomID, data core.Frame, exclude core.SessionID) core.PublishResult {
	f.mu.RLock()
	room, ok := f.rooms[roomID]
	f.mu.RUnlock()
	if !ok {
		return core.PublishResult{}
	}
	return room.Broadcast(exclude, data)
}

func (f *RoomManagerImpl) BroadcastToUser(userID domain.UserID, data core.Frame) core.PublishResult {
	return f.BroadcastToRoom(domain.NotificationRoom(userID), data, "")
}

func (f *RoomManagerImpl) List() []core.RoomInfo {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]core.RoomInfo, 0, len(f.rooms))
	for id, r := range f.rooms {
		out = append(out, core.RoomInfo{ID: id, Kind: r.Room().Kind, MemberCount: r.MemberCount()})
	}
	return out
}

func (f *RoomManagerImpl) Members(roomID domain.RoomID) []core.SessionID {
	f.mu.RLock()
	room, ok := f.rooms[roomID]
	f.mu.RUnlock()
	if !ok {
		return nil
	}
	return room.Members()
}

func (f *RoomManagerImpl) RoomsOf(sid core.SessionID) []domain.RoomID {
	f.mu.RLock()
	defer f.mu.RUnlock()
	joined := f.memberOf[sid]
	out := make([]domain.RoomID, 0, len(joined))
	for roomID := range joined {
		out = append(out, roomID)
	}
	return out
}
