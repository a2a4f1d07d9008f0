package orch

import (
	"github.com/dkeye/Relay/internal/app"
	"github.com/dkeye/Relay/internal/core"
	"github.com/dkeye/Relay/internal/domain"
	"github.com/dkeye/Relay/internal/protocol"
	"github.com/rs/zerolog/log"
)

// login binds the connection to a user, subscribes it to the user's
// notification room and publishes the online edge.
func (o *Orchestrator) login(sid core.SessionID, m *protocol.Login) {
	prev, err := o.Registry.Associate(sid, m.UserID)
	if err != nil {
		log.Debug().Err(err).Str("module", "orch").Str("sid", string(sid)).Msg("login refused")
		return
	}
	if prev != "" && prev != m.UserID {
		o.Rooms.Leave(domain.NotificationRoom(prev), sid)
		if ch, ok := o.Presence.MarkDisconnected(prev); ok {
			o.publishPresence(ch)
			o.Presence.Forget(prev)
		}
	}
	if _, err := o.Rooms.Join(domain.NotificationRoom(m.UserID), sid); err != nil {
		log.Error().Err(err).Str("module", "orch").Str("sid", string(sid)).Msg("join notification room")
		return
	}
	log.Info().Str("module", "orch").Str("sid", string(sid)).Str("user", string(m.UserID)).Msg("logged in")
	if ch, ok := o.Presence.MarkConnected(m.UserID); ok {
		o.publishPresence(ch)
	}
}

func (o *Orchestrator) getPresence(sid core.SessionID, m *protocol.GetPresence) {
	users := domain.UserIDs(m.UserIDs)
	if watcher, ok := o.Registry.UserOf(sid); ok {
		o.Presence.Watch(watcher, users)
	}
	o.toConn(sid, protocol.EvPresence, protocol.Presence(o.Presence.Query(users)))
}

// publishPresence pushes an edge to everyone watching the user and to the
// user's own devices.
func (o *Orchestrator) publishPresence(ch app.PresenceChange) {
	var (
		event   string
		payload any
	)
	if ch.Online {
		event, payload = protocol.EvUserOnline, protocol.UserOnline{UserID: ch.UserID}
	} else {
		event, payload = protocol.EvUserOffline, protocol.UserOffline{UserID: ch.UserID, LastSeen: ch.LastSeen}
	}
	frame, ok := o.encode(event, payload)
	if !ok {
		return
	}
	res := o.Rooms.BroadcastToUser(ch.UserID, frame)
	for _, w := range o.Presence.Watchers(ch.UserID) {
		res.Merge(o.Rooms.BroadcastToUser(w, frame))
	}
	o.settle(domain.NotificationRoom(ch.UserID), res)
}

func (o *Orchestrator) joinChatRoom(sid core.SessionID, m *protocol.RoomUser) {
	if !o.join(sid, m.RoomID) {
		return
	}
	o.toRoom(m.RoomID, protocol.EvUserJoinedChat, protocol.UserInRoom{UserID: m.UserID}, sid)
}

func (o *Orchestrator) leaveChatRoom(sid core.SessionID, m *protocol.RoomUser) {
	if !o.leave(sid, m.RoomID) {
		return
	}
	o.toRoom(m.RoomID, protocol.EvUserLeftChat, protocol.UserInRoom{UserID: m.UserID}, sid)
}

func (o *Orchestrator) joinRoom(sid core.SessionID, m *protocol.RoomUser) {
	if !o.join(sid, m.RoomID) {
		return
	}
	o.toRoom(m.RoomID, protocol.EvSignal, protocol.PeerSignal{Type: protocol.SignalUserJoined, UserID: m.UserID}, sid)
}

func (o *Orchestrator) leaveRoom(sid core.SessionID, m *protocol.RoomUser) {
	if !o.leave(sid, m.RoomID) {
		return
	}
	o.toRoom(m.RoomID, protocol.EvSignal, protocol.PeerSignal{Type: protocol.SignalUserLeft, UserID: m.UserID}, sid)
}

// signal relays the opaque blob to the other members as is.
func (o *Orchestrator) signal(sid core.SessionID, m *protocol.Signal) {
	frame, err := protocol.Encode(protocol.EvSignal, m.Data)
	if err != nil {
		log.Error().Err(err).Str("module", "orch").Str("room", string(m.RoomID)).Msg("encode signal")
		return
	}
	o.settle(m.RoomID, o.Rooms.BroadcastToRoom(m.RoomID, frame, sid))
}

// Notification rooms follow the login binding and cannot be joined or left
// by room events.
func notificationRoom(sid core.SessionID, roomID domain.RoomID) bool {
	if domain.NewRoom(roomID).Kind != domain.RoomNotification {
		return false
	}
	log.Debug().Str("module", "orch").Str("sid", string(sid)).Str("room", string(roomID)).Msg("notification room membership follows login")
	return true
}

func (o *Orchestrator) join(sid core.SessionID, roomID domain.RoomID) bool {
	if notificationRoom(sid, roomID) {
		return false
	}
	if _, err := o.Rooms.Join(roomID, sid); err != nil {
		log.Error().Err(err).Str("module", "orch").Str("sid", string(sid)).Str("room", string(roomID)).Msg("join failed")
		return false
	}
	return true
}

func (o *Orchestrator) leave(sid core.SessionID, roomID domain.RoomID) bool {
	if notificationRoom(sid, roomID) {
		return false
	}
	o.Rooms.Leave(roomID, sid)
	return true
}
