// Package orch is the relay's event router: every inbound event and every
// connect/disconnect passes through one Orchestrator, which mutates the
// registry, rooms, presence and calls and emits the resulting broadcasts
// while holding a single lock.
package orch

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dkeye/Relay/internal/app"
	"github.com/dkeye/Relay/internal/core"
	"github.com/dkeye/Relay/internal/domain"
	"github.com/dkeye/Relay/internal/metrics"
	"github.com/dkeye/Relay/internal/protocol"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
)

type Orchestrator struct {
	Registry *app.Registry
	Rooms    core.RoomManager
	Presence *app.Presence
	Calls    *app.CallMachine
	Policy   app.Policy
	Metrics  *metrics.Metrics

	now func() time.Time
	mu  sync.Mutex
}

func New(reg *app.Registry, rooms core.RoomManager, presence *app.Presence, calls *app.CallMachine, policy app.Policy) *Orchestrator {
	if policy == nil {
		policy = app.DropPolicy{}
	}
	o := &Orchestrator{
		Registry: reg,
		Rooms:    rooms,
		Presence: presence,
		Calls:    calls,
		Policy:   policy,
		now:      time.Now,
	}
	calls.SetExpiryHandler(o.onRingExpired)
	return o
}

// Connect registers a new transport connection.
func (o *Orchestrator) Connect(sid core.SessionID, conn core.SignalConnection, cancel context.CancelFunc) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.Registry.Bind(sid, conn, cancel)
	o.observe()
}

// Disconnect removes every trace of the connection: its user binding, all
// room memberships and, on the last device, the user's presence.
func (o *Orchestrator) Disconnect(sid core.SessionID) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, ok := o.Registry.Conn(sid); !ok {
		return
	}
	user, bound := o.Registry.Disassociate(sid)
	rooms := o.Rooms.LeaveAll(sid)
	o.Registry.Cancel(sid)
	o.Registry.Unbind(sid)
	log.Info().Str("module", "orch").Str("sid", string(sid)).Str("user", string(user)).Int("rooms", len(rooms)).Msg("disconnected")
	if bound {
		if ch, ok := o.Presence.MarkDisconnected(user); ok {
			o.publishPresence(ch)
			o.Presence.Forget(user)
		}
	}
	o.observe()
}

// Dispatch handles one inbound event. Malformed and unknown events are
// dropped without a reply.
func (o *Orchestrator) Dispatch(sid core.SessionID, event string, data json.RawMessage) {
	msg, err := protocol.Decode(event, data)
	if err != nil {
		reason := "malformed"
		if errors.Is(err, protocol.ErrUnknownEvent) {
			reason = "unknown"
		}
		o.Metrics.Rejected(reason)
		log.Debug().Err(err).Str("module", "orch").Str("sid", string(sid)).Str("event", event).Msg("event dropped")
		return
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if _, ok := o.Registry.Conn(sid); !ok {
		log.Debug().Str("module", "orch").Str("sid", string(sid)).Str("event", event).Msg("event from unknown connection")
		return
	}
	o.Metrics.Event(event)
	log.Debug().Str("module", "orch").Str("sid", string(sid)).Str("event", event).Msg("dispatch")

	switch event {
	case protocol.EvLogin:
		o.login(sid, msg.(*protocol.Login))
	case protocol.EvGetPresence:
		o.getPresence(sid, msg.(*protocol.GetPresence))
	case protocol.EvJoinChatRoom:
		o.joinChatRoom(sid, msg.(*protocol.RoomUser))
	case protocol.EvLeaveChatRoom:
		o.leaveChatRoom(sid, msg.(*protocol.RoomUser))
	case protocol.EvNewChat:
		o.newChat(msg.(*protocol.NewChat))
	case protocol.EvChatMessage:
		o.chatMessage(sid, msg.(*protocol.ChatMessage))
	case protocol.EvDeleteMessage:
		o.deleteMessage(msg.(*protocol.DeleteMessage))
	case protocol.EvTyping:
		o.typing(sid, msg.(*protocol.RoomUser))
	case protocol.EvMessageRead:
		o.messageRead(sid, msg.(*protocol.MessageRead))
	case protocol.EvUpdateUnread:
		o.updateUnread(msg.(*protocol.UpdateUnread))
	case protocol.EvJoinRoom:
		o.joinRoom(sid, msg.(*protocol.RoomUser))
	case protocol.EvSignal:
		o.signal(sid, msg.(*protocol.Signal))
	case protocol.EvLeaveRoom:
		o.leaveRoom(sid, msg.(*protocol.RoomUser))
	case protocol.EvCallRequest, protocol.EvCallAccept, protocol.EvCallReject, protocol.EvCallEnd, protocol.EvCallMissed:
		o.call(sid, event, msg.(*protocol.Call))
	case protocol.EvPing:
		o.toConn(sid, protocol.EvPong, protocol.Pong{Time: o.now().UnixMilli()})
	}
	o.observe()
}

func (o *Orchestrator) toRoom(roomID domain.RoomID, event string, payload any, exclude core.SessionID) {
	frame, ok := o.encode(event, payload)
	if !ok {
		return
	}
	o.settle(roomID, o.Rooms.BroadcastToRoom(roomID, frame, exclude))
}

func (o *Orchestrator) toUser(user domain.UserID, event string, payload any) {
	frame, ok := o.encode(event, payload)
	if !ok {
		return
	}
	o.settle(domain.NotificationRoom(user), o.Rooms.BroadcastToUser(user, frame))
}

func (o *Orchestrator) toConn(sid core.SessionID, event string, payload any) {
	frame, ok := o.encode(event, payload)
	if !ok {
		return
	}
	conn, ok := o.Registry.Conn(sid)
	if !ok {
		return
	}
	res := core.PublishResult{SendTo: 1}
	if err := conn.TrySend(frame); err != nil {
		res = core.PublishResult{Dropped: []core.SessionID{sid}}
	}
	o.settle("", res)
}

func (o *Orchestrator) encode(event string, payload any) (core.Frame, bool) {
	frame, err := protocol.Encode(event, payload)
	if err != nil {
		log.Error().Err(err).Str("module", "orch").Str("event", event).Msg("encode failed")
		return nil, false
	}
	return frame, true
}

// settle applies the backpressure policy to connections that refused a frame.
// Delivery is never retried.
func (o *Orchestrator) settle(roomID domain.RoomID, res core.PublishResult) {
	if len(res.Dropped) == 0 {
		return
	}
	o.Metrics.Dropped(len(res.Dropped))
	for _, sid := range res.Dropped {
		action := o.Policy.OnBackPressure(roomID, sid)
		log.Warn().Str("module", "orch").Str("room", string(roomID)).Str("sid", string(sid)).Int("action", int(action)).Msg("delivery dropped")
		switch action {
		case app.KickMember:
			if conn, ok := o.Registry.Conn(sid); ok {
				conn.Close()
			}
		case app.DropFrame, app.NoAction:
		}
	}
}

func (o *Orchestrator) observe() {
	o.Metrics.Observe(o.Registry.Count(), o.Presence.OnlineCount(), o.Calls.Active())
}
