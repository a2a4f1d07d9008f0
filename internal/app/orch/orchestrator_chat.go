package orch

import (
	"github.com/dkeye/Relay/internal/core"
	"github.com/dkeye/Relay/internal/domain"
	"github.com/dkeye/Relay/internal/protocol"
	"github.com/rs/zerolog/log"
)

func (o *Orchestrator) newChat(m *protocol.NewChat) {
	for _, u := range domain.UserIDs(m.UserIDs) {
		o.toUser(u, protocol.EvNewChat, protocol.NewChatNotice{Chat: m.Chat})
	}
}

// chatMessage echoes the message to the whole room, sender included, and
// bumps the unread counter of every other recipient. Without an explicit
// sender the connection's user is the sender.
func (o *Orchestrator) chatMessage(sid core.SessionID, m *protocol.ChatMessage) {
	sender := m.Sender()
	if sender == "" {
		sender, _ = o.Registry.UserOf(sid)
	}
	payload, err := m.Outbound(o.now(), sender)
	if err != nil {
		log.Debug().Err(err).Str("module", "orch").Str("room", string(m.RoomID)).Msg("chat message payload")
		return
	}
	o.toRoom(m.RoomID, protocol.EvChatMessage, payload, "")

	for _, r := range domain.UserIDs(m.Recipients) {
		if r == sender {
			continue
		}
		o.toUser(r, protocol.EvUpdateUnread, protocol.Increment(string(m.RoomID), 1))
	}
}

func (o *Orchestrator) deleteMessage(m *protocol.DeleteMessage) {
	o.toRoom(m.RoomID, protocol.EvDeleteMessage, protocol.MessageDeleted{MessageID: m.MessageID, UserID: m.UserID}, "")
}

func (o *Orchestrator) typing(sid core.SessionID, m *protocol.RoomUser) {
	o.toRoom(m.RoomID, protocol.EvTyping, protocol.UserInRoom{UserID: m.UserID}, sid)
}

func (o *Orchestrator) messageRead(sid core.SessionID, m *protocol.MessageRead) {
	o.toRoom(m.RoomID, protocol.EvMessageRead, protocol.ReadReceipt{UserID: m.UserID, MessageIDs: m.MessageIDs}, sid)
	o.toUser(m.UserID, protocol.EvUpdateUnread, protocol.UnreadCount(string(m.RoomID), 0))
}

func (o *Orchestrator) updateUnread(m *protocol.UpdateUnread) {
	o.toUser(m.UserID, protocol.EvUpdateUnread, protocol.UnreadCount(m.ChatID, *m.UnreadCount))
}
