package protocol

import (
	"time"

	"github.com/dkeye/Relay/internal/domain"
	"github.com/goccy/go-json"
)

type Login struct {
	UserID domain.UserID `json:"userId" validate:"required,max=128"`
}

type GetPresence struct {
	UserIDs []string `json:"userIds" validate:"required,min=1,dive,required"`
}

// RoomUser is the payload shared by join/leave, typing and call-room events.
type RoomUser struct {
	RoomID domain.RoomID `json:"roomId" validate:"required,max=256"`
	UserID domain.UserID `json:"userId" validate:"required,max=128"`
}

type NewChat struct {
	UserIDs []string        `json:"userIds" validate:"required,min=1,dive,required"`
	Chat    json.RawMessage `json:"chat" validate:"required"`
}

// ChatMessage keeps the whole payload so unknown fields are forwarded.
// userId is accepted as the sender when senderId is absent; with neither,
// the router falls back to the user bound to the connection.
type ChatMessage struct {
	RoomID     domain.RoomID `json:"roomId" validate:"required,max=256"`
	SenderID   domain.UserID `json:"senderId" validate:"max=128"`
	UserID     domain.UserID `json:"userId" validate:"max=128"`
	Recipients []string      `json:"recipients"`

	raw json.RawMessage
}

func (m *ChatMessage) setRaw(raw json.RawMessage) { m.raw = raw }

// Sender is the identity named in the payload, if any.
func (m *ChatMessage) Sender() domain.UserID {
	if m.SenderID != "" {
		return m.SenderID
	}
	return m.UserID
}

// Outbound returns the payload as received, stamped with the server time.
// A non-empty sender fills senderId and userId where the client left them out.
func (m *ChatMessage) Outbound(now time.Time, sender domain.UserID) (json.RawMessage, error) {
	fields := map[string]json.RawMessage{}
	if len(m.raw) > 0 {
		if err := json.Unmarshal(m.raw, &fields); err != nil {
			return nil, err
		}
	}
	if sender != "" {
		id, err := json.Marshal(sender)
		if err != nil {
			return nil, err
		}
		if _, ok := fields["senderId"]; !ok {
			fields["senderId"] = id
		}
		if _, ok := fields["userId"]; !ok {
			fields["userId"] = id
		}
	}
	stamp, err := json.Marshal(now.UnixMilli())
	if err != nil {
		return nil, err
	}
	fields["time"] = stamp
	return json.Marshal(fields)
}

type DeleteMessage struct {
	RoomID    domain.RoomID `json:"roomId" validate:"required,max=256"`
	MessageID string        `json:"messageId" validate:"required"`
	UserID    domain.UserID `json:"userId" validate:"required,max=128"`
}

type MessageRead struct {
	RoomID     domain.RoomID `json:"roomId" validate:"required,max=256"`
	UserID     domain.UserID `json:"userId" validate:"required,max=128"`
	MessageIDs []string      `json:"messageIds" validate:"required"`
}

type UpdateUnread struct {
	ChatID      string        `json:"chatId" validate:"required"`
	UserID      domain.UserID `json:"userId" validate:"required,max=128"`
	UnreadCount *int          `json:"unreadCount" validate:"required,min=0"`
}

// Signal carries an opaque SDP/ICE blob; it is never parsed.
type Signal struct {
	RoomID domain.RoomID   `json:"roomId" validate:"required,max=256"`
	Data   json.RawMessage `json:"data" validate:"required"`
}

// Call is the payload of every call:* event.
type Call struct {
	RoomID  domain.RoomID      `json:"roomId" validate:"required,max=256"`
	From    domain.Participant `json:"from" validate:"required"`
	To      domain.Participant `json:"to" validate:"required"`
	IsVideo bool               `json:"isVideo"`
}

type Ping struct{}
