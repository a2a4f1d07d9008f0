package protocol

import (
	"time"

	"github.com/dkeye/Relay/internal/domain"
	"github.com/goccy/go-json"
)

type UserOnline struct {
	UserID domain.UserID `json:"userId"`
}

type UserOffline struct {
	UserID   domain.UserID `json:"userId"`
	LastSeen time.Time     `json:"lastSeen"`
}

// Presence answers get-presence: userId -> record.
type Presence map[domain.UserID]domain.Presence

type UserInRoom struct {
	UserID domain.UserID `json:"userId"`
}

type NewChatNotice struct {
	Chat json.RawMessage `json:"chat"`
}

// UnreadUpdate carries either a relative increment or an absolute count.
type UnreadUpdate struct {
	ChatID      string `json:"chatId"`
	Increment   *int   `json:"increment,omitempty"`
	UnreadCount *int   `json:"unreadCount,omitempty"`
}

func Increment(chatID string, n int) UnreadUpdate {
	return UnreadUpdate{ChatID: chatID, Increment: &n}
}

func UnreadCount(chatID string, n int) UnreadUpdate {
	return UnreadUpdate{ChatID: chatID, UnreadCount: &n}
}

type MessageDeleted struct {
	MessageID string        `json:"messageId"`
	UserID    domain.UserID `json:"userId"`
}

type ReadReceipt struct {
	UserID     domain.UserID `json:"userId"`
	MessageIDs []string      `json:"messageIds"`
}

type PeerSignal struct {
	Type   string        `json:"type"`
	UserID domain.UserID `json:"userId"`
}

type CallBusy struct {
	RoomID domain.RoomID `json:"roomId"`
}

type SystemNotice struct {
	RoomID  domain.RoomID        `json:"roomId"`
	Message domain.SystemMessage `json:"message"`
}

type Pong struct {
	Time int64 `json:"time"`
}
