package domain

import "strings"

// NotificationPrefix marks the per-user private rooms used for direct pushes.
const NotificationPrefix = "user:"

type RoomID string

type RoomKind string

const (
	RoomShared       RoomKind = "shared"
	RoomNotification RoomKind = "notification"
)

type Room struct {
	ID   RoomID   `json:"id"`
	Kind RoomKind `json:"kind"`
}

func NewRoom(id RoomID) *Room {
	kind := RoomShared
	if strings.HasPrefix(string(id), NotificationPrefix) {
		kind = RoomNotification
	}
	return &Room{ID: id, Kind: kind}
}

// NotificationRoom derives the private room of a user.
func NotificationRoom(u UserID) RoomID {
	return RoomID(NotificationPrefix + string(u))
}
