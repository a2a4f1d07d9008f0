package domain

import "time"

type NoticeEvent string

const (
	NoticeStarted  NoticeEvent = "started"
	NoticeAccepted NoticeEvent = "accepted"
	NoticeEnded    NoticeEvent = "ended"
	NoticeMissed   NoticeEvent = "missed"
)

const MessageKindSystem = "system"

// SystemMessage is a synthetic chat message describing a call lifecycle event.
type SystemMessage struct {
	ID      string      `json:"id"`
	Kind    string      `json:"kind"`
	Event   NoticeEvent `json:"event"`
	RoomID  RoomID      `json:"roomId"`
	From    Participant `json:"from"`
	To      Participant `json:"to"`
	IsVideo bool        `json:"isVideo"`
	Text    string      `json:"text"`
	Time    time.Time   `json:"time"`
}
