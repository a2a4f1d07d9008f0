package domain

import "time"

type CallState string

const (
	CallNone     CallState = "NONE"
	CallRinging  CallState = "RINGING"
	CallActive   CallState = "ACTIVE"
	CallEnded    CallState = "ENDED"
	CallRejected CallState = "REJECTED"
	CallMissed   CallState = "MISSED"
)

// CallSession tracks one call attempt within a room.
type CallSession struct {
	RoomID     RoomID      `json:"roomId"`
	State      CallState   `json:"state"`
	From       Participant `json:"from"`
	To         Participant `json:"to"`
	IsVideo    bool        `json:"isVideo"`
	StartedAt  time.Time   `json:"startedAt"`
	AcceptedAt *time.Time  `json:"acceptedAt,omitempty"`
}
