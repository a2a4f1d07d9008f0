package domain

import "time"

// Presence is derived from the live connection count of a user.
// LastSeen is set only while offline.
type Presence struct {
	Online   bool       `json:"online"`
	LastSeen *time.Time `json:"lastSeen,omitempty"`
}
