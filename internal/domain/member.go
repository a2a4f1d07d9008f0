package domain

import (
	"bytes"

	"github.com/goccy/go-json"
)

// Participant is one side of a call: an identity plus the display name the
// client supplied. The relay never looks the name up.
type Participant struct {
	UserID UserID `json:"userId" validate:"required,max=128"`
	Name   string `json:"name,omitempty" validate:"max=128"`
}

// DisplayName falls back to the identity when no name was sent.
func (p Participant) DisplayName() string {
	if p.Name != "" {
		return p.Name
	}
	return string(p.UserID)
}

// UnmarshalJSON also accepts a bare identity string.
func (p *Participant) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var id string
		if err := json.Unmarshal(data, &id); err != nil {
			return err
		}
		*p = Participant{UserID: UserID(id)}
		return nil
	}
	type plain Participant
	var v plain
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*p = Participant(v)
	return nil
}
