// Package domain contains entity without logic, just meta-data
package domain

import (
	"errors"
	"strings"
)

const MaxUserIDLen = 128

var (
	ErrUserIDEmpty   = errors.New("user id empty")
	ErrUserIDTooLong = errors.New("user id too long")
)

// UserID is an opaque identity; profile data lives outside the relay.
type UserID string

func (u UserID) Validate() error {
	if strings.TrimSpace(string(u)) == "" {
		return ErrUserIDEmpty
	}
	if len(u) > MaxUserIDLen {
		return ErrUserIDTooLong
	}
	return nil
}

// UserIDs converts raw identities, skipping blanks and duplicates.
func UserIDs(raw []string) []UserID {
	seen := make(map[UserID]struct{}, len(raw))
	out := make([]UserID, 0, len(raw))
	for _, r := range raw {
		u := UserID(r)
		if u.Validate() != nil {
			continue
		}
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	return out
}
