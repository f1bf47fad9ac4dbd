package domain

import (
	"strings"
	"time"
)

// Identity is a registered user with the last-known cart for that user.
type Identity struct {
	ID             string     `json:"id"`
	Email          string     `json:"email"`
	PasswordSecret string     `json:"-"`
	DisplayName    string     `json:"name"`
	SavedCart      []CartLine `json:"cart"`
	CreatedAt      time.Time  `json:"createdAt"`
}

// Clone returns a copy that shares no slice storage with i.
func (i Identity) Clone() Identity {
	out := i
	out.SavedCart = CloneLines(i.SavedCart)
	return out
}

// NormalizeEmail trims and lowercases an email for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
