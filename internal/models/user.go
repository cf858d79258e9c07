package models

import (
	"strings"
	"time"
)

// User is the session identity of whoever is using the board.
//
// It is self-reported: nothing verifies that the name or email belongs to
// the person who typed it.
type User struct {
	// ID is DeriveID(Name, Email), the same derivation roster entries use.
	ID string `json:"id"`

	// Name is the display name entered at login.
	Name string `json:"name"`

	// Email is optional. When present it takes part in the ID.
	Email string `json:"email,omitempty"`

	// CreatedAt is the Unix timestamp of the first login with this identity.
	CreatedAt int64 `json:"createdAt,omitempty"`
}

// NewUser builds a user from login fields, trimming whitespace and deriving the ID.
func NewUser(name, email string) *User {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	return &User{
		ID:        DeriveID(name, email),
		Name:      name,
		Email:     email,
		CreatedAt: time.Now().Unix(),
	}
}

// AsPerson returns the roster entry this user would occupy, with no group members.
func (u User) AsPerson() Person {
	return Person{
		ID:    u.ID,
		Name:  u.Name,
		Email: u.Email,
	}
}
