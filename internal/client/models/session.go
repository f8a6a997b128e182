// Package models defines the client-side records behind access decisions:
// the signed-in identity, its organization and its billing state.
package models

import (
	"slices"
	"time"
)

// Role is a user's role inside their organization.
type Role string

const (
	RoleOwner   Role = "owner"
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleMember  Role = "member"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleOwner, RoleAdmin, RoleManager, RoleMember:
		return true
	}
	return false
}

// User is the identity returned by the backend.
type User struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Role      Role   `json:"role"`
}

// Session is the current authentication identity. The zero value is the
// anonymous visitor.
type Session struct {
	UserID          string
	Email           string
	Role            Role
	IsAuthenticated bool

	// ExpiresAt is taken from the token; zero means unknown.
	ExpiresAt time.Time
}

// SessionFromUser builds an authenticated session for u.
func SessionFromUser(u User, expiresAt time.Time) Session {
	return Session{
		UserID:          u.ID,
		Email:           u.Email,
		Role:            u.Role,
		IsAuthenticated: true,
		ExpiresAt:       expiresAt,
	}
}

// Expired reports whether the session has a known expiry at or before now.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// HasRole reports whether the session's role is one of roles.
func (s Session) HasRole(roles ...Role) bool {
	return slices.Contains(roles, s.Role)
}

// Credentials are what a visitor types into the login form.
type Credentials struct {
	Email    string
	Password []byte
}

// Registration is the sign-up form.
type Registration struct {
	Email     string
	Password  []byte
	FirstName string
	LastName  string
}
