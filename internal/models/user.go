package models

import "time"

// User roles
const (
	RoleMember    = "member"
	RoleCaregiver = "caregiver"
)

// User represents an account that can log in and share its whereabouts.
// PasswordHash is never serialized.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Name         string    `json:"name"`
	Role         string    `json:"role"`
	Email        *string   `json:"email"`
	CreatedAt    time.Time `json:"createdAt"`
}

// NewUser holds the fields needed to register a user
type NewUser struct {
	Username     string
	PasswordHash string
	Name         string
	Role         string
	Email        *string
}

// Session represents an authenticated session
type Session struct {
	ID        string    `json:"id"`
	UserID    int64     `json:"userId"`
	ExpiresAt time.Time `json:"expiresAt"`
	CreatedAt time.Time `json:"createdAt"`
}

// IsExpired checks if the session has expired
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}
