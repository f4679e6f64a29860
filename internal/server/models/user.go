// Package models defines server-side data models persisted in the database.
package models

import "time"

// UserStatus is the approval state of an account.
type UserStatus string

const (
	UserPending  UserStatus = "pending"
	UserApproved UserStatus = "approved"
)

// User is an account. PasswordHash never leaves the server.
type User struct {
	ID           int64      `json:"id"`
	Email        string     `json:"email"`
	Name         string     `json:"name"`
	PasswordHash string     `json:"-"`
	Status       UserStatus `json:"status"`
	IsAdmin      bool       `json:"is_admin"`
	CreatedAt    time.Time  `json:"created_at"`
}

// IsApproved reports whether the user may log in.
func (u *User) IsApproved() bool {
	return u.Status == UserApproved
}
