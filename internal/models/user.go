package models

import "time"

// User is an account that owns reservations and posts. PasswordHash is a
// bcrypt hash and never leaves the server.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}
