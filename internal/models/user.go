package models

import "time"

// User represents a user in the system
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Not serialized
	CreatedAt    time.Time `json:"created_at"`
}

// UserPatch holds the fields of a partial user update. Nil fields keep
// their stored value.
type UserPatch struct {
	Username     *string
	Email        *string
	PasswordHash *string
}
