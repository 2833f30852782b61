package models

import "time"

// User represents a user account in the system.
type User struct {
	ID           string    `db:"id" json:"id"`
	Username     string    `db:"username" json:"username"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"` // Never expose this to the client
	CreatedAt    time.Time `db:"-" json:"createdAt"`
}

func (u User) String() string {
	return u.Username
}
