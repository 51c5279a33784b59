package models

import "time"

// User is a vault account. PasswordHash is a bcrypt hash of the master
// password; Salt feeds the per-user encryption key derivation and is
// generated once at registration. LockedUntil is set when too many
// consecutive logins fail.
type User struct {
	ID             string
	Username       string
	PasswordHash   string
	Salt           []byte
	FailedAttempts int
	LockedUntil    *time.Time
	CreatedAt      time.Time
}
