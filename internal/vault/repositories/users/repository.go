// Package users declares the repository contract for vault accounts.
package users

import (
	"context"
	"time"

	"github.com/avolkov/lockbox/internal/vault/models"
)

// Repository defines persistence operations for users. The core treats
// user rows as read-only except for the lockout bookkeeping columns.
type Repository interface {
	// Create inserts a new user and returns it with its generated ID.
	Create(ctx context.Context, user *models.User) (*models.User, error)

	// GetByUsername returns the user row or common.ErrorNotFound.
	GetByUsername(ctx context.Context, username string) (*models.User, error)

	// RecordFailedAttempt increments the consecutive-failure counter and
	// returns the new count.
	RecordFailedAttempt(ctx context.Context, username string) (int, error)

	// ResetFailedAttempts zeroes the consecutive-failure counter.
	ResetFailedAttempts(ctx context.Context, username string) error

	// SetLock locks the account until the given time and resets the
	// failure counter.
	SetLock(ctx context.Context, username string, until time.Time) error
}
