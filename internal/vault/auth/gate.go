// Package auth implements the authentication gate: master password
// verification, account lockout, and the entry point for deriving the
// per-user encryption key. Every token manager goes through the gate
// before any key material is produced.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/avolkov/lockbox/internal/common"
	"github.com/avolkov/lockbox/internal/vault/cryptox"
	"github.com/avolkov/lockbox/internal/vault/models"
	"github.com/avolkov/lockbox/internal/vault/repositories/users"
)

const saltSize = 32

// Gate verifies master passwords and tracks lockout state.
//
// Lockout policy: after maxAttempts consecutive failed verifications the
// account is locked for lockoutDuration, during which all attempts are
// rejected without touching the password hash. A successful verification
// resets the counter.
type Gate struct {
	users           users.Repository
	maxAttempts     int
	lockoutDuration time.Duration

	// now is a test seam.
	now func() time.Time
}

// NewGate constructs a Gate over the given user repository.
func NewGate(repo users.Repository, maxAttempts int, lockoutDuration time.Duration) *Gate {
	return &Gate{
		users:           repo,
		maxAttempts:     maxAttempts,
		lockoutDuration: lockoutDuration,
		now:             time.Now,
	}
}

// Register creates a new vault account: a fresh random key-derivation salt
// and a bcrypt hash of the master password. The password itself is never
// stored.
func (g *Gate) Register(ctx context.Context, username, password string) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		Username:     username,
		PasswordHash: string(hash),
		Salt:         common.GenerateRandByteArray(saltSize),
	}
	created, err := g.users.Create(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("error creating user: %w", err)
	}
	return created, nil
}

// Authenticate verifies the master password for username and, on success,
// derives and returns the user's encryption key.
//
// Order of checks: lockout first (a locked account rejects all attempts
// without invoking password verification), then the bcrypt comparison,
// then key derivation. Unknown users surface as ErrInvalidCredentials so
// account existence is not leaked.
func (g *Gate) Authenticate(ctx context.Context, username, password string) (*models.User, []byte, error) {
	user, err := g.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, nil, common.ErrInvalidCredentials
		}
		return nil, nil, fmt.Errorf("error loading user: %w", err)
	}

	if g.locked(user) {
		return nil, nil, common.ErrAccountLocked
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		if recordErr := g.recordFailure(ctx, username); recordErr != nil {
			return nil, nil, recordErr
		}
		return nil, nil, common.ErrInvalidCredentials
	}

	if user.FailedAttempts > 0 {
		if err := g.users.ResetFailedAttempts(ctx, username); err != nil {
			return nil, nil, fmt.Errorf("error resetting attempts: %w", err)
		}
	}

	key := cryptox.DeriveEncryptionKey([]byte(password), user.Salt)
	return user, key, nil
}

// IsAccountLocked reports whether username currently rejects all
// authentication attempts.
func (g *Gate) IsAccountLocked(ctx context.Context, username string) (bool, error) {
	user, err := g.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("error loading user: %w", err)
	}
	return g.locked(user), nil
}

// LockAccount locks username for the configured cooldown window.
func (g *Gate) LockAccount(ctx context.Context, username string) error {
	if err := g.users.SetLock(ctx, username, g.now().Add(g.lockoutDuration)); err != nil {
		return fmt.Errorf("error locking account: %w", err)
	}
	return nil
}

func (g *Gate) locked(user *models.User) bool {
	return user.LockedUntil != nil && g.now().Before(*user.LockedUntil)
}

func (g *Gate) recordFailure(ctx context.Context, username string) error {
	count, err := g.users.RecordFailedAttempt(ctx, username)
	if err != nil {
		return fmt.Errorf("error recording failed attempt: %w", err)
	}
	if count >= g.maxAttempts {
		return g.LockAccount(ctx, username)
	}
	return nil
}
