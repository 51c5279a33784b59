// Package servicetokens declares the repository contract for long-lived
// service token rows.
package servicetokens

import (
	"context"
	"time"

	"github.com/avolkov/lockbox/internal/vault/models"
)

// Repository defines persistence operations for service tokens. Rows are
// independent and never overwritten; revocation sets a flag, it does not
// delete.
type Repository interface {
	// Insert stores a new token row keyed by its token_id.
	Insert(ctx context.Context, token *models.ServiceToken) error

	// GetByTokenID returns the row or common.ErrorNotFound.
	GetByTokenID(ctx context.Context, tokenID string) (*models.ServiceToken, error)

	// ListByUser returns all token rows belonging to username, newest first.
	ListByUser(ctx context.Context, username string) ([]*models.ServiceToken, error)

	// Revoke marks the row revoked (soft delete).
	Revoke(ctx context.Context, tokenID string) error

	// UpdateLastUsed records when the token last recovered a key.
	UpdateLastUsed(ctx context.Context, tokenID string, t time.Time) error
}
