// Package secrets declares the repository contract for stored credentials.
// Values arrive already encrypted; this layer never sees plaintext.
package secrets

import (
	"context"

	"github.com/avolkov/lockbox/internal/vault/models"
)

// Repository defines persistence operations for secrets, keyed by
// (username, account, account_username).
type Repository interface {
	// Create inserts a new secret row.
	Create(ctx context.Context, secret *models.Secret) error

	// Update replaces the ciphertext (and category) of an existing row.
	// Returns common.ErrorNotFound when the row is absent.
	Update(ctx context.Context, secret *models.Secret) error

	// Get returns the row or common.ErrorNotFound.
	Get(ctx context.Context, username, account, accountUsername string) (*models.Secret, error)

	// Delete removes the row. Returns common.ErrorNotFound when absent.
	Delete(ctx context.Context, username, account, accountUsername string) error

	// ListByUser returns all secret rows belonging to username.
	ListByUser(ctx context.Context, username string) ([]*models.Secret, error)
}
