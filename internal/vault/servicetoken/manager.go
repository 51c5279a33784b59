// Package servicetoken implements the long-lived automation token manager.
//
// Each token is an independent row, never overwritten. Revocation is a
// soft delete: the row keeps its history, it just stops resolving.
// Revocation and expiry checks always precede the salted hash
// verification, so a dead token never reaches cryptographic work.
package servicetoken

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/avolkov/lockbox/internal/common"
	"github.com/avolkov/lockbox/internal/vault/auth"
	"github.com/avolkov/lockbox/internal/vault/cryptox"
	"github.com/avolkov/lockbox/internal/vault/models"
	"github.com/avolkov/lockbox/internal/vault/repositories/servicetokens"
	"github.com/avolkov/lockbox/internal/vault/token"
)

// Manager issues, loads, lists, and revokes service tokens.
type Manager struct {
	gate *auth.Gate
	repo servicetokens.Repository

	// now is a test seam.
	now func() time.Time
}

// NewManager constructs a Manager. The repository is typically bound to
// the pooled connection; row-level atomicity of revoke vs. load is the
// store's responsibility.
func NewManager(gate *auth.Gate, repo servicetokens.Repository) *Manager {
	return &Manager{gate: gate, repo: repo, now: time.Now}
}

// CreateServiceToken authenticates the user, wraps the derived key under a
// fresh service token, and inserts a new row. expiresDays == nil means the
// token never expires on its own. The raw token is returned exactly once.
//
// The row stores two distinct derivatives of the token: the truncated
// lookup id (public, deterministic) and a bcrypt hash (the credential
// verifier). Neither allows reconstructing the token.
func (m *Manager) CreateServiceToken(ctx context.Context, username, password, name string, expiresDays *int) (string, error) {
	_, key, err := m.gate.Authenticate(ctx, username, password)
	if err != nil {
		return "", err
	}
	defer common.WipeByteArray(key)

	rawToken := token.NewService()

	hash, err := bcrypt.GenerateFromPassword([]byte(rawToken), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash token: %w", err)
	}

	wrapped, err := cryptox.Wrap(key, rawToken)
	if err != nil {
		return "", fmt.Errorf("wrap service key: %w", err)
	}

	row := &models.ServiceToken{
		TokenID:    token.LookupID(rawToken),
		Username:   username,
		Name:       name,
		TokenHash:  string(hash),
		WrappedKey: wrapped,
		CreatedAt:  m.now().UTC(),
	}
	if expiresDays != nil {
		expires := m.now().UTC().AddDate(0, 0, *expiresDays)
		row.ExpiresAt = &expires
	}

	if err := m.repo.Insert(ctx, row); err != nil {
		return "", err
	}
	return rawToken, nil
}

// LoadServiceToken resolves a raw service token to (username, key).
//
// Check order: prefix shape, row presence, revoked flag, expiry, salted
// hash verification, and only then key unwrap. A revoked or expired token
// is rejected even though its hash would match.
func (m *Manager) LoadServiceToken(ctx context.Context, rawToken string) (string, []byte, error) {
	if !token.IsService(rawToken) {
		return "", nil, common.ErrInvalidToken
	}

	row, err := m.repo.GetByTokenID(ctx, token.LookupID(rawToken))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", nil, common.ErrInvalidToken
		}
		return "", nil, err
	}

	if row.Revoked {
		return "", nil, common.ErrTokenRevoked
	}
	if row.ExpiresAt != nil && m.now().After(*row.ExpiresAt) {
		return "", nil, common.ErrTokenExpired
	}

	if err := bcrypt.CompareHashAndPassword([]byte(row.TokenHash), []byte(rawToken)); err != nil {
		return "", nil, common.ErrInvalidToken
	}

	key, err := cryptox.Unwrap(row.WrappedKey, rawToken)
	if err != nil {
		return "", nil, err
	}

	if err := m.repo.UpdateLastUsed(ctx, row.TokenID, m.now().UTC()); err != nil {
		common.WipeByteArray(key)
		return "", nil, err
	}
	return row.Username, key, nil
}

// ListServiceTokens returns the non-sensitive metadata of every token
// belonging to username. Hashes and wrapped keys never leave the store.
func (m *Manager) ListServiceTokens(ctx context.Context, username string) ([]models.ServiceTokenInfo, error) {
	rows, err := m.repo.ListByUser(ctx, username)
	if err != nil {
		return nil, err
	}
	infos := make([]models.ServiceTokenInfo, 0, len(rows))
	for _, row := range rows {
		infos = append(infos, row.Info())
	}
	return infos, nil
}

// RevokeServiceToken marks the token revoked. Returns false when no such
// token exists, and ErrNotOwner when it belongs to a different user.
// Revoking an already-revoked token succeeds.
func (m *Manager) RevokeServiceToken(ctx context.Context, username, tokenID string) (bool, error) {
	row, err := m.repo.GetByTokenID(ctx, tokenID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return false, nil
		}
		return false, err
	}
	if row.Username != username {
		return false, common.ErrNotOwner
	}
	if err := m.repo.Revoke(ctx, tokenID); err != nil {
		return false, err
	}
	return true, nil
}
