package servicetokens

import (
	"context"
	"fmt"
	"time"

	"github.com/avolkov/lockbox/internal/dbx"
	"github.com/avolkov/lockbox/internal/vault/models"
)

// SQLiteRepository implements Repository for the local single-file database.
type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Insert(ctx context.Context, token *models.ServiceToken) error {
	query := `
		INSERT INTO service_tokens (token_id, username, name, token_hash, wrapped_key, created_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	if _, err := r.db.ExecContext(ctx, query,
		token.TokenID, token.Username, token.Name, token.TokenHash,
		token.WrappedKey, token.CreatedAt.UTC(), token.ExpiresAt); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetByTokenID(ctx context.Context, tokenID string) (*models.ServiceToken, error) {
	query := `
		SELECT token_id, username, name, token_hash, wrapped_key, created_at, expires_at, last_used, revoked
		FROM service_tokens
		WHERE token_id = ?
	`
	row := r.db.QueryRowContext(ctx, query, tokenID)
	return scanToken(row)
}

func (r *SQLiteRepository) ListByUser(ctx context.Context, username string) ([]*models.ServiceToken, error) {
	query := `
		SELECT token_id, username, name, token_hash, wrapped_key, created_at, expires_at, last_used, revoked
		FROM service_tokens
		WHERE username = ?
		ORDER BY created_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query, username)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var tokens []*models.ServiceToken
	for rows.Next() {
		token, err := scanToken(rows)
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, token)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return tokens, nil
}

func (r *SQLiteRepository) Revoke(ctx context.Context, tokenID string) error {
	query := `
		UPDATE service_tokens SET revoked = TRUE
		WHERE token_id = ?
	`
	if _, err := r.db.ExecContext(ctx, query, tokenID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) UpdateLastUsed(ctx context.Context, tokenID string, t time.Time) error {
	query := `
		UPDATE service_tokens SET last_used = ?
		WHERE token_id = ?
	`
	if _, err := r.db.ExecContext(ctx, query, t.UTC(), tokenID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
