package servicetokens

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/avolkov/lockbox/internal/common"
	"github.com/avolkov/lockbox/internal/dbx"
	"github.com/avolkov/lockbox/internal/vault/models"
)

// PostgresRepository implements Repository over dbx.DBTX
// (satisfied by *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Insert(ctx context.Context, token *models.ServiceToken) error {
	query := `
		INSERT INTO service_tokens (token_id, username, name, token_hash, wrapped_key, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	if _, err := r.db.ExecContext(ctx, query,
		token.TokenID, token.Username, token.Name, token.TokenHash,
		token.WrappedKey, token.CreatedAt, token.ExpiresAt); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetByTokenID(ctx context.Context, tokenID string) (*models.ServiceToken, error) {
	query := `
		SELECT token_id, username, name, token_hash, wrapped_key, created_at, expires_at, last_used, revoked
		FROM service_tokens
		WHERE token_id = $1
	`
	row := r.db.QueryRowContext(ctx, query, tokenID)
	return scanToken(row)
}

func (r *PostgresRepository) ListByUser(ctx context.Context, username string) ([]*models.ServiceToken, error) {
	query := `
		SELECT token_id, username, name, token_hash, wrapped_key, created_at, expires_at, last_used, revoked
		FROM service_tokens
		WHERE username = $1
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

func (r *PostgresRepository) Revoke(ctx context.Context, tokenID string) error {
	query := `
		UPDATE service_tokens SET revoked = TRUE
		WHERE token_id = $1
	`
	if _, err := r.db.ExecContext(ctx, query, tokenID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) UpdateLastUsed(ctx context.Context, tokenID string, t time.Time) error {
	query := `
		UPDATE service_tokens SET last_used = $2
		WHERE token_id = $1
	`
	if _, err := r.db.ExecContext(ctx, query, tokenID, t); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanToken(s scanner) (*models.ServiceToken, error) {
	token := &models.ServiceToken{}
	var expiresAt, lastUsed sql.NullTime
	err := s.Scan(&token.TokenID, &token.Username, &token.Name, &token.TokenHash,
		&token.WrappedKey, &token.CreatedAt, &expiresAt, &lastUsed, &token.Revoked)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	if expiresAt.Valid {
		token.ExpiresAt = &expiresAt.Time
	}
	if lastUsed.Valid {
		token.LastUsed = &lastUsed.Time
	}
	return token, nil
}
