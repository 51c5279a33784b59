package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

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

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	query := `
		INSERT INTO users (id, username, password_hash, salt)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`
	user.ID = uuid.NewString()
	if err := r.db.QueryRowContext(ctx, query,
		user.ID, user.Username, user.PasswordHash, user.Salt).Scan(&user.CreatedAt); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return user, nil
}

func (r *PostgresRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `
		SELECT id, username, password_hash, salt, failed_attempts, locked_until, created_at
		FROM users
		WHERE username = $1
	`
	user := &models.User{}
	var lockedUntil sql.NullTime
	err := r.db.QueryRowContext(ctx, query, username).Scan(
		&user.ID, &user.Username, &user.PasswordHash, &user.Salt,
		&user.FailedAttempts, &lockedUntil, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	if lockedUntil.Valid {
		user.LockedUntil = &lockedUntil.Time
	}
	return user, nil
}

func (r *PostgresRepository) RecordFailedAttempt(ctx context.Context, username string) (int, error) {
	query := `
		UPDATE users SET failed_attempts = failed_attempts + 1
		WHERE username = $1
		RETURNING failed_attempts
	`
	var count int
	if err := r.db.QueryRowContext(ctx, query, username).Scan(&count); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, common.ErrorNotFound
		}
		return 0, fmt.Errorf("db error: %w", err)
	}
	return count, nil
}

func (r *PostgresRepository) ResetFailedAttempts(ctx context.Context, username string) error {
	query := `
		UPDATE users SET failed_attempts = 0, locked_until = NULL
		WHERE username = $1
	`
	if _, err := r.db.ExecContext(ctx, query, username); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) SetLock(ctx context.Context, username string, until time.Time) error {
	query := `
		UPDATE users SET locked_until = $2, failed_attempts = 0
		WHERE username = $1
	`
	if _, err := r.db.ExecContext(ctx, query, username, until); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
