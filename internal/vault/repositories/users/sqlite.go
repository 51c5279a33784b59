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

// SQLiteRepository implements Repository for the local single-file
// database. Timestamps are stored explicitly in UTC since sqlite has no
// native timestamp type.
type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	query := `
		INSERT INTO users (id, username, password_hash, salt, created_at)
		VALUES (?, ?, ?, ?, ?)
	`
	user.ID = uuid.NewString()
	user.CreatedAt = time.Now().UTC()
	if _, err := r.db.ExecContext(ctx, query,
		user.ID, user.Username, user.PasswordHash, user.Salt, user.CreatedAt); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return user, nil
}

func (r *SQLiteRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `
		SELECT id, username, password_hash, salt, failed_attempts, locked_until, created_at
		FROM users
		WHERE username = ?
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

func (r *SQLiteRepository) RecordFailedAttempt(ctx context.Context, username string) (int, error) {
	query := `
		UPDATE users SET failed_attempts = failed_attempts + 1
		WHERE username = ?
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

func (r *SQLiteRepository) ResetFailedAttempts(ctx context.Context, username string) error {
	query := `
		UPDATE users SET failed_attempts = 0, locked_until = NULL
		WHERE username = ?
	`
	if _, err := r.db.ExecContext(ctx, query, username); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) SetLock(ctx context.Context, username string, until time.Time) error {
	query := `
		UPDATE users SET locked_until = ?, failed_attempts = 0
		WHERE username = ?
	`
	if _, err := r.db.ExecContext(ctx, query, until.UTC(), username); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
