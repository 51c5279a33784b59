package secrets

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/avolkov/lockbox/internal/common"
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

func (r *SQLiteRepository) Create(ctx context.Context, secret *models.Secret) error {
	query := `
		INSERT INTO secrets (username, category, account, account_username, encrypted_password, last_modified)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	if _, err := r.db.ExecContext(ctx, query,
		secret.Username, secret.Category, secret.Account, secret.AccountUsername,
		secret.EncryptedPassword, secret.LastModified.UTC()); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Update(ctx context.Context, secret *models.Secret) error {
	query := `
		UPDATE secrets SET category = ?, encrypted_password = ?, last_modified = ?
		WHERE username = ? AND account = ? AND account_username = ?
	`
	res, err := r.db.ExecContext(ctx, query,
		secret.Category, secret.EncryptedPassword, secret.LastModified.UTC(),
		secret.Username, secret.Account, secret.AccountUsername)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if affected == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *SQLiteRepository) Get(ctx context.Context, username, account, accountUsername string) (*models.Secret, error) {
	query := `
		SELECT username, category, account, account_username, encrypted_password, last_modified
		FROM secrets
		WHERE username = ? AND account = ? AND account_username = ?
	`
	secret := &models.Secret{}
	err := r.db.QueryRowContext(ctx, query, username, account, accountUsername).Scan(
		&secret.Username, &secret.Category, &secret.Account, &secret.AccountUsername,
		&secret.EncryptedPassword, &secret.LastModified)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return secret, nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, username, account, accountUsername string) error {
	query := `
		DELETE FROM secrets
		WHERE username = ? AND account = ? AND account_username = ?
	`
	res, err := r.db.ExecContext(ctx, query, username, account, accountUsername)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if affected == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *SQLiteRepository) ListByUser(ctx context.Context, username string) ([]*models.Secret, error) {
	query := `
		SELECT username, category, account, account_username, encrypted_password, last_modified
		FROM secrets
		WHERE username = ?
		ORDER BY account, account_username
	`
	rows, err := r.db.QueryContext(ctx, query, username)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var secrets []*models.Secret
	for rows.Next() {
		secret := &models.Secret{}
		if err := rows.Scan(&secret.Username, &secret.Category, &secret.Account,
			&secret.AccountUsername, &secret.EncryptedPassword, &secret.LastModified); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		secrets = append(secrets, secret)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return secrets, nil
}
