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

// PostgresRepository implements Repository over dbx.DBTX
// (satisfied by *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, secret *models.Secret) error {
	query := `
		INSERT INTO secrets (username, category, account, account_username, encrypted_password, last_modified)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	if _, err := r.db.ExecContext(ctx, query,
		secret.Username, secret.Category, secret.Account, secret.AccountUsername,
		secret.EncryptedPassword, secret.LastModified); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Update(ctx context.Context, secret *models.Secret) error {
	query := `
		UPDATE secrets SET category = $2, encrypted_password = $5, last_modified = $6
		WHERE username = $1 AND account = $3 AND account_username = $4
	`
	res, err := r.db.ExecContext(ctx, query,
		secret.Username, secret.Category, secret.Account, secret.AccountUsername,
		secret.EncryptedPassword, secret.LastModified)
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

func (r *PostgresRepository) Get(ctx context.Context, username, account, accountUsername string) (*models.Secret, error) {
	query := `
		SELECT username, category, account, account_username, encrypted_password, last_modified
		FROM secrets
		WHERE username = $1 AND account = $2 AND account_username = $3
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

func (r *PostgresRepository) Delete(ctx context.Context, username, account, accountUsername string) error {
	query := `
		DELETE FROM secrets
		WHERE username = $1 AND account = $2 AND account_username = $3
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

func (r *PostgresRepository) ListByUser(ctx context.Context, username string) ([]*models.Secret, error) {
	query := `
		SELECT username, category, account, account_username, encrypted_password, last_modified
		FROM secrets
		WHERE username = $1
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
