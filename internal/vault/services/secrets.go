// Package services implements the application-level operations that combine
// repositories with the credential cipher. Callers hand in the session key
// for every call; nothing here holds key material between calls.
package services

import (
	"context"
	"database/sql"
	"time"

	"github.com/avolkov/lockbox/internal/dbx"
	"github.com/avolkov/lockbox/internal/vault/cryptox"
	"github.com/avolkov/lockbox/internal/vault/models"
	"github.com/avolkov/lockbox/internal/vault/repositories/repomanager"
)

// SecretService stores and retrieves credentials. Passwords are encrypted
// before they reach a repository and decrypted only on the way out; the
// persistence layer sees ciphertext exclusively.
type SecretService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	now         func() time.Time
}

func NewSecretService(db *sql.DB, repomanager repomanager.RepositoryManager) *SecretService {
	return &SecretService{
		db:          db,
		repomanager: repomanager,
		now:         time.Now,
	}
}

// AddSecret encrypts password under key and stores it for username, keyed
// by (account, accountUsername).
func (s *SecretService) AddSecret(ctx context.Context, username string, key []byte, category, account, accountUsername, password string) error {
	encrypted, err := cryptox.Encrypt(password, key)
	if err != nil {
		return err
	}

	repo := s.repomanager.Secrets(s.db)
	return repo.Create(ctx, &models.Secret{
		Username:          username,
		Category:          category,
		Account:           account,
		AccountUsername:   accountUsername,
		EncryptedPassword: encrypted,
		LastModified:      s.now().UTC(),
	})
}

// GetSecret returns the decrypted password. A missing row is
// common.ErrorNotFound; a wrong key is common.ErrDecryptionFailed.
func (s *SecretService) GetSecret(ctx context.Context, username string, key []byte, account, accountUsername string) (string, error) {
	repo := s.repomanager.Secrets(s.db)

	secret, err := repo.Get(ctx, username, account, accountUsername)
	if err != nil {
		return "", err
	}

	return cryptox.Decrypt(secret.EncryptedPassword, key)
}

// UpdateSecret replaces the stored password with newPassword, keeping the
// row's category. The read and write run in one transaction so a concurrent
// delete cannot leave a half-updated row behind.
func (s *SecretService) UpdateSecret(ctx context.Context, username string, key []byte, account, accountUsername, newPassword string) error {
	encrypted, err := cryptox.Encrypt(newPassword, key)
	if err != nil {
		return err
	}

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Secrets(tx)

		existing, err := repo.Get(ctx, username, account, accountUsername)
		if err != nil {
			return err
		}

		return repo.Update(ctx, &models.Secret{
			Username:          username,
			Category:          existing.Category,
			Account:           account,
			AccountUsername:   accountUsername,
			EncryptedPassword: encrypted,
			LastModified:      s.now().UTC(),
		})
	})
}

// DeleteSecret removes a stored credential. Missing rows are
// common.ErrorNotFound.
func (s *SecretService) DeleteSecret(ctx context.Context, username, account, accountUsername string) error {
	repo := s.repomanager.Secrets(s.db)
	return repo.Delete(ctx, username, account, accountUsername)
}

// ListSecrets returns the metadata of every secret belonging to username.
// No key is needed: the listing never includes ciphertext or plaintext.
func (s *SecretService) ListSecrets(ctx context.Context, username string) ([]models.SecretInfo, error) {
	repo := s.repomanager.Secrets(s.db)

	rows, err := repo.ListByUser(ctx, username)
	if err != nil {
		return nil, err
	}

	infos := make([]models.SecretInfo, 0, len(rows))
	for _, row := range rows {
		infos = append(infos, row.Info())
	}
	return infos, nil
}
