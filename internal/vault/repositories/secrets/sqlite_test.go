package secrets

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"

	"github.com/avolkov/lockbox/internal/common"
	"github.com/avolkov/lockbox/internal/vault/models"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", "file:secretsrepo?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
CREATE TABLE secrets (
  username           TEXT NOT NULL,
  category           TEXT NOT NULL DEFAULT '',
  account            TEXT NOT NULL,
  account_username   TEXT NOT NULL,
  encrypted_password TEXT NOT NULL,
  last_modified      TIMESTAMP NOT NULL,
  PRIMARY KEY (username, account, account_username)
);
`)
	require.NoError(t, err)
	t.Cleanup(func() { _, _ = db.Exec(`DROP TABLE secrets`) })
	return db
}

func sampleSecret() *models.Secret {
	return &models.Secret{
		Username:          "alice",
		Category:          "email",
		Account:           "example.com",
		AccountUsername:   "alice@example.com",
		EncryptedPassword: "gcm1:abcdef",
		LastModified:      time.Now().UTC().Truncate(time.Second),
	}
}

func TestSQLite_CreateAndGet(t *testing.T) {
	repo := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	s := sampleSecret()
	require.NoError(t, repo.Create(ctx, s))

	got, err := repo.Get(ctx, "alice", "example.com", "alice@example.com")
	require.NoError(t, err)
	require.Equal(t, s.EncryptedPassword, got.EncryptedPassword)
	require.Equal(t, s.Category, got.Category)
	require.True(t, s.LastModified.Equal(got.LastModified))
}

func TestSQLite_Get_NotFound(t *testing.T) {
	repo := NewSQLiteRepository(setupDB(t))

	_, err := repo.Get(context.Background(), "alice", "nope", "nope")
	require.ErrorIs(t, err, common.ErrorNotFound)
}

func TestSQLite_Update(t *testing.T) {
	repo := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	s := sampleSecret()
	require.NoError(t, repo.Create(ctx, s))

	s.EncryptedPassword = "gcm1:rotated"
	s.LastModified = s.LastModified.Add(time.Minute)
	require.NoError(t, repo.Update(ctx, s))

	got, err := repo.Get(ctx, s.Username, s.Account, s.AccountUsername)
	require.NoError(t, err)
	require.Equal(t, "gcm1:rotated", got.EncryptedPassword)
}

func TestSQLite_Update_NotFound(t *testing.T) {
	repo := NewSQLiteRepository(setupDB(t))

	err := repo.Update(context.Background(), sampleSecret())
	require.ErrorIs(t, err, common.ErrorNotFound)
}

func TestSQLite_Delete(t *testing.T) {
	repo := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	s := sampleSecret()
	require.NoError(t, repo.Create(ctx, s))
	require.NoError(t, repo.Delete(ctx, s.Username, s.Account, s.AccountUsername))

	err := repo.Delete(ctx, s.Username, s.Account, s.AccountUsername)
	require.ErrorIs(t, err, common.ErrorNotFound)
}

func TestSQLite_ListByUser(t *testing.T) {
	repo := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	a := sampleSecret()
	b := sampleSecret()
	b.Account = "another.org"
	b.AccountUsername = "alice2"
	require.NoError(t, repo.Create(ctx, a))
	require.NoError(t, repo.Create(ctx, b))

	other := sampleSecret()
	other.Username = "bob"
	require.NoError(t, repo.Create(ctx, other))

	list, err := repo.ListByUser(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, list, 2)
	// ordered by account
	require.Equal(t, "another.org", list[0].Account)
	require.Equal(t, "example.com", list[1].Account)
}
