package servicetoken

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"

	"github.com/avolkov/lockbox/internal/common"
	"github.com/avolkov/lockbox/internal/vault/auth"
	"github.com/avolkov/lockbox/internal/vault/cryptox"
	"github.com/avolkov/lockbox/internal/vault/repositories/servicetokens"
	"github.com/avolkov/lockbox/internal/vault/repositories/users"
	"github.com/avolkov/lockbox/internal/vault/token"
)

func setupManager(t *testing.T) (*Manager, *auth.Gate, servicetokens.Repository) {
	t.Helper()
	db, err := sql.Open("sqlite", "file:svctokenmgr?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
CREATE TABLE users (
  id              TEXT PRIMARY KEY,
  username        TEXT NOT NULL UNIQUE,
  password_hash   TEXT NOT NULL,
  salt            BLOB NOT NULL,
  failed_attempts INTEGER NOT NULL DEFAULT 0,
  locked_until    TIMESTAMP,
  created_at      TIMESTAMP NOT NULL
);
CREATE TABLE service_tokens (
  token_id    TEXT PRIMARY KEY,
  username    TEXT NOT NULL,
  name        TEXT NOT NULL,
  token_hash  TEXT NOT NULL,
  wrapped_key BLOB NOT NULL,
  created_at  TIMESTAMP NOT NULL,
  expires_at  TIMESTAMP,
  last_used   TIMESTAMP,
  revoked     BOOLEAN NOT NULL DEFAULT FALSE
);
`)
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = db.Exec(`DROP TABLE service_tokens`)
		_, _ = db.Exec(`DROP TABLE users`)
	})

	gate := auth.NewGate(users.NewSQLiteRepository(db), 3, 24*time.Hour)
	repo := servicetokens.NewSQLiteRepository(db)
	return NewManager(gate, repo), gate, repo
}

func register(t *testing.T, gate *auth.Gate, username string) []byte {
	t.Helper()
	user, err := gate.Register(context.Background(), username, "Secret1!")
	require.NoError(t, err)
	return user.Salt
}

func TestCreateAndLoadServiceToken(t *testing.T) {
	m, gate, _ := setupManager(t)
	ctx := context.Background()

	salt := register(t, gate, "alice")

	rawToken, err := m.CreateServiceToken(ctx, "alice", "Secret1!", "backup-job", nil)
	require.NoError(t, err)
	require.True(t, token.IsService(rawToken))

	username, key, err := m.LoadServiceToken(ctx, rawToken)
	require.NoError(t, err)
	require.Equal(t, "alice", username)
	require.Equal(t, cryptox.DeriveEncryptionKey([]byte("Secret1!"), salt), key)
}

func TestLoadServiceToken_UpdatesLastUsed(t *testing.T) {
	m, gate, repo := setupManager(t)
	ctx := context.Background()

	register(t, gate, "alice")

	rawToken, err := m.CreateServiceToken(ctx, "alice", "Secret1!", "ci", nil)
	require.NoError(t, err)

	_, _, err = m.LoadServiceToken(ctx, rawToken)
	require.NoError(t, err)

	row, err := repo.GetByTokenID(ctx, token.LookupID(rawToken))
	require.NoError(t, err)
	require.NotNil(t, row.LastUsed)
}

func TestLoadServiceToken_WrongShape(t *testing.T) {
	m, _, _ := setupManager(t)

	_, _, err := m.LoadServiceToken(context.Background(), "lbs_session-token")
	require.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestLoadServiceToken_Unknown(t *testing.T) {
	m, _, _ := setupManager(t)

	_, _, err := m.LoadServiceToken(context.Background(), token.NewService())
	require.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestRevocationPrecedesHashCheck(t *testing.T) {
	m, gate, _ := setupManager(t)
	ctx := context.Background()

	register(t, gate, "alice")

	rawToken, err := m.CreateServiceToken(ctx, "alice", "Secret1!", "to-revoke", nil)
	require.NoError(t, err)

	ok, err := m.RevokeServiceToken(ctx, "alice", token.LookupID(rawToken))
	require.NoError(t, err)
	require.True(t, ok)

	// The hash still matches, but the revoked flag wins.
	_, _, err = m.LoadServiceToken(ctx, rawToken)
	require.ErrorIs(t, err, common.ErrTokenRevoked)
}

func TestLoadServiceToken_Expired(t *testing.T) {
	m, gate, _ := setupManager(t)
	ctx := context.Background()

	register(t, gate, "alice")

	days := 1
	rawToken, err := m.CreateServiceToken(ctx, "alice", "Secret1!", "short-lived", &days)
	require.NoError(t, err)

	m.now = func() time.Time { return time.Now().AddDate(0, 0, 2) }

	_, _, err = m.LoadServiceToken(ctx, rawToken)
	require.ErrorIs(t, err, common.ErrTokenExpired)
}

func TestListServiceTokens_HidesSecrets(t *testing.T) {
	m, gate, _ := setupManager(t)
	ctx := context.Background()

	register(t, gate, "alice")

	_, err := m.CreateServiceToken(ctx, "alice", "Secret1!", "one", nil)
	require.NoError(t, err)
	_, err = m.CreateServiceToken(ctx, "alice", "Secret1!", "two", nil)
	require.NoError(t, err)

	infos, err := m.ListServiceTokens(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, infos, 2)
	for _, info := range infos {
		require.NotEmpty(t, info.TokenID)
		require.NotEmpty(t, info.Name)
	}
}

func TestListServiceTokens_IndependentRows(t *testing.T) {
	m, gate, _ := setupManager(t)
	ctx := context.Background()

	register(t, gate, "alice")

	first, err := m.CreateServiceToken(ctx, "alice", "Secret1!", "one", nil)
	require.NoError(t, err)
	second, err := m.CreateServiceToken(ctx, "alice", "Secret1!", "two", nil)
	require.NoError(t, err)

	// Creating a second token must not disturb the first.
	_, _, err = m.LoadServiceToken(ctx, first)
	require.NoError(t, err)
	_, _, err = m.LoadServiceToken(ctx, second)
	require.NoError(t, err)
}

func TestRevokeServiceToken_Ownership(t *testing.T) {
	m, gate, _ := setupManager(t)
	ctx := context.Background()

	register(t, gate, "alice")
	register(t, gate, "bob")

	rawToken, err := m.CreateServiceToken(ctx, "alice", "Secret1!", "alices", nil)
	require.NoError(t, err)

	_, err = m.RevokeServiceToken(ctx, "bob", token.LookupID(rawToken))
	require.ErrorIs(t, err, common.ErrNotOwner)

	// Still loadable: the failed revocation changed nothing.
	_, _, err = m.LoadServiceToken(ctx, rawToken)
	require.NoError(t, err)
}

func TestRevokeServiceToken_Missing(t *testing.T) {
	m, _, _ := setupManager(t)

	ok, err := m.RevokeServiceToken(context.Background(), "alice", "deadbeefdeadbeef")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestCreateServiceToken_BadPassword(t *testing.T) {
	m, gate, _ := setupManager(t)
	ctx := context.Background()

	register(t, gate, "alice")

	_, err := m.CreateServiceToken(ctx, "alice", "wrong", "x", nil)
	require.ErrorIs(t, err, common.ErrInvalidCredentials)
}
