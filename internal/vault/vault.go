// Package vault wires the authentication gate, token managers and secret
// service into one facade. All state a caller needs to work with secrets
// travels in an explicit Session value; there is no ambient current user.
package vault

import (
	"context"
	"fmt"

	"github.com/avolkov/lockbox/internal/common"
	"github.com/avolkov/lockbox/internal/config"
	"github.com/avolkov/lockbox/internal/logging"
	"github.com/avolkov/lockbox/internal/vault/auth"
	"github.com/avolkov/lockbox/internal/vault/models"
	"github.com/avolkov/lockbox/internal/vault/repositories/repomanager"
	"github.com/avolkov/lockbox/internal/vault/services"
	"github.com/avolkov/lockbox/internal/vault/servicetoken"
	"github.com/avolkov/lockbox/internal/vault/session"
	"github.com/avolkov/lockbox/internal/vault/token"
)

// Session is an opened vault session: the authenticated username and the
// derived encryption key. Close it when done to clear the key.
type Session struct {
	Username string
	Key      []byte
}

// Close wipes the key material. The session must not be used afterwards.
func (s *Session) Close() {
	common.WipeByteArray(s.Key)
	s.Key = nil
}

// Vault is the facade over the whole subsystem.
type Vault struct {
	config        *config.Config
	logger        logging.Logger
	repomanager   repomanager.RepositoryManager
	gate          *auth.Gate
	sessions      *session.Manager
	serviceTokens *servicetoken.Manager
	secrets       *services.SecretService
}

// New wires a Vault over an initialized repository manager.
func New(cfg *config.Config, logger logging.Logger, rm repomanager.RepositoryManager) (*Vault, error) {
	gate := auth.NewGate(rm.Users(rm.Conn()), cfg.MaxLoginAttempts, cfg.LockoutDuration)

	sessions, err := session.NewManager(gate, cfg.SessionDir)
	if err != nil {
		return nil, fmt.Errorf("session store init: %w", err)
	}

	return &Vault{
		config:        cfg,
		logger:        logger,
		repomanager:   rm,
		gate:          gate,
		sessions:      sessions,
		serviceTokens: servicetoken.NewManager(gate, rm.ServiceTokens(rm.Conn())),
		secrets:       services.NewSecretService(rm.Conn(), rm),
	}, nil
}

// Register creates a new vault user.
func (v *Vault) Register(ctx context.Context, username, password string) error {
	if _, err := v.gate.Register(ctx, username, password); err != nil {
		return err
	}
	v.logger.Info(ctx, "user registered", "username", username)
	return nil
}

// SignIn authenticates the user and returns a fresh session token. Any
// previous session of the same user stops working.
func (v *Vault) SignIn(ctx context.Context, username, password string) (string, error) {
	ttlMinutes := int(v.config.SessionTTL.Minutes())

	rawToken, err := v.sessions.CreateSession(ctx, username, password, ttlMinutes)
	if err != nil {
		v.logger.Warn(ctx, "sign-in failed", "username", username)
		return "", err
	}

	v.logger.Info(ctx, "session created", "username", username)
	return rawToken, nil
}

// Open resolves a bearer token of either kind into a Session. The token
// prefix picks the manager; a token with neither prefix is invalid.
func (v *Vault) Open(ctx context.Context, rawToken string) (*Session, error) {
	var (
		username string
		key      []byte
		err      error
	)
	switch {
	case token.IsSession(rawToken):
		username, key, err = v.sessions.LoadSession(ctx, rawToken)
	case token.IsService(rawToken):
		username, key, err = v.serviceTokens.LoadServiceToken(ctx, rawToken)
	default:
		return nil, common.ErrInvalidToken
	}
	if err != nil {
		return nil, err
	}

	return &Session{Username: username, Key: key}, nil
}

// SignOut invalidates a session token. Reports whether a live session was
// actually removed; service tokens are revoked, not signed out.
func (v *Vault) SignOut(ctx context.Context, rawToken string) (bool, error) {
	if !token.IsSession(rawToken) {
		return false, common.ErrInvalidToken
	}

	removed, err := v.sessions.InvalidateSession(ctx, rawToken)
	if err != nil {
		return false, err
	}
	if removed {
		v.logger.Info(ctx, "session invalidated")
	}
	return removed, nil
}

// CreateServiceToken issues a long-lived automation token for the user.
// The master password is required again: service tokens cannot be minted
// from an existing session.
func (v *Vault) CreateServiceToken(ctx context.Context, username, password, name string, expiresDays *int) (string, error) {
	rawToken, err := v.serviceTokens.CreateServiceToken(ctx, username, password, name, expiresDays)
	if err != nil {
		return "", err
	}
	v.logger.Info(ctx, "service token created", "username", username, "name", name)
	return rawToken, nil
}

// ListServiceTokens returns the metadata of the user's service tokens.
func (v *Vault) ListServiceTokens(ctx context.Context, username string) ([]models.ServiceTokenInfo, error) {
	return v.serviceTokens.ListServiceTokens(ctx, username)
}

// RevokeServiceToken permanently disables one of the caller's tokens.
func (v *Vault) RevokeServiceToken(ctx context.Context, username, tokenID string) (bool, error) {
	revoked, err := v.serviceTokens.RevokeServiceToken(ctx, username, tokenID)
	if err != nil {
		return false, err
	}
	if revoked {
		v.logger.Info(ctx, "service token revoked", "username", username, "token_id", tokenID)
	}
	return revoked, nil
}

// AddSecret stores a new credential under the session's key.
func (v *Vault) AddSecret(ctx context.Context, sess *Session, category, account, accountUsername, password string) error {
	return v.secrets.AddSecret(ctx, sess.Username, sess.Key, category, account, accountUsername, password)
}

// GetSecret returns the decrypted password for one stored credential.
func (v *Vault) GetSecret(ctx context.Context, sess *Session, account, accountUsername string) (string, error) {
	return v.secrets.GetSecret(ctx, sess.Username, sess.Key, account, accountUsername)
}

// UpdateSecret replaces the password of an existing credential.
func (v *Vault) UpdateSecret(ctx context.Context, sess *Session, account, accountUsername, newPassword string) error {
	return v.secrets.UpdateSecret(ctx, sess.Username, sess.Key, account, accountUsername, newPassword)
}

// DeleteSecret removes a stored credential.
func (v *Vault) DeleteSecret(ctx context.Context, sess *Session, account, accountUsername string) error {
	return v.secrets.DeleteSecret(ctx, sess.Username, account, accountUsername)
}

// ListSecrets lists the session user's credentials without decrypting them.
func (v *Vault) ListSecrets(ctx context.Context, sess *Session) ([]models.SecretInfo, error) {
	return v.secrets.ListSecrets(ctx, sess.Username)
}

// CleanupExpiredSessions removes stale session files and returns how many
// were deleted.
func (v *Vault) CleanupExpiredSessions(ctx context.Context) (int, error) {
	n, err := v.sessions.CleanupExpiredSessions()
	if err != nil {
		return 0, err
	}
	if n > 0 {
		v.logger.Info(ctx, "expired sessions removed", "count", n)
	}
	return n, nil
}

// Close releases the database pool.
func (v *Vault) Close() error {
	return v.repomanager.Close()
}
