// Package session implements the short-lived interactive token manager.
//
// One session record exists per user at any instant: creating a new
// session overwrites the previous one, which immediately becomes
// unloadable. Concurrent creations for the same user race as
// last-writer-wins; the loser's token simply stops resolving.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/avolkov/lockbox/internal/common"
	"github.com/avolkov/lockbox/internal/vault/auth"
	"github.com/avolkov/lockbox/internal/vault/cryptox"
	"github.com/avolkov/lockbox/internal/vault/token"
)

// DefaultTTLMinutes is used when CreateSession is called with ttlMinutes <= 0.
const DefaultTTLMinutes = 60

// Manager issues, loads, and invalidates session tokens.
type Manager struct {
	gate  *auth.Gate
	store *fileStore

	// now is a test seam.
	now func() time.Time
}

// NewManager creates the session directory if absent (owner-only access)
// and returns a Manager over it.
func NewManager(gate *auth.Gate, dir string) (*Manager, error) {
	store, err := newFileStore(dir)
	if err != nil {
		return nil, err
	}
	return &Manager{gate: gate, store: store, now: time.Now}, nil
}

// CreateSession authenticates username with the master password, derives
// the encryption key, wraps it under a fresh session token, and persists
// the record, replacing any prior session for that user. The raw token is
// returned exactly once and never stored.
//
// Expired records of other users are swept opportunistically; a sweep
// failure never fails the creation.
func (m *Manager) CreateSession(ctx context.Context, username, password string, ttlMinutes int) (string, error) {
	if ttlMinutes <= 0 {
		ttlMinutes = DefaultTTLMinutes
	}

	_, key, err := m.gate.Authenticate(ctx, username, password)
	if err != nil {
		return "", err
	}
	defer common.WipeByteArray(key)

	rawToken := token.NewSession()

	wrapped, err := cryptox.Wrap(key, rawToken)
	if err != nil {
		return "", fmt.Errorf("wrap session key: %w", err)
	}

	_, _ = m.CleanupExpiredSessions()

	record := &Record{
		Username:   username,
		WrappedKey: wrapped,
		TokenHash:  token.Hash(rawToken),
		CreatedAt:  m.now().UTC().Truncate(time.Second).Format(time.RFC3339),
		TTLMinutes: ttlMinutes,
	}
	if err := m.store.Put(record); err != nil {
		return "", err
	}
	return rawToken, nil
}

// LoadSession resolves a raw session token to (username, key).
//
// A token without the session prefix, or one matching no live record,
// fails with ErrInvalidToken. An expired record is deleted on detection
// and fails with ErrTokenExpired. Freshness is checked before any key
// recovery.
func (m *Manager) LoadSession(ctx context.Context, rawToken string) (string, []byte, error) {
	record, err := m.find(rawToken)
	if err != nil {
		return "", nil, err
	}

	if m.now().After(record.ExpiresAt()) {
		if err := m.store.Delete(record.Username); err != nil {
			return "", nil, err
		}
		return "", nil, common.ErrTokenExpired
	}

	key, err := cryptox.Unwrap(record.WrappedKey, rawToken)
	if err != nil {
		return "", nil, err
	}
	return record.Username, key, nil
}

// InvalidateSession deletes the record matching the token (sign-out).
// Idempotent; reports whether a record was found.
func (m *Manager) InvalidateSession(ctx context.Context, rawToken string) (bool, error) {
	record, err := m.find(rawToken)
	if err != nil {
		if errors.Is(err, common.ErrInvalidToken) {
			return false, nil
		}
		return false, err
	}
	if err := m.store.Delete(record.Username); err != nil {
		return false, err
	}
	return true, nil
}

// CleanupExpiredSessions deletes every session record past its TTL and
// returns the number removed. Safe to call from any create/load path.
func (m *Manager) CleanupExpiredSessions() (int, error) {
	usernames, err := m.store.Usernames()
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, username := range usernames {
		record, err := m.store.Get(username)
		if err != nil {
			continue
		}
		if m.now().After(record.ExpiresAt()) {
			if err := m.store.Delete(username); err != nil {
				return removed, err
			}
			removed++
		}
	}
	return removed, nil
}

// find locates the record whose stored hash matches the raw token.
func (m *Manager) find(rawToken string) (*Record, error) {
	if !token.IsSession(rawToken) {
		return nil, common.ErrInvalidToken
	}

	usernames, err := m.store.Usernames()
	if err != nil {
		return nil, err
	}

	want := token.Hash(rawToken)
	for _, username := range usernames {
		record, err := m.store.Get(username)
		if err != nil {
			continue
		}
		if record.TokenHash == want {
			return record, nil
		}
	}
	return nil, common.ErrInvalidToken
}
