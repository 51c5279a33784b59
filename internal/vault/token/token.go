// Package token generates and fingerprints the bearer tokens handed out by
// the session and service token managers.
//
// The two token kinds live in disjoint namespaces distinguished by a fixed
// prefix, so a manager can reject a token of the wrong shape before any
// storage lookup. The body is 32 bytes of entropy, URL-safe base64 encoded.
package token

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"strings"

	"github.com/avolkov/lockbox/internal/common"
)

const (
	// SessionPrefix marks short-lived interactive session tokens.
	SessionPrefix = "lbs_"
	// ServicePrefix marks long-lived automation tokens.
	ServicePrefix = "lbt_"

	entropyBytes = 32

	// lookupIDLen is the length in hex characters of the truncated token
	// fingerprint used as a storage key. It is not a credential.
	lookupIDLen = 16
)

// NewSession returns a fresh random session token.
func NewSession() string {
	return SessionPrefix + randBody()
}

// NewService returns a fresh random service token.
func NewService() string {
	return ServicePrefix + randBody()
}

func randBody() string {
	return base64.RawURLEncoding.EncodeToString(common.GenerateRandByteArray(entropyBytes))
}

// IsSession reports whether raw carries the session prefix.
func IsSession(raw string) bool {
	return strings.HasPrefix(raw, SessionPrefix)
}

// IsService reports whether raw carries the service prefix.
func IsService(raw string) bool {
	return strings.HasPrefix(raw, ServicePrefix)
}

// Hash returns the full SHA-256 fingerprint of the raw token, hex encoded.
// One-way: the raw token cannot be reconstructed from it.
func Hash(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// LookupID returns the truncated fingerprint used as a public storage
// lookup key. The salted verifier stored next to it remains the actual
// credential check.
func LookupID(raw string) string {
	return Hash(raw)[:lookupIDLen]
}
