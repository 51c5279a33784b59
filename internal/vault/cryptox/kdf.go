// Package cryptox implements the cryptographic core of the vault: master
// key derivation, token key wrapping, and the credential cipher.
//
// Keys derived here live only in process memory. Callers wipe them with
// common.WipeByteArray once their session-scoped work is done.
package cryptox

import (
	"crypto/sha256"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// KeySize is the length of every symmetric key in the vault (AES-256).
	KeySize = 32

	masterKeyIterations = 150_000
)

// DeriveEncryptionKey derives the per-user encryption key from the master
// password and the user's stored salt via PBKDF2-SHA256. Deterministic:
// the same (password, salt) pair always yields the same key, so the key
// can be recomputed across sessions and never needs to be persisted.
func DeriveEncryptionKey(password, salt []byte) []byte {
	return pbkdf2.Key(password, salt, masterKeyIterations, KeySize, sha256.New)
}
