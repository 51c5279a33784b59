// Package common defines shared constants and sentinel errors used across
// lockbox components. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Generic internal failure (storage faults, broken environment).
	// Never used for credential or token problems.
	ErrorInternal = errors.New("internal error")

	// Authentication errors.
	ErrInvalidCredentials = errors.New("invalid master password")
	ErrAccountLocked      = errors.New("account locked")

	// Token lifecycle errors. ErrInvalidToken covers malformed tokens,
	// unknown tokens, and authentication-tag mismatches alike.
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
	ErrTokenRevoked = errors.New("token revoked")

	// Secret decryption failure (wrong key or tampered ciphertext).
	ErrDecryptionFailed = errors.New("decryption failed")

	// Attempt to manage a token owned by another user.
	ErrNotOwner = errors.New("token owned by another user")
)
