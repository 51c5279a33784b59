package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/avolkov/lockbox/internal/common"
)

// cipherPrefix versions the credential ciphertext format so it can evolve
// without breaking stored secrets.
const cipherPrefix = "gcm1:"

// Encrypt encrypts a credential value under key using AES-GCM and returns
// a printable, self-describing token: everything needed to decrypt except
// the key is embedded. Empty strings and arbitrary Unicode round-trip
// exactly.
func Encrypt(plaintext string, key []byte) (string, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return "", fmt.Errorf("encrypt: %w", err)
	}
	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("encrypt: %w", err)
	}

	nonce := make([]byte, aesgcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("encrypt: %w", err)
	}

	blob := aesgcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return cipherPrefix + base64.RawURLEncoding.EncodeToString(blob), nil
}

// Decrypt reverses Encrypt. A wrong key, a malformed token, or tampered
// ciphertext all fail with common.ErrDecryptionFailed; output is
// all-or-nothing.
func Decrypt(ciphertext string, key []byte) (string, error) {
	if !strings.HasPrefix(ciphertext, cipherPrefix) {
		return "", common.ErrDecryptionFailed
	}
	blob, err := base64.RawURLEncoding.DecodeString(strings.TrimPrefix(ciphertext, cipherPrefix))
	if err != nil {
		return "", common.ErrDecryptionFailed
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", fmt.Errorf("decrypt: %w", err)
	}
	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("decrypt: %w", err)
	}

	if len(blob) < aesgcm.NonceSize() {
		return "", common.ErrDecryptionFailed
	}
	nonce, ct := blob[:aesgcm.NonceSize()], blob[aesgcm.NonceSize():]

	plaintext, err := aesgcm.Open(nil, nonce, ct, nil)
	if err != nil {
		return "", common.ErrDecryptionFailed
	}
	return string(plaintext), nil
}
