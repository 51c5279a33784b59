package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"fmt"

	"golang.org/x/crypto/pbkdf2"

	"github.com/avolkov/lockbox/internal/common"
)

// wrapSalt is fixed and private to the wrapping layer. It is deliberately
// distinct from every per-user master-key salt so a token-derived key can
// never collide with a password-derived one.
var wrapSalt = []byte("lockbox/token-wrap/v1")

const wrapKeyIterations = 120_000

// DeriveWrappingKey derives the symmetric key under which an encryption
// key is wrapped for the given bearer token. Deterministic per token;
// distinct tokens yield independent keys.
func DeriveWrappingKey(rawToken string) []byte {
	return pbkdf2.Key([]byte(rawToken), wrapSalt, wrapKeyIterations, KeySize, sha256.New)
}

// Wrap encrypts plainKey under the key derived from rawToken using
// AES-GCM. The returned blob is self-contained (nonce || ciphertext);
// only the token is needed to unwrap it.
func Wrap(plainKey []byte, rawToken string) ([]byte, error) {
	wk := DeriveWrappingKey(rawToken)
	defer common.WipeByteArray(wk)

	block, err := aes.NewCipher(wk)
	if err != nil {
		return nil, fmt.Errorf("wrap: %w", err)
	}
	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("wrap: %w", err)
	}

	nonce := make([]byte, aesgcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("wrap: %w", err)
	}

	return aesgcm.Seal(nonce, nonce, plainKey, nil), nil
}

// Unwrap decrypts a blob produced by Wrap. Any failure — wrong token,
// truncated blob, tampered ciphertext — surfaces as the same
// common.ErrInvalidToken, so callers cannot distinguish the cases and the
// failure mode leaks nothing. It never returns partial plaintext.
func Unwrap(blob []byte, rawToken string) ([]byte, error) {
	wk := DeriveWrappingKey(rawToken)
	defer common.WipeByteArray(wk)

	block, err := aes.NewCipher(wk)
	if err != nil {
		return nil, fmt.Errorf("unwrap: %w", err)
	}
	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("unwrap: %w", err)
	}

	if len(blob) < aesgcm.NonceSize() {
		return nil, common.ErrInvalidToken
	}
	nonce, ciphertext := blob[:aesgcm.NonceSize()], blob[aesgcm.NonceSize():]

	plainKey, err := aesgcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, common.ErrInvalidToken
	}
	return plainKey, nil
}
