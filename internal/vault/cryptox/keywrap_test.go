package cryptox

import (
	"bytes"
	"errors"
	"testing"

	"github.com/avolkov/lockbox/internal/common"
)

func TestWrapUnwrap_RoundTrip(t *testing.T) {
	key := common.GenerateRandByteArray(KeySize)

	blob, err := Wrap(key, "lbs_sometoken")
	if err != nil {
		t.Fatalf("unexpected wrap error: %v", err)
	}

	got, err := Unwrap(blob, "lbs_sometoken")
	if err != nil {
		t.Fatalf("unexpected unwrap error: %v", err)
	}
	if !bytes.Equal(key, got) {
		t.Fatalf("round-tripped key differs")
	}
}

func TestUnwrap_WrongToken(t *testing.T) {
	key := common.GenerateRandByteArray(KeySize)

	blob, err := Wrap(key, "lbs_right")
	if err != nil {
		t.Fatalf("unexpected wrap error: %v", err)
	}

	_, err = Unwrap(blob, "lbs_wrong")
	if !errors.Is(err, common.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got: %v", err)
	}
}

func TestUnwrap_TamperedBlob(t *testing.T) {
	key := common.GenerateRandByteArray(KeySize)

	blob, err := Wrap(key, "lbs_tok")
	if err != nil {
		t.Fatalf("unexpected wrap error: %v", err)
	}
	blob[len(blob)-1] ^= 0xff

	_, err = Unwrap(blob, "lbs_tok")
	if !errors.Is(err, common.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for tampered blob, got: %v", err)
	}
}

func TestUnwrap_TruncatedBlob(t *testing.T) {
	_, err := Unwrap([]byte{1, 2, 3}, "lbs_tok")
	if !errors.Is(err, common.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for truncated blob, got: %v", err)
	}
}

func TestDeriveWrappingKey_Deterministic(t *testing.T) {
	a := DeriveWrappingKey("lbt_abc")
	b := DeriveWrappingKey("lbt_abc")
	c := DeriveWrappingKey("lbt_abd")

	if !bytes.Equal(a, b) {
		t.Fatalf("expected identical keys for identical tokens")
	}
	if bytes.Equal(a, c) {
		t.Fatalf("expected different keys for different tokens")
	}
}

func TestWrapping_IndependentFromMasterDerivation(t *testing.T) {
	// A token string equal to some password must not reproduce the
	// master-derived key, because the wrap salt is component-private.
	password := []byte("hunter2")
	master := DeriveEncryptionKey(password, wrapSalt)
	wrapping := DeriveWrappingKey("hunter2")
	if bytes.Equal(master, wrapping) {
		t.Fatalf("wrapping key must not collide with master derivation")
	}
}
