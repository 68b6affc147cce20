package tokenstore

import (
	"strings"
	"testing"
)

func TestSealerRoundTrip(t *testing.T) {
	salt, err := NewSalt()
	if err != nil {
		t.Fatalf("NewSalt: %v", err)
	}
	sealer, err := NewSealer("correct horse", salt)
	if err != nil {
		t.Fatalf("NewSealer: %v", err)
	}

	sealed := sealer.Seal("tkn_1")
	if !strings.HasPrefix(sealed, "sealed.v1:") {
		t.Errorf("sealed value missing prefix: %q", sealed)
	}
	if strings.Contains(sealed, "tkn_1") {
		t.Error("sealed value leaks plaintext")
	}

	plain, ok := sealer.Open(sealed)
	if !ok {
		t.Fatal("Open failed for own sealed value")
	}
	if plain != "tkn_1" {
		t.Errorf("Open = %q, want tkn_1", plain)
	}
}

func TestSealerOpenPassthrough(t *testing.T) {
	salt, _ := NewSalt()
	sealer, err := NewSealer("pw", salt)
	if err != nil {
		t.Fatalf("NewSealer: %v", err)
	}

	// Unsealed legacy rows pass through so sealing can be enabled in place.
	plain, ok := sealer.Open("tkn_legacy")
	if !ok || plain != "tkn_legacy" {
		t.Errorf("Open passthrough = %q, %v", plain, ok)
	}
}

func TestSealerWrongKey(t *testing.T) {
	salt, _ := NewSalt()
	a, _ := NewSealer("alpha", salt)
	b, _ := NewSealer("beta", salt)

	sealed := a.Seal("tkn_1")
	if _, ok := b.Open(sealed); ok {
		t.Error("Open should fail with a different passphrase")
	}

	if _, ok := a.Open("sealed.v1:not-base64!!!"); ok {
		t.Error("Open should fail on garbage ciphertext")
	}
}

func TestNewSealerValidation(t *testing.T) {
	salt, _ := NewSalt()
	if _, err := NewSealer("", salt); err == nil {
		t.Error("empty passphrase should be rejected")
	}
	if _, err := NewSealer("pw", []byte("short")); err == nil {
		t.Error("short salt should be rejected")
	}
}
