package tokenstore

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/nacl/secretbox"
	"golang.org/x/crypto/scrypt"
)

const sealedPrefix = "sealed.v1:"

// SaltSize is the length of the per-store scrypt salt.
const SaltSize = 16

// Sealer encrypts token values at rest with a passphrase-derived key.
// Sealing is optional: stores without a sealer keep tokens in plaintext,
// matching environments where the operating system already protects the
// store file.
type Sealer struct {
	key [32]byte
}

// NewSalt returns a fresh random scrypt salt.
func NewSalt() ([]byte, error) {
	salt := make([]byte, SaltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}
	return salt, nil
}

// NewSealer derives a sealing key from passphrase and salt.
func NewSealer(passphrase string, salt []byte) (*Sealer, error) {
	if passphrase == "" {
		return nil, fmt.Errorf("passphrase is required")
	}
	if len(salt) != SaltSize {
		return nil, fmt.Errorf("salt must be %d bytes, got %d", SaltSize, len(salt))
	}

	derived, err := scrypt.Key([]byte(passphrase), salt, 1<<15, 8, 1, 32)
	if err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}

	s := &Sealer{}
	copy(s.key[:], derived)
	return s, nil
}

// Seal encrypts plain and returns a self-identifying opaque string.
func (s *Sealer) Seal(plain string) string {
	var nonce [24]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		// rand.Read failing means the process cannot do crypto at all;
		// storing nothing readable is the safe degradation.
		return sealedPrefix
	}

	sealed := secretbox.Seal(nonce[:], []byte(plain), &nonce, &s.key)
	return sealedPrefix + base64.StdEncoding.EncodeToString(sealed)
}

// Open decrypts a sealed value. Unsealed input passes through unchanged so a
// store can turn sealing on without rewriting existing rows. Returns ok=false
// when the value is sealed but cannot be opened with this key.
func (s *Sealer) Open(value string) (string, bool) {
	if !strings.HasPrefix(value, sealedPrefix) {
		return value, true
	}

	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(value, sealedPrefix))
	if err != nil || len(raw) < 24 {
		return "", false
	}

	var nonce [24]byte
	copy(nonce[:], raw[:24])

	plain, ok := secretbox.Open(nil, raw[24:], &nonce, &s.key)
	if !ok {
		return "", false
	}
	return string(plain), true
}
