// Package crypto encrypts payment data at rest and issues opaque card tokens.
package crypto

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

const (
	keySize         = 32
	minSecretLength = 32
	keyInfo         = "skillrise/payment-data/aes-256-gcm/v1"
)

var ErrInvalidKey = errors.New("invalid payment encryption key")

// KeyManager holds the AES-256 key derived from the configured secret.
// It is built once at startup and is safe for concurrent use.
type KeyManager struct {
	key []byte
}

// NewKeyManager derives the data key from secret with HKDF-SHA256. There is no
// fallback: an absent or short secret is an error.
func NewKeyManager(secret, salt string) (*KeyManager, error) {
	if len(secret) < minSecretLength {
		return nil, fmt.Errorf("%w: need at least %d characters", ErrInvalidKey, minSecretLength)
	}

	key := make([]byte, keySize)
	r := hkdf.New(sha256.New, []byte(secret), []byte(salt), []byte(keyInfo))
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}
	return &KeyManager{key: key}, nil
}

// GenerateSecret returns a random hex secret suitable for PAYMENT_ENCRYPTION_KEY.
func GenerateSecret() (string, error) {
	b := make([]byte, keySize)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return hex.EncodeToString(b), nil
}
