package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/skillrise/payment-security/internal/models"
)

const (
	ivSize  = 12
	tagSize = 16
)

var additionalData = []byte("payment-data")

// ErrDecryption covers every way a payload can fail to open. Callers never
// learn which step failed and never receive partial plaintext.
var ErrDecryption = errors.New("failed to decrypt payment data")

type Cipher struct {
	aead cipher.AEAD
}

func NewCipher(keys *KeyManager) (*Cipher, error) {
	block, err := aes.NewCipher(keys.key)
	if err != nil {
		return nil, fmt.Errorf("create block cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create gcm: %w", err)
	}
	return &Cipher{aead: aead}, nil
}

// EncryptPaymentData serializes v to JSON and seals it under a fresh random IV.
func (c *Cipher) EncryptPaymentData(v interface{}) (models.EncryptedPayload, error) {
	plaintext, err := json.Marshal(v)
	if err != nil {
		return models.EncryptedPayload{}, fmt.Errorf("marshal payment data: %w", err)
	}

	iv := make([]byte, ivSize)
	if _, err := rand.Read(iv); err != nil {
		return models.EncryptedPayload{}, fmt.Errorf("generate iv: %w", err)
	}

	sealed := c.aead.Seal(nil, iv, plaintext, additionalData)
	split := len(sealed) - tagSize

	return models.EncryptedPayload{
		Encrypted: hex.EncodeToString(sealed[:split]),
		IV:        hex.EncodeToString(iv),
		Tag:       hex.EncodeToString(sealed[split:]),
	}, nil
}

// DecryptPaymentData verifies and opens p, then decodes the JSON into out.
func (c *Cipher) DecryptPaymentData(p models.EncryptedPayload, out interface{}) error {
	ciphertext, err := hex.DecodeString(p.Encrypted)
	if err != nil {
		return ErrDecryption
	}
	iv, err := hex.DecodeString(p.IV)
	if err != nil || len(iv) != ivSize {
		return ErrDecryption
	}
	tag, err := hex.DecodeString(p.Tag)
	if err != nil || len(tag) != tagSize {
		return ErrDecryption
	}

	plaintext, err := c.aead.Open(nil, iv, append(ciphertext, tag...), additionalData)
	if err != nil {
		return ErrDecryption
	}
	if err := json.Unmarshal(plaintext, out); err != nil {
		return ErrDecryption
	}
	return nil
}
