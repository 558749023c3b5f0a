package security

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"
)

// Field encryption errors.
var (
	// ErrInvalidKey indicates the encryption key is not 32 bytes of hex.
	ErrInvalidKey = errors.New("encryption key must be a 32-byte hex string")
	// ErrDecryptFailed indicates ciphertext authentication failed.
	ErrDecryptFailed = errors.New("decrypt failed")
)

// gcmNonceSize is the recommended nonce length for AES-GCM.
const gcmNonceSize = 12

// FieldCipher encrypts and decrypts PII fields with AES-256-GCM.
// Values are stored as "nonce:tag:ciphertext" in hex.
type FieldCipher struct {
	key []byte
}

// NewFieldCipher builds a FieldCipher from a 32-byte hex key.
func NewFieldCipher(hexKey string) (*FieldCipher, error) {
	key, errDecode := hex.DecodeString(strings.TrimSpace(hexKey))
	if errDecode != nil || len(key) != 32 {
		return nil, ErrInvalidKey
	}
	return &FieldCipher{key: key}, nil
}

// Encrypt encrypts plaintext into the nonce:tag:ciphertext hex format. A nil
// receiver stores the value as plaintext; boot logs a warning when no
// encryption key is configured.
func (fc *FieldCipher) Encrypt(plaintext string) (string, error) {
	if fc == nil {
		return plaintext, nil
	}
	block, errCipher := aes.NewCipher(fc.key)
	if errCipher != nil {
		return "", fmt.Errorf("security: new cipher: %w", errCipher)
	}
	gcm, errGCM := cipher.NewGCM(block)
	if errGCM != nil {
		return "", fmt.Errorf("security: new gcm: %w", errGCM)
	}

	nonce := make([]byte, gcmNonceSize)
	if _, errRead := rand.Read(nonce); errRead != nil {
		return "", fmt.Errorf("security: read nonce: %w", errRead)
	}

	sealed := gcm.Seal(nil, nonce, []byte(plaintext), nil)
	tagStart := len(sealed) - gcm.Overhead()
	ciphertext := sealed[:tagStart]
	tag := sealed[tagStart:]

	return hex.EncodeToString(nonce) + ":" + hex.EncodeToString(tag) + ":" + hex.EncodeToString(ciphertext), nil
}

// Decrypt decrypts a nonce:tag:ciphertext hex value. Input that does not
// match the format is treated as legacy plaintext written before field
// encryption was introduced: it is returned unchanged and logged so the
// passthrough stays observable rather than silently masking bad data. A nil
// receiver returns the stored value as-is.
func (fc *FieldCipher) Decrypt(stored string) (string, error) {
	if fc == nil {
		return stored, nil
	}
	parts := strings.Split(stored, ":")
	if len(parts) != 3 {
		log.WithField("length", len(stored)).Warn("security: legacy plaintext passthrough on decrypt")
		return stored, nil
	}

	nonce, errNonce := hex.DecodeString(parts[0])
	tag, errTag := hex.DecodeString(parts[1])
	ciphertext, errCiphertext := hex.DecodeString(parts[2])
	if errNonce != nil || errTag != nil || errCiphertext != nil || len(nonce) != gcmNonceSize {
		log.WithField("length", len(stored)).Warn("security: legacy plaintext passthrough on decrypt")
		return stored, nil
	}

	block, errCipher := aes.NewCipher(fc.key)
	if errCipher != nil {
		return "", fmt.Errorf("security: new cipher: %w", errCipher)
	}
	gcm, errGCM := cipher.NewGCM(block)
	if errGCM != nil {
		return "", fmt.Errorf("security: new gcm: %w", errGCM)
	}

	plaintext, errOpen := gcm.Open(nil, nonce, append(ciphertext, tag...), nil)
	if errOpen != nil {
		return "", ErrDecryptFailed
	}
	return string(plaintext), nil
}
