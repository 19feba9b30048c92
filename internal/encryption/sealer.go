// Package encryption holds the gateway's three cryptographic concerns:
// sealing audit details with the service secret, passphrase encryption of
// uploaded file content, and lock passcode hashing.
package encryption

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
)

// DecryptionFailed is the sentinel returned when ciphertext cannot be opened.
// Decryption never raises to the caller: tampered or mismatched-key input
// degrades to this marker so a corrupt audit row cannot break a log query.
const DecryptionFailed = "[Decryption Failed]"

// Sealer performs authenticated symmetric encryption of short strings with a
// service-wide secret. Used for audit record details.
type Sealer struct {
	aead cipher.AEAD
}

// NewSealer derives a 256-bit key from the configured secret and returns a
// ready AES-GCM sealer.
func NewSealer(secret string) (*Sealer, error) {
	key := sha256.Sum256([]byte(secret))
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, fmt.Errorf("creating cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("creating gcm: %w", err)
	}
	return &Sealer{aead: aead}, nil
}

// EncryptString seals a plaintext string. The nonce is prepended to the
// ciphertext and the whole value is base64-encoded for storage in a text
// column. Empty input encrypts to empty.
func (s *Sealer) EncryptString(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}
	nonce := make([]byte, s.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("generating nonce: %w", err)
	}
	sealed := s.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// DecryptString opens a sealed value. Empty input decrypts to empty; any
// malformed, truncated, or tampered input returns the DecryptionFailed
// sentinel rather than an error.
func (s *Sealer) DecryptString(sealed string) string {
	if sealed == "" {
		return ""
	}
	raw, err := base64.StdEncoding.DecodeString(sealed)
	if err != nil {
		return DecryptionFailed
	}
	if len(raw) < s.aead.NonceSize() {
		return DecryptionFailed
	}
	nonce, ciphertext := raw[:s.aead.NonceSize()], raw[s.aead.NonceSize():]
	plaintext, err := s.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return DecryptionFailed
	}
	return string(plaintext)
}
