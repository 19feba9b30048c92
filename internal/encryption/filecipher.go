package encryption

import (
	"bytes"
	"fmt"
	"io"

	"filippo.io/age"

	"ssci-go/internal/gateway"
)

// FileCipher encrypts uploaded file content with a key derived one-way from
// a caller-supplied passphrase, using age's scrypt recipient. The output is
// an ordinary age stream, so tampering fails authentication on decrypt.
type FileCipher struct{}

var _ gateway.ContentCipher = (*FileCipher)(nil)

func NewFileCipher() *FileCipher { return &FileCipher{} }

// Encrypt seals plaintext under the passphrase.
func (FileCipher) Encrypt(plaintext []byte, passphrase string) ([]byte, error) {
	recipient, err := age.NewScryptRecipient(passphrase)
	if err != nil {
		return nil, fmt.Errorf("creating scrypt recipient: %w", err)
	}

	var buf bytes.Buffer
	w, err := age.Encrypt(&buf, recipient)
	if err != nil {
		return nil, fmt.Errorf("creating encrypted writer: %w", err)
	}
	if _, err := w.Write(plaintext); err != nil {
		return nil, fmt.Errorf("encrypting content: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("finalizing encryption: %w", err)
	}
	return buf.Bytes(), nil
}

// Decrypt opens ciphertext with the passphrase. A wrong passphrase or
// tampered stream returns an error, never corrupted plaintext.
func (FileCipher) Decrypt(ciphertext []byte, passphrase string) ([]byte, error) {
	identity, err := age.NewScryptIdentity(passphrase)
	if err != nil {
		return nil, fmt.Errorf("creating scrypt identity: %w", err)
	}

	r, err := age.Decrypt(bytes.NewReader(ciphertext), identity)
	if err != nil {
		return nil, fmt.Errorf("opening encrypted content: %w", err)
	}
	plaintext, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("decrypting content: %w", err)
	}
	return plaintext, nil
}
