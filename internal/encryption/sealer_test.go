package encryption

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSealer_RoundTrip(t *testing.T) {
	s, err := NewSealer("service-secret")
	require.NoError(t, err)

	plaintexts := []string{
		"file: notes.txt",
		"command: ls -la",
		`{"filename":"a.txt","size":42}`,
		"unicode: тест 日本語",
	}
	for _, p := range plaintexts {
		sealed, err := s.EncryptString(p)
		require.NoError(t, err)
		assert.NotEqual(t, p, sealed)
		assert.Equal(t, p, s.DecryptString(sealed))
	}
}

func TestSealer_EmptyString(t *testing.T) {
	s, err := NewSealer("service-secret")
	require.NoError(t, err)

	sealed, err := s.EncryptString("")
	require.NoError(t, err)
	assert.Equal(t, "", sealed)
	assert.Equal(t, "", s.DecryptString(""))
}

func TestSealer_NonceVariesPerSeal(t *testing.T) {
	s, err := NewSealer("service-secret")
	require.NoError(t, err)

	a, err := s.EncryptString("same input")
	require.NoError(t, err)
	b, err := s.EncryptString("same input")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestSealer_DecryptFailuresDegradeToSentinel(t *testing.T) {
	s, err := NewSealer("service-secret")
	require.NoError(t, err)

	sealed, err := s.EncryptString("details")
	require.NoError(t, err)

	t.Run("not base64", func(t *testing.T) {
		assert.Equal(t, DecryptionFailed, s.DecryptString("!!! not base64 !!!"))
	})

	t.Run("too short", func(t *testing.T) {
		assert.Equal(t, DecryptionFailed, s.DecryptString("QQ=="))
	})

	t.Run("tampered ciphertext", func(t *testing.T) {
		tampered := []byte(sealed)
		tampered[len(tampered)-5] ^= 'x'
		assert.Equal(t, DecryptionFailed, s.DecryptString(string(tampered)))
	})

	t.Run("wrong key", func(t *testing.T) {
		other, err := NewSealer("different-secret")
		require.NoError(t, err)
		assert.Equal(t, DecryptionFailed, other.DecryptString(sealed))
	})
}
