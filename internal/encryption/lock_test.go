package encryption

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLockHasher(t *testing.T) {
	h := NewLockHasher()

	hash, err := h.Hash("1234")
	require.NoError(t, err)
	assert.NotEqual(t, "1234", hash)

	t.Run("correct passcode matches", func(t *testing.T) {
		assert.True(t, h.Check(hash, "1234"))
	})

	t.Run("wrong passcode rejected", func(t *testing.T) {
		assert.False(t, h.Check(hash, "4321"))
	})

	t.Run("empty passcode rejected", func(t *testing.T) {
		assert.False(t, h.Check(hash, ""))
	})

	t.Run("malformed hash never matches", func(t *testing.T) {
		assert.False(t, h.Check("", "1234"))
		assert.False(t, h.Check("not-a-bcrypt-hash", "1234"))
	})
}

func TestLockHasher_HashesAreSalted(t *testing.T) {
	h := NewLockHasher()

	a, err := h.Hash("1234")
	require.NoError(t, err)
	b, err := h.Hash("1234")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}
