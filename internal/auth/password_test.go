package auth

import (
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashPassword(t *testing.T) {
	t.Run("hash is not the plaintext and verifies", func(t *testing.T) {
		hash, err := HashPassword("p1")
		require.NoError(t, err)
		require.NotEqual(t, "p1", hash)
		require.NoError(t, VerifyPassword(hash, "p1"))
	})

	t.Run("hashes are salted", func(t *testing.T) {
		a, err := HashPassword("secret")
		require.NoError(t, err)
		b, err := HashPassword("secret")
		require.NoError(t, err)
		require.NotEqual(t, a, b)
	})

	t.Run("empty password rejected", func(t *testing.T) {
		_, err := HashPassword("")
		require.ErrorIs(t, err, ErrEmptyPassword)
	})
}

func TestVerifyPassword(t *testing.T) {
	hash, err := HashPassword("correct")
	require.NoError(t, err)

	t.Run("wrong password", func(t *testing.T) {
		require.ErrorIs(t, VerifyPassword(hash, "wrong"), bcrypt.ErrMismatchedHashAndPassword)
	})

	t.Run("empty hash", func(t *testing.T) {
		require.ErrorIs(t, VerifyPassword("", "correct"), ErrEmptyPasswordHash)
	})

	t.Run("garbage hash", func(t *testing.T) {
		require.Error(t, VerifyPassword("not-a-hash", "correct"))
	})
}
