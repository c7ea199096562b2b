package cryptox

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashSecret(t *testing.T) {
	hash, err := HashSecret("correct horse battery staple")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(hash, "$argon2id$v=19$"))

	// Same input hashes differently thanks to the random salt
	hash2, err := HashSecret("correct horse battery staple")
	require.NoError(t, err)
	require.NotEqual(t, hash, hash2)
}

func TestVerifySecret(t *testing.T) {
	hash, err := HashSecret("swordfish")
	require.NoError(t, err)

	t.Run("matching secret verifies", func(t *testing.T) {
		require.NoError(t, VerifySecret("swordfish", hash))
	})

	t.Run("wrong secret fails", func(t *testing.T) {
		require.Error(t, VerifySecret("tuna", hash))
	})

	t.Run("empty secret fails", func(t *testing.T) {
		require.Error(t, VerifySecret("", hash))
	})

	t.Run("malformed hash fails", func(t *testing.T) {
		require.Error(t, VerifySecret("swordfish", "not-a-phc-string"))
		require.Error(t, VerifySecret("swordfish", "$bcrypt$v=19$m=1,t=1,p=1$c2FsdA$aGFzaA"))
	})
}
