package password

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHasherHashAndVerify(t *testing.T) {
	hasher := NewHasher(4)

	digest, err := hasher.Hash("secret1")
	require.NoError(t, err)
	require.NotEqual(t, "secret1", digest)

	require.True(t, hasher.Verify("secret1", digest))
	require.False(t, hasher.Verify("wrongpass", digest))
}

func TestHasherSaltsEveryDigest(t *testing.T) {
	hasher := NewHasher(4)

	first, err := hasher.Hash("secret1")
	require.NoError(t, err)
	second, err := hasher.Hash("secret1")
	require.NoError(t, err)

	require.NotEqual(t, first, second)
}

func TestHasherMalformedDigestFailsVerification(t *testing.T) {
	hasher := NewHasher(4)

	require.False(t, hasher.Verify("secret1", ""))
	require.False(t, hasher.Verify("secret1", "not-a-bcrypt-digest"))
}

func TestHasherClampsInvalidCost(t *testing.T) {
	hasher := NewHasher(99)

	digest, err := hasher.Hash("secret1")
	require.NoError(t, err)
	require.True(t, hasher.Verify("secret1", digest))
}
