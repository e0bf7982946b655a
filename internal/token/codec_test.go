package token

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCodecRoundTrip(t *testing.T) {
	codec := NewCodec([]byte("test-secret"))

	issued := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	codec.now = func() time.Time { return issued }

	signed, err := codec.Sign("alice", 15*time.Minute)
	require.NoError(t, err)
	require.NotEmpty(t, signed)

	claims, err := codec.Parse(signed)
	require.NoError(t, err)
	require.Equal(t, "alice", claims.Subject)
	require.Equal(t, issued, claims.IssuedAt.UTC())
	require.Equal(t, issued.Add(15*time.Minute), claims.ExpiresAt.UTC())
}

func TestCodecParseExpiredToken(t *testing.T) {
	codec := NewCodec([]byte("test-secret"))

	signed, err := codec.Sign("alice", -time.Minute)
	require.NoError(t, err)

	// Expiry is not the codec's concern: an expired token still parses.
	claims, err := codec.Parse(signed)
	require.NoError(t, err)
	require.Equal(t, "alice", claims.Subject)
	require.True(t, claims.ExpiresAt.Before(time.Now()))
}

func TestCodecRejectsWrongSecret(t *testing.T) {
	signed, err := NewCodec([]byte("secret-one")).Sign("alice", time.Minute)
	require.NoError(t, err)

	_, err = NewCodec([]byte("secret-two")).Parse(signed)
	require.ErrorIs(t, err, ErrBadSignature)
}

func TestCodecRejectsTamperedToken(t *testing.T) {
	codec := NewCodec([]byte("test-secret"))

	signed, err := codec.Sign("alice", time.Minute)
	require.NoError(t, err)

	for i := 0; i < len(signed); i++ {
		if signed[i] == '.' || signed[i] == 'A' {
			continue
		}
		// The last character of a base64url segment carries unused trailing
		// bits that decoders ignore, so flipping it may not change the
		// decoded bytes. Skip segment-final positions.
		if i+1 == len(signed) || signed[i+1] == '.' {
			continue
		}
		tampered := signed[:i] + "A" + signed[i+1:]
		_, err := codec.Parse(tampered)
		require.Error(t, err, "tampered byte at offset %d must not parse", i)
	}
}

func TestCodecRejectsGarbage(t *testing.T) {
	codec := NewCodec([]byte("test-secret"))

	for _, input := range []string{"", "not-a-token", "a.b", strings.Repeat(".", 3)} {
		_, err := codec.Parse(input)
		require.ErrorIs(t, err, ErrMalformedToken, "input %q", input)
	}
}

func TestCodecRejectsUnsignedToken(t *testing.T) {
	codec := NewCodec([]byte("test-secret"))

	// alg=none style token: header and payload without a real signature.
	unsigned := "eyJhbGciOiJub25lIiwidHlwIjoiSldUIn0.eyJzdWIiOiJhbGljZSJ9."
	_, err := codec.Parse(unsigned)
	require.Error(t, err)
}
