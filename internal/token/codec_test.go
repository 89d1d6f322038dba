package token

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueOpaqueToken(t *testing.T) {
	codec := NewCodec("magic-secret", "session-secret")

	t.Run("tokens are unique and URL safe", func(t *testing.T) {
		seen := map[string]bool{}
		for i := 0; i < 50; i++ {
			tok, err := codec.IssueOpaqueToken()
			require.NoError(t, err)
			assert.False(t, seen[tok], "duplicate token issued")
			seen[tok] = true
			assert.NotContains(t, tok, "+")
			assert.NotContains(t, tok, "/")
			assert.NotContains(t, tok, "=")
		}
	})

	t.Run("token length is fixed", func(t *testing.T) {
		tok, err := codec.IssueOpaqueToken()
		require.NoError(t, err)
		// 32 bytes base64url without padding
		assert.Len(t, tok, 43)
	})
}

func TestHashForStorage(t *testing.T) {
	codec := NewCodec("magic-secret", "session-secret")

	t.Run("deterministic for same input", func(t *testing.T) {
		assert.Equal(t, codec.HashForStorage("abc"), codec.HashForStorage("abc"))
	})

	t.Run("differs across inputs", func(t *testing.T) {
		assert.NotEqual(t, codec.HashForStorage("abc"), codec.HashForStorage("abd"))
	})

	t.Run("keyed by the magic secret", func(t *testing.T) {
		other := NewCodec("other-secret", "session-secret")
		assert.NotEqual(t, codec.HashForStorage("abc"), other.HashForStorage("abc"))
	})
}

func TestSignAndVerifySessionID(t *testing.T) {
	codec := NewCodec("magic-secret", "session-secret")

	t.Run("round trip", func(t *testing.T) {
		signed := codec.SignSessionID("session-123")
		id, ok := codec.VerifySessionID(signed)
		assert.True(t, ok)
		assert.Equal(t, "session-123", id)
	})

	t.Run("tampered id fails", func(t *testing.T) {
		signed := codec.SignSessionID("session-123")
		_, sig, _ := strings.Cut(signed, ".")
		_, ok := codec.VerifySessionID("session-456." + sig)
		assert.False(t, ok)
	})

	t.Run("tampered signature fails", func(t *testing.T) {
		signed := codec.SignSessionID("session-123")
		_, ok := codec.VerifySessionID(signed + "x")
		assert.False(t, ok)
	})

	t.Run("malformed values fail", func(t *testing.T) {
		for _, bad := range []string{"", "no-separator", ".sig-only", "id-only."} {
			_, ok := codec.VerifySessionID(bad)
			assert.False(t, ok, "expected %q to fail", bad)
		}
	})

	t.Run("signature from a different secret fails", func(t *testing.T) {
		other := NewCodec("magic-secret", "different-session-secret")
		signed := other.SignSessionID("session-123")
		_, ok := codec.VerifySessionID(signed)
		assert.False(t, ok)
	})
}

func TestConstantTimeEqual(t *testing.T) {
	assert.True(t, ConstantTimeEqual("abc", "abc"))
	assert.False(t, ConstantTimeEqual("abc", "abd"))
	assert.False(t, ConstantTimeEqual("abc", "abcd"))
	assert.True(t, ConstantTimeEqual("", ""))
}
