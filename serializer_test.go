package itsdangerous

import (
	"crypto/sha1"
	"crypto/sha256"
	"strings"
	"testing"

	"github.com/go-test/deep"
	"github.com/stretchr/testify/require"
)

var roundTripObjects = []any{
	[]any{"a", "list"},
	"a string",
	"a unicode string ’",
	map[string]any{"a": "dictionary"},
	float64(42),
	42.5,
}

func TestSerializer_roundTrip(t *testing.T) {
	s, err := NewSerializer([][]byte{[]byte("secret")})
	require.NoError(t, err)

	for _, obj := range roundTripObjects {
		token, err := s.Dumps(obj)
		require.NoError(t, err)

		var got any
		require.NoError(t, s.Loads(token, &got))

		if diff := deep.Equal(obj, got); diff != nil {
			t.Error(diff)
		}
	}
}

func TestSerializer_detectsTampering(t *testing.T) {
	s, err := NewSerializer([][]byte{[]byte("secret")})
	require.NoError(t, err)

	token, err := s.Dumps(map[string]any{"foo": "bar", "baz": float64(1)})
	require.NoError(t, err)

	transforms := []func(string) string{
		strings.ToUpper,
		func(t string) string { return t + "a" },
		func(t string) string { return "a" + t[1:] },
		func(t string) string { return strings.ReplaceAll(t, ".", "") },
	}

	for _, transform := range transforms {
		var got any
		err := s.Loads(transform(token), &got)
		require.ErrorIs(t, err, ErrBadSignature)
	}
}

func TestSerializer_saltNamespacing(t *testing.T) {
	keys := [][]byte{[]byte("secret")}

	s1, err := NewSerializer(keys, WithSalt([]byte("salt-a")))
	require.NoError(t, err)
	s2, err := NewSerializer(keys, WithSalt([]byte("salt-b")))
	require.NoError(t, err)

	token, err := s1.Dumps("value")
	require.NoError(t, err)

	var got any
	require.ErrorIs(t, s2.Loads(token, &got), ErrBadSignature)

	// A copy rebound to the producing salt verifies again.
	require.NoError(t, s2.Salted([]byte("salt-a")).Loads(token, &got))
	require.Equal(t, "value", got)
}

func TestSerializer_keyRotation(t *testing.T) {
	oldKey := []byte("old-secret")
	newKey := []byte("new-secret")

	sOld, err := NewSerializer([][]byte{oldKey})
	require.NoError(t, err)
	sNew, err := NewSerializer([][]byte{oldKey, newKey})
	require.NoError(t, err)

	token, err := sOld.Dumps("value")
	require.NoError(t, err)

	var got any
	require.NoError(t, sNew.Loads(token, &got))
	require.Equal(t, "value", got)

	token, err = sNew.Dumps("value")
	require.NoError(t, err)

	sNewest, err := NewSerializer([][]byte{newKey})
	require.NoError(t, err)
	require.NoError(t, sNewest.Loads(token, &got))
}

func TestSerializer_fallbackSigners(t *testing.T) {
	keys := [][]byte{[]byte("secret")}

	legacy, err := NewSerializer(keys, WithDigestMethod(sha1.New))
	require.NoError(t, err)

	token, err := legacy.Dumps("value")
	require.NoError(t, err)

	current, err := NewSerializer(keys, WithDigestMethod(sha256.New))
	require.NoError(t, err)

	var got any
	require.ErrorIs(t, current.Loads(token, &got), ErrBadSignature)

	upgraded, err := NewSerializer(keys,
		WithDigestMethod(sha256.New),
		WithFallbackSigners(FallbackSigner(WithDigestMethod(sha1.New))))
	require.NoError(t, err)

	require.NoError(t, upgraded.Loads(token, &got))
	require.Equal(t, "value", got)

	// New tokens are produced with the current configuration.
	token, err = upgraded.Dumps("value")
	require.NoError(t, err)
	require.NoError(t, current.Loads(token, &got))
}

func TestSerializer_loadsUnsafe(t *testing.T) {
	s, err := NewSerializer([][]byte{[]byte("secret")})
	require.NoError(t, err)

	token, err := s.Dumps(map[string]any{"a": "dictionary"})
	require.NoError(t, err)

	t.Run("valid token", func(t *testing.T) {
		var got any
		valid, loaded := s.LoadsUnsafe(token, &got)
		require.True(t, valid)
		require.True(t, loaded)
		require.Equal(t, map[string]any{"a": "dictionary"}, got)
	})

	t.Run("broken signature keeps payload", func(t *testing.T) {
		var got any
		valid, loaded := s.LoadsUnsafe(token+"x", &got)
		require.False(t, valid)
		require.True(t, loaded)
		require.Equal(t, map[string]any{"a": "dictionary"}, got)
	})

	t.Run("garbage", func(t *testing.T) {
		var got any
		valid, loaded := s.LoadsUnsafe("garbage", &got)
		require.False(t, valid)
		require.False(t, loaded)
	})
}

func TestSerializer_badPayload(t *testing.T) {
	keys := [][]byte{[]byte("secret")}

	s, err := NewSerializer(keys)
	require.NoError(t, err)

	// A correctly signed token whose payload is not valid JSON.
	signer, err := NewSigner(keys, WithSalt([]byte("itsdangerous")))
	require.NoError(t, err)
	token := signer.Sign([]byte("{not json"))

	var got any
	err = s.Loads(string(token), &got)
	require.ErrorIs(t, err, ErrBadPayload)

	var bp *BadPayloadError
	require.ErrorAs(t, err, &bp)
	require.Error(t, bp.OriginalError)
}

func TestSerializer_customCodec(t *testing.T) {
	s, err := NewSerializer([][]byte{[]byte("secret")}, WithCodec(CompactJSON{}))
	require.NoError(t, err)

	token, err := s.Dumps(map[string]any{"url": "https://example.com/?a=1&b=2"})
	require.NoError(t, err)
	// Unlike encoding/json's default, CompactJSON keeps '&' literal.
	require.NotContains(t, token, `\u0026`)
	require.Contains(t, token, "&")

	var got map[string]any
	require.NoError(t, s.Loads(token, &got))
	require.Equal(t, "https://example.com/?a=1&b=2", got["url"])
}
