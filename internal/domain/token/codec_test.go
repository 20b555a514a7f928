package token

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecode(t *testing.T) {
	inputs := [][]byte{
		{},
		[]byte("a"),
		[]byte("ab"),
		[]byte("abc"),
		{0xfb, 0xff, 0xfe},
		[]byte(`{"alg":"HS256","typ":"JWT"}`),
	}

	for _, in := range inputs {
		enc := Encode(in)
		assert.NotContains(t, enc, "=")
		assert.NotContains(t, enc, "+")
		assert.NotContains(t, enc, "/")

		out, err := Decode(enc)
		require.NoError(t, err)
		assert.Equal(t, in, out)
	}
}

func TestDecode_ToleratesPadding(t *testing.T) {
	out, err := Decode("YQ==")
	require.NoError(t, err)
	assert.Equal(t, []byte("a"), out)
}

func TestDecode_RejectsNonAlphabet(t *testing.T) {
	for _, in := range []string{"a+b/", "ab$c", "a b"} {
		_, err := Decode(in)
		require.ErrorIs(t, err, ErrDecode, "input %q", in)
	}
}

func TestSign_MatchesHMACSHA256(t *testing.T) {
	msg := []byte("header.payload")
	secret := []byte("0123456789abcdef0123456789abcdef")

	mac := hmac.New(sha256.New, secret)
	mac.Write(msg)
	want := base64.RawURLEncoding.EncodeToString(mac.Sum(nil))

	got, err := Sign(msg, secret)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	again, err := Sign(msg, secret)
	require.NoError(t, err)
	assert.Equal(t, got, again, "signing must be deterministic")
}
