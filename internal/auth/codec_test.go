package auth

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClaims(exp time.Time) Claims {
	return Claims{
		Sub:   42,
		Name:  "joe",
		Roles: []Role{RoleUnprivileged, RoleModerator},
		JTI:   "nonce-1",
		Iat:   exp.Add(-15 * time.Minute).Unix(),
		Exp:   exp.Unix(),
	}
}

func TestNewCodecRejectsEmptySecret(t *testing.T) {
	_, err := NewCodec(nil)
	require.Error(t, err)
	_, err = NewCodec([]byte{})
	require.Error(t, err)
}

func TestSignVerifyRoundTrip(t *testing.T) {
	codec, err := NewCodec([]byte("test-secret"))
	require.NoError(t, err)

	want := testClaims(time.Now().Add(time.Hour))
	token, err := codec.Sign(want)
	require.NoError(t, err)
	require.Len(t, strings.Split(token, "."), 3)

	got, err := codec.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, want, *got)
}

func TestSignIsDeterministic(t *testing.T) {
	codec, err := NewCodec([]byte("test-secret"))
	require.NoError(t, err)

	cl := testClaims(time.Unix(1700000000, 0))
	a, err := codec.Sign(cl)
	require.NoError(t, err)
	b, err := codec.Sign(cl)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestVerifyRejectsTamperedSignature(t *testing.T) {
	codec, err := NewCodec([]byte("test-secret"))
	require.NoError(t, err)

	token, err := codec.Sign(testClaims(time.Now().Add(time.Hour)))
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	sig, err := base64.RawURLEncoding.DecodeString(parts[2])
	require.NoError(t, err)

	for i := range sig {
		mutated := append([]byte(nil), sig...)
		mutated[i] ^= 0x01
		bad := parts[0] + "." + parts[1] + "." + base64.RawURLEncoding.EncodeToString(mutated)

		_, err := codec.Verify(bad)
		assert.ErrorIs(t, err, ErrTokenInvalid, "flipped bit in signature byte %d", i)
	}
}

func TestVerifyRejectsTamperedPayload(t *testing.T) {
	codec, err := NewCodec([]byte("test-secret"))
	require.NoError(t, err)

	token, err := codec.Sign(testClaims(time.Now().Add(time.Hour)))
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	forged := base64.RawURLEncoding.EncodeToString([]byte(`{"sub":1,"name":"admin","roles":["admin"]}`))
	_, err = codec.Verify(parts[0] + "." + forged + "." + parts[2])
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	signer, err := NewCodec([]byte("secret-a"))
	require.NoError(t, err)
	verifier, err := NewCodec([]byte("secret-b"))
	require.NoError(t, err)

	token, err := signer.Sign(testClaims(time.Now().Add(time.Hour)))
	require.NoError(t, err)

	_, err = verifier.Verify(token)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestVerifyRejectsAlgNone(t *testing.T) {
	codec, err := NewCodec([]byte("test-secret"))
	require.NoError(t, err)

	token, err := codec.Sign(testClaims(time.Now().Add(time.Hour)))
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	noneHeader := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"none","typ":"JWT"}`))
	_, err = codec.Verify(noneHeader + "." + parts[1] + ".")
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestVerifyRejectsGarbage(t *testing.T) {
	codec, err := NewCodec([]byte("test-secret"))
	require.NoError(t, err)

	for _, token := range []string{
		"",
		"not-a-token",
		"a.b",
		"a.b.c.d",
		"!!!.@@@.###",
	} {
		_, err := codec.Verify(token)
		assert.ErrorIs(t, err, ErrTokenInvalid, "token %q", token)
	}
}

func TestNewJTIUnique(t *testing.T) {
	a, err := NewJTI()
	require.NoError(t, err)
	b, err := NewJTI()
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
	assert.NotEmpty(t, a)
}
