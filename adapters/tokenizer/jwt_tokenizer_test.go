package tokenizer

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTokenizer(t *testing.T) *JWTTokenizer {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	return NewJWTTokenizer(key)
}

func TestIssueVerifyRoundTrip(t *testing.T) {
	tk := newTokenizer(t)

	credential, err := tk.Issue("0x1111111111111111111111111111111111111111")
	require.NoError(t, err)
	require.NotEmpty(t, credential)

	address, err := tk.Verify(credential)
	require.NoError(t, err)
	assert.Equal(t, "0x1111111111111111111111111111111111111111", address)
}

func TestVerifyRejectsForeignKey(t *testing.T) {
	tk := newTokenizer(t)
	other := newTokenizer(t)

	credential, err := other.Issue("0x1111111111111111111111111111111111111111")
	require.NoError(t, err)

	_, err = tk.Verify(credential)
	assert.Error(t, err)
}

func TestVerifyRejectsGarbage(t *testing.T) {
	tk := newTokenizer(t)

	_, err := tk.Verify("not.a.jwt")
	assert.Error(t, err)
}

func TestVerifyRejectsExpired(t *testing.T) {
	tk := newTokenizer(t)
	tk.ttl = -time.Minute

	credential, err := tk.Issue("0x1111111111111111111111111111111111111111")
	require.NoError(t, err)

	_, err = tk.Verify(credential)
	assert.Error(t, err)
}
