package secretkey_test

import (
	"bytes"
	"crypto/sha256"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/docvault/pkg/secretkey"
)

func TestDerive(t *testing.T) {
	t.Parallel()

	canonical := bytes.Repeat([]byte{0x42}, 32)
	canonicalB64 := base64.StdEncoding.EncodeToString(canonical)

	short := []byte("sixteen byte key")
	shortB64 := base64.StdEncoding.EncodeToString(short)

	tests := []struct {
		name string
		raw  string
		want []byte
	}{
		{"canonical base64 key is used directly", canonicalB64, canonical},
		{"whitespace ignored", "  " + canonicalB64 + "\n", canonical},
		{"short base64 is hashed", shortB64, sha256Of(short)},
		{"plain text is hashed", "correct horse battery staple!", sha256Of([]byte("correct horse battery staple!"))},
		{"32 raw bytes are hashed", "this-passphrase-is-32-bytes-long", sha256Of([]byte("this-passphrase-is-32-bytes-long"))},
		{"invalid base64 falls back to raw bytes", "ab=c", sha256Of([]byte("ab=c"))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			key, err := secretkey.Derive(tt.raw)
			require.NoError(t, err)
			assert.Len(t, key, secretkey.KeySize)
			assert.Equal(t, tt.want, key)
		})
	}
}

func TestDeriveIsDeterministic(t *testing.T) {
	t.Parallel()

	a, err := secretkey.Derive("same secret")
	require.NoError(t, err)
	b, err := secretkey.Derive("same secret")
	require.NoError(t, err)
	assert.Equal(t, a, b)

	c, err := secretkey.Derive("other secret")
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}

func TestDeriveEmpty(t *testing.T) {
	t.Parallel()

	_, err := secretkey.Derive("")
	assert.ErrorIs(t, err, secretkey.ErrSecretNotSet)
	_, err = secretkey.Derive("   ")
	assert.ErrorIs(t, err, secretkey.ErrSecretNotSet)
}

func TestGenerateEncoded(t *testing.T) {
	t.Parallel()

	encoded, err := secretkey.GenerateEncoded()
	require.NoError(t, err)

	decoded, err := base64.StdEncoding.DecodeString(encoded)
	require.NoError(t, err)
	assert.Len(t, decoded, 32)

	key, err := secretkey.Derive(encoded)
	require.NoError(t, err)
	assert.Equal(t, decoded, key)
}

func TestProtected(t *testing.T) {
	t.Parallel()

	want, err := secretkey.Derive("vault secret")
	require.NoError(t, err)

	p, err := secretkey.New("vault secret")
	require.NoError(t, err)

	err = p.Use(func(key []byte) error {
		assert.Equal(t, want, key)
		return nil
	})
	require.NoError(t, err)

	p.Destroy()
	p.Destroy()
	err = p.Use(func([]byte) error { return nil })
	assert.ErrorIs(t, err, secretkey.ErrDestroyed)

	_, err = secretkey.New("")
	assert.ErrorIs(t, err, secretkey.ErrSecretNotSet)
}

func sha256Of(b []byte) []byte {
	sum := sha256.Sum256(b)
	return sum[:]
}
