package envelope_test

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/docvault/pkg/envelope"
	"github.com/dmitrymomot/docvault/pkg/secretkey"
)

func testCodec(t *testing.T) *envelope.Codec {
	t.Helper()
	key, err := secretkey.Derive("envelope test secret")
	require.NoError(t, err)
	return envelope.New(envelope.StaticKey(key))
}

func TestRoundTrip(t *testing.T) {
	t.Parallel()

	codec := testCodec(t)
	payloads := []any{
		map[string]any{"enabled": true, "totpSecret": "JBSWY3DPEHPK3PXP", "backupCodes": []any{}},
		[]any{1.0, "two", nil, false},
		"plain string with <html> & unicode é",
		42.5,
		nil,
	}
	for _, p := range payloads {
		env, err := codec.Encrypt(p)
		require.NoError(t, err)
		assert.Equal(t, 1, env.Version)

		var got any
		require.NoError(t, codec.Decrypt(env, &got))
		assert.Equal(t, p, got)
	}
}

func TestEncryptUsesFreshNonce(t *testing.T) {
	t.Parallel()

	codec := testCodec(t)
	a, err := codec.Encrypt(map[string]int{"a": 1})
	require.NoError(t, err)
	b, err := codec.Encrypt(map[string]int{"a": 1})
	require.NoError(t, err)

	assert.NotEqual(t, a.Nonce, b.Nonce)
	assert.NotEqual(t, a.Data+a.Tag, b.Data+b.Tag)

	nonce, err := base64.StdEncoding.DecodeString(a.Nonce)
	require.NoError(t, err)
	assert.Len(t, nonce, envelope.NonceSize)
	tag, err := base64.StdEncoding.DecodeString(a.Tag)
	require.NoError(t, err)
	assert.Len(t, tag, envelope.TagSize)
}

func TestJSONFieldNames(t *testing.T) {
	t.Parallel()

	env, err := testCodec(t).Encrypt("x")
	require.NoError(t, err)

	raw, err := json.Marshal(env)
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(raw, &fields))
	assert.ElementsMatch(t, []string{"v", "iv", "tag", "data"}, keys(fields))
	assert.Equal(t, 1.0, fields["v"])

	parsed, err := envelope.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, env, parsed)
}

func TestTamperDetection(t *testing.T) {
	t.Parallel()

	codec := testCodec(t)
	env, err := codec.Encrypt(map[string]string{"secret": "value"})
	require.NoError(t, err)

	fields := map[string]func(e *envelope.Envelope) *string{
		"iv":   func(e *envelope.Envelope) *string { return &e.Nonce },
		"tag":  func(e *envelope.Envelope) *string { return &e.Tag },
		"data": func(e *envelope.Envelope) *string { return &e.Data },
	}
	for name, field := range fields {
		raw, err := base64.StdEncoding.DecodeString(*field(&env))
		require.NoError(t, err)

		for i := range len(raw) * 8 {
			flipped := bytes.Clone(raw)
			flipped[i/8] ^= 1 << (i % 8)

			tampered := env
			*field(&tampered) = base64.StdEncoding.EncodeToString(flipped)

			var out any
			err := codec.Decrypt(tampered, &out)
			require.ErrorIs(t, err, envelope.ErrIntegrity, "field %s bit %d", name, i)
			assert.Nil(t, out)
		}
	}
}

func TestDecryptRejectsMalformedEnvelopes(t *testing.T) {
	t.Parallel()

	codec := testCodec(t)
	good, err := codec.Encrypt("x")
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(e *envelope.Envelope)
	}{
		{"wrong version", func(e *envelope.Envelope) { e.Version = 2 }},
		{"missing version", func(e *envelope.Envelope) { e.Version = 0 }},
		{"empty nonce", func(e *envelope.Envelope) { e.Nonce = "" }},
		{"short nonce", func(e *envelope.Envelope) { e.Nonce = base64.StdEncoding.EncodeToString([]byte("short")) }},
		{"short tag", func(e *envelope.Envelope) { e.Tag = base64.StdEncoding.EncodeToString([]byte("tag")) }},
		{"not base64", func(e *envelope.Envelope) { e.Data = "!!!" }},
		{"truncated data", func(e *envelope.Envelope) { e.Data = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			env := good
			tt.mutate(&env)
			var out any
			assert.ErrorIs(t, codec.Decrypt(env, &out), envelope.ErrIntegrity)
		})
	}

	_, err = envelope.Parse([]byte("{not json"))
	assert.ErrorIs(t, err, envelope.ErrIntegrity)
}

func TestWrongKeyFails(t *testing.T) {
	t.Parallel()

	env, err := testCodec(t).Encrypt("secret")
	require.NoError(t, err)

	other, err := secretkey.Derive("another secret")
	require.NoError(t, err)

	var out any
	err = envelope.New(envelope.StaticKey(other)).Decrypt(env, &out)
	assert.ErrorIs(t, err, envelope.ErrIntegrity)
}

func TestProtectedKeySource(t *testing.T) {
	t.Parallel()

	protected, err := secretkey.New("envelope test secret")
	require.NoError(t, err)

	env, err := envelope.New(protected).Encrypt(map[string]int{"n": 7})
	require.NoError(t, err)

	var out map[string]int
	require.NoError(t, testCodec(t).Decrypt(env, &out))
	assert.Equal(t, 7, out["n"])
}

func TestInvalidKeyLength(t *testing.T) {
	t.Parallel()

	_, err := envelope.New(envelope.StaticKey([]byte("short"))).Encrypt("x")
	assert.ErrorIs(t, err, envelope.ErrInvalidKeyLength)
}

func keys(m map[string]any) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
