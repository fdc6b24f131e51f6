package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveKeyPadsShortSecrets(t *testing.T) {
	key, err := DeriveKey("short-secret")
	require.NoError(t, err)
	require.NotNil(t, key)

	// Same secret always derives the same key.
	again, err := DeriveKey("short-secret")
	require.NoError(t, err)
	assert.Equal(t, key, again)
}

func TestDeriveKeyTruncatesLongSecrets(t *testing.T) {
	long := "0123456789abcdef0123456789abcdef-and-then-some"
	key, err := DeriveKey(long)
	require.NoError(t, err)

	truncated, err := DeriveKey(long[:32])
	require.NoError(t, err)
	assert.Equal(t, truncated, key, "bytes past 32 do not change the key")
}

func TestDeriveKeyEmptySecret(t *testing.T) {
	_, err := DeriveKey("")
	require.Error(t, err)
}

func TestEncryptDecryptRoundtrip(t *testing.T) {
	key, err := DeriveKey("roundtrip-secret")
	require.NoError(t, err)

	plain := []byte(`[{"date":"2024-03-01T00:00:00Z"}]`)
	token, err := Encrypt(plain, key)
	require.NoError(t, err)
	assert.NotEqual(t, plain, token)

	out, err := Decrypt(token, key)
	require.NoError(t, err)
	assert.Equal(t, plain, out)
}

func TestDecryptWithWrongKey(t *testing.T) {
	key, err := DeriveKey("right-secret")
	require.NoError(t, err)
	wrong, err := DeriveKey("wrong-secret")
	require.NoError(t, err)

	token, err := Encrypt([]byte("payload"), key)
	require.NoError(t, err)

	_, err = Decrypt(token, wrong)
	require.Error(t, err)
}

func TestDecryptGarbage(t *testing.T) {
	key, err := DeriveKey("some-secret")
	require.NoError(t, err)

	_, err = Decrypt([]byte("not a fernet token"), key)
	require.Error(t, err)
}
