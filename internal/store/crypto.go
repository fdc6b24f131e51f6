package store

import (
	"encoding/base64"
	"fmt"

	"github.com/fernet/fernet-go"
)

// DeriveKey turns the configured encryption secret into a Fernet key.
// The secret is padded with '=' or truncated to 32 bytes before base64
// encoding; blobs written by earlier tooling used the same derivation, so
// they stay decryptable.
func DeriveKey(secret string) (*fernet.Key, error) {
	if secret == "" {
		return nil, fmt.Errorf("encryption key is empty")
	}

	raw := []byte(secret)
	if len(raw) < 32 {
		padded := make([]byte, 32)
		copy(padded, raw)
		for i := len(raw); i < 32; i++ {
			padded[i] = '='
		}
		raw = padded
	}
	raw = raw[:32]

	return fernet.DecodeKey(base64.URLEncoding.EncodeToString(raw))
}

// Encrypt seals data into a Fernet token.
func Encrypt(data []byte, key *fernet.Key) ([]byte, error) {
	token, err := fernet.EncryptAndSign(data, key)
	if err != nil {
		return nil, fmt.Errorf("encrypt: %w", err)
	}
	return token, nil
}

// Decrypt opens a Fernet token. No TTL check, the dataset blob is long-lived.
func Decrypt(token []byte, key *fernet.Key) ([]byte, error) {
	data := fernet.VerifyAndDecrypt(token, 0, []*fernet.Key{key})
	if data == nil {
		return nil, fmt.Errorf("decrypt: invalid token or wrong key")
	}
	return data, nil
}
