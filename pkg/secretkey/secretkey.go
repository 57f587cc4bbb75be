package secretkey

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"regexp"
	"strings"
)

// KeySize is the length of a derived key in bytes.
const KeySize = 32

var (
	// ErrSecretNotSet is returned when the configured secret is empty.
	ErrSecretNotSet = errors.New("secretkey: ADMIN_SECRET_KEY is not set")
	// ErrFailedToGenerateKey is returned when the system random source fails.
	ErrFailedToGenerateKey = errors.New("secretkey: failed to generate key")
)

var base64Charset = regexp.MustCompile(`^[A-Za-z0-9+/=]+$`)

// Derive returns the 32-byte key for raw. Surrounding whitespace is ignored.
func Derive(raw string) ([]byte, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ErrSecretNotSet
	}

	if base64Charset.MatchString(raw) && len(raw)%4 == 0 {
		if decoded, err := base64.StdEncoding.DecodeString(raw); err == nil {
			if len(decoded) == KeySize {
				return decoded, nil
			}
			sum := sha256.Sum256(decoded)
			return sum[:], nil
		}
	}

	sum := sha256.Sum256([]byte(raw))
	return sum[:], nil
}

// Generate returns a fresh random 32-byte key.
func Generate() ([]byte, error) {
	key := make([]byte, KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, errors.Join(ErrFailedToGenerateKey, err)
	}
	return key, nil
}

// GenerateEncoded returns a fresh key in the base64 form accepted by Derive,
// suitable for ADMIN_SECRET_KEY.
func GenerateEncoded() (string, error) {
	key, err := Generate()
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(key), nil
}
