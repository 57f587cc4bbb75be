package totp

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/scrypt"
)

// scrypt parameters for backup-code hashes.
const (
	ScryptN       = 16384
	ScryptR       = 8
	ScryptP       = 1
	ScryptSaltLen = 16
	ScryptKeyLen  = 64

	scryptPrefix = "scrypt"
)

// GenerateBackupCodes returns count codes of the form "XXXXXXXX-XXXXXXXX",
// each half an independent random 32-bit value in uppercase hexadecimal.
func GenerateBackupCodes(count int) ([]string, error) {
	if count < 1 {
		return nil, ErrInvalidBackupCodeCount
	}

	codes := make([]string, count)
	for i := range count {
		var b [8]byte
		if _, err := rand.Read(b[:]); err != nil {
			return nil, errors.Join(ErrFailedToGenerateBackupCode, err)
		}
		codes[i] = fmt.Sprintf("%08X-%08X", binary.BigEndian.Uint32(b[:4]), binary.BigEndian.Uint32(b[4:]))
	}
	return codes, nil
}

// HashBackupCode returns "scrypt$<base64 salt>$<base64 key>" for code with a fresh salt.
func HashBackupCode(code string) (string, error) {
	salt := make([]byte, ScryptSaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", errors.Join(ErrFailedToHashBackupCode, err)
	}
	key, err := scrypt.Key([]byte(code), salt, ScryptN, ScryptR, ScryptP, ScryptKeyLen)
	if err != nil {
		return "", errors.Join(ErrFailedToHashBackupCode, err)
	}
	return strings.Join([]string{
		scryptPrefix,
		base64.StdEncoding.EncodeToString(salt),
		base64.StdEncoding.EncodeToString(key),
	}, "$"), nil
}

// VerifyBackupCode reports whether code matches hashed. Malformed hashes never match.
// The derived key is compared in constant time.
func VerifyBackupCode(code, hashed string) bool {
	parts := strings.Split(hashed, "$")
	if len(parts) != 3 || parts[0] != scryptPrefix {
		return false
	}
	salt, err := base64.StdEncoding.DecodeString(parts[1])
	if err != nil {
		return false
	}
	expected, err := base64.StdEncoding.DecodeString(parts[2])
	if err != nil || len(expected) == 0 {
		return false
	}

	actual, err := scrypt.Key([]byte(code), salt, ScryptN, ScryptR, ScryptP, len(expected))
	if err != nil {
		return false
	}
	return len(actual) == len(expected) && subtle.ConstantTimeCompare(actual, expected) == 1
}

// NormalizeBackupCode trims surrounding whitespace and upper-cases code.
func NormalizeBackupCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
