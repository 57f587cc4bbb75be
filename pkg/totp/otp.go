package totp

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha1"
	"encoding/base32"
	"encoding/binary"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultDigits    = 6      // Standard 6-digit TOTP codes
	DefaultPeriod    = 30     // 30-second validity window (RFC 6238 standard)
	DefaultAlgorithm = "SHA1" // HMAC-SHA1 algorithm (RFC 6238 standard)
	DefaultSkew      = 1      // Steps accepted on each side of the current one
)

var (
	// ValidateSecretKeyRegex ensures Base32 format: uppercase A-Z, digits 2-7, optional padding
	ValidateSecretKeyRegex = regexp.MustCompile("^[A-Z2-7]+=*$")

	otpRegex = regexp.MustCompile(fmt.Sprintf(`^\d{%d}$`, DefaultDigits))

	secretEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)
)

// TOTPParams contains the parameters for TOTP URI generation
type TOTPParams struct {
	Secret      string // Base32-encoded TOTP secret key (required)
	AccountName string // Account label shown in authenticator apps (required)
	Issuer      string // Service name displayed in authenticator apps (required)
	Algorithm   string // HMAC algorithm (optional, defaults to SHA1)
	Digits      int    // Number of digits in generated codes (optional, defaults to 6)
	Period      int    // Code validity period in seconds (optional, defaults to 30)
}

// Validate ensures all required TOTP parameters are present and valid
func (p TOTPParams) Validate() error {
	if p.Secret == "" {
		return ErrMissingSecret
	}
	if !ValidateSecretKeyRegex.MatchString(p.Secret) {
		return ErrInvalidSecret
	}
	if p.AccountName == "" {
		return ErrMissingAccountName
	}
	if p.Issuer == "" {
		return ErrMissingIssuer
	}
	return nil
}

// GetDefaults returns a copy with RFC 6238 standard defaults applied to zero-valued fields
func (p TOTPParams) GetDefaults() TOTPParams {
	if p.Algorithm == "" {
		p.Algorithm = DefaultAlgorithm
	}
	if p.Digits == 0 {
		p.Digits = DefaultDigits
	}
	if p.Period == 0 {
		p.Period = DefaultPeriod
	}
	return p
}

// GenerateSecretKey returns a random 160-bit secret, base32 encoded without padding.
func GenerateSecretKey() (string, error) {
	secret := make([]byte, 20)
	if _, err := rand.Read(secret); err != nil {
		return "", errors.Join(ErrFailedToGenerateSecretKey, err)
	}
	return secretEncoding.EncodeToString(secret), nil
}

// GetTOTPURI builds an otpauth:// provisioning URI following the Key Uri Format:
// https://github.com/google/google-authenticator/wiki/Key-Uri-Format
func GetTOTPURI(params TOTPParams) (string, error) {
	if err := params.Validate(); err != nil {
		return "", err
	}
	params = params.GetDefaults()

	label := url.PathEscape(params.Issuer) + ":" + url.PathEscape(params.AccountName)

	query := url.Values{}
	query.Set("secret", params.Secret)
	query.Set("issuer", params.Issuer)
	query.Set("algorithm", params.Algorithm)
	query.Set("digits", strconv.Itoa(params.Digits))
	query.Set("period", strconv.Itoa(params.Period))

	return "otpauth://totp/" + label + "?" + query.Encode(), nil
}

func decodeSecret(secret string) ([]byte, error) {
	secret = strings.TrimSpace(strings.ToUpper(secret))
	if !ValidateSecretKeyRegex.MatchString(secret) {
		return nil, ErrInvalidSecret
	}
	return secretEncoding.DecodeString(strings.TrimRight(secret, "="))
}

// ValidateTOTP checks otp against secret at the current time.
func ValidateTOTP(secret, otp string) (bool, error) {
	return ValidateTOTPWithTime(secret, otp, time.Now())
}

// ValidateTOTPWithTime checks otp against the step containing t and
// DefaultSkew steps on either side.
func ValidateTOTPWithTime(secret, otp string, t time.Time) (bool, error) {
	key, err := decodeSecret(secret)
	if err != nil {
		if errors.Is(err, ErrInvalidSecret) {
			return false, err
		}
		return false, errors.Join(ErrFailedToValidateTOTP, err)
	}

	otp = strings.TrimSpace(otp)
	if !otpRegex.MatchString(otp) {
		return false, ErrInvalidOTP
	}

	counter := t.Unix() / DefaultPeriod
	for i := -DefaultSkew; i <= DefaultSkew; i++ {
		if hmac.Equal([]byte(formatCode(GenerateHOTP(key, counter+int64(i), DefaultDigits))), []byte(otp)) {
			return true, nil
		}
	}
	return false, nil
}

// GenerateTOTP returns the code for the current step.
func GenerateTOTP(secret string) (string, error) {
	return GenerateTOTPWithTime(secret, time.Now())
}

// GenerateTOTPWithTime returns the code for the step containing t.
func GenerateTOTPWithTime(secret string, t time.Time) (string, error) {
	key, err := decodeSecret(secret)
	if err != nil {
		if errors.Is(err, ErrInvalidSecret) {
			return "", err
		}
		return "", errors.Join(ErrFailedToGenerateTOTP, err)
	}
	return formatCode(GenerateHOTP(key, t.Unix()/DefaultPeriod, DefaultDigits)), nil
}

// GenerateHOTP implements the RFC 4226 HMAC-based one-time password.
func GenerateHOTP(key []byte, counter int64, digits int) int {
	var msg [8]byte
	binary.BigEndian.PutUint64(msg[:], uint64(counter))

	mac := hmac.New(sha1.New, key)
	mac.Write(msg[:])
	sum := mac.Sum(nil)

	// Dynamic truncation: the low nibble of the last byte selects 4 bytes.
	offset := sum[len(sum)-1] & 0x0f
	code := binary.BigEndian.Uint32(sum[offset:offset+4]) & 0x7fffffff

	mod := uint32(1)
	for range digits {
		mod *= 10
	}
	return int(code % mod)
}

func formatCode(code int) string {
	return fmt.Sprintf("%0*d", DefaultDigits, code)
}
