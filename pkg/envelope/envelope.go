// Package envelope encrypts JSON payloads with AES-256-GCM into a versioned,
// self-describing container:
//
//	{"v": 1, "iv": "<base64 nonce>", "tag": "<base64 tag>", "data": "<base64 ciphertext>"}
//
// Decryption verifies the authentication tag before anything is returned.
// Any malformed or tampered field fails with ErrIntegrity.
package envelope

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

const (
	// Version is the only envelope version produced and accepted.
	Version   = 1
	KeySize   = 32
	NonceSize = 12
	TagSize   = 16
)

var (
	// ErrIntegrity is returned when an envelope cannot be authenticated or parsed.
	ErrIntegrity = errors.New("envelope: integrity check failed")
	// ErrInvalidKeyLength is returned for keys that are not 32 bytes long.
	ErrInvalidKeyLength = errors.New("envelope: invalid key length")
	// ErrFailedToEncrypt wraps failures while sealing a payload.
	ErrFailedToEncrypt = errors.New("envelope: failed to encrypt payload")
)

var b64 = base64.StdEncoding.Strict()

// Envelope is the persisted form of an encrypted payload.
type Envelope struct {
	Version int    `json:"v"`
	Nonce   string `json:"iv"`
	Tag     string `json:"tag"`
	Data    string `json:"data"`
}

// KeySource lends the 32-byte key to fn for the duration of the call.
// *secretkey.Protected satisfies it.
type KeySource interface {
	Use(fn func(key []byte) error) error
}

// StaticKey is a KeySource over a plain key slice.
type StaticKey []byte

func (k StaticKey) Use(fn func(key []byte) error) error { return fn(k) }

// Codec seals and opens envelopes with a single key.
type Codec struct {
	keys KeySource
}

// New returns a Codec drawing its key from keys.
func New(keys KeySource) *Codec {
	return &Codec{keys: keys}
}

func (c *Codec) aead(key []byte) (cipher.AEAD, error) {
	if len(key) != KeySize {
		return nil, ErrInvalidKeyLength
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// Encrypt serialises payload to JSON and seals it under a fresh random nonce.
func (c *Codec) Encrypt(payload any) (Envelope, error) {
	plain, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, errors.Join(ErrFailedToEncrypt, err)
	}

	var env Envelope
	err = c.keys.Use(func(key []byte) error {
		gcm, err := c.aead(key)
		if err != nil {
			return err
		}
		nonce := make([]byte, NonceSize)
		if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
			return err
		}
		sealed := gcm.Seal(nil, nonce, plain, nil)
		ct, tag := sealed[:len(sealed)-TagSize], sealed[len(sealed)-TagSize:]
		env = Envelope{
			Version: Version,
			Nonce:   b64.EncodeToString(nonce),
			Tag:     b64.EncodeToString(tag),
			Data:    b64.EncodeToString(ct),
		}
		return nil
	})
	if err != nil {
		return Envelope{}, errors.Join(ErrFailedToEncrypt, err)
	}
	return env, nil
}

// Decrypt authenticates env and decodes the recovered JSON into dst.
func (c *Codec) Decrypt(env Envelope, dst any) error {
	if env.Version != Version {
		return fmt.Errorf("%w: unsupported version %d", ErrIntegrity, env.Version)
	}
	nonce, err := decodeField("iv", env.Nonce, NonceSize)
	if err != nil {
		return err
	}
	tag, err := decodeField("tag", env.Tag, TagSize)
	if err != nil {
		return err
	}
	ct, err := decodeField("data", env.Data, -1)
	if err != nil {
		return err
	}

	var plain []byte
	err = c.keys.Use(func(key []byte) error {
		gcm, err := c.aead(key)
		if err != nil {
			return err
		}
		sealed := make([]byte, 0, len(ct)+len(tag))
		sealed = append(append(sealed, ct...), tag...)
		out, err := gcm.Open(nil, nonce, sealed, nil)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrIntegrity, err)
		}
		plain = out
		return nil
	})
	if err != nil {
		return err
	}

	if err := json.Unmarshal(plain, dst); err != nil {
		return fmt.Errorf("%w: payload is not valid JSON: %v", ErrIntegrity, err)
	}
	return nil
}

// Parse decodes the JSON form of an envelope.
func Parse(data []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, fmt.Errorf("%w: malformed envelope: %v", ErrIntegrity, err)
	}
	return env, nil
}

func decodeField(name, value string, size int) ([]byte, error) {
	b, err := b64.DecodeString(value)
	if err != nil {
		return nil, fmt.Errorf("%w: %s is not base64", ErrIntegrity, name)
	}
	if size >= 0 && len(b) != size {
		return nil, fmt.Errorf("%w: %s has %d bytes, want %d", ErrIntegrity, name, len(b), size)
	}
	return b, nil
}
