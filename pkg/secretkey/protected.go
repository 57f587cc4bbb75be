package secretkey

import (
	"errors"
	"sync"

	"github.com/awnumar/memguard"
)

// ErrDestroyed is returned by Protected.Use after Destroy.
var ErrDestroyed = errors.New("secretkey: key has been destroyed")

// Protected holds a derived key encrypted in memory.
type Protected struct {
	mu        sync.RWMutex
	enclave   *memguard.Enclave
	destroyed bool
}

// New derives the key for raw and seals it. The intermediate plaintext
// buffer is wiped by memguard.
func New(raw string) (*Protected, error) {
	key, err := Derive(raw)
	if err != nil {
		return nil, err
	}
	return Seal(key), nil
}

// Seal moves key into an enclave. key is wiped.
func Seal(key []byte) *Protected {
	return &Protected{enclave: memguard.NewEnclave(key)}
}

// Use opens the enclave, passes the plaintext key to fn and destroys the
// plaintext afterwards. fn must not retain the slice.
func (p *Protected) Use(fn func(key []byte) error) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.destroyed || p.enclave == nil {
		return ErrDestroyed
	}
	buf, err := p.enclave.Open()
	if err != nil {
		return err
	}
	defer buf.Destroy()
	return fn(buf.Bytes())
}

// Destroy drops the enclave. It is safe to call more than once.
func (p *Protected) Destroy() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.enclave = nil
	p.destroyed = true
}
