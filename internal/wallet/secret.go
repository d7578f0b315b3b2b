package wallet

import (
	"crypto/subtle"
	"errors"
	"sync"
)

// ErrSecretWiped is returned when a wiped secret is used.
var ErrSecretWiped = errors.New("secret has been wiped")

// Secret owns a buffer of key material (a seed or a private key).
// It is handed around by pointer only and can be wiped in place.
type Secret struct {
	mu sync.RWMutex
	b  []byte
}

// NewSecret takes ownership of b. The caller must not keep or reuse b.
func NewSecret(b []byte) *Secret {
	return &Secret{b: b}
}

// CopySecret creates a secret from a copy of b. b is left untouched.
func CopySecret(b []byte) *Secret {
	out := make([]byte, len(b))
	copy(out, b)
	return &Secret{b: out}
}

// Len returns the length of the secret, or 0 once wiped.
func (s *Secret) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.b)
}

// Use calls fn with the secret bytes. fn must neither modify nor retain
// the slice. Concurrent calls run in parallel; Wipe waits for them.
func (s *Secret) Use(fn func(b []byte) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.b == nil {
		return ErrSecretWiped
	}
	return fn(s.b)
}

// Equal reports whether both secrets hold the same bytes, in constant time.
func (s *Secret) Equal(o *Secret) bool {
	if s == o {
		return true
	}
	var eq bool
	_ = s.Use(func(a []byte) error {
		return o.Use(func(b []byte) error {
			eq = subtle.ConstantTimeCompare(a, b) == 1
			return nil
		})
	})
	return eq
}

// Wipe zeroes the buffer and releases it. Safe to call more than once.
func (s *Secret) Wipe() {
	s.mu.Lock()
	defer s.mu.Unlock()
	zero(s.b)
	s.b = nil
}

// Wiped reports whether Wipe has been called.
func (s *Secret) Wiped() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.b == nil
}

// String never reveals the secret.
func (s *Secret) String() string {
	return "[redacted]"
}

// GoString never reveals the secret.
func (s *Secret) GoString() string {
	return "wallet.Secret{[redacted]}"
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
