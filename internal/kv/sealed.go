package kv

import "fmt"

// Sealer encrypts and decrypts stored values.
type Sealer interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

// SealedMedium encrypts every value before handing it to the wrapped medium.
// A value that fails to decrypt is reported as an error, which the store
// treats the same way as a corrupt payload.
type SealedMedium struct {
	inner  Medium
	sealer Sealer
}

func NewSealedMedium(inner Medium, sealer Sealer) *SealedMedium {
	return &SealedMedium{inner: inner, sealer: sealer}
}

func (s *SealedMedium) Get(key string) (string, bool, error) {
	raw, ok, err := s.inner.Get(key)
	if err != nil || !ok {
		return "", ok, err
	}
	plain, err := s.sealer.Decrypt(raw)
	if err != nil {
		return "", false, fmt.Errorf("unseal %s: %w", key, err)
	}
	return plain, true, nil
}

func (s *SealedMedium) Set(key, value string) error {
	sealed, err := s.sealer.Encrypt(value)
	if err != nil {
		return fmt.Errorf("seal %s: %w", key, err)
	}
	return s.inner.Set(key, sealed)
}

func (s *SealedMedium) Remove(key string) error {
	return s.inner.Remove(key)
}
