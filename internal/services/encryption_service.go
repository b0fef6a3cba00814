package services

import (
	"strings"

	"mindbloom/internal/crypto"
	"mindbloom/internal/models"
)

// EncryptionService applies field encryption to identity provider records.
type EncryptionService struct {
	crypto *crypto.EncryptionService
}

func NewEncryptionService(encryptionKey, blindIndexKey []byte) (*EncryptionService, error) {
	cryptoSvc, err := crypto.NewEncryptionService(encryptionKey, blindIndexKey)
	if err != nil {
		return nil, err
	}
	return &EncryptionService{crypto: cryptoSvc}, nil
}

// Sealer exposes the underlying cipher, e.g. for an encrypted local medium.
func (s *EncryptionService) Sealer() *crypto.EncryptionService { return s.crypto }

// NormalizeEmail is the canonical form used for both storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// EncryptUser replaces the plaintext email with ciphertext and sets the
// blind index used for lookups.
func (s *EncryptionService) EncryptUser(user *models.User) error {
	email := NormalizeEmail(user.Email)
	encrypted, index, err := s.crypto.EncryptWithBlindIndex(email)
	if err != nil {
		return err
	}
	user.Email = encrypted
	user.EmailBlindIndex = index
	return nil
}

func (s *EncryptionService) DecryptUser(user *models.User) error {
	email, err := s.crypto.Decrypt(user.Email)
	if err != nil {
		return err
	}
	user.Email = email
	return nil
}

func (s *EncryptionService) EmailBlindIndex(email string) string {
	return s.crypto.GenerateBlindIndex(NormalizeEmail(email))
}
