// Package credential derives and verifies salted password hashes.
//
// A hash is HMAC-SHA512 over the UTF-8 password bytes keyed by a fresh
// 128-byte random salt, so every (password, salt) pair maps to one 64-byte
// digest and equal passwords never share a digest across users.
package credential

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha512"
	"crypto/subtle"
	"errors"
	"fmt"
	"io"
	"strings"

	"authentication_api/internal/models"
)

// ErrInvalidInput is returned for blank passwords and malformed stored values.
var ErrInvalidInput = errors.New("invalid credential input")

// Hasher hashes and verifies passwords.
type Hasher interface {
	Hash(password string) (hash, salt []byte, err error)
	Verify(password string, storedHash, storedSalt []byte) (bool, error)
}

// HMACHasher implements Hasher with HMAC-SHA512.
type HMACHasher struct {
	random io.Reader
}

// NewHMACHasher returns a hasher drawing salts from crypto/rand.
func NewHMACHasher() *HMACHasher {
	return &HMACHasher{random: rand.Reader}
}

var _ Hasher = (*HMACHasher)(nil)

// Hash returns a fresh salt and the digest of password keyed by it.
func (h *HMACHasher) Hash(password string) ([]byte, []byte, error) {
	if err := checkPassword(password); err != nil {
		return nil, nil, err
	}
	salt := make([]byte, models.PasswordSaltLen)
	if _, err := io.ReadFull(h.random, salt); err != nil {
		return nil, nil, fmt.Errorf("generate salt: %w", err)
	}
	return digest(password, salt), salt, nil
}

// Verify recomputes the digest with storedSalt and compares it with
// storedHash in constant time over the full length.
func (h *HMACHasher) Verify(password string, storedHash, storedSalt []byte) (bool, error) {
	if err := checkPassword(password); err != nil {
		return false, err
	}
	if len(storedHash) != models.PasswordHashLen {
		return false, fmt.Errorf("%w: password hash must be %d bytes, got %d", ErrInvalidInput, models.PasswordHashLen, len(storedHash))
	}
	if len(storedSalt) != models.PasswordSaltLen {
		return false, fmt.Errorf("%w: password salt must be %d bytes, got %d", ErrInvalidInput, models.PasswordSaltLen, len(storedSalt))
	}
	return subtle.ConstantTimeCompare(digest(password, storedSalt), storedHash) == 1, nil
}

func checkPassword(password string) error {
	if strings.TrimSpace(password) == "" {
		return fmt.Errorf("%w: password is empty", ErrInvalidInput)
	}
	return nil
}

func digest(password string, salt []byte) []byte {
	mac := hmac.New(sha512.New, salt)
	mac.Write([]byte(password))
	return mac.Sum(nil)
}
