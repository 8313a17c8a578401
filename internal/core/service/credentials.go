package service

import (
	"errors"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"github.com/autoworks/jobcard-service/internal/core/domain"
)

// DefaultHashCost is the bcrypt work factor used unless configured otherwise.
const DefaultHashCost = 10

// CredentialStore hashes and verifies passwords. It is the only component
// that sees a password hash in clear.
type CredentialStore struct {
	cost int

	dummyOnce sync.Once
	dummy     []byte
}

// NewCredentialStore returns a store hashing with cost. Values outside the
// bcrypt range fall back to DefaultHashCost.
func NewCredentialStore(cost int) *CredentialStore {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultHashCost
	}
	return &CredentialStore{cost: cost}
}

// Cost returns the configured work factor.
func (s *CredentialStore) Cost() int { return s.cost }

// Hash derives a salted one-way hash of password.
func (s *CredentialStore) Hash(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", domain.Validation("password must be at most 72 bytes")
		}
		return "", domain.Unexpected("hash password", err)
	}
	return string(h), nil
}

// Verify reports whether password matches hash. A mismatch is not an error;
// only a structurally invalid hash is.
func (s *CredentialStore) Verify(password, hash string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword), errors.Is(err, bcrypt.ErrPasswordTooLong):
		return false, nil
	default:
		return false, domain.Unexpected("verify password", err)
	}
}

// burn runs one comparison against a throwaway hash so a login for an
// unknown user costs as much as one with a wrong password.
func (s *CredentialStore) burn(password string) {
	s.dummyOnce.Do(func() {
		s.dummy, _ = bcrypt.GenerateFromPassword([]byte("jobcard-dummy-password"), s.cost)
	})
	_ = bcrypt.CompareHashAndPassword(s.dummy, []byte(password))
}
