// Package auth provides authentication utilities including JWT and password handling.
package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"

	"github.com/mvaleed/conduit/internal/domain"
)

// Password hashing cost. 12 is a good balance between security and performance.
const bcryptCost = 12

// ErrInvalidPassword is returned when a password does not match its hash.
var ErrInvalidPassword = errors.New("invalid password")

// Hasher hashes and verifies passwords. The cost is configurable so tests
// can use bcrypt.MinCost.
type Hasher struct {
	cost int
}

func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcryptCost
	}
	return &Hasher{cost: cost}
}

// Hash returns the bcrypt hash of a validated password.
func (h *Hasher) Hash(password domain.Password) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password.String()), h.cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Check verifies a password against its hash.
func (h *Hasher) Check(password domain.Password, hash string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password.String()))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrInvalidPassword
		}
		return err
	}
	return nil
}
