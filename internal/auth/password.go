package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// defaultCost is the bcrypt work factor for stored passwords.
// Tests use bcrypt.MinCost through NewPasswordServiceWithCost.
const defaultCost = 12

// MaxPasswordBytes is bcrypt's input limit. Longer input would be
// silently truncated, so it is rejected instead.
const MaxPasswordBytes = 72

var ErrPasswordMismatch = errors.New("auth: invalid password")

// PasswordService hashes and checks passwords for local accounts.
type PasswordService struct {
	cost int
}

func NewPasswordService() *PasswordService {
	return &PasswordService{cost: defaultCost}
}

// NewPasswordServiceWithCost is for tests in other packages. Never use a
// low cost outside tests.
func NewPasswordServiceWithCost(cost int) *PasswordService {
	return &PasswordService{cost: cost}
}

// Hash returns a self-describing bcrypt hash ($2a$<cost>$<salt><hash>)
// that can be stored as is.
func (p *PasswordService) Hash(plaintext string) (string, error) {
	if len(plaintext) > MaxPasswordBytes {
		return "", fmt.Errorf("auth: password must be %d bytes or fewer", MaxPasswordBytes)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), p.cost)
	if err != nil {
		return "", fmt.Errorf("auth: hashing password: %w", err)
	}
	return string(hashed), nil
}

// Verify returns ErrPasswordMismatch for a wrong password and a wrapped
// error for a malformed hash.
func (p *PasswordService) Verify(hash, plaintext string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
	if err == nil {
		return nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrPasswordMismatch
	}
	return fmt.Errorf("auth: comparing password hash: %w", err)
}
