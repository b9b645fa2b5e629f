package service

import (
	"golang.org/x/crypto/bcrypt"

	"github.com/pmhub/project-manager/internal/core/domain"
)

const (
	passwordCost      = 12
	minPasswordLength = 6
	// bcrypt rejects longer input.
	maxPasswordLength = 72
)

// checkPassword enforces the length bounds on a new password.
func checkPassword(password string) error {
	switch {
	case len(password) < minPasswordLength:
		return domain.Invalid("Password must be at least 6 characters long")
	case len(password) > maxPasswordLength:
		return domain.Invalid("Password must be at most 72 bytes long")
	}
	return nil
}

type passwordHasher struct {
	cost int
}

func (h passwordHasher) hash(password string) (string, error) {
	cost := h.cost
	if cost == 0 {
		cost = passwordCost
	}
	b, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (h passwordHasher) matches(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
