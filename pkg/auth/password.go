package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

var ErrPasswordNotConfigured = errors.New("admin password is not configured")

// HashPassword hashes a password using bcrypt
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword verifies a password against a bcrypt hash. An empty hash
// never verifies.
func VerifyPassword(hashedPassword, password string) error {
	if hashedPassword == "" {
		return ErrPasswordNotConfigured
	}
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}
