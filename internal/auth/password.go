package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrEmptyPassword     = errors.New("password is empty")
	ErrEmptyPasswordHash = errors.New("password hash is empty")
)

// HashPassword hashes plaintext password using bcrypt.
func HashPassword(password string) (string, error) {
	if len(password) == 0 {
		return "", ErrEmptyPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword compares plaintext password with stored hash.
// Returns bcrypt.ErrMismatchedHashAndPassword when they don't match.
func VerifyPassword(hash, password string) error {
	if hash == "" {
		return ErrEmptyPasswordHash
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}
