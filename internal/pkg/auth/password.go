package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// BcryptCost is lowered in tests
var BcryptCost = bcrypt.DefaultCost + 2

// HashPassword returns the bcrypt hash stored in users.password_hash.
// Inputs over 72 bytes are rejected by bcrypt.
func HashPassword(plain string) (string, error) {
	// Salt is generated per call
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), BcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword reports whether plain matches hash. A malformed hash never matches.
func CheckPassword(hash, plain string) bool {
	// Constant time comparison happens inside bcrypt
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
