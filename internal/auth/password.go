package auth

import (
	"errors"
	"fmt"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// PasswordCost is the bcrypt work factor used for new hashes.
const PasswordCost = bcrypt.DefaultCost

// MaxPasswordBytes is the longest password bcrypt accepts, in bytes.
const MaxPasswordBytes = 72

// ErrPasswordTooLong is returned by HashPassword for passwords above
// MaxPasswordBytes.
var ErrPasswordTooLong = bcrypt.ErrPasswordTooLong

// HashPassword returns a bcrypt hash of the password.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", errors.New("password cannot be empty")
	}
	if len(password) > MaxPasswordBytes {
		return "", ErrPasswordTooLong
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), PasswordCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// VerifyPassword reports whether password matches the bcrypt hash.
// A malformed hash is an error; a plain mismatch is not.
func VerifyPassword(password, hash string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, fmt.Errorf("verify password: %w", err)
	}
}

var (
	dummyOnce sync.Once
	dummyHash string
)

// DummyHash returns a valid bcrypt hash at PasswordCost that matches no real
// password. Comparing against it makes a missing account cost the same as a
// wrong password.
func DummyHash() string {
	dummyOnce.Do(func() {
		hash, err := bcrypt.GenerateFromPassword([]byte("retail-pos:no-such-account"), PasswordCost)
		if err != nil {
			panic(fmt.Sprintf("auth: generate dummy hash: %v", err))
		}
		dummyHash = string(hash)
	})
	return dummyHash
}
