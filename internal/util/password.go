package util

import (
	"errors"
	"fmt"
	"unicode"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
)

const (
	bcryptCost        = 10
	minPasswordLength = 8
	maxPasswordLength = 20
	maxPasswordBytes  = 72
)

// ValidatePassword checks the password strength rules: length between 8 and
// 20 characters, at least one uppercase letter, one lowercase letter, one
// digit and one symbol, and no whitespace. A nil return means the password
// passes. The check is deterministic and never fails for odd input; an empty
// string is simply invalid.
func ValidatePassword(password string) error {
	length := utf8.RuneCountInString(password)
	if length < minPasswordLength || length > maxPasswordLength {
		return fmt.Errorf("password must be between %d and %d characters long", minPasswordLength, maxPasswordLength)
	}
	// a multibyte password can sit within the rune limits and still exceed
	// bcrypt's input cap, which GenerateFromPassword rejects
	if len(password) > maxPasswordBytes {
		return fmt.Errorf("password must not exceed %d bytes", maxPasswordBytes)
	}

	var hasUpper, hasLower, hasDigit, hasSymbol bool
	for _, r := range password {
		switch {
		case unicode.IsSpace(r):
			return errors.New("password must not contain whitespace")
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsPunct(r), unicode.IsSymbol(r):
			hasSymbol = true
		}
	}

	switch {
	case !hasUpper:
		return errors.New("password must include an uppercase letter")
	case !hasLower:
		return errors.New("password must include a lowercase letter")
	case !hasDigit:
		return errors.New("password must include a digit")
	case !hasSymbol:
		return errors.New("password must include a symbol")
	}
	return nil
}

// HashPassword derives a salted bcrypt hash with a fixed work factor. Each
// call salts independently, so two hashes of the same password differ and are
// only comparable through VerifyPassword.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// VerifyPassword checks password against a stored bcrypt hash. A mismatch or
// a malformed stored hash reports (false, nil); any other failure comes back
// as an error so callers can tell "wrong password" apart from a hashing
// subsystem failure.
func VerifyPassword(password, hash string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) || errors.Is(err, bcrypt.ErrHashTooShort) {
		return false, nil
	}
	var (
		prefixErr  bcrypt.InvalidHashPrefixError
		versionErr bcrypt.HashVersionTooNewError
		costErr    bcrypt.InvalidCostError
	)
	if errors.As(err, &prefixErr) || errors.As(err, &versionErr) || errors.As(err, &costErr) {
		return false, nil
	}
	return false, fmt.Errorf("verify password: %w", err)
}
