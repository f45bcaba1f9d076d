package util

import (
	"crypto/rand"
	"encoding/hex"
)

// ResetCodeBytes is the entropy of a reset code; hex encoding doubles it, so
// 3 random bytes become a 6-character code.
const ResetCodeBytes = 3

// GenerateResetCode returns nBytes of cryptographically random data encoded
// as lowercase hex.
func GenerateResetCode(nBytes int) (string, error) {
	if nBytes <= 0 {
		nBytes = ResetCodeBytes
	}
	b := make([]byte, nBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
