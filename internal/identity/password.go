package identity

import (
	"crypto/rand"
	"fmt"
)

// PasswordLength is the fixed length of issued credentials.
const PasswordLength = 12

const passwordAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%^&*"

// GeneratePassword draws a password uniformly from the combined alphabet
// using a cryptographically secure source. Predictable passwords are a
// defect, so math/rand is not acceptable here.
func GeneratePassword() (string, error) {
	return generatePassword(PasswordLength)
}

func generatePassword(length int) (string, error) {
	alphabet := len(passwordAlphabet)
	// Rejection sampling keeps the per-character draw uniform: bytes at or
	// above the largest multiple of the alphabet size are discarded.
	limit := 256 - (256 % alphabet)

	out := make([]byte, 0, length)
	buf := make([]byte, length)
	for len(out) < length {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("password generation: %w", err)
		}
		for _, b := range buf {
			if int(b) >= limit {
				continue
			}
			out = append(out, passwordAlphabet[int(b)%alphabet])
			if len(out) == length {
				break
			}
		}
	}
	return string(out), nil
}
