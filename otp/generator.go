package otp

import (
	"crypto/rand"
	"errors"
	"math/big"
	"strings"
)

// DefaultDigits is the code length used when the caller passes digits <= 0.
const DefaultDigits = 6

const maxDigits = 10

// GenerateCode returns a decimal code of exactly the requested number of
// digits, leading zeros allowed, drawn from a cryptographically secure
// source. digits <= 0 falls back to [DefaultDigits]. An entropy-source
// failure is the only error and callers treat it as fatal.
func GenerateCode(digits int) (string, error) {
	if digits <= 0 {
		digits = DefaultDigits
	}
	if digits > maxDigits {
		return "", errors.New("otp length exceeds 10 digits")
	}

	var b strings.Builder
	b.Grow(digits)

	ten := big.NewInt(10)
	for i := 0; i < digits; i++ {
		n, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", err
		}
		b.WriteByte(byte('0' + n.Int64()))
	}
	return b.String(), nil
}
