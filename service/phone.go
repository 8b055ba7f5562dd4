package service

import (
	"errors"
	"strings"
	"unicode"
)

// ErrInvalidPhone indicates a number that cannot be normalized to E.164.
var ErrInvalidPhone = errors.New("invalid phone number")

// NormalizePhone converts a US phone number to E.164 form. Formatting
// characters are stripped, a bare 10-digit number gets the country code
// prefixed, and anything else is rejected before it reaches a provider.
func NormalizePhone(raw string) (string, error) {
	var b strings.Builder
	for _, r := range raw {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	digits := b.String()

	switch {
	case len(digits) == 10:
		digits = "1" + digits
	case len(digits) == 11 && strings.HasPrefix(digits, "1"):
		// already has the country code
	default:
		return "", ErrInvalidPhone
	}

	return "+" + digits, nil
}
