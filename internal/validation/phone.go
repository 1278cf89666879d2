package validation

import (
	"errors"
	"strings"
)

var ErrInvalidPhone = errors.New("phone number must have 10 to 15 digits")

// NormalizePhone strips formatting from raw and returns it as "+digits".
// Russian trunk-prefixed numbers (8XXXXXXXXXX) are rewritten to +7.
func NormalizePhone(raw string) (string, error) {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()

	if len(digits) == 11 && digits[0] == '8' {
		digits = "7" + digits[1:]
	}
	if len(digits) < 10 || len(digits) > 15 {
		return "", ErrInvalidPhone
	}
	return "+" + digits, nil
}

func IsValidPhone(raw string) bool {
	_, err := NormalizePhone(raw)
	return err == nil
}
