package domain

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	// emailRe is deliberately loose: something@something.tld with no whitespace.
	emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

	// phoneRe allows an optional leading + or 0 followed by digits, spaces and hyphens.
	phoneRe = regexp.MustCompile(`^(\+|0)?[\d\s-]{7,20}$`)
)

const minPhoneDigits = 7

// ValidateContact accepts an email address or a phone number with at least
// seven digits. Surrounding whitespace is ignored.
func ValidateContact(contact string) error {
	contact = strings.TrimSpace(contact)
	if emailRe.MatchString(contact) {
		return nil
	}
	if phoneRe.MatchString(contact) && countDigits(contact) >= minPhoneDigits {
		return nil
	}
	return fmt.Errorf("%w: contact must be an email address or a phone number with at least %d digits", ErrValidation, minPhoneDigits)
}

func countDigits(s string) int {
	n := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			n++
		}
	}
	return n
}
