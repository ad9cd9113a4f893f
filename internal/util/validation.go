package util

import (
	"regexp"
)

const (
	MinPINLength = 4
	MaxPINLength = 12
)

var pinRegex = regexp.MustCompile(`^[0-9]+$`)

// IsValidPIN reports whether s is a plain numeric panel PIN.
func IsValidPIN(s string) bool {
	if len(s) < MinPINLength || len(s) > MaxPINLength {
		return false
	}
	return pinRegex.MatchString(s)
}
