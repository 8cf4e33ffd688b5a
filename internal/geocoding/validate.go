package geocoding

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	hasLetter   = regexp.MustCompile(`[a-zA-Z]`)
	hasDigit    = regexp.MustCompile(`\d`)
	hasLocality = regexp.MustCompile(`([A-Z]{2}|[0-9]{5})`)
)

// ValidateAddress is a cheap syntactic check run before spending a geocoding
// request. An address needs at least 5 characters, a letter, and one of a
// digit, a comma, a two-letter uppercase token or a five-digit postal code.
func ValidateAddress(addr string) bool {
	if utf8.RuneCountInString(addr) < 5 {
		return false
	}
	if !hasLetter.MatchString(addr) {
		return false
	}
	return hasDigit.MatchString(addr) ||
		strings.Contains(addr, ",") ||
		hasLocality.MatchString(addr)
}
