package utils

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// NormalizeKey is the lookup key for free-text names: surrounding space
// trimmed and lowercased.
func NormalizeKey(s string) string {
	// Casers keep state and cannot be shared between goroutines.
	return cases.Lower(language.Und).String(strings.TrimSpace(s))
}
