// Package textnorm normalizes user text for comparison.
package textnorm

import (
	"strings"

	"golang.org/x/text/cases"
)

// Normalize trims the input and applies locale-invariant case folding.
// Internal whitespace is left untouched.
func Normalize(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	// A Caser carries state, so each call gets its own.
	return cases.Fold().String(s)
}
