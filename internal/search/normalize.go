package search

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// NormalizeQuery puts raw input text in the form sessions are keyed by:
// NFC-composed with surrounding whitespace removed.
func NormalizeQuery(text string) string {
	return strings.TrimSpace(norm.NFC.String(text))
}
