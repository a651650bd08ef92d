package match

import (
	"strings"
	"unicode"
)

// Normalize canonicalizes raw text for comparison: it lowercases, strips
// every character that is not a letter, digit, or whitespace, collapses runs
// of whitespace to a single space, and trims the edges.
//
// Normalize is pure and total — empty input yields an empty string — and
// idempotent: Normalize(Normalize(x)) == Normalize(x).
func Normalize(text string) string {
	var b strings.Builder
	b.Grow(len(text))

	space := false
	for _, r := range strings.ToLower(text) {
		switch {
		case unicode.IsSpace(r):
			space = true
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if space && b.Len() > 0 {
				b.WriteByte(' ')
			}
			space = false
			b.WriteRune(r)
		}
		// Everything else (punctuation, symbols) is dropped.
	}
	return b.String()
}

// Tokens returns the whitespace-delimited tokens of an already-normalized
// string. An empty string yields a nil slice.
func Tokens(normalized string) []string {
	return strings.Fields(normalized)
}
