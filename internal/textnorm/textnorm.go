// Package textnorm canonicalizes free text so keyword and substring matching
// is accent- and case-insensitive.
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var stripAccents = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize lowercases, folds diacritics to base ASCII letters, replaces
// anything outside [a-z0-9] with spaces and collapses whitespace. The result
// is lowercase ASCII tokens separated by single spaces; Normalize is
// idempotent and never fails.
func Normalize(text string) string {
	text = strings.ToLower(text)

	if folded, _, err := transform.String(stripAccents, text); err == nil {
		text = folded
	}

	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteByte(' ')
		}
	}

	return strings.Join(strings.Fields(b.String()), " ")
}
