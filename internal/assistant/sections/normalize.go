package sections

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalize folds a free-text section name into anchor-id shape:
// lower case, no surrounding punctuation, no diacritics, hyphens for spaces.
func Normalize(s string) string {
	s = strings.ToLower(s)
	s = strings.TrimFunc(s, func(r rune) bool { return unicode.IsSpace(r) || unicode.IsPunct(r) })
	if s == "" {
		return ""
	}
	// Chains carry state, so build one per call.
	strip := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if folded, _, err := transform.String(strip, s); err == nil {
		s = folded
	}
	return strings.Join(strings.Fields(s), "-")
}
