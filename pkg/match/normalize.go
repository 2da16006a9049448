package match

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// stripMarks decomposes to NFD, drops combining marks (tildes, accents) and
// recomposes, so "sáldo" and "saldo" normalize identically.
var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize produces the canonical matching form of free text: lowercase,
// diacritics stripped, punctuation replaced by spaces, whitespace collapsed.
// Matching, rule keywords and classification all operate on this form, which
// makes the whole system a pure function of (domain, normalized query).
func Normalize(text string) string {
	lowered := strings.ToLower(text)

	stripped, _, err := transform.String(stripMarks, lowered)
	if err != nil {
		// Malformed input falls back to the lowercased form; matching
		// still works, just without diacritic folding.
		stripped = lowered
	}

	var b strings.Builder
	b.Grow(len(stripped))
	lastSpace := true
	for _, r := range stripped {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastSpace = false
		default:
			// Punctuation and symbols carry no matching weight and
			// become word boundaries.
			if !lastSpace {
				b.WriteByte(' ')
				lastSpace = true
			}
		}
	}
	return strings.TrimSpace(b.String())
}

// Words splits a normalized query into its words, used by fuzzy matching.
func Words(normalized string) []string {
	if normalized == "" {
		return nil
	}
	return strings.Fields(normalized)
}
