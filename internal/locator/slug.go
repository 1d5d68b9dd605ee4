package locator

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// maxSlugLen bounds slugs so owner folders stay short in listings.
const maxSlugLen = 50

// Slugify lower-cases s, folds accents to their base letters, drops anything
// that is not a word character, whitespace or hyphen, and collapses runs of
// whitespace into a single hyphen. The result is at most 50 bytes.
func Slugify(s string) string {
	fold := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if folded, _, err := transform.String(fold, s); err == nil {
		s = folded
	}
	s = strings.ToLower(strings.TrimSpace(s))

	var b strings.Builder
	pendingSpace := false
	for _, r := range s {
		switch {
		case isWordRune(r) || r == '-':
			if pendingSpace && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingSpace = false
			b.WriteRune(r)
		case unicode.IsSpace(r):
			pendingSpace = true
		}
	}

	out := b.String()
	if len(out) > maxSlugLen {
		out = out[:maxSlugLen]
	}
	return out
}

// isWordRune matches the ASCII \w class.
func isWordRune(r rune) bool {
	return r < unicode.MaxASCII && (r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r))
}
