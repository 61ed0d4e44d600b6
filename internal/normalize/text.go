// Package normalize turns loosely formatted header and cell text into canonical forms.
// Every function here is pure and total: bad input degrades, it never fails.
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Key folds header text into a matching key: no case, no diacritics, letters and digits only.
// "  Matrícula / Plate " and "matriculaplate" share a key.
func Key(s string) string {
	s = strings.ToLower(stripMarks(strings.TrimSpace(s)))

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Words splits header text into lowercase words without diacritics. Runs of
// anything but letters and digits separate words, and so does a lower to upper
// case change ("ScheduledArrival"). Joined, the words equal Key(s).
func Words(s string) []string {
	var words []string
	var b strings.Builder
	prevLower := false
	for _, r := range stripMarks(strings.TrimSpace(s)) {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			if b.Len() > 0 {
				words = append(words, b.String())
				b.Reset()
			}
			prevLower = false
			continue
		}
		if prevLower && unicode.IsUpper(r) && b.Len() > 0 {
			words = append(words, b.String())
			b.Reset()
		}
		prevLower = unicode.IsLower(r)
		b.WriteRune(unicode.ToLower(r))
	}
	if b.Len() > 0 {
		words = append(words, b.String())
	}
	return words
}

// Fold lowercases, strips diacritics and collapses whitespace, keeping punctuation.
func Fold(s string) string {
	return strings.ToLower(stripMarks(Display(s)))
}

// Display trims a cell value and collapses runs of whitespace into one space.
// Case and accents are kept.
func Display(s string) string {
	s = norm.NFC.String(s)
	return strings.Join(strings.Fields(s), " ")
}

func stripMarks(s string) string {
	// transformers carry state, so the chain is built per call
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// Bool reads the truthy forms used in hand-made sheets: "1", "true", "sí", "si", "x", "yes".
func Bool(s string) bool {
	switch Fold(s) {
	case "1", "true", "si", "x", "yes", "y":
		return true
	default:
		return false
	}
}
