// Package normalize canonicalizes the free-text fields of campaign-finance
// filings: personal names, company names, US addresses, states and parties.
//
// Every function returns upper-case, accent-free text with single spaces, or
// "" when nothing meaningful remains.
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fold removes diacritics, upper-cases, and collapses whitespace.
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.Join(strings.Fields(strings.ToUpper(out)), " ")
}

// Clean folds s and replaces every character other than letters, digits,
// hyphens and apostrophes with a space.
func Clean(s string) string {
	return Fold(strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '\'' {
			return r
		}
		return ' '
	}, s))
}

// Tokens splits cleaned text into words.
func Tokens(s string) []string {
	return strings.Fields(Clean(s))
}

// IsBlank reports whether s has no letters or digits, or is a placeholder
// such as "N/A" or "NONE".
func IsBlank(s string) bool {
	c := strings.ReplaceAll(Clean(strings.ReplaceAll(s, "/", "")), " ", "")
	switch c {
	case "", "NA", "NONE", "NULL", "UNKNOWN", "-", "--":
		return true
	}
	return strings.IndexFunc(c, func(r rune) bool { return unicode.IsLetter(r) || unicode.IsDigit(r) }) < 0
}

func stripToken(tok string) string {
	return strings.Trim(tok, ".,'-")
}
