package normalize

import (
	"regexp"
	"strings"

	"github.com/cfdb/internal/schema"
)

// Name is a personal name split into parts. Empty parts are unknown.
type Name struct {
	Full      string
	Title     string
	First     string
	Middle    string
	Last      string
	Suffix    string
	Preferred string
}

var (
	rePreferredParen = regexp.MustCompile(`\(([^)]*)\)`)
	rePreferredQuote = regexp.MustCompile(`"([^"]*)"`)
)

// surname particles that belong to the last name in "First Last" order
var particles = map[string]bool{
	"VAN": true, "VON": true, "DE": true, "DEL": true, "DELLA": true, "DA": true,
	"DI": true, "DU": true, "LA": true, "LE": true, "ST": true, "SAINT": true,
	"DER": true, "DEN": true, "DOS": true, "DAS": true, "LOS": true, "LAS": true,
}

// ParseName splits a raw personal name written either "Last, First Middle
// Suffix" or "Title First Middle Last Suffix". A parenthesized or quoted
// nickname becomes Preferred.
func ParseName(raw string) Name {
	var n Name
	s := Fold(raw)
	if m := rePreferredParen.FindStringSubmatch(s); m != nil {
		n.Preferred = NormalizeName(m[1])
		s = strings.Replace(s, m[0], " ", 1)
	} else if m := rePreferredQuote.FindStringSubmatch(s); m != nil {
		n.Preferred = NormalizeName(m[1])
		s = strings.Replace(s, m[0], " ", 1)
	}

	if i := strings.Index(s, ","); i >= 0 {
		lastPart := nameTokens(s[:i])
		rest := nameTokens(strings.ReplaceAll(s[i+1:], ",", " "))
		// "SMITH JR, JOHN" and "SMITH, JR, JOHN"
		if k := len(lastPart); k > 1 && schema.Suffixes[lastPart[k-1]] {
			n.Suffix = lastPart[k-1]
			lastPart = lastPart[:k-1]
		}
		if len(rest) > 0 && schema.Suffixes[rest[0]] && len(rest) > 1 && n.Suffix == "" {
			n.Suffix = rest[0]
			rest = rest[1:]
		}
		rest, n.Title = dropTitles(rest)
		rest, suffix := dropSuffixes(rest)
		if n.Suffix == "" {
			n.Suffix = suffix
		}
		n.Last = strings.Join(lastPart, " ")
		if len(rest) > 0 {
			n.First = rest[0]
			n.Middle = strings.Join(rest[1:], " ")
		}
	} else {
		toks := nameTokens(s)
		toks, n.Title = dropTitles(toks)
		toks, n.Suffix = dropSuffixes(toks)
		switch len(toks) {
		case 0:
		case 1:
			n.Last = toks[0]
		default:
			n.First = toks[0]
			j := len(toks) - 1
			for j > 1 && particles[toks[j-1]] {
				j--
			}
			n.Last = strings.Join(toks[j:], " ")
			n.Middle = strings.Join(toks[1:j], " ")
		}
	}

	n.Full = joinNonEmpty(n.First, n.Middle, n.Last, n.Suffix)
	return n
}

// NormalizeName cleans one name part.
func NormalizeName(s string) string {
	return strings.Join(nameTokens(s), " ")
}

func nameTokens(s string) []string {
	var out []string
	for _, t := range strings.Fields(Clean(s)) {
		if t = stripToken(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func dropTitles(toks []string) ([]string, string) {
	var titles []string
	for len(toks) > 1 && schema.Titles[toks[0]] {
		titles = append(titles, toks[0])
		toks = toks[1:]
	}
	return toks, strings.Join(titles, " ")
}

func dropSuffixes(toks []string) ([]string, string) {
	var suffixes []string
	for len(toks) > 1 && schema.Suffixes[toks[len(toks)-1]] {
		suffixes = append([]string{toks[len(toks)-1]}, suffixes...)
		toks = toks[:len(toks)-1]
	}
	return toks, strings.Join(suffixes, " ")
}

func joinNonEmpty(parts ...string) string {
	var out []string
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, " ")
}

// FormalNames returns the given name plus every formal name it may be a
// nickname for.
func FormalNames(first string) []string {
	first = NormalizeName(first)
	if first == "" {
		return nil
	}
	return append([]string{first}, schema.Nicknames[first]...)
}

// NicknameMatch reports whether two given names may denote the same person:
// equal, or sharing a formal name ("BOB" and "ROBERT", "BOB" and "ROB").
func NicknameMatch(a, b string) bool {
	fa, fb := FormalNames(a), FormalNames(b)
	for _, x := range fa {
		for _, y := range fb {
			if x == y {
				return true
			}
		}
	}
	return false
}
