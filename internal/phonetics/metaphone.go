// Package phonetics computes phonetic keys used as blocking transforms, so that
// names spelled differently but pronounced alike land in the same block.
package phonetics

import (
	"strings"
)

// MaxKeyLength bounds the length of a metaphone key.
const MaxKeyLength = 6

// Metaphone returns the metaphone key of text. Non-letters are ignored and
// multi-word input is encoded as one word. Empty input yields "".
func Metaphone(text string) string {
	w := letters(text)
	if w == "" {
		return ""
	}

	// initial exceptions
	switch {
	case hasPrefix(w, "AE", "GN", "KN", "PN", "WR"):
		w = w[1:]
	case w[0] == 'X':
		w = "S" + w[1:]
	case hasPrefix(w, "WH"):
		w = "W" + w[2:]
	}

	var b strings.Builder
	n := len(w)
	at := func(i int) byte {
		if i < 0 || i >= n {
			return 0
		}
		return w[i]
	}

	for i := 0; i < n && b.Len() < MaxKeyLength; i++ {
		c := w[i]
		// skip doubled letters except C
		if c != 'C' && i > 0 && at(i-1) == c {
			continue
		}
		switch c {
		case 'A', 'E', 'I', 'O', 'U':
			if i == 0 {
				b.WriteByte(c)
			}
		case 'B':
			// silent in a trailing MB
			if !(i == n-1 && at(i-1) == 'M') {
				b.WriteByte('B')
			}
		case 'C':
			switch {
			case at(i+1) == 'I' && at(i+2) == 'A':
				b.WriteByte('X')
			case at(i+1) == 'H':
				if at(i-1) == 'S' {
					b.WriteByte('K')
				} else {
					b.WriteByte('X')
				}
				i++
			case isFrontVowel(at(i + 1)):
				if at(i-1) != 'S' {
					b.WriteByte('S')
				}
			default:
				b.WriteByte('K')
			}
		case 'D':
			if at(i+1) == 'G' && isFrontVowel(at(i+2)) {
				b.WriteByte('J')
				i += 2
			} else {
				b.WriteByte('T')
			}
		case 'G':
			switch {
			case at(i+1) == 'H' && i+2 < n && !isVowel(at(i+2)):
				// silent GH before a consonant
			case at(i+1) == 'H' && i+2 == n:
				// trailing GH
			case at(i+1) == 'N' && (i+2 == n || (at(i+2) == 'E' && at(i+3) == 'D' && i+4 == n)):
				// silent in GN and GNED endings
			case isFrontVowel(at(i+1)) && at(i-1) != 'G':
				b.WriteByte('J')
			default:
				b.WriteByte('K')
			}
		case 'H':
			if isVowel(at(i+1)) && !strings.ContainsRune("CSPTG", rune(at(i-1))) {
				b.WriteByte('H')
			}
		case 'K':
			if at(i-1) != 'C' {
				b.WriteByte('K')
			}
		case 'P':
			if at(i+1) == 'H' {
				b.WriteByte('F')
				i++
			} else {
				b.WriteByte('P')
			}
		case 'Q':
			b.WriteByte('K')
		case 'S':
			switch {
			case at(i+1) == 'H':
				b.WriteByte('X')
				i++
			case at(i+1) == 'I' && (at(i+2) == 'O' || at(i+2) == 'A'):
				b.WriteByte('X')
			default:
				b.WriteByte('S')
			}
		case 'T':
			switch {
			case at(i+1) == 'I' && (at(i+2) == 'O' || at(i+2) == 'A'):
				b.WriteByte('X')
			case at(i+1) == 'H':
				b.WriteByte('0')
				i++
			case at(i+1) == 'C' && at(i+2) == 'H':
				// silent in TCH
			default:
				b.WriteByte('T')
			}
		case 'V':
			b.WriteByte('F')
		case 'W', 'Y':
			if isVowel(at(i + 1)) {
				b.WriteByte(c)
			}
		case 'X':
			b.WriteString("KS")
		case 'Z':
			b.WriteByte('S')
		default:
			// F J L M N R
			b.WriteByte(c)
		}
	}

	key := b.String()
	if len(key) > MaxKeyLength {
		key = key[:MaxKeyLength]
	}
	return key
}

// Match reports whether two strings share a non-empty metaphone key.
func Match(a, b string) bool {
	ka := Metaphone(a)
	return ka != "" && ka == Metaphone(b)
}

func letters(s string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(s) {
		if r >= 'A' && r <= 'Z' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func hasPrefix(s string, prefixes ...string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

func isVowel(c byte) bool {
	return c == 'A' || c == 'E' || c == 'I' || c == 'O' || c == 'U'
}

func isFrontVowel(c byte) bool {
	return c == 'E' || c == 'I' || c == 'Y'
}
