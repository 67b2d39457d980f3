package symspell

import (
	"sort"

	"github.com/cfdb/internal/schema"
)

// BuildFromEntries builds an index from a term list.
func BuildFromEntries(entries []DictionaryEntry, config *Config) *SymSpell {
	s := New(config)
	s.AddTerms(entries)
	return s
}

// StateEntries returns the full US state names. Codes are excluded: two-letter
// strings are matched exactly, never corrected.
func StateEntries() []DictionaryEntry {
	out := make([]DictionaryEntry, 0, len(schema.StateNames))
	for _, name := range schema.StateNames {
		out = append(out, DictionaryEntry{Term: name, Frequency: 1})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Term < out[j].Term })
	return out
}

// PartyEntries returns every canonical party name and alias. Canonical names
// weigh more so an ambiguous typo prefers them.
func PartyEntries() []DictionaryEntry {
	var out []DictionaryEntry
	for canon, aliases := range schema.Parties {
		out = append(out, DictionaryEntry{Term: canon, Frequency: 10})
		for _, a := range aliases {
			if a != canon {
				out = append(out, DictionaryEntry{Term: a, Frequency: 1})
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Term < out[j].Term })
	return out
}
