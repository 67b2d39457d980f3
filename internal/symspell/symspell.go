package symspell

import (
	"sort"
	"strings"
)

// SymSpell is a symmetric-delete index over a vocabulary.
type SymSpell struct {
	dictionary map[string]int64
	deletes    map[string][]string
	config     *Config
}

// New creates an empty index.
func New(config *Config) *SymSpell {
	if config == nil {
		config = DefaultConfig()
	}
	return &SymSpell{
		dictionary: make(map[string]int64),
		deletes:    make(map[string][]string),
		config:     config,
	}
}

// AddTerm indexes term. Re-adding a term keeps the larger frequency.
func (s *SymSpell) AddTerm(term string, frequency int64) {
	term = strings.ToUpper(strings.TrimSpace(term))
	if term == "" {
		return
	}
	if old, ok := s.dictionary[term]; ok {
		if frequency > old {
			s.dictionary[term] = frequency
		}
		return
	}
	s.dictionary[term] = frequency
	for _, del := range deletions(term, s.config.MaxEditDistance) {
		s.deletes[del] = append(s.deletes[del], term)
	}
}

// AddTerms indexes every entry.
func (s *SymSpell) AddTerms(entries []DictionaryEntry) {
	for _, e := range entries {
		s.AddTerm(e.Term, e.Frequency)
	}
}

// Contains reports an exact dictionary hit.
func (s *SymSpell) Contains(term string) bool {
	_, ok := s.dictionary[strings.ToUpper(strings.TrimSpace(term))]
	return ok
}

// Lookup returns all terms within maxDistance of input, ordered by distance,
// then frequency (descending), then term.
func (s *SymSpell) Lookup(input string, maxDistance int) []Suggestion {
	input = strings.ToUpper(strings.TrimSpace(input))
	if input == "" {
		return nil
	}
	if maxDistance > s.config.MaxEditDistance {
		maxDistance = s.config.MaxEditDistance
	}
	if freq, ok := s.dictionary[input]; ok {
		return []Suggestion{{Term: input, Frequency: freq}}
	}

	seen := make(map[string]bool)
	var out []Suggestion
	consider := func(term string) {
		if seen[term] {
			return
		}
		seen[term] = true
		if d := editDistance(input, term, maxDistance); d >= 0 {
			out = append(out, Suggestion{Term: term, Distance: d, Frequency: s.dictionary[term]})
		}
	}

	candidates := append(deletions(input, maxDistance), input)
	for _, del := range candidates {
		for _, term := range s.deletes[del] {
			consider(term)
		}
		if _, ok := s.dictionary[del]; ok {
			consider(del)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Distance != out[j].Distance {
			return out[i].Distance < out[j].Distance
		}
		if out[i].Frequency != out[j].Frequency {
			return out[i].Frequency > out[j].Frequency
		}
		return out[i].Term < out[j].Term
	})
	return out
}

// LookupBest returns the best suggestion, or nil.
func (s *SymSpell) LookupBest(input string, maxDistance int) *Suggestion {
	sugg := s.Lookup(input, maxDistance)
	if len(sugg) == 0 {
		return nil
	}
	return &sugg[0]
}

// Stats summarizes the index.
func (s *SymSpell) Stats() DictionaryStats {
	st := DictionaryStats{TermCount: len(s.dictionary), DeleteCount: len(s.deletes)}
	for _, f := range s.dictionary {
		st.TotalFrequency += f
		if f > st.MaxFrequency {
			st.MaxFrequency = f
		}
	}
	return st
}

// deletions returns every distinct string obtained by removing up to max
// bytes from term, excluding term itself.
func deletions(term string, max int) []string {
	found := make(map[string]bool)
	frontier := []string{term}
	for d := 0; d < max; d++ {
		var next []string
		for _, t := range frontier {
			if len(t) <= 1 {
				continue
			}
			for i := 0; i < len(t); i++ {
				del := t[:i] + t[i+1:]
				if !found[del] {
					found[del] = true
					next = append(next, del)
				}
			}
		}
		frontier = next
	}
	out := make([]string, 0, len(found))
	for del := range found {
		out = append(out, del)
	}
	sort.Strings(out)
	return out
}

// editDistance is the optimal-string-alignment distance between a and b, or
// -1 when it exceeds max.
func editDistance(a, b string, max int) int {
	if diff := len(a) - len(b); diff > max || -diff > max {
		return -1
	}
	if len(a) == 0 || len(b) == 0 {
		return len(a) + len(b)
	}

	rows := [3][]int{make([]int, len(a)+1), make([]int, len(a)+1), make([]int, len(a)+1)}
	for i := range rows[1] {
		rows[1][i] = i
	}
	for j := 1; j <= len(b); j++ {
		pp, prev, cur := rows[0], rows[1], rows[2]
		cur[0] = j
		best := j
		for i := 1; i <= len(a); i++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			cur[i] = min(prev[i]+1, cur[i-1]+1, prev[i-1]+cost)
			if i > 1 && j > 1 && a[i-1] == b[j-2] && a[i-2] == b[j-1] {
				cur[i] = min(cur[i], pp[i-2]+1)
			}
			best = min(best, cur[i])
		}
		if best > max {
			return -1
		}
		rows[0], rows[1], rows[2] = prev, cur, pp
	}
	if d := rows[1][len(a)]; d <= max {
		return d
	}
	return -1
}
