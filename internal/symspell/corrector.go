package symspell

import (
	"strings"
	"sync"
)

// Corrector snaps free-text values onto a closed vocabulary.
type Corrector struct {
	symspell *SymSpell
	config   *Config
	mu       sync.RWMutex
}

// NewCorrector builds a corrector over entries.
func NewCorrector(entries []DictionaryEntry, config *Config) *Corrector {
	if config == nil {
		config = DefaultConfig()
	}
	return &Corrector{symspell: BuildFromEntries(entries, config), config: config}
}

// Correct returns the closest vocabulary term for value. Exact hits come back
// unchanged with WasCorrected false; values with no candidate within the edit
// distance come back unchanged as well.
func (c *Corrector) Correct(value string) CorrectionResult {
	value = strings.ToUpper(strings.Join(strings.Fields(value), " "))
	res := CorrectionResult{Original: value, Corrected: value}
	if c == nil || c.symspell == nil || value == "" {
		return res
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.symspell.Contains(value) {
		res.Confidence = 1
		return res
	}
	if !c.config.Enabled || len(value) < c.config.MinTermLength {
		return res
	}
	best := c.symspell.LookupBest(value, c.config.MaxEditDistance)
	if best == nil {
		return res
	}
	// two candidates at the same distance and weight are ambiguous
	if sugg := c.symspell.Lookup(value, best.Distance); len(sugg) > 1 &&
		sugg[1].Distance == best.Distance && sugg[1].Frequency == best.Frequency {
		return res
	}
	res.Corrected = best.Term
	res.Distance = best.Distance
	res.WasCorrected = true
	res.Confidence = 1 - float64(best.Distance)/float64(c.config.MaxEditDistance+1)
	return res
}

// Known reports whether value is an exact vocabulary term.
func (c *Corrector) Known(value string) bool {
	if c == nil || c.symspell == nil {
		return false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.symspell.Contains(value)
}

// Add extends the vocabulary.
func (c *Corrector) Add(term string, frequency int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.symspell.AddTerm(term, frequency)
}

// Stats returns dictionary statistics.
func (c *Corrector) Stats() DictionaryStats {
	if c == nil || c.symspell == nil {
		return DictionaryStats{}
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.symspell.Stats()
}
