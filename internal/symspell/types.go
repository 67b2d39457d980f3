// Package symspell implements symmetric-delete spelling correction against a
// closed vocabulary. It is used to repair misspelled state names and party
// labels in raw filings.
//
// Every dictionary term is indexed by all of its deletions up to the maximum
// edit distance, so a lookup only has to generate the deletions of the input.
package symspell

import (
	"github.com/cfdb/internal/config"
)

// Config holds the correction parameters.
type Config struct {
	// MaxEditDistance is the maximum Damerau-Levenshtein distance for a
	// correction.
	MaxEditDistance int

	// MinTermLength is the minimum input length to attempt correction.
	// Two-letter codes are never corrected.
	MinTermLength int

	// Enabled controls whether the corrector rewrites anything at all.
	Enabled bool
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		MaxEditDistance: 2,
		MinTermLength:   4,
		Enabled:         true,
	}
}

// LoadConfigFromEnv reads CFDB_SYMSPELL_* overrides.
func LoadConfigFromEnv() *Config {
	cfg := DefaultConfig()
	cfg.Enabled = config.GetEnvBool("CFDB_SYMSPELL_ENABLED", cfg.Enabled)
	if n := config.GetEnvInt("CFDB_SYMSPELL_MAX_EDIT_DISTANCE", cfg.MaxEditDistance); n > 0 && n <= 3 {
		cfg.MaxEditDistance = n
	}
	if n := config.GetEnvInt("CFDB_SYMSPELL_MIN_TERM_LENGTH", cfg.MinTermLength); n > 0 {
		cfg.MinTermLength = n
	}
	return cfg
}

// Suggestion is one candidate correction.
type Suggestion struct {
	Term      string
	Distance  int
	Frequency int64
}

// CorrectionResult records what was corrected.
type CorrectionResult struct {
	Original     string
	Corrected    string
	Distance     int
	WasCorrected bool

	// Confidence is 1 - distance/MaxEditDistance.
	Confidence float64
}

// DictionaryEntry is a vocabulary term with its weight.
type DictionaryEntry struct {
	Term      string
	Frequency int64
}

// DictionaryStats describes a built dictionary.
type DictionaryStats struct {
	TermCount      int
	DeleteCount    int
	TotalFrequency int64
	MaxFrequency   int64
}
