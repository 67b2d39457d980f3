package normalize

import (
	"sync"

	"github.com/cfdb/internal/schema"
	"github.com/cfdb/internal/symspell"
)

var (
	correctorsOnce sync.Once
	stateCorrector *symspell.Corrector
	partyCorrector *symspell.Corrector
	stateCodes     map[string]string
	partyAliases   map[string]string
)

func loadCorrectors() {
	correctorsOnce.Do(func() {
		cfg := symspell.LoadConfigFromEnv()
		stateCorrector = symspell.NewCorrector(symspell.StateEntries(), cfg)
		partyCorrector = symspell.NewCorrector(symspell.PartyEntries(), cfg)

		stateCodes = make(map[string]string, len(schema.StateNames))
		for code, name := range schema.StateNames {
			stateCodes[name] = code
		}
		partyAliases = make(map[string]string)
		for canon, aliases := range schema.Parties {
			partyAliases[canon] = canon
			for _, a := range aliases {
				partyAliases[a] = canon
			}
		}
	})
}

// NormalizeState returns the USPS code for a state code or name, correcting
// misspelled names. Unrecognized values return "".
func NormalizeState(s string) string {
	loadCorrectors()
	v := Clean(s)
	if v == "" {
		return ""
	}
	if len(v) == 2 {
		if _, ok := schema.StateNames[v]; ok {
			return v
		}
		return ""
	}
	if code, ok := stateCodes[v]; ok {
		return code
	}
	if res := stateCorrector.Correct(v); res.WasCorrected {
		return stateCodes[res.Corrected]
	}
	return ""
}

// NormalizeParty maps a party label onto its canonical name ("DFL" and "Dem"
// become "DEMOCRATIC"). Misspelled labels are corrected; unknown parties are
// returned cleaned.
func NormalizeParty(s string) string {
	loadCorrectors()
	v := Clean(s)
	if v == "" {
		return ""
	}
	if canon, ok := partyAliases[v]; ok {
		return canon
	}
	if res := partyCorrector.Correct(v); res.WasCorrected {
		return partyAliases[res.Corrected]
	}
	return v
}
