package sources

import (
	"strings"

	"github.com/cfdb/internal/normalize"
	"github.com/cfdb/internal/schema"
	"github.com/cfdb/internal/table"
)

// Harvard state-legislative election returns (Klarner), one row per
// candidate per election.
var harvardColumns = []string{
	"year", "sab", "etype", "dname", "dno", "sen", "cand", "last", "first", "vote",
	"partyt", "outcome",
}

var electionTypes = map[string]string{
	"g":  "GENERAL",
	"p":  "PRIMARY",
	"s":  "SPECIAL",
	"sg": "SPECIAL GENERAL",
	"sp": "SPECIAL PRIMARY",
	"r":  "RUNOFF",
}

var outcomes = map[string]string{
	"w": "WON",
	"l": "LOST",
	"1": "WON",
	"0": "LOST",
}

func registerHarvard(r *Registry) {
	r.Register("US", &Pipeline{
		State:      "US",
		Name:       "harvard",
		TableTypes: []schema.TableType{schema.ElectionResults},
		Files: []FileSpec{{
			Role:     "results",
			Patterns: []string{"*.dta"},
			Expected: harvardColumns,
		}},
		Clean:       cleanHarvard,
		Standardize: standardizeHarvard,
	})
}

func cleanHarvard(raw Raw, drop Dropper) Raw {
	t := raw["results"]
	raw["results"] = keepViable("results", t, drop, func(i int) string {
		if !anyCell(t, i, []string{"cand", "last"}) {
			return ReasonMissingCandidate
		}
		return ""
	})
	return raw
}

func standardizeHarvard(raw Raw, env *Env) (schema.TableSet, error) {
	src := raw["results"]
	mapping := make(map[string]string, len(harvardColumns))
	for _, c := range harvardColumns {
		mapping[c] = c
	}
	t := stage(src, mapping)

	out := schema.NewTable(schema.ElectionResults)
	for i := range t.Rows {
		name := normalize.ParseName(cell(t, i, "cand"))
		first := normalize.NormalizeName(cell(t, i, "first"))
		last := normalize.NormalizeName(cell(t, i, "last"))
		if first == "" {
			first = name.First
		}
		if last == "" {
			last = name.Last
		}
		full := name.Full
		if full == "" {
			full = joinFields(first, last)
		}

		district := cell(t, i, "dname")
		if district == "" {
			district = cell(t, i, "dno")
		}

		r := out.NewRow()
		set(out, r, map[string]string{
			schema.ColCandidateName: full,
			schema.ColFirstName:     first,
			schema.ColLastName:      last,
			schema.ColParty:         normalize.NormalizeParty(cell(t, i, "partyt")),
			schema.ColOffice:        harvardChamber(cell(t, i, "sen")),
			schema.ColDistrict:      strings.TrimSpace(district),
			schema.ColState:         normalize.NormalizeState(cell(t, i, "sab")),
			schema.ColElectionType:  lookupCode(electionTypes, cell(t, i, "etype")),
			schema.ColOutcome:       lookupCode(outcomes, cell(t, i, "outcome")),
		})
		r[out.Schema.Index(schema.ColYear)] = table.Coerce(table.Float, cell(t, i, "year"))
		r[out.Schema.Index(schema.ColVotes)] = table.Coerce(table.Float, cell(t, i, "vote"))
		out.Rows = append(out.Rows, r)
	}
	return schema.TableSet{schema.ElectionResults: out}, nil
}

func harvardChamber(sen string) string {
	switch strings.TrimSpace(sen) {
	case "1":
		return "STATE SENATE"
	case "0":
		return "STATE HOUSE"
	}
	return ""
}

// lookupCode maps a short code, passing unknown codes through upper-cased.
func lookupCode(codes map[string]string, v string) string {
	v = strings.TrimSpace(v)
	if full, ok := codes[strings.ToLower(v)]; ok {
		return full
	}
	return strings.ToUpper(v)
}
