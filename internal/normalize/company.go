package normalize

import (
	"strings"

	"github.com/cfdb/internal/schema"
)

// organization markers beyond the company-type abbreviations
var orgWords = map[string]bool{
	"COMMITTEE": true, "PAC": true, "FUND": true, "PARTY": true, "ASSOCIATION": true,
	"UNION": true, "LOCAL": true, "COUNCIL": true, "FOUNDATION": true, "CAUCUS": true,
	"CORPORATION": true, "COMPANY": true, "INCORPORATED": true, "GROUP": true,
	"LLC": true, "INC": true, "CORP": true, "CO": true, "LLP": true, "LTD": true,
	"FRIENDS": true, "CITIZENS": true, "PEOPLE": true, "BANK": true, "TRUST": true,
	"SERVICES": true, "PARTNERS": true, "FEDERATION": true, "DEMOCRATIC": true,
	"REPUBLICAN": true, "CLUB": true, "SOCIETY": true, "INSTITUTE": true,
	"UNIVERSITY": true, "HOSPITAL": true, "CAMPAIGN": true, "ELECT": true,
	"HOLDINGS": true, "ENTERPRISES": true, "INDUSTRIES": true, "BROTHERHOOD": true,
}

// NormalizeCompany cleans a company or committee name and expands company-type
// abbreviations: "Acme Corp." becomes "ACME CORPORATION" and "Smith L.L.C."
// becomes "SMITH LIMITED LIABILITY COMPANY".
func NormalizeCompany(s string) string {
	s = strings.ReplaceAll(s, "&", " AND ")
	toks := nameTokens(s)
	toks = joinInitialisms(toks)
	for i, t := range toks {
		if full, ok := schema.CompanyTypes[t]; ok {
			toks[i] = full
		}
	}
	if len(toks) > 0 && toks[0] == "THE" && len(toks) > 1 {
		toks = toks[1:]
	}
	return strings.Join(toks, " ")
}

// joinInitialisms merges runs of single letters that spell a company type,
// so "L L C" reads as "LLC".
func joinInitialisms(toks []string) []string {
	var out []string
	for i := 0; i < len(toks); {
		j := i
		for j < len(toks) && len(toks[j]) == 1 {
			j++
		}
		if j-i > 1 {
			joined := strings.Join(toks[i:j], "")
			if _, ok := schema.CompanyTypes[joined]; ok {
				out = append(out, joined)
				i = j
				continue
			}
		}
		out = append(out, toks[i])
		i++
	}
	return out
}

// IsOrganization guesses whether a raw contributor name denotes an
// organization rather than a person.
func IsOrganization(s string) bool {
	for _, t := range nameTokens(s) {
		if orgWords[t] {
			return true
		}
		if _, ok := schema.CompanyTypes[t]; ok && len(t) > 2 {
			return true
		}
	}
	return false
}
