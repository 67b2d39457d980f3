package sources

import (
	"strings"

	"github.com/cfdb/internal/normalize"
	"github.com/cfdb/internal/rawio"
	"github.com/cfdb/internal/schema"
	"github.com/cfdb/internal/table"
)

var texasColumns = []string{
	"filerIdent", "filerTypeCd", "filerName", "contributionInfoId", "contributionDt",
	"contributionAmount", "contributionDescr", "contributorPersentTypeCd",
	"contributorNameOrganization", "contributorNameLast", "contributorNameSuffixCd",
	"contributorNameFirst", "contributorNamePrefixCd", "contributorStreetCity",
	"contributorStreetStateCd", "contributorStreetPostalCode", "contributorEmployer",
	"contributorOccupation",
}

var texasMapping = map[string]string{
	"recipient_key":    "filerIdent",
	"recipient_type":   "filerTypeCd",
	"recipient_name":   "filerName",
	"date":             "contributionDt",
	"amount":           "contributionAmount",
	"purpose":          "contributionDescr",
	"donor_type":       "contributorPersentTypeCd",
	"donor_org":        "contributorNameOrganization",
	"donor_last":       "contributorNameLast",
	"donor_suffix":     "contributorNameSuffixCd",
	"donor_first":      "contributorNameFirst",
	"donor_prefix":     "contributorNamePrefixCd",
	"donor_city":       "contributorStreetCity",
	"donor_state":      "contributorStreetStateCd",
	"donor_zip":        "contributorStreetPostalCode",
	"donor_employer":   "contributorEmployer",
	"donor_occupation": "contributorOccupation",
}

func registerTexas(r *Registry) {
	r.Register("TX", &Pipeline{
		State:      "TX",
		Name:       "texas",
		TableTypes: []schema.TableType{schema.Individuals, schema.Organizations, schema.Transactions},
		Files: []FileSpec{{
			Role:     "contributions",
			Patterns: []string{"contribs*.csv"},
			CSV:      rawio.CSVOptions{Encoding: rawio.UTF8, Expected: texasColumns},
		}},
		Clean:       cleanTexas,
		Standardize: standardizeTexas,
	})
}

func cleanTexas(raw Raw, drop Dropper) Raw {
	t := raw["contributions"]
	raw["contributions"] = keepViable("contributions", t, drop, func(i int) string {
		return transactionReason(t, i,
			[]string{"contributionAmount"},
			[]string{"contributorNameOrganization", "contributorNameLast"},
			[]string{"filerName"})
	})
	return raw
}

func standardizeTexas(raw Raw, env *Env) (schema.TableSet, error) {
	t := stage(raw["contributions"], texasMapping)
	b := newBuilder(env)
	for i := range t.Rows {
		recipient := texasFiler(t, i)
		donor := texasContributor(t, i)
		b.link(b.add(donor), b.add(recipient), transaction{
			Amount:  amountOf(cell(t, i, "amount")),
			Date:    parseDate(cell(t, i, "date")),
			Type:    "CONTRIBUTION",
			Purpose: cell(t, i, "purpose"),
		})
	}
	return b.tables, nil
}

// texasFiler maps a TEC filer. Candidate and officeholder filers (COH) are
// people; everything else is a committee.
func texasFiler(t *table.Table, i int) entity {
	name := cell(t, i, "recipient_name")
	code := strings.ToUpper(cell(t, i, "recipient_type"))
	var e entity
	switch code {
	case "COH", "JCOH", "CEC":
		e = entity{Individual: true, Subtype: schema.SubtypeCandidate, Name: normalize.ParseName(name)}
	case "GPAC", "SPAC", "MPAC", "LEG":
		e = entity{OrgName: name, Subtype: schema.SubtypePAC}
	case "PTYCORP", "SCC", "CEC_PARTY":
		e = entity{OrgName: name, Subtype: schema.SubtypeParty}
	default:
		e = entity{OrgName: name, Subtype: schema.SubtypeCommittee}
	}
	if k := cell(t, i, "recipient_key"); k != "" {
		e.Key = "filer:" + k
	}
	return e
}

func texasContributor(t *table.Table, i int) entity {
	var e entity
	if strings.ToUpper(cell(t, i, "donor_type")) == "ENTITY" || cell(t, i, "donor_org") != "" {
		e = entity{OrgName: cell(t, i, "donor_org")}
		if e.OrgName == "" {
			e.OrgName = cell(t, i, "donor_last")
		}
		e.Subtype = organizationSubtype(e.OrgName)
	} else {
		e = entity{Individual: true, Subtype: schema.SubtypeDonor}
		e.Name = normalize.Name{
			Title:  normalize.NormalizeName(cell(t, i, "donor_prefix")),
			Last:   normalize.NormalizeName(cell(t, i, "donor_last")),
			Suffix: normalize.NormalizeName(cell(t, i, "donor_suffix")),
		}
		// the first-name field may carry a middle name
		if given := normalize.Tokens(cell(t, i, "donor_first")); len(given) > 0 {
			e.Name.First = normalize.NormalizeName(given[0])
			e.Name.Middle = normalize.NormalizeName(strings.Join(given[1:], " "))
		}
		e.Name.Full = joinFields(e.Name.First, e.Name.Middle, e.Name.Last, e.Name.Suffix)
	}
	return withDonorContact(e, t, i)
}
