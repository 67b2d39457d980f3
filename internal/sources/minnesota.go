package sources

import (
	"regexp"
	"sort"
	"strings"

	"github.com/cfdb/internal/normalize"
	"github.com/cfdb/internal/rawio"
	"github.com/cfdb/internal/schema"
	"github.com/cfdb/internal/table"
)

var minnesotaColumns = []string{
	"Recipient reg num", "Recipient", "Recipient type", "Recipient subtype", "Amount",
	"Receipt date", "Year", "Contributor", "Contrib Reg Num", "Contrib type",
	"Receipt type", "Contrib zip", "Contrib Employer name",
}

var minnesotaMapping = map[string]string{
	"recipient_key":     "Recipient reg num",
	"recipient_name":    "Recipient",
	"recipient_type":    "Recipient type",
	"recipient_subtype": "Recipient subtype",
	"amount":            "Amount",
	"date":              "Receipt date",
	"year":              "Year",
	"donor_name":        "Contributor",
	"donor_key":         "Contrib Reg Num",
	"donor_type":        "Contrib type",
	"type":              "Receipt type",
	"donor_zip":         "Contrib zip",
	"donor_employer":    "Contrib Employer name",
}

// CommitteeName is a Minnesota candidate committee name split into parts.
type CommitteeName struct {
	Last         string
	First        string
	Preferred    string
	Middle       string
	Suffix       string
	OfficeSought string
	Committee    string
}

var reMinnesotaCommittee = compileMinnesotaCommittee()

func compileMinnesotaCommittee() *regexp.Regexp {
	offices := append([]string(nil), schema.MinnesotaOffices...)
	// longest first so "Lt Gov" wins over "Gov"
	sort.SliceStable(offices, func(i, j int) bool { return len(offices[i]) > len(offices[j]) })
	for i, o := range offices {
		offices[i] = regexp.QuoteMeta(o)
	}
	return regexp.MustCompile(`^(?P<last>[^,]+),\s*(?P<first>[^(]+?)` +
		`(?:\s*\((?P<preferred>[^)]*)\))?` +
		`(?:\s+(?P<middle>[A-Z])\.?)?` +
		`(?:\s+(?P<suffix>Jr|Sr|II|III|IV))?\.?` +
		`\s+(?P<office>` + strings.Join(offices, "|") + `)` +
		`(?:\s+(?P<committee>.*))?$`)
}

// ParseCommitteeName splits "Last, First (Nickname) MI Suffix Office Token".
// The office must be one of the known Minnesota offices; ok is false when
// the name does not have this shape.
func ParseCommitteeName(s string) (CommitteeName, bool) {
	m := reMinnesotaCommittee.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return CommitteeName{}, false
	}
	get := func(name string) string {
		return strings.TrimSpace(m[reMinnesotaCommittee.SubexpIndex(name)])
	}
	return CommitteeName{
		Last:         get("last"),
		First:        get("first"),
		Preferred:    get("preferred"),
		Middle:       get("middle"),
		Suffix:       get("suffix"),
		OfficeSought: get("office"),
		Committee:    get("committee"),
	}, true
}

func registerMinnesota(r *Registry) {
	r.Register("MN", &Pipeline{
		State:      "MN",
		Name:       "minnesota",
		TableTypes: []schema.TableType{schema.Individuals, schema.Organizations, schema.Transactions},
		Files: []FileSpec{{
			Role:     "contributions",
			Patterns: []string{"*.csv"},
			CSV:      rawio.CSVOptions{Encoding: rawio.UTF8, Expected: minnesotaColumns},
		}},
		Clean:       cleanMinnesota,
		Standardize: standardizeMinnesota,
	})
}

func cleanMinnesota(raw Raw, drop Dropper) Raw {
	t := raw["contributions"]
	raw["contributions"] = keepViable("contributions", t, drop, func(i int) string {
		return transactionReason(t, i, []string{"Amount"}, []string{"Contributor"}, []string{"Recipient"})
	})
	return raw
}

func standardizeMinnesota(raw Raw, env *Env) (schema.TableSet, error) {
	t := stage(raw["contributions"], minnesotaMapping)
	b := newBuilder(env)
	for i := range t.Rows {
		recipient, office := minnesotaRecipient(t, i)
		donor := minnesotaDonor(t, i)
		b.link(b.add(donor), b.add(recipient), transaction{
			Amount: amountOf(cell(t, i, "amount")),
			Date:   parseDate(cell(t, i, "date")),
			Year:   parseYear(cell(t, i, "year")),
			Type:   cell(t, i, "type"),
			Office: office,
		})
	}
	return b.tables, nil
}

// minnesotaRecipient returns the recipient and the office sought. Principal
// campaign committees are recorded as their candidate.
func minnesotaRecipient(t *table.Table, i int) (entity, string) {
	name := cell(t, i, "recipient_name")
	kind := strings.ToUpper(cell(t, i, "recipient_type"))
	var key string
	if k := cell(t, i, "recipient_key"); k != "" {
		key = "recipient:" + k
	}

	if kind == "PCC" {
		e := entity{Key: key, Individual: true, Subtype: schema.SubtypeCandidate}
		c, ok := ParseCommitteeName(name)
		if !ok {
			// derived fields stay null
			e.Name = normalize.Name{Full: normalize.Fold(name)}
			return e, ""
		}
		e.Name = normalize.Name{
			First:     normalize.NormalizeName(c.First),
			Middle:    normalize.NormalizeName(c.Middle),
			Last:      normalize.NormalizeName(c.Last),
			Suffix:    normalize.NormalizeName(c.Suffix),
			Preferred: normalize.NormalizeName(c.Preferred),
		}
		e.Name.Full = joinFields(e.Name.First, e.Name.Middle, e.Name.Last, e.Name.Suffix)
		return e, c.OfficeSought
	}

	subtype := schema.SubtypeCommittee
	switch kind {
	case "PTU":
		subtype = schema.SubtypeParty
	case "PCF":
		subtype = schema.SubtypePAC
	}
	return entity{Key: key, OrgName: name, Subtype: subtype}, ""
}

func minnesotaDonor(t *table.Table, i int) entity {
	name := cell(t, i, "donor_name")
	kind := strings.ToUpper(cell(t, i, "donor_type"))

	var e entity
	switch {
	case kind == "INDIVIDUAL", kind == "SELF", kind == "LOBBYIST":
		e = entity{Individual: true, Subtype: schema.SubtypeDonor, Name: normalize.ParseName(name)}
		if kind == "LOBBYIST" {
			e.Subtype = schema.SubtypeLobbyist
		}
	case kind == "":
		e = person(name)
		e.Subtype = schema.SubtypeDonor
		if !e.Individual {
			e.Subtype = schema.SubtypeOther
		}
	default:
		e = entity{OrgName: name, Subtype: organizationSubtype(kind)}
	}
	if k := cell(t, i, "donor_key"); k != "" {
		e.Key = "donor:" + k
	}
	e.Company = cell(t, i, "donor_employer")
	e.Zip = cell(t, i, "donor_zip")
	return e
}
