package sources

import (
	"regexp"
	"strings"

	"github.com/cfdb/internal/rawio"
	"github.com/cfdb/internal/schema"
	"github.com/cfdb/internal/table"
)

var arizonaColumns = []string{
	"Committee ID", "Committee Name", "Office", "Party", "Transaction Date", "Amount",
	"Transaction Type", "Contributor First Name", "Contributor Last Name",
	"Contributor Entity Type", "Contributor Employer", "Contributor Occupation",
	"Contributor Address", "Contributor City", "Contributor State", "Contributor Zip",
}

// staging column -> Arizona column
var arizonaMapping = map[string]string{
	"recipient_key":    "Committee ID",
	"recipient_name":   "Committee Name",
	"office":           "Office",
	"party":            "Party",
	"date":             "Transaction Date",
	"amount":           "Amount",
	"type":             "Transaction Type",
	"donor_first":      "Contributor First Name",
	"donor_last":       "Contributor Last Name",
	"donor_type":       "Contributor Entity Type",
	"donor_employer":   "Contributor Employer",
	"donor_occupation": "Contributor Occupation",
	"donor_address":    "Contributor Address",
	"donor_city":       "Contributor City",
	"donor_state":      "Contributor State",
	"donor_zip":        "Contributor Zip",
}

var reArizonaDistrict = regexp.MustCompile(`^(.*?) - District(?: No\.?)?\s*(\d+)\s*$`)

// SplitArizonaOffice splits "Office - District No. N" into office and
// district. Without " - District" the whole value is the office.
func SplitArizonaOffice(s string) (office, district string) {
	s = strings.TrimSpace(s)
	if !strings.Contains(s, " - District") {
		return s, ""
	}
	m := reArizonaDistrict.FindStringSubmatch(s)
	if m == nil {
		return s, ""
	}
	return strings.TrimSpace(m[1]), m[2]
}

func registerArizona(r *Registry) {
	r.Register("AZ", &Pipeline{
		State:      "AZ",
		Name:       "arizona",
		TableTypes: []schema.TableType{schema.Individuals, schema.Organizations, schema.Transactions},
		Files: []FileSpec{{
			Role:     "contributions",
			Patterns: []string{"*.csv", "*.xlsx"},
			CSV:      rawio.CSVOptions{Encoding: rawio.UTF16LE, Expected: arizonaColumns},
			Expected: arizonaColumns,
		}},
		Clean:       cleanArizona,
		Standardize: standardizeArizona,
	})
}

func cleanArizona(raw Raw, drop Dropper) Raw {
	t := raw["contributions"]
	raw["contributions"] = keepViable("contributions", t, drop, func(i int) string {
		return transactionReason(t, i,
			[]string{"Amount"},
			[]string{"Contributor First Name", "Contributor Last Name"},
			[]string{"Committee Name"})
	})
	return raw
}

func standardizeArizona(raw Raw, env *Env) (schema.TableSet, error) {
	t := stage(raw["contributions"], arizonaMapping)
	b := newBuilder(env)
	for i := range t.Rows {
		office, district := SplitArizonaOffice(cell(t, i, "office"))

		recipient := entity{
			Key:     "committee:" + cell(t, i, "recipient_key"),
			OrgName: cell(t, i, "recipient_name"),
			Subtype: schema.SubtypeCommittee,
			Party:   cell(t, i, "party"),
		}
		if cell(t, i, "recipient_key") == "" {
			recipient.Key = ""
		}

		donor := arizonaDonor(t, i)
		b.link(b.add(donor), b.add(recipient), transaction{
			Amount:   amountOf(cell(t, i, "amount")),
			Date:     parseDate(cell(t, i, "date")),
			Type:     cell(t, i, "type"),
			Office:   office,
			District: district,
		})
	}
	return b.tables, nil
}

func arizonaDonor(t *table.Table, i int) entity {
	first, last := cell(t, i, "donor_first"), cell(t, i, "donor_last")
	kind := strings.ToUpper(cell(t, i, "donor_type"))

	var e entity
	switch {
	case strings.Contains(kind, "INDIVIDUAL"), kind == "" && first != "":
		e = entity{Individual: true, Subtype: schema.SubtypeDonor}
		e.Name = parseFirstLast(first, last)
	default:
		// organizations carry their name in the last-name column
		e = entity{OrgName: joinFields(first, last), Subtype: organizationSubtype(kind)}
	}
	return withDonorContact(e, t, i)
}

// organizationSubtype maps a source entity-type label onto a subtype.
func organizationSubtype(kind string) string {
	kind = strings.ToUpper(kind)
	switch {
	case strings.Contains(kind, "PAC"), strings.Contains(kind, "POLITICAL ACTION"):
		return schema.SubtypePAC
	case strings.Contains(kind, "PARTY"):
		return schema.SubtypeParty
	case strings.Contains(kind, "COMMITTEE"), strings.Contains(kind, "CANDIDATE"):
		return schema.SubtypeCommittee
	case strings.Contains(kind, "BUSINESS"), strings.Contains(kind, "CORP"), strings.Contains(kind, "COMPANY"):
		return schema.SubtypeCorporation
	case strings.Contains(kind, "VENDOR"):
		return schema.SubtypeVendor
	case strings.Contains(kind, "LOBBY"):
		return schema.SubtypeLobbyist
	}
	return schema.SubtypeOther
}
