package sources

import (
	"strings"

	"github.com/cfdb/internal/rawio"
	"github.com/cfdb/internal/schema"
	"github.com/cfdb/internal/table"
)

var michiganColumns = []string{
	"doc_seq_no", "com_legal_name", "cfr_com_id", "com_type", "can_first_name",
	"can_last_name", "contribtype", "f_name", "l_name_or_org", "address", "city",
	"state", "zip", "occupation", "employer", "received_date", "amount",
}

var michiganMapping = map[string]string{
	"recipient_key":    "cfr_com_id",
	"recipient_name":   "com_legal_name",
	"recipient_type":   "com_type",
	"candidate_first":  "can_first_name",
	"candidate_last":   "can_last_name",
	"type":             "contribtype",
	"donor_first":      "f_name",
	"donor_last":       "l_name_or_org",
	"donor_address":    "address",
	"donor_city":       "city",
	"donor_state":      "state",
	"donor_zip":        "zip",
	"donor_occupation": "occupation",
	"donor_employer":   "employer",
	"date":             "received_date",
	"amount":           "amount",
}

func registerMichigan(r *Registry) {
	r.Register("MI", &Pipeline{
		State:      "MI",
		Name:       "michigan",
		TableTypes: []schema.TableType{schema.Individuals, schema.Organizations, schema.Transactions},
		Files: []FileSpec{{
			Role:     "contributions",
			Patterns: []string{"*contributions*.txt"},
			CSV: rawio.CSVOptions{
				Encoding: rawio.Windows1252,
				Comma:    '\t',
				Expected: michiganColumns,
			},
		}},
		Clean:       cleanMichigan,
		Standardize: standardizeMichigan,
	})
}

func cleanMichigan(raw Raw, drop Dropper) Raw {
	t := raw["contributions"]
	raw["contributions"] = keepViable("contributions", t, drop, func(i int) string {
		return transactionReason(t, i,
			[]string{"amount"},
			[]string{"f_name", "l_name_or_org"},
			[]string{"com_legal_name", "can_last_name"})
	})
	return raw
}

// michiganCommitteeSubtype maps com_type codes.
func michiganCommitteeSubtype(code string) string {
	switch strings.ToUpper(strings.TrimSpace(code)) {
	case "CAN":
		return schema.SubtypeCommittee
	case "PAC", "IND", "BAL":
		return schema.SubtypePAC
	case "POL", "PTY":
		return schema.SubtypeParty
	}
	return organizationSubtype(code)
}

func standardizeMichigan(raw Raw, env *Env) (schema.TableSet, error) {
	t := stage(raw["contributions"], michiganMapping)
	b := newBuilder(env)
	for i := range t.Rows {
		key := cell(t, i, "recipient_key")
		recipient := entity{OrgName: cell(t, i, "recipient_name"), Subtype: michiganCommitteeSubtype(cell(t, i, "recipient_type"))}
		if key != "" {
			recipient.Key = "committee:" + key
		}
		recipientID := b.add(recipient)

		// candidate committees name their candidate
		if last := cell(t, i, "candidate_last"); last != "" {
			cand := entity{Individual: true, Subtype: schema.SubtypeCandidate, Name: parseFirstLast(cell(t, i, "candidate_first"), last)}
			if key != "" {
				cand.Key = "candidate:" + key
			}
			id := b.add(cand)
			if recipientID == "" {
				recipientID = id
			}
		}

		b.link(b.add(michiganDonor(t, i)), recipientID, transaction{
			Amount: amountOf(cell(t, i, "amount")),
			Date:   parseDate(cell(t, i, "date")),
			Type:   cell(t, i, "type"),
		})
	}
	return b.tables, nil
}

func michiganDonor(t *table.Table, i int) entity {
	first, last := cell(t, i, "donor_first"), cell(t, i, "donor_last")
	var e entity
	if first == "" {
		// l_name_or_org holds the organization name
		e = entity{OrgName: last, Subtype: organizationSubtype(last)}
	} else {
		e = entity{Individual: true, Subtype: schema.SubtypeDonor, Name: parseFirstLast(first, last)}
	}
	return withDonorContact(e, t, i)
}
