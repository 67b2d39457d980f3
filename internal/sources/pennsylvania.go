package sources

import (
	"fmt"

	"github.com/cfdb/internal/normalize"
	"github.com/cfdb/internal/rawio"
	"github.com/cfdb/internal/schema"
	"github.com/cfdb/internal/table"
)

// Pennsylvania exports carry no header row.
var (
	pennsylvaniaContribColumns = []string{
		"FILERID", "EYEAR", "CYCLE", "SECTION", "CONTRIBUTOR", "ADDRESS1", "ADDRESS2",
		"CITY", "STATE", "ZIPCODE", "OCCUPATION", "ENAME", "EADDRESS1", "EADDRESS2",
		"ECITY", "ESTATE", "EZIPCODE", "CONTDATE1", "CONTAMT1", "CONTDATE2", "CONTAMT2",
		"CONTDATE3", "CONTAMT3", "CONTDESC",
	}
	pennsylvaniaFilerColumns = []string{
		"FILERID", "EYEAR", "CYCLE", "AMMEND", "TERMINATE", "FILERTYPE", "FILERNAME",
		"OFFICE", "DISTRICT", "PARTY", "ADDRESS1", "ADDRESS2", "CITY", "STATE", "ZIPCODE",
		"COUNTY", "PHONE", "BEGINNING", "MONETARY", "INKIND",
	}
)

// pennsylvaniaCandidate is the FILERTYPE of candidate filers.
const pennsylvaniaCandidate = "1"

func registerPennsylvania(r *Registry) {
	r.Register("PA", &Pipeline{
		State:      "PA",
		Name:       "pennsylvania",
		TableTypes: []schema.TableType{schema.Individuals, schema.Organizations, schema.Transactions},
		Files: []FileSpec{
			{
				Role:     "contrib",
				Patterns: []string{"contrib*.txt"},
				CSV:      rawio.CSVOptions{Encoding: rawio.Windows1252, Columns: pennsylvaniaContribColumns},
			},
			{
				Role:     "filer",
				Patterns: []string{"filer*.txt"},
				CSV:      rawio.CSVOptions{Encoding: rawio.Windows1252, Columns: pennsylvaniaFilerColumns},
			},
		},
		Clean:       cleanPennsylvania,
		Standardize: standardizePennsylvania,
	})
}

func cleanPennsylvania(raw Raw, drop Dropper) Raw {
	t := raw["contrib"]
	raw["contrib"] = keepViable("contrib", t, drop, func(i int) string {
		return transactionReason(t, i,
			[]string{"CONTAMT1", "CONTAMT2", "CONTAMT3"},
			[]string{"CONTRIBUTOR"},
			[]string{"FILERID"})
	})
	return raw
}

func standardizePennsylvania(raw Raw, env *Env) (schema.TableSet, error) {
	contrib, filers := raw["contrib"], raw["filer"]

	// first filing per filer id wins
	filerRow := make(map[string]int, filers.Len())
	for i := range filers.Rows {
		id := cell(filers, i, "FILERID")
		if _, seen := filerRow[id]; id != "" && !seen {
			filerRow[id] = i
		}
	}

	b := newBuilder(env)
	for i := range contrib.Rows {
		filerID := cell(contrib, i, "FILERID")
		var recipientID, office, district string
		if j, ok := filerRow[filerID]; ok {
			recipientID = b.add(pennsylvaniaFiler(filers, j))
			office = cell(filers, j, "OFFICE")
			district = cell(filers, j, "DISTRICT")
		}

		donor := person(cell(contrib, i, "CONTRIBUTOR"))
		donor.Subtype = schema.SubtypeDonor
		if !donor.Individual {
			donor.Subtype = organizationSubtype(donor.OrgName)
		}
		donor.Street = joinFields(cell(contrib, i, "ADDRESS1"), cell(contrib, i, "ADDRESS2"))
		donor.City = cell(contrib, i, "CITY")
		donor.State = cell(contrib, i, "STATE")
		donor.Zip = cell(contrib, i, "ZIPCODE")
		donor.Occupation = cell(contrib, i, "OCCUPATION")
		donor.Company = cell(contrib, i, "ENAME")
		donorID := b.add(donor)

		tx := transaction{
			Year:     parseYear(cell(contrib, i, "EYEAR")),
			Type:     cell(contrib, i, "SECTION"),
			Purpose:  cell(contrib, i, "CONTDESC"),
			Office:   office,
			District: district,
		}
		// up to three dated amounts per line; a line with none still
		// records one transaction with a null amount
		linked := false
		for k := 1; k <= 3; k++ {
			amount := amountOf(cell(contrib, i, fmt.Sprintf("CONTAMT%d", k)))
			if amount == nil {
				continue
			}
			dated := tx
			dated.Amount = amount
			dated.Date = parseDate(cell(contrib, i, fmt.Sprintf("CONTDATE%d", k)))
			b.link(donorID, recipientID, dated)
			linked = true
		}
		if !linked {
			tx.Date = parseDate(cell(contrib, i, "CONTDATE1"))
			b.link(donorID, recipientID, tx)
		}
	}
	return b.tables, nil
}

func pennsylvaniaFiler(t *table.Table, i int) entity {
	name := cell(t, i, "FILERNAME")
	var e entity
	if cell(t, i, "FILERTYPE") == pennsylvaniaCandidate {
		e = entity{Individual: true, Subtype: schema.SubtypeCandidate, Name: normalize.ParseName(name)}
	} else {
		e = entity{OrgName: name, Subtype: organizationSubtype(name)}
		if e.Subtype == schema.SubtypeOther {
			e.Subtype = schema.SubtypeCommittee
		}
	}
	e.Key = "filer:" + cell(t, i, "FILERID")
	e.Party = cell(t, i, "PARTY")
	e.Street = joinFields(cell(t, i, "ADDRESS1"), cell(t, i, "ADDRESS2"))
	e.City = cell(t, i, "CITY")
	e.State = cell(t, i, "STATE")
	e.Zip = cell(t, i, "ZIPCODE")
	return e
}
