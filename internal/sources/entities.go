package sources

import (
	"sort"
	"strings"
	"time"

	"github.com/cfdb/internal/identity"
	"github.com/cfdb/internal/normalize"
	"github.com/cfdb/internal/schema"
	"github.com/cfdb/internal/table"
)

// Reasons recorded for dropped rows.
const (
	ReasonMissingAmountAndParties = "missing amount and parties"
	ReasonMissingCandidate        = "missing candidate"
)

// stage renames a raw table onto staging columns. mapping is keyed by
// staging column and names the raw column; raw columns not referenced are
// dropped.
func stage(raw *table.Table, mapping map[string]string) *table.Table {
	names := make([]string, 0, len(mapping))
	for k := range mapping {
		names = append(names, k)
	}
	sort.Strings(names)
	return table.Project(raw, raw.Name, table.Strings(names...), mapping)
}

// cell returns a cell as trimmed text; placeholders such as "N/A" read as "".
func cell(t *table.Table, i int, col string) string {
	s, _ := t.String(i, col)
	s = strings.TrimSpace(s)
	if normalize.IsBlank(s) {
		return ""
	}
	return s
}

// keepViable filters the role table t, dropping rows for which reason
// returns non-empty. Rows are reported by their index in t.
func keepViable(role string, t *table.Table, drop Dropper, reason func(i int) string) *table.Table {
	if t == nil {
		return nil
	}
	out := table.New(t.Name, t.Schema)
	for i, r := range t.Rows {
		if why := reason(i); why != "" {
			drop(role, i, why)
			continue
		}
		out.Rows = append(out.Rows, r)
	}
	return out
}

// transactionReason applies the transaction viability rule: a row is kept
// when it has a parseable amount or at least one named party. Kept rows
// with an unparseable amount get a null amount.
func transactionReason(t *table.Table, i int, amountCols []string, donorCols, recipientCols []string) string {
	for _, c := range amountCols {
		if _, ok := table.ParseAmount(cell(t, i, c)); ok {
			return ""
		}
	}
	if anyCell(t, i, donorCols) || anyCell(t, i, recipientCols) {
		return ""
	}
	return ReasonMissingAmountAndParties
}

func anyCell(t *table.Table, i int, cols []string) bool {
	for _, c := range cols {
		if cell(t, i, c) != "" {
			return true
		}
	}
	return false
}

// entity is one side of a transaction as read from a raw row.
type entity struct {
	// Key is a source identifier reused across rows; rows sharing a key
	// share one entity.
	Key        string
	Individual bool
	Subtype    string
	Name       normalize.Name
	OrgName    string
	Party      string
	Company    string
	Occupation string
	Street     string
	City       string
	State      string
	Zip        string
}

func (e entity) empty() bool {
	if e.Individual {
		return e.Name.Full == "" && e.Name.Preferred == ""
	}
	return e.OrgName == ""
}

// transaction carries the per-row transaction fields.
type transaction struct {
	// Amount is nil when the raw amount did not parse.
	Amount   *float64
	Date     time.Time
	Year     float64
	Type     string
	Purpose  string
	Office   string
	District string
}

// builder accumulates canonical rows for one source run.
type builder struct {
	parser normalize.Parser
	ids    map[string]string
	tables schema.TableSet
}

func newBuilder(env *Env) *builder {
	return &builder{
		parser: env.Address,
		ids:    make(map[string]string),
		tables: schema.TableSet{
			schema.Individuals:   schema.NewTable(schema.Individuals),
			schema.Organizations: schema.NewTable(schema.Organizations),
			schema.Transactions:  schema.NewTable(schema.Transactions),
		},
	}
}

// person classifies a raw name as an individual or an organization.
func person(raw string) entity {
	if normalize.IsOrganization(raw) {
		return entity{OrgName: raw}
	}
	return entity{Individual: true, Name: normalize.ParseName(raw)}
}

// add appends e and returns its id. Empty entities yield "".
func (b *builder) add(e entity) string {
	if e.empty() {
		return ""
	}
	if e.Key != "" {
		if id, ok := b.ids[e.Key]; ok {
			return id
		}
	}
	id := identity.NewID()
	if e.Key != "" {
		b.ids[e.Key] = id
	}

	line, city, state, zip := normalize.FillAddress(b.parser, e.Street, e.City, e.State, e.Zip)
	state = normalize.NormalizeState(state)
	zip = normalize.NormalizeZip(zip)
	city = normalize.Clean(city)
	subtype := e.Subtype
	if subtype == "" {
		subtype = schema.SubtypeOther
	}

	if e.Individual {
		t := b.tables[schema.Individuals]
		r := t.NewRow()
		set(t, r, map[string]string{
			schema.ColID:            id,
			schema.ColEntityType:    schema.EntityIndividual,
			schema.ColEntitySubtype: subtype,
			schema.ColFullName:      e.Name.Full,
			schema.ColFirstName:     e.Name.First,
			schema.ColMiddleName:    e.Name.Middle,
			schema.ColLastName:      e.Name.Last,
			schema.ColSuffix:        e.Name.Suffix,
			schema.ColPreferredName: e.Name.Preferred,
			schema.ColParty:         normalize.NormalizeParty(e.Party),
			schema.ColCompany:       normalize.NormalizeCompany(e.Company),
			schema.ColOccupation:    normalize.Clean(e.Occupation),
			schema.ColAddressLine1:  line,
			schema.ColCity:          city,
			schema.ColState:         state,
			schema.ColZipCode:       zip,
		})
		t.Rows = append(t.Rows, r)
		return id
	}

	t := b.tables[schema.Organizations]
	r := t.NewRow()
	set(t, r, map[string]string{
		schema.ColID:            id,
		schema.ColEntityType:    schema.EntityOrganization,
		schema.ColEntitySubtype: subtype,
		schema.ColName:          normalize.NormalizeCompany(e.OrgName),
		schema.ColParty:         normalize.NormalizeParty(e.Party),
		schema.ColAddressLine1:  line,
		schema.ColCity:          city,
		schema.ColState:         state,
		schema.ColZipCode:       zip,
	})
	t.Rows = append(t.Rows, r)
	return id
}

// link appends a transaction between donor and recipient ids.
func (b *builder) link(donorID, recipientID string, tx transaction) {
	t := b.tables[schema.Transactions]
	r := t.NewRow()
	set(t, r, map[string]string{
		schema.ColTransactionID:   identity.NewID(),
		schema.ColDonorID:         donorID,
		schema.ColRecipientID:     recipientID,
		schema.ColTransactionType: normalize.Clean(tx.Type),
		schema.ColPurpose:         strings.TrimSpace(tx.Purpose),
		schema.ColOfficeSought:    strings.TrimSpace(tx.Office),
		schema.ColDistrict:        strings.TrimSpace(tx.District),
	})
	if tx.Amount != nil {
		r[t.Schema.Index(schema.ColAmount)] = *tx.Amount
	}
	if !tx.Date.IsZero() {
		r[t.Schema.Index(schema.ColDate)] = tx.Date
		if tx.Year == 0 {
			tx.Year = float64(tx.Date.Year())
		}
	}
	if tx.Year != 0 {
		r[t.Schema.Index(schema.ColYear)] = tx.Year
	}
	t.Rows = append(t.Rows, r)
}

// set writes non-empty text cells by column name.
func set(t *table.Table, r table.Row, vals map[string]string) {
	for col, v := range vals {
		if v == "" {
			continue
		}
		if j := t.Schema.Index(col); j >= 0 {
			r[j] = v
		}
	}
}

func parseDate(s string) time.Time {
	d, _ := table.ParseDate(s)
	return d
}

// amountOf parses a money amount, nil when s does not parse.
func amountOf(s string) *float64 {
	f, ok := table.ParseAmount(s)
	if !ok {
		return nil
	}
	return &f
}

func parseYear(s string) float64 {
	f, ok := table.ParseAmount(s)
	if !ok {
		return 0
	}
	return f
}

func joinFields(parts ...string) string {
	var out []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, " ")
}

// parseFirstLast builds a name from separate first and last fields. The
// first field may carry a middle name or suffix.
func parseFirstLast(first, last string) normalize.Name {
	if strings.TrimSpace(last) == "" {
		return normalize.ParseName(first)
	}
	return normalize.ParseName(last + ", " + first)
}

// withDonorContact fills employer, occupation and address from the donor_*
// staging columns.
func withDonorContact(e entity, t *table.Table, i int) entity {
	e.Company = cell(t, i, "donor_employer")
	e.Occupation = cell(t, i, "donor_occupation")
	e.Street = cell(t, i, "donor_address")
	e.City = cell(t, i, "donor_city")
	e.State = cell(t, i, "donor_state")
	e.Zip = cell(t, i, "donor_zip")
	return e
}
