// Package table holds the in-memory tabular representation shared by the
// standardizers, the linkage engine and the dataset adapters.
//
// A cell is nil (null), a string, a float64 or a time.Time holding a UTC date.
package table

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Kind is the storage type of a column.
type Kind int

const (
	String Kind = iota
	Float
	Date
)

func (k Kind) String() string {
	switch k {
	case Float:
		return "float"
	case Date:
		return "date"
	default:
		return "string"
	}
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "string", "":
		return String, nil
	case "float":
		return Float, nil
	case "date":
		return Date, nil
	}
	return String, fmt.Errorf("unknown column kind %q", s)
}

// DateLayout is the text form of Date cells.
const DateLayout = "2006-01-02"

// Column describes one column of a table.
type Column struct {
	Name string
	Kind Kind
}

// Schema is an ordered column list.
type Schema []Column

// Index returns the position of name, or -1.
func (s Schema) Index(name string) int {
	for i, c := range s {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// Names returns the column names in order.
func (s Schema) Names() []string {
	out := make([]string, len(s))
	for i, c := range s {
		out[i] = c.Name
	}
	return out
}

// Equal reports whether both schemas have the same columns in the same order.
func (s Schema) Equal(o Schema) bool {
	if len(s) != len(o) {
		return false
	}
	for i := range s {
		if s[i] != o[i] {
			return false
		}
	}
	return true
}

// Strings builds a schema of String columns.
func Strings(names ...string) Schema {
	s := make(Schema, len(names))
	for i, n := range names {
		s[i] = Column{Name: n, Kind: String}
	}
	return s
}

// Row is one record; len(Row) == len(Schema).
type Row []any

// Table is a named, typed set of rows.
type Table struct {
	Name   string
	Schema Schema
	Rows   []Row
}

// New returns an empty table.
func New(name string, schema Schema) *Table {
	return &Table{Name: name, Schema: schema}
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Append adds a row, padding or rejecting it against the schema width.
func (t *Table) Append(r Row) error {
	if len(r) != len(t.Schema) {
		return fmt.Errorf("table %s: row has %d cells, schema has %d columns", t.Name, len(r), len(t.Schema))
	}
	t.Rows = append(t.Rows, r)
	return nil
}

// NewRow returns a row of nulls sized to the schema.
func (t *Table) NewRow() Row {
	return make(Row, len(t.Schema))
}

// Get returns the cell at row i, column name. Unknown columns read as null.
func (t *Table) Get(i int, name string) any {
	j := t.Schema.Index(name)
	if j < 0 {
		return nil
	}
	return t.Rows[i][j]
}

// String returns the cell as text and whether it was non-null and non-empty.
func (t *Table) String(i int, name string) (string, bool) {
	s := Format(t.Get(i, name))
	return s, s != ""
}

// Float returns a numeric cell.
func (t *Table) Float(i int, name string) (float64, bool) {
	switch v := t.Get(i, name).(type) {
	case float64:
		return v, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	}
	return 0, false
}

// Set writes a cell; unknown columns are an error.
func (t *Table) Set(i int, name string, v any) error {
	j := t.Schema.Index(name)
	if j < 0 {
		return fmt.Errorf("table %s: no column %q", t.Name, name)
	}
	t.Rows[i][j] = v
	return nil
}

// Column returns all values of one column.
func (t *Table) Column(name string) []any {
	j := t.Schema.Index(name)
	out := make([]any, len(t.Rows))
	if j < 0 {
		return out
	}
	for i, r := range t.Rows {
		out[i] = r[j]
	}
	return out
}

// Clone deep-copies the row slice; cells are immutable values.
func (t *Table) Clone() *Table {
	c := &Table{Name: t.Name, Schema: append(Schema(nil), t.Schema...), Rows: make([]Row, len(t.Rows))}
	for i, r := range t.Rows {
		c.Rows[i] = append(Row(nil), r...)
	}
	return c
}

// Concat appends tables with equal schemas in the given order.
func Concat(name string, tables ...*Table) (*Table, error) {
	var out *Table
	for _, t := range tables {
		if t == nil {
			continue
		}
		if out == nil {
			out = New(name, t.Schema)
		}
		if !out.Schema.Equal(t.Schema) {
			return nil, fmt.Errorf("concat %s: schema of %s does not match", name, t.Name)
		}
		out.Rows = append(out.Rows, t.Rows...)
	}
	if out == nil {
		return nil, fmt.Errorf("concat %s: no tables", name)
	}
	return out, nil
}

// Project builds a table with the target schema. mapping maps target column
// names to source column names; target columns absent from mapping stay null,
// and source columns not referenced are dropped. Cells are coerced to the
// target kind; values that do not coerce become null.
func Project(src *Table, name string, target Schema, mapping map[string]string) *Table {
	out := New(name, target)
	idx := make([]int, len(target))
	for j, c := range target {
		idx[j] = -1
		if from, ok := mapping[c.Name]; ok {
			idx[j] = src.Schema.Index(from)
		}
	}
	for _, r := range src.Rows {
		row := out.NewRow()
		for j, c := range target {
			if idx[j] < 0 {
				continue
			}
			row[j] = CoerceValue(c.Kind, r[idx[j]])
		}
		out.Rows = append(out.Rows, row)
	}
	return out
}

// CoerceValue converts v to kind, returning nil when it cannot.
func CoerceValue(kind Kind, v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case string:
		return Coerce(kind, x)
	case float64:
		switch kind {
		case Float:
			return x
		case String:
			return Format(x)
		}
		return nil
	case time.Time:
		switch kind {
		case Date:
			return truncateDate(x)
		case String:
			return Format(x)
		}
		return nil
	}
	return Coerce(kind, fmt.Sprint(v))
}

var dateLayouts = []string{
	DateLayout,
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"01/02/2006",
	"1/2/2006",
	"01/02/2006 15:04:05",
	"1/2/2006 15:04",
	"1/2/2006 3:04:05 PM",
	"01/02/06",
	"20060102",
	"01022006",
}

// Coerce parses text into kind. Empty text is null.
func Coerce(kind Kind, s string) any {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	switch kind {
	case Float:
		f, ok := ParseAmount(s)
		if !ok {
			return nil
		}
		return f
	case Date:
		t, ok := ParseDate(s)
		if !ok {
			return nil
		}
		return t
	}
	return s
}

// ParseAmount parses numbers as written in finance exports: "$1,234.50",
// "(25.00)" for negatives.
func ParseAmount(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	neg := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		neg = true
		s = s[1 : len(s)-1]
	}
	s = strings.NewReplacer("$", "", ",", "", " ", "").Replace(s)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	if neg {
		f = -f
	}
	return f, true
}

// ParseDate tries the known export layouts and returns a UTC date.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return truncateDate(t), true
		}
	}
	return time.Time{}, false
}

func truncateDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Format renders a cell as text; null is "".
func Format(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case time.Time:
		return x.Format(DateLayout)
	}
	return fmt.Sprint(v)
}
