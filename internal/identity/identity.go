// Package identity assigns stable row identifiers before linkage.
package identity

import (
	"github.com/google/uuid"

	"github.com/cfdb/internal/errs"
	"github.com/cfdb/internal/table"
)

// AssignIDs returns a copy of t in which every null or empty idColumn cell
// holds a fresh random (v4) UUID. Existing ids are left alone, so a second
// call changes nothing.
func AssignIDs(t *table.Table, idColumn string) (*table.Table, error) {
	j := t.Schema.Index(idColumn)
	if j < 0 {
		return nil, &errs.ConfigurationError{Kind: "id column", Name: idColumn}
	}
	out := t.Clone()
	for _, r := range out.Rows {
		if table.Format(r[j]) == "" {
			r[j] = uuid.NewString()
		}
	}
	return out, nil
}

// NewID returns a fresh identifier in the same format AssignIDs uses.
func NewID() string {
	return uuid.NewString()
}
