// Package handlers serves lookups over a loaded dataset.
package handlers

import (
	"encoding/json"
	"net/http"
	"sort"
	"time"

	"github.com/cfdb/internal/schema"
	"github.com/cfdb/internal/table"
)

// Index is the read-only view of a dataset the handlers share. It is built
// once and never mutated, so handlers need no locking.
type Index struct {
	tables schema.TableSet
	rows   map[schema.TableType]map[string]int
	// canonical maps every clustered id to its canonical id.
	canonical map[string]string
	members   map[string][]string
	owner     map[string]schema.TableType
}

// NewIndex indexes every table by its id column and id_map by cluster.
func NewIndex(tables schema.TableSet) *Index {
	idx := &Index{
		tables:    tables,
		rows:      make(map[schema.TableType]map[string]int, len(tables)),
		canonical: make(map[string]string),
		members:   make(map[string][]string),
		owner:     make(map[string]schema.TableType),
	}
	for tt, t := range tables {
		if tt == schema.IDMap {
			continue
		}
		col := schema.IDColumn(tt)
		if t.Schema.Index(col) < 0 {
			continue
		}
		ids := make(map[string]int, t.Len())
		for i, v := range t.Column(col) {
			if id := table.Format(v); id != "" {
				ids[id] = i
			}
		}
		idx.rows[tt] = ids
	}

	if m, ok := tables[schema.IDMap]; ok {
		types := m.Column(schema.ColTableType)
		originals := m.Column(schema.ColOriginalID)
		canonicals := m.Column(schema.ColCanonicalID)
		for i := range m.Rows {
			orig, canon := table.Format(originals[i]), table.Format(canonicals[i])
			idx.canonical[orig] = canon
			idx.members[canon] = append(idx.members[canon], orig)
			idx.owner[canon] = schema.TableType(table.Format(types[i]))
		}
		for _, ids := range idx.members {
			sort.Strings(ids)
		}
	}
	return idx
}

// Lookup returns the record of id in tt, following id_map when id was merged
// away. resolved is the id of the returned record.
func (idx *Index) Lookup(tt schema.TableType, id string) (rec map[string]any, resolved string, ok bool) {
	ids, known := idx.rows[tt]
	if !known {
		return nil, "", false
	}
	resolved = id
	i, ok := ids[id]
	if !ok {
		if c, mapped := idx.canonical[id]; mapped {
			resolved = c
			i, ok = ids[c]
		}
	}
	if !ok {
		return nil, "", false
	}
	return record(idx.tables[tt], i), resolved, true
}

// record renders row i as a column to value map with ISO dates.
func record(t *table.Table, i int) map[string]any {
	out := make(map[string]any, len(t.Schema))
	for j, c := range t.Schema {
		switch v := t.Rows[i][j].(type) {
		case time.Time:
			out[c.Name] = v.Format(table.DateLayout)
		default:
			out[c.Name] = v
		}
	}
	return out
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
