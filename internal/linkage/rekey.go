package linkage

import (
	"sort"

	"github.com/cfdb/internal/schema"
	"github.com/cfdb/internal/table"
)

// RekeyColumns returns a copy of t in which every value of columns found in
// mapping is replaced by its canonical id, and the number of cells changed.
// Columns missing from t are ignored.
func RekeyColumns(t *table.Table, columns []string, mapping map[string]string) (*table.Table, int) {
	out := t.Clone()
	changed := 0
	for _, col := range columns {
		j := out.Schema.Index(col)
		if j < 0 {
			continue
		}
		for _, r := range out.Rows {
			id := table.Format(r[j])
			if canonical, ok := mapping[id]; ok && canonical != id {
				r[j] = canonical
				changed++
			}
		}
	}
	return out, changed
}

// MappingTable renders mapping as id_map rows for tableType, sorted by
// original id.
func MappingTable(tableType schema.TableType, mapping map[string]string) *table.Table {
	out := schema.NewTable(schema.IDMap)
	ids := make([]string, 0, len(mapping))
	for id := range mapping {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		out.Rows = append(out.Rows, table.Row{string(tableType), id, mapping[id]})
	}
	return out
}

// ReadMappings groups the rows of an id_map table by table type. A nil
// table reads as no mappings.
func ReadMappings(idMap *table.Table) map[schema.TableType]map[string]string {
	out := make(map[schema.TableType]map[string]string)
	if idMap == nil {
		return out
	}
	for i := range idMap.Rows {
		tt, _ := idMap.String(i, schema.ColTableType)
		id, _ := idMap.String(i, schema.ColOriginalID)
		canonical, _ := idMap.String(i, schema.ColCanonicalID)
		if id == "" || canonical == "" {
			continue
		}
		m, ok := out[schema.TableType(tt)]
		if !ok {
			m = make(map[string]string)
			out[schema.TableType(tt)] = m
		}
		m[id] = canonical
	}
	return out
}

// ComposeMapping folds the merges of a later run, next, into an earlier
// mapping, prior. An id prior sent to a row that next merged away now maps
// to next's canonical id; every other prior entry is kept.
func ComposeMapping(prior, next map[string]string) map[string]string {
	out := make(map[string]string, len(prior)+len(next))
	for id, canonical := range next {
		out[id] = canonical
	}
	for id, canonical := range prior {
		if _, ok := out[id]; ok {
			continue
		}
		if moved, ok := next[canonical]; ok {
			canonical = moved
		}
		out[id] = canonical
	}
	return out
}
