package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/cfdb/internal/schema"
)

// SearchHandler handles search endpoints
type SearchHandler struct {
	Index *Index
}

// SearchResponse holds the records whose names contain the search term.
type SearchResponse struct {
	Table   string           `json:"table"`
	Query   string           `json:"query"`
	Results []map[string]any `json:"results"`
}

var nameColumns = map[schema.TableType][]string{
	schema.Individuals:   {schema.ColFullName, schema.ColLastName, schema.ColFirstName},
	schema.Organizations: {schema.ColName},
}

// SearchEntities finds individuals or organizations by name substring.
func (h *SearchHandler) SearchEntities(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	searchTerm := strings.ToUpper(strings.TrimSpace(query.Get("q")))
	if searchTerm == "" {
		http.Error(w, "Search term required", http.StatusBadRequest)
		return
	}

	tt := schema.Individuals
	if v := query.Get("table"); v != "" {
		tt = schema.TableType(v)
	}
	columns, ok := nameColumns[tt]
	t, loaded := h.Index.tables[tt]
	if !ok || !loaded {
		http.Error(w, "Unknown table", http.StatusNotFound)
		return
	}

	// Parse limit parameter
	limit := parseIntParam(query.Get("limit"), 20)
	if limit > 100 {
		limit = 100 // Maximum limit
	}

	results := []map[string]any{}
	for i := range t.Rows {
		if len(results) >= limit {
			break
		}
		for _, col := range columns {
			v, _ := t.String(i, col)
			if strings.Contains(strings.ToUpper(v), searchTerm) {
				results = append(results, record(t, i))
				break
			}
		}
	}

	writeJSON(w, SearchResponse{Table: string(tt), Query: searchTerm, Results: results})
}

func parseIntParam(s string, defaultValue int) int {
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultValue
}
