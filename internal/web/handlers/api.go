package handlers

import (
	"net/http"

	"github.com/cfdb/internal/schema"
)

// APIHandler handles general API endpoints
type APIHandler struct {
	Index *Index
}

// StatsResponse represents overall statistics
type StatsResponse struct {
	Tables   map[string]int `json:"tables"`
	Clusters map[string]int `json:"clusters"`
	// Merged counts ids folded into another row, per entity table.
	Merged map[string]int `json:"merged"`
}

// GetStats returns row counts per table and cluster counts per entity table.
func (h *APIHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats := StatsResponse{
		Tables:   make(map[string]int),
		Clusters: make(map[string]int),
		Merged:   make(map[string]int),
	}
	for _, tt := range h.Index.tables.Names() {
		stats.Tables[string(tt)] = h.Index.tables[tt].Len()
	}
	for _, tt := range []schema.TableType{schema.Individuals, schema.Organizations} {
		if _, ok := h.Index.tables[tt]; ok {
			stats.Clusters[string(tt)] = 0
			stats.Merged[string(tt)] = 0
		}
	}
	for canonical, ids := range h.Index.members {
		tt := string(h.Index.owner[canonical])
		stats.Clusters[tt]++
		stats.Merged[tt] += len(ids) - 1
	}
	writeJSON(w, stats)
}
