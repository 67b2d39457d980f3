package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/cfdb/internal/schema"
)

// RecordsHandler handles record and cluster lookups
type RecordsHandler struct {
	Index *Index
}

// RecordResponse is one record. CanonicalID differs from ID when the
// requested id was merged into another row.
type RecordResponse struct {
	Table       string         `json:"table"`
	ID          string         `json:"id"`
	CanonicalID string         `json:"canonical_id"`
	Record      map[string]any `json:"record"`
}

// ClusterResponse lists every id folded into one canonical id.
type ClusterResponse struct {
	Table       string   `json:"table"`
	CanonicalID string   `json:"canonical_id"`
	Members     []string `json:"members"`
}

// GetRecord returns a single record by table and id
func (h *RecordsHandler) GetRecord(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	tt, err := schema.ParseTableType(vars["table"])
	if err != nil || tt == schema.IDMap {
		http.Error(w, "Unknown table", http.StatusNotFound)
		return
	}

	rec, resolved, ok := h.Index.Lookup(tt, vars["id"])
	if !ok {
		http.Error(w, "Record not found", http.StatusNotFound)
		return
	}

	writeJSON(w, RecordResponse{
		Table:       string(tt),
		ID:          vars["id"],
		CanonicalID: resolved,
		Record:      rec,
	})
}

// GetCluster returns the cluster containing id, which may be the canonical
// id or any merged id.
func (h *RecordsHandler) GetCluster(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	canonical, ok := h.Index.canonical[id]
	if !ok {
		http.Error(w, "Cluster not found", http.StatusNotFound)
		return
	}

	writeJSON(w, ClusterResponse{
		Table:       string(h.Index.owner[canonical]),
		CanonicalID: canonical,
		Members:     h.Index.members[canonical],
	})
}
