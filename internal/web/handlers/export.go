package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/cfdb/internal/dataset"
	"github.com/cfdb/internal/schema"
)

// ExportHandler handles data export endpoints
type ExportHandler struct {
	Index *Index
}

// ExportTable streams a whole table as CSV.
func (h *ExportHandler) ExportTable(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["table"]
	t, ok := h.Index.tables[schema.TableType(name)]
	if !ok {
		http.Error(w, "Unknown table", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`.csv"`)
	dataset.WriteCSV(w, t)
}
