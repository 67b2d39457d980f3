package dataset

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"github.com/cfdb/internal/table"
)

// WriteCSV writes t as CSV: a header row, then one record per row with
// null as an empty field.
func WriteCSV(w io.Writer, t *table.Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Schema.Names()); err != nil {
		return err
	}
	rec := make([]string, len(t.Schema))
	for _, r := range t.Rows {
		for j := range t.Schema {
			rec[j] = table.Format(r[j])
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// decodeCSV reads every column as text. Empty cells are null.
func decodeCSV(name string, data []byte) (*table.Table, error) {
	cr := csv.NewReader(bytes.NewReader(data))
	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%s: no header", name)
	}
	if err != nil {
		return nil, err
	}
	cr.FieldsPerRecord = len(header)

	out := table.New(name, table.Strings(header...))
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		r := out.NewRow()
		for j, v := range rec {
			if v != "" {
				r[j] = v
			}
		}
		out.Rows = append(out.Rows, r)
	}
	return out, nil
}
