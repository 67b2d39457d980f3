package rawio

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/kshedden/datareader"

	"github.com/cfdb/internal/errs"
	"github.com/cfdb/internal/table"
)

// stataChunk is the number of records decoded per Read call.
const stataChunk = 10000

// ReadStata reads a Stata .dta dataset. Numeric variables become Float
// columns, dates become Date columns and everything else String columns;
// Stata missing values are null.
func ReadStata(source, path string, expected []string) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &errs.SourceFormatError{Source: source, Path: path, Err: err}
	}
	defer f.Close()

	rdr, err := datareader.NewStataReader(f)
	if err != nil {
		return nil, &errs.SourceFormatError{Source: source, Path: path, Err: fmt.Errorf("opening stata file: %w", err)}
	}
	rdr.ConvertDates = true
	rdr.InsertCategoryLabels = true

	names := rdr.ColumnNames()
	if missing := Missing(names, expected); len(missing) > 0 {
		return nil, &errs.SourceFormatError{Source: source, Path: path, Missing: missing}
	}

	res := &Result{Table: table.New(filepath.Base(path), make(table.Schema, len(names)))}
	for j, n := range names {
		res.Table.Schema[j] = table.Column{Name: n, Kind: table.String}
	}

	total := rdr.RowCount()
	for read := 0; read < total; {
		chunk, err := rdr.Read(stataChunk)
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, &errs.SourceFormatError{Source: source, Path: path, Err: fmt.Errorf("reading records: %w", err)}
		}
		if len(chunk) == 0 {
			break
		}
		n, err := appendSeries(res.Table, chunk, read == 0)
		if err != nil {
			return nil, &errs.SourceFormatError{Source: source, Path: path, Err: err}
		}
		if n == 0 {
			break
		}
		read += n
		res.Lines += n
	}
	return res, nil
}

// appendSeries appends one chunk of column-oriented data as rows. The column
// kinds are fixed from the first chunk.
func appendSeries(t *table.Table, chunk []*datareader.Series, first bool) (int, error) {
	if len(chunk) != len(t.Schema) {
		return 0, fmt.Errorf("got %d columns, expected %d", len(chunk), len(t.Schema))
	}
	cols := make([][]any, len(chunk))
	n := -1
	for j, s := range chunk {
		vals, kind := seriesValues(s)
		if first {
			t.Schema[j].Kind = kind
		}
		cols[j] = vals
		if n < 0 || len(vals) < n {
			n = len(vals)
		}
	}
	for i := 0; i < n; i++ {
		row := make(table.Row, len(cols))
		for j := range cols {
			row[j] = table.CoerceValue(t.Schema[j].Kind, cols[j][i])
		}
		t.Rows = append(t.Rows, row)
	}
	return n, nil
}

// seriesValues converts a Series to cells and reports the column kind.
func seriesValues(s *datareader.Series) ([]any, table.Kind) {
	missing := s.Missing()
	isMissing := func(i int) bool { return missing != nil && i < len(missing) && missing[i] }

	switch data := s.Data().(type) {
	case []string:
		out := make([]any, len(data))
		for i, v := range data {
			if v = strings.TrimSpace(v); v != "" && !isMissing(i) {
				out[i] = v
			}
		}
		return out, table.String
	case []time.Time:
		out := make([]any, len(data))
		for i, v := range data {
			if !isMissing(i) && !v.IsZero() {
				out[i] = v
			}
		}
		return out, table.Date
	case []float64:
		out := make([]any, len(data))
		for i, v := range data {
			if !isMissing(i) && !math.IsNaN(v) {
				out[i] = v
			}
		}
		return out, table.Float
	}

	// integer and float32 variants
	rv := reflect.ValueOf(s.Data())
	if rv.Kind() != reflect.Slice {
		return nil, table.String
	}
	out := make([]any, rv.Len())
	kind := table.Float
	for i := 0; i < rv.Len(); i++ {
		if isMissing(i) {
			continue
		}
		e := rv.Index(i)
		switch e.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			out[i] = float64(e.Int())
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			out[i] = float64(e.Uint())
		case reflect.Float32:
			if f := e.Float(); !math.IsNaN(f) {
				out[i] = f
			}
		default:
			out[i] = fmt.Sprint(e.Interface())
			kind = table.String
		}
	}
	return out, kind
}
