package dataset

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/ipc"
	"github.com/apache/arrow/go/v17/arrow/memory"

	"github.com/cfdb/internal/table"
)

func arrowType(k table.Kind) arrow.DataType {
	switch k {
	case table.Float:
		return arrow.PrimitiveTypes.Float64
	case table.Date:
		return arrow.FixedWidthTypes.Date32
	}
	return arrow.BinaryTypes.String
}

func kindOf(dt arrow.DataType) (table.Kind, error) {
	switch dt.ID() {
	case arrow.STRING:
		return table.String, nil
	case arrow.FLOAT64:
		return table.Float, nil
	case arrow.DATE32:
		return table.Date, nil
	}
	return table.String, fmt.Errorf("unsupported arrow type %s", dt)
}

// encodeFeather writes t as a single-batch Arrow IPC file.
func encodeFeather(w io.Writer, t *table.Table) error {
	mem := memory.NewGoAllocator()
	fields := make([]arrow.Field, len(t.Schema))
	for j, c := range t.Schema {
		fields[j] = arrow.Field{Name: c.Name, Type: arrowType(c.Kind), Nullable: true}
	}
	sc := arrow.NewSchema(fields, nil)

	b := array.NewRecordBuilder(mem, sc)
	defer b.Release()
	for _, r := range t.Rows {
		for j, c := range t.Schema {
			appendCell(b.Field(j), table.CoerceValue(c.Kind, r[j]))
		}
	}
	rec := b.NewRecord()
	defer rec.Release()

	fw, err := ipc.NewFileWriter(w, ipc.WithSchema(sc), ipc.WithAllocator(mem))
	if err != nil {
		return err
	}
	if err := fw.Write(rec); err != nil {
		_ = fw.Close()
		return err
	}
	return fw.Close()
}

func appendCell(b array.Builder, v any) {
	switch fb := b.(type) {
	case *array.StringBuilder:
		if s, ok := v.(string); ok {
			fb.Append(s)
			return
		}
	case *array.Float64Builder:
		if f, ok := v.(float64); ok {
			fb.Append(f)
			return
		}
	case *array.Date32Builder:
		if d, ok := v.(time.Time); ok {
			fb.Append(arrow.Date32FromTime(d))
			return
		}
	}
	b.AppendNull()
}

func decodeFeather(name string, data []byte) (*table.Table, error) {
	fr, err := ipc.NewFileReader(bytes.NewReader(data), ipc.WithAllocator(memory.NewGoAllocator()))
	if err != nil {
		return nil, err
	}
	defer fr.Close()

	fields := fr.Schema().Fields()
	s := make(table.Schema, len(fields))
	for j, f := range fields {
		kind, err := kindOf(f.Type)
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", f.Name, err)
		}
		s[j] = table.Column{Name: f.Name, Kind: kind}
	}

	out := table.New(name, s)
	for i := 0; i < fr.NumRecords(); i++ {
		// records stay owned by the reader
		rec, err := fr.Record(i)
		if err != nil {
			return nil, err
		}
		for row := 0; row < int(rec.NumRows()); row++ {
			r := out.NewRow()
			for j := range s {
				r[j] = cellAt(rec.Column(j), row)
			}
			out.Rows = append(out.Rows, r)
		}
	}
	return out, nil
}

func cellAt(col arrow.Array, row int) any {
	if col.IsNull(row) {
		return nil
	}
	switch a := col.(type) {
	case *array.String:
		return a.Value(row)
	case *array.Float64:
		return a.Value(row)
	case *array.Date32:
		return a.Value(row).ToTime()
	}
	return nil
}
