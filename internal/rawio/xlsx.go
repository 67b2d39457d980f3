package rawio

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/cfdb/internal/errs"
	"github.com/cfdb/internal/table"
)

// ReadXLSX reads the first sheet of a workbook; the first row is the header.
// Rows wider than the header count as malformed and are skipped.
func ReadXLSX(source, path string, expected []string, maxLossRate float64) (*Result, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, &errs.SourceFormatError{Source: source, Path: path, Err: err}
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, &errs.SourceFormatError{Source: source, Path: path, Err: fmt.Errorf("no sheets found")}
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, &errs.SourceFormatError{Source: source, Path: path, Err: fmt.Errorf("reading sheet %s: %w", sheet, err)}
	}
	if len(rows) == 0 {
		return nil, &errs.SourceFormatError{Source: source, Path: path, Err: fmt.Errorf("sheet %s is empty", sheet)}
	}

	header := cleanHeader(rows[0])
	if missing := Missing(header, expected); len(missing) > 0 {
		return nil, &errs.SourceFormatError{Source: source, Path: path, Missing: missing}
	}

	res := &Result{Table: table.New(filepath.Base(path), table.Strings(header...))}
	for _, rec := range rows[1:] {
		if isEmptyRow(rec) {
			continue
		}
		res.Lines++
		if len(rec) > len(header) {
			res.Skipped++
			continue
		}
		// GetRows trims trailing empty cells
		row := make(table.Row, len(header))
		for i, v := range rec {
			if v = strings.TrimSpace(v); v != "" {
				row[i] = v
			}
		}
		res.Table.Rows = append(res.Table.Rows, row)
	}

	if err := checkLoss(source, path, res, maxLossRate); err != nil {
		return nil, err
	}
	return res, nil
}

func isEmptyRow(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// WriteXLSX writes t to a single-sheet workbook with a header row.
func WriteXLSX(t *table.Table, path string) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for j, c := range t.Schema {
		cell, err := excelize.CoordinatesToCellName(j+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, c.Name); err != nil {
			return err
		}
	}
	for i, r := range t.Rows {
		for j, v := range r {
			if v == nil {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(j+1, i+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, table.Format(v)); err != nil {
				return err
			}
		}
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook %s: %w", path, err)
	}
	return nil
}
