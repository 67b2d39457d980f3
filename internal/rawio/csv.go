// Package rawio reads the raw files deposited by the data producers:
// delimited text in several encodings, XLSX workbooks and Stata datasets.
// Every reader returns a table of the file's own columns; renaming onto the
// canonical schema happens in the per-source standardizers.
package rawio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/cfdb/internal/errs"
	"github.com/cfdb/internal/table"
)

// Encoding is the character encoding of a delimited file.
type Encoding int

const (
	// UTF8 also accepts a UTF-16 file that starts with a byte-order mark.
	UTF8 Encoding = iota
	// UTF16LE expects a byte-order mark and falls back to UTF-16LE without one.
	UTF16LE
	Windows1252
)

// DefaultMaxLossRate is the accepted fraction of malformed lines per file.
const DefaultMaxLossRate = 0.01

// CSVOptions describes one delimited file.
type CSVOptions struct {
	Encoding Encoding
	// Comma is the field delimiter; zero means ','.
	Comma rune
	// Columns names the positional columns of a headerless file. When nil
	// the first record is the header.
	Columns []string
	// Expected columns must be present in the header.
	Expected []string
	// MaxLossRate overrides DefaultMaxLossRate when positive.
	MaxLossRate float64
}

// Result is the outcome of reading one raw file.
type Result struct {
	Table   *table.Table
	Lines   int
	Skipped int
}

func decoder(enc Encoding) transform.Transformer {
	switch enc {
	case UTF16LE:
		return unicode.BOMOverride(unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder())
	case Windows1252:
		return charmap.Windows1252.NewDecoder()
	default:
		return unicode.BOMOverride(unicode.UTF8.NewDecoder())
	}
}

// ReadCSV reads a delimited file for source. Lines whose field count differs
// from the header, or that cannot be parsed, are skipped and counted; the
// file is rejected when skips exceed the loss rate.
func ReadCSV(source, path string, opts CSVOptions) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &errs.SourceFormatError{Source: source, Path: path, Err: err}
	}
	defer f.Close()

	return ReadCSVFrom(f, source, path, opts)
}

// ReadCSVFrom is ReadCSV over an open reader; path is used in errors and as
// the table name.
func ReadCSVFrom(r io.Reader, source, path string, opts CSVOptions) (*Result, error) {
	cr := csv.NewReader(transform.NewReader(r, decoder(opts.Encoding)))
	cr.Comma = ','
	if opts.Comma != 0 {
		cr.Comma = opts.Comma
	}
	cr.LazyQuotes = true

	header := opts.Columns
	if header == nil {
		rec, err := cr.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				err = fmt.Errorf("empty file")
			}
			return nil, &errs.SourceFormatError{Source: source, Path: path, Err: fmt.Errorf("reading header: %w", err)}
		}
		header = cleanHeader(rec)
	}
	if missing := Missing(header, opts.Expected); len(missing) > 0 {
		return nil, &errs.SourceFormatError{Source: source, Path: path, Missing: missing}
	}
	cr.FieldsPerRecord = len(header)

	res := &Result{Table: table.New(filepath.Base(path), table.Strings(header...))}
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		res.Lines++
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				res.Skipped++
				continue
			}
			return nil, &errs.SourceFormatError{Source: source, Path: path, Err: err}
		}
		row := make(table.Row, len(rec))
		for i, v := range rec {
			if v = strings.TrimSpace(v); v != "" {
				row[i] = v
			}
		}
		res.Table.Rows = append(res.Table.Rows, row)
	}

	if err := checkLoss(source, path, res, opts.MaxLossRate); err != nil {
		return nil, err
	}
	return res, nil
}

func checkLoss(source, path string, res *Result, rate float64) error {
	if rate <= 0 {
		rate = DefaultMaxLossRate
	}
	if res.Lines > 0 && float64(res.Skipped)/float64(res.Lines) > rate {
		return &errs.SourceFormatError{Source: source, Path: path,
			Err: fmt.Errorf("skipped %d of %d lines, above the %.2f%% limit", res.Skipped, res.Lines, rate*100)}
	}
	return nil
}

func cleanHeader(rec []string) []string {
	out := make([]string, len(rec))
	for i, h := range rec {
		out[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}
	return out
}

// Missing returns the expected columns absent from header, sorted.
func Missing(header, expected []string) []string {
	have := make(map[string]bool, len(header))
	for _, h := range header {
		have[h] = true
	}
	var out []string
	for _, e := range expected {
		if !have[e] {
			out = append(out, e)
		}
	}
	sort.Strings(out)
	return out
}

// Glob lists the files under dir matching pattern, sorted. No match is a
// SourceFormatError.
func Glob(source, dir, pattern string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return nil, &errs.SourceFormatError{Source: source, Path: filepath.Join(dir, pattern), Err: err}
	}
	if len(matches) == 0 {
		return nil, &errs.SourceFormatError{Source: source, Path: filepath.Join(dir, pattern), Err: os.ErrNotExist}
	}
	sort.Strings(matches)
	return matches, nil
}
