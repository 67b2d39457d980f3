// Package sources holds one standardization pipeline per raw data source and
// the registry the orchestrator reads them from.
//
// Every pipeline runs the same four steps: preprocess reads the declared raw
// files, clean drops rows that fail minimal viability, standardize reshapes
// the rest onto the canonical columns, and create_table projects the result
// onto the canonical schema and tags the source.
package sources

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/cfdb/internal/audit"
	"github.com/cfdb/internal/debug"
	"github.com/cfdb/internal/errs"
	"github.com/cfdb/internal/metrics"
	"github.com/cfdb/internal/normalize"
	"github.com/cfdb/internal/rawio"
	"github.com/cfdb/internal/schema"
	"github.com/cfdb/internal/table"
)

// FileSpec declares one kind of raw file a pipeline reads.
type FileSpec struct {
	// Role keys the file's rows in Raw.
	Role string
	// Patterns are globbed under <raw>/<dir>; every match is read. The
	// extension picks the reader: .xlsx, .dta, otherwise delimited text.
	Patterns []string
	CSV      rawio.CSVOptions
	// Expected columns for XLSX and Stata files; delimited files declare
	// them in CSV.Expected.
	Expected []string
}

// Raw is the preprocessed input of one source, keyed by file role. Files
// sharing a role are concatenated in path order.
type Raw map[string]*table.Table

// Dropper records a discarded row and its reason. row indexes the Raw table
// of role.
type Dropper func(role string, row int, reason string)

// segment is one raw file's share of a concatenated role table.
type segment struct {
	path string
	rows int
}

// origins records which file each row of a Raw table came from.
type origins map[string][]segment

// locate maps a row of a role table back to its file and 1-based data row
// within that file. Tables without recorded origins report the row of the
// whole table and no file.
func (o origins) locate(role string, row int) (string, int) {
	for _, s := range o[role] {
		if row < s.rows {
			return s.path, row + 1
		}
		row -= s.rows
	}
	return "", row + 1
}

// Env carries the collaborators a pipeline reports to.
type Env struct {
	Report      *audit.Report
	Metrics     *metrics.Metrics
	Logger      *zap.Logger
	Address     normalize.Parser
	MaxLossRate float64
	Debug       bool
}

func (e *Env) withDefaults() *Env {
	out := Env{}
	if e != nil {
		out = *e
	}
	out.Logger = debug.OrNop(out.Logger)
	if out.Address == nil {
		out.Address = normalize.DefaultParser
	}
	return &out
}

// Pipeline is one standardizer. State is the registry key, Name tags output
// rows and names the raw subdirectory.
type Pipeline struct {
	State      string
	Name       string
	TableTypes []schema.TableType
	Files      []FileSpec

	// Preprocess defaults to reading Files. Drops from a custom Preprocess
	// are reported by table row without a file.
	Preprocess func(ctx context.Context, dir string, env *Env) (Raw, error)
	// Clean defaults to keeping every row.
	Clean       func(raw Raw, drop Dropper) Raw
	Standardize func(raw Raw, env *Env) (schema.TableSet, error)
}

// Dir returns the raw subdirectory of the pipeline under rawDir.
func (p *Pipeline) Dir(rawDir string) string {
	return filepath.Join(rawDir, p.Name)
}

// Run executes the pipeline against rawDir and returns one canonical table
// per declared table type. A SourceFormatError means nothing was produced.
func (p *Pipeline) Run(ctx context.Context, rawDir string, env *Env) (schema.TableSet, error) {
	env = env.withDefaults()
	debug.DebugHeader(env.Logger, env.Debug)
	defer debug.DebugFooter(env.Logger, env.Debug)
	defer env.Metrics.TimeSource(p.Name)()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var (
		raw  Raw
		from origins
		err  error
	)
	if p.Preprocess != nil {
		raw, err = p.Preprocess(ctx, p.Dir(rawDir), env)
	} else {
		raw, from, err = p.readFiles(ctx, p.Dir(rawDir), env)
	}
	if err != nil {
		return nil, err
	}
	read := raw.rows()
	debug.DebugOutput(env.Logger, env.Debug, "%s: read %d raw rows", p.Name, read)

	if p.Clean != nil {
		raw = p.Clean(raw, func(role string, row int, reason string) {
			file, line := from.locate(role, row)
			env.Report.Drop(p.Name, file, line, reason)
		})
	}
	kept := raw.rows()
	env.Report.Read(p.Name, read, kept)

	if p.Standardize == nil {
		return nil, &errs.ConfigurationError{Kind: "standardize step", Name: p.Name}
	}
	wide, err := p.Standardize(raw, env)
	if err != nil {
		return nil, fmt.Errorf("standardizing %s: %w", p.Name, err)
	}

	out := p.createTables(wide)
	for _, tt := range p.TableTypes {
		env.Metrics.RowRead(p.Name, string(tt), out[tt].Len())
	}
	env.Logger.Info("source standardized",
		zap.String("source", p.Name),
		zap.Int("read", read),
		zap.Int("kept", kept))
	return out, nil
}

// createTables projects every declared table type onto its canonical
// schema, dropping unmapped columns, and fills the source tag.
func (p *Pipeline) createTables(wide schema.TableSet) schema.TableSet {
	out := make(schema.TableSet, len(p.TableTypes))
	for _, tt := range p.TableTypes {
		target := schema.MustFor(tt)
		src, ok := wide[tt]
		if !ok || src == nil {
			out[tt] = table.New(string(tt), target)
			continue
		}
		mapping := make(map[string]string, len(target))
		for _, c := range target {
			mapping[c.Name] = c.Name
		}
		t := table.Project(src, string(tt), target, mapping)
		j := t.Schema.Index(schema.ColSource)
		for _, r := range t.Rows {
			if r[j] == nil {
				r[j] = p.Name
			}
		}
		out[tt] = t
	}
	return out
}

// readFiles reads every declared file kind under dir and records the file
// behind every row.
func (p *Pipeline) readFiles(ctx context.Context, dir string, env *Env) (Raw, origins, error) {
	raw := make(Raw, len(p.Files))
	from := make(origins, len(p.Files))
	for _, spec := range p.Files {
		var paths []string
		for _, pattern := range spec.Patterns {
			matches, _ := filepath.Glob(filepath.Join(dir, pattern))
			paths = append(paths, matches...)
		}
		if len(paths) == 0 {
			// report the first pattern with the not-found cause
			_, err := rawio.Glob(p.Name, dir, spec.Patterns[0])
			return nil, nil, err
		}

		var parts []*table.Table
		for _, path := range paths {
			if err := ctx.Err(); err != nil {
				return nil, nil, err
			}
			res, err := p.readFile(path, spec, env)
			if err != nil {
				return nil, nil, err
			}
			env.Report.Skip(p.Name, res.Skipped)
			debug.DebugOutput(env.Logger, env.Debug, "%s: %s lines=%d skipped=%d", p.Name, path, res.Lines, res.Skipped)
			parts = append(parts, res.Table)
			from[spec.Role] = append(from[spec.Role], segment{path: path, rows: res.Table.Len()})
		}
		t, err := concatByName(spec.Role, parts)
		if err != nil {
			return nil, nil, &errs.SourceFormatError{Source: p.Name, Path: dir, Err: err}
		}
		raw[spec.Role] = t
	}
	return raw, from, nil
}

func (p *Pipeline) readFile(path string, spec FileSpec, env *Env) (*rawio.Result, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return rawio.ReadXLSX(p.Name, path, spec.Expected, env.MaxLossRate)
	case ".dta":
		return rawio.ReadStata(p.Name, path, spec.Expected)
	}
	opts := spec.CSV
	if opts.MaxLossRate == 0 {
		opts.MaxLossRate = env.MaxLossRate
	}
	return rawio.ReadCSV(p.Name, path, opts)
}

// concatByName aligns every part onto the first part's columns by name and
// concatenates them. Columns missing from a later part are null.
func concatByName(name string, parts []*table.Table) (*table.Table, error) {
	first := parts[0]
	mapping := make(map[string]string, len(first.Schema))
	for _, c := range first.Schema {
		mapping[c.Name] = c.Name
	}
	aligned := make([]*table.Table, len(parts))
	for i, t := range parts {
		aligned[i] = table.Project(t, name, first.Schema, mapping)
	}
	return table.Concat(name, aligned...)
}

func (r Raw) rows() int {
	n := 0
	for _, t := range r {
		n += t.Len()
	}
	return n
}
