// Package dataset saves and loads a named collection of tables. File formats
// write one blob per table, <table>.<ext>, to a local directory or an S3
// prefix; the SQL formats write one SQL table per table.
package dataset

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/cfdb/internal/blob"
	"github.com/cfdb/internal/db"
	"github.com/cfdb/internal/errs"
	"github.com/cfdb/internal/schema"
	"github.com/cfdb/internal/table"
)

// Format is a persisted representation.
type Format string

const (
	CSV      Format = "csv"
	Feather  Format = "feather"
	SQLite   Format = "sqlite"
	Postgres Format = "postgres"
)

// Formats lists the supported formats.
var Formats = []Format{CSV, Feather, SQLite, Postgres}

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", &errs.ConfigurationError{Kind: "dataset format", Name: s}
}

type codec struct {
	ext         string
	contentType string
	encode      func(w io.Writer, t *table.Table) error
	decode      func(name string, data []byte) (*table.Table, error)
}

var codecs = map[Format]codec{
	CSV:     {ext: "csv", contentType: "text/csv", encode: WriteCSV, decode: decodeCSV},
	Feather: {ext: "feather", contentType: "application/vnd.apache.arrow.file", encode: encodeFeather, decode: decodeFeather},
}

// Save writes every table of tables to location. Existing tables of the same
// name are replaced.
func Save(ctx context.Context, tables schema.TableSet, location string, format Format) error {
	switch format {
	case SQLite:
		return saveSQL(ctx, tables, db.SQLite, location)
	case Postgres:
		return saveSQL(ctx, tables, db.Postgres, location)
	}
	c, ok := codecs[format]
	if !ok {
		return &errs.ConfigurationError{Kind: "dataset format", Name: string(format)}
	}
	loc, err := blob.ParseLocation(location)
	if err != nil {
		return err
	}
	store, err := blob.Open(ctx, loc)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", location, err)
	}

	for _, name := range tables.Names() {
		if err := ctx.Err(); err != nil {
			return err
		}
		var buf bytes.Buffer
		if err := c.encode(&buf, tables[name]); err != nil {
			return fmt.Errorf("failed to encode %s: %w", name, err)
		}
		key := loc.Key(string(name) + "." + c.ext)
		if _, err := store.Put(ctx, key, &buf, blob.PutOptions{ContentType: c.contentType}); err != nil {
			return fmt.Errorf("failed to write %s: %w", key, err)
		}
	}

	// a save owns the location: tables of an earlier save that are not in
	// this one are removed so Load returns exactly what was saved
	saved, err := tableKeys(ctx, store, loc.Key(""), c.ext)
	if err != nil {
		return fmt.Errorf("failed to list %s: %w", location, err)
	}
	for name, key := range saved {
		if _, ok := tables[schema.TableType(name)]; ok {
			continue
		}
		if _, err := store.Delete(ctx, key); err != nil {
			return fmt.Errorf("failed to remove stale %s: %w", key, err)
		}
	}
	return nil
}

// tableKeys maps table name to key for every <name>.<ext> blob directly
// under prefix.
func tableKeys(ctx context.Context, store blob.Store, prefix, ext string) (map[string]string, error) {
	infos, err := store.List(ctx, prefix)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(infos))
	for _, info := range infos {
		rel := strings.TrimPrefix(info.Key, prefix)
		if strings.Contains(rel, "/") || !strings.HasSuffix(rel, "."+ext) {
			continue
		}
		out[strings.TrimSuffix(rel, "."+ext)] = info.Key
	}
	return out, nil
}

// Load reads every table saved at location in format. CSV tables come back
// with string columns; see Recoerce.
func Load(ctx context.Context, location string, format Format) (schema.TableSet, error) {
	switch format {
	case SQLite:
		return loadSQL(ctx, db.SQLite, location)
	case Postgres:
		return loadSQL(ctx, db.Postgres, location)
	}
	c, ok := codecs[format]
	if !ok {
		return nil, &errs.ConfigurationError{Kind: "dataset format", Name: string(format)}
	}
	loc, err := blob.ParseLocation(location)
	if err != nil {
		return nil, err
	}
	store, err := blob.Open(ctx, loc)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", location, err)
	}
	keys, err := tableKeys(ctx, store, loc.Key(""), c.ext)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", location, err)
	}

	out := make(schema.TableSet, len(keys))
	for name, key := range keys {
		t, err := readTable(ctx, store, key, name, c)
		if err != nil {
			return nil, err
		}
		out[schema.TableType(name)] = t
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no %s tables at %s", format, location)
	}
	return out, nil
}

func readTable(ctx context.Context, store blob.Store, key, name string, c codec) (*table.Table, error) {
	_, rc, err := store.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}
	t, err := c.decode(name, data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return t, nil
}

// Recoerce projects every table with a canonical type onto its canonical
// schema, parsing numbers and dates back from text. Other tables are kept
// as they are.
func Recoerce(tables schema.TableSet) schema.TableSet {
	out := make(schema.TableSet, len(tables))
	for name, t := range tables {
		target, err := schema.For(name)
		if err != nil {
			out[name] = t
			continue
		}
		mapping := make(map[string]string, len(target))
		for _, c := range target {
			mapping[c.Name] = c.Name
		}
		out[name] = table.Project(t, string(name), target, mapping)
	}
	return out
}
