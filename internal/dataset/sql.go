package dataset

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/cfdb/internal/db"
	"github.com/cfdb/internal/schema"
	"github.com/cfdb/internal/table"
)

const (
	// catalogTable records column order and kinds, which SQL types alone
	// do not carry back across both drivers.
	catalogTable = "_cfdb_columns"
	rowColumn    = "_cfdb_row"
)

func saveSQL(ctx context.Context, tables schema.TableSet, driver, dsn string) (retErr error) {
	conn, err := db.Open(ctx, driver, dsn)
	if err != nil {
		return err
	}
	defer conn.Close()

	tx, err := conn.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err := tx.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS `+catalogTable+` (
		table_name TEXT NOT NULL,
		position INTEGER NOT NULL,
		column_name TEXT NOT NULL,
		kind TEXT NOT NULL
	)`); err != nil {
		return fmt.Errorf("create %s: %w", catalogTable, err)
	}

	for _, name := range tables.Names() {
		if err := writeSQLTable(ctx, conn, tx, tables[name]); err != nil {
			return fmt.Errorf("failed to save %s: %w", name, err)
		}
	}
	if err := dropStaleSQLTables(ctx, conn, tx, tables); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

func writeSQLTable(ctx context.Context, conn *db.Connection, tx *sql.Tx, t *table.Table) error {
	name := db.Quote(t.Name)
	if _, err := tx.ExecContext(ctx, `DELETE FROM `+catalogTable+` WHERE table_name = `+conn.Placeholder(1), t.Name); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DROP TABLE IF EXISTS `+name); err != nil {
		return err
	}

	defs := []string{rowColumn + " INTEGER NOT NULL"}
	cols := []string{rowColumn}
	for _, c := range t.Schema {
		typ := "TEXT"
		if c.Kind == table.Float {
			typ = conn.FloatType()
		}
		defs = append(defs, db.Quote(c.Name)+" "+typ)
		cols = append(cols, db.Quote(c.Name))
	}
	if _, err := tx.ExecContext(ctx, `CREATE TABLE `+name+` (`+strings.Join(defs, ", ")+`)`); err != nil {
		return err
	}

	catalog := `INSERT INTO ` + catalogTable + ` (table_name, position, column_name, kind) VALUES (` +
		conn.Placeholder(1) + `, ` + conn.Placeholder(2) + `, ` + conn.Placeholder(3) + `, ` + conn.Placeholder(4) + `)`
	for j, c := range t.Schema {
		if _, err := tx.ExecContext(ctx, catalog, t.Name, j, c.Name, c.Kind.String()); err != nil {
			return err
		}
	}

	ph := make([]string, len(cols))
	for i := range ph {
		ph[i] = conn.Placeholder(i + 1)
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO `+name+` (`+strings.Join(cols, ", ")+`) VALUES (`+strings.Join(ph, ", ")+`)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	args := make([]any, len(cols))
	for i, r := range t.Rows {
		args[0] = i
		for j, c := range t.Schema {
			args[j+1] = sqlValue(c.Kind, r[j])
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("row %d: %w", i, err)
		}
	}
	return nil
}

// dropStaleSQLTables removes cataloged tables that are not in tables.
func dropStaleSQLTables(ctx context.Context, conn *db.Connection, tx *sql.Tx, tables schema.TableSet) error {
	rows, err := tx.QueryContext(ctx, `SELECT DISTINCT table_name FROM `+catalogTable)
	if err != nil {
		return fmt.Errorf("read %s: %w", catalogTable, err)
	}
	var stale []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			_ = rows.Close()
			return fmt.Errorf("scan %s: %w", catalogTable, err)
		}
		if _, ok := tables[schema.TableType(name)]; !ok {
			stale = append(stale, name)
		}
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return err
	}
	if err := rows.Close(); err != nil {
		return err
	}
	for _, name := range stale {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+catalogTable+` WHERE table_name = `+conn.Placeholder(1), name); err != nil {
			return fmt.Errorf("failed to remove stale %s: %w", name, err)
		}
		if _, err := tx.ExecContext(ctx, `DROP TABLE IF EXISTS `+db.Quote(name)); err != nil {
			return fmt.Errorf("failed to remove stale %s: %w", name, err)
		}
	}
	return nil
}

// sqlValue stores dates as ISO text so both drivers read them back alike.
func sqlValue(kind table.Kind, v any) any {
	v = table.CoerceValue(kind, v)
	if d, ok := v.(time.Time); ok {
		return d.Format(table.DateLayout)
	}
	return v
}

func loadSQL(ctx context.Context, driver, dsn string) (schema.TableSet, error) {
	conn, err := db.Open(ctx, driver, dsn)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	rows, err := conn.DB.QueryContext(ctx, `SELECT table_name, column_name, kind FROM `+catalogTable+` ORDER BY table_name, position`)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", catalogTable, err)
	}
	var order []string
	schemas := make(map[string]table.Schema)
	for rows.Next() {
		var tableName, column, kind string
		if err := rows.Scan(&tableName, &column, &kind); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan %s: %w", catalogTable, err)
		}
		k, err := table.ParseKind(kind)
		if err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("%s.%s: %w", tableName, column, err)
		}
		if _, ok := schemas[tableName]; !ok {
			order = append(order, tableName)
		}
		schemas[tableName] = append(schemas[tableName], table.Column{Name: column, Kind: k})
	}
	_ = rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make(schema.TableSet, len(order))
	for _, name := range order {
		t, err := readSQLTable(ctx, conn, name, schemas[name])
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", name, err)
		}
		out[schema.TableType(name)] = t
	}
	return out, nil
}

func readSQLTable(ctx context.Context, conn *db.Connection, name string, s table.Schema) (*table.Table, error) {
	cols := make([]string, len(s))
	for j, c := range s {
		cols[j] = db.Quote(c.Name)
	}
	rows, err := conn.DB.QueryContext(ctx, `SELECT `+strings.Join(cols, ", ")+` FROM `+db.Quote(name)+` ORDER BY `+rowColumn)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := table.New(name, s)
	dest := make([]any, len(s))
	for rows.Next() {
		for j, c := range s {
			if c.Kind == table.Float {
				dest[j] = new(sql.NullFloat64)
			} else {
				dest[j] = new(sql.NullString)
			}
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		r := out.NewRow()
		for j, c := range s {
			switch d := dest[j].(type) {
			case *sql.NullFloat64:
				if d.Valid {
					r[j] = d.Float64
				}
			case *sql.NullString:
				switch {
				case !d.Valid:
				case c.Kind == table.String:
					r[j] = d.String
				default:
					r[j] = table.Coerce(c.Kind, d.String)
				}
			}
		}
		out.Rows = append(out.Rows, r)
	}
	return out, rows.Err()
}
