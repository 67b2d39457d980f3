// Package db opens the SQL databases a dataset can be persisted to.
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/cfdb/internal/config"
	"github.com/cfdb/internal/errs"
)

// Supported drivers, named as registered with database/sql.
const (
	Postgres = "postgres"
	SQLite   = "sqlite"
)

// Connection holds the database connection
type Connection struct {
	DB     *sql.DB
	Driver string
}

// Open connects to dsn with driver and checks the connection. For sqlite the
// dsn is a file path whose directory is created when missing.
func Open(ctx context.Context, driver, dsn string) (*Connection, error) {
	switch driver {
	case Postgres:
		if dsn == "" {
			dsn = PostgresDSN()
		}
	case SQLite:
		if dsn == "" {
			return nil, errors.New("sqlite database path required")
		}
		if dir := filepath.Dir(dsn); dir != "." && !strings.HasPrefix(dsn, "file:") {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
	default:
		return nil, &errs.ConfigurationError{Kind: "database driver", Name: driver}
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if driver == SQLite {
		// one writer; concurrent connections would see "database is locked"
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(20)
		db.SetMaxIdleConns(10)
	}

	return &Connection{DB: db, Driver: driver}, nil
}

// PostgresDSN builds a key/value DSN from DATABASE_URL or the PG*
// environment variables.
func PostgresDSN() string {
	if url := config.GetEnv("DATABASE_URL", ""); url != "" {
		return url
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		config.GetEnv("PGHOST", "localhost"),
		config.GetEnv("PGPORT", "5432"),
		config.GetEnv("PGUSER", "postgres"),
		config.GetEnv("PGPASSWORD", "postgres"),
		config.GetEnv("PGDATABASE", "cfdb"),
		config.GetEnv("PGSSLMODE", "disable"))
}

// Close closes the database connection
func (c *Connection) Close() error {
	return c.DB.Close()
}

// Placeholder returns the bind parameter for the n-th (1-based) argument.
func (c *Connection) Placeholder(n int) string {
	if c.Driver == Postgres {
		return "$" + strconv.Itoa(n)
	}
	return "?"
}

// Quote quotes an identifier for both dialects.
func Quote(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

// FloatType is the column type of float cells.
func (c *Connection) FloatType() string {
	if c.Driver == Postgres {
		return "DOUBLE PRECISION"
	}
	return "REAL"
}
