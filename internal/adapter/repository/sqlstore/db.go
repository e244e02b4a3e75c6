package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	_ "modernc.org/sqlite"
)

// Dialect selects placeholder style, column types and migrations
type Dialect string

const (
	SQLite   Dialect = "sqlite"
	Postgres Dialect = "postgres"
)

// timeLayout is fixed width so TEXT timestamps sort chronologically in SQLite
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const dateLayout = "2006-01-02"

// DB wraps the database connection
type DB struct {
	*sql.DB
	dialect Dialect
	dsn     string
}

// OpenSQLite opens (creating if needed) the SQLite database at path
func OpenSQLite(path string) (*DB, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	return open(SQLite, path)
}

// OpenPostgres connects to PostgreSQL.
// connectionString should be in the format: "host=localhost port=5432 user=postgres password=postgres dbname=budget sslmode=disable"
func OpenPostgres(connectionString string) (*DB, error) {
	return open(Postgres, connectionString)
}

func open(dialect Dialect, dsn string) (*DB, error) {
	db, err := sql.Open(string(dialect), dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	// one writer at a time; SQLite would otherwise report SQLITE_BUSY inside Atomic
	if dialect == SQLite {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{DB: db, dialect: dialect, dsn: dsn}, nil
}

// Dialect reports which SQL flavour the connection speaks
func (db *DB) Dialect() Dialect {
	return db.dialect
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.DB.Close()
}

// rebind rewrites ? placeholders to $n for postgres
func (db *DB) rebind(query string) string {
	if db.dialect != Postgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// timeArg encodes t for a timestamp column
func (db *DB) timeArg(t time.Time) any {
	if db.dialect == SQLite {
		return t.UTC().Format(timeLayout)
	}
	return t.UTC()
}

// querier is satisfied by *sql.DB and *sql.Tx
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// timestamp scans TEXT (SQLite) and native (PostgreSQL) time columns
type timestamp struct {
	time.Time
}

func (t *timestamp) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		t.Time = v.UTC()
		return nil
	case string:
		return t.parse(v)
	case []byte:
		return t.parse(string(v))
	case nil:
		t.Time = time.Time{}
		return nil
	}
	return fmt.Errorf("cannot scan %T into timestamp", src)
}

func (t *timestamp) parse(s string) error {
	for _, layout := range []string{timeLayout, time.RFC3339Nano, dateLayout} {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed.UTC()
			return nil
		}
	}
	return fmt.Errorf("cannot parse timestamp %q", s)
}
