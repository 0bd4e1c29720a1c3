package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

// Dialect selects the SQL flavour a query is written for.
type Dialect int

const (
	SQLite Dialect = iota
	Postgres
)

// DB is a database handle that knows which dialect it speaks.
type DB struct {
	*sql.DB
	Dialect Dialect
	driver  string
}

// driverFor picks the database/sql driver from the shape of the DSN.
func driverFor(dsn string) (string, Dialect) {
	lower := strings.ToLower(dsn)
	switch {
	case strings.HasPrefix(lower, "postgres://"), strings.HasPrefix(lower, "postgresql://"):
		return "pgx", Postgres
	case strings.HasPrefix(lower, "libsql://"), strings.HasPrefix(lower, "wss://"),
		strings.HasPrefix(lower, "ws://"), strings.Contains(lower, ".turso.io"):
		return "libsql", SQLite
	default:
		return "sqlite", SQLite
	}
}

// Open connects to dsn, applies connection settings and runs migrations.
// Plain paths and file: DSNs open a local SQLite database.
func Open(dsn string) (*DB, error) {
	driver, dialect := driverFor(dsn)

	sqlDB, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	d := &DB{DB: sqlDB, Dialect: dialect, driver: driver}

	if driver == "sqlite" {
		pragmas := []string{
			"PRAGMA journal_mode=WAL",
			"PRAGMA busy_timeout=5000",
			"PRAGMA synchronous=NORMAL",
			"PRAGMA foreign_keys=ON",
			"PRAGMA cache_size=-20000", // 20MB
		}
		for _, p := range pragmas {
			if _, err := sqlDB.Exec(p); err != nil {
				sqlDB.Close()
				return nil, fmt.Errorf("exec pragma %q: %w", p, err)
			}
		}
		// One writer at a time; this also serialises link-cap transactions.
		sqlDB.SetMaxOpenConns(1)
	}

	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := Migrate(context.Background(), d); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return d, nil
}

// DriverName is the database/sql driver the handle was opened with.
func (d *DB) DriverName() string {
	return d.driver
}

// Rebind rewrites ? placeholders into the dialect's positional form.
func (d *DB) Rebind(query string) string {
	return rebind(d.Dialect, query)
}

func rebind(dialect Dialect, query string) string {
	if dialect != Postgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

// LockProfileSQL returns a statement that takes a row lock on a profile for
// the rest of the transaction, or "" when the dialect serialises writers on
// its own.
func (d *DB) LockProfileSQL() string {
	if d.Dialect == Postgres {
		return `SELECT id FROM profiles WHERE id = $1 FOR UPDATE`
	}
	return ""
}

// Tx wraps a transaction with the owning handle's dialect.
type Tx struct {
	*sql.Tx
	Dialect Dialect
}

func (t *Tx) Rebind(query string) string {
	return rebind(t.Dialect, query)
}

// InTx runs fn inside a transaction, committing when fn returns nil.
func (d *DB) InTx(ctx context.Context, fn func(tx *Tx) error) error {
	sqlTx, err := d.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&Tx{Tx: sqlTx, Dialect: d.Dialect}); err != nil {
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// IsUniqueViolation reports whether err came from a UNIQUE constraint.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// IsForeignKeyViolation reports whether err came from a FOREIGN KEY constraint.
func IsForeignKeyViolation(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23503"
	}
	return strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}
