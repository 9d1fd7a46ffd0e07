// Package sqlstore provides a SQL-backed implementation of the storage.Store interface.
//
// SQLite (pure Go, no CGO) is the default backend; PostgreSQL is supported through
// lib/pq. Queries are written with '?' placeholders and rebound by sqlx for the
// active driver.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/mmynk/houseshare/internal/errs"
	"github.com/mmynk/houseshare/internal/storage"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

func init() {
	sqlx.BindDriver(DriverSQLite, sqlx.QUESTION)
}

// Ensure Store implements storage.Store
var _ storage.Store = (*Store)(nil)

// Store implements storage.Store on top of sqlx.
type Store struct {
	db  *sqlx.DB
	tx  *sqlx.Tx
	ext sqlx.ExtContext

	driver string
}

// Open connects to the database for the given driver and runs migrations.
func Open(driver, dsn string) (*Store, error) {
	switch driver {
	case DriverSQLite, "":
		return New(dsn)
	case DriverPostgres:
		return openPostgres(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver: %q", driver)
	}
}

// New creates a SQLite-backed Store with the given database path.
// It creates the parent directories and runs migrations automatically.
func New(dbPath string) (*Store, error) {
	// Create parent directory if it doesn't exist
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sqlx.Open(DriverSQLite, dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := runMigrations(db.DB, "sqlite3"); err != nil {
		db.Close()
		return nil, err
	}

	// SQLite allows a single writer. One connection serializes every
	// transaction, which is what the wallet and membership updates rely on.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return newStore(db, DriverSQLite), nil
}

func openPostgres(dsn string) (*Store, error) {
	db, err := sqlx.Open(DriverPostgres, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("database is not reachable: %w", err)
	}
	if err := runMigrations(db.DB, DriverPostgres); err != nil {
		db.Close()
		return nil, err
	}
	return newStore(db, DriverPostgres), nil
}

// NewWithDB wraps an already migrated connection. Used by tests.
func NewWithDB(db *sqlx.DB) *Store {
	return newStore(db, db.DriverName())
}

func newStore(db *sqlx.DB, driver string) *Store {
	return &Store{db: db, ext: db, driver: driver}
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.tx != nil {
		return nil
	}
	return s.db.Close()
}

// InTx runs fn inside a database transaction.
func (s *Store) InTx(ctx context.Context, fn func(tx storage.Store) error) error {
	if s.tx != nil {
		return fn(s)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&Store{tx: tx, ext: tx, driver: s.driver}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// forUpdate returns the row-locking suffix for the active driver. SQLite has no
// row locks; its single connection already serializes transactions.
func (s *Store) forUpdate() string {
	if s.tx != nil && s.driver == DriverPostgres {
		return " FOR UPDATE"
	}
	return ""
}

func (s *Store) get(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	return sqlx.GetContext(ctx, s.ext, dest, s.ext.Rebind(query), args...)
}

func (s *Store) sel(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	return sqlx.SelectContext(ctx, s.ext, dest, s.ext.Rebind(query), args...)
}

func (s *Store) exec(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return s.ext.ExecContext(ctx, s.ext.Rebind(query), args...)
}

// swap runs a compare-and-swap UPDATE and maps zero affected rows to errs.ErrConflict.
func (s *Store) swap(ctx context.Context, what, query string, args ...interface{}) error {
	res, err := s.exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", what, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", what, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s changed concurrently", errs.ErrConflict, what)
	}
	return nil
}

// isUniqueViolation reports whether err is a unique/primary key violation on either driver.
func isUniqueViolation(err error) bool {
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		code := sqliteErr.Code()
		return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}

func notFound(what, id string) error {
	return fmt.Errorf("%w: %s %s", errs.ErrNotFound, what, id)
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
