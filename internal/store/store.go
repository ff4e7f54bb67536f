// Package store persists normalized book records into an embedded SQLite
// catalog with deduplicated author and category rows. One Store wraps one
// shared database handle; every logical write runs in its own transaction.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3"
	_ "modernc.org/sqlite"
)

// Store is the single shared handle to the catalog database.
type Store struct {
	db *sql.DB
	g  goqu.DialectWrapper
	l  *slog.Logger
}

// Open opens (creating if necessary) the catalog database at path and
// initializes the schema. The connection pool is capped at one connection:
// the importer is a single logical writer and SQLite gets nothing from more.
func Open(path string, l *slog.Logger) (*Store, error) {
	// The _pragma form applies to every connection the pool hands out.
	db, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(10000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog database: %w", err)
	}

	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to catalog database: %w", err)
	}

	s := &Store{db: db, g: goqu.Dialect("sqlite3"), l: l}
	if err := s.createTables(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return s, nil
}

func (s *Store) createTables() error {
	for _, schema := range schemas {
		if _, err := s.db.Exec(schema); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}
	return nil
}

// Close closes the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// withTx runs fn inside a transaction scoped to one logical operation.
// Any error rolls the whole unit back.
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
