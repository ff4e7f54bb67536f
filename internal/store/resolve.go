package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"
)

// EntityKind selects which natural-key table Resolve works against.
type EntityKind string

const (
	KindAuthor   EntityKind = "author"
	KindCategory EntityKind = "category"
)

func (k EntityKind) table() (string, error) {
	switch k {
	case KindAuthor:
		return "authors", nil
	case KindCategory:
		return "categories", nil
	default:
		return "", fmt.Errorf("unknown entity kind %q", string(k))
	}
}

// Resolve maps a candidate name to a stable id for the given kind,
// inserting a new row on first sight. Lookup is case-sensitive against the
// whitespace-trimmed name; an empty trimmed name fails with ErrInvalidName.
func (s *Store) Resolve(ctx context.Context, kind EntityKind, name string) (string, error) {
	var id string
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		id, err = s.resolveTx(ctx, tx, kind, name)
		return err
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

// resolveTx is the transaction-scoped worker behind Resolve, shared with
// AddBook. Lookup-then-insert is not atomic, so the insert is OR IGNORE
// against the UNIQUE(name) constraint and a losing race falls through to
// the re-select instead of failing the operation.
func (s *Store) resolveTx(ctx context.Context, tx *sql.Tx, kind EntityKind, name string) (string, error) {
	table, err := kind.table()
	if err != nil {
		return "", err
	}

	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "", fmt.Errorf("cannot resolve %s: %w", string(kind), ErrInvalidName)
	}

	id, err := s.lookupByName(ctx, tx, table, trimmed)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("failed to look up %s %q: %w", string(kind), trimmed, err)
	}

	query, args, err := s.g.Insert(table).Prepared(true).
		Rows(goqu.Record{"id": uuid.NewString(), "name": trimmed}).
		OnConflict(goqu.DoNothing()).
		ToSQL()
	if err != nil {
		return "", err
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return "", fmt.Errorf("failed to insert %s %q: %w", string(kind), trimmed, err)
	}

	id, err = s.lookupByName(ctx, tx, table, trimmed)
	if err != nil {
		return "", fmt.Errorf("failed to re-read %s %q after insert: %w", string(kind), trimmed, err)
	}
	return id, nil
}

func (s *Store) lookupByName(ctx context.Context, tx *sql.Tx, table, name string) (string, error) {
	query, args, err := s.g.From(table).Prepared(true).
		Select("id").
		Where(goqu.C("name").Eq(name)).
		ToSQL()
	if err != nil {
		return "", err
	}

	var id string
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
		return "", err
	}
	return id, nil
}
