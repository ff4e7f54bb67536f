package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"

	"github.com/jhakala/libris/internal/types"
)

// AddBook inserts one normalized book record and links it to deduplicated
// author and category rows, all inside a single transaction. A record
// without a title or ISBN is rejected before any write. An ISBN already in
// the catalog surfaces as ErrDuplicateISBN with nothing persisted.
func (s *Store) AddBook(ctx context.Context, rec *types.BookRecord) (string, error) {
	if strings.TrimSpace(rec.Title) == "" {
		return "", ErrMissingTitle
	}
	isbn := strings.TrimSpace(rec.ISBN)
	if isbn == "" {
		return "", ErrMissingISBN
	}

	bookID := uuid.NewString()

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if err := s.insertBook(ctx, tx, bookID, isbn, rec); err != nil {
			return err
		}
		if err := s.linkNames(ctx, tx, bookID, KindAuthor, rec.Authors); err != nil {
			return err
		}
		return s.linkNames(ctx, tx, bookID, KindCategory, rec.Categories)
	})
	if err != nil {
		return "", err
	}

	s.l.InfoContext(ctx, "Added book to catalog", "title", rec.Title, "isbn", isbn)
	return bookID, nil
}

func (s *Store) insertBook(ctx context.Context, tx *sql.Tx, bookID, isbn string, rec *types.BookRecord) error {
	query, args, err := s.g.Insert("books").Prepared(true).
		Rows(goqu.Record{
			"id":              bookID,
			"title":           rec.Title,
			"publisher":       rec.Publisher,
			"published_date":  rec.PublishedDate,
			"description":     rec.Description,
			"page_count":      rec.PageCount,
			"print_type":      rec.PrintType,
			"language":        rec.Language,
			"info_link":       rec.InfoLink,
			"small_thumbnail": rec.SmallThumbnail,
			"isbn":            isbn,
		}).
		OnConflict(goqu.DoNothing()).
		ToSQL()
	if err != nil {
		return err
	}

	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to insert book %q: %w", rec.Title, err)
	}

	// The insert is OR IGNORE against UNIQUE(isbn); zero affected rows means
	// the ISBN is already present and the whole unit of work backs out.
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("isbn %s: %w", isbn, ErrDuplicateISBN)
	}
	return nil
}

// linkNames resolves each distinct trimmed name and inserts the association
// row. Duplicate names within the list collapse to one link; empty names are
// dropped. Link inserts are OR IGNORE so re-linking an existing pair is a
// no-op.
func (s *Store) linkNames(ctx context.Context, tx *sql.Tx, bookID string, kind EntityKind, names []string) error {
	linkTable, linkCol := "book_authors", "author_id"
	if kind == KindCategory {
		linkTable, linkCol = "book_categories", "category_id"
	}

	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		trimmed := strings.TrimSpace(name)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}

		id, err := s.resolveTx(ctx, tx, kind, trimmed)
		if err != nil {
			return err
		}

		query, args, err := s.g.Insert(linkTable).Prepared(true).
			Rows(goqu.Record{"book_id": bookID, linkCol: id}).
			OnConflict(goqu.DoNothing()).
			ToSQL()
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("failed to link %s %q: %w", string(kind), trimmed, err)
		}
	}
	return nil
}

// HasISBN reports whether a book with the given ISBN is already stored.
func (s *Store) HasISBN(ctx context.Context, isbn string) (bool, error) {
	query, args, err := s.g.From("books").Prepared(true).
		Select(goqu.COUNT("*")).
		Where(goqu.C("isbn").Eq(strings.TrimSpace(isbn))).
		ToSQL()
	if err != nil {
		return false, err
	}

	var n int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return false, fmt.Errorf("failed to check isbn: %w", err)
	}
	return n > 0, nil
}

// KnownISBNs returns every stored ISBN. Batch imports load this once up
// front instead of probing per item.
func (s *Store) KnownISBNs(ctx context.Context) (map[string]struct{}, error) {
	query, _, err := s.g.From("books").Select("isbn").ToSQL()
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list isbns: %w", err)
	}
	defer func() { _ = rows.Close() }()

	known := make(map[string]struct{})
	for rows.Next() {
		var isbn string
		if err := rows.Scan(&isbn); err != nil {
			return nil, err
		}
		known[isbn] = struct{}{}
	}
	return known, rows.Err()
}
