package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	"github.com/georgysavva/scany/v2/sqlscan"

	"github.com/jhakala/libris/internal/types"
)

type authorRow struct {
	ID          string  `db:"id"`
	Name        string  `db:"name"`
	BirthDate   *string `db:"birth_date"`
	DeathDate   *string `db:"death_date"`
	Nationality *string `db:"nationality"`
	Sex         *string `db:"sex"`
	Bio         *string `db:"bio"`
	Link        *string `db:"author_link"`
}

func (r *authorRow) intoCommon() *types.Author {
	return &types.Author{
		ID:          r.ID,
		Name:        r.Name,
		BirthDate:   r.BirthDate,
		DeathDate:   r.DeathDate,
		Nationality: r.Nationality,
		Sex:         r.Sex,
		Bio:         r.Bio,
		Link:        r.Link,
	}
}

// MergeAuthor applies a partial biographical update to an existing author,
// filling only columns that are currently NULL. Nil fields are left alone,
// so a best-effort lookup can never clobber data a previous pass stored.
// An all-nil update succeeds without touching the row.
func (s *Store) MergeAuthor(ctx context.Context, id string, details *types.AuthorDetails) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		query, args, err := s.g.From("authors").Prepared(true).
			Select(goqu.COUNT("*")).
			Where(goqu.C("id").Eq(id)).
			ToSQL()
		if err != nil {
			return err
		}
		var n int
		if err := tx.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
			return fmt.Errorf("failed to look up author %s: %w", id, err)
		}
		if n == 0 {
			return fmt.Errorf("author %s: %w", id, ErrAuthorNotFound)
		}

		rec := mergeRecord(details)
		if len(rec) == 0 {
			s.l.DebugContext(ctx, "No new author details to merge", "author_id", id)
			return nil
		}

		query, args, err = s.g.Update("authors").Prepared(true).
			Set(rec).
			Where(goqu.C("id").Eq(id)).
			ToSQL()
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("failed to merge author %s: %w", id, err)
		}
		return nil
	})
}

// mergeRecord builds the SET clause for a merge: each provided field is
// wrapped in COALESCE(col, value) so a stored non-NULL value always wins.
func mergeRecord(details *types.AuthorDetails) goqu.Record {
	rec := goqu.Record{}
	if details == nil {
		return rec
	}

	fill := func(col string, v *string) {
		if v != nil {
			rec[col] = goqu.COALESCE(goqu.C(col), *v)
		}
	}

	fill("birth_date", details.BirthDate)
	fill("death_date", details.DeathDate)
	fill("nationality", details.Nationality)
	fill("bio", details.Bio)
	fill("author_link", details.Link)
	if details.Sex != nil {
		sex := types.NormalizeSex(*details.Sex)
		rec["sex"] = goqu.COALESCE(goqu.C("sex"), sex)
	}
	return rec
}

// GetAuthor fetches one author by id, or ErrAuthorNotFound.
func (s *Store) GetAuthor(ctx context.Context, id string) (*types.Author, error) {
	query, args, err := s.g.From("authors").Prepared(true).
		Where(goqu.C("id").Eq(id)).
		ToSQL()
	if err != nil {
		return nil, err
	}

	var row authorRow
	if err := sqlscan.Get(ctx, s.db, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("author %s: %w", id, ErrAuthorNotFound)
		}
		return nil, fmt.Errorf("failed to get author %s: %w", id, err)
	}
	return row.intoCommon(), nil
}

// AuthorRef is the id/name pair the enrichment pass iterates over.
type AuthorRef struct {
	ID   string `db:"id"`
	Name string `db:"name"`
}

// AuthorsMissingDetails lists authors that have never been enriched,
// detected by a NULL sex column the same way the first import leaves them.
func (s *Store) AuthorsMissingDetails(ctx context.Context) ([]AuthorRef, error) {
	query, _, err := s.g.From("authors").
		Select("id", "name").
		Where(goqu.C("sex").IsNull()).
		Order(goqu.C("name").Asc()).
		ToSQL()
	if err != nil {
		return nil, err
	}

	var refs []AuthorRef
	if err := sqlscan.Select(ctx, s.db, &refs, query); err != nil {
		return nil, fmt.Errorf("failed to list authors missing details: %w", err)
	}
	return refs, nil
}
