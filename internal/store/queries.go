package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/doug-martin/goqu/v9"
	"github.com/georgysavva/scany/v2/sqlscan"

	"github.com/jhakala/libris/internal/types"
)

// Summary holds the headline counts for the dashboard. Page figures
// cover only books with a known page count and are zero on an empty
// catalog.
type Summary struct {
	Books      int     `json:"books"`
	Authors    int     `json:"authors"`
	Categories int     `json:"categories"`
	AvgPages   float64 `json:"avg_pages"`
	MaxPages   int     `json:"max_pages"`
}

// NameCount is one row of a grouped count query.
type NameCount struct {
	Name  string `db:"name" json:"name"`
	Books int    `db:"books" json:"books"`
}

// BookListing is the flat row shape returned by book searches.
type BookListing struct {
	ID            string `db:"id" json:"id"`
	Title         string `db:"title" json:"title"`
	ISBN          string `db:"isbn" json:"isbn"`
	Publisher     string `db:"publisher" json:"publisher"`
	PublishedDate string `db:"published_date" json:"published_date"`
	Language      string `db:"language" json:"language"`
}

// GetSummary counts stored books, authors and categories.
func (s *Store) GetSummary(ctx context.Context) (*Summary, error) {
	var sum Summary
	for _, c := range []struct {
		table string
		dst   *int
	}{
		{"books", &sum.Books},
		{"authors", &sum.Authors},
		{"categories", &sum.Categories},
	} {
		query, _, err := s.g.From(c.table).Select(goqu.COUNT("*")).ToSQL()
		if err != nil {
			return nil, err
		}
		if err := s.db.QueryRowContext(ctx, query).Scan(c.dst); err != nil {
			return nil, fmt.Errorf("failed to count %s: %w", c.table, err)
		}
	}

	query, _, err := s.g.From("books").Select(
		goqu.COALESCE(goqu.AVG("page_count"), 0),
		goqu.COALESCE(goqu.MAX("page_count"), 0)).
		ToSQL()
	if err != nil {
		return nil, err
	}
	if err := s.db.QueryRowContext(ctx, query).Scan(&sum.AvgPages, &sum.MaxPages); err != nil {
		return nil, fmt.Errorf("failed to aggregate page counts: %w", err)
	}

	return &sum, nil
}

// TopAuthors returns authors ordered by how many books link to them.
func (s *Store) TopAuthors(ctx context.Context, limit int) ([]NameCount, error) {
	query, args, err := s.g.From("authors").Prepared(true).
		Join(goqu.T("book_authors"), goqu.On(goqu.I("authors.id").Eq(goqu.I("book_authors.author_id")))).
		Select(goqu.I("authors.name").As("name"), goqu.COUNT("*").As("books")).
		GroupBy(goqu.I("authors.name")).
		Order(goqu.I("books").Desc(), goqu.I("name").Asc()).
		Limit(uint(limit)).
		ToSQL()
	if err != nil {
		return nil, err
	}

	var rows []NameCount
	if err := sqlscan.Select(ctx, s.db, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to query top authors: %w", err)
	}
	return rows, nil
}

// CategoryCounts returns categories ordered by linked book count.
func (s *Store) CategoryCounts(ctx context.Context, limit int) ([]NameCount, error) {
	query, args, err := s.g.From("categories").Prepared(true).
		Join(goqu.T("book_categories"), goqu.On(goqu.I("categories.id").Eq(goqu.I("book_categories.category_id")))).
		Select(goqu.I("categories.name").As("name"), goqu.COUNT("*").As("books")).
		GroupBy(goqu.I("categories.name")).
		Order(goqu.I("books").Desc(), goqu.I("name").Asc()).
		Limit(uint(limit)).
		ToSQL()
	if err != nil {
		return nil, err
	}

	var rows []NameCount
	if err := sqlscan.Select(ctx, s.db, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to query category counts: %w", err)
	}
	return rows, nil
}

// LanguageCounts groups books by language code. Books without a language
// land in the "unknown" bucket.
func (s *Store) LanguageCounts(ctx context.Context) ([]NameCount, error) {
	lang := goqu.COALESCE(goqu.Func("NULLIF", goqu.C("language"), ""), "unknown")

	query, args, err := s.g.From("books").Prepared(true).
		Select(lang.As("name"), goqu.COUNT("*").As("books")).
		GroupBy(lang).
		Order(goqu.I("books").Desc(), goqu.I("name").Asc()).
		ToSQL()
	if err != nil {
		return nil, err
	}

	var rows []NameCount
	if err := sqlscan.Select(ctx, s.db, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to query language counts: %w", err)
	}
	return rows, nil
}

// SearchBooks filters books whose title matches every word of the query.
// Filter values always travel as bound parameters, never query text.
func (s *Store) SearchBooks(ctx context.Context, search string, limit int) ([]BookListing, error) {
	qb := s.g.From("books").Prepared(true).
		Select("id", "title", "isbn",
			goqu.COALESCE(goqu.C("publisher"), "").As("publisher"),
			goqu.COALESCE(goqu.C("published_date"), "").As("published_date"),
			goqu.COALESCE(goqu.C("language"), "").As("language")).
		Order(goqu.C("title").Asc()).
		Limit(uint(limit))

	for _, word := range searchWords(search) {
		qb = qb.Where(goqu.L("title LIKE ? ESCAPE '\\'", "%"+word+"%"))
	}

	query, args, err := qb.ToSQL()
	if err != nil {
		return nil, err
	}

	var rows []BookListing
	if err := sqlscan.Select(ctx, s.db, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to search books: %w", err)
	}
	return rows, nil
}

// SearchAuthors filters authors whose name matches every word of the query.
func (s *Store) SearchAuthors(ctx context.Context, search string, limit int) ([]*types.Author, error) {
	qb := s.g.From("authors").Prepared(true).
		Order(goqu.C("name").Asc()).
		Limit(uint(limit))

	for _, word := range searchWords(search) {
		qb = qb.Where(goqu.L("name LIKE ? ESCAPE '\\'", "%"+word+"%"))
	}

	query, args, err := qb.ToSQL()
	if err != nil {
		return nil, err
	}

	var rows []authorRow
	if err := sqlscan.Select(ctx, s.db, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to search authors: %w", err)
	}

	authors := make([]*types.Author, 0, len(rows))
	for _, row := range rows {
		authors = append(authors, row.intoCommon())
	}
	return authors, nil
}

// searchWords splits a free-form query and escapes LIKE metacharacters so
// user input only ever matches literally.
func searchWords(search string) []string {
	var words []string
	for _, word := range strings.Split(search, " ") {
		word = strings.ReplaceAll(strings.ReplaceAll(strings.ReplaceAll(strings.TrimSpace(word),
			"\\", "\\\\"),
			"_", "\\_"),
			"%", "\\%")
		if word != "" {
			words = append(words, word)
		}
	}
	return words
}
