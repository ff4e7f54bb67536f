// Package books implements the ISBN import pipeline: fetch metadata from
// Google Books, fill in a missing description, and upsert into the catalog.
package books

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/jhakala/libris/internal/agent"
	"github.com/jhakala/libris/internal/config"
	"github.com/jhakala/libris/internal/csvutil"
	apierrors "github.com/jhakala/libris/internal/errors"
	"github.com/jhakala/libris/internal/googlebooks"
	"github.com/jhakala/libris/internal/store"
	"github.com/jhakala/libris/internal/types"
)

// Fetcher looks up one book by ISBN.
type Fetcher interface {
	FetchByISBN(ctx context.Context, isbn string) (*types.BookRecord, error)
}

// Summarizer writes a fallback description for books that arrive without one.
type Summarizer interface {
	Summarize(ctx context.Context, title string, authors []string) (string, error)
}

// Stats counts the outcomes of one import run.
type Stats struct {
	Processed int
	Imported  int
	Skipped   int
	Failed    int
}

// ImportWithParams runs a full import: ISBNs given directly plus ISBNs
// loaded from an optional CSV file. A missing Gemini key only disables
// summary generation, never the import.
func ImportWithParams(ctx context.Context, isbns []string, csvFile string) error {
	if csvFile != "" {
		fromCSV, err := LoadISBNsFromCSV(csvFile)
		if err != nil {
			return fmt.Errorf("loading ISBNs from %s: %w", csvFile, err)
		}
		isbns = append(isbns, fromCSV...)
	}

	if len(isbns) == 0 {
		return fmt.Errorf("no ISBNs to import")
	}

	st, err := store.Open(config.CatalogDBFile, slog.Default())
	if err != nil {
		return fmt.Errorf("opening catalog: %w", err)
	}
	defer func() { _ = st.Close() }()

	var summarizer Summarizer
	if config.GeminiAPIKey != "" {
		a, err := agent.New()
		if err != nil {
			return err
		}
		summarizer = a
	} else {
		slog.Warn("Gemini API key not set, missing descriptions stay empty")
	}

	stats, err := ImportISBNs(ctx, st, googlebooks.NewClient(), summarizer, isbns)
	if stats != nil {
		slog.Info("Import finished",
			"processed", stats.Processed,
			"imported", stats.Imported,
			"skipped", stats.Skipped,
			"failed", stats.Failed)
	}
	return err
}

// ImportISBNs imports each ISBN in turn. Per-book failures are logged and
// counted, not fatal; a rate limit response aborts the run so the API is
// not hammered further.
func ImportISBNs(ctx context.Context, st *store.Store, fetcher Fetcher, summarizer Summarizer, isbns []string) (*Stats, error) {
	known, err := st.KnownISBNs(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing known ISBNs: %w", err)
	}

	stats := &Stats{}

	for _, raw := range isbns {
		stats.Processed++

		isbn := googlebooks.NormalizeISBN(raw)
		if isbn == "" {
			slog.Warn("Entry has no usable ISBN", "entry", raw)
			stats.Failed++
			continue
		}

		if _, ok := known[isbn]; ok {
			slog.Info("ISBN already in catalog, skipping", "isbn", isbn)
			stats.Skipped++
			continue
		}

		rec, err := fetcher.FetchByISBN(ctx, isbn)
		if err != nil {
			if apierrors.IsRateLimitError(err) {
				return stats, fmt.Errorf("rate limited, aborting import: %w", err)
			}
			if apierrors.IsNotFoundError(err) {
				slog.Warn("No volume found for ISBN", "isbn", isbn)
			} else {
				slog.Error("Failed to fetch book data", "isbn", isbn, "error", err)
			}
			stats.Failed++
			continue
		}

		slog.Info("Processing book", "title", rec.Title, "authors", strings.Join(rec.Authors, ", "))

		if strings.TrimSpace(rec.Description) == "" && summarizer != nil {
			slog.Warn("Generating summary", "title", rec.Title)
			summary, err := summarizer.Summarize(ctx, rec.Title, rec.Authors)
			if err != nil {
				slog.Warn("Summary generation failed", "title", rec.Title, "error", err)
			} else if summary == "" {
				slog.Warn("Summary generation returned empty", "title", rec.Title)
			} else {
				rec.Description = summary
			}
		}

		if _, err := st.AddBook(ctx, rec); err != nil {
			if errors.Is(err, store.ErrDuplicateISBN) {
				slog.Info("ISBN already in catalog, skipping", "isbn", isbn)
				stats.Skipped++
				continue
			}
			slog.Error("Failed to store book", "isbn", isbn, "error", err)
			stats.Failed++
			continue
		}

		known[isbn] = struct{}{}
		stats.Imported++
		slog.Info("Added book to catalog", "title", rec.Title, "isbn", isbn)

		if err := writeSnapshot(rec); err != nil {
			// The book is already stored, a missing snapshot is not fatal
			slog.Warn("Failed to write response snapshot", "isbn", isbn, "error", err)
		}
	}

	return stats, nil
}

// LoadISBNsFromCSV reads ISBNs from the first column of a CSV file with a
// header row. Blank rows are skipped.
func LoadISBNsFromCSV(filename string) ([]string, error) {
	return csvutil.FirstColumn(filename)
}

// writeSnapshot stores the fetched record as JSON under the data directory,
// one file per ISBN.
func writeSnapshot(rec *types.BookRecord) error {
	if config.DataDir == "" {
		return nil
	}

	if err := os.MkdirAll(config.DataDir, 0o755); err != nil {
		return fmt.Errorf("creating snapshot directory: %w", err)
	}

	data, err := json.MarshalIndent(rec, "", "    ")
	if err != nil {
		return fmt.Errorf("marshaling snapshot: %w", err)
	}

	path := filepath.Join(config.DataDir, rec.ISBN+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}

	return nil
}
