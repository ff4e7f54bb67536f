// Package authors implements the enrichment pass that fills biographical
// fields for authors the import pipeline created as bare names.
package authors

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jhakala/libris/internal/agent"
	"github.com/jhakala/libris/internal/config"
	"github.com/jhakala/libris/internal/store"
	"github.com/jhakala/libris/internal/types"
)

// Lookup answers biographical questions about one author by name.
type Lookup interface {
	LookupAuthor(ctx context.Context, name string) (*types.AuthorDetails, error)
}

// Stats counts the outcomes of one enrichment run.
type Stats struct {
	Processed int
	Updated   int
	Skipped   int
	Failed    int
}

// EnrichWithParams runs the enrichment pass against the configured catalog.
func EnrichWithParams(ctx context.Context) error {
	st, err := store.Open(config.CatalogDBFile, slog.Default())
	if err != nil {
		return fmt.Errorf("opening catalog: %w", err)
	}
	defer func() { _ = st.Close() }()

	a, err := agent.New()
	if err != nil {
		return err
	}

	stats, err := EnrichAuthors(ctx, st, a)
	if stats != nil {
		slog.Info("Enrichment finished",
			"processed", stats.Processed,
			"updated", stats.Updated,
			"skipped", stats.Skipped,
			"failed", stats.Failed)
	}
	return err
}

// EnrichAuthors looks up every author whose details are still missing and
// merges what the agent knows. Per-author failures are logged and counted,
// never fatal: the next run retries them.
func EnrichAuthors(ctx context.Context, st *store.Store, lookup Lookup) (*Stats, error) {
	refs, err := st.AuthorsMissingDetails(ctx)
	if err != nil {
		return nil, err
	}

	stats := &Stats{}

	if len(refs) == 0 {
		slog.Info("No authors to enrich")
		return stats, nil
	}

	for _, ref := range refs {
		stats.Processed++
		slog.Info("Processing author", "author", ref.Name)

		details, err := lookup.LookupAuthor(ctx, ref.Name)
		if err != nil {
			slog.Error("Author lookup failed", "author", ref.Name, "error", err)
			stats.Failed++
			continue
		}

		if details.Empty() {
			slog.Warn("Agent knows nothing about author", "author", ref.Name)
			stats.Skipped++
			continue
		}

		if err := st.MergeAuthor(ctx, ref.ID, details); err != nil {
			slog.Error("Failed to merge author details", "author", ref.Name, "error", err)
			stats.Failed++
			continue
		}

		stats.Updated++
	}

	return stats, nil
}
