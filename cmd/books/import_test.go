package books

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	apierrors "github.com/jhakala/libris/internal/errors"
	"github.com/jhakala/libris/internal/store"
	"github.com/jhakala/libris/internal/testutil"
	"github.com/jhakala/libris/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFetcher struct {
	records     map[string]*types.BookRecord
	rateLimited bool
	calls       int
}

func (f *fakeFetcher) FetchByISBN(ctx context.Context, isbn string) (*types.BookRecord, error) {
	f.calls++
	if f.rateLimited {
		return nil, apierrors.NewRateLimitError("slow down")
	}
	rec, ok := f.records[isbn]
	if !ok {
		return nil, apierrors.NewNotFoundError("ISBN " + isbn)
	}
	// Copy so the importer can fill the description without mutating fixtures
	c := *rec
	return &c, nil
}

type fakeSummarizer struct {
	summary string
	err     error
	calls   int
}

func (f *fakeSummarizer) Summarize(ctx context.Context, title string, authors []string) (string, error) {
	f.calls++
	return f.summary, f.err
}

func newTestStore(t *testing.T, env *testutil.TestEnv) *store.Store {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	st, err := store.Open(env.Path("catalog.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func duneRecord() *types.BookRecord {
	return &types.BookRecord{
		ISBN:          "9780441013593",
		Title:         "Dune",
		Publisher:     "Ace",
		PublishedDate: "2005-08-02",
		Description:   "Paul Atreides on the desert planet Arrakis.",
		Language:      "en",
		Authors:       []string{"Frank Herbert"},
		Categories:    []string{"Science Fiction"},
	}
}

func TestImportISBNs(t *testing.T) {
	testutil.ResetConfig(t)
	env := testutil.NewTestEnv(t)
	testutil.SetupSnapshotDir(t, env)
	st := newTestStore(t, env)

	fetcher := &fakeFetcher{records: map[string]*types.BookRecord{
		"9780441013593": duneRecord(),
		"9780060512804": {
			ISBN:    "9780060512804",
			Title:   "The Dispossessed",
			Authors: []string{"Ursula K. Le Guin"},
		},
	}}
	summarizer := &fakeSummarizer{summary: "An ambiguous utopia."}

	stats, err := ImportISBNs(context.Background(), st, fetcher, summarizer,
		[]string{"978-0-441-01359-3", "9780060512804"})
	require.NoError(t, err)

	assert.Equal(t, 2, stats.Processed)
	assert.Equal(t, 2, stats.Imported)
	assert.Equal(t, 0, stats.Skipped)
	assert.Equal(t, 0, stats.Failed)

	// Dune already had a description, only the second book needed a summary
	assert.Equal(t, 1, summarizer.calls)

	sum, err := st.GetSummary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, sum.Books)

	// Snapshot files land in the data directory, one per ISBN
	env.RequireFileExists("snapshots/9780441013593.json")
	env.RequireFileExists("snapshots/9780060512804.json")

	var snap types.BookRecord
	require.NoError(t, json.Unmarshal(env.ReadFile("snapshots/9780060512804.json"), &snap))
	assert.Equal(t, "The Dispossessed", snap.Title)
	assert.Equal(t, "An ambiguous utopia.", snap.Description)

	// The snapshot is the full record as it came back from the API
	golden := testutil.NewGoldenHelper(t, "testdata")
	golden.AssertGoldenJSON("dune_snapshot.golden", env.ReadFile("snapshots/9780441013593.json"))
}

func TestImportISBNsSkipsKnown(t *testing.T) {
	testutil.ResetConfig(t)
	env := testutil.NewTestEnv(t)
	testutil.SetupSnapshotDir(t, env)
	st := newTestStore(t, env)

	_, err := st.AddBook(context.Background(), duneRecord())
	require.NoError(t, err)

	fetcher := &fakeFetcher{records: map[string]*types.BookRecord{
		"9780441013593": duneRecord(),
	}}

	stats, err := ImportISBNs(context.Background(), st, fetcher, nil, []string{"9780441013593"})
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Processed)
	assert.Equal(t, 1, stats.Skipped)
	assert.Equal(t, 0, stats.Imported)
	// Known ISBNs are skipped before any API call
	assert.Equal(t, 0, fetcher.calls)
}

func TestImportISBNsDuplicateInBatch(t *testing.T) {
	testutil.ResetConfig(t)
	env := testutil.NewTestEnv(t)
	testutil.SetupSnapshotDir(t, env)
	st := newTestStore(t, env)

	fetcher := &fakeFetcher{records: map[string]*types.BookRecord{
		"9780441013593": duneRecord(),
	}}

	stats, err := ImportISBNs(context.Background(), st, fetcher, nil,
		[]string{"9780441013593", "978-0-441-01359-3"})
	require.NoError(t, err)

	assert.Equal(t, 2, stats.Processed)
	assert.Equal(t, 1, stats.Imported)
	assert.Equal(t, 1, stats.Skipped)
	assert.Equal(t, 1, fetcher.calls)
}

func TestImportISBNsNotFoundContinues(t *testing.T) {
	testutil.ResetConfig(t)
	env := testutil.NewTestEnv(t)
	testutil.SetupSnapshotDir(t, env)
	st := newTestStore(t, env)

	fetcher := &fakeFetcher{records: map[string]*types.BookRecord{
		"9780441013593": duneRecord(),
	}}

	stats, err := ImportISBNs(context.Background(), st, fetcher, nil,
		[]string{"0000000000", "9780441013593"})
	require.NoError(t, err)

	assert.Equal(t, 2, stats.Processed)
	assert.Equal(t, 1, stats.Failed)
	assert.Equal(t, 1, stats.Imported)
}

func TestImportISBNsRateLimitAborts(t *testing.T) {
	testutil.ResetConfig(t)
	env := testutil.NewTestEnv(t)
	testutil.SetupSnapshotDir(t, env)
	st := newTestStore(t, env)

	fetcher := &fakeFetcher{rateLimited: true}

	stats, err := ImportISBNs(context.Background(), st, fetcher, nil,
		[]string{"9780441013593", "9780060512804"})
	require.Error(t, err)
	require.True(t, apierrors.IsRateLimitError(err))

	// The run stops on the first rate limit answer
	assert.Equal(t, 1, stats.Processed)
	assert.Equal(t, 1, fetcher.calls)
}

func TestImportISBNsSummarizerFailureNonFatal(t *testing.T) {
	testutil.ResetConfig(t)
	env := testutil.NewTestEnv(t)
	testutil.SetupSnapshotDir(t, env)
	st := newTestStore(t, env)

	fetcher := &fakeFetcher{records: map[string]*types.BookRecord{
		"9780060512804": {
			ISBN:    "9780060512804",
			Title:   "The Dispossessed",
			Authors: []string{"Ursula K. Le Guin"},
		},
	}}
	summarizer := &fakeSummarizer{err: assert.AnError}

	stats, err := ImportISBNs(context.Background(), st, fetcher, summarizer, []string{"9780060512804"})
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Imported)

	var snap types.BookRecord
	require.NoError(t, json.Unmarshal(env.ReadFile("snapshots/9780060512804.json"), &snap))
	assert.Empty(t, snap.Description)
}

func TestImportISBNsCountsUnusableEntries(t *testing.T) {
	testutil.ResetConfig(t)
	env := testutil.NewTestEnv(t)
	testutil.SetupSnapshotDir(t, env)
	st := newTestStore(t, env)

	fetcher := &fakeFetcher{records: map[string]*types.BookRecord{
		"9780441013593": duneRecord(),
	}}

	stats, err := ImportISBNs(context.Background(), st, fetcher, nil,
		[]string{"", "  ", "- -", "9780441013593"})
	require.NoError(t, err)

	// Every input entry is accounted for in the totals
	assert.Equal(t, 4, stats.Processed)
	assert.Equal(t, 3, stats.Failed)
	assert.Equal(t, 1, stats.Imported)
	assert.Equal(t, 1, fetcher.calls)
}

func TestLoadISBNsFromCSV(t *testing.T) {
	env := testutil.NewTestEnv(t)

	env.WriteFileString("isbns.csv", "isbn\n9780441013593\n  9780060512804 \n\n978-951-1-23456-7\n")

	isbns, err := LoadISBNsFromCSV(env.Path("isbns.csv"))
	require.NoError(t, err)

	assert.Equal(t, []string{"9780441013593", "9780060512804", "978-951-1-23456-7"}, isbns)
}

func TestLoadISBNsFromCSVMissingFile(t *testing.T) {
	_, err := LoadISBNsFromCSV("/nonexistent/isbns.csv")
	require.Error(t, err)
}
