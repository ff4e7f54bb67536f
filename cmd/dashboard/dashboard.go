// Package dashboard renders a read-only snapshot of the catalog in the
// terminal: headline counts plus the top authors, categories and languages.
package dashboard

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jhakala/libris/internal/config"
	"github.com/jhakala/libris/internal/store"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("214")).
			MarginBottom(1)

	sectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("110")).
			MarginTop(1)

	counterStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(0, 2).
			Align(lipgloss.Center)

	counterLabelStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("247"))

	rowStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	countStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("178"))
)

// Data is everything one dashboard render needs, fetched up front so the
// render itself cannot fail.
type Data struct {
	Summary    *store.Summary
	TopAuthors []store.NameCount
	Categories []store.NameCount
	Languages  []store.NameCount
}

// ShowWithParams collects catalog statistics and prints the dashboard.
func ShowWithParams(ctx context.Context, limit int) error {
	st, err := store.Open(config.CatalogDBFile, slog.Default())
	if err != nil {
		return fmt.Errorf("opening catalog: %w", err)
	}
	defer func() { _ = st.Close() }()

	data, err := Collect(ctx, st, limit)
	if err != nil {
		return err
	}

	fmt.Println(Render(data))
	return nil
}

// Collect gathers the dashboard queries. limit caps the per-section row count.
func Collect(ctx context.Context, st *store.Store, limit int) (*Data, error) {
	summary, err := st.GetSummary(ctx)
	if err != nil {
		return nil, err
	}

	topAuthors, err := st.TopAuthors(ctx, limit)
	if err != nil {
		return nil, err
	}

	categories, err := st.CategoryCounts(ctx, limit)
	if err != nil {
		return nil, err
	}

	languages, err := st.LanguageCounts(ctx)
	if err != nil {
		return nil, err
	}

	return &Data{
		Summary:    summary,
		TopAuthors: topAuthors,
		Categories: categories,
		Languages:  languages,
	}, nil
}

// Render lays the dashboard out as a single string.
func Render(d *Data) string {
	header := headerStyle.Render("Library Catalog")

	counters := lipgloss.JoinHorizontal(lipgloss.Top,
		counter("books", strconv.Itoa(d.Summary.Books)),
		counter("authors", strconv.Itoa(d.Summary.Authors)),
		counter("categories", strconv.Itoa(d.Summary.Categories)),
		counter("avg pages", fmt.Sprintf("%.0f", d.Summary.AvgPages)),
		counter("max pages", strconv.Itoa(d.Summary.MaxPages)),
	)

	sections := []string{
		header,
		counters,
		section("Top authors", d.TopAuthors),
		section("Categories", d.Categories),
		section("Languages", d.Languages),
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func counter(label, value string) string {
	content := lipgloss.JoinVertical(lipgloss.Center,
		value,
		counterLabelStyle.Render(label),
	)
	return counterStyle.Render(content)
}

func section(title string, rows []store.NameCount) string {
	lines := []string{sectionStyle.Render(title)}

	if len(rows) == 0 {
		lines = append(lines, rowStyle.Render("  (none)"))
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	nameWidth := 0
	for _, row := range rows {
		if w := lipgloss.Width(row.Name); w > nameWidth {
			nameWidth = w
		}
	}

	for _, row := range rows {
		padded := row.Name + strings.Repeat(" ", nameWidth-lipgloss.Width(row.Name))
		lines = append(lines, fmt.Sprintf("  %s  %s",
			rowStyle.Render(padded),
			countStyle.Render(strconv.Itoa(row.Books))))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}
