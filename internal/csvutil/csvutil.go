// Package csvutil reads ISBN lists out of spreadsheet exports.
package csvutil

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// FirstColumn reads the first column of a CSV file, skipping the header
// row. Cells are whitespace-trimmed; blank cells and malformed rows are
// skipped with a warning so one bad row cannot sink a whole export.
func FirstColumn(filename string) ([]string, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("opening CSV file: %w", err)
	}
	defer func() { _ = f.Close() }()

	reader := csv.NewReader(f)
	// Exports often carry ragged rows, only the first column matters
	reader.FieldsPerRecord = -1

	if _, err := reader.Read(); err != nil {
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}

	var values []string
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			slog.Warn("Skipping malformed CSV row", "error", err)
			continue
		}

		value := strings.TrimSpace(record[0])
		if value == "" {
			slog.Warn("Skipping CSV row with an empty first column")
			continue
		}
		values = append(values, value)
	}

	return values, nil
}
