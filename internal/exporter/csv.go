// Package exporter writes deal tables and aggregation series as CSV, either
// streamed to an HTTP response or saved under the exports directory.
package exporter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"dealpulse/internal/dataprocessing"
	"dealpulse/internal/workbook"
	"dealpulse/pkg/contracts/domain"
)

// CSVWriter provides CSV export functionality
type CSVWriter struct {
	exportsDir string
	logger     *slog.Logger
}

// NewCSVWriter creates a new CSV writer instance
func NewCSVWriter(logger *slog.Logger, exportsDir string) *CSVWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CSVWriter{
		exportsDir: exportsDir,
		logger:     logger.With(slog.String("component", "csv_exporter")),
	}
}

// WriteOptions configures CSV writing behavior
type WriteOptions struct {
	Headers   []string
	Records   [][]string
	BOMPrefix bool // Add UTF-8 BOM for Excel compatibility
}

// Write streams a CSV table to w.
func (c *CSVWriter) Write(w io.Writer, options WriteOptions) error {
	if options.BOMPrefix {
		if _, err := w.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
			return fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(w)
	defer writer.Flush()

	if len(options.Headers) > 0 {
		if err := writer.Write(options.Headers); err != nil {
			return fmt.Errorf("failed to write headers: %w", err)
		}
	}

	for i, record := range options.Records {
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}

	return writer.Error()
}

// WriteFile writes a CSV table into the exports directory and returns the
// full path.
func (c *CSVWriter) WriteFile(filename string, options WriteOptions) (string, error) {
	if err := os.MkdirAll(c.exportsDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create exports directory: %w", err)
	}

	fullPath := filepath.Join(c.exportsDir, filename)
	file, err := os.Create(fullPath)
	if err != nil {
		return "", fmt.Errorf("failed to create export file: %w", err)
	}
	defer file.Close()

	if err := c.Write(file, options); err != nil {
		return "", err
	}

	c.logger.Info("export written",
		slog.String("path", fullPath),
		slog.Int("record_count", len(options.Records)))

	return fullPath, nil
}

// WriteJSONFile writes an indented JSON document into the exports directory
// and returns the full path.
func (c *CSVWriter) WriteJSONFile(filename string, v any) (string, error) {
	if err := os.MkdirAll(c.exportsDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create exports directory: %w", err)
	}

	fullPath := filepath.Join(c.exportsDir, filename)
	file, err := os.Create(fullPath)
	if err != nil {
		return "", fmt.Errorf("failed to create export file: %w", err)
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return "", fmt.Errorf("failed to encode export: %w", err)
	}

	c.logger.Info("export written", slog.String("path", fullPath))
	return fullPath, nil
}

// DealTable builds the CSV shape of one category's records using the sheet
// layout, so exports match the workbook column for column.
func DealTable(kind domain.DealKind, layout domain.SheetLayout, records []domain.DealRecord) WriteOptions {
	if len(layout.Columns) == 0 {
		layout = workbook.DefaultLayout(kind)
	}

	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, workbook.Row(r, layout.Columns, kind))
	}

	return WriteOptions{
		Headers:   layout.Columns,
		Records:   rows,
		BOMPrefix: true,
	}
}

// SeriesTable builds the CSV shape of an aggregation series.
func SeriesTable(keyHeader string, series []dataprocessing.AggregationResult) WriteOptions {
	rows := make([][]string, 0, len(series))
	for _, r := range series {
		rows = append(rows, []string{
			r.Key,
			strconv.FormatFloat(r.TotalAmount, 'f', -1, 64),
			strconv.Itoa(r.Count),
			strconv.Itoa(r.DisclosedCount),
		})
	}

	return WriteOptions{
		Headers:   []string{keyHeader, "Total Value", "Deal Count", "Disclosed Count"},
		Records:   rows,
		BOMPrefix: true,
	}
}
