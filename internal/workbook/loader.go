// Package workbook reads and writes the deal workbook: one xlsx file with a
// sheet per deal category. The loader parses sheets into domain records and
// the store keeps the live dataset with concurrency-safe access.
package workbook

import (
	"bytes"
	"fmt"
	"log/slog"
	"strings"

	"github.com/xuri/excelize/v2"

	"dealpulse/pkg/contracts/domain"
)

// Sheet names in the deal workbook.
const (
	SheetMA         = "YTD M&A Activity"
	SheetInvestment = "YTD Investment Activity"
	SheetIPO        = "YTD IPO"
)

// Well-known column headers. Anything else in a sheet is carried through
// untouched in the record's Extra map.
const (
	ColumnCompany     = "Company"
	ColumnAcquirer    = "Acquirer"
	ColumnQuarter     = "Quarter"
	ColumnSector      = "Sector"
	ColumnDescription = "Description"

	ColumnDealValue    = "Deal Value"
	ColumnAmountRaised = "Amount Raised"
	ColumnAmount       = "Amount"
)

// ValueUndisclosed is substituted for blank cells when a sheet is parsed.
const ValueUndisclosed = "Undisclosed"

// SheetName returns the workbook sheet holding the given deal category.
func SheetName(kind domain.DealKind) string {
	switch kind {
	case domain.DealKindMA:
		return SheetMA
	case domain.DealKindInvestment:
		return SheetInvestment
	case domain.DealKindIPO:
		return SheetIPO
	}
	return ""
}

// AmountColumn returns the header of the value column for a deal category.
func AmountColumn(kind domain.DealKind) string {
	switch kind {
	case domain.DealKindMA:
		return ColumnDealValue
	case domain.DealKindInvestment:
		return ColumnAmountRaised
	case domain.DealKindIPO:
		return ColumnAmount
	}
	return ColumnAmount
}

// CounterpartColumn returns the header of the counterpart column, or "" when
// the category has none.
func CounterpartColumn(kind domain.DealKind) string {
	if kind == domain.DealKindMA {
		return ColumnAcquirer
	}
	return ""
}

// Loader parses deal workbooks.
type Loader struct {
	logger *slog.Logger
}

// NewLoader creates a workbook loader.
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		logger: logger.With(slog.String("component", "workbook_loader")),
	}
}

// Load opens and parses the workbook at path.
func (l *Loader) Load(path string) (*domain.Dataset, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook %s: %w", path, err)
	}
	defer f.Close()

	ds, err := l.parse(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse workbook %s: %w", path, err)
	}
	return ds, nil
}

// LoadBytes parses a workbook from raw xlsx content, as received in uploads.
func (l *Loader) LoadBytes(content []byte) (*domain.Dataset, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("failed to open uploaded workbook: %w", err)
	}
	defer f.Close()

	ds, err := l.parse(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse uploaded workbook: %w", err)
	}
	return ds, nil
}

func (l *Loader) parse(f *excelize.File) (*domain.Dataset, error) {
	ds := &domain.Dataset{
		Layouts: make(map[domain.DealKind]domain.SheetLayout),
	}

	for _, kind := range domain.DealKinds {
		records, layout, err := l.parseSheet(f, kind)
		if err != nil {
			return nil, err
		}
		ds.SetRecords(kind, records)
		ds.Layouts[kind] = layout
	}

	return ds, nil
}

// parseSheet reads one category sheet. The first row is the header; its
// column order is preserved in the returned layout so saves and exports can
// reproduce the original table shape.
func (l *Loader) parseSheet(f *excelize.File, kind domain.DealKind) ([]domain.DealRecord, domain.SheetLayout, error) {
	sheet := SheetName(kind)
	layout := domain.SheetLayout{Sheet: sheet}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, layout, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
	}
	if len(rows) == 0 {
		l.logger.Warn("sheet is empty",
			slog.String("sheet", sheet))
		return []domain.DealRecord{}, layout, nil
	}

	header := rows[0]
	columns := make([]string, 0, len(header))
	for _, h := range header {
		columns = append(columns, strings.TrimSpace(h))
	}
	layout.Columns = columns

	amountCol := AmountColumn(kind)
	counterpartCol := CounterpartColumn(kind)

	records := make([]domain.DealRecord, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if isBlankRow(row) {
			continue
		}

		record := domain.DealRecord{Kind: kind}
		for i, col := range columns {
			var value string
			if i < len(row) {
				value = strings.TrimSpace(row[i])
			}
			// Blank cells read as "Undisclosed", like the dashboards the
			// workbook feeds render them.
			if value == "" {
				value = ValueUndisclosed
			}

			switch {
			case strings.EqualFold(col, ColumnCompany):
				record.Company = value
			case counterpartCol != "" && strings.EqualFold(col, counterpartCol):
				record.Counterpart = value
			case strings.EqualFold(col, amountCol):
				record.RawAmount = value
			case strings.EqualFold(col, ColumnQuarter):
				record.Quarter = value
			case strings.EqualFold(col, ColumnSector):
				record.Sector = value
			case strings.EqualFold(col, ColumnDescription):
				record.Description = value
			case col != "":
				if record.Extra == nil {
					record.Extra = make(map[string]string)
				}
				record.Extra[col] = value
			}
		}

		records = append(records, record)
	}

	l.logger.Debug("sheet parsed",
		slog.String("sheet", sheet),
		slog.Int("records", len(records)),
		slog.Int("columns", len(columns)))

	return records, layout, nil
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// columnValue maps a record back onto a sheet column for saving and export.
func columnValue(r domain.DealRecord, col string, kind domain.DealKind) string {
	switch {
	case strings.EqualFold(col, ColumnCompany):
		return r.Company
	case CounterpartColumn(kind) != "" && strings.EqualFold(col, CounterpartColumn(kind)):
		return r.Counterpart
	case strings.EqualFold(col, AmountColumn(kind)):
		return r.RawAmount
	case strings.EqualFold(col, ColumnQuarter):
		return r.Quarter
	case strings.EqualFold(col, ColumnSector):
		return r.Sector
	case strings.EqualFold(col, ColumnDescription):
		return r.Description
	default:
		return r.ExtraField(col)
	}
}

// Row maps a record onto the given columns in order, for workbook saves and
// tabular exports.
func Row(r domain.DealRecord, columns []string, kind domain.DealKind) []string {
	out := make([]string, len(columns))
	for i, col := range columns {
		out[i] = columnValue(r, col, kind)
	}
	return out
}

// DefaultLayout is used when a dataset carries no layout for a category,
// e.g. records appended programmatically.
func DefaultLayout(kind domain.DealKind) domain.SheetLayout {
	columns := []string{ColumnCompany}
	if c := CounterpartColumn(kind); c != "" {
		columns = append(columns, c)
	}
	columns = append(columns, AmountColumn(kind), ColumnQuarter, ColumnSector)
	return domain.SheetLayout{Sheet: SheetName(kind), Columns: columns}
}
