package domain

import "fmt"

// DealKind identifies one of the three record collections backing the
// dashboard. Each kind maps to a named worksheet in the source workbook.
type DealKind string

const (
	DealKindMA         DealKind = "ma"
	DealKindInvestment DealKind = "investment"
	DealKindIPO        DealKind = "ipo"
)

// DealKinds lists all kinds in their canonical presentation order.
var DealKinds = []DealKind{DealKindMA, DealKindInvestment, DealKindIPO}

// Valid reports whether the kind is one of the known collections.
func (k DealKind) Valid() bool {
	switch k {
	case DealKindMA, DealKindInvestment, DealKindIPO:
		return true
	}
	return false
}

// ParseDealKind converts a URL/query token into a DealKind.
func ParseDealKind(s string) (DealKind, error) {
	k := DealKind(s)
	if !k.Valid() {
		return "", fmt.Errorf("unknown deal kind %q", s)
	}
	return k, nil
}

// DealRecord is one row of source data. The common fields are mapped from
// well-known workbook columns; everything else is carried through untouched
// in Extra so kind-specific columns (deal type, funding type, lead investors,
// conference tag) survive a load/save round trip.
type DealRecord struct {
	Kind        DealKind          `json:"kind"`
	Company     string            `json:"company" validate:"required"`
	Counterpart string            `json:"counterpart,omitempty"`
	RawAmount   string            `json:"raw_amount"`
	Quarter     string            `json:"quarter"`
	Sector      string            `json:"sector"`
	Description string            `json:"description,omitempty"`
	Extra       map[string]string `json:"extra,omitempty"`
}

// ExtraField returns a pass-through column value, or "" when absent.
func (r DealRecord) ExtraField(name string) string {
	if r.Extra == nil {
		return ""
	}
	return r.Extra[name]
}

// SheetLayout preserves the worksheet name and column order for one kind so
// the record sink can write the workbook back with the same shape it read.
type SheetLayout struct {
	Sheet   string   `json:"sheet"`
	Columns []string `json:"columns"`
}

// Dataset is the full in-memory record collection for all three kinds.
// It is a plain value: the workbook store hands out deep-enough copies and
// the pipeline never mutates what it is given.
type Dataset struct {
	MA         []DealRecord            `json:"ma"`
	Investment []DealRecord            `json:"investment"`
	IPO        []DealRecord            `json:"ipo"`
	Layouts    map[DealKind]SheetLayout `json:"layouts,omitempty"`
}

// Records returns the collection for kind. Unknown kinds yield nil; callers
// that reach the pipeline must substitute an empty slice, never nil maps.
func (d Dataset) Records(kind DealKind) []DealRecord {
	switch kind {
	case DealKindMA:
		return d.MA
	case DealKindInvestment:
		return d.Investment
	case DealKindIPO:
		return d.IPO
	}
	return nil
}

// SetRecords replaces the collection for kind.
func (d *Dataset) SetRecords(kind DealKind, records []DealRecord) {
	switch kind {
	case DealKindMA:
		d.MA = records
	case DealKindInvestment:
		d.Investment = records
	case DealKindIPO:
		d.IPO = records
	}
}

// TotalRows returns the row count across all collections.
func (d Dataset) TotalRows() int {
	return len(d.MA) + len(d.Investment) + len(d.IPO)
}
