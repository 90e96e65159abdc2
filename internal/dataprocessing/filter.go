package dataprocessing

import (
	"strings"

	"dealpulse/pkg/contracts/domain"
)

// ConferenceColumn is the pass-through column that tags a deal with the
// conference it was announced at.
const ConferenceColumn = "Conference"

// FilterCriteria is an explicit, passed-in filter value object. It replaces
// the ambient UI session state the legacy dashboard kept: both the
// aggregator and the table views take it as a plain parameter.
//
// Empty fields match everything, so the zero value is "no filter".
type FilterCriteria struct {
	Periods    []string `json:"periods,omitempty"`
	Sectors    []string `json:"sectors,omitempty"`
	Conference string   `json:"conference,omitempty"`
	Search     string   `json:"search,omitempty"`
}

// IsZero reports whether the criteria match every record.
func (c FilterCriteria) IsZero() bool {
	return len(c.Periods) == 0 && len(c.Sectors) == 0 && c.Conference == "" && c.Search == ""
}

// Matches reports whether a record passes every populated criterion.
// Period values are compared by resolved PeriodKey so "q1 2025" matches
// "Q1 2025"; unresolvable period filters fall back to a case-insensitive
// string comparison.
func (c FilterCriteria) Matches(r domain.DealRecord) bool {
	if len(c.Periods) > 0 && !matchesPeriod(c.Periods, r.Quarter) {
		return false
	}
	if len(c.Sectors) > 0 && !containsFold(c.Sectors, r.Sector) {
		return false
	}
	if c.Conference != "" && !strings.EqualFold(strings.TrimSpace(c.Conference), strings.TrimSpace(r.ExtraField(ConferenceColumn))) {
		return false
	}
	if c.Search != "" && !matchesSearch(c.Search, r) {
		return false
	}
	return true
}

// Apply returns the records passing the criteria, preserving input order.
// The zero criteria return the input slice unchanged; the pipeline never
// mutates record collections, so sharing is safe.
func (c FilterCriteria) Apply(records []domain.DealRecord) []domain.DealRecord {
	if c.IsZero() {
		return records
	}
	out := make([]domain.DealRecord, 0, len(records))
	for _, r := range records {
		if c.Matches(r) {
			out = append(out, r)
		}
	}
	return out
}

func matchesPeriod(filters []string, quarter string) bool {
	key := ResolvePeriod(quarter)
	for _, f := range filters {
		fk := ResolvePeriod(f)
		if fk.IsUnknown() || key.IsUnknown() {
			if strings.EqualFold(strings.TrimSpace(f), strings.TrimSpace(quarter)) {
				return true
			}
			continue
		}
		if fk == key {
			return true
		}
	}
	return false
}

func containsFold(values []string, target string) bool {
	target = strings.TrimSpace(target)
	for _, v := range values {
		if strings.EqualFold(strings.TrimSpace(v), target) {
			return true
		}
	}
	return false
}

func matchesSearch(needle string, r domain.DealRecord) bool {
	needle = strings.ToLower(strings.TrimSpace(needle))
	if needle == "" {
		return true
	}
	for _, field := range []string{r.Company, r.Counterpart, r.Description, r.Sector} {
		if strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	return false
}
