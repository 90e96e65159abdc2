package dataprocessing

import (
	"regexp"
	"sort"
	"strconv"

	"dealpulse/pkg/contracts/domain"
)

var (
	quarterPattern = regexp.MustCompile(`(?i)q([1-4])`)
	yearPattern    = regexp.MustCompile(`\b(19|20)\d{2}\b`)
)

// ResolvePeriod extracts a canonical PeriodKey from a free-form quarter
// string. The first "Q" followed by a digit 1-4 (case-insensitive) supplies
// the quarter; a 4-digit year anywhere else in the string supplies the year.
// Strings with no recognizable quarter resolve to UnknownPeriod, which always
// sorts last and is skipped by chronological aggregations.
func ResolvePeriod(raw string) domain.PeriodKey {
	m := quarterPattern.FindStringSubmatch(raw)
	if m == nil {
		return domain.UnknownPeriod
	}
	quarter, _ := strconv.Atoi(m[1])

	key := domain.PeriodKey{Quarter: quarter}
	if y := yearPattern.FindString(raw); y != "" {
		key.Year, _ = strconv.Atoi(y)
	}
	return key
}

// SortPeriods orders keys in place by the canonical PeriodKey total order.
func SortPeriods(keys []domain.PeriodKey) {
	sort.Slice(keys, func(i, j int) bool {
		return keys[i].Less(keys[j])
	})
}

// SortPeriodStrings orders raw quarter strings by their resolved keys,
// unresolvable values last. The sort is stable so equal or unknown entries
// keep their input order. Used to build chronological filter options from
// whatever spellings the workbook contains.
func SortPeriodStrings(values []string) {
	sort.SliceStable(values, func(i, j int) bool {
		pi, pj := ResolvePeriod(values[i]), ResolvePeriod(values[j])
		if pi == pj {
			// Distinct spellings of the same period order lexically so the
			// result does not depend on input order.
			return values[i] < values[j]
		}
		return pi.Less(pj)
	})
}
