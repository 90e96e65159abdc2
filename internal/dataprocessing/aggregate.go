package dataprocessing

import (
	"sort"
	"strings"

	"dealpulse/pkg/contracts/domain"
)

// AmountSelector projects the monetary field out of a record, already
// normalized. Callers bind the column and its unit convention once, e.g.
// RawAmountSelector(UnitDollars), instead of re-deciding it per call site.
type AmountSelector func(domain.DealRecord) domain.Amount

// RawAmountSelector selects the record's RawAmount column under the given
// unit convention.
func RawAmountSelector(unit Unit) AmountSelector {
	return func(r domain.DealRecord) domain.Amount {
		return Normalize(r.RawAmount, unit)
	}
}

// CategorySelector projects a grouping key out of a record.
type CategorySelector func(domain.DealRecord) string

// SectorKey groups records by their sector column.
func SectorKey(r domain.DealRecord) string {
	return strings.TrimSpace(r.Sector)
}

// AggregateOptions tunes group handling. The zero value is the default used
// by charts: unknown periods skipped, zero-total groups preserved.
type AggregateOptions struct {
	// IncludeUnknown appends the UnknownPeriod group after all ordered
	// groups instead of dropping it. With this set, period aggregation is
	// an exact partition of the input.
	IncludeUnknown bool
	// DropZeroTotals removes groups whose disclosed total is zero
	// (all-undisclosed groups). Off by default.
	DropZeroTotals bool
}

// AggregationResult is the per-group output of aggregation.
type AggregationResult struct {
	Key            string           `json:"key"`
	Period         domain.PeriodKey `json:"period,omitempty"`
	TotalAmount    float64          `json:"total_amount"`
	Count          int              `json:"count"`
	DisclosedCount int              `json:"disclosed_count"`
}

// MeanDisclosed is the disclosed-only mean: TotalAmount divided by the
// number of records whose amount is known. This is the policy used for the
// "average deal size" KPI; undisclosed deals do not drag the average down.
func (r AggregationResult) MeanDisclosed() float64 {
	if r.DisclosedCount == 0 {
		return 0
	}
	return r.TotalAmount / float64(r.DisclosedCount)
}

// MeanAll divides the total by every record in the group, disclosed or not.
// Kept for callers that want the historical dashboard figure; the name makes
// the divisor explicit at each call site.
func (r AggregationResult) MeanAll() float64 {
	if r.Count == 0 {
		return 0
	}
	return r.TotalAmount / float64(r.Count)
}

func (r *AggregationResult) add(a domain.Amount) {
	r.Count++
	if a.Disclosed {
		r.DisclosedCount++
		r.TotalAmount += a.Value
	}
}

// AggregateByPeriod groups records by resolved quarter and returns one result
// per period in ascending chronological order, ready for a chart axis.
// UnknownPeriod groups are excluded unless opts.IncludeUnknown is set, in
// which case the unknown bucket comes last. Empty input yields an empty,
// non-nil slice.
func AggregateByPeriod(records []domain.DealRecord, selector AmountSelector, opts AggregateOptions) []AggregationResult {
	groups := make(map[domain.PeriodKey]*AggregationResult)
	keys := make([]domain.PeriodKey, 0)

	for _, rec := range records {
		key := ResolvePeriod(rec.Quarter)
		g, ok := groups[key]
		if !ok {
			g = &AggregationResult{Key: key.String(), Period: key}
			groups[key] = g
			keys = append(keys, key)
		}
		g.add(selector(rec))
	}

	SortPeriods(keys)

	results := make([]AggregationResult, 0, len(keys))
	for _, key := range keys {
		if key.IsUnknown() && !opts.IncludeUnknown {
			continue
		}
		if opts.DropZeroTotals && groups[key].TotalAmount == 0 {
			continue
		}
		results = append(results, *groups[key])
	}
	return results
}

// AggregateByCategory groups records by the category selector and returns
// results in descending order of total amount, suitable for ranked bar
// charts. Ties keep first-seen input order. All occurring groups are
// preserved, including all-undisclosed ones, unless opts.DropZeroTotals.
func AggregateByCategory(records []domain.DealRecord, selector AmountSelector, category CategorySelector, opts AggregateOptions) []AggregationResult {
	groups := make(map[string]*AggregationResult)
	order := make([]string, 0)

	for _, rec := range records {
		key := category(rec)
		g, ok := groups[key]
		if !ok {
			g = &AggregationResult{Key: key}
			groups[key] = g
			order = append(order, key)
		}
		g.add(selector(rec))
	}

	results := make([]AggregationResult, 0, len(order))
	for _, key := range order {
		if opts.DropZeroTotals && groups[key].TotalAmount == 0 {
			continue
		}
		results = append(results, *groups[key])
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].TotalAmount > results[j].TotalAmount
	})
	return results
}

// TopN returns the n records with the largest normalized amount.
// Undisclosed amounts rank below every disclosed one, and ties preserve the
// original relative order, so the result is deterministic for a given input
// sequence. n larger than the input returns everything; n <= 0 returns an
// empty slice.
func TopN(records []domain.DealRecord, n int, selector AmountSelector) []domain.DealRecord {
	if n <= 0 || len(records) == 0 {
		return []domain.DealRecord{}
	}

	type ranked struct {
		rec    domain.DealRecord
		amount domain.Amount
	}
	all := make([]ranked, len(records))
	for i, rec := range records {
		all[i] = ranked{rec: rec, amount: selector(rec)}
	}

	sort.SliceStable(all, func(i, j int) bool {
		a, b := all[i].amount, all[j].amount
		if a.Disclosed != b.Disclosed {
			return a.Disclosed
		}
		return a.Value > b.Value
	})

	if n > len(all) {
		n = len(all)
	}
	top := make([]domain.DealRecord, n)
	for i := 0; i < n; i++ {
		top[i] = all[i].rec
	}
	return top
}
