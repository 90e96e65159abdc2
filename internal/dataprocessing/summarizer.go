package dataprocessing

import (
	"context"
	"log/slog"
	"sort"

	"dealpulse/pkg/contracts/domain"
)

// Summarizer is the single source of truth for the KPI-card summaries shown
// on the dashboard home tab. It consolidates the count/total/average/top-N
// logic that the legacy dashboard repeated near-verbatim in every view.
type Summarizer struct {
	logger     *slog.Logger
	topDeals   int
	topSectors int
	style      Style
}

// SummarizerConfig holds configuration options for the Summarizer.
type SummarizerConfig struct {
	TopDeals    int   // number of headline deals per kind
	TopSectors  int   // number of leading sectors by deal count
	AmountStyle Style // display style for formatted amounts
}

// DefaultSummarizerConfig mirrors the dashboard defaults: top 3 deals, top 3
// sectors, abbreviated currency display.
func DefaultSummarizerConfig() SummarizerConfig {
	return SummarizerConfig{
		TopDeals:    3,
		TopSectors:  3,
		AmountStyle: StyleAbbrev,
	}
}

// NewSummarizer creates a new deal summarizer with the given configuration.
func NewSummarizer(logger *slog.Logger, config SummarizerConfig) *Summarizer {
	if logger == nil {
		logger = slog.Default()
	}
	if config.TopDeals <= 0 {
		config.TopDeals = 3
	}
	if config.TopSectors <= 0 {
		config.TopSectors = 3
	}
	return &Summarizer{
		logger:     logger,
		topDeals:   config.TopDeals,
		topSectors: config.TopSectors,
		style:      config.AmountStyle,
	}
}

// TopDeal is one headline deal on a KPI card.
type TopDeal struct {
	Company       string        `json:"company"`
	Counterpart   string        `json:"counterpart,omitempty"`
	Amount        domain.Amount `json:"amount"`
	AmountDisplay string        `json:"amount_display"`
	Sector        string        `json:"sector"`
	Quarter       string        `json:"quarter"`
}

// SectorCount ranks a sector by number of deals.
type SectorCount struct {
	Sector string `json:"sector"`
	Count  int    `json:"count"`
}

// DealKindSummary holds everything one dashboard column needs: KPI numbers,
// headline deals, sector rankings, and the chart series.
type DealKindSummary struct {
	Kind           domain.DealKind `json:"kind"`
	DealCount      int             `json:"deal_count"`
	DisclosedCount int             `json:"disclosed_count"`
	TotalValue     float64         `json:"total_value"`
	TotalDisplay   string          `json:"total_display"`

	// MeanDisclosed divides by disclosed deals only; AvgPerDeal divides by
	// every deal, the figure the historical dashboard showed. Both are
	// reported so the divisor is explicit to every consumer.
	MeanDisclosed        float64 `json:"mean_disclosed"`
	MeanDisclosedDisplay string  `json:"mean_disclosed_display"`
	AvgPerDeal           float64 `json:"avg_per_deal"`
	AvgPerDealDisplay    string  `json:"avg_per_deal_display"`

	TopDeals     []TopDeal           `json:"top_deals"`
	TopSectors   []SectorCount       `json:"top_sectors"`
	SectorValues []AggregationResult `json:"sector_values"`
	Quarterly    []AggregationResult `json:"quarterly"`
}

// Summarize computes the full KPI summary for one deal kind over an
// already-filtered record collection. Empty input produces a zeroed summary
// with empty (non-nil) slices.
func (s *Summarizer) Summarize(ctx context.Context, kind domain.DealKind, records []domain.DealRecord, selector AmountSelector) DealKindSummary {
	s.logger.DebugContext(ctx, "summarizing deal records",
		slog.String("kind", string(kind)),
		slog.Int("record_count", len(records)))

	summary := DealKindSummary{
		Kind:         kind,
		TopDeals:     []TopDeal{},
		TopSectors:   []SectorCount{},
		SectorValues: []AggregationResult{},
		Quarterly:    []AggregationResult{},
	}

	var totals AggregationResult
	for _, rec := range records {
		totals.add(selector(rec))
	}
	summary.DealCount = totals.Count
	summary.DisclosedCount = totals.DisclosedCount
	summary.TotalValue = totals.TotalAmount
	summary.TotalDisplay = Format(domain.NewAmount(totals.TotalAmount), s.style)
	summary.MeanDisclosed = totals.MeanDisclosed()
	summary.MeanDisclosedDisplay = Format(domain.NewAmount(summary.MeanDisclosed), s.style)
	summary.AvgPerDeal = totals.MeanAll()
	summary.AvgPerDealDisplay = Format(domain.NewAmount(summary.AvgPerDeal), s.style)

	for _, rec := range TopN(records, s.topDeals, selector) {
		amount := selector(rec)
		summary.TopDeals = append(summary.TopDeals, TopDeal{
			Company:       rec.Company,
			Counterpart:   rec.Counterpart,
			Amount:        amount,
			AmountDisplay: Format(amount, s.style),
			Sector:        rec.Sector,
			Quarter:       rec.Quarter,
		})
	}

	summary.TopSectors = s.rankSectorsByCount(records)
	summary.SectorValues = AggregateByCategory(records, selector, SectorKey, AggregateOptions{})
	summary.Quarterly = AggregateByPeriod(records, selector, AggregateOptions{})

	return summary
}

// rankSectorsByCount counts deals per sector and returns the leading
// sectors, ties broken by first appearance in the input.
func (s *Summarizer) rankSectorsByCount(records []domain.DealRecord) []SectorCount {
	counts := make(map[string]int)
	order := make([]string, 0)
	for _, rec := range records {
		sector := SectorKey(rec)
		if _, seen := counts[sector]; !seen {
			order = append(order, sector)
		}
		counts[sector]++
	}

	ranked := make([]SectorCount, 0, len(order))
	for _, sector := range order {
		ranked = append(ranked, SectorCount{Sector: sector, Count: counts[sector]})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Count > ranked[j].Count
	})

	if len(ranked) > s.topSectors {
		ranked = ranked[:s.topSectors]
	}
	return ranked
}
