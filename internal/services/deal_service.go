package services

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"dealpulse/internal/dataprocessing"
	"dealpulse/internal/workbook"
	"dealpulse/pkg/contracts/domain"
)

// DatasetProvider supplies the live dataset. *workbook.Store satisfies it.
type DatasetProvider interface {
	Snapshot() domain.Dataset
	Loaded() bool
}

// DealService answers all read queries over the deal dataset: record tables,
// KPI summaries, chart series, top deals, and filter options.
type DealService struct {
	provider   DatasetProvider
	summarizer *dataprocessing.Summarizer
	selector   dataprocessing.AmountSelector
	logger     *slog.Logger
}

// NewDealService creates the deal query service. Workbook amounts without a
// magnitude suffix are millions of dollars, matching the source spreadsheets.
func NewDealService(logger *slog.Logger, provider DatasetProvider, summarizer *dataprocessing.Summarizer) *DealService {
	if logger == nil {
		logger = slog.Default()
	}
	return &DealService{
		provider:   provider,
		summarizer: summarizer,
		selector:   dataprocessing.RawAmountSelector(dataprocessing.UnitMillions),
		logger:     logger.With(slog.String("component", "deal_service")),
	}
}

// DealView is a record decorated with its normalized amount for API output.
type DealView struct {
	domain.DealRecord
	Amount        domain.Amount `json:"amount"`
	AmountDisplay string        `json:"amount_display"`
}

// records fetches the filtered collection for one kind.
func (s *DealService) records(kind domain.DealKind, filter dataprocessing.FilterCriteria) ([]domain.DealRecord, error) {
	if !s.provider.Loaded() {
		return nil, ErrDatasetNotLoaded
	}
	if !kind.Valid() {
		return nil, ErrUnknownDealKind
	}

	records := s.provider.Snapshot().Records(kind)
	if records == nil {
		records = []domain.DealRecord{}
	}
	return filter.Apply(records), nil
}

// Deals returns the filtered record table for one kind, sorted by deal value
// descending with undisclosed deals last, the order the dashboard tables use.
func (s *DealService) Deals(ctx context.Context, kind domain.DealKind, filter dataprocessing.FilterCriteria) ([]DealView, error) {
	records, err := s.records(kind, filter)
	if err != nil {
		return nil, err
	}

	s.logger.DebugContext(ctx, "listing deals",
		slog.String("kind", string(kind)),
		slog.Int("count", len(records)))

	ranked := dataprocessing.TopN(records, len(records), s.selector)

	views := make([]DealView, 0, len(ranked))
	for _, rec := range ranked {
		amount := s.selector(rec)
		views = append(views, DealView{
			DealRecord:    rec,
			Amount:        amount,
			AmountDisplay: dataprocessing.Format(amount, dataprocessing.StyleAbbrev),
		})
	}
	return views, nil
}

// Summary computes the KPI summary for one kind.
func (s *DealService) Summary(ctx context.Context, kind domain.DealKind, filter dataprocessing.FilterCriteria) (dataprocessing.DealKindSummary, error) {
	records, err := s.records(kind, filter)
	if err != nil {
		return dataprocessing.DealKindSummary{}, err
	}
	return s.summarizer.Summarize(ctx, kind, records, s.selector), nil
}

// SummaryAll computes summaries for every kind in canonical order.
func (s *DealService) SummaryAll(ctx context.Context, filter dataprocessing.FilterCriteria) ([]dataprocessing.DealKindSummary, error) {
	if !s.provider.Loaded() {
		return nil, ErrDatasetNotLoaded
	}

	summaries := make([]dataprocessing.DealKindSummary, 0, len(domain.DealKinds))
	for _, kind := range domain.DealKinds {
		summary, err := s.Summary(ctx, kind, filter)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

// Quarterly returns the chronological per-quarter series for one kind.
func (s *DealService) Quarterly(ctx context.Context, kind domain.DealKind, filter dataprocessing.FilterCriteria, includeUnknown bool) ([]dataprocessing.AggregationResult, error) {
	records, err := s.records(kind, filter)
	if err != nil {
		return nil, err
	}
	return dataprocessing.AggregateByPeriod(records, s.selector, dataprocessing.AggregateOptions{
		IncludeUnknown: includeUnknown,
	}), nil
}

// Sectors returns per-sector totals for one kind, largest total first.
func (s *DealService) Sectors(ctx context.Context, kind domain.DealKind, filter dataprocessing.FilterCriteria) ([]dataprocessing.AggregationResult, error) {
	records, err := s.records(kind, filter)
	if err != nil {
		return nil, err
	}
	return dataprocessing.AggregateByCategory(records, s.selector, dataprocessing.SectorKey, dataprocessing.AggregateOptions{}), nil
}

// TopDeals returns the n largest deals for one kind.
func (s *DealService) TopDeals(ctx context.Context, kind domain.DealKind, filter dataprocessing.FilterCriteria, n int) ([]DealView, error) {
	records, err := s.records(kind, filter)
	if err != nil {
		return nil, err
	}

	top := dataprocessing.TopN(records, n, s.selector)
	views := make([]DealView, 0, len(top))
	for _, rec := range top {
		amount := s.selector(rec)
		views = append(views, DealView{
			DealRecord:    rec,
			Amount:        amount,
			AmountDisplay: dataprocessing.Format(amount, dataprocessing.StyleAbbrev),
		})
	}
	return views, nil
}

// Export returns the worksheet layout and the value-sorted records for one
// kind, the inputs the CSV exporter needs to reproduce the dashboard table.
func (s *DealService) Export(ctx context.Context, kind domain.DealKind, filter dataprocessing.FilterCriteria) (domain.SheetLayout, []domain.DealRecord, error) {
	records, err := s.records(kind, filter)
	if err != nil {
		return domain.SheetLayout{}, nil, err
	}

	layout, ok := s.provider.Snapshot().Layouts[kind]
	if !ok {
		layout = workbook.DefaultLayout(kind)
	}

	s.logger.InfoContext(ctx, "exporting deals",
		slog.String("kind", string(kind)),
		slog.Int("count", len(records)))

	return layout, dataprocessing.TopN(records, len(records), s.selector), nil
}

// FilterOptions lists the distinct filter values across the M&A and
// investment collections: quarters in chronological order, sectors and
// conferences alphabetically.
type FilterOptions struct {
	Quarters    []string `json:"quarters"`
	Sectors     []string `json:"sectors"`
	Conferences []string `json:"conferences,omitempty"`
}

// FilterOptions computes the selectable filter values.
func (s *DealService) FilterOptions(ctx context.Context) (FilterOptions, error) {
	if !s.provider.Loaded() {
		return FilterOptions{}, ErrDatasetNotLoaded
	}

	ds := s.provider.Snapshot()

	quarterSet := make(map[string]struct{})
	sectorSet := make(map[string]struct{})
	conferenceSet := make(map[string]struct{})
	for _, kind := range []domain.DealKind{domain.DealKindMA, domain.DealKindInvestment} {
		for _, rec := range ds.Records(kind) {
			if q := strings.TrimSpace(rec.Quarter); q != "" {
				quarterSet[q] = struct{}{}
			}
			if sec := strings.TrimSpace(rec.Sector); sec != "" {
				sectorSet[sec] = struct{}{}
			}
			if conf := strings.TrimSpace(rec.ExtraField(dataprocessing.ConferenceColumn)); conf != "" {
				conferenceSet[conf] = struct{}{}
			}
		}
	}

	options := FilterOptions{
		Quarters:    setToSlice(quarterSet),
		Sectors:     setToSlice(sectorSet),
		Conferences: setToSlice(conferenceSet),
	}
	dataprocessing.SortPeriodStrings(options.Quarters)
	sort.Strings(options.Sectors)
	sort.Strings(options.Conferences)

	s.logger.DebugContext(ctx, "filter options computed",
		slog.Int("quarters", len(options.Quarters)),
		slog.Int("sectors", len(options.Sectors)))

	return options, nil
}

func setToSlice(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	return out
}
