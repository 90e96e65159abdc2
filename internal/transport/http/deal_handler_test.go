package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dealpulse/internal/dataprocessing"
	apierrors "dealpulse/internal/errors"
	"dealpulse/internal/services"
	"dealpulse/pkg/contracts/domain"
)

type stubDealReader struct {
	deals      []services.DealView
	summary    dataprocessing.DealKindSummary
	summaries  []dataprocessing.DealKindSummary
	series     []dataprocessing.AggregationResult
	options    services.FilterOptions
	layout     domain.SheetLayout
	records    []domain.DealRecord
	err        error
	lastFilter dataprocessing.FilterCriteria
	lastTopN   int
}

func (s *stubDealReader) Deals(_ context.Context, _ domain.DealKind, f dataprocessing.FilterCriteria) ([]services.DealView, error) {
	s.lastFilter = f
	return s.deals, s.err
}

func (s *stubDealReader) Summary(_ context.Context, _ domain.DealKind, f dataprocessing.FilterCriteria) (dataprocessing.DealKindSummary, error) {
	s.lastFilter = f
	return s.summary, s.err
}

func (s *stubDealReader) SummaryAll(_ context.Context, f dataprocessing.FilterCriteria) ([]dataprocessing.DealKindSummary, error) {
	s.lastFilter = f
	return s.summaries, s.err
}

func (s *stubDealReader) Quarterly(_ context.Context, _ domain.DealKind, f dataprocessing.FilterCriteria, _ bool) ([]dataprocessing.AggregationResult, error) {
	s.lastFilter = f
	return s.series, s.err
}

func (s *stubDealReader) Sectors(_ context.Context, _ domain.DealKind, f dataprocessing.FilterCriteria) ([]dataprocessing.AggregationResult, error) {
	s.lastFilter = f
	return s.series, s.err
}

func (s *stubDealReader) TopDeals(_ context.Context, _ domain.DealKind, f dataprocessing.FilterCriteria, n int) ([]services.DealView, error) {
	s.lastFilter = f
	s.lastTopN = n
	return s.deals, s.err
}

func (s *stubDealReader) FilterOptions(_ context.Context) (services.FilterOptions, error) {
	return s.options, s.err
}

func (s *stubDealReader) Export(_ context.Context, _ domain.DealKind, f dataprocessing.FilterCriteria) (domain.SheetLayout, []domain.DealRecord, error) {
	s.lastFilter = f
	return s.layout, s.records, s.err
}

func newTestRouter(stub *stubDealReader) chi.Router {
	errorHandler := apierrors.NewErrorHandler(nil, false)
	handler := NewDealHandler(stub, testLogger(), errorHandler)

	r := chi.NewRouter()
	r.Mount("/api/deals", handler.Routes())
	r.Get("/api/summary", handler.GetAllSummaries)
	r.Get("/api/filters", handler.GetFilters)
	return r
}

func doRequest(t *testing.T, router chi.Router, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestGetDeals(t *testing.T) {
	stub := &stubDealReader{
		deals: []services.DealView{
			{
				DealRecord: domain.DealRecord{
					Kind:    domain.DealKindMA,
					Company: "CardioSense",
					Sector:  "Cardiovascular",
				},
				Amount:        domain.NewAmount(2.1e9),
				AmountDisplay: "$2.1B",
			},
		},
	}

	rec := doRequest(t, newTestRouter(stub), http.MethodGet, "/api/deals/ma")

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "success", body["status"])
	assert.Equal(t, "ma", body["kind"])
	assert.Equal(t, float64(1), body["count"])
}

func TestGetDeals_UnknownKind(t *testing.T) {
	rec := doRequest(t, newTestRouter(&stubDealReader{}), http.MethodGet, "/api/deals/bonds")

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/problem+json")
}

func TestGetDeals_DatasetNotLoaded(t *testing.T) {
	stub := &stubDealReader{err: services.ErrDatasetNotLoaded}

	rec := doRequest(t, newTestRouter(stub), http.MethodGet, "/api/deals/ma")

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "DATASET_NOT_FOUND")
}

func TestGetDeals_FilterParsing(t *testing.T) {
	stub := &stubDealReader{}

	rec := doRequest(t, newTestRouter(stub), http.MethodGet,
		"/api/deals/investment?quarter=Q1%202025,Q2%202025&sector=Diagnostics&conference=JPM%202025&q=cardio")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"Q1 2025", "Q2 2025"}, stub.lastFilter.Periods)
	assert.Equal(t, []string{"Diagnostics"}, stub.lastFilter.Sectors)
	assert.Equal(t, "JPM 2025", stub.lastFilter.Conference)
	assert.Equal(t, "cardio", stub.lastFilter.Search)
}

func TestGetTopDeals_DefaultN(t *testing.T) {
	stub := &stubDealReader{}

	rec := doRequest(t, newTestRouter(stub), http.MethodGet, "/api/deals/ipo/top")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 3, stub.lastTopN)
}

func TestGetTopDeals_InvalidN(t *testing.T) {
	rec := doRequest(t, newTestRouter(&stubDealReader{}), http.MethodGet, "/api/deals/ipo/top?n=500")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetAllSummaries(t *testing.T) {
	stub := &stubDealReader{
		summaries: []dataprocessing.DealKindSummary{
			{Kind: domain.DealKindMA, DealCount: 3, TotalValue: 2.6e9},
			{Kind: domain.DealKindInvestment, DealCount: 2},
			{Kind: domain.DealKindIPO, DealCount: 1},
		},
	}

	rec := doRequest(t, newTestRouter(stub), http.MethodGet, "/api/summary")

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, float64(3), body["count"])
}

func TestGetQuarterly(t *testing.T) {
	stub := &stubDealReader{
		series: []dataprocessing.AggregationResult{
			{Key: "Q1 2025", TotalAmount: 5e8, Count: 1, DisclosedCount: 1},
		},
	}

	rec := doRequest(t, newTestRouter(stub), http.MethodGet, "/api/deals/ma/quarterly")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Q1 2025")
}

func TestGetFilters(t *testing.T) {
	stub := &stubDealReader{
		options: services.FilterOptions{
			Quarters: []string{"Q1 2025", "Q2 2025"},
			Sectors:  []string{"Cardiovascular", "Diagnostics"},
		},
	}

	rec := doRequest(t, newTestRouter(stub), http.MethodGet, "/api/filters")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Cardiovascular")
}
