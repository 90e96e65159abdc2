package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"dealpulse/internal/dataprocessing"
	apierrors "dealpulse/internal/errors"
	"dealpulse/internal/middleware"
	"dealpulse/internal/services"
	"dealpulse/pkg/contracts/domain"
)

// DealReader is the query surface the dashboard handlers need. It is
// satisfied by *services.DealService.
type DealReader interface {
	Deals(ctx context.Context, kind domain.DealKind, filter dataprocessing.FilterCriteria) ([]services.DealView, error)
	Summary(ctx context.Context, kind domain.DealKind, filter dataprocessing.FilterCriteria) (dataprocessing.DealKindSummary, error)
	SummaryAll(ctx context.Context, filter dataprocessing.FilterCriteria) ([]dataprocessing.DealKindSummary, error)
	Quarterly(ctx context.Context, kind domain.DealKind, filter dataprocessing.FilterCriteria, includeUnknown bool) ([]dataprocessing.AggregationResult, error)
	Sectors(ctx context.Context, kind domain.DealKind, filter dataprocessing.FilterCriteria) ([]dataprocessing.AggregationResult, error)
	TopDeals(ctx context.Context, kind domain.DealKind, filter dataprocessing.FilterCriteria, n int) ([]services.DealView, error)
	FilterOptions(ctx context.Context) (services.FilterOptions, error)
	Export(ctx context.Context, kind domain.DealKind, filter dataprocessing.FilterCriteria) (domain.SheetLayout, []domain.DealRecord, error)
}

// DealHandler serves the deal query endpoints with RFC 7807 errors.
type DealHandler struct {
	service      DealReader
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
	queryParams  *middleware.QueryParamValidator
}

// NewDealHandler creates the deal query handler.
func NewDealHandler(service DealReader, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *DealHandler {
	return &DealHandler{
		service:      service,
		logger:       logger.With(slog.String("component", "deal_handler")),
		errorHandler: errorHandler,
		queryParams:  middleware.NewQueryParamValidator(logger, errorHandler),
	}
}

// Routes returns the per-kind deal routes, mounted under /api/deals.
// GetAllSummaries and GetFilters are registered by the caller at the API
// root since they span all kinds.
func (h *DealHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Route("/{kind}", func(r chi.Router) {
		r.Use(h.KindCtx)
		r.Get("/", h.GetDeals)
		r.Get("/summary", h.GetSummary)
		r.Get("/quarterly", h.GetQuarterly)
		r.Get("/sectors", h.GetSectors)
		r.Get("/top", h.GetTopDeals)
	})

	return r
}

type kindCtxKey struct{}

// KindCtx validates the {kind} URL parameter and loads it into the context.
func (h *DealHandler) KindCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		kind, err := domain.ParseDealKind(chi.URLParam(r, "kind"))
		if err != nil {
			h.errorHandler.HandleError(w, r, apierrors.ErrDealKindNotFound)
			return
		}
		ctx := context.WithValue(r.Context(), kindCtxKey{}, kind)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func kindFromContext(ctx context.Context) domain.DealKind {
	kind, _ := ctx.Value(kindCtxKey{}).(domain.DealKind)
	return kind
}

// parseFilter builds filter criteria from the query string. Multi-value
// parameters accept comma-separated lists.
func parseFilter(r *http.Request) dataprocessing.FilterCriteria {
	q := r.URL.Query()
	return dataprocessing.FilterCriteria{
		Periods:    splitList(q.Get("quarter")),
		Sectors:    splitList(q.Get("sector")),
		Conference: strings.TrimSpace(q.Get("conference")),
		Search:     strings.TrimSpace(q.Get("q")),
	}
}

func splitList(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// GetDeals handles GET /api/deals/{kind}.
func (h *DealHandler) GetDeals(w http.ResponseWriter, r *http.Request) {
	kind := kindFromContext(r.Context())

	h.logger.InfoContext(r.Context(), "fetching deals",
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("kind", string(kind)))

	deals, err := h.service.Deals(r.Context(), kind, parseFilter(r))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"kind":   kind,
		"data":   deals,
		"count":  len(deals),
	})
}

// GetSummary handles GET /api/deals/{kind}/summary.
func (h *DealHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	kind := kindFromContext(r.Context())

	summary, err := h.service.Summary(r.Context(), kind, parseFilter(r))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   summary,
	})
}

// GetAllSummaries handles GET /api/summary, the dashboard KPI strip.
func (h *DealHandler) GetAllSummaries(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.service.SummaryAll(r.Context(), parseFilter(r))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   summaries,
		"count":  len(summaries),
	})
}

// GetQuarterly handles GET /api/deals/{kind}/quarterly. Records whose
// quarter cannot be parsed are excluded unless include_unknown=true.
func (h *DealHandler) GetQuarterly(w http.ResponseWriter, r *http.Request) {
	kind := kindFromContext(r.Context())
	includeUnknown := r.URL.Query().Get("include_unknown") == "true"

	series, err := h.service.Quarterly(r.Context(), kind, parseFilter(r), includeUnknown)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"kind":   kind,
		"data":   series,
		"count":  len(series),
	})
}

// GetSectors handles GET /api/deals/{kind}/sectors.
func (h *DealHandler) GetSectors(w http.ResponseWriter, r *http.Request) {
	kind := kindFromContext(r.Context())

	series, err := h.service.Sectors(r.Context(), kind, parseFilter(r))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"kind":   kind,
		"data":   series,
		"count":  len(series),
	})
}

// GetTopDeals handles GET /api/deals/{kind}/top?n=10.
func (h *DealHandler) GetTopDeals(w http.ResponseWriter, r *http.Request) {
	kind := kindFromContext(r.Context())

	n, ok := h.queryParams.ValidateInt(w, r, "n", 1, 50, 3)
	if !ok {
		return
	}

	deals, err := h.service.TopDeals(r.Context(), kind, parseFilter(r), n)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"kind":   kind,
		"data":   deals,
		"count":  len(deals),
	})
}

// GetFilters handles GET /api/filters.
func (h *DealHandler) GetFilters(w http.ResponseWriter, r *http.Request) {
	options, err := h.service.FilterOptions(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   options,
	})
}

func (h *DealHandler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	handleServiceError(h.errorHandler, h.logger, w, r, err)
}

// handleServiceError maps service sentinels onto API errors.
func handleServiceError(eh *apierrors.ErrorHandler, logger *slog.Logger, w http.ResponseWriter, r *http.Request, err error) {
	logger.ErrorContext(r.Context(), "deal query failed",
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("error", err.Error()))

	switch {
	case errors.Is(err, services.ErrDatasetNotLoaded):
		eh.HandleError(w, r, apierrors.ErrDatasetNotFound)
	case errors.Is(err, services.ErrUnknownDealKind):
		eh.HandleError(w, r, apierrors.ErrDealKindNotFound)
	default:
		eh.HandleError(w, r, err)
	}
}
