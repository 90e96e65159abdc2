package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	apierrors "dealpulse/internal/errors"
	"dealpulse/internal/exporter"
	"dealpulse/internal/middleware"
	"dealpulse/pkg/contracts/domain"
)

// ExportHandler streams CSV downloads of the dashboard tables and series.
type ExportHandler struct {
	service      DealReader
	writer       *exporter.CSVWriter
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
	queryParams  *middleware.QueryParamValidator
}

// NewExportHandler creates the CSV export handler.
func NewExportHandler(service DealReader, writer *exporter.CSVWriter, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *ExportHandler {
	return &ExportHandler{
		service:      service,
		writer:       writer,
		logger:       logger.With(slog.String("component", "export_handler")),
		errorHandler: errorHandler,
		queryParams:  middleware.NewQueryParamValidator(logger, errorHandler),
	}
}

// Routes returns the export routes.
func (h *ExportHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/{kind}", h.Export)
	return r
}

// Export handles GET /api/export/{kind}?table=deals|quarterly|sectors.
// The deals table carries the source worksheet columns; the series tables
// carry the aggregated chart data.
func (h *ExportHandler) Export(w http.ResponseWriter, r *http.Request) {
	kind, err := domain.ParseDealKind(chi.URLParam(r, "kind"))
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.ErrDealKindNotFound)
		return
	}

	table, ok := h.queryParams.ValidateEnum(w, r, "table",
		[]string{"deals", "quarterly", "sectors"}, "deals")
	if !ok {
		return
	}

	filter := parseFilter(r)
	var options exporter.WriteOptions
	switch table {
	case "quarterly":
		series, serr := h.service.Quarterly(r.Context(), kind, filter, false)
		if serr != nil {
			h.handleError(w, r, serr)
			return
		}
		options = exporter.SeriesTable("Quarter", series)
	case "sectors":
		series, serr := h.service.Sectors(r.Context(), kind, filter)
		if serr != nil {
			h.handleError(w, r, serr)
			return
		}
		options = exporter.SeriesTable("Sector", series)
	default:
		layout, records, serr := h.service.Export(r.Context(), kind, filter)
		if serr != nil {
			h.handleError(w, r, serr)
			return
		}
		options = exporter.DealTable(kind, layout, records)
	}

	filename := fmt.Sprintf("%s_%s_%s.csv", kind, table, time.Now().Format("20060102"))

	h.logger.InfoContext(r.Context(), "exporting csv",
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("kind", string(kind)),
		slog.String("table", table),
		slog.String("filename", filename))

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if err := h.writer.Write(w, options); err != nil {
		// Headers are already out; all we can do is log.
		h.logger.ErrorContext(r.Context(), "csv stream failed",
			slog.String("error", err.Error()))
	}
}

func (h *ExportHandler) handleError(w http.ResponseWriter, r *http.Request, err error) {
	handleServiceError(h.errorHandler, h.logger, w, r, err)
}
