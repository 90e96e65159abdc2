package http

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "dealpulse/internal/errors"
	"dealpulse/internal/middleware"
	"dealpulse/internal/services"
	apiv1 "dealpulse/pkg/contracts/api/v1"
)

// UploadPerformer accepts workbook uploads. *services.UploadService
// satisfies it.
type UploadPerformer interface {
	Upload(ctx context.Context, input services.UploadInput) (*services.UploadResult, error)
}

// UploadMetrics counts upload attempts.
type UploadMetrics interface {
	RecordUpload(mode, outcome string)
}

// UploadHandler handles workbook uploads from the dashboard.
type UploadHandler struct {
	service       UploadPerformer
	metrics       UploadMetrics
	maxUploadSize int64
	logger        *slog.Logger
	errorHandler  *apierrors.ErrorHandler
	validator     *middleware.ValidationMiddleware
}

// NewUploadHandler creates the upload handler. metrics may be nil.
func NewUploadHandler(service UploadPerformer, metrics UploadMetrics, maxUploadSize int64, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *UploadHandler {
	return &UploadHandler{
		service:       service,
		metrics:       metrics,
		maxUploadSize: maxUploadSize,
		logger:        logger.With(slog.String("component", "upload_handler")),
		errorHandler:  errorHandler,
		validator:     middleware.NewValidationMiddleware(logger, errorHandler),
	}
}

// Routes returns the upload routes.
func (h *UploadHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.Upload)
	return r
}

// Upload handles POST /api/upload. The request is multipart/form-data with
// a "file" part plus "password" and "mode" fields. Mode defaults to append.
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetReqID(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		h.recordOutcome(r.FormValue("mode"), "rejected")
		h.errorHandler.HandleError(w, r, apierrors.ErrPayloadTooLarge)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.recordOutcome(r.FormValue("mode"), "rejected")
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("file", "A workbook file is required"))
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		h.recordOutcome(r.FormValue("mode"), "rejected")
		h.errorHandler.HandleError(w, r, apierrors.NewWithDetails(http.StatusBadRequest,
			"INVALID_REQUEST", "Could not read uploaded file", err.Error()))
		return
	}

	mode := r.FormValue("mode")
	if mode == "" {
		mode = services.UploadModeAppend
	}

	form := apiv1.UploadRequest{
		Filename: header.Filename,
		Password: r.FormValue("password"),
		Mode:     mode,
	}
	if err := h.validator.ValidateStruct(form); err != nil {
		h.recordOutcome(mode, "rejected")
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "processing workbook upload",
		slog.String("request_id", reqID),
		slog.String("filename", header.Filename),
		slog.String("mode", mode),
		slog.Int("size", len(content)))

	result, err := h.service.Upload(r.Context(), services.UploadInput{
		Filename: form.Filename,
		Content:  content,
		Password: form.Password,
		Mode:     form.Mode,
	})
	if err != nil {
		h.recordOutcome(mode, "rejected")
		h.handleUploadError(w, r, err)
		return
	}

	h.recordOutcome(mode, "accepted")
	render.Status(r, http.StatusOK)
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   result,
	})
}

func (h *UploadHandler) recordOutcome(mode, outcome string) {
	if h.metrics == nil {
		return
	}
	if mode == "" {
		mode = services.UploadModeAppend
	}
	h.metrics.RecordUpload(mode, outcome)
}

func (h *UploadHandler) handleUploadError(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.WarnContext(r.Context(), "upload rejected",
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("error", err.Error()))

	switch {
	case errors.Is(err, services.ErrInvalidPassword):
		h.errorHandler.HandleError(w, r, apierrors.ErrUnauthorized)
	case errors.Is(err, services.ErrInvalidUploadMode):
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("mode", "Mode must be append or replace"))
	case errors.Is(err, services.ErrEmptyUpload):
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("file", "The workbook contains no deal rows"))
	case errors.Is(err, services.ErrInvalidUploadFile):
		h.errorHandler.HandleError(w, r, apierrors.NewWithDetails(http.StatusBadRequest,
			"INVALID_REQUEST", "The uploaded file was rejected", err.Error()))
	default:
		h.errorHandler.HandleError(w, r, err)
	}
}
