package services

import (
	"context"
	"crypto/subtle"
	"fmt"
	"log/slog"

	"dealpulse/internal/validation"
	"dealpulse/internal/workbook"
	"dealpulse/pkg/contracts/domain"
)

// Upload modes.
const (
	UploadModeAppend  = "append"
	UploadModeReplace = "replace"
)

// UploadStore is the mutable side of the workbook store.
type UploadStore interface {
	Replace(ds domain.Dataset) error
	Append(ds domain.Dataset) (int, error)
}

// UploadConfig configures the upload gate.
type UploadConfig struct {
	Password      string
	MaxUploadSize int64
}

// UploadService handles password-gated workbook uploads.
type UploadService struct {
	store     UploadStore
	loader    *workbook.Loader
	validator *validation.FileValidator
	password  string
	maxSize   int64
	logger    *slog.Logger
}

// NewUploadService creates the upload service.
func NewUploadService(logger *slog.Logger, store UploadStore, loader *workbook.Loader, validator *validation.FileValidator, config UploadConfig) *UploadService {
	if logger == nil {
		logger = slog.Default()
	}
	return &UploadService{
		store:     store,
		loader:    loader,
		validator: validator,
		password:  config.Password,
		maxSize:   config.MaxUploadSize,
		logger:    logger.With(slog.String("component", "upload_service")),
	}
}

// UploadInput is one upload request.
type UploadInput struct {
	Filename string
	Content  []byte
	Password string
	// Mode is append (merge, dropping exact duplicates) or replace.
	Mode string
}

// UploadResult reports what an upload changed.
type UploadResult struct {
	Mode         string `json:"mode"`
	RowsReceived int    `json:"rows_received"`
	RowsAdded    int    `json:"rows_added"`
}

// Upload validates the password and file, parses the workbook, and merges it
// into the store.
func (s *UploadService) Upload(ctx context.Context, input UploadInput) (*UploadResult, error) {
	if subtle.ConstantTimeCompare([]byte(input.Password), []byte(s.password)) != 1 {
		s.logger.WarnContext(ctx, "upload rejected: bad password",
			slog.String("filename", input.Filename))
		return nil, ErrInvalidPassword
	}

	if input.Mode != UploadModeAppend && input.Mode != UploadModeReplace {
		return nil, ErrInvalidUploadMode
	}

	if err := s.validator.ValidateUpload(input.Filename, input.Content, s.maxSize); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidUploadFile, err)
	}

	ds, err := s.loader.LoadBytes(input.Content)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidUploadFile, err)
	}
	if ds.TotalRows() == 0 {
		return nil, ErrEmptyUpload
	}

	result := &UploadResult{
		Mode:         input.Mode,
		RowsReceived: ds.TotalRows(),
	}

	switch input.Mode {
	case UploadModeReplace:
		if err := s.store.Replace(*ds); err != nil {
			return nil, err
		}
		result.RowsAdded = ds.TotalRows()
	case UploadModeAppend:
		added, err := s.store.Append(*ds)
		if err != nil {
			return nil, err
		}
		result.RowsAdded = added
	}

	s.logger.InfoContext(ctx, "upload processed",
		slog.String("filename", input.Filename),
		slog.String("mode", input.Mode),
		slog.Int("rows_received", result.RowsReceived),
		slog.Int("rows_added", result.RowsAdded))

	return result, nil
}
