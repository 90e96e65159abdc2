package services

import (
	"context"
	"log/slog"
	"os"
	"time"
)

// HealthService reports service liveness and dataset readiness.
type HealthService struct {
	provider     DatasetProvider
	workbookPath string
	started      time.Time
	logger       *slog.Logger
}

// NewHealthService creates the health service.
func NewHealthService(logger *slog.Logger, provider DatasetProvider, workbookPath string) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthService{
		provider:     provider,
		workbookPath: workbookPath,
		started:      time.Now(),
		logger:       logger.With(slog.String("component", "health_service")),
	}
}

// HealthStatus is the health check payload.
type HealthStatus struct {
	Status         string    `json:"status"`
	WorkbookLoaded bool      `json:"workbook_loaded"`
	WorkbookOnDisk bool      `json:"workbook_on_disk"`
	TotalRows      int       `json:"total_rows"`
	Uptime         string    `json:"uptime"`
	CheckedAt      time.Time `json:"checked_at"`
}

// Health reports current status. The service is degraded, not down, when the
// workbook is missing: read endpoints fail but the process can still accept
// an upload.
func (s *HealthService) Health(ctx context.Context) HealthStatus {
	status := HealthStatus{
		WorkbookLoaded: s.provider.Loaded(),
		Uptime:         time.Since(s.started).Round(time.Second).String(),
		CheckedAt:      time.Now().UTC(),
	}

	if _, err := os.Stat(s.workbookPath); err == nil {
		status.WorkbookOnDisk = true
	}

	if status.WorkbookLoaded {
		status.TotalRows = s.provider.Snapshot().TotalRows()
		status.Status = "healthy"
	} else {
		status.Status = "degraded"
		s.logger.WarnContext(ctx, "health check: workbook not loaded",
			slog.String("path", s.workbookPath))
	}

	return status
}
