package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dealpulse/internal/services"
	"dealpulse/pkg/contracts"
	"dealpulse/pkg/contracts/domain"
)

type stubProvider struct {
	dataset domain.Dataset
	loaded  bool
}

func (p *stubProvider) Snapshot() domain.Dataset { return p.dataset }
func (p *stubProvider) Loaded() bool             { return p.loaded }

func TestHealthCheck(t *testing.T) {
	provider := &stubProvider{
		loaded: true,
		dataset: domain.Dataset{
			MA: []domain.DealRecord{{Kind: domain.DealKindMA, Company: "Acme Surgical"}},
		},
	}
	service := services.NewHealthService(testLogger(), provider, "missing.xlsx")
	handler := NewHealthHandler(service, testLogger())

	rec := httptest.NewRecorder()
	handler.HealthCheck(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"healthy"`)
	assert.Contains(t, rec.Body.String(), `"total_rows":1`)
}

func TestHealthCheck_Degraded(t *testing.T) {
	service := services.NewHealthService(testLogger(), &stubProvider{}, "missing.xlsx")
	handler := NewHealthHandler(service, testLogger())

	rec := httptest.NewRecorder()
	handler.HealthCheck(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"degraded"`)
}

func TestVersion(t *testing.T) {
	service := services.NewHealthService(testLogger(), &stubProvider{}, "missing.xlsx")
	handler := NewHealthHandler(service, testLogger())

	rec := httptest.NewRecorder()
	handler.Version(rec, httptest.NewRequest(http.MethodGet, "/api/version", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), contracts.Version)
}
