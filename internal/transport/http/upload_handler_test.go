package http

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apierrors "dealpulse/internal/errors"
	"dealpulse/internal/services"
)

type stubUploader struct {
	result *services.UploadResult
	err    error
	input  services.UploadInput
}

func (s *stubUploader) Upload(_ context.Context, input services.UploadInput) (*services.UploadResult, error) {
	s.input = input
	return s.result, s.err
}

type recordingMetrics struct {
	mode    string
	outcome string
}

func (m *recordingMetrics) RecordUpload(mode, outcome string) {
	m.mode = mode
	m.outcome = outcome
}

func newUploadRouter(stub *stubUploader, metrics UploadMetrics) chi.Router {
	handler := NewUploadHandler(stub, metrics, 16<<20, testLogger(),
		apierrors.NewErrorHandler(testLogger(), false))
	r := chi.NewRouter()
	r.Mount("/api/upload", handler.Routes())
	return r
}

func multipartUpload(t *testing.T, filename, password, mode string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.WriteField("password", password))
	if mode != "" {
		require.NoError(t, w.WriteField("mode", mode))
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func TestUploadHandler_Success(t *testing.T) {
	stub := &stubUploader{result: &services.UploadResult{
		Mode:         services.UploadModeReplace,
		RowsReceived: 6,
		RowsAdded:    6,
	}}
	metrics := &recordingMetrics{}
	router := newUploadRouter(stub, metrics)

	body, contentType := multipartUpload(t, "deals.xlsx", "BeaconOne", "replace", []byte("PK\x03\x04fake"))
	req := httptest.NewRequest(http.MethodPost, "/api/upload/", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"rows_added":6`)
	assert.Equal(t, "deals.xlsx", stub.input.Filename)
	assert.Equal(t, "replace", stub.input.Mode)
	assert.Equal(t, "BeaconOne", stub.input.Password)
	assert.Equal(t, "accepted", metrics.outcome)
}

func TestUploadHandler_DefaultsToAppend(t *testing.T) {
	stub := &stubUploader{result: &services.UploadResult{Mode: services.UploadModeAppend}}
	router := newUploadRouter(stub, nil)

	body, contentType := multipartUpload(t, "deals.xlsx", "BeaconOne", "", []byte("PK\x03\x04fake"))
	req := httptest.NewRequest(http.MethodPost, "/api/upload/", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, services.UploadModeAppend, stub.input.Mode)
}

func TestUploadHandler_WrongPassword(t *testing.T) {
	stub := &stubUploader{err: services.ErrInvalidPassword}
	metrics := &recordingMetrics{}
	router := newUploadRouter(stub, metrics)

	body, contentType := multipartUpload(t, "deals.xlsx", "wrong", "append", []byte("PK\x03\x04fake"))
	req := httptest.NewRequest(http.MethodPost, "/api/upload/", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "rejected", metrics.outcome)
}

func TestUploadHandler_BadMode(t *testing.T) {
	stub := &stubUploader{err: services.ErrInvalidUploadMode}
	router := newUploadRouter(stub, nil)

	body, contentType := multipartUpload(t, "deals.xlsx", "BeaconOne", "merge", []byte("PK\x03\x04fake"))
	req := httptest.NewRequest(http.MethodPost, "/api/upload/", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUploadHandler_MissingFile(t *testing.T) {
	router := newUploadRouter(&stubUploader{}, nil)

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("password", "BeaconOne"))
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/upload/", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUploadHandler_InvalidFile(t *testing.T) {
	stub := &stubUploader{err: services.ErrInvalidUploadFile}
	router := newUploadRouter(stub, nil)

	body, contentType := multipartUpload(t, "deals.xlsx", "BeaconOne", "append", []byte("not a workbook"))
	req := httptest.NewRequest(http.MethodPost, "/api/upload/", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "INVALID_REQUEST")
	assert.Contains(t, rec.Body.String(), "The uploaded file was rejected")
}
