package services

import "errors"

// Sentinel errors returned by the service layer. Handlers map these to API
// error responses with errors.Is.
var (
	// ErrDatasetNotLoaded indicates the workbook has not been loaded yet.
	ErrDatasetNotLoaded = errors.New("deal dataset not loaded")

	// ErrUnknownDealKind indicates an unrecognized deal category token.
	ErrUnknownDealKind = errors.New("unknown deal kind")

	// ErrNoDealsFound indicates a query matched no records.
	ErrNoDealsFound = errors.New("no deals found")

	// ErrInvalidPassword indicates the upload password did not match.
	ErrInvalidPassword = errors.New("invalid password")

	// ErrInvalidUploadMode indicates an upload mode other than append or replace.
	ErrInvalidUploadMode = errors.New("invalid upload mode")

	// ErrEmptyUpload indicates an uploaded workbook with no deal rows.
	ErrEmptyUpload = errors.New("uploaded workbook contains no deal rows")

	// ErrInvalidUploadFile indicates an upload that failed file validation
	// or could not be parsed as a workbook.
	ErrInvalidUploadFile = errors.New("invalid upload file")
)
