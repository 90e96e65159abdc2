// Package api contains the versioned API contract for the DealPulse
// dashboard service. Version v1 is the current stable surface.
package api

// UploadRequest is the multipart form contract for POST /api/upload.
type UploadRequest struct {
	Filename string `json:"filename" validate:"required,filename"`
	Password string `json:"password" validate:"required"`
	Mode     string `json:"mode" validate:"required,oneof=append replace"`
}

// DealQueryRequest captures the shared query parameters of the deal
// endpoints. All fields are optional; empty criteria match everything.
type DealQueryRequest struct {
	Kind       string   `json:"kind" query:"kind" validate:"omitempty,dealkind"`
	Quarters   []string `json:"quarters" query:"quarters"`
	Sectors    []string `json:"sectors" query:"sectors"`
	Conference string   `json:"conference" query:"conference"`
	Search     string   `json:"search" query:"search"`
	Limit      int      `json:"limit" query:"n" validate:"omitempty,min=1,max=100"`
}

// SuccessResponse is the envelope for successful JSON responses.
type SuccessResponse struct {
	Status string      `json:"status"`
	Kind   string      `json:"kind,omitempty"`
	Data   interface{} `json:"data"`
	Count  *int        `json:"count,omitempty"`
}
