package api

import "github.com/gallaway-jp/freedomtax/audit"

// ErrorResponse is the JSON body for any non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
	// Field is set when the error concerns a specific field path.
	Field string `json:"field,omitempty"`
}

// FieldResponse is returned from GET /v1/return/field.
type FieldResponse struct {
	Path  string `json:"path"`
	Value any    `json:"value"`
}

// SetFieldRequest is the JSON body for PUT /v1/return/field.
type SetFieldRequest struct {
	Path  string `json:"path"`
	Value any    `json:"value"`
}

// AppendToListRequest is the JSON body for POST /v1/return/list.
type AppendToListRequest struct {
	Path   string         `json:"path"`
	Record map[string]any `json:"record"`
}

// SaveRequest is the JSON body for POST /v1/return/save and /v1/return/load.
type SaveRequest struct {
	Name string `json:"name"`
}

// SaveResponse is returned from POST /v1/return/save.
type SaveResponse struct {
	Name string `json:"name"`
}

// ListAuditResponse is returned from GET /v1/audit.
type ListAuditResponse struct {
	Entries []audit.Entry `json:"entries"`
}
