package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gallaway-jp/freedomtax/audit"
)

// Health reports liveness for the local UI.
func (a *API) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetReturn returns the full in-memory return tree.
func (a *API) GetReturn(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.store.Return())
}

// GetField returns the value at the dot path given in the "path" query
// parameter, or null if the path is unknown.
func (a *API) GetField(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		writeError(w, http.StatusBadRequest, "missing path parameter")
		return
	}
	value, ok := a.store.Get(path)
	if !ok {
		value = nil
	}
	writeJSON(w, http.StatusOK, FieldResponse{Path: path, Value: value})
}

// SetField validates and writes a single field.
func (a *API) SetField(w http.ResponseWriter, r *http.Request) {
	var req SetFieldRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Path == "" {
		writeError(w, http.StatusBadRequest, "missing path")
		return
	}
	if err := a.store.Set(req.Path, req.Value); err != nil {
		a.mapError(w, err)
		return
	}
	value, _ := a.store.Get(req.Path)
	writeJSON(w, http.StatusOK, FieldResponse{Path: req.Path, Value: value})
}

// AppendToList appends a whole record to a list section such as income.w2_forms.
// The record is accepted or rejected as a unit.
func (a *API) AppendToList(w http.ResponseWriter, r *http.Request) {
	var req AppendToListRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Path == "" {
		writeError(w, http.StatusBadRequest, "missing path")
		return
	}
	if err := a.store.AppendToList(req.Path, req.Record); err != nil {
		a.mapError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SaveReturn encrypts and persists the return under the given file name.
func (a *API) SaveReturn(w http.ResponseWriter, r *http.Request) {
	var req SaveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if _, err := a.store.Save(r.Context(), req.Name); err != nil {
		a.mapError(w, err)
		return
	}
	a.recordAudit(audit.ActionSaved, req.Name)
	writeJSON(w, http.StatusOK, SaveResponse{Name: req.Name})
}

// LoadReturn replaces the in-memory return with the named saved file.
func (a *API) LoadReturn(w http.ResponseWriter, r *http.Request) {
	var req SaveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := a.store.Load(r.Context(), req.Name); err != nil {
		a.recordAudit(audit.ActionLoadFailed, req.Name)
		a.mapError(w, err)
		return
	}
	a.recordAudit(audit.ActionLoaded, req.Name)
	writeJSON(w, http.StatusOK, a.store.Return())
}

// Calculate runs the full tax computation against the current return state.
func (a *API) Calculate(w http.ResponseWriter, r *http.Request) {
	ret := a.store.Return()
	table, err := a.tables.ForYear(ret.Metadata.TaxYear)
	if err != nil {
		a.mapError(w, err)
		return
	}
	result, err := a.engine.Calculate(ret, table)
	if err != nil {
		a.mapError(w, err)
		return
	}
	a.recordAudit(audit.ActionCalculated, "")
	writeJSON(w, http.StatusOK, result)
}

// ListAuditEntries returns recent audit entries, newest first.
func (a *API) ListAuditEntries(w http.ResponseWriter, r *http.Request) {
	if a.audit == nil {
		writeJSON(w, http.StatusOK, ListAuditResponse{Entries: nil})
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}
	entries, err := a.audit.List(limit)
	if err != nil {
		a.mapError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ListAuditResponse{Entries: entries})
}
