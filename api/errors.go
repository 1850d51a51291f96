package api

import (
	"encoding/json"
	"errors"
	"io/fs"
	"net/http"

	"github.com/gallaway-jp/freedomtax/calc"
	"github.com/gallaway-jp/freedomtax/crypto"
	"github.com/gallaway-jp/freedomtax/storage"
	"github.com/gallaway-jp/freedomtax/taxreturn"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// mapError translates domain errors into HTTP responses. Validation failures
// carry the field path and a plain-language message back to the caller;
// persistence and crypto failures get a generic message, with the detailed
// cause reported only through the structured log.
func (a *API) mapError(w http.ResponseWriter, err error) {
	var fieldErr *taxreturn.FieldError
	var loadErr *taxreturn.LoadError
	switch {
	case errors.As(err, &fieldErr):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error: fieldErr.Message,
			Field: fieldErr.Path,
		})
	case errors.Is(err, taxreturn.ErrUnknownPath):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, taxreturn.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, storage.ErrPathTraversal):
		a.log.Warn("rejected file name", "error", err)
		writeError(w, http.StatusBadRequest, "invalid return file name")
	case errors.Is(err, crypto.ErrIntegrityViolation):
		a.log.Error("integrity verification failed", "error", err)
		writeError(w, http.StatusConflict, "the saved return failed integrity verification and cannot be opened")
	case errors.Is(err, crypto.ErrDecryptionFailed):
		a.log.Error("decryption failed", "error", err)
		writeError(w, http.StatusInternalServerError, "could not open your saved return")
	case errors.As(err, &loadErr):
		a.log.Error("load failed in every format", "error", err)
		writeError(w, http.StatusInternalServerError, "could not open your saved return")
	case errors.Is(err, fs.ErrNotExist):
		writeError(w, http.StatusNotFound, "no saved return with that name")
	case errors.Is(err, calc.ErrDataIntegrity):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, calc.ErrConfiguration):
		a.log.Error("tax table misconfigured", "error", err)
		writeError(w, http.StatusInternalServerError, "tax tables are not available for this year")
	default:
		a.log.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
