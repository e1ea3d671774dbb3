package web

import (
	"errors"
	"net/http"

	"github.com/Marchen/ksjutil"
	"github.com/Marchen/ksjutil/internal/logging"
	json "github.com/goccy/go-json"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// writeJSON writes v as a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// respondError writes a JSON error body with a stable machine code.
func respondError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, errorResponse{Error: msg, Code: code})
}

// respondCoreError maps the library's typed errors onto HTTP statuses.
// Unrecognised errors become a 500 and are logged with request context.
func respondCoreError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		missing    *ksjutil.MissingMetadataError
		unmapped   *ksjutil.UnmappedYearError
		unresolved *ksjutil.UnresolvedYearError
	)

	switch {
	case errors.As(err, &missing):
		respondError(w, http.StatusNotFound, "missing_metadata", err.Error())
	case errors.As(err, &unmapped):
		respondError(w, http.StatusNotFound, "unmapped_year", err.Error())
	case errors.As(err, &unresolved):
		respondError(w, http.StatusUnprocessableEntity, "unresolved_year", err.Error())
	default:
		logging.FromContext(r.Context()).Error("cleanup request failed", "error", err)
		respondError(w, http.StatusInternalServerError, "internal", "internal server error")
	}
}
