package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ance-ai/metered-gateway/internal/domain"
)

// errorEnvelope is the JSON shape of every error response.
type errorEnvelope struct {
	Error *domain.APIError `json:"error"`
}

// writeJSON writes a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps an error to the client-facing envelope. Anything that is
// not a canonical APIError is collapsed to a generic server error so
// internal detail never leaks.
func writeError(w http.ResponseWriter, err error) {
	var apiErr *domain.APIError
	if !errors.As(err, &apiErr) {
		apiErr = domain.ErrServer("internal server error")
	}
	writeJSON(w, apiErr.HTTPStatusCode(), errorEnvelope{Error: apiErr})
}
