package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"medgemma/internal/analysis"
	"medgemma/pkg/types"
)

// HTTPError allows services to provide an HTTP status code for an error.
type HTTPError interface {
	error
	StatusCode() int
}

const msgInternal = "internal server error"

// statusFor maps a façade error to a status code and a client-safe message.
// Unclassified errors never leak their text.
func statusFor(err error) (int, string) {
	switch {
	case analysis.IsValidationError(err):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, analysis.ErrModelUnavailable):
		return http.StatusServiceUnavailable, err.Error()
	}
	var he HTTPError
	if errors.As(err, &he) {
		return he.StatusCode(), he.Error()
	}
	return http.StatusInternalServerError, msgInternal
}

// writeJSON encodes v before touching the response so an encode failure can still become a 500.
func writeJSON(w http.ResponseWriter, status int, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		zlog.Error().Err(err).Msg("encode response")
		writeJSONError(w, http.StatusInternalServerError, msgInternal)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(b, '\n'))
}

// writeJSONError writes a consistent JSON error payload.
func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(types.ErrorResponse{Success: false, Error: msg, Code: status})
}
