package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/roach88/cafesync/internal/domain"
	"github.com/roach88/cafesync/internal/query"
	"github.com/roach88/cafesync/internal/remote"
)

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{
		"success": false,
		"message": message,
	})
}

var badRequestErrors = []error{
	domain.ErrInvalidID,
	domain.ErrInvalidStatus,
	domain.ErrInvalidQuantity,
	domain.ErrInvalidPrice,
	domain.ErrInvalidAmount,
	domain.ErrMissingCustomer,
	domain.ErrMissingName,
	domain.ErrNoItems,
	domain.ErrInvalidDate,
	domain.ErrInvalidEmail,
	domain.ErrInvalidPhone,
	query.ErrInvalidQuery,
}

// statusFor maps an error to the HTTP status reported to the caller.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidTransition):
		return http.StatusConflict
	case remote.IsUnavailable(err):
		return http.StatusBadGateway
	}
	for _, target := range badRequestErrors {
		if errors.Is(err, target) {
			return http.StatusBadRequest
		}
	}
	return http.StatusInternalServerError
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	writeError(w, status, err.Error())
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	return dec.Decode(v)
}
