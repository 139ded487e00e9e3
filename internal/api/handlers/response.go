package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/nexh/focus/internal/domain"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeServiceError maps the domain error kinds onto HTTP statuses. Anything
// else is reported as fallback with a 500.
func writeServiceError(w http.ResponseWriter, err error, fallback string) {
	var (
		nf     *domain.NotFoundError
		cfgErr *domain.ConfigurationError
		dae    *domain.DataAccessError
	)
	switch {
	case errors.As(err, &nf):
		writeError(w, http.StatusNotFound, nf.Error())
	case errors.As(err, &cfgErr):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{
			"error": cfgErr.Error(),
			"rule":  cfgErr.Rule,
		})
	case errors.As(err, &dae):
		w.Header().Set("Retry-After", "5")
		writeError(w, http.StatusServiceUnavailable, "data store unavailable")
	default:
		writeError(w, http.StatusInternalServerError, fallback)
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	return dec.Decode(v)
}

const maxBodyBytes = 1 << 20
