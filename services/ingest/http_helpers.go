package ingest

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"redactd/pkg/sanitize"
)

// principalHeader carries the authenticated caller identity set by the edge
// proxy. Authentication itself happens upstream.
const principalHeader = "X-Principal-ID"

func principalID(r *http.Request) (uuid.UUID, error) {
	raw := r.Header.Get(principalHeader)
	if raw == "" {
		return uuid.Nil, errors.New("missing principal header")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, errors.New("invalid principal header")
	}
	return id, nil
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, err error) {
	if err == nil {
		err = errors.New("unknown error")
	}
	respondJSON(w, status, map[string]any{"error": err.Error()})
}

// errorStatus maps the lifecycle and sanitizer taxonomy onto HTTP codes.
// Ownership failures deliberately collapse into 404.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidState):
		return http.StatusConflict
	case errors.Is(err, sanitize.ErrInvalidInput):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
