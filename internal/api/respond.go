package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"georegistry/internal/repository"
	"georegistry/internal/versioning"
)

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(payload)
}

type errorBody struct {
	Error string `json:"error"`
}

// writeError maps domain errors onto HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, versioning.ErrVersionConflict):
		status = http.StatusConflict
	case errors.Is(err, repository.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, versioning.ErrNotAuthenticated):
		status = http.StatusUnauthorized
	case errors.Is(err, versioning.ErrInvalidClient):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, versioning.ErrInvalidReference):
		status = http.StatusBadRequest
	}
	writeJSON(w, status, errorBody{Error: err.Error()})
}

func writeBadRequest(w http.ResponseWriter, err error) {
	writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
}
