package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/isdelr/travel-listings-be/internal/serializers"
	"github.com/isdelr/travel-listings-be/internal/services"
	"github.com/rs/zerolog/log"
)

// writeJSON encodes v as the response body with the given status.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

// writeDetail writes a {"detail": msg} error body.
func writeDetail(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"detail": msg})
}

// writeServiceError maps service and serializer errors onto HTTP responses.
// Unexpected errors are logged with msg and reported as 500.
func writeServiceError(w http.ResponseWriter, err error, msg string) {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, verr.Fields)
	case errors.Is(err, serializers.ErrMalformedBody):
		writeDetail(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrListingNotFound),
		errors.Is(err, services.ErrAmenityNotFound),
		errors.Is(err, services.ErrUserNotFound):
		writeDetail(w, http.StatusNotFound, "Not found.")
	case errors.Is(err, services.ErrInvalidPage):
		writeDetail(w, http.StatusNotFound, "Invalid page.")
	case errors.Is(err, services.ErrDuplicateAmenity),
		errors.Is(err, services.ErrDuplicateListingAmenity),
		errors.Is(err, services.ErrDuplicateUser):
		writeDetail(w, http.StatusConflict, err.Error())
	case errors.Is(err, services.ErrInvalidCredentials):
		writeDetail(w, http.StatusUnauthorized, "Invalid credentials.")
	default:
		log.Error().Err(err).Msg(msg)
		writeDetail(w, http.StatusInternalServerError, "Internal server error.")
	}
}

// NotFound is the router's fallback for unknown paths.
func NotFound(w http.ResponseWriter, r *http.Request) {
	writeDetail(w, http.StatusNotFound, "Not found.")
}

// MethodNotAllowed is the router's fallback for known paths hit with an unsupported method.
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeDetail(w, http.StatusMethodNotAllowed, `Method "`+r.Method+`" not allowed.`)
}
