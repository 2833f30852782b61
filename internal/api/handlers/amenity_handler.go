package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/isdelr/travel-listings-be/internal/serializers"
	"github.com/isdelr/travel-listings-be/internal/services"
)

// AmenityHandler serves the read-only amenity catalogue.
type AmenityHandler struct {
	service  services.AmenityServiceProvider
	pageSize int
}

// NewAmenityHandler creates a new AmenityHandler.
func NewAmenityHandler(service services.AmenityServiceProvider, pageSize int) *AmenityHandler {
	return &AmenityHandler{service: service, pageSize: pageSize}
}

// List handles the paginated amenity index, ordered by name.
func (h *AmenityHandler) List(w http.ResponseWriter, r *http.Request) {
	page, err := parsePage(r, h.pageSize)
	if err != nil {
		writeServiceError(w, err, "Invalid page request")
		return
	}

	amenities, total, err := h.service.ListAmenities(r.Context(), page.limit(), page.offset())
	if err != nil {
		writeServiceError(w, err, "Failed to retrieve amenities")
		return
	}

	body, err := newPage(r, page, total, serializers.SerializeAmenities(amenities))
	if err != nil {
		writeServiceError(w, err, "Invalid page request")
		return
	}
	writeJSON(w, http.StatusOK, body)
}

// Get handles retrieving one amenity.
func (h *AmenityHandler) Get(w http.ResponseWriter, r *http.Request) {
	amenity, err := h.service.GetAmenity(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err, "Failed to get amenity")
		return
	}
	writeJSON(w, http.StatusOK, serializers.SerializeAmenity(amenity))
}
