package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/isdelr/travel-listings-be/internal/auth"
	"github.com/isdelr/travel-listings-be/internal/serializers"
	"github.com/isdelr/travel-listings-be/internal/services"
	"github.com/rs/zerolog/log"
)

// Controller action names, used to pick the serializer variant.
const (
	actionList          = "list"
	actionRetrieve      = "retrieve"
	actionCreate        = "create"
	actionUpdate        = "update"
	actionPartialUpdate = "partial_update"
	actionAddAmenity    = "add_amenity"
)

// ListingHandler handles HTTP requests for listings.
type ListingHandler struct {
	service      services.ListingServiceProvider
	pageSize     int
	enforceOwner bool
}

// NewListingHandler creates a new ListingHandler. With enforceOwner set, only
// a listing's host may mutate it; otherwise any authenticated caller may.
func NewListingHandler(service services.ListingServiceProvider, pageSize int, enforceOwner bool) *ListingHandler {
	return &ListingHandler{service: service, pageSize: pageSize, enforceOwner: enforceOwner}
}

// List handles the paginated, filtered, searched and ordered listing index.
func (h *ListingHandler) List(w http.ResponseWriter, r *http.Request) {
	page, err := parsePage(r, h.pageSize)
	if err != nil {
		writeServiceError(w, err, "Invalid page request")
		return
	}

	query, err := services.ParseListingQuery(r.URL.Query())
	if err != nil {
		writeServiceError(w, err, "Invalid listing filters")
		return
	}
	query.Limit, query.Offset = page.limit(), page.offset()

	listings, total, err := h.service.ListListings(r.Context(), query)
	if err != nil {
		writeServiceError(w, err, "Failed to retrieve listings")
		return
	}

	body, err := newPage(r, page, total, serializers.SerializeListings(actionList, listings))
	if err != nil {
		writeServiceError(w, err, "Invalid page request")
		return
	}
	writeJSON(w, http.StatusOK, body)
}

// Get handles retrieving a single listing in its detail shape.
func (h *ListingHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	listing, err := h.service.GetListing(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, "Failed to get listing")
		return
	}
	writeJSON(w, http.StatusOK, serializers.SerializeListingFor(actionRetrieve, listing))
}

// Create handles the creation of a listing hosted by the caller. Any host in
// the body is ignored.
func (h *ListingHandler) Create(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.FromContext(r.Context())
	if !ok {
		writeDetail(w, http.StatusUnauthorized, "Authentication credentials were not provided.")
		return
	}

	in, ok := h.decode(w, r, serializers.ModeCreate)
	if !ok {
		return
	}

	listing, err := h.service.CreateListing(r.Context(), identity.UserID, in)
	if errors.Is(err, services.ErrUserNotFound) {
		// The account was removed after the token was checked.
		writeDetail(w, http.StatusUnauthorized, "Invalid token.")
		return
	}
	if err != nil {
		writeServiceError(w, err, "Failed to create listing")
		return
	}

	log.Info().Str("listing_id", listing.ID).Str("host_id", identity.UserID).Msg("Listing created")
	writeJSON(w, http.StatusCreated, serializers.SerializeListingFor(actionCreate, listing))
}

// Update handles a full update (PUT).
func (h *ListingHandler) Update(w http.ResponseWriter, r *http.Request) {
	h.update(w, r, serializers.ModeUpdate, actionUpdate)
}

// PartialUpdate handles a partial update (PATCH).
func (h *ListingHandler) PartialUpdate(w http.ResponseWriter, r *http.Request) {
	h.update(w, r, serializers.ModePartial, actionPartialUpdate)
}

func (h *ListingHandler) update(w http.ResponseWriter, r *http.Request, mode serializers.Mode, action string) {
	id := chi.URLParam(r, "id")
	if !h.authorize(w, r, id) {
		return
	}

	in, ok := h.decode(w, r, mode)
	if !ok {
		return
	}

	listing, err := h.service.UpdateListing(r.Context(), id, in)
	if err != nil {
		writeServiceError(w, err, "Failed to update listing")
		return
	}
	writeJSON(w, http.StatusOK, serializers.SerializeListingFor(action, listing))
}

// Delete handles the permanent deletion of a listing.
func (h *ListingHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !h.authorize(w, r, id) {
		return
	}

	if err := h.service.DeleteListing(r.Context(), id); err != nil {
		writeServiceError(w, err, "Failed to delete listing")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// MarkUnavailable sets availability to false.
func (h *ListingHandler) MarkUnavailable(w http.ResponseWriter, r *http.Request) {
	h.setAvailability(w, r, false)
}

// MarkAvailable sets availability to true.
func (h *ListingHandler) MarkAvailable(w http.ResponseWriter, r *http.Request) {
	h.setAvailability(w, r, true)
}

func (h *ListingHandler) setAvailability(w http.ResponseWriter, r *http.Request, available bool) {
	id := chi.URLParam(r, "id")
	if !h.authorize(w, r, id) {
		return
	}

	if _, err := h.service.SetAvailability(r.Context(), id, available); err != nil {
		writeServiceError(w, err, "Failed to change listing availability")
		return
	}

	status := "Listing marked as unavailable"
	if available {
		status = "Listing marked as available"
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": status})
}

// AddAmenity links an existing amenity to the listing.
func (h *ListingHandler) AddAmenity(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !h.authorize(w, r, id) {
		return
	}

	fields, err := serializers.ReadFields(r)
	if err != nil {
		writeServiceError(w, err, "Invalid request body")
		return
	}
	var payload struct {
		AmenityID string `json:"amenity_id"`
	}
	if err := serializers.DecodeInto(fields, &payload); err != nil {
		writeServiceError(w, err, "Invalid request body")
		return
	}
	if payload.AmenityID == "" {
		writeJSON(w, http.StatusBadRequest, map[string][]string{"amenity_id": {"This field is required."}})
		return
	}

	listing, err := h.service.AddAmenity(r.Context(), id, payload.AmenityID)
	if errors.Is(err, services.ErrAmenityNotFound) {
		writeJSON(w, http.StatusBadRequest, map[string][]string{
			"amenity_id": {`Invalid pk "` + payload.AmenityID + `" - object does not exist.`},
		})
		return
	}
	if err != nil {
		writeServiceError(w, err, "Failed to add amenity to listing")
		return
	}
	writeJSON(w, http.StatusCreated, serializers.SerializeListingFor(actionAddAmenity, listing))
}

// RemoveAmenity unlinks an amenity from the listing.
func (h *ListingHandler) RemoveAmenity(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !h.authorize(w, r, id) {
		return
	}

	if err := h.service.RemoveAmenity(r.Context(), id, chi.URLParam(r, "amenityId")); err != nil {
		writeServiceError(w, err, "Failed to remove amenity from listing")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// decode reads and deserializes a listing body, writing the error response on failure.
func (h *ListingHandler) decode(w http.ResponseWriter, r *http.Request, mode serializers.Mode) (services.ListingInput, bool) {
	fields, err := serializers.ReadFields(r)
	if err != nil {
		writeServiceError(w, err, "Invalid request body")
		return services.ListingInput{}, false
	}
	in, err := serializers.DeserializeListing(fields, mode)
	if err != nil {
		writeServiceError(w, err, "Invalid listing data")
		return services.ListingInput{}, false
	}
	return in, true
}

// authorize applies the mutation policy for listing id. The caller must be
// authenticated and the listing must exist. Ownership is only enforced when
// configured; otherwise a non-host mutation is allowed but logged.
func (h *ListingHandler) authorize(w http.ResponseWriter, r *http.Request, id string) bool {
	identity, ok := auth.FromContext(r.Context())
	if !ok {
		writeDetail(w, http.StatusUnauthorized, "Authentication credentials were not provided.")
		return false
	}

	listing, err := h.service.GetListing(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, "Failed to get listing")
		return false
	}
	if listing.IsHostedBy(identity.UserID) {
		return true
	}

	if h.enforceOwner {
		writeDetail(w, http.StatusForbidden, "You do not have permission to perform this action.")
		return false
	}
	log.Warn().
		Str("listing_id", id).
		Str("host_id", listing.HostID).
		Str("caller_id", identity.UserID).
		Str("method", r.Method).
		Msg("Listing mutated by a user who is not its host")
	return true
}
