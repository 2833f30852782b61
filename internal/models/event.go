package models

import "time"

// Event types recorded for listing activity.
const (
	EventListingCreated           = "listing.created"
	EventListingUpdated           = "listing.updated"
	EventListingDeleted           = "listing.deleted"
	EventListingMarkedAvailable   = "listing.marked_available"
	EventListingMarkedUnavailable = "listing.marked_unavailable"
	EventListingAmenityAdded      = "listing.amenity_added"
	EventListingAmenityRemoved    = "listing.amenity_removed"
)

// Event represents a recorded change to a listing.
type Event struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"` // e.g., "listing.created"
	Message   string    `json:"message"`
	ListingID *string   `json:"listingId,omitempty"` // Nullable for system-wide events
	ActorID   *string   `json:"actorId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}
