package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Listing represents a hosted travel property.
type Listing struct {
	ID            string
	Title         string
	Description   string
	Location      string
	PricePerNight decimal.Decimal
	Availability  bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
	HostID        string
	HostUsername  string
	Amenities     []Amenity
}

// String returns the listing's display form, which is its title.
func (l Listing) String() string {
	return l.Title
}

// IsHostedBy reports whether the given user owns the listing.
func (l Listing) IsHostedBy(userID string) bool {
	return l.HostID != "" && l.HostID == userID
}

// ListingAmenity links one listing to one amenity. The pair is unique.
type ListingAmenity struct {
	ListingID string `db:"listing_id"`
	AmenityID string `db:"amenity_id"`
}
