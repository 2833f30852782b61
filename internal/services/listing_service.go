package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/isdelr/travel-listings-be/internal/database"
	"github.com/isdelr/travel-listings-be/internal/models"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// ListingInput carries the client-writable listing fields. Nil fields are
// left unchanged on update; on create, a nil Availability means available.
type ListingInput struct {
	Title         *string
	Description   *string
	Location      *string
	PricePerNight *decimal.Decimal
	Availability  *bool
}

// ListingServiceProvider defines the interface for listing services.
type ListingServiceProvider interface {
	ListListings(ctx context.Context, q ListingQuery) ([]models.Listing, int, error)
	GetListing(ctx context.Context, id string) (models.Listing, error)
	CreateListing(ctx context.Context, hostID string, in ListingInput) (models.Listing, error)
	UpdateListing(ctx context.Context, id string, in ListingInput) (models.Listing, error)
	DeleteListing(ctx context.Context, id string) error
	SetAvailability(ctx context.Context, id string, available bool) (models.Listing, error)
	AddAmenity(ctx context.Context, listingID, amenityID string) (models.Listing, error)
	RemoveAmenity(ctx context.Context, listingID, amenityID string) error
}

// ListingService provides business logic for listing management.
type ListingService struct {
	db           *sqlx.DB
	eventService EventServiceProvider
	now          func() time.Time
}

// NewListingService creates a new ListingService.
func NewListingService(db *sqlx.DB, eventService EventServiceProvider) *ListingService {
	return &ListingService{db: db, eventService: eventService, now: time.Now}
}

const listingColumns = `
	l.id, l.title, l.description, l.location, l.price_cents, l.availability,
	l.created_at, l.updated_at, l.host_id, u.username AS host_username`

type listingRow struct {
	ID           string `db:"id"`
	Title        string `db:"title"`
	Description  string `db:"description"`
	Location     string `db:"location"`
	PriceCents   int64  `db:"price_cents"`
	Availability bool   `db:"availability"`
	CreatedAt    string `db:"created_at"`
	UpdatedAt    string `db:"updated_at"`
	HostID       string `db:"host_id"`
	HostUsername string `db:"host_username"`
}

func (r listingRow) toModel() (models.Listing, error) {
	created, err := database.ParseTime(r.CreatedAt)
	if err != nil {
		return models.Listing{}, err
	}
	updated, err := database.ParseTime(r.UpdatedAt)
	if err != nil {
		return models.Listing{}, err
	}
	return models.Listing{
		ID:            r.ID,
		Title:         r.Title,
		Description:   r.Description,
		Location:      r.Location,
		PricePerNight: PriceFromCents(r.PriceCents),
		Availability:  r.Availability,
		CreatedAt:     created,
		UpdatedAt:     updated,
		HostID:        r.HostID,
		HostUsername:  r.HostUsername,
		Amenities:     []models.Amenity{},
	}, nil
}

// ListListings returns one page of listings matching q, plus the total number of matches.
func (s *ListingService) ListListings(ctx context.Context, q ListingQuery) ([]models.Listing, int, error) {
	where, args := q.where()

	var total int
	if err := s.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM listings l WHERE "+where, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count listings: %w", err)
	}

	query := "SELECT " + listingColumns + " FROM listings l JOIN users u ON u.id = l.host_id WHERE " + where +
		" ORDER BY " + q.orderBy()
	if q.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, q.Limit, q.Offset)
	}

	var rows []listingRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to query listings: %w", err)
	}

	listings := make([]models.Listing, 0, len(rows))
	for _, row := range rows {
		listing, err := row.toModel()
		if err != nil {
			return nil, 0, err
		}
		listings = append(listings, listing)
	}
	if err := s.loadAmenities(ctx, listings); err != nil {
		return nil, 0, err
	}
	return listings, total, nil
}

// GetListing retrieves a single listing with its amenities.
func (s *ListingService) GetListing(ctx context.Context, id string) (models.Listing, error) {
	var row listingRow
	err := s.db.GetContext(ctx, &row,
		"SELECT "+listingColumns+" FROM listings l JOIN users u ON u.id = l.host_id WHERE l.id = ?", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Listing{}, ErrListingNotFound
		}
		return models.Listing{}, err
	}

	listing, err := row.toModel()
	if err != nil {
		return models.Listing{}, err
	}
	listings := []models.Listing{listing}
	if err := s.loadAmenities(ctx, listings); err != nil {
		return models.Listing{}, err
	}
	return listings[0], nil
}

// loadAmenities fills the Amenities of every listing in place.
func (s *ListingService) loadAmenities(ctx context.Context, listings []models.Listing) error {
	if len(listings) == 0 {
		return nil
	}
	ids := make([]string, len(listings))
	index := make(map[string]int, len(listings))
	for i, l := range listings {
		ids[i] = l.ID
		index[l.ID] = i
	}

	query, args, err := sqlx.In(`
		SELECT la.listing_id, a.id, a.name, a.icon
		FROM listing_amenities la JOIN amenities a ON a.id = la.amenity_id
		WHERE la.listing_id IN (?)
		ORDER BY la.id`, ids)
	if err != nil {
		return err
	}

	var rows []struct {
		ListingID string `db:"listing_id"`
		models.Amenity
	}
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		return fmt.Errorf("failed to load amenities: %w", err)
	}
	for _, row := range rows {
		i := index[row.ListingID]
		listings[i].Amenities = append(listings[i].Amenities, row.Amenity)
	}
	return nil
}

// CreateListing inserts a listing hosted by hostID. Title, description,
// location and price must be set on in.
func (s *ListingService) CreateListing(ctx context.Context, hostID string, in ListingInput) (models.Listing, error) {
	if in.Title == nil || in.Description == nil || in.Location == nil || in.PricePerNight == nil {
		return models.Listing{}, NewValidationError("non_field_errors", "title, description, location and price_per_night are required")
	}

	now := database.FormatTime(s.now())
	available := true
	if in.Availability != nil {
		available = *in.Availability
	}

	row := listingRow{
		ID:           uuid.New().String(),
		Title:        *in.Title,
		Description:  *in.Description,
		Location:     *in.Location,
		PriceCents:   PriceToCents(*in.PricePerNight),
		Availability: available,
		CreatedAt:    now,
		UpdatedAt:    now,
		HostID:       hostID,
	}

	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO listings (id, title, description, location, price_cents, availability, created_at, updated_at, host_id)
		VALUES (:id, :title, :description, :location, :price_cents, :availability, :created_at, :updated_at, :host_id)`, row)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return models.Listing{}, ErrUserNotFound
		}
		return models.Listing{}, fmt.Errorf("failed to insert listing: %w", err)
	}

	s.recordEvent(ctx, models.EventListingCreated, fmt.Sprintf("Listing '%s' created.", row.Title), row.ID)
	return s.GetListing(ctx, row.ID)
}

// UpdateListing applies the non-nil fields of in. The host and created_at never change.
func (s *ListingService) UpdateListing(ctx context.Context, id string, in ListingInput) (models.Listing, error) {
	existing, err := s.GetListing(ctx, id)
	if err != nil {
		return models.Listing{}, err
	}

	if in.Title != nil {
		existing.Title = *in.Title
	}
	if in.Description != nil {
		existing.Description = *in.Description
	}
	if in.Location != nil {
		existing.Location = *in.Location
	}
	if in.PricePerNight != nil {
		existing.PricePerNight = *in.PricePerNight
	}
	if in.Availability != nil {
		existing.Availability = *in.Availability
	}

	_, err = s.db.ExecContext(ctx, `
		UPDATE listings
		SET title = ?, description = ?, location = ?, price_cents = ?, availability = ?, updated_at = ?
		WHERE id = ?`,
		existing.Title, existing.Description, existing.Location, PriceToCents(existing.PricePerNight),
		existing.Availability, database.FormatTime(s.touch(existing.UpdatedAt)), id)
	if err != nil {
		return models.Listing{}, fmt.Errorf("failed to update listing: %w", err)
	}

	s.recordEvent(ctx, models.EventListingUpdated, fmt.Sprintf("Listing '%s' updated.", existing.Title), id)
	return s.GetListing(ctx, id)
}

// DeleteListing removes a listing and, by cascade, its amenity links.
func (s *ListingService) DeleteListing(ctx context.Context, id string) error {
	existing, err := s.GetListing(ctx, id)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, "DELETE FROM listings WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete listing: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrListingNotFound
	}

	s.recordEvent(ctx, models.EventListingDeleted, fmt.Sprintf("Listing '%s' was deleted.", existing.Title), id)
	return nil
}

// SetAvailability flips the listing's availability flag and persists it.
func (s *ListingService) SetAvailability(ctx context.Context, id string, available bool) (models.Listing, error) {
	existing, err := s.GetListing(ctx, id)
	if err != nil {
		return models.Listing{}, err
	}

	_, err = s.db.ExecContext(ctx, "UPDATE listings SET availability = ?, updated_at = ? WHERE id = ?",
		available, database.FormatTime(s.touch(existing.UpdatedAt)), id)
	if err != nil {
		return models.Listing{}, fmt.Errorf("failed to update availability: %w", err)
	}

	eventType, msg := models.EventListingMarkedUnavailable, "Listing '%s' marked as unavailable."
	if available {
		eventType, msg = models.EventListingMarkedAvailable, "Listing '%s' marked as available."
	}
	s.recordEvent(ctx, eventType, fmt.Sprintf(msg, existing.Title), id)
	return s.GetListing(ctx, id)
}

// AddAmenity links an amenity to a listing. A listing cannot declare the same amenity twice.
func (s *ListingService) AddAmenity(ctx context.Context, listingID, amenityID string) (models.Listing, error) {
	listing, err := s.GetListing(ctx, listingID)
	if err != nil {
		return models.Listing{}, err
	}

	var amenity models.Amenity
	if err := s.db.GetContext(ctx, &amenity, "SELECT id, name, icon FROM amenities WHERE id = ?", amenityID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Listing{}, ErrAmenityNotFound
		}
		return models.Listing{}, err
	}

	_, err = s.db.NamedExecContext(ctx,
		"INSERT INTO listing_amenities (listing_id, amenity_id) VALUES (:listing_id, :amenity_id)",
		models.ListingAmenity{ListingID: listingID, AmenityID: amenityID})
	if err != nil {
		if database.IsUniqueViolation(err) {
			return models.Listing{}, ErrDuplicateListingAmenity
		}
		return models.Listing{}, fmt.Errorf("failed to link amenity: %w", err)
	}

	s.recordEvent(ctx, models.EventListingAmenityAdded,
		fmt.Sprintf("Amenity '%s' added to listing '%s'.", amenity.Name, listing.Title), listingID)
	return s.GetListing(ctx, listingID)
}

// RemoveAmenity unlinks an amenity from a listing.
func (s *ListingService) RemoveAmenity(ctx context.Context, listingID, amenityID string) error {
	listing, err := s.GetListing(ctx, listingID)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, "DELETE FROM listing_amenities WHERE listing_id = ? AND amenity_id = ?", listingID, amenityID)
	if err != nil {
		return fmt.Errorf("failed to unlink amenity: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrAmenityNotFound
	}

	s.recordEvent(ctx, models.EventListingAmenityRemoved,
		fmt.Sprintf("Amenity removed from listing '%s'.", listing.Title), listingID)
	return nil
}

// touch returns the new updated_at for a row last modified at prev. It is
// always strictly later than prev, even on coarse clocks.
func (s *ListingService) touch(prev time.Time) time.Time {
	now := s.now().UTC()
	if !now.After(prev) {
		now = prev.Add(time.Microsecond)
	}
	return now
}

func (s *ListingService) recordEvent(ctx context.Context, eventType, message, listingID string) {
	if s.eventService == nil {
		return
	}
	if err := s.eventService.CreateEvent(ctx, eventType, message, &listingID); err != nil {
		log.Warn().Err(err).Str("listing_id", listingID).Str("event", eventType).Msg("Failed to record listing event")
	}
}
