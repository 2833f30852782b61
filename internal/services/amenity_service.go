package services

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/isdelr/travel-listings-be/internal/database"
	"github.com/isdelr/travel-listings-be/internal/models"
	"github.com/jmoiron/sqlx"
)

// DefaultAmenities is the reference set inserted into an empty amenities table.
var DefaultAmenities = []models.Amenity{
	{Name: "WiFi", Icon: "wifi"},
	{Name: "Kitchen", Icon: "kitchen"},
	{Name: "Free parking", Icon: "parking"},
	{Name: "Pool", Icon: "pool"},
	{Name: "Air conditioning", Icon: "ac"},
	{Name: "Washer", Icon: "washer"},
	{Name: "Dedicated workspace", Icon: "desk"},
	{Name: "Pets allowed", Icon: "pets"},
}

// AmenityServiceProvider defines the interface for amenity services.
type AmenityServiceProvider interface {
	ListAmenities(ctx context.Context, limit, offset int) ([]models.Amenity, int, error)
	GetAmenity(ctx context.Context, id string) (models.Amenity, error)
	CreateAmenity(ctx context.Context, name, icon string) (models.Amenity, error)
}

// AmenityService provides access to the global amenity reference table.
type AmenityService struct {
	db *sqlx.DB
}

// NewAmenityService creates a new AmenityService.
func NewAmenityService(db *sqlx.DB) *AmenityService {
	return &AmenityService{db: db}
}

// ListAmenities returns one page of amenities ordered by name, plus the total count.
func (s *AmenityService) ListAmenities(ctx context.Context, limit, offset int) ([]models.Amenity, int, error) {
	var total int
	if err := s.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM amenities"); err != nil {
		return nil, 0, err
	}

	amenities := []models.Amenity{}
	err := s.db.SelectContext(ctx, &amenities,
		"SELECT id, name, icon FROM amenities ORDER BY name COLLATE NOCASE, id LIMIT ? OFFSET ?", limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return amenities, total, nil
}

// GetAmenity retrieves a single amenity by its ID.
func (s *AmenityService) GetAmenity(ctx context.Context, id string) (models.Amenity, error) {
	var amenity models.Amenity
	err := s.db.GetContext(ctx, &amenity, "SELECT id, name, icon FROM amenities WHERE id = ?", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Amenity{}, ErrAmenityNotFound
		}
		return models.Amenity{}, err
	}
	return amenity, nil
}

// CreateAmenity adds a new amenity. Names are globally unique.
func (s *AmenityService) CreateAmenity(ctx context.Context, name, icon string) (models.Amenity, error) {
	amenity := models.Amenity{ID: uuid.New().String(), Name: name, Icon: icon}
	_, err := s.db.NamedExecContext(ctx, "INSERT INTO amenities (id, name, icon) VALUES (:id, :name, :icon)", amenity)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return models.Amenity{}, ErrDuplicateAmenity
		}
		return models.Amenity{}, err
	}
	return amenity, nil
}

// SeedDefaults inserts DefaultAmenities when the table is empty and reports how many were added.
func (s *AmenityService) SeedDefaults(ctx context.Context) (int, error) {
	var total int
	if err := s.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM amenities"); err != nil {
		return 0, err
	}
	if total > 0 {
		return 0, nil
	}

	for _, a := range DefaultAmenities {
		if _, err := s.CreateAmenity(ctx, a.Name, a.Icon); err != nil {
			return 0, err
		}
	}
	return len(DefaultAmenities), nil
}
