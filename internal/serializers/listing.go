package serializers

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"github.com/isdelr/travel-listings-be/internal/models"
	"github.com/isdelr/travel-listings-be/internal/services"
	"github.com/shopspring/decimal"
)

// Mode selects which fields a deserialization requires.
type Mode int

const (
	// ModeCreate requires every writable field except availability.
	ModeCreate Mode = iota
	// ModeUpdate is a full replacement and has the same requirements as create.
	ModeUpdate
	// ModePartial requires nothing; absent fields are left unchanged.
	ModePartial
)

// Variant names a listing wire shape.
type Variant string

const (
	VariantBase   Variant = "base"
	VariantDetail Variant = "detail"
)

// listingVariants maps controller actions to the wire shape they render.
// Actions not listed use VariantBase.
var listingVariants = map[string]Variant{
	"retrieve": VariantDetail,
}

// ListingVariantFor returns the wire shape used by action.
func ListingVariantFor(action string) Variant {
	if v, ok := listingVariants[action]; ok {
		return v
	}
	return VariantBase
}

// AmenityRecord is the wire form of an amenity.
type AmenityRecord struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Icon string `json:"icon"`
}

// ListingRecord is the wire form of a listing.
type ListingRecord struct {
	ID            string          `json:"id"`
	Title         string          `json:"title"`
	Description   string          `json:"description"`
	Location      string          `json:"location"`
	PricePerNight string          `json:"price_per_night"`
	Availability  bool            `json:"availability"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	Host          string          `json:"host"`
	Amenities     []AmenityRecord `json:"amenities"`
}

// SerializeAmenity renders an amenity.
func SerializeAmenity(a models.Amenity) AmenityRecord {
	return AmenityRecord{ID: a.ID, Name: a.Name, Icon: a.Icon}
}

// SerializeAmenities renders a slice of amenities, never returning nil.
func SerializeAmenities(amenities []models.Amenity) []AmenityRecord {
	out := make([]AmenityRecord, 0, len(amenities))
	for _, a := range amenities {
		out = append(out, SerializeAmenity(a))
	}
	return out
}

// SerializeListing renders a listing in the base shape.
func SerializeListing(l models.Listing) ListingRecord {
	return ListingRecord{
		ID:            l.ID,
		Title:         l.Title,
		Description:   l.Description,
		Location:      l.Location,
		PricePerNight: l.PricePerNight.StringFixed(2),
		Availability:  l.Availability,
		CreatedAt:     l.CreatedAt,
		UpdatedAt:     l.UpdatedAt,
		Host:          l.HostUsername,
		Amenities:     SerializeAmenities(l.Amenities),
	}
}

// serializeListingDetail renders the detail shape. It currently carries the
// same fields as the base shape.
func serializeListingDetail(l models.Listing) ListingRecord {
	return SerializeListing(l)
}

// SerializeListingFor renders l in the shape selected for action.
func SerializeListingFor(action string, l models.Listing) ListingRecord {
	switch ListingVariantFor(action) {
	case VariantDetail:
		return serializeListingDetail(l)
	default:
		return SerializeListing(l)
	}
}

// SerializeListings renders a page of listings for action.
func SerializeListings(action string, listings []models.Listing) []ListingRecord {
	out := make([]ListingRecord, 0, len(listings))
	for _, l := range listings {
		out = append(out, SerializeListingFor(action, l))
	}
	return out
}

// writableListingFields is the allow-list of client-settable fields. Any
// other key in a request body, including id, host and the timestamps, is ignored.
var writableListingFields = []string{"title", "description", "location", "price_per_night", "availability"}

// stringRules are the validator rules applied to each text field once present.
var stringRules = map[string]string{
	"title":       "required,max=200",
	"description": "required",
	"location":    "required,max=100",
}

var requiredOnCreate = map[string]bool{
	"title":           true,
	"description":     true,
	"location":        true,
	"price_per_night": true,
}

var validate = newValidator()

// DeserializeListing converts raw body fields into a ListingInput. Unknown
// and read-only keys are dropped without error.
func DeserializeListing(fields map[string]json.RawMessage, mode Mode) (services.ListingInput, error) {
	var in services.ListingInput
	verr := &services.ValidationError{}

	for _, name := range writableListingFields {
		raw, present := fields[name]
		if !present {
			if mode != ModePartial && requiredOnCreate[name] {
				verr.Add(name, "This field is required.")
			}
			continue
		}
		if isNull(raw) {
			verr.Add(name, "This field may not be null.")
			continue
		}

		switch name {
		case "title", "description", "location":
			s, ok := decodeString(raw)
			if !ok {
				verr.Add(name, "Not a valid string.")
				continue
			}
			if err := validate.Var(s, stringRules[name]); err != nil {
				addValidatorErrors(verr, name, err)
				continue
			}
			switch name {
			case "title":
				in.Title = &s
			case "description":
				in.Description = &s
			case "location":
				in.Location = &s
			}
		case "price_per_night":
			d, ok := decodeDecimal(raw)
			if !ok {
				verr.Add(name, "A valid number is required.")
				continue
			}
			if msg := services.CheckPrice(d); msg != "" {
				verr.Add(name, msg)
				continue
			}
			in.PricePerNight = &d
		case "availability":
			b, ok := decodeBool(raw)
			if !ok {
				verr.Add(name, "Must be a valid boolean.")
				continue
			}
			in.Availability = &b
		}
	}

	return in, verr.OrNil()
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// decodeString accepts JSON strings and numbers, trimming surrounding whitespace.
func decodeString(raw json.RawMessage) (string, bool) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s), true
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String(), true
	}
	return "", false
}

// decodeDecimal accepts a JSON number or a numeric string.
func decodeDecimal(raw json.RawMessage) (decimal.Decimal, bool) {
	if s, ok := decodeString(raw); ok {
		d, err := decimal.NewFromString(s)
		return d, err == nil
	}
	return decimal.Decimal{}, false
}

// decodeBool accepts a JSON boolean or one of the usual string spellings.
func decodeBool(raw json.RawMessage) (bool, bool) {
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return b, true
	}
	if s, ok := decodeString(raw); ok {
		return services.ParseBool(s)
	}
	return false, false
}
