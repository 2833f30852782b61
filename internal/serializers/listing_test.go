package serializers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/isdelr/travel-listings-be/internal/models"
	"github.com/isdelr/travel-listings-be/internal/services"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rawFields(t *testing.T, body string) map[string]json.RawMessage {
	t.Helper()
	var fields map[string]json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(body), &fields))
	return fields
}

func fieldErrors(t *testing.T, err error) map[string][]string {
	t.Helper()
	var verr *services.ValidationError
	require.ErrorAs(t, err, &verr)
	return verr.Fields
}

func TestDeserializeListingCreate(t *testing.T) {
	in, err := DeserializeListing(rawFields(t, `{
		"title": "  Test Listing ",
		"description": "Test Description",
		"location": "Test Location",
		"price_per_night": "100.00",
		"availability": true,
		"host": "someone-else",
		"id": "forged",
		"created_at": "2000-01-01T00:00:00Z"
	}`), ModeCreate)
	require.NoError(t, err)

	require.NotNil(t, in.Title)
	assert.Equal(t, "Test Listing", *in.Title)
	assert.Equal(t, "Test Description", *in.Description)
	assert.Equal(t, "Test Location", *in.Location)
	assert.True(t, in.PricePerNight.Equal(decimal.NewFromInt(100)))
	require.NotNil(t, in.Availability)
	assert.True(t, *in.Availability)
}

func TestDeserializeListingNumericPrice(t *testing.T) {
	in, err := DeserializeListing(rawFields(t, `{
		"title": "T", "description": "D", "location": "L", "price_per_night": 42.5
	}`), ModeCreate)
	require.NoError(t, err)
	assert.Equal(t, "42.50", in.PricePerNight.StringFixed(2))
	assert.Nil(t, in.Availability, "availability is optional on create")
}

func TestDeserializeListingRequiredFields(t *testing.T) {
	_, err := DeserializeListing(rawFields(t, `{"title": "Only a title"}`), ModeCreate)
	errs := fieldErrors(t, err)
	assert.Equal(t, []string{"This field is required."}, errs["description"])
	assert.Equal(t, []string{"This field is required."}, errs["location"])
	assert.Equal(t, []string{"This field is required."}, errs["price_per_night"])
	assert.NotContains(t, errs, "title")
	assert.NotContains(t, errs, "availability")

	_, err = DeserializeListing(rawFields(t, `{"title": "Only a title"}`), ModeUpdate)
	assert.Len(t, fieldErrors(t, err), 3, "a full update has the same requirements as create")
}

func TestDeserializeListingPartial(t *testing.T) {
	in, err := DeserializeListing(rawFields(t, `{"availability": "false"}`), ModePartial)
	require.NoError(t, err)
	assert.Nil(t, in.Title)
	assert.Nil(t, in.PricePerNight)
	require.NotNil(t, in.Availability)
	assert.False(t, *in.Availability)
}

func TestDeserializeListingInvalidValues(t *testing.T) {
	_, err := DeserializeListing(rawFields(t, `{
		"title": "   ",
		"description": null,
		"location": ["Paris"],
		"price_per_night": "-5",
		"availability": "sometimes"
	}`), ModeCreate)
	errs := fieldErrors(t, err)
	assert.Equal(t, []string{"This field may not be blank."}, errs["title"])
	assert.Equal(t, []string{"This field may not be null."}, errs["description"])
	assert.Equal(t, []string{"Not a valid string."}, errs["location"])
	assert.Equal(t, []string{"Ensure this value is greater than or equal to 0."}, errs["price_per_night"])
	assert.Equal(t, []string{"Must be a valid boolean."}, errs["availability"])
}

func TestDeserializeListingLengthsAndPrecision(t *testing.T) {
	_, err := DeserializeListing(rawFields(t, `{
		"title": "`+strings.Repeat("x", 201)+`",
		"location": "`+strings.Repeat("y", 101)+`",
		"price_per_night": "abc"
	}`), ModePartial)
	errs := fieldErrors(t, err)
	assert.Equal(t, []string{"Ensure this field has no more than 200 characters."}, errs["title"])
	assert.Equal(t, []string{"Ensure this field has no more than 100 characters."}, errs["location"])
	assert.Equal(t, []string{"A valid number is required."}, errs["price_per_night"])

	_, err = DeserializeListing(rawFields(t, `{"price_per_night": "10.999"}`), ModePartial)
	assert.Equal(t, []string{"Ensure that there are no more than 2 decimal places."}, fieldErrors(t, err)["price_per_night"])
}

func TestSerializeListing(t *testing.T) {
	created := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	l := models.Listing{
		ID:            "l1",
		Title:         "Test Listing",
		Description:   "Test Description",
		Location:      "Test Location",
		PricePerNight: decimal.NewFromInt(100),
		Availability:  true,
		CreatedAt:     created,
		UpdatedAt:     created,
		HostID:        "u1",
		HostUsername:  "testuser",
	}

	rec := SerializeListingFor("list", l)
	assert.Equal(t, "100.00", rec.PricePerNight)
	assert.Equal(t, "testuser", rec.Host)
	assert.NotNil(t, rec.Amenities)

	b, err := json.Marshal(rec)
	require.NoError(t, err)
	var wire map[string]interface{}
	require.NoError(t, json.Unmarshal(b, &wire))
	for _, key := range []string{"id", "title", "description", "location", "price_per_night", "availability", "created_at", "updated_at", "host", "amenities"} {
		assert.Contains(t, wire, key)
	}
	assert.Equal(t, []interface{}{}, wire["amenities"])
}

func TestListingVariants(t *testing.T) {
	assert.Equal(t, VariantDetail, ListingVariantFor("retrieve"))
	assert.Equal(t, VariantBase, ListingVariantFor("list"))
	assert.Equal(t, VariantBase, ListingVariantFor("create"))

	l := models.Listing{Title: "Same", PricePerNight: decimal.NewFromInt(1)}
	assert.Equal(t, SerializeListingFor("list", l), SerializeListingFor("retrieve", l))
	assert.Empty(t, SerializeListings("list", nil))
	assert.NotNil(t, SerializeListings("list", nil))
}

func TestReadFieldsForm(t *testing.T) {
	form := url.Values{"title": {"Form title"}, "price_per_night": {"12.5"}}
	r := httptest.NewRequest(http.MethodPost, "/listings", strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	fields, err := ReadFields(r)
	require.NoError(t, err)
	assert.JSONEq(t, `"Form title"`, string(fields["title"]))

	in, err := DeserializeListing(fields, ModePartial)
	require.NoError(t, err)
	assert.Equal(t, "12.50", in.PricePerNight.StringFixed(2))
}

func TestReadFieldsMalformedJSON(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/listings", strings.NewReader(`{"title":`))
	r.Header.Set("Content-Type", "application/json")
	_, err := ReadFields(r)
	assert.ErrorIs(t, err, ErrMalformedBody)

	r = httptest.NewRequest(http.MethodPost, "/listings", strings.NewReader(`[1, 2]`))
	_, err = ReadFields(r)
	assert.ErrorIs(t, err, ErrMalformedBody)
}

func TestReadFieldsEmptyBody(t *testing.T) {
	fields, err := ReadFields(httptest.NewRequest(http.MethodPost, "/listings", nil))
	require.NoError(t, err)
	assert.Empty(t, fields)
}
