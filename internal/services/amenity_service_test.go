package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAmenityUniqueName(t *testing.T) {
	svc := NewAmenityService(newTestDB(t))
	ctx := context.Background()

	a, err := svc.CreateAmenity(ctx, "WiFi", "wifi")
	require.NoError(t, err)
	assert.Equal(t, "WiFi", a.String())

	_, err = svc.CreateAmenity(ctx, "WiFi", "other")
	assert.ErrorIs(t, err, ErrDuplicateAmenity)

	got, err := svc.GetAmenity(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, a, got)

	_, err = svc.GetAmenity(ctx, "missing")
	assert.ErrorIs(t, err, ErrAmenityNotFound)
}

func TestSeedDefaultsOnlyFillsEmptyTable(t *testing.T) {
	svc := NewAmenityService(newTestDB(t))
	ctx := context.Background()

	n, err := svc.SeedDefaults(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(DefaultAmenities), n)

	n, err = svc.SeedDefaults(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	_, total, err := svc.ListAmenities(ctx, 100, 0)
	require.NoError(t, err)
	assert.Equal(t, len(DefaultAmenities), total)
}

func TestListAmenitiesOrderedByName(t *testing.T) {
	svc := NewAmenityService(newTestDB(t))
	ctx := context.Background()
	for _, name := range []string{"pool", "Kitchen", "WiFi"} {
		_, err := svc.CreateAmenity(ctx, name, "")
		require.NoError(t, err)
	}

	page, total, err := svc.ListAmenities(ctx, 2, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, page, 2)
	assert.Equal(t, "Kitchen", page[0].Name)
	assert.Equal(t, "pool", page[1].Name)

	page, _, err = svc.ListAmenities(ctx, 2, 2)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "WiFi", page[0].Name)
}
