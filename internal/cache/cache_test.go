package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"boxoffice/internal/models"
	"boxoffice/internal/resolver"
)

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(time.Minute)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	_, ok, err := c.Get(ctx, 1)
	require.NoError(t, err)
	assert.False(t, ok)

	bundle := &VenueBundle{
		VenueID: 1,
		Layout:  []byte(`{"elements":[]}`),
		Zones:   []models.Zone{{ID: "zone-floor", VenueID: 1, Name: "Floor", Capacity: 50}},
		Resolution: &resolver.ZoneResolution{
			Matches: map[string]resolver.ZoneMatch{"floor": {ZoneID: "zone-floor", Tier: resolver.TierExactID}},
		},
	}
	require.NoError(t, c.Set(ctx, bundle))

	got, ok, err := c.Get(ctx, 1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "zone-floor", got.Resolution.Match("floor").ZoneID)

	now = now.Add(2 * time.Minute)
	_, ok, err = c.Get(ctx, 1)
	require.NoError(t, err)
	assert.False(t, ok, "entry should expire after the ttl")

	now = now.Add(-2 * time.Minute)
	require.NoError(t, c.Invalidate(ctx, 1))
	_, ok, _ = c.Get(ctx, 1)
	assert.False(t, ok)
}
