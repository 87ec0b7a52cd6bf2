// Package cache keeps per-venue bundles: the raw layout document, the
// venue's zones and the zone resolution computed from them. A bundle is
// valid until the layout or the zones change.
package cache

import (
	"context"
	"sync"
	"time"

	"boxoffice/internal/models"
	"boxoffice/internal/resolver"
)

// VenueBundle is everything that is computed once per venue load.
type VenueBundle struct {
	VenueID         int64                    `json:"venue_id"`
	Layout          []byte                   `json:"layout"`
	LayoutUpdatedAt time.Time                `json:"layout_updated_at"`
	Zones           []models.Zone            `json:"zones"`
	Resolution      *resolver.ZoneResolution `json:"resolution"`
	CachedAt        time.Time                `json:"cached_at"`
}

// VenueCache stores venue bundles.
type VenueCache interface {
	Get(ctx context.Context, venueID int64) (*VenueBundle, bool, error)
	Set(ctx context.Context, bundle *VenueBundle) error
	Invalidate(ctx context.Context, venueID int64) error
}

type memoryEntry struct {
	bundle  *VenueBundle
	expires time.Time
}

// MemoryCache is an in-process VenueCache used when Valkey is not configured.
type MemoryCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[int64]memoryEntry
	now     func() time.Time
}

func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{ttl: ttl, entries: map[int64]memoryEntry{}, now: time.Now}
}

func (c *MemoryCache) Get(_ context.Context, venueID int64) (*VenueBundle, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[venueID]
	if !ok || (c.ttl > 0 && c.now().After(e.expires)) {
		return nil, false, nil
	}
	return e.bundle, true, nil
}

func (c *MemoryCache) Set(_ context.Context, bundle *VenueBundle) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[bundle.VenueID] = memoryEntry{bundle: bundle, expires: c.now().Add(c.ttl)}
	return nil
}

func (c *MemoryCache) Invalidate(_ context.Context, venueID int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, venueID)
	return nil
}
