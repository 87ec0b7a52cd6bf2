package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"boxoffice/internal/cache"
	apperrors "boxoffice/internal/errors"
	"boxoffice/internal/layout"
	"boxoffice/internal/messaging"
	"boxoffice/internal/metrics"
	"boxoffice/internal/models"
	"boxoffice/internal/resolver"
)

// Venue is a loaded venue: the parsed layout, the backend zones and the
// shape -> zone resolution computed from them.
type Venue struct {
	ID         int64
	Layout     *layout.Layout
	Zones      []models.Zone
	Resolution *resolver.ZoneResolution
}

type VenueService struct {
	backend   Backend
	cache     cache.VenueCache
	publisher messaging.Publisher
	metrics   *metrics.Metrics
	tolerance float64
	now       func() time.Time
}

func NewVenueService(backend Backend, venueCache cache.VenueCache, publisher messaging.Publisher, m *metrics.Metrics, tolerance float64) *VenueService {
	if tolerance <= 0 {
		tolerance = resolver.DefaultTolerance
	}
	return &VenueService{
		backend:   backend,
		cache:     venueCache,
		publisher: publisher,
		metrics:   m,
		tolerance: tolerance,
		now:       time.Now,
	}
}

// Load returns the venue from the cache, or builds and caches it. Cache
// failures fall back to building from the backend.
func (s *VenueService) Load(ctx context.Context, venueID int64) (*Venue, error) {
	if s.cache != nil {
		bundle, ok, err := s.cache.Get(ctx, venueID)
		if err != nil {
			slog.Warn("Failed to read venue cache", "venue_id", venueID, "error", err)
		}
		if ok {
			return &Venue{
				ID:         venueID,
				Layout:     layout.Parse(bundle.Layout),
				Zones:      bundle.Zones,
				Resolution: bundle.Resolution,
			}, nil
		}
	}

	venue, err := s.backend.GetVenueLayout(ctx, venueID)
	if err != nil {
		return nil, fmt.Errorf("failed to get venue layout: %w", err)
	}
	if venue == nil {
		return nil, fmt.Errorf("%w: %d", apperrors.ErrVenueNotFound, venueID)
	}

	zones, err := s.backend.FetchZonesForVenue(ctx, venueID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch zones: %w", err)
	}

	l := layout.Parse(venue.Layout)
	res := resolver.ResolveZones(l.Shapes(), zones, s.tolerance)
	for tier, n := range res.TierCounts() {
		s.metrics.ResolverTiers.WithLabelValues(string(tier)).Add(float64(n))
		if tier == resolver.TierUnresolved {
			slog.Warn("Layout shapes without a zone", "venue_id", venueID, "count", n)
		}
	}

	if s.cache != nil {
		bundle := &cache.VenueBundle{
			VenueID:         venueID,
			Layout:          venue.Layout,
			LayoutUpdatedAt: venue.UpdatedAt,
			Zones:           zones,
			Resolution:      res,
			CachedAt:        s.now(),
		}
		if err := s.cache.Set(ctx, bundle); err != nil {
			slog.Warn("Failed to cache venue bundle", "venue_id", venueID, "error", err)
		}
	}

	return &Venue{ID: venueID, Layout: l, Zones: zones, Resolution: res}, nil
}

// Invalidate drops the cached bundle and tells other instances to do the same.
func (s *VenueService) Invalidate(ctx context.Context, venueID int64) error {
	if err := s.Drop(ctx, venueID); err != nil {
		return err
	}

	publish(ctx, s.publisher, models.EventVenueChanged, models.VenueChangedEvent{
		VenueID:   venueID,
		Timestamp: s.now(),
	})
	return nil
}

// Drop removes the cached bundle without announcing it.
func (s *VenueService) Drop(ctx context.Context, venueID int64) error {
	if s.cache == nil {
		return nil
	}
	if err := s.cache.Invalidate(ctx, venueID); err != nil {
		return fmt.Errorf("failed to invalidate venue cache: %w", err)
	}
	slog.Info("Venue cache invalidated", "venue_id", venueID)
	return nil
}
