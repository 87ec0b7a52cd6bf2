package service

import (
	"context"
	"time"

	"boxoffice/internal/cache"
	"boxoffice/internal/checkout"
	"boxoffice/internal/inventory"
	"boxoffice/internal/logger"
	"boxoffice/internal/messaging"
	"boxoffice/internal/metrics"
	"boxoffice/internal/models"
	"boxoffice/internal/search"
)

// Backend is the full storage contract the storefront runs on. Both the
// Postgres repository and the in-memory store implement it.
type Backend interface {
	checkout.Store
	inventory.Source
	inventory.PriceSource

	GetEvent(ctx context.Context, eventID int64) (*models.Event, error)
	GetVenueLayout(ctx context.Context, venueID int64) (*models.Venue, error)
	FetchZonesForVenue(ctx context.Context, venueID int64) ([]models.Zone, error)
	FetchCategoryPrice(ctx context.Context, eventID int64, categoryID string) (*models.CategoryPrice, error)
	UpdateUnitStatus(ctx context.Context, unitID string, status models.UnitStatus, holdExpiry *time.Time) error
	ListOrders(ctx context.Context, limit, offset int) ([]models.Order, error)
	ResetEventInventory(ctx context.Context, eventID int64) (int64, error)
	ReleaseExpiredHolds(ctx context.Context, now time.Time) (int64, error)
}

// OrderIndex is the search side of the order index.
type OrderIndex interface {
	Search(ctx context.Context, q search.SearchQuery) (*search.SearchResult, error)
}

// Options tunes the storefront.
type Options struct {
	SessionTTL          time.Duration
	ResolverTolerance   float64
	DefaultCanvasWidth  float64
	DefaultCanvasHeight float64
}

type Services struct {
	Venues   *VenueService
	Sessions *SessionService
	Orders   *OrderService
	Admin    *AdminService
}

// NewServices wires the storefront. publisher and index may be nil when NATS
// or Elasticsearch are not configured.
func NewServices(backend Backend, venueCache cache.VenueCache, publisher messaging.Publisher, index OrderIndex, m *metrics.Metrics, opts Options) *Services {
	allocator := checkout.NewAllocator(backend)
	venues := NewVenueService(backend, venueCache, publisher, m, opts.ResolverTolerance)
	sessions := NewSessionService(backend, venues, allocator, publisher, m, opts)
	orders := NewOrderService(backend, allocator, publisher, m)

	return &Services{
		Venues:   venues,
		Sessions: sessions,
		Orders:   orders,
		Admin:    NewAdminService(backend, venues, index),
	}
}

// publish sends a domain event. Delivery failures are logged, never returned:
// the backend write has already committed.
func publish(ctx context.Context, publisher messaging.Publisher, subject string, data interface{}) {
	if publisher == nil {
		return
	}
	if err := publisher.Publish(subject, data); err != nil {
		logger.WithContext(ctx).Error("Failed to publish event",
			"error", err,
			"event_type", subject)
	}
}
