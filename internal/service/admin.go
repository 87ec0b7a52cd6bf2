package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	apperrors "boxoffice/internal/errors"
	"boxoffice/internal/models"
	"boxoffice/internal/search"
)

type AdminService struct {
	backend Backend
	venues  *VenueService
	index   OrderIndex
	now     func() time.Time
}

func NewAdminService(backend Backend, venues *VenueService, index OrderIndex) *AdminService {
	return &AdminService{
		backend: backend,
		venues:  venues,
		index:   index,
		now:     time.Now,
	}
}

// InvalidateVenue drops a venue's cached layout and zone resolution. Sessions
// opened afterwards resolve against the current zones.
func (s *AdminService) InvalidateVenue(ctx context.Context, venueID int64) error {
	return s.venues.Invalidate(ctx, venueID)
}

// ResetEvent frees every ticket of an event and voids its orders. It exists
// for test environments.
func (s *AdminService) ResetEvent(ctx context.Context, eventID int64) (int64, error) {
	event, err := s.backend.GetEvent(ctx, eventID)
	if err != nil {
		return 0, fmt.Errorf("failed to get event: %w", err)
	}
	if event == nil {
		return 0, fmt.Errorf("%w: %d", apperrors.ErrEventNotFound, eventID)
	}

	slog.Info("Starting event inventory reset", "event_id", eventID)

	freed, err := s.backend.ResetEventInventory(ctx, eventID)
	if err != nil {
		slog.Error("Failed to reset event inventory", "event_id", eventID, "error", err)
		return 0, fmt.Errorf("failed to reset event inventory: %w", err)
	}

	slog.Info("Event inventory reset completed", "event_id", eventID, "freed", freed)
	return freed, nil
}

// HoldTicket moves a free ticket to held until the ttl passes.
func (s *AdminService) HoldTicket(ctx context.Context, ticketID string, ttl time.Duration) error {
	expiry := s.now().Add(ttl)

	return s.backend.WithTx(ctx, func(txCtx context.Context) error {
		ok, err := s.backend.TransitionUnit(txCtx, ticketID, models.UnitFree, models.UnitHeld, nil)
		if err != nil {
			return fmt.Errorf("failed to hold ticket: %w", err)
		}
		if !ok {
			return fmt.Errorf("%w: %s is not free", apperrors.ErrUnitNoLongerAvailable, ticketID)
		}
		if err := s.backend.UpdateUnitStatus(txCtx, ticketID, models.UnitHeld, &expiry); err != nil {
			return fmt.Errorf("failed to set hold expiry: %w", err)
		}
		return nil
	})
}

// ReleaseTicket frees a held ticket before its hold expires.
func (s *AdminService) ReleaseTicket(ctx context.Context, ticketID string) error {
	ok, err := s.backend.TransitionUnit(ctx, ticketID, models.UnitHeld, models.UnitFree, nil)
	if err != nil {
		return fmt.Errorf("failed to release ticket: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: %s is not held", apperrors.ErrUnitNoLongerAvailable, ticketID)
	}
	return nil
}

// SearchOrders queries the order index.
func (s *AdminService) SearchOrders(ctx context.Context, q search.SearchQuery) (*search.SearchResult, error) {
	if s.index == nil {
		return nil, apperrors.ErrSearchUnavailable
	}

	res, err := s.index.Search(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to search orders: %w", err)
	}
	return res, nil
}
