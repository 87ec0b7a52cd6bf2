// Package checkout commits a shopper's selection into a paid order. The
// whole commit runs in one backend transaction and every ticket moves
// free -> sold with a conditional write, so two shoppers racing for the same
// ticket never both succeed and a lost race leaves nothing behind.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	apperrors "boxoffice/internal/errors"
	"boxoffice/internal/models"
	"boxoffice/internal/selection"

	"github.com/google/uuid"
)

// Store is the part of the backend the allocator writes through.
type Store interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	CreateOrder(ctx context.Context, order *models.Order) error
	SetOrderStatus(ctx context.Context, orderID string, status models.OrderStatus) error
	GetOrder(ctx context.Context, orderID string) (*models.Order, error)
	CreateOrderLine(ctx context.Context, line *models.OrderLine) error
	FindOrderLineByUnit(ctx context.Context, unitID string) (*models.OrderLine, error)
	ListOrderLines(ctx context.Context, orderID string) ([]models.OrderLine, error)
	ReleaseOrderLine(ctx context.Context, lineID string, at time.Time) error
	// TransitionUnit moves a ticket from one status to another only if it is
	// currently in from. It reports false when the ticket was not in from.
	TransitionUnit(ctx context.Context, unitID string, from, to models.UnitStatus, orderLineID *string) (bool, error)
}

type Allocator struct {
	store Store
	now   func() time.Time
}

func NewAllocator(store Store) *Allocator {
	return &Allocator{store: store, now: time.Now}
}

// Checkout validates the selection and commits it. On success the returned
// order is paid and carries one line per ticket.
func (a *Allocator) Checkout(ctx context.Context, eventID int64, sel selection.Model, contact models.Contact) (*models.Order, error) {
	if sel.Len() == 0 {
		return nil, apperrors.ErrEmptySelection
	}
	if err := sel.Validate(); err != nil {
		return nil, err
	}

	entries := sel.Entries()
	currency := entries[0].Currency
	for _, e := range entries[1:] {
		if e.Currency != currency {
			return nil, fmt.Errorf("%w: %s and %s", apperrors.ErrCurrencyMismatch, currency, e.Currency)
		}
	}

	now := a.now()
	order := &models.Order{
		ID:         uuid.New().String(),
		EventID:    eventID,
		Status:     models.OrderPending,
		TotalPrice: sel.Total(),
		Currency:   currency,
		Contact:    contact,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	err := a.store.WithTx(ctx, func(txCtx context.Context) error {
		if err := a.store.CreateOrder(txCtx, order); err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}

		// Payment capture is simulated.
		if err := a.store.SetOrderStatus(txCtx, order.ID, models.OrderPaid); err != nil {
			return fmt.Errorf("failed to mark order paid: %w", err)
		}
		order.Status = models.OrderPaid

		lines := make([]models.OrderLine, 0, len(sel.UnitIDs()))
		for _, e := range entries {
			for _, unitID := range e.UnitIDs {
				line, err := a.commitUnit(txCtx, order.ID, unitID, e, now)
				if err != nil {
					return err
				}
				lines = append(lines, *line)
			}
		}
		order.Lines = lines
		return nil
	})
	if err != nil {
		return nil, err
	}

	return order, nil
}

func (a *Allocator) commitUnit(ctx context.Context, orderID, unitID string, e selection.Entry, now time.Time) (*models.OrderLine, error) {
	existing, err := a.store.FindOrderLineByUnit(ctx, unitID)
	if err != nil {
		return nil, unavailable(unitID, err)
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: %s already has an order line", apperrors.ErrUnitNoLongerAvailable, unitID)
	}

	line := &models.OrderLine{
		ID:        uuid.New().String(),
		OrderID:   orderID,
		TicketID:  unitID,
		UnitPrice: e.UnitPrice,
		CreatedAt: now,
	}
	if err := a.store.CreateOrderLine(ctx, line); err != nil {
		return nil, unavailable(unitID, err)
	}

	ok, err := a.store.TransitionUnit(ctx, unitID, models.UnitFree, models.UnitSold, &line.ID)
	if err != nil {
		return nil, unavailable(unitID, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s is no longer free", apperrors.ErrUnitNoLongerAvailable, unitID)
	}

	return line, nil
}

// unavailable keeps a lost race reported as such. Any other backend failure
// is an infrastructure error, not a conflict.
func unavailable(unitID string, err error) error {
	if errors.Is(err, apperrors.ErrUnitNoLongerAvailable) {
		return err
	}
	return fmt.Errorf("failed to commit ticket %s: %w", unitID, err)
}

// Refund releases every line of a paid order and returns its tickets to
// free.
func (a *Allocator) Refund(ctx context.Context, orderID string) (*models.Order, error) {
	var refunded *models.Order

	err := a.store.WithTx(ctx, func(txCtx context.Context) error {
		order, err := a.store.GetOrder(txCtx, orderID)
		if err != nil {
			return fmt.Errorf("failed to get order: %w", err)
		}
		if order == nil {
			return fmt.Errorf("%w: %s", apperrors.ErrOrderNotFound, orderID)
		}
		if order.Status != models.OrderPaid {
			return fmt.Errorf("%w: order %s is %s", apperrors.ErrOrderNotRefundable, orderID, order.Status)
		}

		lines, err := a.store.ListOrderLines(txCtx, orderID)
		if err != nil {
			return fmt.Errorf("failed to list order lines: %w", err)
		}

		now := a.now()
		for i, line := range lines {
			if line.ReleasedAt != nil {
				continue
			}
			if err := a.store.ReleaseOrderLine(txCtx, line.ID, now); err != nil {
				return fmt.Errorf("failed to release order line %s: %w", line.ID, err)
			}
			ok, err := a.store.TransitionUnit(txCtx, line.TicketID, models.UnitSold, models.UnitFree, nil)
			if err != nil {
				return fmt.Errorf("failed to free ticket %s: %w", line.TicketID, err)
			}
			if !ok {
				return fmt.Errorf("%w: ticket %s is not sold", apperrors.ErrOrderNotRefundable, line.TicketID)
			}
			lines[i].ReleasedAt = &now
		}

		if err := a.store.SetOrderStatus(txCtx, orderID, models.OrderRefunded); err != nil {
			return fmt.Errorf("failed to mark order refunded: %w", err)
		}

		order.Status = models.OrderRefunded
		order.UpdatedAt = now
		order.Lines = lines
		refunded = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	return refunded, nil
}
