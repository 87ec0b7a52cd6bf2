package service

import (
	"context"
	"fmt"
	"time"

	"boxoffice/internal/checkout"
	apperrors "boxoffice/internal/errors"
	"boxoffice/internal/logger"
	"boxoffice/internal/messaging"
	"boxoffice/internal/metrics"
	"boxoffice/internal/models"
)

type OrderService struct {
	backend   Backend
	allocator *checkout.Allocator
	publisher messaging.Publisher
	metrics   *metrics.Metrics
	now       func() time.Time
}

func NewOrderService(backend Backend, allocator *checkout.Allocator, publisher messaging.Publisher, m *metrics.Metrics) *OrderService {
	return &OrderService{
		backend:   backend,
		allocator: allocator,
		publisher: publisher,
		metrics:   m,
		now:       time.Now,
	}
}

// Get returns an order with its lines.
func (s *OrderService) Get(ctx context.Context, orderID string) (*models.Order, error) {
	order, err := s.backend.GetOrder(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	if order == nil {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrOrderNotFound, orderID)
	}

	lines, err := s.backend.ListOrderLines(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to list order lines: %w", err)
	}
	order.Lines = lines

	return order, nil
}

// List returns one page of orders.
func (s *OrderService) List(ctx context.Context, limit, offset int) ([]models.Order, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	orders, err := s.backend.ListOrders(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

// Refund returns a paid order's tickets to sale.
func (s *OrderService) Refund(ctx context.Context, orderID string) (*models.Order, error) {
	order, err := s.allocator.Refund(ctx, orderID)
	if err != nil {
		return nil, err
	}

	s.metrics.Refunds.Inc()

	ticketIDs := make([]string, 0, len(order.Lines))
	for _, l := range order.Lines {
		ticketIDs = append(ticketIDs, l.TicketID)
	}
	publish(ctx, s.publisher, models.EventOrderRefunded, models.OrderRefundedEvent{
		OrderID:   order.ID,
		EventID:   order.EventID,
		TicketIDs: ticketIDs,
		Timestamp: s.now(),
	})

	logger.WithContext(ctx).Info("Order refunded",
		"order_id", order.ID,
		"tickets", len(ticketIDs))

	return order, nil
}
