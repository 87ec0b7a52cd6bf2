package consumers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"boxoffice/internal/models"
	"boxoffice/internal/search"

	"github.com/nats-io/stan.go"
)

// OrderReader loads orders for indexing
type OrderReader interface {
	GetOrder(ctx context.Context, orderID string) (*models.Order, error)
	ListOrderLines(ctx context.Context, orderID string) ([]models.OrderLine, error)
}

// OrderIndexer writes order documents to the admin search index
type OrderIndexer interface {
	IndexOrder(ctx context.Context, doc search.OrderDocument) error
	UpdateStatus(ctx context.Context, orderID string, status models.OrderStatus, at time.Time) error
}

type Handlers struct {
	orders OrderReader
	index  OrderIndexer
}

func NewHandlers(orders OrderReader, index OrderIndexer) *Handlers {
	return &Handlers{
		orders: orders,
		index:  index,
	}
}

// ack acknowledges a message once its handler succeeded. Failed messages
// are left unacknowledged so the streaming server redelivers them.
func ack(m *stan.Msg, subject string, err error) {
	if err != nil {
		slog.Error("Failed to process event", "subject", subject, "sequence", m.Sequence, "error", err)
		return
	}
	if err := m.Ack(); err != nil {
		slog.Error("Failed to ack event", "subject", subject, "sequence", m.Sequence, "error", err)
	}
}

func (h *Handlers) HandleOrderCompleted(m *stan.Msg) {
	ack(m, models.EventOrderCompleted, h.orderCompleted(context.Background(), m.Data))
}

func (h *Handlers) HandleOrderRefunded(m *stan.Msg) {
	ack(m, models.EventOrderRefunded, h.orderRefunded(context.Background(), m.Data))
}

func (h *Handlers) HandleCheckoutConflict(m *stan.Msg) {
	ack(m, models.EventCheckoutConflict, h.checkoutConflict(m.Data))
}

func (h *Handlers) HandleHoldsExpired(m *stan.Msg) {
	ack(m, models.EventHoldsExpired, h.holdsExpired(m.Data))
}

func (h *Handlers) orderCompleted(ctx context.Context, data []byte) error {
	var event models.OrderCompletedEvent
	if err := json.Unmarshal(data, &event); err != nil {
		// A malformed payload never becomes valid, so it is dropped.
		slog.Error("Failed to unmarshal order completed event", "error", err)
		return nil
	}

	order, err := h.orders.GetOrder(ctx, event.OrderID)
	if err != nil {
		return fmt.Errorf("failed to get order: %w", err)
	}
	if order == nil {
		slog.Warn("Completed order not found", "order_id", event.OrderID)
		return nil
	}

	lines, err := h.orders.ListOrderLines(ctx, order.ID)
	if err != nil {
		return fmt.Errorf("failed to list order lines: %w", err)
	}
	order.Lines = lines

	if err := h.index.IndexOrder(ctx, search.DocumentFromOrder(order)); err != nil {
		return fmt.Errorf("failed to index order: %w", err)
	}

	slog.Info("Indexed order", "order_id", order.ID, "event_id", order.EventID, "tickets", len(lines))
	return nil
}

func (h *Handlers) orderRefunded(ctx context.Context, data []byte) error {
	var event models.OrderRefundedEvent
	if err := json.Unmarshal(data, &event); err != nil {
		slog.Error("Failed to unmarshal order refunded event", "error", err)
		return nil
	}

	if err := h.index.UpdateStatus(ctx, event.OrderID, models.OrderRefunded, event.Timestamp); err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}

	slog.Info("Marked order refunded", "order_id", event.OrderID, "tickets", len(event.TicketIDs))
	return nil
}

func (h *Handlers) checkoutConflict(data []byte) error {
	var event models.CheckoutConflictEvent
	if err := json.Unmarshal(data, &event); err != nil {
		slog.Error("Failed to unmarshal checkout conflict event", "error", err)
		return nil
	}

	slog.Info("Checkout lost a unit to another shopper",
		"event_id", event.EventID,
		"session_id", event.SessionID,
		"reason", event.Reason)
	return nil
}

func (h *Handlers) holdsExpired(data []byte) error {
	var event models.HoldsExpiredEvent
	if err := json.Unmarshal(data, &event); err != nil {
		slog.Error("Failed to unmarshal holds expired event", "error", err)
		return nil
	}

	slog.Info("Expired holds released", "released", event.Released, "at", event.Timestamp)
	return nil
}
