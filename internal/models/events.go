package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// NATS Event Types
const (
	EventOrderCompleted   = "order.completed"
	EventOrderRefunded    = "order.refunded"
	EventCheckoutConflict = "checkout.conflict"
	EventHoldsExpired     = "holds.expired"
	EventVenueChanged     = "venue.changed"
)

// OrderCompletedEvent is published after a checkout commits
type OrderCompletedEvent struct {
	OrderID    string          `json:"order_id"`
	EventID    int64           `json:"event_id"`
	TotalPrice decimal.Decimal `json:"total_price"`
	Currency   string          `json:"currency"`
	TicketIDs  []string        `json:"ticket_ids"`
	Email      string          `json:"email"`
	Name       string          `json:"name"`
	Timestamp  time.Time       `json:"timestamp"`
}

// OrderRefundedEvent is published after a refund releases an order's tickets
type OrderRefundedEvent struct {
	OrderID   string    `json:"order_id"`
	EventID   int64     `json:"event_id"`
	TicketIDs []string  `json:"ticket_ids"`
	Timestamp time.Time `json:"timestamp"`
}

// CheckoutConflictEvent is published when a checkout loses a unit to another shopper
type CheckoutConflictEvent struct {
	EventID   int64     `json:"event_id"`
	SessionID string    `json:"session_id"`
	Reason    string    `json:"reason"`
	Timestamp time.Time `json:"timestamp"`
}

// HoldsExpiredEvent reports how many held tickets the sweeper released
type HoldsExpiredEvent struct {
	Released  int64     `json:"released"`
	Timestamp time.Time `json:"timestamp"`
}

// VenueChangedEvent asks every API instance to drop its cached venue bundle
type VenueChangedEvent struct {
	VenueID   int64     `json:"venue_id"`
	Timestamp time.Time `json:"timestamp"`
}
