package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// UnitStatus is the sale state of an inventory unit (ticket).
type UnitStatus string

const (
	UnitFree UnitStatus = "free"
	UnitHeld UnitStatus = "held"
	UnitSold UnitStatus = "sold"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	OrderPending  OrderStatus = "pending"
	OrderPaid     OrderStatus = "paid"
	OrderRefunded OrderStatus = "refunded"
)

// Venue represents a venue together with its persisted layout document
type Venue struct {
	ID        int64     `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Layout    []byte    `json:"-" db:"layout"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Event represents a sellable event held at a venue
type Event struct {
	ID       int64     `json:"id" db:"id"`
	VenueID  int64     `json:"venue_id" db:"venue_id"`
	Title    string    `json:"title" db:"title"`
	StartsAt time.Time `json:"starts_at" db:"starts_at"`
}

// ShapeDescriptor is the persisted geometry of a zone, written by the authoring tool.
type ShapeDescriptor struct {
	X      float64   `json:"x"`
	Y      float64   `json:"y"`
	Width  float64   `json:"width,omitempty"`
	Height float64   `json:"height,omitempty"`
	Points []float64 `json:"points,omitempty"`

	decoded bool
}

type plainDescriptor ShapeDescriptor

// Present reports whether the zone carries persisted geometry. A descriptor
// decoded from a non-empty document is present even when it sits at the origin.
func (d ShapeDescriptor) Present() bool {
	return d.decoded || d.X != 0 || d.Y != 0 || d.Width != 0 || d.Height != 0 || len(d.Points) > 0
}

func (d *ShapeDescriptor) UnmarshalJSON(data []byte) error {
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(data, &keys); err != nil {
		return err
	}
	var p plainDescriptor
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*d = ShapeDescriptor(p)
	d.decoded = len(keys) > 0
	return nil
}

// MarshalJSON writes a missing descriptor as an empty document.
func (d ShapeDescriptor) MarshalJSON() ([]byte, error) {
	if !d.Present() {
		return []byte("{}"), nil
	}
	return json.Marshal(plainDescriptor(d))
}

// Zone is the authoritative backend record of a bookable area
type Zone struct {
	ID         string          `json:"id" db:"id"`
	VenueID    int64           `json:"venue_id" db:"venue_id"`
	CategoryID *string         `json:"category_id" db:"category_id"`
	Name       string          `json:"name" db:"name"`
	Capacity   int             `json:"capacity" db:"capacity"`
	Shape      ShapeDescriptor `json:"shape" db:"shape"`
}

// Seat is the backend record a seated ticket is bound to
type Seat struct {
	ID         string  `json:"id" db:"id"`
	VenueID    int64   `json:"venue_id" db:"venue_id"`
	Label      string  `json:"label" db:"label"`
	CategoryID *string `json:"category_id" db:"category_id"`
	X          float64 `json:"x" db:"x"`
	Y          float64 `json:"y" db:"y"`
}

// Ticket is one sellable inventory unit. Exactly one of SeatID/ZoneID is set
// for well-formed data; Seat and Zone carry the bound record when it was joined.
type Ticket struct {
	ID          string     `json:"id" db:"id"`
	EventID     int64      `json:"event_id" db:"event_id"`
	SeatID      *string    `json:"seat_id" db:"seat_id"`
	ZoneID      *string    `json:"zone_id" db:"zone_id"`
	Status      UnitStatus `json:"status" db:"status"`
	HoldExpiry  *time.Time `json:"hold_expiry" db:"hold_expiry"`
	OrderLineID *string    `json:"order_line_id" db:"order_line_id"`

	Seat *Seat `json:"seat,omitempty"` // Not from tickets table, joined
	Zone *Zone `json:"zone,omitempty"` // Not from tickets table, joined
}

// CategoryID returns the category of the record the ticket is bound to.
func (t Ticket) CategoryID() string {
	if t.Seat != nil && t.Seat.CategoryID != nil {
		return *t.Seat.CategoryID
	}
	if t.Zone != nil && t.Zone.CategoryID != nil {
		return *t.Zone.CategoryID
	}
	return ""
}

// CategoryPrice is the price of one unit of a category for an event
type CategoryPrice struct {
	EventID    int64           `json:"event_id" db:"event_id"`
	CategoryID string          `json:"category_id" db:"category_id"`
	Price      decimal.Decimal `json:"price" db:"price"`
	Currency   string          `json:"currency" db:"currency"`
}

// Contact is the shopper contact info captured at checkout
type Contact struct {
	Name  string `json:"name" db:"customer_name"`
	Email string `json:"email" db:"customer_email"`
	Phone string `json:"phone" db:"customer_phone"`
}

// Order is created exactly once per successful checkout
type Order struct {
	ID         string          `json:"id" db:"id"`
	EventID    int64           `json:"event_id" db:"event_id"`
	Status     OrderStatus     `json:"status" db:"status"`
	TotalPrice decimal.Decimal `json:"total_price" db:"total_price"`
	Currency   string          `json:"currency" db:"currency"`
	Contact    Contact         `json:"contact"`
	CreatedAt  time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at" db:"updated_at"`
	Lines      []OrderLine     `json:"lines,omitempty"` // Not from DB, filled separately
}

// OrderLine binds one ticket to an order
type OrderLine struct {
	ID         string          `json:"id" db:"id"`
	OrderID    string          `json:"order_id" db:"order_id"`
	TicketID   string          `json:"ticket_id" db:"ticket_id"`
	UnitPrice  decimal.Decimal `json:"unit_price" db:"unit_price"`
	ReleasedAt *time.Time      `json:"released_at,omitempty" db:"released_at"`
	CreatedAt  time.Time       `json:"created_at" db:"created_at"`
}
