package models

import "boxoffice/internal/viewport"

// OpenSessionRequest opens a shopper session on an event's seat map.
// Viewport, when set, is restored instead of fitting the layout.
type OpenSessionRequest struct {
	EventID      int64           `json:"event_id" binding:"required"`
	CanvasWidth  float64         `json:"canvas_width"`
	CanvasHeight float64         `json:"canvas_height"`
	Viewport     *viewport.State `json:"viewport,omitempty"`
}

// ZoneQuantityRequest sets how many tickets to take from a zone
type ZoneQuantityRequest struct {
	Quantity int `json:"quantity"`
}

// CheckoutRequest carries the shopper contact captured at checkout
type CheckoutRequest struct {
	Name  string `json:"name" binding:"required"`
	Email string `json:"email" binding:"required,email"`
	Phone string `json:"phone"`
}

// Contact returns the request as an order contact
func (r CheckoutRequest) Contact() Contact {
	return Contact{Name: r.Name, Email: r.Email, Phone: r.Phone}
}

// Viewport actions
const (
	ViewportZoomIn  = "zoom_in"
	ViewportZoomOut = "zoom_out"
	ViewportWheel   = "wheel"
	ViewportPan     = "pan"
	ViewportFit     = "fit"
	ViewportResize  = "resize"
)

// ViewportRequest is one viewport action in canvas coordinates
type ViewportRequest struct {
	Action string  `json:"action" binding:"required"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	DeltaY float64 `json:"delta_y"`
	DX     float64 `json:"dx"`
	DY     float64 `json:"dy"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// PointerEventRequest is a raw pointer/touch event
type PointerEventRequest struct {
	Type      string  `json:"type" binding:"required"`
	PointerID int     `json:"pointer_id"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
}

// GesturesRequest replays a batch of pointer events in order
type GesturesRequest struct {
	Events []PointerEventRequest `json:"events" binding:"required"`
}

// ClickRequest is a click or tap at a canvas position
type ClickRequest struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// ResetEventResponse reports how many tickets an event reset freed
type ResetEventResponse struct {
	EventID int64 `json:"event_id"`
	Freed   int64 `json:"freed"`
}

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error string `json:"error"`
}

// HoldTicketRequest holds a free ticket outside of checkout, e.g. for a box
// office reservation
type HoldTicketRequest struct {
	TTLSeconds int `json:"ttl_seconds" binding:"required,min=1"`
}
