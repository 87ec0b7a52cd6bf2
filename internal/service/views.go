package service

import (
	"time"

	"boxoffice/internal/capacity"
	"boxoffice/internal/layout"
	"boxoffice/internal/models"
	"boxoffice/internal/render"
	"boxoffice/internal/resolver"
	"boxoffice/internal/selection"
	"boxoffice/internal/viewport"

	"github.com/shopspring/decimal"
)

// Click actions
const (
	ActionNone           = "none"
	ActionToggledSeat    = "toggled_seat"
	ActionChooseQuantity = "choose_quantity"
)

// ShapeView is one layout shape with its live availability.
type ShapeView struct {
	ID         string            `json:"id"`
	Kind       layout.Kind       `json:"kind"`
	Label      string            `json:"label,omitempty"`
	CategoryID string            `json:"category_id,omitempty"`
	ZoneID     string            `json:"zone_id,omitempty"`
	UnitID     string            `json:"unit_id,omitempty"`
	Tier       resolver.Tier     `json:"tier,omitempty"`
	State      render.State      `json:"state"`
	Capacity   capacity.Capacity `json:"capacity"`
}

// SessionView is what a shopper sees: the seat map, the cart and the viewport.
type SessionView struct {
	SessionID      string            `json:"session_id"`
	Event          models.Event      `json:"event"`
	Viewport       viewport.State    `json:"viewport"`
	Bounds         layout.Rect       `json:"bounds"`
	Shapes         []ShapeView       `json:"shapes"`
	Entries        []selection.Entry `json:"entries"`
	Total          decimal.Decimal   `json:"total"`
	Currency       string            `json:"currency,omitempty"`
	FetchedAt      time.Time         `json:"fetched_at"`
	InventoryError string            `json:"inventory_error,omitempty"`
	Dropped        int               `json:"dropped,omitempty"`
}

// ViewportResult is the viewport after an action. Handled tells the page to
// suppress its own scrolling for the triggering event.
type ViewportResult struct {
	Viewport viewport.State `json:"viewport"`
	Handled  bool           `json:"handled"`
}

// ClickResult is the outcome of a click or tap on the canvas.
type ClickResult struct {
	ShapeID  string             `json:"shape_id,omitempty"`
	Kind     layout.Kind        `json:"kind,omitempty"`
	Action   string             `json:"action"`
	Capacity *capacity.Capacity `json:"capacity,omitempty"`
	Error    string             `json:"error,omitempty"`
}

// GestureResult is the viewport after a batch of pointer events, with any
// taps they completed.
type GestureResult struct {
	Viewport     viewport.State `json:"viewport"`
	ScrollLocked bool           `json:"scroll_locked"`
	Taps         []ClickResult  `json:"taps,omitempty"`
}

func (sess *Session) view() *SessionView {
	in := sess.inputs()
	selected := sess.sel.SelectedByShape()
	shapes := sess.venue.Layout.Shapes()

	views := make([]ShapeView, 0, len(shapes))
	for _, sh := range shapes {
		c := capacity.For(sh, in, capacity.Selected(sh, in, selected))
		v := ShapeView{
			ID:         sh.ID,
			Kind:       sh.Kind,
			Label:      sh.Label,
			CategoryID: sh.CategoryID,
			State:      render.StateOf(sh, c, selected[sh.ID]),
			Capacity:   c,
		}
		switch {
		case sh.IsZone():
			m := sess.venue.Resolution.Match(sh.ID)
			v.ZoneID, v.Tier = m.ZoneID, m.Tier
		case sh.Kind == layout.KindSeat:
			if m, ok := sess.seats[sh.ID]; ok {
				v.UnitID, v.Tier = m.UnitID, m.Tier
			}
		}
		views = append(views, v)
	}

	entries := sess.sel.Entries()
	view := &SessionView{
		SessionID: sess.ID,
		Event:     *sess.event,
		Viewport:  sess.vp.State(),
		Bounds:    sess.venue.Layout.Bounds(),
		Shapes:    views,
		Entries:   entries,
		Total:     sess.sel.Total(),
		FetchedAt: sess.snapshot.FetchedAt,
	}
	if len(entries) > 0 {
		view.Currency = entries[0].Currency
	}
	if sess.snapshot.Err != nil {
		view.InventoryError = sess.snapshot.Err.Error()
	}
	return view
}
