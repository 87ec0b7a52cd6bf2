// Package selection models a shopper's cart. Every entry carries the exact
// ticket ids it stands for, never only a count, so checkout knows precisely
// which units to commit.
package selection

import (
	"fmt"

	"boxoffice/internal/capacity"
	apperrors "boxoffice/internal/errors"
	"boxoffice/internal/inventory"
	"boxoffice/internal/layout"
	"boxoffice/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var newLocalID = uuid.NewString

// Entry is one cart line.
type Entry struct {
	LocalID    string          `json:"local_id"`
	ShapeID    string          `json:"shape_id"`
	Kind       layout.Kind     `json:"kind"`
	UnitIDs    []string        `json:"unit_ids"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	Currency   string          `json:"currency"`
	CategoryID string          `json:"category_id"`
}

// Total is quantity times unit price.
func (e Entry) Total() decimal.Decimal {
	return e.UnitPrice.Mul(decimal.NewFromInt(int64(e.Quantity)))
}

// Catalog is everything a selection is validated against: the layout, the
// resolved inventory and the event's prices.
type Catalog struct {
	Layout    *layout.Layout
	Inventory capacity.Inputs
	Prices    inventory.PriceTable
}

// Model is an immutable cart. Operations return a new Model and leave the
// receiver untouched, so a failed operation never changes the selection.
type Model struct {
	entries []Entry
}

// Empty returns an empty cart.
func Empty() Model {
	return Model{}
}

// ToggleSeat removes the entry holding this seat shape, or adds a new entry
// for the one free ticket bound to it.
func (m Model) ToggleSeat(cat Catalog, shapeID string) (Model, error) {
	shape, ok := cat.Layout.Shape(shapeID)
	if !ok {
		return m, fmt.Errorf("%w: %q", apperrors.ErrUnknownShape, shapeID)
	}
	if shape.Kind != layout.KindSeat {
		return m, fmt.Errorf("%w: %q is not a seat", apperrors.ErrUnknownShape, shapeID)
	}

	for i, e := range m.entries {
		if e.ShapeID == shapeID && e.Kind == layout.KindSeat {
			return m.without(i), nil
		}
	}

	if !shape.IsBookable {
		return m, fmt.Errorf("%w: seat %q is not bookable", apperrors.ErrNoInventoryAvailable, shapeID)
	}

	match, ok := cat.Inventory.Seats[shapeID]
	if !ok {
		return m, fmt.Errorf("%w: no ticket bound to seat %q", apperrors.ErrNoInventoryAvailable, shapeID)
	}
	unit, ok := cat.Inventory.Snapshot.Unit(match.UnitID)
	if !ok || unit.Status != models.UnitFree || m.Contains(unit.ID) {
		return m, fmt.Errorf("%w: seat %q is taken", apperrors.ErrNoInventoryAvailable, shapeID)
	}

	category := unit.CategoryID()
	if category == "" {
		category = shape.CategoryID
	}
	price, err := cat.Prices.Lookup(category)
	if err != nil {
		return m, err
	}

	return m.with(Entry{
		LocalID:    newLocalID(),
		ShapeID:    shapeID,
		Kind:       layout.KindSeat,
		UnitIDs:    []string{unit.ID},
		Quantity:   1,
		UnitPrice:  price.Price,
		Currency:   price.Currency,
		CategoryID: category,
	}), nil
}

// SelectZoneQuantity picks quantity free tickets of the shape's resolved zone
// and adds them as a single entry.
func (m Model) SelectZoneQuantity(cat Catalog, shapeID string, quantity int) (Model, error) {
	shape, ok := cat.Layout.Shape(shapeID)
	if !ok {
		return m, fmt.Errorf("%w: %q", apperrors.ErrUnknownShape, shapeID)
	}
	if !shape.IsZone() {
		return m, fmt.Errorf("%w: %q is not a zone", apperrors.ErrUnknownShape, shapeID)
	}
	if quantity < 1 {
		return m, fmt.Errorf("%w: %d", apperrors.ErrInvalidQuantity, quantity)
	}
	if !shape.IsBookable {
		return m, fmt.Errorf("%w: zone %q is not bookable", apperrors.ErrNoInventoryAvailable, shapeID)
	}

	avail := capacity.For(shape, cat.Inventory, capacity.Selected(shape, cat.Inventory, m.SelectedByShape()))
	if !avail.Resolved || quantity > avail.Free {
		return m, fmt.Errorf("%w: requested %d, free %d", apperrors.ErrInsufficientInventory, quantity, avail.Free)
	}

	zone, _ := cat.Inventory.Zones.Zone(shapeID)
	picked := make([]string, 0, quantity)
	for _, u := range cat.Inventory.Snapshot.ZoneUnits(zone.ID) {
		if len(picked) == quantity {
			break
		}
		if u.Status == models.UnitFree && !m.Contains(u.ID) {
			picked = append(picked, u.ID)
		}
	}
	if len(picked) < quantity {
		return m, fmt.Errorf("%w: requested %d, found %d free tickets", apperrors.ErrInsufficientInventory, quantity, len(picked))
	}

	category := shape.CategoryID
	if zone.CategoryID != nil && *zone.CategoryID != "" {
		category = *zone.CategoryID
	}
	price, err := cat.Prices.Lookup(category)
	if err != nil {
		return m, err
	}

	return m.with(Entry{
		LocalID:    newLocalID(),
		ShapeID:    shapeID,
		Kind:       shape.Kind,
		UnitIDs:    picked,
		Quantity:   quantity,
		UnitPrice:  price.Price,
		Currency:   price.Currency,
		CategoryID: category,
	}), nil
}

// RemoveEntry drops an entry and frees its ticket ids from the local view.
func (m Model) RemoveEntry(localID string) (Model, error) {
	for i, e := range m.entries {
		if e.LocalID == localID {
			return m.without(i), nil
		}
	}
	return m, fmt.Errorf("%w: %q", apperrors.ErrEntryNotFound, localID)
}

// Entries returns a copy of the entries.
func (m Model) Entries() []Entry {
	out := make([]Entry, len(m.entries))
	copy(out, m.entries)
	return out
}

// Len returns the number of entries.
func (m Model) Len() int {
	return len(m.entries)
}

// SelectedFor sums the quantity of every entry for a shape.
func (m Model) SelectedFor(shapeID string) int {
	n := 0
	for _, e := range m.entries {
		if e.ShapeID == shapeID {
			n += e.Quantity
		}
	}
	return n
}

// SelectedByShape returns SelectedFor for every shape with entries.
func (m Model) SelectedByShape() map[string]int {
	out := map[string]int{}
	for _, e := range m.entries {
		out[e.ShapeID] += e.Quantity
	}
	return out
}

// Contains reports whether a ticket id is already in the cart.
func (m Model) Contains(unitID string) bool {
	for _, e := range m.entries {
		for _, id := range e.UnitIDs {
			if id == unitID {
				return true
			}
		}
	}
	return false
}

// UnitIDs returns every ticket id in entry order.
func (m Model) UnitIDs() []string {
	var out []string
	for _, e := range m.entries {
		out = append(out, e.UnitIDs...)
	}
	return out
}

// Total sums the entry totals.
func (m Model) Total() decimal.Decimal {
	total := decimal.Zero
	for _, e := range m.entries {
		total = total.Add(e.Total())
	}
	return total
}

// Validate checks the cart invariants: every entry holds exactly quantity
// ids and no id appears twice across the cart.
func (m Model) Validate() error {
	seen := map[string]bool{}
	for _, e := range m.entries {
		if e.Quantity < 1 || len(e.UnitIDs) != e.Quantity {
			return fmt.Errorf("%w: entry %q holds %d ids for quantity %d", apperrors.ErrInvalidQuantity, e.LocalID, len(e.UnitIDs), e.Quantity)
		}
		for _, id := range e.UnitIDs {
			if seen[id] {
				return fmt.Errorf("%w: %q", apperrors.ErrDuplicateUnit, id)
			}
			seen[id] = true
		}
	}
	return nil
}

func (m Model) with(e Entry) Model {
	entries := make([]Entry, len(m.entries), len(m.entries)+1)
	copy(entries, m.entries)
	return Model{entries: append(entries, e)}
}

func (m Model) without(i int) Model {
	entries := make([]Entry, 0, len(m.entries)-1)
	entries = append(entries, m.entries[:i]...)
	entries = append(entries, m.entries[i+1:]...)
	return Model{entries: entries}
}
