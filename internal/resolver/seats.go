package resolver

import (
	"math"

	"boxoffice/internal/inventory"
	"boxoffice/internal/layout"
	"boxoffice/internal/models"
)

// SeatMatch binds one seat shape to one ticket.
type SeatMatch struct {
	UnitID string `json:"unit_id"`
	Tier   Tier   `json:"tier"`
}

// SeatBindings maps seat shape id to its bound ticket. Shapes without an
// entry have no inventory and are not selectable.
type SeatBindings map[string]SeatMatch

// BindSeats binds each bookable seat shape to at most one ticket. Tiers run
// across all shapes before the next tier starts: exact seat id, nearest seat
// position within tolerance, same category, then any seat ticket. Fallback
// tiers skip tickets whose seat id names another seat shape and tickets an
// earlier shape already took, and prefer free tickets.
func BindSeats(l *layout.Layout, snap *inventory.Snapshot, tolerance float64) SeatBindings {
	bindings := SeatBindings{}
	seats := l.OfKind(layout.KindSeat)

	claimed := map[string]bool{}
	shapeIDs := map[string]bool{}
	for _, s := range seats {
		shapeIDs[s.ID] = true
	}

	var pending []layout.Shape
	for _, s := range seats {
		if !s.IsBookable {
			continue
		}
		if u, ok := preferFree(snap.SeatUnits(s.ID), claimed); ok {
			bindings[s.ID] = SeatMatch{UnitID: u.ID, Tier: TierExactID}
			claimed[u.ID] = true
			continue
		}
		pending = append(pending, s)
	}

	var pool []models.Ticket
	for _, u := range snap.SeatBound() {
		if shapeIDs[*u.SeatID] {
			continue
		}
		pool = append(pool, u)
	}

	pending = bindTier(pending, bindings, claimed, TierGeometry, func(s layout.Shape) (models.Ticket, bool) {
		return nearest(s, pool, claimed, tolerance)
	})
	pending = bindTier(pending, bindings, claimed, TierCategory, func(s layout.Shape) (models.Ticket, bool) {
		if s.CategoryID == "" {
			return models.Ticket{}, false
		}
		var same []models.Ticket
		for _, u := range pool {
			if u.CategoryID() == s.CategoryID {
				same = append(same, u)
			}
		}
		return preferFree(same, claimed)
	})
	bindTier(pending, bindings, claimed, TierAny, func(s layout.Shape) (models.Ticket, bool) {
		return preferFree(pool, claimed)
	})

	return bindings
}

func bindTier(pending []layout.Shape, bindings SeatBindings, claimed map[string]bool, tier Tier, find func(layout.Shape) (models.Ticket, bool)) []layout.Shape {
	var rest []layout.Shape
	for _, s := range pending {
		u, ok := find(s)
		if !ok {
			rest = append(rest, s)
			continue
		}
		bindings[s.ID] = SeatMatch{UnitID: u.ID, Tier: tier}
		claimed[u.ID] = true
	}
	return rest
}

func nearest(s layout.Shape, pool []models.Ticket, claimed map[string]bool, tolerance float64) (models.Ticket, bool) {
	var best models.Ticket
	bestDist := math.Inf(1)
	found := false

	for _, u := range pool {
		if claimed[u.ID] || u.Seat == nil || !near(u.Seat.X, u.Seat.Y, s.X, s.Y, tolerance) {
			continue
		}
		d := math.Hypot(u.Seat.X-s.X, u.Seat.Y-s.Y)
		better := d < bestDist ||
			(d == bestDist && u.Status == models.UnitFree && best.Status != models.UnitFree)
		if better {
			best, bestDist, found = u, d, true
		}
	}

	return best, found
}

func preferFree(units []models.Ticket, claimed map[string]bool) (models.Ticket, bool) {
	var fallback *models.Ticket
	for i := range units {
		u := units[i]
		if claimed[u.ID] {
			continue
		}
		if u.Status == models.UnitFree {
			return u, true
		}
		if fallback == nil {
			fallback = &units[i]
		}
	}
	if fallback != nil {
		return *fallback, true
	}
	return models.Ticket{}, false
}
