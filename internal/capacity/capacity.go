// Package capacity derives per-shape availability from the snapshot, the
// resolutions and the shopper's local picks. Everything here is pure and runs
// on every redraw.
package capacity

import (
	"boxoffice/internal/inventory"
	"boxoffice/internal/layout"
	"boxoffice/internal/models"
	"boxoffice/internal/resolver"
)

// Capacity is the availability of one shape.
type Capacity struct {
	Total       int  `json:"total"`
	Free        int  `json:"free"`
	Selected    int  `json:"selected"`
	Unavailable int  `json:"unavailable"`
	Resolved    bool `json:"resolved"`
}

// Bookable reports whether anything is left to pick.
func (c Capacity) Bookable() bool {
	return c.Resolved && c.Free > 0
}

// Inputs bundles what availability is computed from.
type Inputs struct {
	Zones    *resolver.ZoneResolution
	Seats    resolver.SeatBindings
	Snapshot *inventory.Snapshot
}

// RelevantUnits returns the tickets bound to the shape's resolved zone or seat.
func (in Inputs) RelevantUnits(s layout.Shape) []models.Ticket {
	switch {
	case s.Kind == layout.KindSeat:
		m, ok := in.Seats[s.ID]
		if !ok {
			return nil
		}
		u, ok := in.Snapshot.Unit(m.UnitID)
		if !ok {
			return nil
		}
		return []models.Ticket{u}
	case s.IsZone():
		z, ok := in.Zones.Zone(s.ID)
		if !ok {
			return nil
		}
		return in.Snapshot.ZoneUnits(z.ID)
	}
	return nil
}

// Selected returns how many units the shopper has picked locally against the
// shape's inventory. Picks are counted per resolved zone, so every shape bound
// to the same zone sees what was picked through its siblings.
func Selected(s layout.Shape, in Inputs, selected map[string]int) int {
	if !s.IsZone() {
		return selected[s.ID]
	}
	z, ok := in.Zones.Zone(s.ID)
	if !ok {
		return selected[s.ID]
	}
	n := 0
	for shapeID, count := range selected {
		if other, ok := in.Zones.Zone(shapeID); ok && other.ID == z.ID {
			n += count
		}
	}
	return n
}

// For computes the capacity of one shape given how many units the shopper
// has picked locally against it (see Selected).
func For(s layout.Shape, in Inputs, locallySelected int) Capacity {
	if s.Kind == layout.KindStage {
		return Capacity{}
	}

	units := in.RelevantUnits(s)

	if len(units) == 0 {
		if s.IsZone() {
			if z, ok := in.Zones.Zone(s.ID); ok {
				// Zone known but its tickets are not generated yet.
				return Capacity{Total: z.Capacity, Free: z.Capacity, Selected: locallySelected, Resolved: true}
			}
			return Capacity{Total: s.Capacity}
		}
		return Capacity{}
	}

	c := Capacity{Total: len(units), Selected: locallySelected, Resolved: true}
	free := 0
	for _, u := range units {
		switch u.Status {
		case models.UnitFree:
			free++
		case models.UnitHeld, models.UnitSold:
			c.Unavailable++
		}
	}

	c.Free = free - locallySelected
	if c.Free < 0 {
		c.Free = 0
	}
	return c
}

// Map computes capacity for every shape of a layout.
func Map(l *layout.Layout, in Inputs, selected map[string]int) map[string]Capacity {
	out := make(map[string]Capacity, l.Len())
	for _, s := range l.Shapes() {
		out[s.ID] = For(s, in, Selected(s, in, selected))
	}
	return out
}
