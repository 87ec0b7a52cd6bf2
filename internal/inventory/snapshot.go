// Package inventory holds the per-event inventory snapshot a shopper works
// against and the event's category price table.
package inventory

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"boxoffice/internal/models"
)

// Source is the read side of the backend used to build a snapshot.
type Source interface {
	FetchInventoryForEvent(ctx context.Context, eventID int64) ([]models.Ticket, error)
}

// Snapshot is an immutable view of every ticket of one event at fetch time.
type Snapshot struct {
	EventID   int64
	FetchedAt time.Time
	// Err is set when the fetch failed and the snapshot degraded to empty.
	Err error

	units  []models.Ticket
	byID   map[string]int
	byZone map[string][]int
	bySeat map[string][]int
}

// NewSnapshot indexes a ticket list. Units are kept sorted by id so every
// consumer sees a deterministic order.
func NewSnapshot(eventID int64, units []models.Ticket) *Snapshot {
	sorted := make([]models.Ticket, len(units))
	copy(sorted, units)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	s := &Snapshot{
		EventID:   eventID,
		FetchedAt: time.Now(),
		units:     sorted,
		byID:      make(map[string]int, len(sorted)),
		byZone:    map[string][]int{},
		bySeat:    map[string][]int{},
	}

	for i, u := range sorted {
		s.byID[u.ID] = i
		if u.ZoneID != nil {
			s.byZone[*u.ZoneID] = append(s.byZone[*u.ZoneID], i)
		}
		if u.SeatID != nil {
			s.bySeat[*u.SeatID] = append(s.bySeat[*u.SeatID], i)
		}
	}

	return s
}

// Load fetches the snapshot for an event. A failed fetch is not returned as
// an error: the snapshot degrades to empty, so everything reads unavailable
// and a refresh is the only recovery.
func Load(ctx context.Context, src Source, eventID int64) *Snapshot {
	units, err := src.FetchInventoryForEvent(ctx, eventID)
	if err != nil {
		slog.Warn("Failed to fetch inventory, using empty snapshot", "event_id", eventID, "error", err)
		s := NewSnapshot(eventID, nil)
		s.Err = fmt.Errorf("failed to fetch inventory for event %d: %w", eventID, err)
		return s
	}
	return NewSnapshot(eventID, units)
}

// Units returns every unit.
func (s *Snapshot) Units() []models.Ticket {
	return s.units
}

// Unit returns a unit by id.
func (s *Snapshot) Unit(id string) (models.Ticket, bool) {
	i, ok := s.byID[id]
	if !ok {
		return models.Ticket{}, false
	}
	return s.units[i], true
}

// ZoneUnits returns the units bound to a zone.
func (s *Snapshot) ZoneUnits(zoneID string) []models.Ticket {
	return s.pick(s.byZone[zoneID])
}

// SeatUnits returns the units bound to a seat record.
func (s *Snapshot) SeatUnits(seatID string) []models.Ticket {
	return s.pick(s.bySeat[seatID])
}

// SeatBound returns every unit with a seat reference.
func (s *Snapshot) SeatBound() []models.Ticket {
	var out []models.Ticket
	for _, u := range s.units {
		if u.SeatID != nil {
			out = append(out, u)
		}
	}
	return out
}

// IsFree reports whether the unit exists and is free.
func (s *Snapshot) IsFree(id string) bool {
	u, ok := s.Unit(id)
	return ok && u.Status == models.UnitFree
}

// Len returns the number of units.
func (s *Snapshot) Len() int {
	return len(s.units)
}

// Degraded reports whether the snapshot is empty because the fetch failed.
func (s *Snapshot) Degraded() bool {
	return s.Err != nil
}

func (s *Snapshot) pick(idx []int) []models.Ticket {
	out := make([]models.Ticket, len(idx))
	for i, j := range idx {
		out[i] = s.units[j]
	}
	return out
}
