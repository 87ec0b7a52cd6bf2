package capacity

import (
	"fmt"
	"testing"

	"boxoffice/internal/inventory"
	"boxoffice/internal/layout"
	"boxoffice/internal/models"
	"boxoffice/internal/resolver"

	"github.com/stretchr/testify/assert"
)

func strPtr(s string) *string { return &s }

func zoneUnits(zoneID string, free, held, sold int) []models.Ticket {
	var out []models.Ticket
	add := func(n int, status models.UnitStatus) {
		for i := 0; i < n; i++ {
			out = append(out, models.Ticket{ID: fmt.Sprintf("%s-%s-%d", zoneID, status, i), ZoneID: strPtr(zoneID), Status: status})
		}
	}
	add(free, models.UnitFree)
	add(held, models.UnitHeld)
	add(sold, models.UnitSold)
	return out
}

func fixture(units []models.Ticket) (*layout.Layout, Inputs) {
	l := layout.New([]layout.Shape{
		{ID: "Z", Kind: layout.KindSection, IsBookable: true, Capacity: 99},
		{ID: "empty-zone", Kind: layout.KindPolygon, IsBookable: true},
		{ID: "lost", Kind: layout.KindSection, X: 5000, Y: 5000, Capacity: 25, IsBookable: true},
		{ID: "S", Kind: layout.KindSeat, IsBookable: true},
		{ID: "orphan", Kind: layout.KindSeat, IsBookable: true},
		{ID: "stage", Kind: layout.KindStage},
	}, nil)

	zones := []models.Zone{
		{ID: "Z", Capacity: 10},
		{ID: "empty-zone", Capacity: 40},
	}

	snap := inventory.NewSnapshot(1, units)
	return l, Inputs{
		Zones:    resolver.ResolveZones(l.Shapes(), zones, resolver.DefaultTolerance),
		Seats:    resolver.SeatBindings{"S": {UnitID: "seat-unit", Tier: resolver.TierExactID}},
		Snapshot: snap,
	}
}

func TestZoneScenario(t *testing.T) {
	l, in := fixture(zoneUnits("Z", 6, 1, 3))
	z, _ := l.Shape("Z")

	assert.Equal(t, Capacity{Total: 10, Free: 6, Selected: 0, Unavailable: 4, Resolved: true}, For(z, in, 0))
	assert.Equal(t, Capacity{Total: 10, Free: 4, Selected: 2, Unavailable: 4, Resolved: true}, For(z, in, 2))
}

func TestFreeNeverNegative(t *testing.T) {
	l, in := fixture(zoneUnits("Z", 1, 0, 9))
	z, _ := l.Shape("Z")

	c := For(z, in, 5)
	assert.Equal(t, 0, c.Free)
	assert.Equal(t, 5, c.Selected)
	assert.False(t, c.Bookable())
}

func TestResolvedZoneWithoutUnits(t *testing.T) {
	l, in := fixture(nil)
	s, _ := l.Shape("empty-zone")

	assert.Equal(t, Capacity{Total: 40, Free: 40, Selected: 0, Resolved: true}, For(s, in, 0))
}

func TestUnresolvedZoneFallsBackToDeclaredCapacity(t *testing.T) {
	l, in := fixture(zoneUnits("Z", 3, 0, 0))
	s, _ := l.Shape("lost")

	c := For(s, in, 0)
	assert.Equal(t, Capacity{Total: 25}, c)
	assert.False(t, c.Bookable())
}

func TestSeatCapacity(t *testing.T) {
	units := []models.Ticket{{ID: "seat-unit", SeatID: strPtr("S"), Status: models.UnitFree}}
	l, in := fixture(units)
	s, _ := l.Shape("S")

	assert.Equal(t, Capacity{Total: 1, Free: 1, Resolved: true}, For(s, in, 0))
	assert.Equal(t, Capacity{Total: 1, Free: 0, Selected: 1, Resolved: true}, For(s, in, 1))

	orphan, _ := l.Shape("orphan")
	assert.Equal(t, Capacity{}, For(orphan, in, 0))
}

func TestSeatSoldIsUnavailable(t *testing.T) {
	units := []models.Ticket{{ID: "seat-unit", SeatID: strPtr("S"), Status: models.UnitSold}}
	l, in := fixture(units)
	s, _ := l.Shape("S")

	assert.Equal(t, Capacity{Total: 1, Unavailable: 1, Resolved: true}, For(s, in, 0))
}

func TestMap(t *testing.T) {
	l, in := fixture(zoneUnits("Z", 6, 1, 3))

	m := Map(l, in, map[string]int{"Z": 1})

	assert.Len(t, m, l.Len())
	assert.Equal(t, 5, m["Z"].Free)
	assert.Equal(t, Capacity{}, m["stage"])
}

func TestFreeNonNegativeProperty(t *testing.T) {
	for free := 0; free <= 4; free++ {
		for sold := 0; sold <= 3; sold++ {
			l, in := fixture(zoneUnits("Z", free, 1, sold))
			z, _ := l.Shape("Z")
			for sel := 0; sel <= 6; sel++ {
				assert.GreaterOrEqual(t, For(z, in, sel).Free, 0)
			}
		}
	}
}

func TestSiblingShapesShareZonePicks(t *testing.T) {
	l := layout.New([]layout.Shape{
		{ID: "left", Kind: layout.KindSection, X: 100, Y: 100, IsBookable: true},
		{ID: "right", Kind: layout.KindSection, X: 600, Y: 100, IsBookable: true},
		{ID: "S", Kind: layout.KindSeat, IsBookable: true},
	}, nil)
	zones := []models.Zone{{ID: "solo", Capacity: 4}}
	in := Inputs{
		Zones:    resolver.ResolveZones(l.Shapes(), zones, resolver.DefaultTolerance),
		Snapshot: inventory.NewSnapshot(1, zoneUnits("solo", 4, 0, 0)),
	}
	left, _ := l.Shape("left")
	right, _ := l.Shape("right")
	seat, _ := l.Shape("S")

	selected := map[string]int{"left": 3, "S": 1}
	assert.Equal(t, 3, Selected(left, in, selected))
	assert.Equal(t, 3, Selected(right, in, selected))
	assert.Equal(t, 1, Selected(seat, in, selected))

	m := Map(l, in, map[string]int{"left": 4})
	assert.Equal(t, 0, m["left"].Free)
	assert.Equal(t, 0, m["right"].Free)
	assert.False(t, m["right"].Bookable())
}

func TestSelectedUnresolvedZoneCountsOwnPicks(t *testing.T) {
	l, in := fixture(zoneUnits("Z", 3, 0, 0))
	lost, _ := l.Shape("lost")

	assert.Equal(t, 2, Selected(lost, in, map[string]int{"lost": 2, "Z": 1}))
}
