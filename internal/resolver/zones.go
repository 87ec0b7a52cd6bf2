// Package resolver maps layout shapes, which carry no persisted identity, to
// the backend zone records and seat tickets they are meant to represent.
package resolver

import (
	"math"
	"strings"

	"boxoffice/internal/layout"
	"boxoffice/internal/models"
)

// DefaultTolerance is the pixel distance within which positions are equal.
const DefaultTolerance = 5.0

// Tier names the matching rule that produced a resolution.
type Tier string

const (
	TierExactID    Tier = "exact_id"
	TierName       Tier = "name"
	TierGeometry   Tier = "geometry"
	TierCategory   Tier = "category"
	TierSingleton  Tier = "singleton"
	TierAny        Tier = "any"
	TierUnresolved Tier = "unresolved"
)

// ZoneMatch is the outcome of resolving one section/polygon shape.
type ZoneMatch struct {
	ZoneID string `json:"zone_id,omitempty"`
	Tier   Tier   `json:"tier"`
}

// ZoneResolution is the shape id -> zone map for one venue load. It is a plain
// value so it can be cached and only recomputed when zones or layout change.
type ZoneResolution struct {
	Matches map[string]ZoneMatch   `json:"matches"`
	Zones   map[string]models.Zone `json:"zones"`
}

// ResolveZones applies the ordered, first-match-wins strategy to every
// section and polygon shape:
//  1. exact id, 2. case-insensitive label/name, 3. descriptor position within
//     tolerance, 4. the only zone in the shape's category, 5. the venue's only
//     zone; otherwise the shape stays unresolved.
func ResolveZones(shapes []layout.Shape, zones []models.Zone, tolerance float64) *ZoneResolution {
	res := &ZoneResolution{
		Matches: map[string]ZoneMatch{},
		Zones:   make(map[string]models.Zone, len(zones)),
	}
	byCategory := map[string][]models.Zone{}
	for _, z := range zones {
		res.Zones[z.ID] = z
		if z.CategoryID != nil {
			byCategory[*z.CategoryID] = append(byCategory[*z.CategoryID], z)
		}
	}

	for _, s := range shapes {
		if !s.IsZone() {
			continue
		}
		res.Matches[s.ID] = matchZone(s, zones, byCategory, tolerance)
	}

	return res
}

func matchZone(s layout.Shape, zones []models.Zone, byCategory map[string][]models.Zone, tolerance float64) ZoneMatch {
	for _, z := range zones {
		if z.ID == s.ID {
			return ZoneMatch{ZoneID: z.ID, Tier: TierExactID}
		}
	}

	if label := strings.TrimSpace(s.Label); label != "" {
		for _, z := range zones {
			if strings.EqualFold(strings.TrimSpace(z.Name), label) {
				return ZoneMatch{ZoneID: z.ID, Tier: TierName}
			}
		}
	}

	for _, z := range zones {
		if z.Shape.Present() && near(z.Shape.X, z.Shape.Y, s.X, s.Y, tolerance) {
			return ZoneMatch{ZoneID: z.ID, Tier: TierGeometry}
		}
	}

	// Several zones sharing the category is ambiguous, skip the tier.
	if s.CategoryID != "" {
		if candidates := byCategory[s.CategoryID]; len(candidates) == 1 {
			return ZoneMatch{ZoneID: candidates[0].ID, Tier: TierCategory}
		}
	}

	if len(zones) == 1 {
		return ZoneMatch{ZoneID: zones[0].ID, Tier: TierSingleton}
	}

	return ZoneMatch{Tier: TierUnresolved}
}

// Zone returns the zone a shape resolved to.
func (r *ZoneResolution) Zone(shapeID string) (models.Zone, bool) {
	if r == nil {
		return models.Zone{}, false
	}
	m, ok := r.Matches[shapeID]
	if !ok || m.ZoneID == "" {
		return models.Zone{}, false
	}
	z, ok := r.Zones[m.ZoneID]
	return z, ok
}

// Match returns the raw match for a shape; unknown shapes are unresolved.
func (r *ZoneResolution) Match(shapeID string) ZoneMatch {
	if r == nil {
		return ZoneMatch{Tier: TierUnresolved}
	}
	if m, ok := r.Matches[shapeID]; ok {
		return m
	}
	return ZoneMatch{Tier: TierUnresolved}
}

// TierCounts counts matches per tier.
func (r *ZoneResolution) TierCounts() map[Tier]int {
	out := map[Tier]int{}
	if r == nil {
		return out
	}
	for _, m := range r.Matches {
		out[m.Tier]++
	}
	return out
}

func near(ax, ay, bx, by, tolerance float64) bool {
	return math.Abs(ax-bx) <= tolerance && math.Abs(ay-by) <= tolerance
}
