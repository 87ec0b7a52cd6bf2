// Package layout parses the persisted venue description produced by the
// authoring tool into typed shapes and categories.
package layout

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
)

// Kind is the kind of a layout element.
type Kind string

const (
	KindSeat    Kind = "seat"
	KindSection Kind = "section"
	KindPolygon Kind = "polygon"
	KindStage   Kind = "stage"
)

// DefaultSeatSize is the seat diameter used when the document omits one.
const DefaultSeatSize = 20.0

// Point is a position in layout (world) coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Points accepts both a flat [x1,y1,x2,y2,...] list and a list of {x,y} objects.
type Points []Point

func (p *Points) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*p = nil
		return nil
	}

	var flat []float64
	if err := json.Unmarshal(data, &flat); err == nil {
		if len(flat)%2 != 0 {
			return fmt.Errorf("odd number of polygon coordinates: %d", len(flat))
		}
		out := make(Points, 0, len(flat)/2)
		for i := 0; i < len(flat); i += 2 {
			out = append(out, Point{X: flat[i], Y: flat[i+1]})
		}
		*p = out
		return nil
	}

	var objects []Point
	if err := json.Unmarshal(data, &objects); err != nil {
		return fmt.Errorf("invalid polygon points: %w", err)
	}
	*p = objects
	return nil
}

// Shape is one element of the venue layout. Its ID is local to the document
// and is not guaranteed to match any backend record.
type Shape struct {
	ID         string  `json:"id"`
	Kind       Kind    `json:"kind"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Width      float64 `json:"width,omitempty"`
	Height     float64 `json:"height,omitempty"`
	Size       float64 `json:"size,omitempty"`
	Points     Points  `json:"points,omitempty"`
	CategoryID string  `json:"categoryId,omitempty"`
	Capacity   int     `json:"capacity,omitempty"`
	IsBookable bool    `json:"isBookable"`
	Label      string  `json:"label,omitempty"`
}

// IsZone reports whether the shape represents a backend zone.
func (s Shape) IsZone() bool {
	return s.Kind == KindSection || s.Kind == KindPolygon
}

// Radius returns the seat radius.
func (s Shape) Radius() float64 {
	if s.Size > 0 {
		return s.Size / 2
	}
	return DefaultSeatSize / 2
}

// Vertices returns the polygon vertices in absolute layout coordinates.
func (s Shape) Vertices() []Point {
	out := make([]Point, len(s.Points))
	for i, p := range s.Points {
		out[i] = Point{X: s.X + p.X, Y: s.Y + p.Y}
	}
	return out
}

// Category is a cosmetic and pricing grouping referenced by shapes and prices.
type Category struct {
	Key         string `json:"key"`
	Color       string `json:"color"`
	DisplayName string `json:"name"`
}

// Categories accepts both {key: {color, name}} and [{key, color, name}].
type Categories map[string]Category

func (c *Categories) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*c = Categories{}
		return nil
	}

	out := Categories{}
	if len(data) > 0 && data[0] == '[' {
		var list []Category
		if err := json.Unmarshal(data, &list); err != nil {
			return fmt.Errorf("invalid categories list: %w", err)
		}
		for _, cat := range list {
			out[cat.Key] = cat
		}
		*c = out
		return nil
	}

	var byKey map[string]Category
	if err := json.Unmarshal(data, &byKey); err != nil {
		return fmt.Errorf("invalid categories map: %w", err)
	}
	for key, cat := range byKey {
		cat.Key = key
		out[key] = cat
	}
	*c = out
	return nil
}

type document struct {
	Elements   []Shape    `json:"elements"`
	Categories Categories `json:"categories"`
}

// Layout is the typed, read-only view of a venue document.
type Layout struct {
	shapes     []Shape
	byID       map[string]int
	categories Categories
	bounds     Rect
}

// Empty returns a layout without shapes and with default bounds.
func Empty() *Layout {
	return &Layout{
		byID:       map[string]int{},
		categories: Categories{},
		bounds:     DefaultBounds,
	}
}

// Parse decodes a persisted layout document. Malformed or missing documents
// degrade to an empty layout: a venue may legitimately have no saved layout yet.
func Parse(data []byte) *Layout {
	if len(bytes.TrimSpace(data)) == 0 {
		return Empty()
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		slog.Warn("Failed to parse venue layout, using empty layout", "error", err)
		return Empty()
	}

	return New(doc.Elements, doc.Categories)
}

// New builds a layout from already decoded shapes. Shapes with an unknown kind
// or an empty id are skipped; on duplicate ids the first one wins.
func New(shapes []Shape, categories Categories) *Layout {
	l := Empty()
	if categories != nil {
		l.categories = categories
	}

	for _, s := range shapes {
		s.Kind = Kind(strings.ToLower(string(s.Kind)))
		switch s.Kind {
		case KindSeat, KindSection, KindPolygon, KindStage:
		default:
			slog.Debug("Skipping layout element with unknown kind", "id", s.ID, "kind", s.Kind)
			continue
		}
		if s.ID == "" {
			continue
		}
		if _, dup := l.byID[s.ID]; dup {
			slog.Debug("Skipping duplicate layout element", "id", s.ID)
			continue
		}
		l.byID[s.ID] = len(l.shapes)
		l.shapes = append(l.shapes, s)
	}

	l.bounds = boundsOf(l.shapes)
	return l
}

// Shapes returns every shape in document order.
func (l *Layout) Shapes() []Shape {
	return l.shapes
}

// Shape looks a shape up by its document id.
func (l *Layout) Shape(id string) (Shape, bool) {
	i, ok := l.byID[id]
	if !ok {
		return Shape{}, false
	}
	return l.shapes[i], true
}

// OfKind returns the shapes matching any of the given kinds.
func (l *Layout) OfKind(kinds ...Kind) []Shape {
	var out []Shape
	for _, s := range l.shapes {
		for _, k := range kinds {
			if s.Kind == k {
				out = append(out, s)
				break
			}
		}
	}
	return out
}

// Category returns the category with the given key.
func (l *Layout) Category(key string) (Category, bool) {
	c, ok := l.categories[key]
	return c, ok
}

// CategoryKeys returns the category keys sorted.
func (l *Layout) CategoryKeys() []string {
	keys := make([]string, 0, len(l.categories))
	for k := range l.categories {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Bounds returns the padded bounding box of all shapes.
func (l *Layout) Bounds() Rect {
	return l.bounds
}

// Len returns the number of shapes.
func (l *Layout) Len() int {
	return len(l.shapes)
}
