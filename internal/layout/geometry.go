package layout

import "math"

// BoundsPadding is added on every side of the shapes' bounding box.
const BoundsPadding = 40.0

// DefaultBounds frames an empty layout.
var DefaultBounds = Rect{MinX: 0, MinY: 0, MaxX: 1000, MaxY: 600}

// Rect is an axis-aligned box in layout coordinates.
type Rect struct {
	MinX float64 `json:"min_x"`
	MinY float64 `json:"min_y"`
	MaxX float64 `json:"max_x"`
	MaxY float64 `json:"max_y"`
}

func (r Rect) Width() float64  { return r.MaxX - r.MinX }
func (r Rect) Height() float64 { return r.MaxY - r.MinY }

// Center returns the midpoint of the box.
func (r Rect) Center() Point {
	return Point{X: (r.MinX + r.MaxX) / 2, Y: (r.MinY + r.MaxY) / 2}
}

func (r Rect) extend(p Point) Rect {
	return Rect{
		MinX: math.Min(r.MinX, p.X),
		MinY: math.Min(r.MinY, p.Y),
		MaxX: math.Max(r.MaxX, p.X),
		MaxY: math.Max(r.MaxY, p.Y),
	}
}

// Extent returns the bounding box of a single shape.
func (s Shape) Extent() Rect {
	switch s.Kind {
	case KindSeat:
		r := s.Radius()
		return Rect{MinX: s.X - r, MinY: s.Y - r, MaxX: s.X + r, MaxY: s.Y + r}
	case KindPolygon:
		if len(s.Points) > 0 {
			verts := s.Vertices()
			box := Rect{MinX: verts[0].X, MinY: verts[0].Y, MaxX: verts[0].X, MaxY: verts[0].Y}
			for _, v := range verts[1:] {
				box = box.extend(v)
			}
			return box
		}
	}
	return Rect{MinX: s.X, MinY: s.Y, MaxX: s.X + s.Width, MaxY: s.Y + s.Height}
}

// Center returns the visual centre of the shape, used for labels.
func (s Shape) Center() Point {
	if s.Kind == KindSeat {
		return Point{X: s.X, Y: s.Y}
	}
	return s.Extent().Center()
}

// Contains reports whether a layout-space point falls inside the shape.
func (s Shape) Contains(p Point) bool {
	switch s.Kind {
	case KindSeat:
		dx, dy := p.X-s.X, p.Y-s.Y
		r := s.Radius()
		return dx*dx+dy*dy <= r*r
	case KindPolygon:
		if len(s.Points) >= 3 {
			return pointInPolygon(p, s.Vertices())
		}
	}
	e := s.Extent()
	return p.X >= e.MinX && p.X <= e.MaxX && p.Y >= e.MinY && p.Y <= e.MaxY
}

// pointInPolygon is the even-odd ray casting test.
func pointInPolygon(p Point, verts []Point) bool {
	inside := false
	j := len(verts) - 1
	for i := range verts {
		vi, vj := verts[i], verts[j]
		if (vi.Y > p.Y) != (vj.Y > p.Y) &&
			p.X < (vj.X-vi.X)*(p.Y-vi.Y)/(vj.Y-vi.Y)+vi.X {
			inside = !inside
		}
		j = i
	}
	return inside
}

// HitTest returns the topmost bookable shape under a layout-space point.
// Later elements are drawn above earlier ones, so the search runs backwards.
func (l *Layout) HitTest(p Point) (Shape, bool) {
	for i := len(l.shapes) - 1; i >= 0; i-- {
		s := l.shapes[i]
		if !s.IsBookable || s.Kind == KindStage {
			continue
		}
		if s.Contains(p) {
			return s, true
		}
	}
	return Shape{}, false
}

func boundsOf(shapes []Shape) Rect {
	if len(shapes) == 0 {
		return DefaultBounds
	}

	box := shapes[0].Extent()
	for _, s := range shapes[1:] {
		e := s.Extent()
		box = box.extend(Point{X: e.MinX, Y: e.MinY}).extend(Point{X: e.MaxX, Y: e.MaxY})
	}

	return Rect{
		MinX: box.MinX - BoundsPadding,
		MinY: box.MinY - BoundsPadding,
		MaxX: box.MaxX + BoundsPadding,
		MaxY: box.MaxY + BoundsPadding,
	}
}
