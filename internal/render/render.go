// Package render draws a layout through an abstract 2D surface. Drawing is
// immediate mode: every call repaints the full map from current state.
package render

import (
	"math"

	"boxoffice/internal/capacity"
	"boxoffice/internal/layout"
	"boxoffice/internal/viewport"
)

// Style is the paint of a filled shape.
type Style struct {
	Fill        string
	Stroke      string
	StrokeWidth float64
	Hatched     bool
}

// TextStyle is the paint of a label.
type TextStyle struct {
	Color string
	Size  float64
}

// Surface is the drawing contract. Coordinates are in screen pixels.
type Surface interface {
	Rect(x, y, w, h float64, st Style)
	RoundRect(x, y, w, h, radius float64, st Style)
	Polygon(points []layout.Point, st Style)
	Text(x, y float64, text string, st TextStyle)
}

// State is what a shape shows to the shopper.
type State string

const (
	StateFree        State = "free"
	StateSelected    State = "selected"
	StateUnavailable State = "unavailable"
	StateUnresolved  State = "unresolved"
	StateStage       State = "stage"
)

const (
	colorSelected    = "#2e7d32"
	colorUnavailable = "#b0b0b0"
	colorStage       = "#333333"
	colorDefault     = "#6c8ebf"
	colorStroke      = "#ffffff"
	colorLabel       = "#111111"
)

// StateOf derives a shape's display state from its capacity and the local
// selection.
func StateOf(s layout.Shape, c capacity.Capacity, selected int) State {
	switch {
	case s.Kind == layout.KindStage:
		return StateStage
	case selected > 0:
		return StateSelected
	case !s.IsBookable:
		return StateUnavailable
	case s.IsZone() && !c.Resolved:
		return StateUnresolved
	case c.Free > 0:
		return StateFree
	}
	return StateUnavailable
}

// Renderer paints a layout in its current viewport.
type Renderer struct {
	// LabelMinScale hides section labels when zoomed out past it.
	LabelMinScale float64
}

func NewRenderer() *Renderer {
	return &Renderer{LabelMinScale: 0.5}
}

// Draw paints every shape in document order so later shapes sit on top.
func (r *Renderer) Draw(surface Surface, l *layout.Layout, vp *viewport.Controller, caps map[string]capacity.Capacity, selected map[string]int) {
	scale := vp.Scale()

	for _, s := range l.Shapes() {
		state := StateOf(s, caps[s.ID], selected[s.ID])
		st := r.style(l, s, state)

		switch s.Kind {
		case layout.KindSeat:
			cx, cy := vp.WorldToScreen(layout.Point{X: s.X, Y: s.Y})
			rad := s.Radius() * scale
			surface.RoundRect(cx-rad, cy-rad, 2*rad, 2*rad, rad, st)
		case layout.KindPolygon:
			verts := s.Vertices()
			pts := make([]layout.Point, len(verts))
			for i, v := range verts {
				x, y := vp.WorldToScreen(v)
				pts[i] = layout.Point{X: x, Y: y}
			}
			surface.Polygon(pts, st)
		default:
			x, y := vp.WorldToScreen(layout.Point{X: s.X, Y: s.Y})
			surface.Rect(x, y, s.Width*scale, s.Height*scale, st)
		}

		if s.Label != "" && s.Kind != layout.KindSeat && scale >= r.LabelMinScale {
			cx, cy := vp.WorldToScreen(s.Center())
			color := colorLabel
			if state == StateStage {
				color = colorStroke
			}
			surface.Text(cx, cy, s.Label, TextStyle{Color: color, Size: math.Max(10, 14*scale)})
		}
	}
}

func (r *Renderer) style(l *layout.Layout, s layout.Shape, state State) Style {
	st := Style{Stroke: colorStroke, StrokeWidth: 1}
	switch state {
	case StateStage:
		st.Fill = colorStage
	case StateSelected:
		st.Fill = colorSelected
	case StateUnresolved:
		st.Fill = colorUnavailable
		st.Hatched = true
	case StateFree:
		st.Fill = colorDefault
		if c, ok := l.Category(s.CategoryID); ok && c.Color != "" {
			st.Fill = c.Color
		}
	default:
		st.Fill = colorUnavailable
	}
	return st
}
