// Package viewport keeps the pan/zoom state used to display a venue layout on
// a 2D canvas. It knows nothing about inventory.
package viewport

import (
	"math"

	"boxoffice/internal/layout"
)

const (
	MinScale = 0.2
	MaxScale = 3.0

	// FitMaxScale caps fit-to-view so tiny layouts are not blown up.
	FitMaxScale = 2.0
	// FitFill is the share of the canvas the layout occupies after fit-to-view.
	FitFill = 0.9

	ButtonZoomFactor = 1.2
	WheelZoomFactor  = 1.1
)

// State is the serialisable viewport state.
type State struct {
	Scale        float64 `json:"scale"`
	PanX         float64 `json:"pan_x"`
	PanY         float64 `json:"pan_y"`
	CanvasWidth  float64 `json:"canvas_width"`
	CanvasHeight float64 `json:"canvas_height"`
}

// Controller mutates viewport state. Every zoom keeps the focal world point
// fixed: world = (screen - pan) / scale is the same before and after.
type Controller struct {
	state State
}

// New creates a controller for a canvas of the given size at scale 1.
func New(canvasWidth, canvasHeight float64) *Controller {
	return &Controller{state: State{Scale: 1, CanvasWidth: canvasWidth, CanvasHeight: canvasHeight}}
}

// Restore creates a controller from saved state.
func Restore(s State) *Controller {
	if s.Scale == 0 {
		s.Scale = 1
	}
	s.Scale = clamp(s.Scale)
	return &Controller{state: s}
}

// State returns a copy of the current state.
func (c *Controller) State() State {
	return c.state
}

// Scale returns the current scale.
func (c *Controller) Scale() float64 {
	return c.state.Scale
}

// Resize changes the canvas size without touching scale or pan.
func (c *Controller) Resize(width, height float64) {
	c.state.CanvasWidth = width
	c.state.CanvasHeight = height
}

// ScreenToWorld converts canvas coordinates to layout coordinates.
func (c *Controller) ScreenToWorld(x, y float64) layout.Point {
	return layout.Point{
		X: (x - c.state.PanX) / c.state.Scale,
		Y: (y - c.state.PanY) / c.state.Scale,
	}
}

// WorldToScreen converts layout coordinates to canvas coordinates.
func (c *Controller) WorldToScreen(p layout.Point) (float64, float64) {
	return p.X*c.state.Scale + c.state.PanX, p.Y*c.state.Scale + c.state.PanY
}

// ZoomIn zooms about the canvas centre.
func (c *Controller) ZoomIn() {
	c.zoomAbout(c.state.CanvasWidth/2, c.state.CanvasHeight/2, c.state.Scale*ButtonZoomFactor)
}

// ZoomOut zooms about the canvas centre.
func (c *Controller) ZoomOut() {
	c.zoomAbout(c.state.CanvasWidth/2, c.state.CanvasHeight/2, c.state.Scale/ButtonZoomFactor)
}

// WheelZoom zooms about the cursor. A negative deltaY (wheel up) zooms in.
// It always reports the event as handled so the page does not scroll.
func (c *Controller) WheelZoom(x, y, deltaY float64) bool {
	switch {
	case deltaY < 0:
		c.zoomAbout(x, y, c.state.Scale*WheelZoomFactor)
	case deltaY > 0:
		c.zoomAbout(x, y, c.state.Scale/WheelZoomFactor)
	}
	return true
}

// PinchZoom applies a two-pointer gesture step. The scale follows the ratio of
// finger distances, the world point under the previous midpoint ends up under
// the new midpoint, so the layout also follows a two-finger drag.
func (c *Controller) PinchZoom(prev, next Pair) {
	prevDist := prev.Distance()
	if prevDist == 0 {
		return
	}

	pm := prev.Midpoint()
	nm := next.Midpoint()
	anchor := c.ScreenToWorld(pm.X, pm.Y)

	c.state.Scale = clamp(c.state.Scale * next.Distance() / prevDist)
	c.state.PanX = nm.X - anchor.X*c.state.Scale
	c.state.PanY = nm.Y - anchor.Y*c.state.Scale
}

// Pan moves the layout by a screen-space drag delta.
func (c *Controller) Pan(dx, dy float64) {
	c.state.PanX += dx
	c.state.PanY += dy
}

// FitToView frames the box so it fills FitFill of the canvas, centred.
func (c *Controller) FitToView(bounds layout.Rect) {
	bw, bh := bounds.Width(), bounds.Height()
	if bw <= 0 || bh <= 0 || c.state.CanvasWidth <= 0 || c.state.CanvasHeight <= 0 {
		c.state.Scale = 1
		c.state.PanX, c.state.PanY = 0, 0
		return
	}

	scale := math.Min(c.state.CanvasWidth*FitFill/bw, c.state.CanvasHeight*FitFill/bh)
	scale = clamp(math.Min(scale, FitMaxScale))

	center := bounds.Center()
	c.state.Scale = scale
	c.state.PanX = c.state.CanvasWidth/2 - center.X*scale
	c.state.PanY = c.state.CanvasHeight/2 - center.Y*scale
}

func (c *Controller) zoomAbout(x, y, scale float64) {
	anchor := c.ScreenToWorld(x, y)
	c.state.Scale = clamp(scale)
	c.state.PanX = x - anchor.X*c.state.Scale
	c.state.PanY = y - anchor.Y*c.state.Scale
}

func clamp(scale float64) float64 {
	return math.Max(MinScale, math.Min(MaxScale, scale))
}

// Pair is the position of two active pointers.
type Pair struct {
	A layout.Point
	B layout.Point
}

func (p Pair) Distance() float64 {
	return math.Hypot(p.B.X-p.A.X, p.B.Y-p.A.Y)
}

func (p Pair) Midpoint() layout.Point {
	return layout.Point{X: (p.A.X + p.B.X) / 2, Y: (p.A.Y + p.B.Y) / 2}
}
