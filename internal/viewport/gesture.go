package viewport

import (
	"math"

	"boxoffice/internal/layout"
)

// TapSlop is how far a pointer may travel and still count as a tap.
const TapSlop = 5.0

// PointerKind is the type of a pointer event.
type PointerKind string

const (
	PointerDown   PointerKind = "down"
	PointerMove   PointerKind = "move"
	PointerUp     PointerKind = "up"
	PointerCancel PointerKind = "cancel"
)

// PointerEvent is a pointer/touch event in canvas (client) coordinates.
type PointerEvent struct {
	Kind      PointerKind `json:"type"`
	PointerID int         `json:"pointer_id"`
	X         float64     `json:"x"`
	Y         float64     `json:"y"`
}

type pointer struct {
	id       int
	pos      layout.Point
	start    layout.Point
	traveled float64
}

// GestureTracker turns raw pointer events into pans, pinches and taps on a
// Controller. One active pointer drags, two pinch, extra pointers are ignored.
type GestureTracker struct {
	ctrl     *Controller
	active   []*pointer
	pinching bool
}

// NewGestureTracker binds a tracker to a controller.
func NewGestureTracker(ctrl *Controller) *GestureTracker {
	return &GestureTracker{ctrl: ctrl}
}

// ScrollLocked reports whether ambient page scrolling must be suppressed.
func (g *GestureTracker) ScrollLocked() bool {
	return len(g.active) > 0
}

// Handle applies one event. It returns the screen position of a completed tap.
func (g *GestureTracker) Handle(ev PointerEvent) (tap *layout.Point) {
	pos := layout.Point{X: ev.X, Y: ev.Y}

	switch ev.Kind {
	case PointerDown:
		if g.find(ev.PointerID) != nil || len(g.active) >= 2 {
			return nil
		}
		g.active = append(g.active, &pointer{id: ev.PointerID, pos: pos, start: pos})
		if len(g.active) == 2 {
			g.pinching = true
		}

	case PointerMove:
		p := g.find(ev.PointerID)
		if p == nil {
			return nil
		}
		if len(g.active) == 2 {
			prev := Pair{A: g.active[0].pos, B: g.active[1].pos}
			p.move(pos)
			next := Pair{A: g.active[0].pos, B: g.active[1].pos}
			g.ctrl.PinchZoom(prev, next)
			return nil
		}
		dx, dy := pos.X-p.pos.X, pos.Y-p.pos.Y
		p.move(pos)
		g.ctrl.Pan(dx, dy)

	case PointerUp, PointerCancel:
		p := g.find(ev.PointerID)
		if p == nil {
			return nil
		}
		g.remove(ev.PointerID)
		wasTap := ev.Kind == PointerUp && !g.pinching && p.traveled <= TapSlop
		if len(g.active) == 0 {
			g.pinching = false
		}
		if wasTap {
			return &layout.Point{X: p.pos.X, Y: p.pos.Y}
		}
	}

	return nil
}

func (p *pointer) move(to layout.Point) {
	p.traveled += math.Hypot(to.X-p.pos.X, to.Y-p.pos.Y)
	p.pos = to
}

func (g *GestureTracker) find(id int) *pointer {
	for _, p := range g.active {
		if p.id == id {
			return p
		}
	}
	return nil
}

func (g *GestureTracker) remove(id int) {
	for i, p := range g.active {
		if p.id == id {
			g.active = append(g.active[:i], g.active[i+1:]...)
			return
		}
	}
}
