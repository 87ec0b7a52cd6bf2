package viewport

import (
	"testing"

	"boxoffice/internal/layout"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const eps = 1e-9

func assertWorldFixed(t *testing.T, c *Controller, x, y float64, op func()) {
	t.Helper()
	before := c.ScreenToWorld(x, y)
	op()
	after := c.ScreenToWorld(x, y)
	assert.InDelta(t, before.X, after.X, eps)
	assert.InDelta(t, before.Y, after.Y, eps)
}

func TestZoomKeepsFocalPointFixed(t *testing.T) {
	c := New(800, 600)
	c.Pan(37, -12)

	assertWorldFixed(t, c, 400, 300, c.ZoomIn)
	assertWorldFixed(t, c, 400, 300, c.ZoomOut)
	assertWorldFixed(t, c, 123, 456, func() { c.WheelZoom(123, 456, -100) })
	assertWorldFixed(t, c, 700, 20, func() { c.WheelZoom(700, 20, 100) })
}

func TestWheelZoomDirectionAndHandled(t *testing.T) {
	c := New(800, 600)

	assert.True(t, c.WheelZoom(10, 10, -1))
	assert.InDelta(t, WheelZoomFactor, c.Scale(), eps)

	assert.True(t, c.WheelZoom(10, 10, 1))
	assert.InDelta(t, 1.0, c.Scale(), eps)

	assert.True(t, c.WheelZoom(10, 10, 0))
	assert.InDelta(t, 1.0, c.Scale(), eps)
}

func TestScaleIsClamped(t *testing.T) {
	c := New(800, 600)
	for i := 0; i < 50; i++ {
		c.ZoomIn()
	}
	assert.Equal(t, MaxScale, c.Scale())

	for i := 0; i < 50; i++ {
		c.WheelZoom(0, 0, 1)
	}
	assert.Equal(t, MinScale, c.Scale())
}

func TestClampedZoomStillKeepsFocalPoint(t *testing.T) {
	c := New(800, 600)
	for i := 0; i < 50; i++ {
		assertWorldFixed(t, c, 250, 80, c.ZoomIn)
	}
}

func TestPinchZoom(t *testing.T) {
	c := New(800, 600)
	prev := Pair{A: layout.Point{X: 300, Y: 300}, B: layout.Point{X: 500, Y: 300}}
	next := Pair{A: layout.Point{X: 200, Y: 300}, B: layout.Point{X: 600, Y: 300}}

	anchor := c.ScreenToWorld(400, 300)
	c.PinchZoom(prev, next)

	assert.InDelta(t, 2.0, c.Scale(), eps)
	after := c.ScreenToWorld(400, 300)
	assert.InDelta(t, anchor.X, after.X, eps)
	assert.InDelta(t, anchor.Y, after.Y, eps)
}

func TestPinchFollowsMidpoint(t *testing.T) {
	c := New(800, 600)
	prev := Pair{A: layout.Point{X: 100, Y: 100}, B: layout.Point{X: 200, Y: 100}}
	next := Pair{A: layout.Point{X: 150, Y: 130}, B: layout.Point{X: 250, Y: 130}}

	anchor := c.ScreenToWorld(150, 100)
	c.PinchZoom(prev, next)

	moved := c.ScreenToWorld(200, 130)
	assert.InDelta(t, anchor.X, moved.X, eps)
	assert.InDelta(t, anchor.Y, moved.Y, eps)
	assert.InDelta(t, 1.0, c.Scale(), eps)
}

func TestFitToView(t *testing.T) {
	c := New(1000, 500)
	bounds := layout.Rect{MinX: 0, MinY: 0, MaxX: 2000, MaxY: 500}

	c.FitToView(bounds)

	assert.InDelta(t, 0.45, c.Scale(), eps)
	x, y := c.WorldToScreen(bounds.Center())
	assert.InDelta(t, 500, x, eps)
	assert.InDelta(t, 250, y, eps)
}

func TestFitToViewCapsScale(t *testing.T) {
	c := New(1000, 1000)
	c.FitToView(layout.Rect{MinX: 10, MinY: 10, MaxX: 20, MaxY: 20})
	assert.Equal(t, FitMaxScale, c.Scale())

	c.FitToView(layout.Rect{})
	assert.Equal(t, 1.0, c.Scale())
}

func TestRestoreClamps(t *testing.T) {
	c := Restore(State{Scale: 10, CanvasWidth: 100, CanvasHeight: 100})
	assert.Equal(t, MaxScale, c.Scale())

	c = Restore(State{})
	assert.Equal(t, 1.0, c.Scale())
}

func TestGestureDragPans(t *testing.T) {
	c := New(800, 600)
	g := NewGestureTracker(c)

	assert.False(t, g.ScrollLocked())
	g.Handle(PointerEvent{Kind: PointerDown, PointerID: 1, X: 100, Y: 100})
	assert.True(t, g.ScrollLocked())
	g.Handle(PointerEvent{Kind: PointerMove, PointerID: 1, X: 130, Y: 90})
	tap := g.Handle(PointerEvent{Kind: PointerUp, PointerID: 1, X: 130, Y: 90})

	assert.Nil(t, tap)
	assert.False(t, g.ScrollLocked())
	s := c.State()
	assert.Equal(t, 30.0, s.PanX)
	assert.Equal(t, -10.0, s.PanY)
}

func TestGestureTap(t *testing.T) {
	c := New(800, 600)
	g := NewGestureTracker(c)

	g.Handle(PointerEvent{Kind: PointerDown, PointerID: 7, X: 50, Y: 60})
	g.Handle(PointerEvent{Kind: PointerMove, PointerID: 7, X: 52, Y: 61})
	tap := g.Handle(PointerEvent{Kind: PointerUp, PointerID: 7, X: 52, Y: 61})

	require.NotNil(t, tap)
	assert.Equal(t, layout.Point{X: 52, Y: 61}, *tap)
}

func TestGesturePinch(t *testing.T) {
	c := New(800, 600)
	g := NewGestureTracker(c)

	g.Handle(PointerEvent{Kind: PointerDown, PointerID: 1, X: 300, Y: 300})
	g.Handle(PointerEvent{Kind: PointerDown, PointerID: 2, X: 500, Y: 300})
	g.Handle(PointerEvent{Kind: PointerMove, PointerID: 2, X: 700, Y: 300})

	assert.InDelta(t, 2.0, c.Scale(), eps)

	assert.Nil(t, g.Handle(PointerEvent{Kind: PointerUp, PointerID: 2}))
	assert.True(t, g.ScrollLocked())
	assert.Nil(t, g.Handle(PointerEvent{Kind: PointerUp, PointerID: 1}), "release after a pinch is not a tap")
	assert.False(t, g.ScrollLocked())
}

func TestGestureIgnoresUnknownPointers(t *testing.T) {
	c := New(800, 600)
	g := NewGestureTracker(c)

	assert.Nil(t, g.Handle(PointerEvent{Kind: PointerMove, PointerID: 3, X: 10, Y: 10}))
	assert.Nil(t, g.Handle(PointerEvent{Kind: PointerUp, PointerID: 3}))
	assert.Equal(t, State{Scale: 1, CanvasWidth: 800, CanvasHeight: 600}, c.State())
}
