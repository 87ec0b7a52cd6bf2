package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDoc = `{
  "elements": [
    {"id": "stage", "kind": "stage", "x": 100, "y": 0, "width": 300, "height": 50, "isBookable": false},
    {"id": "A1", "kind": "seat", "x": 120, "y": 100, "size": 20, "categoryId": "vip", "isBookable": true},
    {"id": "A2", "kind": "Seat", "x": 150, "y": 100, "categoryId": "vip", "isBookable": true, "label": "A2"},
    {"id": "floor", "kind": "section", "x": 100, "y": 200, "width": 200, "height": 100, "categoryId": "std", "capacity": 50, "isBookable": true, "label": "Floor"},
    {"id": "balcony", "kind": "polygon", "x": 400, "y": 200, "points": [0,0, 100,0, 100,80, 0,80], "categoryId": "std", "isBookable": true},
    {"id": "ghost", "kind": "hologram", "x": 9999, "y": 9999, "isBookable": true}
  ],
  "categories": {"vip": {"color": "#d4af37", "name": "VIP"}, "std": {"color": "#3b82f6", "name": "Standard"}}
}`

func TestParse(t *testing.T) {
	l := Parse([]byte(sampleDoc))

	require.Equal(t, 5, l.Len())

	a2, ok := l.Shape("A2")
	require.True(t, ok)
	assert.Equal(t, KindSeat, a2.Kind)
	assert.Equal(t, DefaultSeatSize/2, a2.Radius())

	balcony, ok := l.Shape("balcony")
	require.True(t, ok)
	assert.Equal(t, []Point{{400, 200}, {500, 200}, {500, 280}, {400, 280}}, balcony.Vertices())

	vip, ok := l.Category("vip")
	require.True(t, ok)
	assert.Equal(t, "vip", vip.Key)
	assert.Equal(t, "VIP", vip.DisplayName)
	assert.Equal(t, []string{"std", "vip"}, l.CategoryKeys())

	_, ok = l.Shape("ghost")
	assert.False(t, ok)

	assert.Len(t, l.OfKind(KindSection, KindPolygon), 2)
}

func TestParseBounds(t *testing.T) {
	l := Parse([]byte(sampleDoc))

	b := l.Bounds()
	assert.Equal(t, 100-BoundsPadding, b.MinX)
	assert.Equal(t, 0-BoundsPadding, b.MinY)
	assert.Equal(t, 500+BoundsPadding, b.MaxX)
	assert.Equal(t, 300+BoundsPadding, b.MaxY)
}

func TestParseDegradesToEmpty(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"empty", ""},
		{"whitespace", "   "},
		{"not json", "{elements: nope"},
		{"wrong type", `{"elements": 42}`},
		{"odd points", `{"elements": [{"id": "p", "kind": "polygon", "points": [1,2,3]}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := Parse([]byte(tt.doc))
			assert.Equal(t, 0, l.Len())
			assert.Equal(t, DefaultBounds, l.Bounds())
		})
	}
}

func TestCategoriesAsList(t *testing.T) {
	l := Parse([]byte(`{"elements": [], "categories": [{"key": "gold", "color": "#ff0", "name": "Gold"}]}`))

	gold, ok := l.Category("gold")
	require.True(t, ok)
	assert.Equal(t, "#ff0", gold.Color)
	assert.Equal(t, DefaultBounds, l.Bounds())
}

func TestPointsAsObjects(t *testing.T) {
	l := Parse([]byte(`{"elements": [{"id": "p", "kind": "polygon", "x": 10, "y": 10, "points": [{"x":0,"y":0},{"x":10,"y":0},{"x":0,"y":10}], "isBookable": true}]}`))

	p, ok := l.Shape("p")
	require.True(t, ok)
	assert.Len(t, p.Points, 3)
	assert.True(t, p.Contains(Point{X: 12, Y: 12}))
	assert.False(t, p.Contains(Point{X: 19, Y: 19}))
}

func TestHitTest(t *testing.T) {
	l := Parse([]byte(sampleDoc))

	s, ok := l.HitTest(Point{X: 121, Y: 101})
	require.True(t, ok)
	assert.Equal(t, "A1", s.ID)

	s, ok = l.HitTest(Point{X: 450, Y: 240})
	require.True(t, ok)
	assert.Equal(t, "balcony", s.ID)

	_, ok = l.HitTest(Point{X: 200, Y: 25})
	assert.False(t, ok, "stage is not bookable")

	_, ok = l.HitTest(Point{X: -500, Y: -500})
	assert.False(t, ok)
}
