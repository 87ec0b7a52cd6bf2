package render

import (
	"fmt"
	"html"
	"strings"

	"boxoffice/internal/layout"
)

const hatchPatternID = "hatch"

// SVGSurface records drawing calls as an SVG document.
type SVGSurface struct {
	width, height float64
	body          strings.Builder
}

func NewSVGSurface(width, height float64) *SVGSurface {
	return &SVGSurface{width: width, height: height}
}

func (s *SVGSurface) Rect(x, y, w, h float64, st Style) {
	fmt.Fprintf(&s.body, `<rect x="%s" y="%s" width="%s" height="%s"%s/>`+"\n", num(x), num(y), num(w), num(h), paint(st))
}

func (s *SVGSurface) RoundRect(x, y, w, h, radius float64, st Style) {
	fmt.Fprintf(&s.body, `<rect x="%s" y="%s" width="%s" height="%s" rx="%s" ry="%s"%s/>`+"\n",
		num(x), num(y), num(w), num(h), num(radius), num(radius), paint(st))
}

func (s *SVGSurface) Polygon(points []layout.Point, st Style) {
	if len(points) < 3 {
		return
	}
	coords := make([]string, len(points))
	for i, p := range points {
		coords[i] = num(p.X) + "," + num(p.Y)
	}
	fmt.Fprintf(&s.body, `<polygon points="%s"%s/>`+"\n", strings.Join(coords, " "), paint(st))
}

func (s *SVGSurface) Text(x, y float64, text string, st TextStyle) {
	fmt.Fprintf(&s.body, `<text x="%s" y="%s" fill="%s" font-size="%s" text-anchor="middle" dominant-baseline="middle">%s</text>`+"\n",
		num(x), num(y), html.EscapeString(st.Color), num(st.Size), html.EscapeString(text))
}

// Bytes returns the complete document.
func (s *SVGSurface) Bytes() []byte {
	var b strings.Builder
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" width="%s" height="%s" viewBox="0 0 %s %s">`+"\n",
		num(s.width), num(s.height), num(s.width), num(s.height))
	fmt.Fprintf(&b, `<defs><pattern id="%s" width="8" height="8" patternUnits="userSpaceOnUse" patternTransform="rotate(45)">`+
		`<rect width="8" height="8" fill="%s"/><line x1="0" y1="0" x2="0" y2="8" stroke="#808080" stroke-width="3"/></pattern></defs>`+"\n",
		hatchPatternID, colorUnavailable)
	b.WriteString(s.body.String())
	b.WriteString("</svg>\n")
	return []byte(b.String())
}

func paint(st Style) string {
	fill := html.EscapeString(st.Fill)
	if st.Hatched {
		fill = "url(#" + hatchPatternID + ")"
	}
	out := fmt.Sprintf(` fill="%s"`, fill)
	if st.Stroke != "" {
		out += fmt.Sprintf(` stroke="%s" stroke-width="%s"`, html.EscapeString(st.Stroke), num(st.StrokeWidth))
	}
	return out
}

func num(v float64) string {
	return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.2f", v), "0"), ".")
}
