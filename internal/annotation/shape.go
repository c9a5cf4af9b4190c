package annotation

import (
	"math"

	"github.com/ironsheep/micro-annotate-mcp/internal/geom"
)

// ShapeKind is the drawable primitive a Shape describes.
type ShapeKind string

const (
	ShapeLine      ShapeKind = "line"
	ShapePolyline  ShapeKind = "polyline"
	ShapeCircle    ShapeKind = "circle"
	ShapeText      ShapeKind = "text"
	ShapeArrowhead ShapeKind = "arrowhead"
)

// Shape is one render primitive. Points holds the geometry:
//   - line: start, end
//   - polyline: the vertices, closed when Closed is set
//   - circle: the center (Radius holds the radius)
//   - text: the baseline anchor (Text holds the string, one line per "\n")
//   - arrowhead: tip, left barb, right barb (filled)
type Shape struct {
	Kind     ShapeKind    `json:"kind"`
	Points   []geom.Point `json:"points"`
	Radius   float64      `json:"radius,omitempty"`
	Text     string       `json:"text,omitempty"`
	Closed   bool         `json:"closed,omitempty"`
	Dashed   bool         `json:"dashed,omitempty"`
	Color    string       `json:"color"`
	Width    float64      `json:"width,omitempty"`
	FontSize float64      `json:"fontSize,omitempty"`
}

// Clone returns a deep copy of s.
func (s Shape) Clone() Shape {
	s.Points = append([]geom.Point(nil), s.Points...)
	return s
}

// Translate returns s moved by (dx, dy).
func (s Shape) Translate(dx, dy float64) Shape {
	s.Points = geom.Translate(s.Points, dx, dy)
	return s
}

// Bounds returns an approximate bounding box. Text extents are estimated from
// the font size since shapes carry no font metrics.
func (s Shape) Bounds() geom.Rect {
	switch s.Kind {
	case ShapeCircle:
		if len(s.Points) == 0 {
			return geom.Rect{}
		}
		return geom.Rect{Min: s.Points[0], Max: s.Points[0]}.Inset(math.Abs(s.Radius))
	case ShapeText:
		if len(s.Points) == 0 {
			return geom.Rect{}
		}
		w, h := s.textExtent()
		at := s.Points[0]
		return geom.Rect{Min: geom.Pt(at.X, at.Y-s.FontSize), Max: geom.Pt(at.X+w, at.Y-s.FontSize+h)}
	default:
		return geom.Bounds(s.Points)
	}
}

// textExtent estimates width and height of the text block, assuming an
// average glyph advance of 0.6em and 1.2em line spacing.
func (s Shape) textExtent() (w, h float64) {
	lines := 1
	longest, cur := 0, 0
	for _, r := range s.Text {
		if r == '\n' {
			lines++
			cur = 0
			continue
		}
		cur++
		if cur > longest {
			longest = cur
		}
	}
	size := math.Abs(s.FontSize)
	return float64(longest) * size * 0.6, float64(lines) * size * 1.2
}

// Distance returns how far p lies from the visible outline of s.
func (s Shape) Distance(p geom.Point) float64 {
	switch s.Kind {
	case ShapeLine:
		return geom.PolylineDistance(p, s.Points, false)
	case ShapePolyline:
		return geom.PolylineDistance(p, s.Points, s.Closed)
	case ShapeArrowhead:
		if pointInTriangle(p, s.Points) {
			return 0
		}
		return geom.PolylineDistance(p, s.Points, true)
	case ShapeCircle:
		if len(s.Points) == 0 {
			return math.Inf(1)
		}
		return math.Abs(geom.Distance(p, s.Points[0]) - math.Abs(s.Radius))
	case ShapeText:
		if s.Bounds().Contains(p) {
			return 0
		}
		b := s.Bounds()
		corners := []geom.Point{b.Min, geom.Pt(b.Max.X, b.Min.Y), b.Max, geom.Pt(b.Min.X, b.Max.Y)}
		return geom.PolylineDistance(p, corners, true)
	}
	return math.Inf(1)
}

func pointInTriangle(p geom.Point, tri []geom.Point) bool {
	if len(tri) != 3 {
		return false
	}
	sign := func(a, b, c geom.Point) float64 {
		return (a.X-c.X)*(b.Y-c.Y) - (b.X-c.X)*(a.Y-c.Y)
	}
	d1 := sign(p, tri[0], tri[1])
	d2 := sign(p, tri[1], tri[2])
	d3 := sign(p, tri[2], tri[0])
	hasNeg := d1 < 0 || d2 < 0 || d3 < 0
	hasPos := d1 > 0 || d2 > 0 || d3 > 0
	return !(hasNeg && hasPos)
}
