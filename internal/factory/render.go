package factory

import (
	"math"
	"strings"

	"github.com/ironsheep/micro-annotate-mcp/internal/annotation"
	"github.com/ironsheep/micro-annotate-mcp/internal/geom"
	"github.com/ironsheep/micro-annotate-mcp/internal/style"
)

// maxHatchLines caps the lines generated per direction for a hatch.
const maxHatchLines = 500

// Shapes derives the render shapes of rec from its data and style snapshot.
func Shapes(rec annotation.Record) []annotation.Shape {
	return ShapesWithStyle(rec, rec.Style)
}

// ShapesWithStyle renders rec as if it had been created with s. The record
// itself is not modified.
func ShapesWithStyle(rec annotation.Record, s style.Style) []annotation.Shape {
	p := pen{s: s}
	d := rec.Data
	switch {
	case d.Text != nil:
		return []annotation.Shape{p.text(d.Text.Position, d.Text.Content)}
	case d.Dimension != nil:
		return p.dimension(rec.Tool, d.Dimension)
	case d.Circle != nil:
		return p.circle(rec.Tool, d.Circle)
	case d.Leader != nil:
		return p.leader(rec.Tool, d.Leader)
	case d.Centerline != nil:
		l := p.line(d.Centerline.Start, d.Centerline.End)
		l.Dashed = true
		return []annotation.Shape{l}
	case d.Cloud != nil:
		return []annotation.Shape{{
			Kind:   annotation.ShapePolyline,
			Points: append([]geom.Point(nil), d.Cloud.Points...),
			Closed: d.Cloud.Closed,
			Color:  s.LineColor,
			Width:  s.LineWidth,
		}}
	case d.Hatch != nil:
		return p.hatch(d.Hatch)
	}
	return nil
}

// pen stamps style attributes onto shapes.
type pen struct {
	s style.Style
}

func (p pen) line(a, b geom.Point) annotation.Shape {
	return annotation.Shape{
		Kind:   annotation.ShapeLine,
		Points: []geom.Point{a, b},
		Color:  p.s.LineColor,
		Width:  p.s.LineWidth,
	}
}

func (p pen) text(at geom.Point, s string) annotation.Shape {
	return annotation.Shape{
		Kind:     annotation.ShapeText,
		Points:   []geom.Point{at},
		Text:     s,
		Color:    p.s.TextColor,
		FontSize: p.s.TextSize,
	}
}

// arrow returns a filled arrowhead whose tip is at tip, pointing along dir.
func (p pen) arrow(tip, dir geom.Point) annotation.Shape {
	u := dir.Unit()
	size := p.s.ArrowSize
	base := tip.Sub(u.Scale(size))
	side := u.Perp().Scale(size / 2)
	return annotation.Shape{
		Kind:   annotation.ShapeArrowhead,
		Points: []geom.Point{tip, base.Add(side), base.Sub(side)},
		Color:  p.s.LineColor,
		Width:  p.s.LineWidth,
	}
}

// labelOffset places a label beside the segment ab, on the side of its
// left normal, clear of the line by half the text size.
func (p pen) labelOffset(a, b geom.Point) geom.Point {
	n := b.Sub(a).Unit().Perp()
	if n == (geom.Point{}) {
		n = geom.Pt(0, -1)
	}
	return geom.Midpoint(a, b).Add(n.Scale(p.s.TextSize / 2))
}

func (p pen) dimension(tool annotation.Tool, d *annotation.DimensionData) []annotation.Shape {
	dir := d.End.Sub(d.Start)
	shapes := []annotation.Shape{
		p.line(d.Start, d.End),
		p.arrow(d.Start, dir.Scale(-1)),
		p.arrow(d.End, dir),
	}
	label := geom.Format(d.Value, p.s.DimensionPrecision) + " " + d.Unit
	if tool == annotation.ToolDimAngular {
		ref := p.line(d.Start, d.Start.Add(geom.Pt(d.Distance, 0)))
		ref.Dashed = true
		shapes = append(shapes, ref)
		label = geom.Format(d.AngleDegrees, p.s.DimensionPrecision) + "°  " + label
	}
	return append(shapes, p.text(p.labelOffset(d.Start, d.End), label))
}

func (p pen) circle(tool annotation.Tool, c *annotation.CircleData) []annotation.Shape {
	// Radius lines are drawn at 45 degrees up-right of the center.
	dir := geom.Pt(math.Sqrt2/2, -math.Sqrt2/2)
	rim := c.Center.Add(dir.Scale(c.Radius))
	shapes := []annotation.Shape{{
		Kind:   annotation.ShapeCircle,
		Points: []geom.Point{c.Center},
		Radius: c.Radius,
		Color:  p.s.LineColor,
		Width:  p.s.LineWidth,
	}}
	value := geom.Format(c.Value, p.s.DimensionPrecision) + " " + c.Unit
	if tool == annotation.ToolDiameter {
		far := c.Center.Sub(dir.Scale(c.Radius))
		shapes = append(shapes,
			p.line(far, rim),
			p.arrow(rim, dir),
			p.arrow(far, dir.Scale(-1)),
			p.text(rim.Add(geom.Pt(p.s.ArrowSize/2, 0)), "Ø "+value),
		)
		return shapes
	}
	return append(shapes,
		p.line(c.Center, rim),
		p.arrow(rim, dir),
		p.text(rim.Add(geom.Pt(p.s.ArrowSize/2, 0)), "R "+value),
	)
}

func (p pen) leader(tool annotation.Tool, l *annotation.LeaderData) []annotation.Shape {
	shapes := []annotation.Shape{
		p.line(l.Tail, l.Anchor),
		p.arrow(l.Anchor, l.Anchor.Sub(l.Tail)),
	}
	textAt := l.Tail
	if tool == annotation.ToolMultiLeader {
		landing := l.Tail.Add(geom.Pt(geom.Distance(l.Anchor, l.Tail)/2, 0))
		shapes = append(shapes, p.line(l.Tail, landing))
		textAt = landing
	}
	if strings.TrimSpace(l.Text) != "" {
		shapes = append(shapes, p.text(textAt.Add(geom.Pt(p.s.TextSize/4, -p.s.TextSize/4)), l.Text))
	}
	return shapes
}

func (p pen) hatch(h *annotation.HatchData) []annotation.Shape {
	lo := h.Origin
	hi := h.Origin.Add(geom.Pt(h.Width, h.Height))
	shapes := []annotation.Shape{{
		Kind:   annotation.ShapePolyline,
		Points: []geom.Point{lo, geom.Pt(hi.X, lo.Y), hi, geom.Pt(lo.X, hi.Y)},
		Closed: true,
		Color:  p.s.LineColor,
		Width:  p.s.LineWidth,
	}}
	if h.Spacing <= 0 {
		return shapes
	}
	for i, y := 1, lo.Y+h.Spacing; y < hi.Y && i <= maxHatchLines; i, y = i+1, y+h.Spacing {
		shapes = append(shapes, p.line(geom.Pt(lo.X, y), geom.Pt(hi.X, y)))
	}
	for i, x := 1, lo.X+h.Spacing; x < hi.X && i <= maxHatchLines; i, x = i+1, x+h.Spacing {
		shapes = append(shapes, p.line(geom.Pt(x, lo.Y), geom.Pt(x, hi.Y)))
	}
	return shapes
}
