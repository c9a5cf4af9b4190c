package export

import (
	"fmt"
	"io"
	"math"
	"strings"

	svg "github.com/ajstarks/svgo"

	"github.com/ironsheep/micro-annotate-mcp/internal/annotation"
	"github.com/ironsheep/micro-annotate-mcp/internal/imaging"
)

// WriteSVG writes the scene as SVG. The background is embedded as a PNG
// data URL so the file is self-contained.
func WriteSVG(w io.Writer, s Scene) error {
	width, height := s.size()
	canvas := svg.New(w)
	canvas.Start(width, height)

	if s.Background != nil {
		href, err := imaging.EncodeDataURL(s.Background, "png", 0)
		if err != nil {
			return fmt.Errorf("failed to embed background: %w", err)
		}
		canvas.Image(0, 0, width, height, href)
	}

	for _, sh := range s.Shapes {
		drawSVGShape(canvas, sh)
	}
	canvas.End()
	return nil
}

func drawSVGShape(canvas *svg.SVG, sh annotation.Shape) {
	if len(sh.Points) == 0 {
		return
	}
	switch sh.Kind {
	case annotation.ShapeLine:
		if len(sh.Points) < 2 {
			return
		}
		a, b := sh.Points[0], sh.Points[1]
		canvas.Line(round(a.X), round(a.Y), round(b.X), round(b.Y), strokeStyle(sh))
	case annotation.ShapePolyline:
		xs, ys := coords(sh)
		if sh.Closed {
			canvas.Polygon(xs, ys, strokeStyle(sh))
		} else {
			canvas.Polyline(xs, ys, strokeStyle(sh))
		}
	case annotation.ShapeCircle:
		c := sh.Points[0]
		canvas.Circle(round(c.X), round(c.Y), round(math.Abs(sh.Radius)), strokeStyle(sh))
	case annotation.ShapeArrowhead:
		xs, ys := coords(sh)
		canvas.Polygon(xs, ys, "fill:"+sh.Color+";stroke:none")
	case annotation.ShapeText:
		size := math.Abs(sh.FontSize)
		style := fmt.Sprintf("fill:%s;font-size:%gpx;font-family:sans-serif", sh.Color, size)
		at := sh.Points[0]
		for i, line := range strings.Split(sh.Text, "\n") {
			canvas.Text(round(at.X), round(at.Y+float64(i)*size*1.2), line, style)
		}
	}
}

func strokeStyle(sh annotation.Shape) string {
	style := fmt.Sprintf("fill:none;stroke:%s;stroke-width:%g", sh.Color, strokeWidth(sh.Width))
	if sh.Dashed {
		style += ";stroke-dasharray:6,4"
	}
	return style
}

func coords(sh annotation.Shape) ([]int, []int) {
	xs := make([]int, len(sh.Points))
	ys := make([]int, len(sh.Points))
	for i, p := range sh.Points {
		xs[i], ys[i] = round(p.X), round(p.Y)
	}
	return xs, ys
}

func round(v float64) int {
	return int(math.Round(v))
}
