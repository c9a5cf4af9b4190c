package export

import (
	"fmt"
	"image"
	"image/color"
	"io"
	"strings"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/ironsheep/micro-annotate-mcp/internal/annotation"
)

var (
	fontOnce sync.Once
	fontData *truetype.Font
	fontErr  error
)

func labelFont() (*truetype.Font, error) {
	fontOnce.Do(func() {
		fontData, fontErr = truetype.Parse(goregular.TTF)
	})
	return fontData, fontErr
}

// Rasterize draws the scene into a new RGBA image.
func Rasterize(s Scene) (image.Image, error) {
	f, err := labelFont()
	if err != nil {
		return nil, fmt.Errorf("failed to parse font: %w", err)
	}

	var dc *gg.Context
	if s.Background != nil {
		dc = gg.NewContextForImage(s.Background)
	} else {
		dc = gg.NewContext(s.size())
		dc.SetColor(color.White)
		dc.Clear()
	}

	faces := map[float64]font.Face{}
	for _, sh := range s.Shapes {
		drawShape(dc, sh, func(size float64) font.Face {
			if face, ok := faces[size]; ok {
				return face
			}
			face := truetype.NewFace(f, &truetype.Options{Size: size, DPI: 72, Hinting: font.HintingFull})
			faces[size] = face
			return face
		})
	}
	return dc.Image(), nil
}

func drawShape(dc *gg.Context, sh annotation.Shape, face func(float64) font.Face) {
	if len(sh.Points) == 0 {
		return
	}
	dc.SetColor(parseColor(sh.Color))
	dc.SetLineWidth(strokeWidth(sh.Width))
	if sh.Dashed {
		dc.SetDash(6, 4)
		defer dc.SetDash()
	}

	switch sh.Kind {
	case annotation.ShapeLine, annotation.ShapePolyline:
		dc.MoveTo(sh.Points[0].X, sh.Points[0].Y)
		for _, p := range sh.Points[1:] {
			dc.LineTo(p.X, p.Y)
		}
		if sh.Closed {
			dc.ClosePath()
		}
		dc.Stroke()
	case annotation.ShapeCircle:
		dc.DrawCircle(sh.Points[0].X, sh.Points[0].Y, absf(sh.Radius))
		dc.Stroke()
	case annotation.ShapeArrowhead:
		dc.MoveTo(sh.Points[0].X, sh.Points[0].Y)
		for _, p := range sh.Points[1:] {
			dc.LineTo(p.X, p.Y)
		}
		dc.ClosePath()
		dc.Fill()
	case annotation.ShapeText:
		size := absf(sh.FontSize)
		if size == 0 {
			return
		}
		dc.SetFontFace(face(size))
		for i, line := range strings.Split(sh.Text, "\n") {
			dc.DrawString(line, sh.Points[0].X, sh.Points[0].Y+float64(i)*size*1.2)
		}
	}
}

// WritePNG rasterizes the scene as PNG.
func WritePNG(w io.Writer, s Scene) error {
	img, err := Rasterize(s)
	if err != nil {
		return err
	}
	if err := imaging.Encode(w, img, imaging.PNG); err != nil {
		return fmt.Errorf("failed to encode png: %w", err)
	}
	return nil
}

// WriteJPEG rasterizes the scene as JPEG. quality is in [0,1]; zero uses 0.92.
func WriteJPEG(w io.Writer, s Scene, quality float64) error {
	img, err := Rasterize(s)
	if err != nil {
		return err
	}
	if err := imaging.Encode(w, img, imaging.JPEG, imaging.JPEGQuality(jpegQuality(quality))); err != nil {
		return fmt.Errorf("failed to encode jpeg: %w", err)
	}
	return nil
}

func jpegQuality(q float64) int {
	if q <= 0 {
		return 92
	}
	v := int(q*100 + 0.5)
	if v < 1 {
		v = 1
	}
	if v > 100 {
		v = 100
	}
	return v
}

// parseColor reads a #rrggbb shape color; anything unparsable draws black.
func parseColor(hex string) color.Color {
	c, err := colorful.Hex(hex)
	if err != nil {
		return color.Black
	}
	return c.Clamped()
}

func strokeWidth(w float64) float64 {
	w = absf(w)
	if w == 0 {
		return 1
	}
	return w
}

func absf(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
