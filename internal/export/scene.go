package export

import (
	"image"

	"github.com/ironsheep/micro-annotate-mcp/internal/annotation"
	"github.com/ironsheep/micro-annotate-mcp/internal/factory"
	"github.com/ironsheep/micro-annotate-mcp/internal/store"
)

// Scene is everything drawn into an exported file. Shapes are drawn in
// order over the background.
type Scene struct {
	Background image.Image
	Width      int
	Height     int
	Shapes     []annotation.Shape
}

// NewScene builds the scene for a payload. Each annotation is drawn with
// its own style snapshot. Without a background the scene is width x height.
func NewScene(p store.Payload, background image.Image, width, height int) Scene {
	s := Scene{Background: background, Width: width, Height: height}
	if background != nil {
		b := background.Bounds()
		s.Width, s.Height = b.Dx(), b.Dy()
	}
	for _, rec := range p.Annotations {
		s.Shapes = append(s.Shapes, factory.Shapes(rec)...)
	}
	return s
}

func (s Scene) size() (int, int) {
	w, h := s.Width, s.Height
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return w, h
}
