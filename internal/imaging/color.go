package imaging

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// RGBColor represents a color in the RGB color space with 8-bit components.
type RGBColor struct {
	R uint8 `json:"r"` // Red component (0-255)
	G uint8 `json:"g"` // Green component (0-255)
	B uint8 `json:"b"` // Blue component (0-255)
}

// HSLColor represents a color in the HSL (Hue, Saturation, Lightness) space.
type HSLColor struct {
	H int `json:"h"` // Hue: 0-360 degrees (0=red, 120=green, 240=blue)
	S int `json:"s"` // Saturation: 0-100 percent (0=gray, 100=vivid)
	L int `json:"l"` // Lightness: 0-100 percent (0=black, 50=normal, 100=white)
}

// ColorResult contains a sampled color in several representations.
//
// Hex is lower-case "#rrggbb", the same form the style registry stores, so a
// sampled color can be written straight into textColor or lineColor.
type ColorResult struct {
	Hex     string   `json:"hex"`
	RGB     RGBColor `json:"rgb"`
	Alpha   uint8    `json:"alpha"`
	HSL     HSLColor `json:"hsl"`
	Samples int      `json:"samples"`
}

// SampleColor returns the color of a single pixel.
//
// Parameters:
//   - img: Source image.
//   - x, y: Pixel coordinates (0-based, top-left origin).
//
// Returns:
//   - *ColorResult: The pixel color.
//   - error: Non-nil if the coordinates are outside the image bounds.
func SampleColor(img image.Image, x, y int) (*ColorResult, error) {
	return SampleAverage(img, x, y, 0)
}

// SampleAverage returns the mean color of the square of the given radius
// around (x, y), clipped to the image. Radius 0 samples a single pixel.
// Averaging is done in linear RGB so that mixed neighborhoods keep their
// perceived brightness.
func SampleAverage(img image.Image, x, y, radius int) (*ColorResult, error) {
	bounds := img.Bounds()
	if x < bounds.Min.X || x >= bounds.Max.X || y < bounds.Min.Y || y >= bounds.Max.Y {
		return nil, fmt.Errorf("coordinates (%d,%d) outside image bounds", x, y)
	}
	if radius < 0 {
		radius = 0
	}
	area := image.Rect(x-radius, y-radius, x+radius+1, y+radius+1).Intersect(bounds)

	var lr, lg, lb, alpha float64
	n := 0
	for py := area.Min.Y; py < area.Max.Y; py++ {
		for px := area.Min.X; px < area.Max.X; px++ {
			nc := color.NRGBAModel.Convert(img.At(px, py)).(color.NRGBA)
			c := colorful.Color{R: float64(nc.R) / 255, G: float64(nc.G) / 255, B: float64(nc.B) / 255}
			r, g, b := c.LinearRgb()
			lr, lg, lb = lr+r, lg+g, lb+b
			alpha += float64(nc.A)
			n++
		}
	}
	f := float64(n)
	avg := colorful.LinearRgb(lr/f, lg/f, lb/f).Clamped()
	r8, g8, b8 := avg.RGB255()
	h, s, l := avg.Hsl()

	return &ColorResult{
		Hex:     avg.Hex(),
		RGB:     RGBColor{R: r8, G: g8, B: b8},
		Alpha:   uint8(math.Round(alpha / f)),
		HSL:     HSLColor{H: int(math.Round(h)) % 360, S: int(math.Round(s * 100)), L: int(math.Round(l * 100))},
		Samples: n,
	}, nil
}
