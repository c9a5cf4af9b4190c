package imaging

import (
	"image"
	"image/color"
	"testing"
)

func TestSampleColor_KnownColors(t *testing.T) {
	tests := []struct {
		name string
		c    color.RGBA
		hex  string
		hsl  HSLColor
	}{
		{"red", color.RGBA{255, 0, 0, 255}, "#ff0000", HSLColor{0, 100, 50}},
		{"green", color.RGBA{0, 255, 0, 255}, "#00ff00", HSLColor{120, 100, 50}},
		{"blue", color.RGBA{0, 0, 255, 255}, "#0000ff", HSLColor{240, 100, 50}},
		{"white", color.RGBA{255, 255, 255, 255}, "#ffffff", HSLColor{0, 0, 100}},
		{"black", color.RGBA{0, 0, 0, 255}, "#000000", HSLColor{0, 0, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SampleColor(solidImage(3, 3, tt.c), 1, 1)
			if err != nil {
				t.Fatalf("SampleColor failed: %v", err)
			}
			if got.Hex != tt.hex {
				t.Errorf("Hex: got %s, want %s", got.Hex, tt.hex)
			}
			if got.RGB != (RGBColor{tt.c.R, tt.c.G, tt.c.B}) {
				t.Errorf("RGB: got %+v", got.RGB)
			}
			if got.HSL != tt.hsl {
				t.Errorf("HSL: got %+v, want %+v", got.HSL, tt.hsl)
			}
			if got.Alpha != 255 || got.Samples != 1 {
				t.Errorf("Alpha/Samples: got %d/%d", got.Alpha, got.Samples)
			}
		})
	}
}

func TestSampleColor_OutOfBounds(t *testing.T) {
	img := solidImage(10, 10, color.White)
	for _, p := range []image.Point{{-1, 0}, {0, -1}, {10, 0}, {0, 10}} {
		if _, err := SampleColor(img, p.X, p.Y); err == nil {
			t.Errorf("SampleColor(%d,%d) should fail", p.X, p.Y)
		}
	}
}

func TestSampleAverage_ClipsToBounds(t *testing.T) {
	img := solidImage(4, 4, color.RGBA{0, 0, 255, 255})

	got, err := SampleAverage(img, 0, 0, 2)
	if err != nil {
		t.Fatalf("SampleAverage failed: %v", err)
	}
	if got.Samples != 9 {
		t.Errorf("Samples: got %d, want 9", got.Samples)
	}
	if got.Hex != "#0000ff" {
		t.Errorf("Hex: got %s, want #0000ff", got.Hex)
	}
}

func TestSampleAverage_MixesInLinearLight(t *testing.T) {
	img := solidImage(2, 1, color.RGBA{0, 0, 0, 255})
	img.Set(1, 0, color.RGBA{255, 255, 255, 255})

	got, err := SampleAverage(img, 0, 0, 1)
	if err != nil {
		t.Fatalf("SampleAverage failed: %v", err)
	}
	// Half-intensity linear light is about 188 in sRGB, brighter than 128.
	if got.RGB.R < 180 || got.RGB.R > 195 {
		t.Errorf("R: got %d, want about 188", got.RGB.R)
	}
}
