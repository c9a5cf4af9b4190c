package imaging

import (
	"image"
	"image/color"
	"strings"
	"testing"
)

// createQuadrantImage returns red, green, blue and white quadrants.
func createQuadrantImage(t *testing.T, width, height int) *image.RGBA {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			var c color.Color
			switch {
			case x < width/2 && y < height/2:
				c = color.RGBA{255, 0, 0, 255}
			case x >= width/2 && y < height/2:
				c = color.RGBA{0, 255, 0, 255}
			case x < width/2:
				c = color.RGBA{0, 0, 255, 255}
			default:
				c = color.RGBA{255, 255, 255, 255}
			}
			img.Set(x, y, c)
		}
	}
	return img
}

func TestCrop_VerifyContent(t *testing.T) {
	img := createQuadrantImage(t, 100, 100)

	cropped, err := Crop(img, 50, 0, 100, 50)
	if err != nil {
		t.Fatalf("Crop failed: %v", err)
	}
	if cropped.Bounds().Dx() != 50 || cropped.Bounds().Dy() != 50 {
		t.Errorf("size: got %v", cropped.Bounds())
	}
	r, g, b, _ := cropped.At(10, 10).RGBA()
	if r>>8 != 0 || g>>8 != 255 || b>>8 != 0 {
		t.Errorf("expected green, got (%d,%d,%d)", r>>8, g>>8, b>>8)
	}
}

func TestCrop_InvalidRegion(t *testing.T) {
	img := createQuadrantImage(t, 100, 100)
	tests := []struct {
		name           string
		x1, y1, x2, y2 int
	}{
		{"outside right", 50, 50, 150, 80},
		{"negative", -1, 0, 10, 10},
		{"empty width", 10, 10, 10, 20},
		{"reversed", 20, 20, 10, 10},
	}
	for _, tt := range tests {
		if _, err := Crop(img, tt.x1, tt.y1, tt.x2, tt.y2); err == nil {
			t.Errorf("%s: expected error", tt.name)
		}
	}
}

func TestCropClipped(t *testing.T) {
	img := createQuadrantImage(t, 40, 40)

	cropped, origin, ok := CropClipped(img, image.Rect(30, 30, 60, 60))
	if !ok {
		t.Fatal("CropClipped reported empty intersection")
	}
	if origin != image.Pt(30, 30) {
		t.Errorf("origin: got %v", origin)
	}
	if cropped.Bounds().Dx() != 10 {
		t.Errorf("width: got %d, want 10", cropped.Bounds().Dx())
	}

	if _, _, ok := CropClipped(img, image.Rect(100, 100, 120, 120)); ok {
		t.Error("expected empty intersection")
	}
}

func TestThumbnail(t *testing.T) {
	img := createQuadrantImage(t, 400, 200)

	small := Thumbnail(img, 100)
	if small.Bounds().Dx() != 100 || small.Bounds().Dy() != 50 {
		t.Errorf("thumbnail size: got %v, want 100x50", small.Bounds())
	}
	if same := Thumbnail(img, 1000); same != image.Image(img) {
		t.Error("image within limit should be returned unchanged")
	}
}

func TestEncodeDecodeDataURL(t *testing.T) {
	img := createQuadrantImage(t, 20, 20)

	url, err := EncodeDataURL(img, "png", 0)
	if err != nil {
		t.Fatalf("EncodeDataURL failed: %v", err)
	}
	if !strings.HasPrefix(url, "data:image/png;base64,") {
		t.Errorf("unexpected prefix: %.30s", url)
	}
	back, err := DecodeDataURL(url)
	if err != nil {
		t.Fatalf("DecodeDataURL failed: %v", err)
	}
	r, _, _, _ := back.At(2, 2).RGBA()
	if r>>8 != 255 {
		t.Errorf("round trip lost red quadrant: r=%d", r>>8)
	}

	jpg, err := EncodeDataURL(img, "jpg", 80)
	if err != nil {
		t.Fatalf("EncodeDataURL jpg failed: %v", err)
	}
	if !strings.HasPrefix(jpg, "data:image/jpeg;base64,") {
		t.Errorf("unexpected prefix: %.30s", jpg)
	}

	if _, err := EncodeDataURL(img, "webp", 80); err == nil {
		t.Error("expected error for unsupported format")
	}
	if _, err := DecodeDataURL("http://example.com/a.png"); err == nil {
		t.Error("expected error for non data URL")
	}
}
