package imaging

import (
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

// createTestImage writes a solid PNG into the test's temp dir and returns its path.
func createTestImage(t *testing.T, width, height int, c color.Color) string {
	t.Helper()
	return writeImage(t, "test-image.png", solidImage(width, height, c), png.Encode)
}

func solidImage(width, height int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func writeImage(t *testing.T, name string, img image.Image, encode func(io.Writer, image.Image) error) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create file: %v", err)
	}
	defer f.Close()
	if err := encode(f, img); err != nil {
		t.Fatalf("failed to encode image: %v", err)
	}
	return path
}

func TestImageCache_Load(t *testing.T) {
	cache := NewImageCache()
	imgPath := createTestImage(t, 100, 100, color.RGBA{255, 0, 0, 255})

	img1, err := cache.Load(imgPath)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	bounds := img1.Bounds()
	if bounds.Dx() != 100 || bounds.Dy() != 100 {
		t.Errorf("unexpected dimensions: got %dx%d, want 100x100", bounds.Dx(), bounds.Dy())
	}

	img2, err := cache.Load(imgPath)
	if err != nil {
		t.Fatalf("second Load failed: %v", err)
	}
	if img1 != img2 {
		t.Error("second Load did not return cached image")
	}
}

func TestImageCache_Load_MicroscopeFormats(t *testing.T) {
	src := solidImage(12, 8, color.RGBA{10, 200, 30, 255})
	tests := []struct {
		name   string
		encode func(io.Writer, image.Image) error
	}{
		{"slide.tif", func(w io.Writer, img image.Image) error { return tiff.Encode(w, img, nil) }},
		{"slide.bmp", bmp.Encode},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeImage(t, tt.name, src, tt.encode)
			img, err := NewImageCache().Load(path)
			if err != nil {
				t.Fatalf("Load failed: %v", err)
			}
			if img.Bounds().Dx() != 12 || img.Bounds().Dy() != 8 {
				t.Errorf("unexpected dimensions: %v", img.Bounds())
			}
		})
	}
}

func TestImageCache_Load_NonExistent(t *testing.T) {
	_, err := NewImageCache().Load("/nonexistent/path/to/image.png")
	if err == nil {
		t.Fatal("Load should fail for non-existent file")
	}
	if !strings.Contains(err.Error(), "failed to open image") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestImageCache_Load_InvalidImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "invalid.png")
	if err := os.WriteFile(path, []byte("not an image"), 0o644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	_, err := NewImageCache().Load(path)
	if err == nil {
		t.Fatal("Load should fail for invalid image data")
	}
	if !strings.Contains(err.Error(), "failed to decode image") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestImageCache_ClearAndEvict(t *testing.T) {
	cache := NewImageCache()
	a := createTestImage(t, 5, 5, color.White)
	b := writeImage(t, "other.png", solidImage(5, 5, color.Black), png.Encode)

	for _, p := range []string{a, b} {
		if _, err := cache.Load(p); err != nil {
			t.Fatalf("Load failed: %v", err)
		}
	}
	cache.Evict(a)
	if cache.Len() != 1 {
		t.Errorf("Evict: got %d cached, want 1", cache.Len())
	}
	cache.Evict("/nonexistent/path")
	cache.Clear()
	if cache.Len() != 0 {
		t.Errorf("Clear did not empty cache: %d images remain", cache.Len())
	}
}

func TestImageCache_ConcurrentAccess(t *testing.T) {
	cache := NewImageCache()
	imgPath := createTestImage(t, 50, 50, color.RGBA{128, 128, 128, 255})

	var wg sync.WaitGroup
	errs := make(chan error, 100)
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := cache.Load(imgPath); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("concurrent Load error: %v", err)
	}
}

func TestLoadImageInfo(t *testing.T) {
	imgPath := createTestImage(t, 200, 150, color.RGBA{255, 128, 64, 255})

	info, err := LoadImageInfo(NewImageCache(), imgPath)
	if err != nil {
		t.Fatalf("LoadImageInfo failed: %v", err)
	}
	if info.Width != 200 || info.Height != 150 {
		t.Errorf("size: got %dx%d, want 200x150", info.Width, info.Height)
	}
	if info.Format != "png" {
		t.Errorf("Format: got %s, want png", info.Format)
	}
	if info.Path != imgPath {
		t.Errorf("Path: got %s", info.Path)
	}
	if info.FileSizeBytes <= 0 {
		t.Error("FileSizeBytes should be positive")
	}
}

func TestFormatFromPath(t *testing.T) {
	tests := []struct {
		path   string
		format string
	}{
		{"a.png", "png"},
		{"a.JPG", "jpeg"},
		{"a.jpeg", "jpeg"},
		{"a.gif", "gif"},
		{"a.tif", "tiff"},
		{"a.TIFF", "tiff"},
		{"a.bmp", "bmp"},
		{"a.xyz", "unknown"},
	}
	for _, tt := range tests {
		if got := FormatFromPath(tt.path); got != tt.format {
			t.Errorf("FormatFromPath(%q) = %s, want %s", tt.path, got, tt.format)
		}
	}
}

func TestLoadImageInfo_NonExistent(t *testing.T) {
	if _, err := LoadImageInfo(NewImageCache(), "/nonexistent/image.png"); err == nil {
		t.Error("LoadImageInfo should fail for non-existent file")
	}
}
