package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"strings"

	"github.com/disintegration/imaging"
)

// Crop extracts a rectangular region from an image. The region must lie
// within the image bounds with x1 < x2 and y1 < y2.
func Crop(img image.Image, x1, y1, x2, y2 int) (image.Image, error) {
	bounds := img.Bounds()

	if x1 < bounds.Min.X || y1 < bounds.Min.Y || x2 > bounds.Max.X || y2 > bounds.Max.Y {
		return nil, fmt.Errorf("crop region (%d,%d)-(%d,%d) outside image bounds (%d,%d)-(%d,%d)",
			x1, y1, x2, y2, bounds.Min.X, bounds.Min.Y, bounds.Max.X, bounds.Max.Y)
	}
	if x1 >= x2 || y1 >= y2 {
		return nil, fmt.Errorf("invalid crop region: x1 must be < x2, y1 must be < y2")
	}

	return imaging.Crop(img, image.Rect(x1, y1, x2, y2)), nil
}

// CropClipped crops the intersection of r with the image. It returns false
// when the intersection is empty.
func CropClipped(img image.Image, r image.Rectangle) (image.Image, image.Point, bool) {
	r = r.Intersect(img.Bounds())
	if r.Empty() {
		return nil, image.Point{}, false
	}
	return imaging.Crop(img, r), r.Min, true
}

// Thumbnail scales img down so neither side exceeds maxDim, keeping the
// aspect ratio. Images already within the limit are returned unchanged.
func Thumbnail(img image.Image, maxDim int) image.Image {
	b := img.Bounds()
	if maxDim <= 0 || (b.Dx() <= maxDim && b.Dy() <= maxDim) {
		return img
	}
	return imaging.Fit(img, maxDim, maxDim, imaging.Lanczos)
}

// EncodeDataURL encodes img as a data URL. format is "png" or "jpeg"/"jpg";
// quality (1-100) applies to JPEG only.
func EncodeDataURL(img image.Image, format string, quality int) (string, error) {
	var (
		f    imaging.Format
		mime string
	)
	switch strings.ToLower(format) {
	case "png":
		f, mime = imaging.PNG, "image/png"
	case "jpg", "jpeg":
		f, mime = imaging.JPEG, "image/jpeg"
	default:
		return "", fmt.Errorf("unsupported data URL format %q", format)
	}
	if quality < 1 || quality > 100 {
		quality = 95
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, f, imaging.JPEGQuality(quality)); err != nil {
		return "", fmt.Errorf("failed to encode %s: %w", format, err)
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// DecodeDataURL decodes a base64 image data URL.
func DecodeDataURL(url string) (image.Image, error) {
	head, payload, ok := strings.Cut(url, ",")
	if !ok || !strings.HasPrefix(head, "data:image/") || !strings.HasSuffix(head, ";base64") {
		return nil, fmt.Errorf("not a base64 image data URL")
	}
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to decode data URL: %w", err)
	}
	img, err := imaging.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}
