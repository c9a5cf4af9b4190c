package ocr

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"

	"github.com/disintegration/imaging"
	"github.com/otiai10/gosseract/v2"

	"github.com/ironsheep/micro-annotate-mcp/internal/calibration"
)

// ErrEmptyRegion is returned when an OCR region does not overlap the image.
var ErrEmptyRegion = errors.New("region does not overlap the image")

// labelScale is the upscale factor applied to label crops. Scale-bar labels
// are usually 10-20 px tall, below what Tesseract reads reliably.
const labelScale = 3

// Bounds represents a rectangular bounding box in pixel coordinates.
type Bounds struct {
	X1 int `json:"x1"` // Left edge
	Y1 int `json:"y1"` // Top edge
	X2 int `json:"x2"` // Right edge
	Y2 int `json:"y2"` // Bottom edge
}

// TextRegion represents a word with its location and OCR confidence.
type TextRegion struct {
	// Text is the recognized text content.
	Text string `json:"text"`

	// Confidence is the OCR confidence score (0.0 to 1.0).
	Confidence float64 `json:"confidence"`

	// Bounds is the bounding box around this text in the source image.
	Bounds Bounds `json:"bounds"`
}

// OCRResult contains the complete results of text extraction from an image.
type OCRResult struct {
	// FullText is all recognized text as a single string with original spacing/newlines.
	FullText string `json:"full_text"`

	// Regions contains individual words with their bounding boxes and confidence scores.
	// May be empty if bounding box extraction fails (text will still be in FullText).
	Regions []TextRegion `json:"regions"`
}

// ScaleLabel is the length printed next to a microscope scale bar.
type ScaleLabel struct {
	Text   string  `json:"text"`
	Length float64 `json:"length"`
	Unit   string  `json:"unit"`
}

// ExtractText performs OCR on an entire image file and returns recognized text.
//
// Parameters:
//   - imagePath: Absolute path to the image file. Supports PNG, JPEG, TIFF, BMP.
//   - language: Tesseract language code (e.g., "eng"). The corresponding
//     language data must be installed on the system.
//
// If word-level bounding box extraction fails the full text is still
// returned, with an empty Regions slice.
func ExtractText(imagePath string, language string) (*OCRResult, error) {
	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(language); err != nil {
		return nil, fmt.Errorf("failed to set language: %w", err)
	}
	if err := client.SetImage(imagePath); err != nil {
		return nil, fmt.Errorf("failed to set image: %w", err)
	}
	return recognize(client)
}

// ExtractTextFromRegion performs OCR on a rectangular region of an in-memory
// image. Region bounds are clipped to the image; returned word bounds are in
// source image coordinates.
func ExtractTextFromRegion(img image.Image, region image.Rectangle, language string) (*OCRResult, error) {
	region = region.Canon().Intersect(img.Bounds())
	if region.Empty() {
		return nil, ErrEmptyRegion
	}
	return extract(imaging.Crop(img, region), region.Min, 1, language, gosseract.PSM_AUTO)
}

// ReadScaleLabel reads the length printed in region, typically the text
// beside or beneath a scale bar, and parses it into a number and a unit.
//
// The crop is converted to grayscale, upscaled and, when the label is light
// on a dark background, inverted before recognition.
func ReadScaleLabel(img image.Image, region image.Rectangle, language string) (*ScaleLabel, error) {
	region = region.Canon().Intersect(img.Bounds())
	if region.Empty() {
		return nil, ErrEmptyRegion
	}
	res, err := extract(prepareLabel(imaging.Crop(img, region)), region.Min, labelScale, language, gosseract.PSM_SINGLE_LINE)
	if err != nil {
		return nil, err
	}
	length, unit, err := calibration.ParseScaleLabel(res.FullText)
	if err != nil {
		return nil, err
	}
	return &ScaleLabel{Text: res.FullText, Length: length, Unit: unit}, nil
}

// prepareLabel normalizes a label crop to dark text on a light background at
// labelScale times its size.
func prepareLabel(img image.Image) *image.NRGBA {
	gray := imaging.Grayscale(img)
	if meanLuma(gray) < 128 {
		gray = imaging.Invert(gray)
	}
	b := gray.Bounds()
	return imaging.Resize(gray, b.Dx()*labelScale, b.Dy()*labelScale, imaging.Lanczos)
}

func meanLuma(img *image.NRGBA) float64 {
	b := img.Bounds()
	n := b.Dx() * b.Dy()
	if n == 0 {
		return 255
	}
	var sum int
	for y := 0; y < b.Dy(); y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+b.Dx()*4]
		for x := 0; x < len(row); x += 4 {
			sum += int(row[x])
		}
	}
	return float64(sum) / float64(n)
}

// extract runs Tesseract over img, which was cut from offset in the source
// image and then scaled by scale.
func extract(img image.Image, offset image.Point, scale int, language string, mode gosseract.PageSegMode) (*OCRResult, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(language); err != nil {
		return nil, fmt.Errorf("failed to set language: %w", err)
	}
	if err := client.SetPageSegMode(mode); err != nil {
		return nil, fmt.Errorf("failed to set page segmentation mode: %w", err)
	}
	if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
		return nil, fmt.Errorf("failed to set image: %w", err)
	}

	result, err := recognize(client)
	if err != nil {
		return nil, err
	}
	for i := range result.Regions {
		result.Regions[i].Bounds = toSource(result.Regions[i].Bounds, offset, scale)
	}
	return result, nil
}

func recognize(client *gosseract.Client) (*OCRResult, error) {
	text, err := client.Text()
	if err != nil {
		return nil, fmt.Errorf("OCR failed: %w", err)
	}

	boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return &OCRResult{FullText: text, Regions: []TextRegion{}}, nil
	}

	regions := make([]TextRegion, 0, len(boxes))
	for _, box := range boxes {
		if box.Word == "" {
			continue
		}
		regions = append(regions, TextRegion{
			Text:       box.Word,
			Confidence: float64(box.Confidence) / 100.0,
			Bounds: Bounds{
				X1: box.Box.Min.X,
				Y1: box.Box.Min.Y,
				X2: box.Box.Max.X,
				Y2: box.Box.Max.Y,
			},
		})
	}
	return &OCRResult{FullText: text, Regions: regions}, nil
}

// toSource maps bounds found in a scaled crop back to the source image.
func toSource(b Bounds, offset image.Point, scale int) Bounds {
	if scale < 1 {
		scale = 1
	}
	return Bounds{
		X1: b.X1/scale + offset.X,
		Y1: b.Y1/scale + offset.Y,
		X2: (b.X2+scale-1)/scale + offset.X,
		Y2: (b.Y2+scale-1)/scale + offset.Y,
	}
}
