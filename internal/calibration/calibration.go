// Package calibration converts canvas pixels to physical units.
//
// A calibration is derived from a reference of known physical length spanning
// a measured number of pixels, typically a microscope scale bar:
//
//	pixel_size = known_distance / pixel_count
//
// Dimension and radius labels multiply their pixel measurements by the active
// pixel size and print the calibration unit.
package calibration

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/ironsheep/micro-annotate-mcp/internal/geom"
)

// ErrInvalidReference is returned when a reference length or pixel count is not positive.
var ErrInvalidReference = errors.New("invalid calibration reference")

// PixelUnit is the unit of an uncalibrated measurement.
const PixelUnit = "px"

// DefaultUnit is used when a reference is given without a unit.
const DefaultUnit = "µm"

// Calibration maps pixels to a physical unit.
type Calibration struct {
	PixelSize     float64   `json:"pixelSize"`
	Unit          string    `json:"unit"`
	Magnification float64   `json:"magnification,omitempty"`
	KnownDistance float64   `json:"knownDistance,omitempty"`
	PixelCount    float64   `json:"pixelCount,omitempty"`
	CreatedAt     time.Time `json:"createdAt,omitempty"`
}

// Identity returns the uncalibrated mapping: one pixel per pixel.
func Identity() Calibration {
	return Calibration{PixelSize: 1, Unit: PixelUnit}
}

// FromReference builds a calibration from a reference of knownDistance units
// spanning pixelCount pixels.
func FromReference(knownDistance, pixelCount float64, unit string, magnification float64) (Calibration, error) {
	if knownDistance <= 0 {
		return Calibration{}, fmt.Errorf("%w: known distance must be positive, got %v", ErrInvalidReference, knownDistance)
	}
	if pixelCount <= 0 {
		return Calibration{}, fmt.Errorf("%w: pixel count must be positive, got %v", ErrInvalidReference, pixelCount)
	}
	unit = strings.TrimSpace(unit)
	if unit == "" {
		unit = DefaultUnit
	}
	return Calibration{
		PixelSize:     knownDistance / pixelCount,
		Unit:          unit,
		Magnification: magnification,
		KnownDistance: knownDistance,
		PixelCount:    pixelCount,
		CreatedAt:     time.Now().UTC(),
	}, nil
}

// Convert returns px expressed in the calibration unit. A zero calibration
// behaves like Identity.
func (c Calibration) Convert(px float64) float64 {
	if c.PixelSize == 0 {
		return px
	}
	return px * c.PixelSize
}

// UnitName returns the unit, defaulting to pixels.
func (c Calibration) UnitName() string {
	if c.Unit == "" {
		return PixelUnit
	}
	return c.Unit
}

// Label formats px as "<value> <unit>" with precision decimal places.
func (c Calibration) Label(px float64, precision int) string {
	return geom.Format(c.Convert(px), precision) + " " + c.UnitName()
}

// scaleLabelPattern matches labels such as "50 µm", "100um", "0.5 mm" or "200 nm".
var scaleLabelPattern = regexp.MustCompile(`(?i)(\d+(?:[.,]\d+)?)\s*(µm|μm|um|nm|mm|microns?)`)

// ParseScaleLabel extracts the length and unit printed on a scale bar. Unit
// spellings are canonicalized to "µm", "nm" or "mm".
func ParseScaleLabel(text string) (float64, string, error) {
	m := scaleLabelPattern.FindStringSubmatch(text)
	if m == nil {
		return 0, "", fmt.Errorf("no scale length found in %q", strings.TrimSpace(text))
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", "."), 64)
	if err != nil {
		return 0, "", fmt.Errorf("invalid scale length %q: %w", m[1], err)
	}
	unit := strings.ToLower(m[2])
	switch unit {
	case "nm", "mm":
	default:
		unit = "µm"
	}
	return v, unit, nil
}
