package document

import (
	"fmt"
	"image"

	"github.com/ironsheep/micro-annotate-mcp/internal/calibration"
	"github.com/ironsheep/micro-annotate-mcp/internal/geom"
	"github.com/ironsheep/micro-annotate-mcp/internal/ocr"
)

// ScaleBarResult is a calibration read from a scale bar.
type ScaleBarResult struct {
	Calibration calibration.Calibration `json:"calibration"`
	Label       *ocr.ScaleLabel         `json:"label"`
	BarPixels   float64                 `json:"barPixels"`
}

// Calibration returns the active calibration.
func (d *Document) Calibration() calibration.Calibration {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cal
}

// Calibrate sets the calibration from a reference of knownDistance units
// spanning pixelCount pixels. Annotations already placed keep the
// measurements they were built with.
func (d *Document) Calibrate(knownDistance, pixelCount float64, unit string, magnification float64) (calibration.Calibration, error) {
	c, err := calibration.FromReference(knownDistance, pixelCount, unit, magnification)
	if err != nil {
		return d.Calibration(), err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.setCalibration(c, true)
	return c, nil
}

// RestoreCalibration makes c active without persisting it again.
func (d *Document) RestoreCalibration(c calibration.Calibration) error {
	if c.PixelSize <= 0 {
		return fmt.Errorf("%w: pixel size must be positive, got %v", calibration.ErrInvalidReference, c.PixelSize)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.setCalibration(c, false)
	return nil
}

// ResetCalibration returns to uncalibrated pixel measurements.
func (d *Document) ResetCalibration() calibration.Calibration {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.setCalibration(calibration.Identity(), false)
	return d.cal
}

// CalibrateFromScaleBar measures the scale bar from start to end and reads
// its length from the label region of the background with OCR.
func (d *Document) CalibrateFromScaleBar(start, end geom.Point, label image.Rectangle, magnification float64) (ScaleBarResult, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	bg := d.surface.Background()
	if bg == nil {
		return ScaleBarResult{}, ErrNoBackground
	}
	px := geom.Distance(start, end)
	if px <= 0 {
		return ScaleBarResult{}, fmt.Errorf("%w: scale bar endpoints coincide", calibration.ErrInvalidReference)
	}
	text, err := d.readLabel(bg, label, d.opts.OCRLanguage)
	if err != nil {
		return ScaleBarResult{}, fmt.Errorf("failed to read scale label: %w", err)
	}
	c, err := calibration.FromReference(text.Length, px, text.Unit, magnification)
	if err != nil {
		return ScaleBarResult{}, err
	}
	d.setCalibration(c, true)
	d.log.Info("calibrated from scale bar", "label", text.Text, "pixels", px, "pixel_size", c.PixelSize, "unit", c.Unit)
	return ScaleBarResult{Calibration: c, Label: text, BarPixels: px}, nil
}

func (d *Document) setCalibration(c calibration.Calibration, persist bool) {
	d.cal = c
	if !persist || d.calibrations == nil {
		return
	}
	if err := d.calibrations.SaveCalibration(c); err != nil {
		d.log.Error("failed to persist calibration", "error", err)
	}
}
