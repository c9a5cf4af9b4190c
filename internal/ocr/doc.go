// Package ocr reads text from micrographs using Tesseract.
//
// This package wraps the Tesseract OCR engine (via gosseract/v2). Its main
// use is scale-bar calibration: ReadScaleLabel reads a label such as
// "50 µm" from a region of the background image and parses it into a length
// and a unit.
//
// # Prerequisites
//
// Tesseract must be installed on the system:
//   - Ubuntu/Debian: apt-get install tesseract-ocr libtesseract-dev
//   - macOS: brew install tesseract
//
// Language data files are required for each language used. The default
// language is English ("eng").
//
// # Coordinates
//
// Word bounds returned for a region are in source image coordinates, not
// relative to the cropped region.
package ocr
