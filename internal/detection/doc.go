// Package detection finds circular features in micrographs.
//
// Circles (pores, particles, grains) are located with a Hough circle
// transform over a simple gradient edge map. The radius and diameter tools
// use SnapCircle to fit a clicked center to the nearest detected circle, and
// the detect tool reports every circle in a radius range.
//
// # Coordinate System
//
// All coordinates use the standard image convention:
//   - Origin (0, 0) at top-left corner
//   - X increases rightward
//   - Y increases downward
//
// # Performance Considerations
//
// The transform is O(W·H·R) for R candidate radii. SnapCircle searches only
// a window around the clicked point; full-image detection should be given a
// narrow radius range.
//
// # Limitations
//
// Detection works best on clean, high-contrast images. Noisy or low-contrast
// micrographs should be smoothed or thresholded with the filter pipeline
// first.
package detection
