// Package geom provides the planar geometry shared by the annotation engine.
//
// Coordinates are canvas pixels with (0,0) at the top-left corner, X growing
// rightward and Y growing downward, the same convention the image loader and
// the filter pipeline use. Values are float64 so that interactive input and
// calibrated measurements keep sub-pixel precision.
package geom
