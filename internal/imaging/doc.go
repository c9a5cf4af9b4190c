// Package imaging loads and encodes the background images that annotations
// are placed on.
//
// It decodes PNG, JPEG, GIF, TIFF and BMP files (JPEG EXIF orientation is
// honoured), caches decoded originals, samples colors for the eyedropper,
// and produces crops, thumbnails and data URLs.
//
// # Coordinate System
//
// All pixel coordinates in this package are 0-based:
//   - X: horizontal position (0 = leftmost pixel)
//   - Y: vertical position (0 = topmost pixel)
//   - For regions, (x1,y1) is inclusive (top-left), (x2,y2) is exclusive (bottom-right)
//
// # Thread Safety
//
// The ImageCache type is safe for concurrent use. The remaining functions are
// stateless and never modify their input image.
package imaging
