package geom

import (
	"math"
	"strconv"
)

// Measurement describes the straight line between two points.
type Measurement struct {
	// Pixels is the Euclidean length of the segment.
	Pixels float64 `json:"pixels"`

	// DeltaX and DeltaY are the signed components from start to end.
	DeltaX float64 `json:"delta_x"`
	DeltaY float64 `json:"delta_y"`

	// AngleDegrees is the direction from start to end, measured from the
	// positive X axis. Because Y grows downward, positive angles point down.
	AngleDegrees float64 `json:"angle_degrees"`
}

// Measure returns the distance and direction from a to b.
//
// Coincident points are valid and measure 0 with an angle of 0.
func Measure(a, b Point) Measurement {
	dx := b.X - a.X
	dy := b.Y - a.Y
	return Measurement{
		Pixels:       math.Hypot(dx, dy),
		DeltaX:       dx,
		DeltaY:       dy,
		AngleDegrees: math.Atan2(dy, dx) * 180 / math.Pi,
	}
}

// Distance returns the Euclidean distance between a and b.
func Distance(a, b Point) float64 {
	return math.Hypot(b.X-a.X, b.Y-a.Y)
}

// Round rounds v to the given number of decimal places. A negative precision
// is treated as 0.
func Round(v float64, precision int) float64 {
	if precision < 0 {
		precision = 0
	}
	f := math.Pow(10, float64(precision))
	return math.Round(v*f) / f
}

// Format renders v with exactly precision decimal places ("5.00" for 5 at 2).
func Format(v float64, precision int) string {
	if precision < 0 {
		precision = 0
	}
	return strconv.FormatFloat(Round(v, precision), 'f', precision, 64)
}
