package detection

import (
	"fmt"
	"image"
	"math"
	"sort"

	"github.com/ironsheep/micro-annotate-mcp/internal/geom"
	"github.com/ironsheep/micro-annotate-mcp/internal/imaging"
)

// angleStep is the spacing, in degrees, of the Hough votes cast per edge pixel.
const angleStep = 5

// Point represents a 2D pixel coordinate.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Circle represents a circular feature such as a pore, particle or grain.
type Circle struct {
	// Center is the detected center point of the circle.
	Center Point `json:"center"`

	// Radius is the detected radius in pixels.
	Radius int `json:"radius"`

	// Diameter is 2 × Radius for convenience.
	Diameter int `json:"diameter"`

	// FillColor is the hex color sampled at the center of the circle.
	FillColor string `json:"fill_color,omitempty"`

	// Confidence indicates detection quality (0.0 to 1.0): the share of
	// sampled directions around the center that landed on an edge.
	Confidence float64 `json:"confidence"`
}

// CirclesResult contains detected circles.
type CirclesResult struct {
	// Circles is the list of detected circles, sorted by confidence (highest first).
	Circles []Circle `json:"circles"`

	// Count is the number of circles detected.
	Count int `json:"count"`
}

// DetectCircles finds circles in an image using a Hough circle transform.
//
// Parameters:
//   - img: Source image.
//   - minRadius, maxRadius: Inclusive radius range to search, in pixels.
//
// Returns:
//   - *CirclesResult: Detected circles sorted by confidence.
//   - error: Non-nil if the radius range is invalid.
//
// # Algorithm
//
//  1. Edge detection with a simple gradient threshold.
//  2. For each radius, every edge pixel votes for the centers that would put
//     it on a circle of that radius (one vote per 5° direction).
//  3. Centers that reach 40% of the possible votes and are local maxima
//     within 5 pixels become candidates.
//  4. Candidates are sorted by confidence and near-duplicates are dropped.
func DetectCircles(img image.Image, minRadius, maxRadius int) (*CirclesResult, error) {
	if minRadius < 1 || maxRadius < minRadius {
		return nil, fmt.Errorf("invalid radius range [%d,%d]", minRadius, maxRadius)
	}
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	edges := detectEdges(img, width, height)
	samples := 360 / angleStep
	threshold := int(float64(samples) * 0.4)

	circles := make([]Circle, 0)
	for radius := minRadius; radius <= maxRadius; radius++ {
		accumulator := make([][]int, height)
		for y := 0; y < height; y++ {
			accumulator[y] = make([]int, width)
		}

		offsets := make([]Point, 0, samples)
		for angle := 0; angle < 360; angle += angleStep {
			rad := float64(angle) * math.Pi / 180
			offsets = append(offsets, Point{
				X: int(math.Round(float64(radius) * math.Cos(rad))),
				Y: int(math.Round(float64(radius) * math.Sin(rad))),
			})
		}

		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				if !edges[y][x] {
					continue
				}
				for _, o := range offsets {
					cx, cy := x-o.X, y-o.Y
					if cx >= 0 && cx < width && cy >= 0 && cy < height {
						accumulator[cy][cx]++
					}
				}
			}
		}

		for y := radius; y < height-radius; y++ {
			for x := radius; x < width-radius; x++ {
				votes := accumulator[y][x]
				if votes < threshold || !localMax(accumulator, x, y, width, height) {
					continue
				}
				circles = append(circles, Circle{
					Center:     Point{X: x + bounds.Min.X, Y: y + bounds.Min.Y},
					Radius:     radius,
					Diameter:   radius * 2,
					FillColor:  sampleColorHex(img, x+bounds.Min.X, y+bounds.Min.Y),
					Confidence: math.Min(float64(votes)/float64(samples), 1.0),
				})
			}
		}
	}

	sort.SliceStable(circles, func(i, j int) bool {
		return circles[i].Confidence > circles[j].Confidence
	})
	filtered := filterDuplicateCircles(circles)

	return &CirclesResult{
		Circles: filtered,
		Count:   len(filtered),
	}, nil
}

func localMax(acc [][]int, x, y, width, height int) bool {
	for dy := -5; dy <= 5; dy++ {
		for dx := -5; dx <= 5; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			ny, nx := y+dy, x+dx
			if ny >= 0 && ny < height && nx >= 0 && nx < width && acc[ny][nx] > acc[y][x] {
				return false
			}
		}
	}
	return true
}

// SnapCircle looks for a circle whose center lies near center and returns
// the best match. Only a window around center is searched, so the cost does
// not depend on the image size.
func SnapCircle(img image.Image, center geom.Point, minRadius, maxRadius int) (Circle, bool) {
	if minRadius < 1 || maxRadius < minRadius {
		return Circle{}, false
	}
	half := maxRadius + 6
	cx, cy := int(math.Round(center.X)), int(math.Round(center.Y))
	window, at, ok := imaging.CropClipped(img, image.Rect(cx-half, cy-half, cx+half+1, cy+half+1))
	if !ok {
		return Circle{}, false
	}
	origin := window.Bounds().Min
	res, err := DetectCircles(window, minRadius, maxRadius)
	if err != nil {
		return Circle{}, false
	}

	tolerance := math.Max(3, float64(minRadius)/2)
	best, found := Circle{}, false
	for _, c := range res.Circles {
		c.Center.X += at.X - origin.X
		c.Center.Y += at.Y - origin.Y
		if !found && geom.Distance(center, geom.Pt(float64(c.Center.X), float64(c.Center.Y))) <= tolerance {
			best, found = c, true
		}
	}
	return best, found
}

// detectEdges marks pixels whose luminance differs by more than 30 from the
// right or lower neighbor. Border pixels are never edges.
func detectEdges(img image.Image, width, height int) [][]bool {
	bounds := img.Bounds()
	edges := make([][]bool, height)
	threshold := 30.0

	for y := 0; y < height; y++ {
		edges[y] = make([]bool, width)
		for x := 0; x < width; x++ {
			if x == 0 || y == 0 || x == width-1 || y == height-1 {
				continue
			}
			c := grayValue(img, x+bounds.Min.X, y+bounds.Min.Y)
			cx := grayValue(img, x+1+bounds.Min.X, y+bounds.Min.Y)
			cy := grayValue(img, x+bounds.Min.X, y+1+bounds.Min.Y)

			dx := math.Abs(float64(c) - float64(cx))
			dy := math.Abs(float64(c) - float64(cy))
			if dx > threshold || dy > threshold {
				edges[y][x] = true
			}
		}
	}
	return edges
}

// grayValue converts a pixel to grayscale using ITU-R BT.601 luminance weights.
func grayValue(img image.Image, x, y int) uint8 {
	r, g, b, _ := img.At(x, y).RGBA()
	return uint8(float64(r>>8)*0.299 + float64(g>>8)*0.587 + float64(b>>8)*0.114)
}

// sampleColorHex returns the lower-case hex color of a pixel.
func sampleColorHex(img image.Image, x, y int) string {
	r, g, b, _ := img.At(x, y).RGBA()
	return fmt.Sprintf("#%02x%02x%02x", uint8(r>>8), uint8(g>>8), uint8(b>>8))
}

// filterDuplicateCircles keeps the first of any circles whose centers are
// closer than the average of their radii.
func filterDuplicateCircles(circles []Circle) []Circle {
	filtered := make([]Circle, 0, len(circles))
	for _, c := range circles {
		isDuplicate := false
		for _, f := range filtered {
			dx := c.Center.X - f.Center.X
			dy := c.Center.Y - f.Center.Y
			if math.Sqrt(float64(dx*dx+dy*dy)) < float64(c.Radius+f.Radius)/2 {
				isDuplicate = true
				break
			}
		}
		if !isDuplicate {
			filtered = append(filtered, c)
		}
	}
	return filtered
}
