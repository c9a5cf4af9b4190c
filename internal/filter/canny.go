package filter

import (
	"image"
	"math"
)

// canny marks edges white on black using Canny edge detection.
//
// The steps are luminance conversion, a 5x5 Gaussian blur, Sobel gradients,
// non-maximum suppression, and hysteresis with the low and high thresholds
// (0-255). A weak pixel survives only next to a strong one.
func canny(img *image.RGBA, low, high float64) *image.RGBA {
	w, h := img.Rect.Dx(), img.Rect.Dy()

	gray := make([][]float64, h)
	for y := 0; y < h; y++ {
		gray[y] = make([]float64, w)
		for x := 0; x < w; x++ {
			i := y*img.Stride + x*4
			gray[y][x] = float64(luma(img.Pix[i], img.Pix[i+1], img.Pix[i+2])) / 255.0
		}
	}
	blurred := blur5(gray, w, h)

	magnitude := make([][]float64, h)
	direction := make([][]float64, h)
	for y := 0; y < h; y++ {
		magnitude[y] = make([]float64, w)
		direction[y] = make([]float64, w)
		for x := 0; x < w; x++ {
			var gx, gy float64
			for ky := -1; ky <= 1; ky++ {
				for kx := -1; kx <= 1; kx++ {
					v := blurred[clampInt(y+ky, 0, h-1)][clampInt(x+kx, 0, w-1)]
					gx += v * sobelX[ky+1][kx+1]
					gy += v * sobelY[ky+1][kx+1]
				}
			}
			magnitude[y][x] = math.Sqrt(gx*gx + gy*gy)
			direction[y][x] = math.Atan2(gy, gx)
		}
	}

	suppressed := make([][]float64, h)
	for y := 0; y < h; y++ {
		suppressed[y] = make([]float64, w)
		for x := 1; y > 0 && y < h-1 && x < w-1; x++ {
			n1, n2 := neighbors(magnitude, direction[y][x], x, y)
			if m := magnitude[y][x]; m >= n1 && m >= n2 {
				suppressed[y][x] = m
			}
		}
	}

	lo, hi := low/255.0, high/255.0
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := uint8(0)
			switch s := suppressed[y][x]; {
			case s >= hi:
				v = 255
			case s >= lo && strongNeighbor(suppressed, x, y, w, h, hi):
				v = 255
			}
			i := y*img.Stride + x*4
			img.Pix[i], img.Pix[i+1], img.Pix[i+2] = v, v, v
		}
	}
	return img
}

var (
	sobelX = [3][3]float64{{-1, 0, 1}, {-2, 0, 2}, {-1, 0, 1}}
	sobelY = [3][3]float64{{-1, -2, -1}, {0, 0, 0}, {1, 2, 1}}
)

// neighbors returns the two magnitudes along the gradient direction.
func neighbors(mag [][]float64, angle float64, x, y int) (float64, float64) {
	switch {
	case (angle >= -math.Pi/8 && angle < math.Pi/8) || angle >= 7*math.Pi/8 || angle < -7*math.Pi/8:
		return mag[y][x-1], mag[y][x+1]
	case (angle >= math.Pi/8 && angle < 3*math.Pi/8) || (angle >= -7*math.Pi/8 && angle < -5*math.Pi/8):
		return mag[y-1][x+1], mag[y+1][x-1]
	case (angle >= 3*math.Pi/8 && angle < 5*math.Pi/8) || (angle >= -5*math.Pi/8 && angle < -3*math.Pi/8):
		return mag[y-1][x], mag[y+1][x]
	}
	return mag[y-1][x-1], mag[y+1][x+1]
}

func strongNeighbor(s [][]float64, x, y, w, h int, hi float64) bool {
	for ky := -1; ky <= 1; ky++ {
		for kx := -1; kx <= 1; kx++ {
			if s[clampInt(y+ky, 0, h-1)][clampInt(x+kx, 0, w-1)] >= hi {
				return true
			}
		}
	}
	return false
}

// blur5 applies the 5x5 Gaussian (sigma about 1.4, sum 273) used before
// gradient computation.
func blur5(img [][]float64, w, h int) [][]float64 {
	kernel := [5][5]float64{
		{1, 4, 7, 4, 1},
		{4, 16, 26, 16, 4},
		{7, 26, 41, 26, 7},
		{4, 16, 26, 16, 4},
		{1, 4, 7, 4, 1},
	}
	out := make([][]float64, h)
	for y := 0; y < h; y++ {
		out[y] = make([]float64, w)
		for x := 0; x < w; x++ {
			var sum float64
			for ky := -2; ky <= 2; ky++ {
				for kx := -2; kx <= 2; kx++ {
					sum += img[clampInt(y+ky, 0, h-1)][clampInt(x+kx, 0, w-1)] * kernel[ky+2][kx+2]
				}
			}
			out[y][x] = sum / 273.0
		}
	}
	return out
}
