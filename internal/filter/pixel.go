package filter

import (
	"image"
	"math"
)

// luma returns the rounded BT.601 luminance of an 8-bit RGB triple.
func luma(r, g, b uint8) uint8 {
	return uint8(math.Round(0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)))
}

func clamp8(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(math.Round(v))
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// eachPixel calls fn with the Pix offset of every pixel in img.
func eachPixel(img *image.RGBA, fn func(i int)) {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	for y := 0; y < h; y++ {
		row := y * img.Stride
		for x := 0; x < w; x++ {
			fn(row + x*4)
		}
	}
}

func grayscale(img *image.RGBA) *image.RGBA {
	eachPixel(img, func(i int) {
		l := luma(img.Pix[i], img.Pix[i+1], img.Pix[i+2])
		img.Pix[i], img.Pix[i+1], img.Pix[i+2] = l, l, l
	})
	return img
}

func invert(img *image.RGBA) *image.RGBA {
	eachPixel(img, func(i int) {
		img.Pix[i] = 255 - img.Pix[i]
		img.Pix[i+1] = 255 - img.Pix[i+1]
		img.Pix[i+2] = 255 - img.Pix[i+2]
	})
	return img
}

func brightnessContrast(img *image.RGBA, brightness, contrast float64) *image.RGBA {
	var lut [256]uint8
	for v := range lut {
		lut[v] = clamp8((float64(v)-128)*contrast + 128 + brightness)
	}
	eachPixel(img, func(i int) {
		img.Pix[i] = lut[img.Pix[i]]
		img.Pix[i+1] = lut[img.Pix[i+1]]
		img.Pix[i+2] = lut[img.Pix[i+2]]
	})
	return img
}

func threshold(img *image.RGBA, cutoff float64) *image.RGBA {
	eachPixel(img, func(i int) {
		v := uint8(0)
		if float64(luma(img.Pix[i], img.Pix[i+1], img.Pix[i+2])) > cutoff {
			v = 255
		}
		img.Pix[i], img.Pix[i+1], img.Pix[i+2] = v, v, v
	})
	return img
}

// equalize maps luminance through the normalized cumulative histogram.
func equalize(img *image.RGBA) *image.RGBA {
	grayscale(img)
	var hist [256]int
	eachPixel(img, func(i int) { hist[img.Pix[i]]++ })

	var cdf [256]int
	sum := 0
	for v, n := range hist {
		sum += n
		cdf[v] = sum
	}
	cdfMin := 0
	for _, c := range cdf {
		if c > 0 {
			cdfMin = c
			break
		}
	}
	denom := sum - cdfMin
	if denom <= 0 {
		return img
	}

	var lut [256]uint8
	for v := range lut {
		lut[v] = clamp8(float64(cdf[v]-cdfMin) * 255 / float64(denom))
	}
	eachPixel(img, func(i int) {
		l := lut[img.Pix[i]]
		img.Pix[i], img.Pix[i+1], img.Pix[i+2] = l, l, l
	})
	return img
}

// otsu thresholds img at the luminance cut that maximizes the between-class
// variance of its histogram.
func otsu(img *image.RGBA) *image.RGBA {
	var hist [256]float64
	eachPixel(img, func(i int) { hist[luma(img.Pix[i], img.Pix[i+1], img.Pix[i+2])]++ })

	var total, sum float64
	for v, n := range hist {
		total += n
		sum += float64(v) * n
	}
	var wB, sumB, best float64
	cut := 0
	for t, n := range hist {
		wB += n
		wF := total - wB
		if wB == 0 {
			continue
		}
		if wF == 0 {
			break
		}
		sumB += float64(t) * n
		d := sumB/wB - (sum-sumB)/wF
		if between := wB * wF * d * d; between > best {
			best, cut = between, t
		}
	}
	return threshold(img, float64(cut))
}
