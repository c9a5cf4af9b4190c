package filter

import (
	"image"
	"math"
	"sort"

	"github.com/anthonynsimon/bild/clone"
)

// gaussianBlur convolves img with a full k x k normalized Gaussian kernel.
// Samples past the edge repeat the border pixel. A non-positive sigma is
// derived from the kernel size.
func gaussianBlur(img *image.RGBA, k int, sigma float64) *image.RGBA {
	if k == 1 {
		return img
	}
	if sigma <= 0 {
		sigma = 0.3*(float64(k-1)*0.5-1) + 0.8
	}
	r := k / 2
	kernel := make([]float64, k*k)
	var total float64
	for y := -r; y <= r; y++ {
		for x := -r; x <= r; x++ {
			v := math.Exp(-float64(x*x+y*y) / (2 * sigma * sigma))
			kernel[(y+r)*k+(x+r)] = v
			total += v
		}
	}
	for i := range kernel {
		kernel[i] /= total
	}

	w, h := img.Rect.Dx(), img.Rect.Dy()
	src := append([]uint8(nil), img.Pix...)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var sr, sg, sb float64
			for ky := -r; ky <= r; ky++ {
				py := clampInt(y+ky, 0, h-1)
				for kx := -r; kx <= r; kx++ {
					px := clampInt(x+kx, 0, w-1)
					wt := kernel[(ky+r)*k+(kx+r)]
					j := py*img.Stride + px*4
					sr += float64(src[j]) * wt
					sg += float64(src[j+1]) * wt
					sb += float64(src[j+2]) * wt
				}
			}
			i := y*img.Stride + x*4
			img.Pix[i], img.Pix[i+1], img.Pix[i+2] = clamp8(sr), clamp8(sg), clamp8(sb)
		}
	}
	return img
}

// median replaces each channel with the median of its k x k neighborhood.
// A border of k/2 pixels is left unprocessed.
func median(img *image.RGBA, k int) *image.RGBA {
	r := k / 2
	w, h := img.Rect.Dx(), img.Rect.Dy()
	if r == 0 || w <= 2*r || h <= 2*r {
		return img
	}
	src := append([]uint8(nil), img.Pix...)
	window := make([]int, 0, k*k)
	for y := r; y < h-r; y++ {
		for x := r; x < w-r; x++ {
			i := y*img.Stride + x*4
			for c := 0; c < 3; c++ {
				window = window[:0]
				for ky := -r; ky <= r; ky++ {
					for kx := -r; kx <= r; kx++ {
						window = append(window, int(src[(y+ky)*img.Stride+(x+kx)*4+c]))
					}
				}
				sort.Ints(window)
				img.Pix[i+c] = uint8(window[len(window)/2])
			}
		}
	}
	return img
}

// sobel writes the clamped gradient magnitude of the luminance.
func sobel(img *image.RGBA) *image.RGBA {
	grayscale(img)
	w, h := img.Rect.Dx(), img.Rect.Dy()
	src := append([]uint8(nil), img.Pix...)
	at := func(x, y int) float64 {
		return float64(src[clampInt(y, 0, h-1)*img.Stride+clampInt(x, 0, w-1)*4])
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			gx := -at(x-1, y-1) + at(x+1, y-1) - 2*at(x-1, y) + 2*at(x+1, y) - at(x-1, y+1) + at(x+1, y+1)
			gy := -at(x-1, y-1) - 2*at(x, y-1) - at(x+1, y-1) + at(x-1, y+1) + 2*at(x, y+1) + at(x+1, y+1)
			v := clamp8(math.Sqrt(gx*gx + gy*gy))
			i := y*img.Stride + x*4
			img.Pix[i], img.Pix[i+1], img.Pix[i+2] = v, v, v
		}
	}
	return img
}

func erode(img *image.RGBA, k, n int) *image.RGBA {
	img = threshold(img, 128)
	for i := 0; i < n; i++ {
		img = morph(img, k, false)
	}
	return img
}

func dilate(img *image.RGBA, k, n int) *image.RGBA {
	img = threshold(img, 128)
	for i := 0; i < n; i++ {
		img = morph(img, k, true)
	}
	return img
}

// adaptiveThreshold sets each pixel to 255 when its luminance exceeds the
// Gaussian-weighted mean of its k x k block minus c.
func adaptiveThreshold(img *image.RGBA, k int, c float64) *image.RGBA {
	grayscale(img)
	mean := gaussianBlur(clone.AsRGBA(img), k, 0)
	eachPixel(img, func(i int) {
		v := uint8(0)
		if float64(img.Pix[i]) > float64(mean.Pix[i])-c {
			v = 255
		}
		img.Pix[i], img.Pix[i+1], img.Pix[i+2] = v, v, v
	})
	return img
}

// morph takes the max (grow) or min of the in-bounds k x k
// neighborhood of a binary image.
func morph(img *image.RGBA, k int, grow bool) *image.RGBA {
	r := k / 2
	if r == 0 {
		return img
	}
	w, h := img.Rect.Dx(), img.Rect.Dy()
	src := append([]uint8(nil), img.Pix...)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := uint8(255)
			if grow {
				v = 0
			}
		window:
			for ky := -r; ky <= r; ky++ {
				py := y + ky
				if py < 0 || py >= h {
					continue
				}
				for kx := -r; kx <= r; kx++ {
					px := x + kx
					if px < 0 || px >= w {
						continue
					}
					s := src[py*img.Stride+px*4]
					if grow && s == 255 {
						v = 255
						break window
					}
					if !grow && s == 0 {
						v = 0
						break window
					}
				}
			}
			i := y*img.Stride + x*4
			img.Pix[i], img.Pix[i+1], img.Pix[i+2] = v, v, v
		}
	}
	return img
}
