// Package filter implements the raster filter pipeline applied to background
// images.
//
// Filters never touch their input. Each call clones the source with bild,
// runs on the clone and returns it only on success, so a failing filter
// leaves the caller's bitmap exactly as it was.
package filter

import (
	"errors"
	"fmt"
	"image"
	"math"
	"sort"

	"github.com/anthonynsimon/bild/clone"
	"github.com/anthonynsimon/bild/effect"
)

var (
	// ErrUnknownFilter is returned for a filter name that is not registered.
	ErrUnknownFilter = errors.New("unknown filter")

	// ErrUnknownParam is returned for a parameter the filter does not take.
	ErrUnknownParam = errors.New("unknown filter parameter")

	// ErrParamRange is returned for a size or repeat count above its maximum.
	ErrParamRange = errors.New("filter parameter out of range")
)

const (
	// MaxKernelSize bounds kernel_size, block_size and radius.
	MaxKernelSize = 51

	// MaxIterations bounds the repeat count of the morphology filters.
	MaxIterations = 50
)

// paramLimit caps parameters whose value sets the work done per pixel.
var paramLimit = map[string]float64{
	"kernel_size": MaxKernelSize,
	"block_size":  MaxKernelSize,
	"radius":      MaxKernelSize,
	"iterations":  MaxIterations,
}

// Params are named numeric filter parameters.
type Params map[string]float64

// Definition describes a registered filter.
type Definition struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Defaults    Params `json:"defaults"`
}

type runFunc func(img *image.RGBA, p Params) *image.RGBA

type entry struct {
	def Definition
	run runFunc
}

var registry = map[string]entry{}

func register(name, desc string, defaults Params, run runFunc) {
	if defaults == nil {
		defaults = Params{}
	}
	registry[name] = entry{def: Definition{Name: name, Description: desc, Defaults: defaults}, run: run}
}

func init() {
	register("grayscale", "Luminance 0.299R + 0.587G + 0.114B on all channels", nil,
		func(img *image.RGBA, _ Params) *image.RGBA { return grayscale(img) })
	register("invert", "255 minus each channel", nil,
		func(img *image.RGBA, _ Params) *image.RGBA { return invert(img) })
	register("brightness_contrast", "(v - 128) * contrast + 128 + brightness, clamped",
		Params{"brightness": 0, "contrast": 1},
		func(img *image.RGBA, p Params) *image.RGBA {
			return brightnessContrast(img, p["brightness"], p["contrast"])
		})
	register("gaussian_blur", "Normalized 2-D Gaussian kernel", Params{"kernel_size": 5, "sigma": 1},
		func(img *image.RGBA, p Params) *image.RGBA {
			return gaussianBlur(img, kernelSize(p["kernel_size"]), p["sigma"])
		})
	register("median", "Median of each k x k neighborhood; borders unprocessed", Params{"kernel_size": 5},
		func(img *image.RGBA, p Params) *image.RGBA { return median(img, kernelSize(p["kernel_size"])) })
	register("sobel", "Sobel gradient magnitude on luminance, clamped to 255", nil,
		func(img *image.RGBA, _ Params) *image.RGBA { return sobel(img) })
	register("histogram_equalization", "Luminance histogram equalization", nil,
		func(img *image.RGBA, _ Params) *image.RGBA { return equalize(img) })
	register("threshold", "Luminance above value becomes 255, else 0", Params{"value": 128},
		func(img *image.RGBA, p Params) *image.RGBA { return threshold(img, p["value"]) })
	register("otsu_threshold", "Threshold at the Otsu cut of the luminance histogram", nil,
		func(img *image.RGBA, _ Params) *image.RGBA { return otsu(img) })
	register("adaptive_threshold", "Luminance above its Gaussian-weighted block mean minus C becomes 255",
		Params{"block_size": 11, "C": 2},
		func(img *image.RGBA, p Params) *image.RGBA {
			return adaptiveThreshold(img, max(kernelSize(p["block_size"]), 3), p["C"])
		})
	register("erosion", "Binary erosion after threshold 128", Params{"kernel_size": 3, "iterations": 1},
		func(img *image.RGBA, p Params) *image.RGBA {
			return erode(img, kernelSize(p["kernel_size"]), iterations(p["iterations"]))
		})
	register("dilation", "Binary dilation after threshold 128", Params{"kernel_size": 3, "iterations": 1},
		func(img *image.RGBA, p Params) *image.RGBA {
			return dilate(img, kernelSize(p["kernel_size"]), iterations(p["iterations"]))
		})
	register("opening", "Erosion followed by dilation", Params{"kernel_size": 3},
		func(img *image.RGBA, p Params) *image.RGBA {
			k := kernelSize(p["kernel_size"])
			return dilate(erode(img, k, 1), k, 1)
		})
	register("closing", "Dilation followed by erosion", Params{"kernel_size": 3},
		func(img *image.RGBA, p Params) *image.RGBA {
			k := kernelSize(p["kernel_size"])
			return erode(dilate(img, k, 1), k, 1)
		})
	register("canny", "Canny edges with hysteresis thresholds", Params{"low_threshold": 50, "high_threshold": 150},
		func(img *image.RGBA, p Params) *image.RGBA {
			return canny(img, p["low_threshold"], p["high_threshold"])
		})
	register("sharpen", "3x3 sharpen kernel", nil,
		func(img *image.RGBA, _ Params) *image.RGBA { return effect.Sharpen(img) })
	register("unsharp_mask", "Unsharp mask with Gaussian radius and amount", Params{"radius": 2, "amount": 1},
		func(img *image.RGBA, p Params) *image.RGBA {
			return effect.UnsharpMask(img, p["radius"], p["amount"])
		})
}

// Definitions returns every registered filter sorted by name.
func Definitions() []Definition {
	out := make([]Definition, 0, len(registry))
	for _, e := range registry {
		out = append(out, Definition{Name: e.def.Name, Description: e.def.Description, Defaults: copyParams(e.def.Defaults)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Defaults returns the default parameters of name.
func Defaults(name string) (Params, error) {
	e, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownFilter, name)
	}
	return copyParams(e.def.Defaults), nil
}

func copyParams(p Params) Params {
	out := make(Params, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Apply runs filter name over a copy of src. Missing parameters take their
// defaults. src is never modified.
func Apply(src image.Image, name string, params Params) (out *image.RGBA, err error) {
	e, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownFilter, name)
	}
	p := copyParams(e.def.Defaults)
	for k, v := range params {
		if _, ok := p[k]; !ok {
			return nil, fmt.Errorf("%w: %s does not take %q", ErrUnknownParam, name, k)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("filter %s: parameter %s is not a finite number", name, k)
		}
		if limit, ok := paramLimit[k]; ok && v > limit {
			return nil, fmt.Errorf("%w: %s %s=%g exceeds %g", ErrParamRange, name, k, v, limit)
		}
		p[k] = v
	}

	defer func() {
		if r := recover(); r != nil {
			out = nil
			err = fmt.Errorf("filter %s failed: %v", name, r)
		}
	}()
	work := clone.AsRGBA(src)
	return e.run(work, p), nil
}

// Step is one filter in a chain.
type Step struct {
	Name   string `json:"name"`
	Params Params `json:"params,omitempty"`
}

// Chain applies steps in order. Either every step succeeds and the final
// bitmap is returned, or src is left as the only result.
func Chain(src image.Image, steps []Step) (*image.RGBA, error) {
	cur := src
	var out *image.RGBA
	for i, s := range steps {
		next, err := Apply(cur, s.Name, s.Params)
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", i+1, err)
		}
		out, cur = next, next
	}
	if out == nil {
		out = clone.AsRGBA(src)
	}
	return out, nil
}

// kernelSize rounds v to an odd size of at least 1.
func kernelSize(v float64) int {
	k := int(math.Round(v))
	if k < 1 {
		return 1
	}
	if k%2 == 0 {
		k++
	}
	return k
}

// iterations rounds v to a repeat count of at least 1.
func iterations(v float64) int {
	return max(int(math.Round(v)), 1)
}
