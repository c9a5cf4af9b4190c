package filter

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solid(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func TestKernelSize(t *testing.T) {
	tests := []struct {
		in   float64
		want int
	}{
		{-3, 1}, {0, 1}, {1, 1}, {2, 3}, {3, 3}, {4, 5}, {5.2, 5},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, kernelSize(tt.in), "kernelSize(%v)", tt.in)
	}
}

func TestApply_DoesNotModifySource(t *testing.T) {
	src := solid(4, 4, color.RGBA{10, 20, 30, 255})
	before := append([]uint8(nil), src.Pix...)

	out, err := Apply(src, "invert", nil)
	require.NoError(t, err)
	assert.Equal(t, before, src.Pix)
	assert.Equal(t, color.RGBA{245, 235, 225, 255}, out.RGBAAt(0, 0))
}

func TestApply_Grayscale(t *testing.T) {
	out, err := Apply(solid(2, 2, color.RGBA{255, 0, 0, 255}), "grayscale", nil)
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{76, 76, 76, 255}, out.RGBAAt(1, 1))
}

func TestApply_BrightnessContrastClamps(t *testing.T) {
	out, err := Apply(solid(1, 1, color.RGBA{200, 100, 0, 255}), "brightness_contrast",
		Params{"brightness": 10, "contrast": 2})
	require.NoError(t, err)
	// (200-128)*2+138 = 282 -> 255; (100-128)*2+138 = 82; (0-128)*2+138 = -118 -> 0
	assert.Equal(t, color.RGBA{255, 82, 0, 255}, out.RGBAAt(0, 0))
}

func TestApply_Threshold(t *testing.T) {
	img := solid(2, 1, color.RGBA{200, 200, 200, 255})
	img.SetRGBA(1, 0, color.RGBA{50, 50, 50, 255})

	out, err := Apply(img, "threshold", Params{"value": 128})
	require.NoError(t, err)
	assert.Equal(t, uint8(255), out.RGBAAt(0, 0).R)
	assert.Equal(t, uint8(0), out.RGBAAt(1, 0).R)
}

func TestApply_MedianRemovesSpeckleAndKeepsBorder(t *testing.T) {
	img := solid(5, 5, color.RGBA{0, 0, 0, 255})
	img.SetRGBA(2, 2, color.RGBA{255, 255, 255, 255})
	img.SetRGBA(0, 0, color.RGBA{255, 255, 255, 255})

	out, err := Apply(img, "median", Params{"kernel_size": 3})
	require.NoError(t, err)
	assert.Equal(t, uint8(0), out.RGBAAt(2, 2).R, "interior speckle removed")
	assert.Equal(t, uint8(255), out.RGBAAt(0, 0).R, "border untouched")
}

func TestApply_SobelFlatImageIsBlack(t *testing.T) {
	out, err := Apply(solid(6, 6, color.RGBA{90, 90, 90, 255}), "sobel", nil)
	require.NoError(t, err)
	assert.Equal(t, uint8(0), out.RGBAAt(3, 3).R)
}

func TestApply_SobelStepEdgeClamped(t *testing.T) {
	img := solid(6, 6, color.RGBA{0, 0, 0, 255})
	for y := 0; y < 6; y++ {
		for x := 3; x < 6; x++ {
			img.SetRGBA(x, y, color.RGBA{255, 255, 255, 255})
		}
	}
	out, err := Apply(img, "sobel", nil)
	require.NoError(t, err)
	assert.Equal(t, uint8(255), out.RGBAAt(3, 3).R)
	assert.Equal(t, uint8(0), out.RGBAAt(0, 3).R)
}

func TestApply_EqualizationSpreadsRange(t *testing.T) {
	img := solid(2, 1, color.RGBA{100, 100, 100, 255})
	img.SetRGBA(1, 0, color.RGBA{110, 110, 110, 255})

	out, err := Apply(img, "histogram_equalization", nil)
	require.NoError(t, err)
	assert.Equal(t, uint8(0), out.RGBAAt(0, 0).R)
	assert.Equal(t, uint8(255), out.RGBAAt(1, 0).R)
}

func TestApply_EqualizationUniformImageUnchanged(t *testing.T) {
	out, err := Apply(solid(3, 3, color.RGBA{60, 60, 60, 255}), "histogram_equalization", nil)
	require.NoError(t, err)
	assert.Equal(t, uint8(60), out.RGBAAt(1, 1).R)
}

func TestApply_ErosionAndDilation(t *testing.T) {
	img := solid(5, 5, color.RGBA{0, 0, 0, 255})
	img.SetRGBA(2, 2, color.RGBA{255, 255, 255, 255})

	dil, err := Apply(img, "dilation", Params{"kernel_size": 3})
	require.NoError(t, err)
	assert.Equal(t, uint8(255), dil.RGBAAt(1, 1).R)
	assert.Equal(t, uint8(0), dil.RGBAAt(0, 0).R)

	ero, err := Apply(dil, "erosion", Params{"kernel_size": 3})
	require.NoError(t, err)
	assert.Equal(t, uint8(255), ero.RGBAAt(2, 2).R)
	assert.Equal(t, uint8(0), ero.RGBAAt(1, 1).R)

	opened, err := Apply(img, "opening", nil)
	require.NoError(t, err)
	assert.Equal(t, uint8(0), opened.RGBAAt(2, 2).R, "opening removes an isolated pixel")
}

func TestApply_DilationIterations(t *testing.T) {
	img := solid(9, 9, color.RGBA{0, 0, 0, 255})
	img.SetRGBA(4, 4, color.RGBA{255, 255, 255, 255})

	once, err := Apply(img, "dilation", nil)
	require.NoError(t, err)
	assert.Equal(t, uint8(0), once.RGBAAt(2, 2).R)

	twice, err := Apply(img, "dilation", Params{"iterations": 2})
	require.NoError(t, err)
	assert.Equal(t, uint8(255), twice.RGBAAt(2, 2).R)
	assert.Equal(t, uint8(0), twice.RGBAAt(1, 1).R)

	eroded, err := Apply(twice, "erosion", Params{"iterations": 2})
	require.NoError(t, err)
	assert.Equal(t, uint8(255), eroded.RGBAAt(4, 4).R)
	assert.Equal(t, uint8(0), eroded.RGBAAt(3, 3).R)
}

// halves fills the left half of a w x h image with a and the right with b.
func halves(w, h int, a, b uint8) *image.RGBA {
	img := solid(w, h, color.RGBA{a, a, a, 255})
	for y := 0; y < h; y++ {
		for x := w / 2; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{b, b, b, 255})
		}
	}
	return img
}

func TestApply_OtsuSplitsBimodal(t *testing.T) {
	out, err := Apply(halves(10, 4, 40, 210), "otsu_threshold", nil)
	require.NoError(t, err)
	assert.Equal(t, uint8(0), out.RGBAAt(2, 1).R)
	assert.Equal(t, uint8(255), out.RGBAAt(7, 1).R)
}

func TestApply_AdaptiveThresholdFollowsLocalMean(t *testing.T) {
	out, err := Apply(halves(20, 20, 50, 200), "adaptive_threshold", nil)
	require.NoError(t, err)
	assert.Equal(t, uint8(255), out.RGBAAt(0, 10).R, "flat dark region is at its own mean")
	assert.Equal(t, uint8(0), out.RGBAAt(9, 10).R, "dark side of the step is below the local mean")
	assert.Equal(t, uint8(255), out.RGBAAt(10, 10).R)
}

func TestApply_RejectsOversizedParams(t *testing.T) {
	img := solid(4, 4, color.RGBA{10, 20, 30, 255})
	tests := []struct {
		filter string
		params Params
	}{
		{"gaussian_blur", Params{"kernel_size": 1e6}},
		{"median", Params{"kernel_size": MaxKernelSize + 2}},
		{"adaptive_threshold", Params{"block_size": 1e9}},
		{"unsharp_mask", Params{"radius": 1e9}},
		{"erosion", Params{"iterations": MaxIterations + 1}},
	}
	for _, tt := range tests {
		out, err := Apply(img, tt.filter, tt.params)
		assert.ErrorIs(t, err, ErrParamRange, tt.filter)
		assert.Nil(t, out)
	}

	_, err := Apply(img, "gaussian_blur", Params{"kernel_size": MaxKernelSize})
	assert.NoError(t, err)
}

func TestApply_CannyFindsStepEdge(t *testing.T) {
	img := solid(20, 20, color.RGBA{0, 0, 0, 255})
	for y := 0; y < 20; y++ {
		for x := 10; x < 20; x++ {
			img.SetRGBA(x, y, color.RGBA{255, 255, 255, 255})
		}
	}
	out, err := Apply(img, "canny", nil)
	require.NoError(t, err)

	found := false
	for x := 8; x <= 11; x++ {
		if out.RGBAAt(x, 10).R == 255 {
			found = true
		}
	}
	assert.True(t, found, "edge expected near column 10")
	assert.Equal(t, uint8(0), out.RGBAAt(2, 10).R)
}

func TestApply_Errors(t *testing.T) {
	img := solid(2, 2, color.RGBA{0, 0, 0, 255})

	_, err := Apply(img, "nope", nil)
	assert.ErrorIs(t, err, ErrUnknownFilter)

	_, err = Apply(img, "threshold", Params{"cutoff": 1})
	assert.ErrorIs(t, err, ErrUnknownParam)
}

func TestApply_RecoversPanic(t *testing.T) {
	register("explode", "test only", nil, func(*image.RGBA, Params) *image.RGBA { panic("boom") })
	defer delete(registry, "explode")

	img := solid(2, 2, color.RGBA{1, 2, 3, 255})
	out, err := Apply(img, "explode", nil)
	assert.Nil(t, out)
	require.Error(t, err)
	assert.Equal(t, "filter explode failed: boom", err.Error())
	assert.Equal(t, color.RGBA{1, 2, 3, 255}, img.RGBAAt(0, 0))
}

func TestChain_IsAtomic(t *testing.T) {
	img := solid(2, 2, color.RGBA{10, 10, 10, 255})

	out, err := Chain(img, []Step{{Name: "invert"}, {Name: "threshold"}})
	require.NoError(t, err)
	assert.Equal(t, uint8(255), out.RGBAAt(0, 0).R)

	_, err = Chain(img, []Step{{Name: "invert"}, {Name: "missing"}})
	assert.ErrorIs(t, err, ErrUnknownFilter)
	assert.Equal(t, uint8(10), img.RGBAAt(0, 0).R)
}

func TestDefinitions(t *testing.T) {
	defs := Definitions()
	names := make([]string, len(defs))
	for i, d := range defs {
		names[i] = d.Name
	}
	assert.Contains(t, names, "gaussian_blur")
	assert.Contains(t, names, "unsharp_mask")
	assert.Contains(t, names, "otsu_threshold")
	assert.Contains(t, names, "adaptive_threshold")

	p, err := Defaults("gaussian_blur")
	require.NoError(t, err)
	assert.Equal(t, Params{"kernel_size": 5, "sigma": 1}, p)

	p["sigma"] = 9
	again, _ := Defaults("gaussian_blur")
	assert.Equal(t, 1.0, again["sigma"])
}
