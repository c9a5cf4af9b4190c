package document

import (
	"image"

	"github.com/ironsheep/micro-annotate-mcp/internal/detection"
	"github.com/ironsheep/micro-annotate-mcp/internal/filter"
	"github.com/ironsheep/micro-annotate-mcp/internal/imaging"
)

// ImageState describes the background and the filters applied to it.
type ImageState struct {
	Info    *imaging.ImageInfo `json:"info"`
	Filters []filter.Step      `json:"filters"`
}

// LoadImage makes the image at path the background. On failure the
// previous background and every annotation are left as they were.
// Loading a path again re-reads the file. The cache holds only the current
// background.
func (d *Document) LoadImage(path string) (ImageState, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.images.Evict(path)
	info, err := imaging.LoadImageInfo(d.images, path)
	if err != nil {
		return ImageState{}, err
	}
	img, err := d.images.Load(path)
	if err != nil {
		return ImageState{}, err
	}
	if d.imagePath != path {
		d.images.Evict(d.imagePath)
	}
	d.original = img
	d.imagePath = path
	d.filters = nil
	d.surface.SetBackground(img)
	d.log.Info("background loaded", "path", path, "width", info.Width, "height", info.Height)
	return ImageState{Info: info, Filters: []filter.Step{}}, nil
}

// ClearBackground removes the background image.
func (d *Document) ClearBackground() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.images.Evict(d.imagePath)
	d.original = nil
	d.imagePath = ""
	d.filters = nil
	d.surface.ClearBackground()
}

// Background returns the current, possibly filtered, background.
func (d *Document) Background() (image.Image, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	bg := d.surface.Background()
	if bg == nil {
		return nil, ErrNoBackground
	}
	return bg, nil
}

// ImageInfo describes the current background.
func (d *Document) ImageInfo() (ImageState, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.imageState()
}

func (d *Document) imageState() (ImageState, error) {
	bg := d.surface.Background()
	if bg == nil {
		return ImageState{}, ErrNoBackground
	}
	info := imaging.Describe(bg)
	info.Path = d.imagePath
	info.Format = imaging.FormatFromPath(d.imagePath)
	return ImageState{Info: info, Filters: append([]filter.Step{}, d.filters...)}, nil
}

// SampleColor returns the mean color within radius of (x, y).
func (d *Document) SampleColor(x, y, radius int) (*imaging.ColorResult, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	bg := d.surface.Background()
	if bg == nil {
		return nil, ErrNoBackground
	}
	return imaging.SampleAverage(bg, x, y, radius)
}

// DetectCircles finds circles in the background with radii in
// [minRadius, maxRadius].
func (d *Document) DetectCircles(minRadius, maxRadius int) (*detection.CirclesResult, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	bg := d.surface.Background()
	if bg == nil {
		return nil, ErrNoBackground
	}
	return detection.DetectCircles(bg, minRadius, maxRadius)
}

// ApplyFilter runs one filter over the background. The background is only
// replaced when the filter succeeds.
func (d *Document) ApplyFilter(name string, params filter.Params) (ImageState, error) {
	return d.ApplyChain([]filter.Step{{Name: name, Params: params}})
}

// ApplyChain runs several filters over the background as one step.
func (d *Document) ApplyChain(steps []filter.Step) (ImageState, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	bg := d.surface.Background()
	if bg == nil {
		return ImageState{}, ErrNoBackground
	}
	out, err := filter.Chain(bg, steps)
	if err != nil {
		return ImageState{}, err
	}
	d.surface.SetBackground(out)
	d.filters = append(d.filters, steps...)
	d.log.Debug("filters applied", "count", len(steps))
	return d.imageState()
}

// ResetFilters restores the background as it was loaded.
func (d *Document) ResetFilters() (ImageState, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.original == nil {
		return ImageState{}, ErrNoBackground
	}
	d.surface.SetBackground(d.original)
	d.filters = nil
	return d.imageState()
}
