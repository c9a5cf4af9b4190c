// Package document ties the annotation engine together.
//
// A Document owns one style registry, primitive factory, canvas surface,
// annotation store and history. Every committed, moved, resized or deleted
// annotation flows through it so that the store and the surface always hold
// exactly the same set of annotations, and every edit is recorded once in
// the history.
//
// All exported methods are serialized by a single mutex, so concurrent
// callers observe the engine as if their requests were events on one loop.
package document

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/ironsheep/micro-annotate-mcp/internal/annotation"
	"github.com/ironsheep/micro-annotate-mcp/internal/calibration"
	"github.com/ironsheep/micro-annotate-mcp/internal/canvas"
	"github.com/ironsheep/micro-annotate-mcp/internal/detection"
	"github.com/ironsheep/micro-annotate-mcp/internal/factory"
	"github.com/ironsheep/micro-annotate-mcp/internal/filter"
	"github.com/ironsheep/micro-annotate-mcp/internal/geom"
	"github.com/ironsheep/micro-annotate-mcp/internal/history"
	"github.com/ironsheep/micro-annotate-mcp/internal/imaging"
	"github.com/ironsheep/micro-annotate-mcp/internal/ocr"
	"github.com/ironsheep/micro-annotate-mcp/internal/store"
	"github.com/ironsheep/micro-annotate-mcp/internal/style"
)

var (
	// ErrConfirmationRequired is returned by destructive bulk operations
	// called without explicit confirmation.
	ErrConfirmationRequired = errors.New("confirmation required")

	// ErrNoBackground is returned by operations that need a loaded image.
	ErrNoBackground = errors.New("no background image loaded")

	// ErrNoText is returned when setting text on an annotation without any.
	ErrNoText = errors.New("annotation has no text")
)

// SnapOptions control fitting radius tools to detected circles.
type SnapOptions struct {
	Enabled   bool
	MinRadius int
	MaxRadius int
}

// Options configure a Document.
type Options struct {
	Canvas       canvas.Options
	Tools        factory.Options
	Snap         SnapOptions
	HistoryLimit int
	Style        style.Style
	Calibration  calibration.Calibration
	OCRLanguage  string
}

// DefaultOptions returns the built-in settings.
func DefaultOptions() Options {
	return Options{
		Canvas:       canvas.DefaultOptions(),
		Tools:        factory.DefaultOptions(),
		Snap:         SnapOptions{Enabled: true, MinRadius: 5, MaxRadius: 150},
		HistoryLimit: 0,
		Style:        style.Default(),
		Calibration:  calibration.Identity(),
		OCRLanguage:  "eng",
	}
}

// Saver receives the full annotation list on save.
type Saver interface {
	Save(recs []annotation.Record) error
}

// CalibrationSink persists calibrations.
type CalibrationSink interface {
	SaveCalibration(c calibration.Calibration) error
}

// LabelReader reads a scale-bar label from a region of an image.
type LabelReader func(img image.Image, region image.Rectangle, language string) (*ocr.ScaleLabel, error)

// Document is the annotation engine. It is safe for concurrent use.
type Document struct {
	mu  sync.Mutex
	log *slog.Logger

	opts    Options
	styles  *style.Registry
	factory *factory.Factory
	surface *canvas.Surface
	store   *store.Store
	history *history.History

	cal          calibration.Calibration
	calibrations CalibrationSink
	saver        Saver
	readLabel    LabelReader

	images    *imaging.ImageCache
	original  image.Image
	imagePath string
	filters   []filter.Step

	now func() time.Time
}

// Option customizes a Document.
type Option func(*Document)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(d *Document) { d.log = l }
}

// WithSaver sets the save collaborator.
func WithSaver(s Saver) Option {
	return func(d *Document) { d.saver = s }
}

// WithCalibrationSink persists every calibration change to sink.
func WithCalibrationSink(sink CalibrationSink) Option {
	return func(d *Document) { d.calibrations = sink }
}

// WithLabelReader replaces the OCR used for scale-bar calibration.
func WithLabelReader(r LabelReader) Option {
	return func(d *Document) { d.readLabel = r }
}

// WithImageCache shares an image cache.
func WithImageCache(c *imaging.ImageCache) Option {
	return func(d *Document) { d.images = c }
}

// New builds a Document. It fails only when the configured style is invalid.
func New(opts Options, options ...Option) (*Document, error) {
	reg, err := style.NewRegistry(opts.Style)
	if err != nil {
		return nil, err
	}
	d := &Document{
		log:       slog.Default(),
		opts:      opts,
		styles:    reg,
		store:     store.New(),
		history:   history.New(opts.HistoryLimit),
		cal:       opts.Calibration,
		readLabel: ocr.ReadScaleLabel,
		images:    imaging.NewImageCache(),
		now:       time.Now,
	}
	if d.cal.PixelSize <= 0 {
		d.cal = calibration.Identity()
	}
	for _, o := range options {
		o(d)
	}

	d.factory = factory.New(opts.Tools, env{d})
	d.surface = canvas.New(opts.Canvas, d.factory, canvas.Events{
		Commit: d.onCommit,
		Move:   d.onMove,
		Grip:   d.onGrip,
		Delete: d.onDelete,
	})
	reg.Subscribe(d.restyleCurrent)
	return d, nil
}

// env is the factory's view of the document. Its methods run inside
// document operations that already hold d.mu, so they never lock.
type env struct{ d *Document }

func (e env) Style() style.Style                   { return e.d.styles.Current() }
func (e env) Calibration() calibration.Calibration { return e.d.cal }

func (e env) SnapCircle(center geom.Point) (float64, bool) {
	d := e.d
	bg := d.surface.Background()
	if !d.opts.Snap.Enabled || bg == nil {
		return 0, false
	}
	c, ok := detection.SnapCircle(bg, center, d.opts.Snap.MinRadius, d.opts.Snap.MaxRadius)
	if !ok {
		return 0, false
	}
	d.log.Debug("snapped radius to detected circle", "center", center, "radius", c.Radius)
	return float64(c.Radius), true
}

// ResolveField returns the text of a text-field annotation: magnification,
// pixel_size, unit, date or image.
func (e env) ResolveField(name string) (string, bool) {
	d := e.d
	switch name {
	case "magnification":
		if d.cal.Magnification <= 0 {
			return "", false
		}
		return geom.Format(d.cal.Magnification, 1) + "x", true
	case "pixel_size":
		return fmt.Sprintf("%s %s/px", geom.Format(d.cal.PixelSize, 4), d.cal.UnitName()), true
	case "unit":
		return d.cal.UnitName(), true
	case "date":
		return d.now().Format("2006-01-02"), true
	case "image":
		if d.imagePath == "" {
			return "", false
		}
		return filepath.Base(d.imagePath), true
	}
	return "", false
}

// onCommit stores a newly built annotation, mounts its shapes and records
// the addition.
func (d *Document) onCommit(b factory.Built) error {
	idx, err := d.store.Add(b.Record)
	if err != nil {
		return err
	}
	if err := d.surface.Mount(b.Record.ID, b.Shapes, b.Record.ControlPoints()); err != nil {
		_, _, _ = d.store.Delete(b.Record.ID)
		return err
	}
	d.history.Push(history.Add(idx, b.Record))
	d.surface.SetCurrent(b.Record.ID)
	d.log.Debug("annotation committed", "id", b.Record.ID, "tool", b.Record.Tool)
	return nil
}

// onMove reconciles an annotation dragged on the surface.
func (d *Document) onMove(id annotation.ID, dx, dy float64) error {
	before, _, err := d.store.Get(id)
	if err != nil {
		return err
	}
	return d.replace(before, d.factory.Rebuild(before.Translate(dx, dy)))
}

// onGrip reconciles a control point dragged on the surface. Measurements
// are recomputed from the new geometry.
func (d *Document) onGrip(id annotation.ID, index int, p geom.Point) error {
	before, _, err := d.store.Get(id)
	if err != nil {
		return err
	}
	moved, err := before.WithControlPoint(index, p)
	if err != nil {
		return err
	}
	return d.replace(before, d.factory.Rebuild(moved))
}

// onDelete removes the record of an annotation unmounted by the surface.
func (d *Document) onDelete(id annotation.ID) error {
	rec, idx, err := d.store.Delete(id)
	if err != nil {
		return err
	}
	d.history.Push(history.Delete(idx, rec))
	d.log.Debug("annotation deleted", "id", id)
	return nil
}

// replace stores after in place of before, remounts its shapes and records
// the update.
func (d *Document) replace(before annotation.Record, after factory.Built) error {
	_, idx, err := d.store.Update(after.Record)
	if err != nil {
		return err
	}
	if err := d.surface.Replace(after.Record.ID, after.Shapes, after.Record.ControlPoints()); err != nil {
		_, _, _ = d.store.Update(before)
		return err
	}
	d.history.Push(history.Update(idx, before, after.Record))
	d.surface.ClearCurrent()
	return nil
}

// sync brings the surface in line with a history entry just applied to the
// store. Shapes are derived from the stored records as they are.
func (d *Document) sync(e history.Entry) error {
	switch e.Kind {
	case history.KindAdd:
		rec := *e.After
		return d.surface.MountAt(e.Index, rec.ID, factory.Shapes(rec), rec.ControlPoints())
	case history.KindDelete:
		return d.surface.Unmount(e.Before.ID)
	case history.KindUpdate:
		rec := *e.After
		return d.surface.Replace(rec.ID, factory.Shapes(rec), rec.ControlPoints())
	case history.KindBatch:
		for _, child := range e.Batch {
			if err := d.sync(child); err != nil {
				return err
			}
		}
		return nil
	}
	return fmt.Errorf("unknown history entry kind %s", e.Kind)
}
