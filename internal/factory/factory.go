// Package factory turns tool input into annotation records and the shapes
// that render them.
//
// Every tool has one constructor in a table keyed by annotation.Tool; the
// table is checked for completeness when the package initializes. Pointer
// input is fed through a Session, a small state machine per tool:
//
//	idle -> awaiting-second-point -> committed -> idle   (two-click tools)
//	idle -> collecting -> committed -> idle              (revision cloud)
//	idle -> committed -> idle                            (single-click tools)
//
// Records carry a value copy of the style current at creation. Shapes are
// always derived from a record alone, so re-rendering after undo, redo or
// export reproduces exactly what was placed.
package factory

import (
	"fmt"
	"time"

	"github.com/ironsheep/micro-annotate-mcp/internal/annotation"
	"github.com/ironsheep/micro-annotate-mcp/internal/calibration"
	"github.com/ironsheep/micro-annotate-mcp/internal/geom"
	"github.com/ironsheep/micro-annotate-mcp/internal/style"
)

// Options are the fixed sizes used by tools that do not measure them.
type Options struct {
	// DefaultRadius is used when a radius or diameter is committed after
	// only the center was placed and no circle could be snapped.
	DefaultRadius float64
	// LeaderLength is the length of the leader line from its anchor.
	LeaderLength float64
	// HatchSize is the side of the square used when a hatch is committed
	// after only its first corner.
	HatchSize float64
	// HatchSpacing is the gap between hatch lines.
	HatchSpacing float64
	// CloudCloseTolerance closes a revision cloud whose last point lies
	// within this distance of its first.
	CloudCloseTolerance float64
}

// DefaultOptions returns the built-in tool sizes.
func DefaultOptions() Options {
	return Options{
		DefaultRadius:       50,
		LeaderLength:        60,
		HatchSize:           80,
		HatchSpacing:        10,
		CloudCloseTolerance: 15,
	}
}

// Env supplies the live state tools read while building.
type Env interface {
	// Style returns the current style; records keep a copy of it.
	Style() style.Style
	// Calibration returns the active pixel calibration.
	Calibration() calibration.Calibration
	// SnapCircle returns the radius of a detected circle around center.
	SnapCircle(center geom.Point) (float64, bool)
	// ResolveField returns the text for a named text field.
	ResolveField(name string) (string, bool)
}

// Built is the output of a committed tool: a record and its shapes.
type Built struct {
	Record annotation.Record  `json:"record"`
	Shapes []annotation.Shape `json:"shapes"`
}

// input is what a constructor receives from a session.
type input struct {
	tool   annotation.Tool
	points []geom.Point
	text   string
	// early is set when a two-click tool was committed after one point.
	early bool
}

// constructor builds the type-specific data for a record. ok=false discards
// the input without producing an annotation.
type constructor func(f *Factory, in input) (annotation.Data, bool)

var constructors = map[annotation.Tool]constructor{
	annotation.ToolTextSingle:    buildText,
	annotation.ToolTextMulti:     buildText,
	annotation.ToolTextField:     buildTextField,
	annotation.ToolDimLinear:     buildDimension,
	annotation.ToolDimAligned:    buildDimension,
	annotation.ToolDimAngular:    buildDimension,
	annotation.ToolRadius:        buildCircle,
	annotation.ToolDiameter:      buildCircle,
	annotation.ToolLeader:        buildLeader,
	annotation.ToolMultiLeader:   buildLeader,
	annotation.ToolCenterline:    buildCenterline,
	annotation.ToolRevisionCloud: buildCloud,
	annotation.ToolHatch:         buildHatch,
}

func init() {
	for _, t := range annotation.Tools() {
		if constructors[t] == nil {
			panic(fmt.Sprintf("factory: no constructor for tool %s", t))
		}
	}
}

// Factory builds annotations from tool input.
type Factory struct {
	opts Options
	env  Env
}

// New creates a factory reading live state from env.
func New(opts Options, env Env) *Factory {
	return &Factory{opts: opts, env: env}
}

// Options returns the factory's tool sizes.
func (f *Factory) Options() Options {
	return f.opts
}

// Build runs the constructor for tool directly, bypassing pointer sessions.
// It returns ok=false when the input is not a complete sequence for the tool.
func (f *Factory) Build(tool annotation.Tool, points []geom.Point, text string) (Built, bool) {
	early := false
	if tool.Input() == annotation.InputTwoClick && len(points) == 1 {
		early = true
	}
	return f.build(input{tool: tool, points: points, text: text, early: early})
}

func (f *Factory) build(in input) (Built, bool) {
	ctor, ok := constructors[in.tool]
	if !ok {
		return Built{}, false
	}
	data, ok := ctor(f, in)
	if !ok {
		return Built{}, false
	}
	rec := annotation.Record{
		ID:        annotation.NewID(),
		Type:      in.tool.Type(),
		Tool:      in.tool,
		Data:      data,
		Style:     f.env.Style(),
		CreatedAt: time.Now().UTC(),
	}
	rec = f.Remeasure(rec)
	return Built{Record: rec, Shapes: Shapes(rec)}, true
}

// Remeasure recomputes the derived measurement values of rec (distance,
// calibrated value, unit, angle) from its geometry and the active
// calibration. Records without measurements are returned unchanged.
func (f *Factory) Remeasure(rec annotation.Record) annotation.Record {
	out := rec.Clone()
	cal := f.env.Calibration()
	switch {
	case out.Data.Dimension != nil:
		d := out.Data.Dimension
		m := geom.Measure(d.Start, d.End)
		d.Distance = m.Pixels
		d.Value = cal.Convert(m.Pixels)
		d.Unit = cal.UnitName()
		d.AngleDegrees = 0
		if out.Tool == annotation.ToolDimAngular {
			d.AngleDegrees = m.AngleDegrees
		}
	case out.Data.Circle != nil:
		c := out.Data.Circle
		v := c.Radius
		if out.Tool == annotation.ToolDiameter {
			v *= 2
		}
		c.Value = cal.Convert(v)
		c.Unit = cal.UnitName()
	}
	return out
}

// Rebuild remeasures rec and derives its shapes from its own style snapshot.
func (f *Factory) Rebuild(rec annotation.Record) Built {
	rec = f.Remeasure(rec)
	return Built{Record: rec, Shapes: Shapes(rec)}
}

func buildText(f *Factory, in input) (annotation.Data, bool) {
	if len(in.points) < 1 || in.text == "" {
		return annotation.Data{}, false
	}
	return annotation.Data{Text: &annotation.TextData{Position: in.points[0], Content: in.text}}, true
}

func buildTextField(f *Factory, in input) (annotation.Data, bool) {
	if len(in.points) < 1 || in.text == "" {
		return annotation.Data{}, false
	}
	content, ok := f.env.ResolveField(in.text)
	if !ok {
		return annotation.Data{}, false
	}
	return annotation.Data{Text: &annotation.TextData{Position: in.points[0], Content: content, Field: in.text}}, true
}

func buildDimension(f *Factory, in input) (annotation.Data, bool) {
	if len(in.points) != 2 {
		return annotation.Data{}, false
	}
	return annotation.Data{Dimension: &annotation.DimensionData{Start: in.points[0], End: in.points[1]}}, true
}

func buildCircle(f *Factory, in input) (annotation.Data, bool) {
	if len(in.points) == 0 || len(in.points) > 2 {
		return annotation.Data{}, false
	}
	center := in.points[0]
	c := &annotation.CircleData{Center: center}
	switch {
	case len(in.points) == 2:
		c.Radius = geom.Distance(center, in.points[1])
	case in.early:
		if r, ok := f.env.SnapCircle(center); ok {
			c.Radius = r
			c.Snapped = true
		} else {
			c.Radius = f.opts.DefaultRadius
		}
	default:
		return annotation.Data{}, false
	}
	return annotation.Data{Circle: c}, true
}

func buildLeader(f *Factory, in input) (annotation.Data, bool) {
	if len(in.points) < 1 {
		return annotation.Data{}, false
	}
	anchor := in.points[0]
	// 45 degrees up and to the right of the anchor.
	dir := geom.Pt(1, -1).Unit()
	return annotation.Data{Leader: &annotation.LeaderData{
		Anchor: anchor,
		Tail:   anchor.Add(dir.Scale(f.opts.LeaderLength)),
		Text:   in.text,
	}}, true
}

func buildCenterline(f *Factory, in input) (annotation.Data, bool) {
	if len(in.points) != 2 {
		return annotation.Data{}, false
	}
	return annotation.Data{Centerline: &annotation.CenterlineData{Start: in.points[0], End: in.points[1]}}, true
}

func buildCloud(f *Factory, in input) (annotation.Data, bool) {
	if len(in.points) < 3 {
		return annotation.Data{}, false
	}
	pts := append([]geom.Point(nil), in.points...)
	closed := geom.Distance(pts[0], pts[len(pts)-1]) <= f.opts.CloudCloseTolerance
	return annotation.Data{Cloud: &annotation.CloudData{Points: pts, Closed: closed}}, true
}

func buildHatch(f *Factory, in input) (annotation.Data, bool) {
	var rect geom.Rect
	switch {
	case len(in.points) == 2:
		rect = geom.RectFromCorners(in.points[0], in.points[1])
	case len(in.points) == 1 && in.early:
		rect = geom.Rect{Min: in.points[0], Max: in.points[0].Add(geom.Pt(f.opts.HatchSize, f.opts.HatchSize))}
	default:
		return annotation.Data{}, false
	}
	return annotation.Data{Hatch: &annotation.HatchData{
		Origin:  rect.Min,
		Width:   rect.Width(),
		Height:  rect.Height(),
		Spacing: f.opts.HatchSpacing,
	}}, true
}
