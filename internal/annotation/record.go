package annotation

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ironsheep/micro-annotate-mcp/internal/geom"
	"github.com/ironsheep/micro-annotate-mcp/internal/style"
)

// ID identifies an annotation for its whole lifetime.
type ID string

// NewID returns a process-unique identifier. UUIDv7 embeds a millisecond
// timestamp followed by random bits.
func NewID() ID {
	u, err := uuid.NewV7()
	if err != nil {
		u = uuid.New()
	}
	return ID(u.String())
}

// Record is the semantic description of one placed annotation. Render
// shapes are not part of the record; the canvas keeps them in its arena,
// indexed by the record's ID.
type Record struct {
	ID        ID          `json:"id"`
	Type      Type        `json:"type"`
	Tool      Tool        `json:"tool"`
	Data      Data        `json:"data"`
	Style     style.Style `json:"styleSnapshot"`
	CreatedAt time.Time   `json:"createdAt"`
}

// Data is the type-specific payload. Exactly one field is set, matching the
// record's Type.
type Data struct {
	Text       *TextData       `json:"text,omitempty"`
	Dimension  *DimensionData  `json:"dimension,omitempty"`
	Circle     *CircleData     `json:"circle,omitempty"`
	Leader     *LeaderData     `json:"leader,omitempty"`
	Centerline *CenterlineData `json:"centerline,omitempty"`
	Cloud      *CloudData      `json:"cloud,omitempty"`
	Hatch      *HatchData      `json:"hatch,omitempty"`
}

// TextData positions a text label.
type TextData struct {
	Position geom.Point `json:"position"`
	Content  string     `json:"content"`
	// Field is the name of the resolved field for text-field annotations.
	Field string `json:"field,omitempty"`
}

// DimensionData is a measured segment. Distance is in pixels; Value and Unit
// hold the calibrated measurement captured when the record was built.
type DimensionData struct {
	Start        geom.Point `json:"start"`
	End          geom.Point `json:"end"`
	Distance     float64    `json:"distance"`
	Value        float64    `json:"value"`
	Unit         string     `json:"unit"`
	AngleDegrees float64    `json:"angleDegrees,omitempty"`
}

// CircleData is a radius or diameter annotation.
type CircleData struct {
	Center geom.Point `json:"center"`
	Radius float64    `json:"radius"`
	Value  float64    `json:"value"`
	Unit   string     `json:"unit"`
	// Snapped is set when the radius came from circle detection.
	Snapped bool `json:"snapped,omitempty"`
}

// LeaderData is an arrow from Anchor to Tail with optional text.
type LeaderData struct {
	Anchor geom.Point `json:"anchor"`
	Tail   geom.Point `json:"tail"`
	Text   string     `json:"text,omitempty"`
}

// CenterlineData is a dashed line between two points.
type CenterlineData struct {
	Start geom.Point `json:"start"`
	End   geom.Point `json:"end"`
}

// CloudData is a freehand revision cloud.
type CloudData struct {
	Points []geom.Point `json:"points"`
	Closed bool         `json:"closed"`
}

// HatchData is a hatched rectangular area.
type HatchData struct {
	Origin  geom.Point `json:"origin"`
	Width   float64    `json:"width"`
	Height  float64    `json:"height"`
	Spacing float64    `json:"spacing"`
}

// ErrInvalidRecord is returned by Validate for a record whose tool, type and
// payload disagree.
var ErrInvalidRecord = errors.New("invalid annotation record")

// payloadType reports the type of the single payload set in d, or false
// when none or several are set.
func (d Data) payloadType() (Type, bool) {
	var (
		typ Type
		n   int
	)
	for _, p := range []struct {
		set bool
		typ Type
	}{
		{d.Text != nil, TypeText},
		{d.Dimension != nil, TypeDimension},
		{d.Circle != nil, TypeCircle},
		{d.Leader != nil, TypeLeader},
		{d.Centerline != nil, TypeCenterline},
		{d.Cloud != nil, TypeRevisionCloud},
		{d.Hatch != nil, TypeHatch},
	} {
		if p.set {
			typ = p.typ
			n++
		}
	}
	return typ, n == 1
}

// Validate checks that r has an ID, a selectable tool, the type that tool
// produces, and exactly one payload of that type.
func (r Record) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidRecord)
	}
	if !r.Tool.Valid() {
		return fmt.Errorf("%w: %s has no selectable tool", ErrInvalidRecord, r.ID)
	}
	if r.Type != r.Tool.Type() {
		return fmt.Errorf("%w: %s has type %q, tool %s produces %q", ErrInvalidRecord, r.ID, r.Type, r.Tool, r.Tool.Type())
	}
	typ, ok := r.Data.payloadType()
	if !ok || typ != r.Type {
		return fmt.Errorf("%w: %s needs exactly one %s payload", ErrInvalidRecord, r.ID, r.Type)
	}
	if r.Type == TypeRevisionCloud && len(r.Data.Cloud.Points) < 3 {
		return fmt.Errorf("%w: %s cloud has %d points", ErrInvalidRecord, r.ID, len(r.Data.Cloud.Points))
	}
	return nil
}

// Clone returns a deep copy of r.
func (r Record) Clone() Record {
	out := r
	d := r.Data
	if d.Text != nil {
		v := *d.Text
		out.Data.Text = &v
	}
	if d.Dimension != nil {
		v := *d.Dimension
		out.Data.Dimension = &v
	}
	if d.Circle != nil {
		v := *d.Circle
		out.Data.Circle = &v
	}
	if d.Leader != nil {
		v := *d.Leader
		out.Data.Leader = &v
	}
	if d.Centerline != nil {
		v := *d.Centerline
		out.Data.Centerline = &v
	}
	if d.Cloud != nil {
		v := *d.Cloud
		v.Points = append([]geom.Point(nil), d.Cloud.Points...)
		out.Data.Cloud = &v
	}
	if d.Hatch != nil {
		v := *d.Hatch
		out.Data.Hatch = &v
	}
	return out
}

// ControlPoints returns the editable points of the record, in a fixed order
// per type. These back the canvas selection handles.
func (r Record) ControlPoints() []geom.Point {
	d := r.Data
	switch {
	case d.Text != nil:
		return []geom.Point{d.Text.Position}
	case d.Dimension != nil:
		return []geom.Point{d.Dimension.Start, d.Dimension.End}
	case d.Circle != nil:
		return []geom.Point{d.Circle.Center, d.Circle.Center.Add(geom.Pt(d.Circle.Radius, 0))}
	case d.Leader != nil:
		return []geom.Point{d.Leader.Anchor, d.Leader.Tail}
	case d.Centerline != nil:
		return []geom.Point{d.Centerline.Start, d.Centerline.End}
	case d.Cloud != nil:
		return append([]geom.Point(nil), d.Cloud.Points...)
	case d.Hatch != nil:
		return []geom.Point{d.Hatch.Origin, d.Hatch.Origin.Add(geom.Pt(d.Hatch.Width, d.Hatch.Height))}
	}
	return nil
}

// WithControlPoint returns a copy of r with control point i moved to p.
// Derived values such as distances are not recomputed here.
func (r Record) WithControlPoint(i int, p geom.Point) (Record, error) {
	pts := r.ControlPoints()
	if i < 0 || i >= len(pts) {
		return r, fmt.Errorf("control point %d out of range (annotation has %d)", i, len(pts))
	}
	out := r.Clone()
	d := out.Data
	switch {
	case d.Text != nil:
		d.Text.Position = p
	case d.Dimension != nil:
		if i == 0 {
			d.Dimension.Start = p
		} else {
			d.Dimension.End = p
		}
	case d.Circle != nil:
		if i == 0 {
			d.Circle.Center = p
		} else {
			d.Circle.Radius = geom.Distance(d.Circle.Center, p)
			d.Circle.Snapped = false
		}
	case d.Leader != nil:
		if i == 0 {
			d.Leader.Anchor = p
		} else {
			d.Leader.Tail = p
		}
	case d.Centerline != nil:
		if i == 0 {
			d.Centerline.Start = p
		} else {
			d.Centerline.End = p
		}
	case d.Cloud != nil:
		d.Cloud.Points[i] = p
	case d.Hatch != nil:
		rect := geom.RectFromCorners(pts[1-i], p)
		d.Hatch.Origin = rect.Min
		d.Hatch.Width = rect.Width()
		d.Hatch.Height = rect.Height()
	}
	return out, nil
}

// Translate returns a copy of r moved by (dx, dy).
func (r Record) Translate(dx, dy float64) Record {
	out := r.Clone()
	d := out.Data
	shift := func(p geom.Point) geom.Point { return geom.Pt(p.X+dx, p.Y+dy) }
	switch {
	case d.Text != nil:
		d.Text.Position = shift(d.Text.Position)
	case d.Dimension != nil:
		d.Dimension.Start = shift(d.Dimension.Start)
		d.Dimension.End = shift(d.Dimension.End)
	case d.Circle != nil:
		d.Circle.Center = shift(d.Circle.Center)
	case d.Leader != nil:
		d.Leader.Anchor = shift(d.Leader.Anchor)
		d.Leader.Tail = shift(d.Leader.Tail)
	case d.Centerline != nil:
		d.Centerline.Start = shift(d.Centerline.Start)
		d.Centerline.End = shift(d.Centerline.End)
	case d.Cloud != nil:
		d.Cloud.Points = geom.Translate(d.Cloud.Points, dx, dy)
	case d.Hatch != nil:
		d.Hatch.Origin = shift(d.Hatch.Origin)
	}
	return out
}

// Label returns the text shown for the record, if it has any.
func (r Record) Label() string {
	switch {
	case r.Data.Text != nil:
		return r.Data.Text.Content
	case r.Data.Leader != nil:
		return r.Data.Leader.Text
	}
	return ""
}
