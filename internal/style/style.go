// Package style holds the visual defaults applied to every new annotation.
//
// A Registry is the single mutable source of the current style. Annotations
// never reference it directly; they receive a value copy (a Style) when they
// are created, so later writes do not alter annotations already placed.
package style

import (
	"encoding/json"
	"errors"
	"fmt"
	"image/color"
	"math"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

var (
	// ErrUnknownField is returned when a write names a field the registry does not have.
	ErrUnknownField = errors.New("unknown style field")

	// ErrInvalidValue is returned when a value has the wrong type for its field.
	ErrInvalidValue = errors.New("invalid style value")
)

// Field names a style option. The names match the JSON keys of Style.
type Field string

const (
	FieldTextSize           Field = "textSize"
	FieldTextColor          Field = "textColor"
	FieldLineColor          Field = "lineColor"
	FieldLineWidth          Field = "lineWidth"
	FieldArrowSize          Field = "arrowSize"
	FieldDimensionPrecision Field = "dimensionPrecision"
)

// Fields lists every recognized field in display order.
func Fields() []Field {
	return []Field{
		FieldTextSize,
		FieldTextColor,
		FieldLineColor,
		FieldLineWidth,
		FieldArrowSize,
		FieldDimensionPrecision,
	}
}

// Style is a complete set of visual options. It is a plain value; copying it
// produces an independent snapshot.
type Style struct {
	TextSize           float64 `json:"textSize" mapstructure:"text_size"`
	TextColor          string  `json:"textColor" mapstructure:"text_color"`
	LineColor          string  `json:"lineColor" mapstructure:"line_color"`
	LineWidth          float64 `json:"lineWidth" mapstructure:"line_width"`
	ArrowSize          float64 `json:"arrowSize" mapstructure:"arrow_size"`
	DimensionPrecision int     `json:"dimensionPrecision" mapstructure:"dimension_precision"`
}

// Default returns the built-in style used when no configuration is supplied.
func Default() Style {
	return Style{
		TextSize:           14,
		TextColor:          "#ffff00",
		LineColor:          "#ff0000",
		LineWidth:          2,
		ArrowSize:          10,
		DimensionPrecision: 2,
	}
}

// Normalize returns s with its colors rewritten in canonical "#rrggbb" form.
// Colors that do not parse are returned as errors.
func (s Style) Normalize() (Style, error) {
	tc, err := NormalizeColor(s.TextColor)
	if err != nil {
		return s, fmt.Errorf("%s: %w", FieldTextColor, err)
	}
	lc, err := NormalizeColor(s.LineColor)
	if err != nil {
		return s, fmt.Errorf("%s: %w", FieldLineColor, err)
	}
	s.TextColor = tc
	s.LineColor = lc
	return s, nil
}

// LineRGBA returns the stroke color as a color.Color, falling back to opaque
// black if the stored value cannot be parsed.
func (s Style) LineRGBA() color.Color {
	return toRGBA(s.LineColor)
}

// TextRGBA returns the text color as a color.Color, falling back to opaque
// black if the stored value cannot be parsed.
func (s Style) TextRGBA() color.Color {
	return toRGBA(s.TextColor)
}

func toRGBA(hex string) color.Color {
	c, err := colorful.Hex(expandShortHex(hex))
	if err != nil {
		return color.RGBA{A: 255}
	}
	r, g, b := c.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

// NormalizeColor parses a CSS hex color ("#rgb" or "#rrggbb", case-insensitive)
// and returns it as lower-case "#rrggbb".
func NormalizeColor(s string) (string, error) {
	c, err := colorful.Hex(expandShortHex(strings.TrimSpace(s)))
	if err != nil {
		return "", fmt.Errorf("%w: color %q", ErrInvalidValue, s)
	}
	return c.Clamped().Hex(), nil
}

// expandShortHex turns "#abc" into "#aabbcc". Other inputs pass through.
func expandShortHex(s string) string {
	if len(s) == 4 && s[0] == '#' {
		return string([]byte{'#', s[1], s[1], s[2], s[2], s[3], s[3]})
	}
	return s
}

// Patch is a partial style write. Nil fields are left untouched.
type Patch struct {
	TextSize           *float64 `json:"textSize,omitempty"`
	TextColor          *string  `json:"textColor,omitempty"`
	LineColor          *string  `json:"lineColor,omitempty"`
	LineWidth          *float64 `json:"lineWidth,omitempty"`
	ArrowSize          *float64 `json:"arrowSize,omitempty"`
	DimensionPrecision *int     `json:"dimensionPrecision,omitempty"`
}

// Empty reports whether the patch writes nothing.
func (p Patch) Empty() bool {
	return p.TextSize == nil && p.TextColor == nil && p.LineColor == nil &&
		p.LineWidth == nil && p.ArrowSize == nil && p.DimensionPrecision == nil
}

// Merge returns p with every non-nil field of o written over it.
func (p Patch) Merge(o Patch) Patch {
	if o.TextSize != nil {
		p.TextSize = o.TextSize
	}
	if o.TextColor != nil {
		p.TextColor = o.TextColor
	}
	if o.LineColor != nil {
		p.LineColor = o.LineColor
	}
	if o.LineWidth != nil {
		p.LineWidth = o.LineWidth
	}
	if o.ArrowSize != nil {
		p.ArrowSize = o.ArrowSize
	}
	if o.DimensionPrecision != nil {
		p.DimensionPrecision = o.DimensionPrecision
	}
	return p
}

// apply returns s with the patch written over it. Colors are validated.
func (p Patch) apply(s Style) (Style, error) {
	if p.TextSize != nil {
		s.TextSize = *p.TextSize
	}
	if p.TextColor != nil {
		c, err := NormalizeColor(*p.TextColor)
		if err != nil {
			return s, fmt.Errorf("%s: %w", FieldTextColor, err)
		}
		s.TextColor = c
	}
	if p.LineColor != nil {
		c, err := NormalizeColor(*p.LineColor)
		if err != nil {
			return s, fmt.Errorf("%s: %w", FieldLineColor, err)
		}
		s.LineColor = c
	}
	if p.LineWidth != nil {
		s.LineWidth = *p.LineWidth
	}
	if p.ArrowSize != nil {
		s.ArrowSize = *p.ArrowSize
	}
	if p.DimensionPrecision != nil {
		s.DimensionPrecision = *p.DimensionPrecision
	}
	return s, nil
}

// PatchFor builds a single-field patch from a loosely typed value, as decoded
// from JSON. Numbers may arrive as any Go numeric type or json.Number; the
// precision must be integral. No range checks are applied.
func PatchFor(field Field, value any) (Patch, error) {
	var p Patch
	switch field {
	case FieldTextColor, FieldLineColor:
		s, ok := value.(string)
		if !ok {
			return p, fmt.Errorf("%w: %s expects a color string, got %T", ErrInvalidValue, field, value)
		}
		if field == FieldTextColor {
			p.TextColor = &s
		} else {
			p.LineColor = &s
		}
	case FieldTextSize, FieldLineWidth, FieldArrowSize:
		f, ok := toFloat(value)
		if !ok {
			return p, fmt.Errorf("%w: %s expects a number, got %T", ErrInvalidValue, field, value)
		}
		switch field {
		case FieldTextSize:
			p.TextSize = &f
		case FieldLineWidth:
			p.LineWidth = &f
		default:
			p.ArrowSize = &f
		}
	case FieldDimensionPrecision:
		f, ok := toFloat(value)
		if !ok || f != math.Trunc(f) {
			return p, fmt.Errorf("%w: %s expects an integer, got %v", ErrInvalidValue, field, value)
		}
		n := int(f)
		p.DimensionPrecision = &n
	default:
		return p, fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	return p, nil
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
