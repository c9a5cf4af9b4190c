package annotation

import (
	"errors"
	"fmt"
)

// ErrUnknownTool is returned when a tool name is not part of the tool set.
var ErrUnknownTool = errors.New("unknown tool")

// Type is the semantic category of an annotation.
type Type string

const (
	TypeText          Type = "text"
	TypeDimension     Type = "dimension"
	TypeCircle        Type = "circle"
	TypeLeader        Type = "leader"
	TypeCenterline    Type = "centerline"
	TypeRevisionCloud Type = "revision-cloud"
	TypeHatch         Type = "hatch"
)

// Types lists every annotation type in display order.
func Types() []Type {
	return []Type{
		TypeText,
		TypeDimension,
		TypeCircle,
		TypeLeader,
		TypeCenterline,
		TypeRevisionCloud,
		TypeHatch,
	}
}

// Input describes how a tool consumes pointer events.
type Input int

const (
	// InputClick tools commit on a single press.
	InputClick Input = iota
	// InputTwoClick tools commit on the second press.
	InputTwoClick
	// InputDrag tools collect points between press and release.
	InputDrag
)

// Tool identifies an annotation tool. The set is closed: the zero value is
// ToolNone and every other value below toolCount is a valid tool.
type Tool int

const (
	ToolNone Tool = iota
	ToolTextSingle
	ToolTextMulti
	ToolTextField
	ToolDimLinear
	ToolDimAligned
	ToolDimAngular
	ToolRadius
	ToolDiameter
	ToolLeader
	ToolMultiLeader
	ToolCenterline
	ToolRevisionCloud
	ToolHatch

	toolCount
)

type toolInfo struct {
	name  string
	typ   Type
	input Input
}

var toolTable = [toolCount]toolInfo{
	ToolNone:          {name: "none"},
	ToolTextSingle:    {"text-single", TypeText, InputClick},
	ToolTextMulti:     {"text-multi", TypeText, InputClick},
	ToolTextField:     {"text-field", TypeText, InputClick},
	ToolDimLinear:     {"linear", TypeDimension, InputTwoClick},
	ToolDimAligned:    {"aligned", TypeDimension, InputTwoClick},
	ToolDimAngular:    {"angular", TypeDimension, InputTwoClick},
	ToolRadius:        {"radius", TypeCircle, InputTwoClick},
	ToolDiameter:      {"diameter", TypeCircle, InputTwoClick},
	ToolLeader:        {"leader", TypeLeader, InputClick},
	ToolMultiLeader:   {"multileader", TypeLeader, InputClick},
	ToolCenterline:    {"centerline", TypeCenterline, InputTwoClick},
	ToolRevisionCloud: {"revision-cloud", TypeRevisionCloud, InputDrag},
	ToolHatch:         {"hatch", TypeHatch, InputTwoClick},
}

// Tools returns every selectable tool, excluding ToolNone.
func Tools() []Tool {
	out := make([]Tool, 0, toolCount-1)
	for t := ToolNone + 1; t < toolCount; t++ {
		out = append(out, t)
	}
	return out
}

// Valid reports whether t is a selectable tool.
func (t Tool) Valid() bool {
	return t > ToolNone && t < toolCount
}

// String returns the tool's public name.
func (t Tool) String() string {
	if t < 0 || t >= toolCount {
		return fmt.Sprintf("tool(%d)", int(t))
	}
	return toolTable[t].name
}

// Type returns the annotation type the tool produces.
func (t Tool) Type() Type {
	if !t.Valid() {
		return ""
	}
	return toolTable[t].typ
}

// Input returns how the tool consumes pointer events.
func (t Tool) Input() Input {
	if !t.Valid() {
		return InputClick
	}
	return toolTable[t].input
}

// ParseTool resolves a public tool name.
func ParseTool(name string) (Tool, error) {
	for t := ToolNone + 1; t < toolCount; t++ {
		if toolTable[t].name == name {
			return t, nil
		}
	}
	return ToolNone, fmt.Errorf("%w: %q", ErrUnknownTool, name)
}

// MarshalText encodes the tool by name.
func (t Tool) MarshalText() ([]byte, error) {
	if !t.Valid() && t != ToolNone {
		return nil, fmt.Errorf("%w: %d", ErrUnknownTool, int(t))
	}
	return []byte(t.String()), nil
}

// UnmarshalText decodes a tool name.
func (t *Tool) UnmarshalText(b []byte) error {
	if string(b) == "none" || len(b) == 0 {
		*t = ToolNone
		return nil
	}
	v, err := ParseTool(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}
