package factory

import (
	"fmt"

	"github.com/ironsheep/micro-annotate-mcp/internal/annotation"
	"github.com/ironsheep/micro-annotate-mcp/internal/geom"
)

// State is the position of a session in its tool's state machine.
type State int

const (
	StateIdle State = iota
	StateAwaitingSecond
	StateCollecting
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingSecond:
		return "awaiting-second-point"
	case StateCollecting:
		return "collecting"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Session interprets pointer events for one active tool. A committed or
// discarded sequence always returns the session to idle.
type Session struct {
	f      *Factory
	tool   annotation.Tool
	state  State
	points []geom.Point
	text   string
}

// NewSession starts an idle session for tool.
func (f *Factory) NewSession(tool annotation.Tool) (*Session, error) {
	if !tool.Valid() {
		return nil, fmt.Errorf("%w: %s", annotation.ErrUnknownTool, tool)
	}
	return &Session{f: f, tool: tool}, nil
}

// Tool returns the session's tool.
func (s *Session) Tool() annotation.Tool { return s.tool }

// State returns the current state.
func (s *Session) State() State { return s.state }

// Points returns a copy of the points collected so far.
func (s *Session) Points() []geom.Point {
	return append([]geom.Point(nil), s.points...)
}

// SetText supplies the text a text or leader tool places on its next commit.
// For text-field it names the field to resolve. An empty string stands for a
// cancelled prompt.
func (s *Session) SetText(text string) {
	s.text = text
}

// Press handles a button press at p.
func (s *Session) Press(p geom.Point) (Built, bool) {
	switch s.tool.Input() {
	case annotation.InputClick:
		s.points = []geom.Point{p}
		return s.finish(false)
	case annotation.InputTwoClick:
		if s.state == StateAwaitingSecond {
			s.points = append(s.points, p)
			return s.finish(false)
		}
		s.state = StateAwaitingSecond
		s.points = []geom.Point{p}
	case annotation.InputDrag:
		if s.state == StateCollecting {
			s.points = append(s.points, p)
			return Built{}, false
		}
		s.state = StateCollecting
		s.points = []geom.Point{p}
	}
	return Built{}, false
}

// Move handles pointer motion. Only a collecting drag records it.
func (s *Session) Move(p geom.Point) {
	if s.state == StateCollecting {
		s.points = append(s.points, p)
	}
}

// Release handles a button release. It completes a drag; for click tools it
// is ignored.
func (s *Session) Release(p geom.Point) (Built, bool) {
	if s.state != StateCollecting {
		return Built{}, false
	}
	return s.finish(false)
}

// Commit completes the current sequence without further input, the way the
// Enter key does. Two-click tools committed after one point use their
// fallback size where they have one; otherwise the sequence is discarded.
func (s *Session) Commit() (Built, bool) {
	switch s.state {
	case StateAwaitingSecond:
		return s.finish(true)
	case StateCollecting:
		return s.finish(false)
	}
	return Built{}, false
}

// Cancel drops any in-flight sequence.
func (s *Session) Cancel() {
	s.state = StateIdle
	s.points = nil
}

func (s *Session) finish(early bool) (Built, bool) {
	in := input{tool: s.tool, points: s.points, text: s.text, early: early}
	s.state = StateIdle
	s.points = nil
	b, ok := s.f.build(in)
	if ok && s.tool.Type() == annotation.TypeText {
		s.text = ""
	}
	return b, ok
}
