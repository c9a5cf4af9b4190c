package canvas

import (
	"github.com/ironsheep/micro-annotate-mcp/internal/annotation"
	"github.com/ironsheep/micro-annotate-mcp/internal/factory"
	"github.com/ironsheep/micro-annotate-mcp/internal/geom"
)

// ToolState describes the active tool and its in-flight input.
type ToolState struct {
	Tool   annotation.Tool `json:"tool"`
	State  string          `json:"state"`
	Points []geom.Point    `json:"points,omitempty"`
}

// SelectTool activates tool, discarding any in-flight sequence.
// annotation.ToolNone deactivates pointer input.
func (s *Surface) SelectTool(tool annotation.Tool) error {
	s.current = ""
	if tool == annotation.ToolNone {
		s.session = nil
		return nil
	}
	sess, err := s.f.NewSession(tool)
	if err != nil {
		return err
	}
	s.session = sess
	return nil
}

// ActiveTool returns the active tool and its session state.
func (s *Surface) ActiveTool() ToolState {
	if s.session == nil {
		return ToolState{Tool: annotation.ToolNone, State: factory.StateIdle.String()}
	}
	return ToolState{
		Tool:   s.session.Tool(),
		State:  s.session.State().String(),
		Points: s.session.Points(),
	}
}

// Press routes a button press to the active tool.
func (s *Surface) Press(p geom.Point) (*factory.Built, error) {
	if s.session == nil {
		return nil, nil
	}
	return s.emit(s.session.Press(p))
}

// Move routes pointer motion to the active tool.
func (s *Surface) Move(p geom.Point) {
	if s.session != nil {
		s.session.Move(p)
	}
}

// Release routes a button release to the active tool.
func (s *Surface) Release(p geom.Point) (*factory.Built, error) {
	if s.session == nil {
		return nil, nil
	}
	return s.emit(s.session.Release(p))
}

// Commit completes the in-flight sequence, as the Enter key does.
func (s *Surface) Commit() (*factory.Built, error) {
	if s.session == nil {
		return nil, nil
	}
	return s.emit(s.session.Commit())
}

// Escape discards the in-flight sequence.
func (s *Surface) Escape() {
	if s.session != nil {
		s.session.Cancel()
	}
}

// SupplyText provides the prompt answer for text and leader tools.
func (s *Surface) SupplyText(text string) {
	if s.session != nil {
		s.session.SetText(text)
	}
}

// Place builds an annotation directly from a complete point list.
func (s *Surface) Place(tool annotation.Tool, points []geom.Point, text string) (*factory.Built, error) {
	return s.emit(s.f.Build(tool, points, text))
}

func (s *Surface) emit(b factory.Built, ok bool) (*factory.Built, error) {
	if !ok {
		return nil, nil
	}
	if s.events.Commit != nil {
		if err := s.events.Commit(b); err != nil {
			return nil, err
		}
	}
	return &b, nil
}
