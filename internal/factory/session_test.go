package factory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/micro-annotate-mcp/internal/annotation"
	"github.com/ironsheep/micro-annotate-mcp/internal/geom"
)

func TestSession_TwoClickStateMachine(t *testing.T) {
	f, _ := newTestFactory(t)
	s, err := f.NewSession(annotation.ToolDimLinear)
	require.NoError(t, err)

	assert.Equal(t, StateIdle, s.State())

	_, ok := s.Press(geom.Pt(0, 0))
	assert.False(t, ok)
	assert.Equal(t, StateAwaitingSecond, s.State())

	// Motion and release between the clicks do not commit.
	s.Move(geom.Pt(1, 1))
	_, ok = s.Release(geom.Pt(1, 1))
	assert.False(t, ok)

	b, ok := s.Press(geom.Pt(3, 4))
	require.True(t, ok)
	assert.Equal(t, 5.0, b.Record.Data.Dimension.Distance)
	assert.Equal(t, StateIdle, s.State())
}

func TestSession_EscapeResets(t *testing.T) {
	f, _ := newTestFactory(t)
	s, err := f.NewSession(annotation.ToolCenterline)
	require.NoError(t, err)

	s.Press(geom.Pt(0, 0))
	s.Cancel()
	assert.Equal(t, StateIdle, s.State())
	assert.Empty(t, s.Points())

	// The next press starts a fresh sequence.
	_, ok := s.Press(geom.Pt(5, 5))
	assert.False(t, ok)
	assert.Equal(t, StateAwaitingSecond, s.State())
}

func TestSession_CommitDiscardsIncompleteDimension(t *testing.T) {
	f, _ := newTestFactory(t)
	s, err := f.NewSession(annotation.ToolDimAligned)
	require.NoError(t, err)

	s.Press(geom.Pt(0, 0))
	_, ok := s.Commit()
	assert.False(t, ok)
	assert.Equal(t, StateIdle, s.State())
}

func TestSession_RevisionCloud(t *testing.T) {
	f, _ := newTestFactory(t)

	tests := []struct {
		name       string
		drag       []geom.Point
		wantRecord bool
	}{
		{"two points discarded", []geom.Point{geom.Pt(0, 0), geom.Pt(10, 0)}, false},
		{"five points kept", []geom.Point{geom.Pt(0, 0), geom.Pt(10, 0), geom.Pt(20, 10), geom.Pt(10, 20), geom.Pt(0, 10)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := f.NewSession(annotation.ToolRevisionCloud)
			require.NoError(t, err)

			s.Press(tt.drag[0])
			for _, p := range tt.drag[1:] {
				s.Move(p)
			}
			b, ok := s.Release(tt.drag[len(tt.drag)-1])

			assert.Equal(t, tt.wantRecord, ok)
			assert.Equal(t, StateIdle, s.State())
			if ok {
				assert.Equal(t, tt.drag, b.Record.Data.Cloud.Points)
				assert.True(t, b.Record.Data.Cloud.Closed, "last point is within tolerance of the first")
			}
		})
	}
}

func TestSession_MoveWithoutPressIsIgnored(t *testing.T) {
	f, _ := newTestFactory(t)
	s, err := f.NewSession(annotation.ToolRevisionCloud)
	require.NoError(t, err)

	s.Move(geom.Pt(1, 1))
	s.Move(geom.Pt(2, 2))
	assert.Empty(t, s.Points())
	assert.Equal(t, StateIdle, s.State())
}

func TestSession_TextNeedsSuppliedContent(t *testing.T) {
	f, _ := newTestFactory(t)
	s, err := f.NewSession(annotation.ToolTextSingle)
	require.NoError(t, err)

	_, ok := s.Press(geom.Pt(1, 1))
	assert.False(t, ok, "cancelled prompt discards")

	s.SetText("grain boundary")
	b, ok := s.Press(geom.Pt(1, 1))
	require.True(t, ok)
	assert.Equal(t, "grain boundary", b.Record.Data.Text.Content)

	_, ok = s.Press(geom.Pt(2, 2))
	assert.False(t, ok, "text is consumed by the commit")
}

func TestSession_RadiusEarlyCommit(t *testing.T) {
	f, _ := newTestFactory(t)
	s, err := f.NewSession(annotation.ToolRadius)
	require.NoError(t, err)

	s.Press(geom.Pt(50, 50))
	b, ok := s.Commit()
	require.True(t, ok)
	assert.Equal(t, DefaultOptions().DefaultRadius, b.Record.Data.Circle.Radius)
}

func TestNewSession_RejectsNone(t *testing.T) {
	f, _ := newTestFactory(t)
	_, err := f.NewSession(annotation.ToolNone)
	assert.ErrorIs(t, err, annotation.ErrUnknownTool)
}
