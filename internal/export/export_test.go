package export

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/micro-annotate-mcp/internal/annotation"
	"github.com/ironsheep/micro-annotate-mcp/internal/calibration"
	"github.com/ironsheep/micro-annotate-mcp/internal/factory"
	"github.com/ironsheep/micro-annotate-mcp/internal/geom"
	"github.com/ironsheep/micro-annotate-mcp/internal/store"
	"github.com/ironsheep/micro-annotate-mcp/internal/style"
)

type env struct{}

func (env) Style() style.Style                    { return style.Default() }
func (env) Calibration() calibration.Calibration  { return calibration.Identity() }
func (env) SnapCircle(geom.Point) (float64, bool) { return 0, false }
func (env) ResolveField(string) (string, bool)    { return "", false }

func build(t *testing.T, tool annotation.Tool, text string, pts ...geom.Point) annotation.Record {
	t.Helper()
	b, ok := factory.New(factory.DefaultOptions(), env{}).Build(tool, pts, text)
	require.True(t, ok)
	return b.Record
}

func redLine() Scene {
	return Scene{
		Width:  100,
		Height: 100,
		Shapes: []annotation.Shape{{
			Kind:   annotation.ShapeLine,
			Points: []geom.Point{geom.Pt(10, 50), geom.Pt(90, 50)},
			Color:  "#ff0000",
			Width:  4,
		}},
	}
}

func grayBackground(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = 60, 60, 60, 255
	}
	return img
}

func TestNewScene(t *testing.T) {
	dim := build(t, annotation.ToolDimLinear, "", geom.Pt(0, 0), geom.Pt(30, 40))
	txt := build(t, annotation.ToolTextSingle, "ferrite", geom.Pt(5, 5))
	p := store.Payload{Annotations: []annotation.Record{dim, txt}}

	s := NewScene(p, nil, 640, 480)
	assert.Equal(t, 640, s.Width)
	assert.Equal(t, 480, s.Height)
	assert.Len(t, s.Shapes, len(factory.Shapes(dim))+len(factory.Shapes(txt)))

	withBg := NewScene(p, grayBackground(200, 150), 640, 480)
	assert.Equal(t, 200, withBg.Width)
	assert.Equal(t, 150, withBg.Height)

	empty := NewScene(store.Payload{}, nil, 0, 0)
	w, h := empty.size()
	assert.Equal(t, 1, w)
	assert.Equal(t, 1, h)
}

func TestRasterize_DrawsShapesOverBackground(t *testing.T) {
	s := redLine()
	s.Background = grayBackground(100, 100)

	img, err := Rasterize(s)
	require.NoError(t, err)

	r, g, b, _ := img.At(50, 50).RGBA()
	assert.Greater(t, r>>8, uint32(200))
	assert.Less(t, g>>8, uint32(50))
	assert.Less(t, b>>8, uint32(50))

	r, _, _, _ = img.At(50, 10).RGBA()
	assert.Equal(t, uint32(60), r>>8, "background must show through away from shapes")

	// The source background is not drawn on.
	assert.Equal(t, uint8(60), s.Background.(*image.RGBA).Pix[(50*100+50)*4])
}

func TestRasterize_AllShapeKinds(t *testing.T) {
	recs := []annotation.Record{
		build(t, annotation.ToolDimAligned, "", geom.Pt(10, 10), geom.Pt(120, 80)),
		build(t, annotation.ToolDiameter, "", geom.Pt(100, 100), geom.Pt(130, 100)),
		build(t, annotation.ToolMultiLeader, "grain", geom.Pt(50, 150)),
		build(t, annotation.ToolCenterline, "", geom.Pt(0, 190), geom.Pt(200, 190)),
		build(t, annotation.ToolHatch, "", geom.Pt(150, 20), geom.Pt(190, 60)),
		build(t, annotation.ToolTextMulti, "a\nb", geom.Pt(20, 120)),
	}
	s := NewScene(store.Payload{Annotations: recs}, nil, 200, 200)

	img, err := Rasterize(s)
	require.NoError(t, err)
	assert.Equal(t, 200, img.Bounds().Dx())
}

func TestWriteJPEG(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJPEG(&buf, redLine(), 0.8))

	img, err := jpeg.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, 100, img.Bounds().Dx())
	r, _, _, _ := img.At(5, 5).RGBA()
	assert.Greater(t, r>>8, uint32(240), "jpeg without background is white")
}

func TestJPEGQuality(t *testing.T) {
	assert.Equal(t, 92, jpegQuality(0))
	assert.Equal(t, 80, jpegQuality(0.8))
	assert.Equal(t, 100, jpegQuality(1))
	assert.Equal(t, 1, jpegQuality(0.001))
}

func TestWritePNG(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, redLine(), store.FormatPNG, 1))

	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, 100, img.Bounds().Dy())
}

func TestWriteSVG(t *testing.T) {
	s := redLine()
	s.Background = grayBackground(100, 100)
	s.Shapes = append(s.Shapes,
		annotation.Shape{Kind: annotation.ShapeText, Points: []geom.Point{geom.Pt(5, 20)}, Text: "a<b\nc", Color: "#ffff00", FontSize: 14},
		annotation.Shape{Kind: annotation.ShapeCircle, Points: []geom.Point{geom.Pt(50, 50)}, Radius: 20, Color: "#00ff00", Width: 2, Dashed: true},
		annotation.Shape{Kind: annotation.ShapeArrowhead, Points: []geom.Point{geom.Pt(0, 0), geom.Pt(5, 5), geom.Pt(0, 5)}, Color: "#ff0000"},
		annotation.Shape{Kind: annotation.ShapePolyline, Points: []geom.Point{geom.Pt(0, 0), geom.Pt(5, 5), geom.Pt(9, 0)}, Closed: true, Color: "#0000ff"},
	)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, s, store.FormatSVG, 1))
	out := buf.String()

	assert.Contains(t, out, "<svg")
	assert.Contains(t, out, "data:image/png;base64,")
	assert.Contains(t, out, "<line")
	assert.Contains(t, out, "stroke:#ff0000")
	assert.Contains(t, out, "stroke-dasharray:6,4")
	assert.Contains(t, out, "<circle")
	assert.Contains(t, out, "<polygon")
	assert.Contains(t, out, "a&lt;b")
	assert.Equal(t, 2, strings.Count(out, "<text"))
	assert.True(t, strings.HasSuffix(strings.TrimSpace(out), "</svg>"))
}

func TestWritePDF(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, redLine(), store.FormatPDF, 1))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF")))
}

func TestWrite_UnsupportedFormat(t *testing.T) {
	err := Write(&bytes.Buffer{}, redLine(), store.Format("tiff"), 1)
	assert.ErrorIs(t, err, store.ErrInvalidExport)
}

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out", "slide.png")

	n, err := WriteFile(path, redLine(), store.FormatPNG, 1)
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, n, info.Size())

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary file must not be left behind")

	_, err = WriteFile(filepath.Join(dir, "bad.tiff"), redLine(), store.Format("tiff"), 1)
	assert.Error(t, err)
	_, statErr := os.Stat(filepath.Join(dir, "bad.tiff"))
	assert.True(t, os.IsNotExist(statErr))
}

type memKV map[string]string

func (m memKV) Get(k string) (string, bool, error) {
	v, ok := m[k]
	return v, ok, nil
}

func (m memKV) Put(k, v string) error {
	m[k] = v
	return nil
}

func TestSaver(t *testing.T) {
	kv := memKV{}
	saver := NewSaver(kv, "annotations")

	recs, err := saver.Load()
	require.NoError(t, err)
	assert.Empty(t, recs)

	dim := build(t, annotation.ToolDimLinear, "", geom.Pt(0, 0), geom.Pt(3, 4))
	require.NoError(t, saver.Save([]annotation.Record{dim}))
	assert.True(t, strings.HasPrefix(kv["annotations"], "["))

	recs, err = saver.Load()
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, dim.ID, recs[0].ID)
	assert.Equal(t, 5.0, recs[0].Data.Dimension.Distance)

	require.NoError(t, saver.Save(nil))
	assert.Equal(t, "[]", kv["annotations"])
}

func TestParseColor(t *testing.T) {
	r, g, b, _ := parseColor("#ff8000").RGBA()
	assert.Equal(t, uint32(255), r>>8)
	assert.Equal(t, uint32(128), g>>8)
	assert.Equal(t, uint32(0), b>>8)
	assert.Equal(t, color.Black, parseColor("nope"))
}
