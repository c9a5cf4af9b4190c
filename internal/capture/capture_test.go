package capture

import (
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"

	"github.com/ironsheep/micro-annotate-mcp/internal/storage"
)

const key = "microscopy_captures"

const pixel = "data:image/png;base64,iVBORw0KGgo="

// memKV is an in-memory KV that can be told to fail.
type memKV struct {
	data     map[string]string
	getErr   error
	putErr   error
	putCalls int
}

func newMemKV() *memKV { return &memKV{data: map[string]string{}} }

func (m *memKV) Get(k string) (string, bool, error) {
	if m.getErr != nil {
		return "", false, m.getErr
	}
	v, ok := m.data[k]
	return v, ok, nil
}

func (m *memKV) Put(k, v string) error {
	m.putCalls++
	if m.putErr != nil {
		return m.putErr
	}
	m.data[k] = v
	return nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func stored(t *testing.T, kv *memKV) []Capture {
	t.Helper()
	var list []Capture
	require.NoError(t, json.Unmarshal([]byte(kv.data[key]), &list))
	return list
}

func TestAdd_NewestFirstAndPersisted(t *testing.T) {
	kv := newMemKV()
	s := New(kv, key, quietLogger())

	first, err := s.Add(pixel, Metadata{Magnification: "10x"})
	require.NoError(t, err)
	second, err := s.Add(pixel, Metadata{Magnification: "40x", Tags: []string{"pearlite"}})
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	list := s.List()
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, first.ID, list[1].ID)

	persisted := stored(t, kv)
	require.Len(t, persisted, 2)
	assert.Equal(t, second.ID, persisted[0].ID)
	assert.Equal(t, []string{"pearlite"}, persisted[0].Metadata.Tags)
	assert.Equal(t, 2, kv.putCalls)
}

func TestAdd_RejectsNonImageData(t *testing.T) {
	kv := newMemKV()
	s := New(kv, key, quietLogger())

	_, err := s.Add("http://example.com/a.png", Metadata{})
	assert.ErrorIs(t, err, ErrInvalidImage)
	assert.Equal(t, 0, s.Len())
	assert.Equal(t, 0, kv.putCalls)
}

func TestNew_LoadsExistingList(t *testing.T) {
	kv := newMemKV()
	ts := time.Date(2025, 8, 14, 11, 57, 20, 0, time.UTC)
	raw, err := json.Marshal([]Capture{{ID: "a", Timestamp: ts, ImageData: pixel, Metadata: Metadata{Camera: "hikrobot"}}})
	require.NoError(t, err)
	kv.data[key] = string(raw)

	list := New(kv, key, quietLogger()).List()
	require.Len(t, list, 1)
	assert.Equal(t, "a", list[0].ID)
	assert.Equal(t, "hikrobot", list[0].Metadata.Camera)
	assert.True(t, ts.Equal(list[0].Timestamp))
}

func TestNew_ReadFailuresYieldEmptyList(t *testing.T) {
	tests := []struct {
		name string
		kv   *memKV
	}{
		{"read error", &memKV{data: map[string]string{}, getErr: errors.New("quota exceeded")}},
		{"corrupt json", &memKV{data: map[string]string{key: "{not json"}}},
		{"null", &memKV{data: map[string]string{key: "null"}}},
		{"blank", &memKV{data: map[string]string{key: "  "}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(tt.kv, key, quietLogger())
			assert.Equal(t, 0, s.Len())
			assert.NotNil(t, s.List())
		})
	}
}

func TestWriteFailureIsSwallowed(t *testing.T) {
	kv := newMemKV()
	kv.putErr = errors.New("disk full")
	var logs strings.Builder
	s := New(kv, key, slog.New(slog.NewTextHandler(&logs, nil)))

	c, err := s.Add(pixel, Metadata{})
	require.NoError(t, err)
	assert.Equal(t, 1, s.Len())
	assert.Contains(t, logs.String(), "failed to write capture list")

	require.NoError(t, s.Delete(c.ID))
	assert.Equal(t, 0, s.Len())
}

func TestDelete(t *testing.T) {
	kv := newMemKV()
	s := New(kv, key, quietLogger())
	a, _ := s.Add(pixel, Metadata{Notes: "a"})
	b, _ := s.Add(pixel, Metadata{Notes: "b"})
	c, _ := s.Add(pixel, Metadata{Notes: "c"})

	require.NoError(t, s.Delete(b.ID))
	list := s.List()
	require.Len(t, list, 2)
	assert.Equal(t, c.ID, list[0].ID)
	assert.Equal(t, a.ID, list[1].ID)
	assert.Len(t, stored(t, kv), 2)

	err := s.Delete("missing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.Get(b.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	got, err := s.Get(a.ID)
	require.NoError(t, err)
	assert.Equal(t, "a", got.Metadata.Notes)
}

func TestClear(t *testing.T) {
	kv := newMemKV()
	s := New(kv, key, quietLogger())
	_, _ = s.Add(pixel, Metadata{})
	_, _ = s.Add(pixel, Metadata{})

	assert.Equal(t, 2, s.Clear())
	assert.Equal(t, 0, s.Len())
	assert.Equal(t, "[]", kv.data[key])
}

func TestList_ReturnsCopies(t *testing.T) {
	s := New(newMemKV(), key, quietLogger())
	_, err := s.Add(pixel, Metadata{Tags: []string{"ferrite"}})
	require.NoError(t, err)

	list := s.List()
	list[0].Metadata.Tags[0] = "changed"
	list[0].ImageData = "changed"

	again := s.List()
	assert.Equal(t, "ferrite", again[0].Metadata.Tags[0])
	assert.Equal(t, pixel, again[0].ImageData)
}

func TestAddImage_Thumbnail(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 400, 200))
	for i := range img.Pix {
		img.Pix[i] = 200
	}
	img.Set(0, 0, color.Black)

	s := New(newMemKV(), key, quietLogger())
	c, err := s.AddImage(img, 100, 80, Metadata{})
	require.NoError(t, err)
	assert.Equal(t, "400x200", c.Metadata.Resolution)
	assert.True(t, strings.HasPrefix(c.ImageData, "data:image/jpeg;base64,"))
}

func TestAddFile(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 30, 20))
	path := filepath.Join(t.TempDir(), "still.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())

	s := New(newMemKV(), key, quietLogger())
	c, err := s.AddFile(path, 100, 80, Metadata{Camera: "DFK 33"})
	require.NoError(t, err)
	assert.Equal(t, "30x20", c.Metadata.Resolution)
	assert.Equal(t, "DFK 33", c.Metadata.Camera)

	_, err = s.AddFile(filepath.Join(t.TempDir(), "missing.png"), 100, 80, Metadata{})
	assert.Error(t, err)
	assert.Equal(t, 1, s.Len())
}

func TestStore_WithSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "captures.db")
	db, err := storage.Connect(&storage.Config{Path: path, LogLevel: logger.Silent})
	require.NoError(t, err)
	defer storage.Close(db)

	s := New(storage.NewKV(db), key, quietLogger())
	c, err := s.Add(pixel, Metadata{AnalysisType: "graphite"})
	require.NoError(t, err)

	reloaded := New(storage.NewKV(db), key, quietLogger())
	list := reloaded.List()
	require.Len(t, list, 1)
	assert.Equal(t, c.ID, list[0].ID)
	assert.Equal(t, "graphite", list[0].Metadata.AnalysisType)
}
