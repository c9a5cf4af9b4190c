// Package capture keeps the list of saved microscope captures.
//
// The list lives in a single key-value entry as a JSON array, newest first.
// It is read once when the Store is built and rewritten wholesale on every
// change. Persistence is best effort: an unreadable entry yields an empty
// list and failed writes are logged, leaving the in-memory list authoritative.
package capture

import (
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ironsheep/micro-annotate-mcp/internal/imaging"
)

var (
	// ErrNotFound is returned when no capture has the requested id.
	ErrNotFound = errors.New("capture not found")
	// ErrInvalidImage is returned when image data is not an image data URL.
	ErrInvalidImage = errors.New("image data must be a data:image/ URL")
)

// Metadata describes how a capture was acquired.
type Metadata struct {
	Resolution    string   `json:"resolution,omitempty"`
	Magnification string   `json:"magnification,omitempty"`
	Camera        string   `json:"camera,omitempty"`
	Notes         string   `json:"notes,omitempty"`
	Tags          []string `json:"tags,omitempty"`
	AnalysisType  string   `json:"analysisType,omitempty"`
}

// Capture is a saved still image plus its acquisition metadata.
type Capture struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	ImageData string    `json:"imageData"`
	Metadata  Metadata  `json:"metadata"`
}

func (c Capture) clone() Capture {
	if c.Metadata.Tags != nil {
		c.Metadata.Tags = append([]string(nil), c.Metadata.Tags...)
	}
	return c
}

// KV is the persistent key-value storage backing the list.
type KV interface {
	Get(key string) (string, bool, error)
	Put(key, value string) error
}

// Store is the capture list. It is safe for concurrent use.
type Store struct {
	mu       sync.Mutex
	kv       KV
	key      string
	log      *slog.Logger
	captures []Capture
	now      func() time.Time
}

// New builds a Store over kv and loads the list stored under key.
func New(kv KV, key string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{kv: kv, key: key, log: logger, now: time.Now}
	s.captures = s.load()
	return s
}

func (s *Store) load() []Capture {
	raw, ok, err := s.kv.Get(s.key)
	if err != nil {
		s.log.Warn("failed to read capture list", "key", s.key, "error", err)
		return []Capture{}
	}
	if !ok || strings.TrimSpace(raw) == "" {
		return []Capture{}
	}
	var list []Capture
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		s.log.Warn("discarding unreadable capture list", "key", s.key, "error", err)
		return []Capture{}
	}
	if list == nil {
		list = []Capture{}
	}
	return list
}

// persist rewrites the whole list. Callers hold s.mu.
func (s *Store) persist() {
	data, err := json.Marshal(s.captures)
	if err != nil {
		s.log.Error("failed to encode capture list", "error", err)
		return
	}
	if err := s.kv.Put(s.key, string(data)); err != nil {
		s.log.Error("failed to write capture list", "key", s.key, "count", len(s.captures), "error", err)
	}
}

// Add stores a capture of an image data URL at the front of the list.
func (s *Store) Add(imageData string, meta Metadata) (Capture, error) {
	if !strings.HasPrefix(imageData, "data:image/") {
		return Capture{}, ErrInvalidImage
	}
	id, err := uuid.NewV7()
	if err != nil {
		return Capture{}, fmt.Errorf("failed to generate capture id: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c := Capture{
		ID:        id.String(),
		Timestamp: s.now().UTC(),
		ImageData: imageData,
		Metadata:  meta,
	}.clone()
	s.captures = append([]Capture{c}, s.captures...)
	s.persist()
	return c.clone(), nil
}

// AddImage downsizes img to fit within maxDimension, embeds it as a JPEG
// data URL and stores it. An empty Resolution is filled with the size of img.
func (s *Store) AddImage(img image.Image, maxDimension, quality int, meta Metadata) (Capture, error) {
	if meta.Resolution == "" {
		b := img.Bounds()
		meta.Resolution = fmt.Sprintf("%dx%d", b.Dx(), b.Dy())
	}
	data, err := imaging.EncodeDataURL(imaging.Thumbnail(img, maxDimension), "jpg", quality)
	if err != nil {
		return Capture{}, err
	}
	return s.Add(data, meta)
}

// AddFile decodes the image at path and stores it like AddImage.
func (s *Store) AddFile(path string, maxDimension, quality int, meta Metadata) (Capture, error) {
	img, err := imaging.Decode(path)
	if err != nil {
		return Capture{}, err
	}
	return s.AddImage(img, maxDimension, quality, meta)
}

// List returns a copy of the captures, newest first.
func (s *Store) List() []Capture {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Capture, len(s.captures))
	for i, c := range s.captures {
		out[i] = c.clone()
	}
	return out
}

// Get returns the capture with the given id.
func (s *Store) Get(id string) (Capture, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range s.captures {
		if c.ID == id {
			return c.clone(), nil
		}
	}
	return Capture{}, fmt.Errorf("%w: %s", ErrNotFound, id)
}

// Delete removes the capture with the given id.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, c := range s.captures {
		if c.ID == id {
			s.captures = append(s.captures[:i:i], s.captures[i+1:]...)
			s.persist()
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrNotFound, id)
}

// Clear removes every capture and returns how many were removed.
func (s *Store) Clear() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.captures)
	s.captures = []Capture{}
	s.persist()
	return n
}

// Len returns the number of captures.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.captures)
}
