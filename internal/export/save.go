package export

import (
	"encoding/json"
	"fmt"

	"github.com/ironsheep/micro-annotate-mcp/internal/annotation"
)

// KV is the persistent key-value storage the saver writes to.
type KV interface {
	Get(key string) (string, bool, error)
	Put(key, value string) error
}

// Saver is the save collaborator: it stores the full annotation list as a
// JSON array under one key.
type Saver struct {
	kv  KV
	key string
}

// NewSaver returns a Saver writing under key.
func NewSaver(kv KV, key string) *Saver {
	return &Saver{kv: kv, key: key}
}

// Save replaces the stored list with recs.
func (s *Saver) Save(recs []annotation.Record) error {
	if recs == nil {
		recs = []annotation.Record{}
	}
	data, err := json.Marshal(recs)
	if err != nil {
		return fmt.Errorf("failed to encode annotations: %w", err)
	}
	if err := s.kv.Put(s.key, string(data)); err != nil {
		return fmt.Errorf("failed to save annotations: %w", err)
	}
	return nil
}

// Load returns the stored list, or an empty list when nothing was saved.
func (s *Saver) Load() ([]annotation.Record, error) {
	raw, ok, err := s.kv.Get(s.key)
	if err != nil {
		return nil, fmt.Errorf("failed to read annotations: %w", err)
	}
	recs := []annotation.Record{}
	if !ok {
		return recs, nil
	}
	if err := json.Unmarshal([]byte(raw), &recs); err != nil {
		return nil, fmt.Errorf("failed to decode annotations: %w", err)
	}
	return recs, nil
}
