// Package store holds the authoritative ordered list of annotation records.
//
// The store knows nothing about rendering. Visibility is presentation state
// kept beside the records, so toggling it never changes a record or creates
// history.
package store

import (
	"errors"
	"fmt"

	"github.com/ironsheep/micro-annotate-mcp/internal/annotation"
	"github.com/ironsheep/micro-annotate-mcp/internal/history"
)

var (
	// ErrNotFound is returned when no record has the requested ID.
	ErrNotFound = errors.New("annotation not found")

	// ErrDuplicate is returned when adding a record whose ID is already stored.
	ErrDuplicate = errors.New("annotation already exists")
)

// Store is an ordered set of records. It is not safe for concurrent use.
type Store struct {
	records []annotation.Record
	hidden  map[annotation.ID]bool
}

// New creates an empty store.
func New() *Store {
	return &Store{hidden: make(map[annotation.ID]bool)}
}

// Len returns the number of records.
func (s *Store) Len() int { return len(s.records) }

// List returns a value copy of every record in order.
func (s *Store) List() []annotation.Record {
	out := make([]annotation.Record, len(s.records))
	for i, r := range s.records {
		out[i] = r.Clone()
	}
	return out
}

// Get returns a copy of the record with id and its position.
func (s *Store) Get(id annotation.ID) (annotation.Record, int, error) {
	i := s.indexOf(id)
	if i < 0 {
		return annotation.Record{}, -1, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return s.records[i].Clone(), i, nil
}

func (s *Store) indexOf(id annotation.ID) int {
	for i := range s.records {
		if s.records[i].ID == id {
			return i
		}
	}
	return -1
}

// Add appends rec and returns its position.
func (s *Store) Add(rec annotation.Record) (int, error) {
	return s.Insert(len(s.records), rec)
}

// Insert places rec at index, clamped to the list bounds.
func (s *Store) Insert(index int, rec annotation.Record) (int, error) {
	if s.indexOf(rec.ID) >= 0 {
		return -1, fmt.Errorf("%w: %s", ErrDuplicate, rec.ID)
	}
	if index < 0 {
		index = 0
	}
	if index > len(s.records) {
		index = len(s.records)
	}
	s.records = append(s.records, annotation.Record{})
	copy(s.records[index+1:], s.records[index:])
	s.records[index] = rec.Clone()
	return index, nil
}

// Update replaces the stored record with the same ID and returns the
// previous version and its position.
func (s *Store) Update(rec annotation.Record) (annotation.Record, int, error) {
	i := s.indexOf(rec.ID)
	if i < 0 {
		return annotation.Record{}, -1, fmt.Errorf("%w: %s", ErrNotFound, rec.ID)
	}
	before := s.records[i]
	s.records[i] = rec.Clone()
	return before, i, nil
}

// Delete removes the record with id and returns it and its former position.
func (s *Store) Delete(id annotation.ID) (annotation.Record, int, error) {
	i := s.indexOf(id)
	if i < 0 {
		return annotation.Record{}, -1, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	rec := s.records[i]
	s.records = append(s.records[:i], s.records[i+1:]...)
	delete(s.hidden, id)
	return rec, i, nil
}

// Clear removes every record and returns them in order.
func (s *Store) Clear() []annotation.Record {
	out := s.records
	s.records = nil
	s.hidden = make(map[annotation.ID]bool)
	return out
}

// Apply performs a history entry against the store.
func (s *Store) Apply(e history.Entry) error {
	switch e.Kind {
	case history.KindAdd:
		if e.After == nil {
			return fmt.Errorf("add entry without record")
		}
		_, err := s.Insert(e.Index, *e.After)
		return err
	case history.KindDelete:
		if e.Before == nil {
			return fmt.Errorf("delete entry without record")
		}
		_, _, err := s.Delete(e.Before.ID)
		return err
	case history.KindUpdate:
		if e.After == nil {
			return fmt.Errorf("update entry without record")
		}
		_, _, err := s.Update(*e.After)
		return err
	case history.KindBatch:
		for i, child := range e.Batch {
			if err := s.Apply(child); err != nil {
				return fmt.Errorf("batch step %d: %w", i, err)
			}
		}
		return nil
	}
	return fmt.Errorf("unknown history entry kind %s", e.Kind)
}

// SetVisible shows or hides a record.
func (s *Store) SetVisible(id annotation.ID, visible bool) error {
	if s.indexOf(id) < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if visible {
		delete(s.hidden, id)
	} else {
		s.hidden[id] = true
	}
	return nil
}

// Visible reports whether a record is shown. Unknown IDs report false.
func (s *Store) Visible(id annotation.ID) bool {
	return s.indexOf(id) >= 0 && !s.hidden[id]
}

// ShowAll makes every record visible.
func (s *Store) ShowAll() {
	s.hidden = make(map[annotation.ID]bool)
}

// HideAll hides every record.
func (s *Store) HideAll() {
	for _, r := range s.records {
		s.hidden[r.ID] = true
	}
}

// Entry is a record paired with its visibility, as shown in listings.
type Entry struct {
	annotation.Record
	Visible bool `json:"visible"`
}

// Entries returns every record with its visibility, in order.
func (s *Store) Entries() []Entry {
	out := make([]Entry, len(s.records))
	for i, r := range s.records {
		out[i] = Entry{Record: r.Clone(), Visible: !s.hidden[r.ID]}
	}
	return out
}

// Group is the records of one type.
type Group struct {
	Type    annotation.Type `json:"type"`
	Count   int             `json:"count"`
	Entries []Entry         `json:"annotations"`
}

// Groups partitions the records by type. Groups follow annotation.Types
// order, records keep store order, and empty types are omitted.
func (s *Store) Groups() []Group {
	byType := make(map[annotation.Type][]Entry)
	for _, e := range s.Entries() {
		byType[e.Type] = append(byType[e.Type], e)
	}
	var out []Group
	for _, t := range annotation.Types() {
		if es := byType[t]; len(es) > 0 {
			out = append(out, Group{Type: t, Count: len(es), Entries: es})
		}
	}
	return out
}
