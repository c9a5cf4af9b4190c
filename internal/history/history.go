// Package history records annotation edits for undo and redo.
//
// Entries are diffs rather than full snapshots: an add, update or delete of
// one record at a known position, or a batch of them. Entries live in a ring
// buffer; when the buffer is full the oldest entry is dropped, so memory is
// bounded by the configured limit rather than by session length.
package history

import (
	"fmt"

	"github.com/ironsheep/micro-annotate-mcp/internal/annotation"
)

// Kind is the edit an entry records.
type Kind int

const (
	KindAdd Kind = iota
	KindUpdate
	KindDelete
	KindBatch
)

func (k Kind) String() string {
	switch k {
	case KindAdd:
		return "add"
	case KindUpdate:
		return "update"
	case KindDelete:
		return "delete"
	case KindBatch:
		return "batch"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Entry is one undoable edit. Index is the record's position in the store
// when the edit was made. Before is set for update and delete, After for add
// and update. Batch entries hold their children in application order.
type Entry struct {
	Kind   Kind
	Index  int
	Before *annotation.Record
	After  *annotation.Record
	Batch  []Entry
}

// Add records the insertion of rec at index.
func Add(index int, rec annotation.Record) Entry {
	r := rec.Clone()
	return Entry{Kind: KindAdd, Index: index, After: &r}
}

// Update records the replacement of before with after at index.
func Update(index int, before, after annotation.Record) Entry {
	b, a := before.Clone(), after.Clone()
	return Entry{Kind: KindUpdate, Index: index, Before: &b, After: &a}
}

// Delete records the removal of rec from index.
func Delete(index int, rec annotation.Record) Entry {
	r := rec.Clone()
	return Entry{Kind: KindDelete, Index: index, Before: &r}
}

// Batch groups entries that undo and redo together.
func Batch(entries ...Entry) Entry {
	return Entry{Kind: KindBatch, Batch: entries}
}

// Inverse returns the entry that undoes e.
func (e Entry) Inverse() Entry {
	switch e.Kind {
	case KindAdd:
		return Entry{Kind: KindDelete, Index: e.Index, Before: e.After}
	case KindDelete:
		return Entry{Kind: KindAdd, Index: e.Index, After: e.Before}
	case KindUpdate:
		return Entry{Kind: KindUpdate, Index: e.Index, Before: e.After, After: e.Before}
	case KindBatch:
		inv := make([]Entry, len(e.Batch))
		for i, child := range e.Batch {
			inv[len(e.Batch)-1-i] = child.Inverse()
		}
		return Entry{Kind: KindBatch, Batch: inv}
	}
	return e
}

// History is a linear undo/redo log. It is not safe for concurrent use.
type History struct {
	buf    []Entry
	limit  int
	start  int // index of the oldest entry in buf (ring mode)
	count  int // entries held
	cursor int // entries currently applied; cursor <= count
}

// New creates a history holding at most limit entries. A limit of 0 or less
// means unbounded.
func New(limit int) *History {
	h := &History{limit: limit}
	if limit > 0 {
		h.buf = make([]Entry, limit)
	}
	return h
}

func (h *History) slot(i int) int {
	if h.limit <= 0 {
		return i
	}
	return (h.start + i) % h.limit
}

// Push appends e after the cursor, discarding any redo branch. When the
// buffer is full the oldest entry is dropped.
func (h *History) Push(e Entry) {
	h.count = h.cursor
	if h.limit <= 0 {
		h.buf = append(h.buf[:h.count], e)
		h.count++
		h.cursor++
		return
	}
	if h.count == h.limit {
		h.buf[h.start] = Entry{}
		h.start = (h.start + 1) % h.limit
		h.count--
		h.cursor--
	}
	h.buf[h.slot(h.count)] = e
	h.count++
	h.cursor++
}

// Undo steps the cursor back and returns the entry to invert. ok is false
// when there is nothing to undo.
func (h *History) Undo() (Entry, bool) {
	if h.cursor == 0 {
		return Entry{}, false
	}
	h.cursor--
	return h.buf[h.slot(h.cursor)], true
}

// Redo steps the cursor forward and returns the entry to re-apply. ok is
// false at the tail.
func (h *History) Redo() (Entry, bool) {
	if h.cursor >= h.count {
		return Entry{}, false
	}
	e := h.buf[h.slot(h.cursor)]
	h.cursor++
	return e, true
}

// CanUndo reports whether Undo would return an entry.
func (h *History) CanUndo() bool { return h.cursor > 0 }

// CanRedo reports whether Redo would return an entry.
func (h *History) CanRedo() bool { return h.cursor < h.count }

// Len returns the number of entries held, including the redo branch.
func (h *History) Len() int { return h.count }

// Cursor returns the number of applied entries.
func (h *History) Cursor() int { return h.cursor }

// Limit returns the configured capacity; 0 means unbounded.
func (h *History) Limit() int {
	if h.limit < 0 {
		return 0
	}
	return h.limit
}

// Clear drops every entry.
func (h *History) Clear() {
	if h.limit > 0 {
		h.buf = make([]Entry, h.limit)
	} else {
		h.buf = nil
	}
	h.start, h.count, h.cursor = 0, 0, 0
}
