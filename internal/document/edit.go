package document

import (
	"fmt"
	"strings"

	"github.com/ironsheep/micro-annotate-mcp/internal/annotation"
	"github.com/ironsheep/micro-annotate-mcp/internal/canvas"
	"github.com/ironsheep/micro-annotate-mcp/internal/factory"
	"github.com/ironsheep/micro-annotate-mcp/internal/geom"
	"github.com/ironsheep/micro-annotate-mcp/internal/history"
	"github.com/ironsheep/micro-annotate-mcp/internal/store"
)

// Detail is one annotation with its mounted shapes and selection grips.
type Detail struct {
	store.Entry
	Shapes []canvas.Item `json:"shapes"`
	Grips  []geom.Point  `json:"grips"`
}

// HistoryState reports where the history cursor stands.
type HistoryState struct {
	CanUndo bool `json:"canUndo"`
	CanRedo bool `json:"canRedo"`
	Entries int  `json:"entries"`
	Cursor  int  `json:"cursor"`
	Limit   int  `json:"limit"`
}

// List returns every annotation in order.
func (d *Document) List() []annotation.Record {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.store.List()
}

// Len returns the number of annotations.
func (d *Document) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.store.Len()
}

// Entries returns every annotation with its visibility, in order.
func (d *Document) Entries() []store.Entry {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.store.Entries()
}

// Groups returns the annotations grouped by type.
func (d *Document) Groups() []store.Group {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.store.Groups()
}

// Get returns one annotation with its shapes.
func (d *Document) Get(id annotation.ID) (Detail, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	rec, _, err := d.store.Get(id)
	if err != nil {
		return Detail{}, err
	}
	return Detail{
		Entry:  store.Entry{Record: rec, Visible: d.store.Visible(id)},
		Shapes: d.surface.Items(id),
		Grips:  d.surface.Grips(id),
	}, nil
}

// Scene returns every visible mounted shape, bottom first.
func (d *Document) Scene() []canvas.Item {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.surface.Scene()
}

// Owners returns the IDs of the annotations on the surface in z-order.
func (d *Document) Owners() []annotation.ID {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.surface.Owners()
}

// Delete removes one annotation.
func (d *Document) Delete(id annotation.ID) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, _, err := d.store.Get(id); err != nil {
		return err
	}
	if err := d.surface.Unmount(id); err != nil {
		return err
	}
	return d.onDelete(id)
}

// DeleteAll removes every annotation as a single undoable step. It refuses
// to run unless confirm is set, and returns the number removed.
func (d *Document) DeleteAll(confirm bool) (int, error) {
	if !confirm {
		return 0, ErrConfirmationRequired
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	recs := d.store.List()
	if len(recs) == 0 {
		return 0, nil
	}
	entries := make([]history.Entry, 0, len(recs))
	for i := len(recs) - 1; i >= 0; i-- {
		entries = append(entries, history.Delete(i, recs[i]))
	}
	d.store.Clear()
	d.surface.UnmountAll()
	d.history.Push(history.Batch(entries...))
	d.log.Info("all annotations deleted", "count", len(recs))
	return len(recs), nil
}

// SetText replaces the text of a text or leader annotation. Text
// annotations cannot be emptied; a leader's text may be.
func (d *Document) SetText(id annotation.ID, text string) (annotation.Record, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	before, _, err := d.store.Get(id)
	if err != nil {
		return annotation.Record{}, err
	}
	after := before.Clone()
	switch {
	case after.Data.Text != nil:
		if strings.TrimSpace(text) == "" {
			return annotation.Record{}, fmt.Errorf("text annotation %s cannot be empty", id)
		}
		after.Data.Text.Content = text
		after.Data.Text.Field = ""
	case after.Data.Leader != nil:
		after.Data.Leader.Text = text
	default:
		return annotation.Record{}, fmt.Errorf("%w: %s is a %s", ErrNoText, id, before.Type)
	}
	b := d.factory.Rebuild(after)
	if err := d.replace(before, b); err != nil {
		return annotation.Record{}, err
	}
	return b.Record, nil
}

// SetVisible shows or hides one annotation. Visibility is not recorded in
// the history.
func (d *Document) SetVisible(id annotation.ID, visible bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.store.SetVisible(id, visible); err != nil {
		return err
	}
	d.surface.SetHidden(id, !visible)
	return nil
}

// ShowAll makes every annotation visible.
func (d *Document) ShowAll() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.store.ShowAll()
	for _, id := range d.surface.Owners() {
		d.surface.SetHidden(id, false)
	}
}

// HideAll hides every annotation.
func (d *Document) HideAll() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.store.HideAll()
	for _, id := range d.surface.Owners() {
		d.surface.SetHidden(id, true)
	}
}

// Undo reverts the most recent edit and returns the resulting list. The
// bool is false when there was nothing to undo.
func (d *Document) Undo() ([]annotation.Record, bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	e, ok := d.history.Undo()
	if !ok {
		return d.store.List(), false, nil
	}
	if err := d.apply(e.Inverse()); err != nil {
		d.history.Redo()
		return d.store.List(), false, fmt.Errorf("undo %s: %w", e.Kind, err)
	}
	return d.store.List(), true, nil
}

// Redo re-applies the most recently undone edit and returns the resulting
// list. The bool is false when there was nothing to redo.
func (d *Document) Redo() ([]annotation.Record, bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	e, ok := d.history.Redo()
	if !ok {
		return d.store.List(), false, nil
	}
	if err := d.apply(e); err != nil {
		d.history.Undo()
		return d.store.List(), false, fmt.Errorf("redo %s: %w", e.Kind, err)
	}
	return d.store.List(), true, nil
}

// History reports the undo and redo availability.
func (d *Document) History() HistoryState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return HistoryState{
		CanUndo: d.history.CanUndo(),
		CanRedo: d.history.CanRedo(),
		Entries: d.history.Len(),
		Cursor:  d.history.Cursor(),
		Limit:   d.history.Limit(),
	}
}

func (d *Document) apply(e history.Entry) error {
	if err := d.store.Apply(e); err != nil {
		return err
	}
	if err := d.sync(e); err != nil {
		return err
	}
	d.surface.ClearCurrent()
	return nil
}

// Restore replaces every annotation with recs, as when reopening a saved
// session. The history is cleared; records are remounted with their own
// style snapshots. If any record is rejected the document is left empty.
func (d *Document) Restore(recs []annotation.Record) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.store.Clear()
	d.surface.UnmountAll()
	d.history.Clear()
	for _, rec := range recs {
		if err := rec.Validate(); err != nil {
			return fmt.Errorf("restore: %w", err)
		}
		if len(factory.Shapes(rec)) == 0 {
			return fmt.Errorf("restore: %w: %s renders no shapes", annotation.ErrInvalidRecord, rec.ID)
		}
	}
	for _, rec := range recs {
		err := d.surface.Mount(rec.ID, factory.Shapes(rec), rec.ControlPoints())
		if err == nil {
			_, err = d.store.Add(rec)
		}
		if err != nil {
			d.store.Clear()
			d.surface.UnmountAll()
			return fmt.Errorf("restore %s: %w", rec.ID, err)
		}
	}
	d.log.Info("annotations restored", "count", len(recs))
	return nil
}
