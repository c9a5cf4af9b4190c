package document

import (
	"maps"
	"slices"

	"github.com/ironsheep/micro-annotate-mcp/internal/annotation"
	"github.com/ironsheep/micro-annotate-mcp/internal/factory"
	"github.com/ironsheep/micro-annotate-mcp/internal/history"
	"github.com/ironsheep/micro-annotate-mcp/internal/style"
)

// Style returns the current style.
func (d *Document) Style() style.Style {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.styles.Current()
}

// SetStyle writes the given fields, keyed by field name, in one step. If
// any value is rejected nothing is written. Existing annotations keep their
// snapshots; only the current annotation is re-rendered.
func (d *Document) SetStyle(values map[string]any) (style.Style, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	var p style.Patch
	for _, name := range slices.Sorted(maps.Keys(values)) {
		fp, err := style.PatchFor(style.Field(name), values[name])
		if err != nil {
			return d.styles.Current(), err
		}
		p = p.Merge(fp)
	}
	if p.Empty() {
		return d.styles.Current(), nil
	}
	return d.styles.Update(p)
}

// restyleCurrent re-renders the current annotation with s. The stored
// snapshot is left alone, so exports and undo still use the original style.
func (d *Document) restyleCurrent(s style.Style) {
	id, ok := d.surface.Current()
	if !ok {
		return
	}
	rec, _, err := d.store.Get(id)
	if err != nil {
		d.surface.ClearCurrent()
		return
	}
	if err := d.surface.Replace(id, factory.ShapesWithStyle(rec, s), rec.ControlPoints()); err != nil {
		d.log.Warn("failed to restyle current annotation", "id", id, "error", err)
	}
}

// ReapplyStyle rewrites the style snapshot of the given annotations with
// the current style, or of every annotation when ids is empty. The change
// is one undoable step.
func (d *Document) ReapplyStyle(ids []annotation.ID) ([]annotation.Record, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(ids) == 0 {
		for _, rec := range d.store.List() {
			ids = append(ids, rec.ID)
		}
	}
	befores := make([]annotation.Record, 0, len(ids))
	for _, id := range ids {
		rec, _, err := d.store.Get(id)
		if err != nil {
			return nil, err
		}
		befores = append(befores, rec)
	}
	if len(befores) == 0 {
		return nil, nil
	}

	cur := d.styles.Current()
	entries := make([]history.Entry, 0, len(befores))
	out := make([]annotation.Record, 0, len(befores))
	for _, before := range befores {
		after := before.Clone()
		after.Style = cur
		b := d.factory.Rebuild(after)
		_, idx, err := d.store.Update(b.Record)
		if err != nil {
			return nil, err
		}
		if err := d.surface.Replace(b.Record.ID, b.Shapes, b.Record.ControlPoints()); err != nil {
			return nil, err
		}
		entries = append(entries, history.Update(idx, before, b.Record))
		out = append(out, b.Record)
	}
	if len(entries) == 1 {
		d.history.Push(entries[0])
	} else {
		d.history.Push(history.Batch(entries...))
	}
	d.surface.ClearCurrent()
	return out, nil
}
