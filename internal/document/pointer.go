package document

import (
	"github.com/ironsheep/micro-annotate-mcp/internal/annotation"
	"github.com/ironsheep/micro-annotate-mcp/internal/canvas"
	"github.com/ironsheep/micro-annotate-mcp/internal/factory"
	"github.com/ironsheep/micro-annotate-mcp/internal/geom"
)

// SelectTool activates tool. Any in-flight input is discarded.
func (d *Document) SelectTool(tool annotation.Tool) (canvas.ToolState, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.surface.SelectTool(tool); err != nil {
		return d.surface.ActiveTool(), err
	}
	return d.surface.ActiveTool(), nil
}

// ActiveTool reports the active tool and its in-flight points.
func (d *Document) ActiveTool() canvas.ToolState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.surface.ActiveTool()
}

// Press routes a button press to the active tool. A non-nil result is the
// annotation the press completed.
func (d *Document) Press(p geom.Point) (*factory.Built, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.surface.Press(p)
}

// Move routes pointer motion to the active tool.
func (d *Document) Move(p geom.Point) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.surface.Move(p)
}

// Release routes a button release to the active tool.
func (d *Document) Release(p geom.Point) (*factory.Built, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.surface.Release(p)
}

// Commit finishes the in-flight sequence early, as the Enter key does.
func (d *Document) Commit() (*factory.Built, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.surface.Commit()
}

// Escape resets the active tool to idle.
func (d *Document) Escape() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.surface.Escape()
}

// SupplyText answers the text prompt of a text or multileader tool.
func (d *Document) SupplyText(text string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.surface.SupplyText(text)
}

// Place builds and commits an annotation from a complete point list,
// bypassing pointer input. A nil result means the input was discarded.
func (d *Document) Place(tool annotation.Tool, points []geom.Point, text string) (*factory.Built, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.surface.Place(tool, points, text)
}

// HitTest returns the topmost visible shape or grip near p.
func (d *Document) HitTest(p geom.Point) (canvas.Hit, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.surface.HitTest(p)
}

// DragShape moves the annotation owning h by (dx, dy).
func (d *Document) DragShape(h canvas.Handle, dx, dy float64) (annotation.Record, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.surface.Drag(h, dx, dy); err != nil {
		return annotation.Record{}, err
	}
	id, _ := d.surface.Owner(h)
	rec, _, err := d.store.Get(id)
	return rec, err
}

// DragGrip moves control point index of id to p and remeasures the
// annotation.
func (d *Document) DragGrip(id annotation.ID, index int, p geom.Point) (annotation.Record, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.surface.DragGrip(id, index, p); err != nil {
		return annotation.Record{}, err
	}
	rec, _, err := d.store.Get(id)
	return rec, err
}

// DeleteShape removes the annotation owning h.
func (d *Document) DeleteShape(h canvas.Handle) (annotation.ID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	id, _ := d.surface.Owner(h)
	if err := d.surface.DeleteShape(h); err != nil {
		return "", err
	}
	return id, nil
}
