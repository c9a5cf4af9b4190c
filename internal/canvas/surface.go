package canvas

import (
	"errors"
	"fmt"
	"image"
	"math"

	"github.com/ironsheep/micro-annotate-mcp/internal/annotation"
	"github.com/ironsheep/micro-annotate-mcp/internal/factory"
	"github.com/ironsheep/micro-annotate-mcp/internal/geom"
)

var (
	// ErrUnknownHandle is returned for a handle that is not mounted.
	ErrUnknownHandle = errors.New("unknown shape handle")

	// ErrNotMounted is returned for an annotation with no shapes on the surface.
	ErrNotMounted = errors.New("annotation not mounted")

	// ErrAlreadyMounted is returned when mounting an annotation twice.
	ErrAlreadyMounted = errors.New("annotation already mounted")
)

// Handle identifies one render shape for the life of its owner.
type Handle uint64

// Item is a mounted shape with its handle and owner.
type Item struct {
	Handle Handle           `json:"handle"`
	Owner  annotation.ID    `json:"annotationId"`
	Shape  annotation.Shape `json:"shape"`
}

// Hit is the result of a hit test. Grip is the index of the control point
// under the pointer, or -1 when the shape body was hit.
type Hit struct {
	Handle   Handle        `json:"handle"`
	Owner    annotation.ID `json:"annotationId"`
	Grip     int           `json:"grip"`
	Distance float64       `json:"distance"`
}

// Events are the notifications the surface sends to its owner. A non-nil
// error from a handler rolls back the surface change and is returned to the
// caller.
type Events struct {
	// Commit receives every annotation a tool session completes.
	Commit func(b factory.Built) error
	// Move reports an annotation dragged by (dx, dy).
	Move func(id annotation.ID, dx, dy float64) error
	// Grip reports control point index of id moved to p.
	Grip func(id annotation.ID, index int, p geom.Point) error
	// Delete reports an annotation removed from the surface.
	Delete func(id annotation.ID) error
}

// Options size the surface.
type Options struct {
	Width        int
	Height       int
	HitTolerance float64
}

// DefaultOptions returns an 800x600 surface with a 5px hit tolerance.
func DefaultOptions() Options {
	return Options{Width: 800, Height: 600, HitTolerance: 5}
}

// mount is the set of shapes owned by one annotation.
type mount struct {
	handles []Handle
	grips   []geom.Point
}

// Surface is the drawing surface. It is not safe for concurrent use.
type Surface struct {
	opts       Options
	f          *factory.Factory
	events     Events
	background image.Image

	next   Handle
	shapes map[Handle]annotation.Shape
	owner  map[Handle]annotation.ID
	mounts map[annotation.ID]*mount
	order  []annotation.ID
	hidden map[annotation.ID]bool

	session *factory.Session
	current annotation.ID
}

// New creates an empty surface whose sessions build with f.
func New(opts Options, f *factory.Factory, events Events) *Surface {
	if opts.Width <= 0 || opts.Height <= 0 {
		d := DefaultOptions()
		opts.Width, opts.Height = d.Width, d.Height
	}
	return &Surface{
		opts:   opts,
		f:      f,
		events: events,
		shapes: make(map[Handle]annotation.Shape),
		owner:  make(map[Handle]annotation.ID),
		mounts: make(map[annotation.ID]*mount),
		hidden: make(map[annotation.ID]bool),
	}
}

// SetBackground installs img and sizes the surface to it.
func (s *Surface) SetBackground(img image.Image) {
	s.background = img
}

// ClearBackground removes the background.
func (s *Surface) ClearBackground() {
	s.background = nil
}

// Background returns the background image, or nil.
func (s *Surface) Background() image.Image {
	return s.background
}

// Size returns the surface size: the background's when one is set, the
// configured size otherwise.
func (s *Surface) Size() (int, int) {
	if s.background != nil {
		b := s.background.Bounds()
		return b.Dx(), b.Dy()
	}
	return s.opts.Width, s.opts.Height
}

// Mount adds shapes and grips for a new annotation on top of the z-order.
func (s *Surface) Mount(id annotation.ID, shapes []annotation.Shape, grips []geom.Point) error {
	if _, ok := s.mounts[id]; ok {
		return fmt.Errorf("%w: %s", ErrAlreadyMounted, id)
	}
	m := &mount{grips: append([]geom.Point(nil), grips...)}
	for _, sh := range shapes {
		m.handles = append(m.handles, s.alloc(id, sh))
	}
	s.mounts[id] = m
	s.order = append(s.order, id)
	return nil
}

// MountAt mounts an annotation at position index in the z-order.
func (s *Surface) MountAt(index int, id annotation.ID, shapes []annotation.Shape, grips []geom.Point) error {
	if err := s.Mount(id, shapes, grips); err != nil {
		return err
	}
	if index < 0 || index >= len(s.order)-1 {
		return nil
	}
	copy(s.order[index+1:], s.order[index:len(s.order)-1])
	s.order[index] = id
	return nil
}

func (s *Surface) alloc(id annotation.ID, sh annotation.Shape) Handle {
	s.next++
	s.shapes[s.next] = sh.Clone()
	s.owner[s.next] = id
	return s.next
}

// Replace swaps the shapes of a mounted annotation, keeping its existing
// handles for as many shapes as still exist.
func (s *Surface) Replace(id annotation.ID, shapes []annotation.Shape, grips []geom.Point) error {
	m, ok := s.mounts[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotMounted, id)
	}
	kept := m.handles
	m.handles = nil
	for i, sh := range shapes {
		if i < len(kept) {
			s.shapes[kept[i]] = sh.Clone()
			m.handles = append(m.handles, kept[i])
			continue
		}
		m.handles = append(m.handles, s.alloc(id, sh))
	}
	for i := len(shapes); i < len(kept); i++ {
		delete(s.shapes, kept[i])
		delete(s.owner, kept[i])
	}
	m.grips = append([]geom.Point(nil), grips...)
	return nil
}

// Unmount removes every shape of an annotation.
func (s *Surface) Unmount(id annotation.ID) error {
	m, ok := s.mounts[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotMounted, id)
	}
	for _, h := range m.handles {
		delete(s.shapes, h)
		delete(s.owner, h)
	}
	delete(s.mounts, id)
	delete(s.hidden, id)
	for i, o := range s.order {
		if o == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	if s.current == id {
		s.current = ""
	}
	return nil
}

// UnmountAll clears the arena.
func (s *Surface) UnmountAll() {
	s.shapes = make(map[Handle]annotation.Shape)
	s.owner = make(map[Handle]annotation.ID)
	s.mounts = make(map[annotation.ID]*mount)
	s.hidden = make(map[annotation.ID]bool)
	s.order = nil
	s.current = ""
}

// Mounted reports whether id has shapes on the surface.
func (s *Surface) Mounted(id annotation.ID) bool {
	_, ok := s.mounts[id]
	return ok
}

// Owners returns the mounted annotation IDs in z-order, bottom first.
func (s *Surface) Owners() []annotation.ID {
	return append([]annotation.ID(nil), s.order...)
}

// Owner returns the annotation that owns h.
func (s *Surface) Owner(h Handle) (annotation.ID, bool) {
	id, ok := s.owner[h]
	return id, ok
}

// Items returns the shapes of id in draw order.
func (s *Surface) Items(id annotation.ID) []Item {
	m, ok := s.mounts[id]
	if !ok {
		return nil
	}
	out := make([]Item, 0, len(m.handles))
	for _, h := range m.handles {
		out = append(out, Item{Handle: h, Owner: id, Shape: s.shapes[h].Clone()})
	}
	return out
}

// Grips returns the selection grips of id.
func (s *Surface) Grips(id annotation.ID) []geom.Point {
	if m, ok := s.mounts[id]; ok {
		return append([]geom.Point(nil), m.grips...)
	}
	return nil
}

// Scene returns every visible shape in z-order, bottom first.
func (s *Surface) Scene() []Item {
	var out []Item
	for _, id := range s.order {
		if s.hidden[id] {
			continue
		}
		out = append(out, s.Items(id)...)
	}
	return out
}

// SetHidden hides or shows the shapes of id. Hidden shapes are not drawn
// and are not hit-testable.
func (s *Surface) SetHidden(id annotation.ID, hidden bool) {
	if _, ok := s.mounts[id]; !ok {
		return
	}
	if hidden {
		s.hidden[id] = true
	} else {
		delete(s.hidden, id)
	}
}

// HitTest returns the topmost visible shape or grip within the hit tolerance
// of p. Grips take precedence over bodies of the same annotation.
func (s *Surface) HitTest(p geom.Point) (Hit, bool) {
	tol := s.opts.HitTolerance
	for i := len(s.order) - 1; i >= 0; i-- {
		id := s.order[i]
		if s.hidden[id] {
			continue
		}
		m := s.mounts[id]
		for gi, g := range m.grips {
			if d := geom.Distance(p, g); d <= tol {
				h := Handle(0)
				if len(m.handles) > 0 {
					h = m.handles[0]
				}
				return Hit{Handle: h, Owner: id, Grip: gi, Distance: d}, true
			}
		}
		best := Hit{Distance: math.Inf(1), Grip: -1}
		for _, h := range m.handles {
			if d := s.shapes[h].Distance(p); d <= tol && d < best.Distance {
				best = Hit{Handle: h, Owner: id, Grip: -1, Distance: d}
			}
		}
		if best.Handle != 0 {
			return best, true
		}
	}
	return Hit{}, false
}

// Drag moves the annotation owning h by (dx, dy).
func (s *Surface) Drag(h Handle, dx, dy float64) error {
	id, ok := s.owner[h]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownHandle, h)
	}
	s.translate(id, dx, dy)
	if s.events.Move != nil {
		if err := s.events.Move(id, dx, dy); err != nil {
			s.translate(id, -dx, -dy)
			return err
		}
	}
	return nil
}

func (s *Surface) translate(id annotation.ID, dx, dy float64) {
	m := s.mounts[id]
	for _, h := range m.handles {
		s.shapes[h] = s.shapes[h].Translate(dx, dy)
	}
	m.grips = geom.Translate(m.grips, dx, dy)
}

// DragGrip moves control point index of id to p.
func (s *Surface) DragGrip(id annotation.ID, index int, p geom.Point) error {
	m, ok := s.mounts[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotMounted, id)
	}
	if index < 0 || index >= len(m.grips) {
		return fmt.Errorf("grip %d out of range (annotation has %d)", index, len(m.grips))
	}
	prev := m.grips[index]
	m.grips[index] = p
	if s.events.Grip != nil {
		if err := s.events.Grip(id, index, p); err != nil {
			m.grips[index] = prev
			return err
		}
	}
	return nil
}

// DeleteShape removes the annotation owning h from the surface.
func (s *Surface) DeleteShape(h Handle) error {
	id, ok := s.owner[h]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownHandle, h)
	}
	pos := s.zIndex(id)
	items := s.Items(id)
	grips := s.Grips(id)
	hidden := s.hidden[id]
	if err := s.Unmount(id); err != nil {
		return err
	}
	if s.events.Delete != nil {
		if err := s.events.Delete(id); err != nil {
			shapes := make([]annotation.Shape, len(items))
			for i, it := range items {
				shapes[i] = it.Shape
			}
			_ = s.MountAt(pos, id, shapes, grips)
			s.SetHidden(id, hidden)
			return err
		}
	}
	return nil
}

func (s *Surface) zIndex(id annotation.ID) int {
	for i, o := range s.order {
		if o == id {
			return i
		}
	}
	return -1
}

// SetCurrent marks id as the most recently committed annotation.
func (s *Surface) SetCurrent(id annotation.ID) {
	s.current = id
}

// Current returns the current annotation, if any.
func (s *Surface) Current() (annotation.ID, bool) {
	return s.current, s.current != ""
}

// ClearCurrent forgets the current annotation.
func (s *Surface) ClearCurrent() {
	s.current = ""
}
