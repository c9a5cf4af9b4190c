package style

import "fmt"

// Registry holds the current style. It is not safe for concurrent use; the
// owning document serializes access.
type Registry struct {
	cur       Style
	listeners []func(Style)
}

// NewRegistry creates a registry seeded with defaults. Colors in defaults
// are normalized; unparseable colors are rejected.
func NewRegistry(defaults Style) (*Registry, error) {
	s, err := defaults.Normalize()
	if err != nil {
		return nil, fmt.Errorf("invalid default style: %w", err)
	}
	return &Registry{cur: s}, nil
}

// Current returns a snapshot of the current style.
func (r *Registry) Current() Style {
	return r.cur
}

// Get returns the value of one field.
func (r *Registry) Get(field Field) (any, error) {
	switch field {
	case FieldTextSize:
		return r.cur.TextSize, nil
	case FieldTextColor:
		return r.cur.TextColor, nil
	case FieldLineColor:
		return r.cur.LineColor, nil
	case FieldLineWidth:
		return r.cur.LineWidth, nil
	case FieldArrowSize:
		return r.cur.ArrowSize, nil
	case FieldDimensionPrecision:
		return r.cur.DimensionPrecision, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownField, field)
}

// Set writes a single field, leaving the others untouched.
func (r *Registry) Set(field Field, value any) error {
	p, err := PatchFor(field, value)
	if err != nil {
		return err
	}
	_, err = r.Update(p)
	return err
}

// Update writes every non-nil field of p. Either all fields are written or,
// on a validation error, none are. Listeners run after a successful write.
func (r *Registry) Update(p Patch) (Style, error) {
	next, err := p.apply(r.cur)
	if err != nil {
		return r.cur, err
	}
	r.cur = next
	for _, fn := range r.listeners {
		fn(next)
	}
	return next, nil
}

// Subscribe registers fn to be called with the new style after every write.
func (r *Registry) Subscribe(fn func(Style)) {
	r.listeners = append(r.listeners, fn)
}
