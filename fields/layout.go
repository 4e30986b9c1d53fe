package fields

import (
	"errors"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/prathamesonar/signature-engine/coords"
)

var (
	// ErrOutsidePage is returned when a field is dropped outside the rendered page.
	ErrOutsidePage = errors.New("drop point is outside the page")
	// ErrNotFound is returned for operations on an unknown field id.
	ErrNotFound = errors.New("field not found")
	// ErrNoSignature is returned by Submit when no signature image is attached.
	ErrNoSignature = errors.New("no signature image attached")
	// ErrNoFields is returned by Submit when the layout is empty.
	ErrNoFields = errors.New("no fields placed")
)

// Layout is one editing session: the fields placed over a rendered page.
// A Layout is not safe for concurrent use.
type Layout struct {
	page     coords.PageDims
	zoom     float64
	fields   []Field
	selected string

	newID func() string
}

// NewLayout starts an empty session for a page rendered at the given size.
func NewLayout(page coords.PageDims, zoom float64) *Layout {
	return &Layout{
		page:  page,
		zoom:  zoom,
		newID: uuid.NewString,
	}
}

// SetPage records a new rendered size, e.g. after the viewer zoomed.
// Existing screen rectangles are not rescaled.
func (l *Layout) SetPage(page coords.PageDims, zoom float64) {
	l.page = page
	l.zoom = zoom
}

// Page returns the rendered page size.
func (l *Layout) Page() coords.PageDims {
	return l.page
}

// Drop creates a field of type t whose top-left corner is at (x, y) and
// selects it. The point must lie within the rendered page.
func (l *Layout) Drop(t Type, x, y float64) (Field, error) {
	if x < 0 || y < 0 || x > l.page.Width || y > l.page.Height {
		return Field{}, fmt.Errorf("%w: (%.1f, %.1f) on %.1fx%.1f", ErrOutsidePage, x, y, l.page.Width, l.page.Height)
	}

	f := Field{
		ID:    l.newID(),
		Type:  t,
		Rect:  coords.ScreenRect{X: x, Y: y, Width: DefaultWidth, Height: DefaultHeight},
		Label: t.DefaultLabel(),
	}
	l.fields = append(l.fields, f)
	l.selected = f.ID
	return f, nil
}

// Move sets the position of a field. The new position is not validated.
func (l *Layout) Move(id string, x, y float64) error {
	return l.Update(id, Patch{X: &x, Y: &y})
}

// Resize sets the size of a field. The new size is not validated.
func (l *Layout) Resize(id string, width, height float64) error {
	return l.Update(id, Patch{Width: &width, Height: &height})
}

// Update applies direct property edits to a field.
func (l *Layout) Update(id string, p Patch) error {
	i := l.index(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	l.fields[i].apply(p)
	return nil
}

// Select marks a field as the current selection.
func (l *Layout) Select(id string) error {
	if l.index(id) < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	l.selected = id
	return nil
}

// Selected returns the selected field id, or "" if nothing is selected.
func (l *Layout) Selected() string {
	return l.selected
}

// Delete removes the field with the given id. An empty id deletes the
// current selection; with nothing selected it is a no-op.
func (l *Layout) Delete(id string) error {
	if id == "" {
		id = l.selected
		if id == "" {
			return nil
		}
	}
	i := l.index(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	l.fields = slices.Delete(l.fields, i, i+1)
	if l.selected == id {
		l.selected = ""
	}
	return nil
}

// Field returns a copy of the field with the given id.
func (l *Layout) Field(id string) (Field, bool) {
	i := l.index(id)
	if i < 0 {
		return Field{}, false
	}
	return l.fields[i], true
}

// Fields returns a copy of the placed fields in placement order.
func (l *Layout) Fields() []Field {
	return slices.Clone(l.fields)
}

// Submit maps every field to PDF space for the stamping request. The
// signature argument mirrors the editor's guard: a submission without an
// attached signature image is refused before anything is converted.
func (l *Layout) Submit(signature string) ([]Placement, error) {
	if signature == "" {
		return nil, ErrNoSignature
	}
	if len(l.fields) == 0 {
		return nil, ErrNoFields
	}

	out := make([]Placement, 0, len(l.fields))
	for _, f := range l.fields {
		pc, err := coords.ToPdfCoords(f.Rect, l.zoom, l.page)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", f.ID, err)
		}
		out = append(out, Placement{
			Type:     f.Type,
			Label:    f.Label,
			PdfCoord: pc,
		})
	}
	return out, nil
}

func (l *Layout) index(id string) int {
	return slices.IndexFunc(l.fields, func(f Field) bool { return f.ID == id })
}
