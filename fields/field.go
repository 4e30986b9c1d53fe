package fields

import (
	"github.com/prathamesonar/signature-engine/coords"
)

// Default size of a field created by a drop, in screen pixels.
const (
	DefaultWidth  = 120.0
	DefaultHeight = 40.0
)

// Field is one element placed on the rendered page.
type Field struct {
	ID    string            `json:"id"`
	Type  Type              `json:"type"`
	Rect  coords.ScreenRect `json:"rect"`
	Label string            `json:"label"`
	Value string            `json:"value,omitempty"`
}

// Placement is a field as submitted for stamping, with its rectangle already
// mapped to PDF space.
type Placement struct {
	Type     Type            `json:"type"`
	Label    string          `json:"label,omitempty"`
	PdfCoord coords.PdfCoord `json:"pdfCoord"`
}

// Patch carries direct property edits. Nil members are left untouched.
type Patch struct {
	Label  *string
	X, Y   *float64
	Width  *float64
	Height *float64
}

func (f *Field) apply(p Patch) {
	if p.Label != nil {
		f.Label = *p.Label
	}
	if p.X != nil {
		f.Rect.X = *p.X
	}
	if p.Y != nil {
		f.Rect.Y = *p.Y
	}
	if p.Width != nil {
		f.Rect.Width = *p.Width
	}
	if p.Height != nil {
		f.Rect.Height = *p.Height
	}
}
