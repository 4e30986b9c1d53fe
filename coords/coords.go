// Package coords converts field rectangles between the browser's rendered-page
// pixel space (origin top-left) and PDF point space (origin bottom-left).
//
// The target page is fixed to A4 portrait. The rendered page dimensions passed
// to the conversion functions are the size of the page as drawn in the browser,
// i.e. the intrinsic page size multiplied by the current zoom.
package coords

import (
	"errors"
	"math"
)

// A4 portrait page size in PDF points (1/72 inch).
const (
	A4Width  = 595.0
	A4Height = 842.0
)

// ErrInvalidPage is returned when the rendered page dimensions are not positive.
var ErrInvalidPage = errors.New("rendered page dimensions must be positive")

// ScreenRect is a rectangle in browser pixel space, origin top-left.
type ScreenRect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// PageDims is the rendered size of the page in browser pixels.
type PageDims struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Valid reports whether both dimensions are positive.
func (p PageDims) Valid() bool {
	return p.Width > 0 && p.Height > 0
}

// PdfCoord is a rectangle in PDF point space, origin bottom-left.
// (X, Y) is the lower-left corner.
type PdfCoord struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// RenderedPage returns the rendered pixel size of a page whose intrinsic size
// is w x h at the given zoom. The result is what ToPdfCoords expects.
func RenderedPage(w, h, zoom float64) PageDims {
	if zoom <= 0 {
		zoom = 1
	}
	return PageDims{Width: w * zoom, Height: h * zoom}
}

// ToPdfCoords maps a screen rectangle to A4 point space.
//
// The zoom argument is accepted for callers that track it separately but is
// not applied: page already carries the zoom, and applying it a second time
// would scale the result twice.
func ToPdfCoords(rect ScreenRect, zoom float64, page PageDims) (PdfCoord, error) {
	_ = zoom
	if !page.Valid() {
		return PdfCoord{}, ErrInvalidPage
	}

	xs := A4Width / page.Width
	ys := A4Height / page.Height

	return PdfCoord{
		X: rect.X * xs,
		// The lower edge in PDF space is the bottom edge on screen.
		Y:      A4Height - (rect.Y+rect.Height)*ys,
		Width:  rect.Width * xs,
		Height: rect.Height * ys,
	}, nil
}

// ToScreen is the inverse of ToPdfCoords.
func ToScreen(c PdfCoord, page PageDims) (ScreenRect, error) {
	if !page.Valid() {
		return ScreenRect{}, ErrInvalidPage
	}

	xs := page.Width / A4Width
	ys := page.Height / A4Height

	h := c.Height * ys
	return ScreenRect{
		X:      c.X * xs,
		Y:      (A4Height-c.Y)*ys - h,
		Width:  c.Width * xs,
		Height: h,
	}, nil
}

// ApproxEqual reports whether two coordinates match within tol on every component.
func (c PdfCoord) ApproxEqual(o PdfCoord, tol float64) bool {
	return math.Abs(c.X-o.X) <= tol &&
		math.Abs(c.Y-o.Y) <= tol &&
		math.Abs(c.Width-o.Width) <= tol &&
		math.Abs(c.Height-o.Height) <= tol
}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(v, hi))
}
