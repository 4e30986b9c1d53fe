package render

import (
	"github.com/prathamesonar/signature-engine/images"
)

// Color represents an RGB color.
type Color struct {
	R, G, B uint8
}

// Black is the default text color.
var Black = Color{}

// Font is one of the standard Type1 fonts, which every reader provides
// without embedding.
type Font struct {
	BaseFont string
}

// Standard fonts used for stamping.
var (
	Helvetica     = &Font{BaseFont: "Helvetica"}
	HelveticaBold = &Font{BaseFont: "Helvetica-Bold"}
)

// Element is an interface for visual elements drawn onto a page.
type Element interface {
	IsElement()
}

// ImageElement draws a raster image stretched over a rectangle.
type ImageElement struct {
	Image               *images.Image
	X, Y, Width, Height float64
}

func (ImageElement) IsElement() {}

// TextElement draws a single line of text with its baseline origin at X, Y.
type TextElement struct {
	Content string
	Font    *Font
	Size    float64
	X, Y    float64
	Color   Color
}

func (TextElement) IsElement() {}
