// Package render turns visual elements into page content and the objects
// they reference.
package render

import (
	"bytes"
	"fmt"
	"image"

	"github.com/prathamesonar/signature-engine/images"
	"github.com/prathamesonar/signature-engine/internal/pdf"
)

// ObjectWriter adds objects to the document being updated.
type ObjectWriter interface {
	AddObject(data []byte) (uint32, error)
	AddStream(dict string, data []byte, filter string) (uint32, error)
}

// Namer hands out resource names that do not clash with the page.
type Namer interface {
	FreeName(category, prefix string) string
}

// Canvas accumulates drawing operators for one page. Images and fonts are
// registered once and reused by later elements.
type Canvas struct {
	w     ObjectWriter
	names Namer

	stream    bytes.Buffer
	resources map[string]map[string]string
	imageMap  map[string]string
	fontMap   map[string]string
}

// NewCanvas returns an empty canvas.
func NewCanvas(w ObjectWriter, names Namer) *Canvas {
	return &Canvas{
		w:         w,
		names:     names,
		resources: make(map[string]map[string]string),
		imageMap:  make(map[string]string),
		fontMap:   make(map[string]string),
	}
}

// Draw appends the operators for el.
func (c *Canvas) Draw(el Element) error {
	switch e := el.(type) {
	case ImageElement:
		return c.drawImage(e)
	case TextElement:
		return c.drawText(e)
	default:
		return fmt.Errorf("unsupported element %T", el)
	}
}

func (c *Canvas) drawImage(e ImageElement) error {
	if e.Image == nil || e.Image.Bitmap == nil {
		return fmt.Errorf("invalid image data")
	}

	name, ok := c.imageMap[e.Image.Hash]
	if !ok {
		id, err := RegisterImage(c.w, e.Image)
		if err != nil {
			return err
		}
		name = c.names.FreeName("XObject", "SigIm")
		c.imageMap[e.Image.Hash] = name
		c.addResource("XObject", name, id)
	}

	c.stream.WriteString("q\n")
	fmt.Fprintf(&c.stream, "%s 0 0 %s %s %s cm\n",
		pdf.FormatNumber(e.Width), pdf.FormatNumber(e.Height), pdf.FormatNumber(e.X), pdf.FormatNumber(e.Y))
	fmt.Fprintf(&c.stream, "%s Do\n", pdf.Name(name))
	c.stream.WriteString("Q\n")
	return nil
}

func (c *Canvas) drawText(e TextElement) error {
	font := e.Font
	if font == nil {
		font = Helvetica
	}

	name, ok := c.fontMap[font.BaseFont]
	if !ok {
		id, err := RegisterFont(c.w, font)
		if err != nil {
			return err
		}
		name = c.names.FreeName("Font", "SigF")
		c.fontMap[font.BaseFont] = name
		c.addResource("Font", name, id)
	}

	c.stream.WriteString("q\nBT\n")
	fmt.Fprintf(&c.stream, "%s %s Tf\n", pdf.Name(name), pdf.FormatNumber(e.Size))
	fmt.Fprintf(&c.stream, "%s %s %s rg\n", channel(e.Color.R), channel(e.Color.G), channel(e.Color.B))
	fmt.Fprintf(&c.stream, "%s %s Td\n", pdf.FormatNumber(e.X), pdf.FormatNumber(e.Y))
	fmt.Fprintf(&c.stream, "%s Tj\n", pdf.EncodeText(e.Content))
	c.stream.WriteString("ET\nQ\n")
	return nil
}

func channel(v uint8) string {
	return pdf.FormatNumber(float64(v) / 255.0)
}

func (c *Canvas) addResource(category, name string, id uint32) {
	if c.resources[category] == nil {
		c.resources[category] = make(map[string]string)
	}
	c.resources[category][name] = pdf.Ref(id)
}

// Empty reports whether nothing has been drawn.
func (c *Canvas) Empty() bool { return c.stream.Len() == 0 }

// Overlay returns the accumulated content and resources.
func (c *Canvas) Overlay() pdf.Overlay {
	return pdf.Overlay{
		Content:   bytes.Clone(c.stream.Bytes()),
		Resources: c.resources,
	}
}

// RegisterImage writes an image XObject for img and returns its object
// number. RGB and gray JPEGs are embedded as-is. Everything else is stored
// as RGB samples, with a soft mask when the image has transparency.
func RegisterImage(w ObjectWriter, img *images.Image) (uint32, error) {
	bounds := img.Bitmap.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width == 0 || height == 0 {
		return 0, fmt.Errorf("invalid image data")
	}

	if img.Format == images.FormatJPEG && !img.Scaled {
		colorSpace := ""
		switch img.Bitmap.(type) {
		case *image.YCbCr:
			colorSpace = "DeviceRGB"
		case *image.Gray:
			colorSpace = "DeviceGray"
		}
		if colorSpace != "" {
			dict := fmt.Sprintf("/Type /XObject /Subtype /Image /Width %d /Height %d /ColorSpace /%s /BitsPerComponent 8", width, height, colorSpace)
			return w.AddStream(dict, img.Data, "DCTDecode")
		}
	}

	rgb := make([]byte, 0, width*height*3)
	alpha := make([]byte, 0, width*height)
	hasAlpha := false
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, a := img.Bitmap.At(x, y).RGBA()
			a8 := uint8(a >> 8)
			if a8 < 255 {
				hasAlpha = true
			}
			alpha = append(alpha, a8)
			rgb = append(rgb, unpremultiply(r, a), unpremultiply(g, a), unpremultiply(b, a))
		}
	}

	var smask string
	if hasAlpha {
		dict := fmt.Sprintf("/Type /XObject /Subtype /Image /Width %d /Height %d /ColorSpace /DeviceGray /BitsPerComponent 8", width, height)
		smaskID, err := w.AddStream(dict, alpha, "")
		if err != nil {
			return 0, fmt.Errorf("failed to add soft mask: %w", err)
		}
		smask = fmt.Sprintf(" /SMask %s", pdf.Ref(smaskID))
	}

	dict := fmt.Sprintf("/Type /XObject /Subtype /Image /Width %d /Height %d /ColorSpace /DeviceRGB /BitsPerComponent 8%s", width, height, smask)
	return w.AddStream(dict, rgb, "")
}

// unpremultiply converts a 16-bit alpha-premultiplied channel to 8-bit
// straight color, as the soft mask carries the alpha separately.
func unpremultiply(c, a uint32) uint8 {
	if a == 0 {
		return 255
	}
	if a == 0xffff {
		return uint8(c >> 8)
	}
	return uint8((c * 0xffff / a) >> 8)
}

// RegisterFont writes a Type1 font dictionary for one of the standard fonts.
func RegisterFont(w ObjectWriter, f *Font) (uint32, error) {
	baseFont := Helvetica.BaseFont
	if f != nil && f.BaseFont != "" {
		baseFont = f.BaseFont
	}
	fontDict := fmt.Sprintf("<< /Type /Font /Subtype /Type1 /BaseFont %s /Encoding /WinAnsiEncoding >>", pdf.Name(baseFont))
	return w.AddObject([]byte(fontDict))
}

var _ ObjectWriter = (*pdf.Writer)(nil)
