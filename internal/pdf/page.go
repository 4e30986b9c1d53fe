package pdf

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"

	pdflib "github.com/digitorus/pdf"
)

// ErrNoPages is returned for documents without a page tree or pages.
var ErrNoPages = errors.New("document has no pages")

// DefaultMediaBox is A4 portrait, used when no MediaBox can be found.
var DefaultMediaBox = [4]float64{0, 0, 595, 842}

// Page is an existing page of the document being updated.
type Page struct {
	V        pdflib.Value
	ID       uint32
	Gen      uint16
	MediaBox [4]float64

	names map[string]map[string]bool
}

// FirstPage looks up page 1.
func FirstPage(rdr *pdflib.Reader) (*Page, error) {
	if rdr.NumPage() < 1 {
		return nil, ErrNoPages
	}
	v := rdr.Page(1).V
	if v.IsNull() {
		return nil, ErrNoPages
	}
	ptr := v.GetPtr()
	if ptr.GetID() == 0 {
		return nil, errors.New("page 1 is not an indirect object")
	}

	p := &Page{
		V:        v,
		ID:       uint32(ptr.GetID()),
		Gen:      uint16(ptr.GetGen()),
		MediaBox: DefaultMediaBox,
		names:    make(map[string]map[string]bool),
	}
	if mb := inherited(v, "MediaBox"); mb.Kind() == pdflib.Array && mb.Len() >= 4 {
		for i := 0; i < 4; i++ {
			p.MediaBox[i] = mb.Index(i).Float64()
		}
	}
	return p, nil
}

// inherited looks key up on the page and then up the /Parent chain.
func inherited(v pdflib.Value, key string) pdflib.Value {
	for depth := 0; depth < 32 && !v.IsNull(); depth++ {
		if val := v.Key(key); !val.IsNull() {
			return val
		}
		v = v.Key("Parent")
	}
	return pdflib.Value{}
}

// Resources returns the resource dictionary in effect for the page.
func (p *Page) Resources() pdflib.Value {
	return inherited(p.V, "Resources")
}

// FreeName returns a resource name with the given prefix that is not yet
// used in category, and reserves it.
func (p *Page) FreeName(category, prefix string) string {
	used, ok := p.names[category]
	if !ok {
		used = make(map[string]bool)
		for _, k := range p.Resources().Key(category).Keys() {
			used[k] = true
		}
		p.names[category] = used
	}
	for i := 1; ; i++ {
		name := prefix + strconv.Itoa(i)
		if !used[name] {
			used[name] = true
			return name
		}
	}
}

// Overlay describes content to draw over an existing page.
type Overlay struct {
	// Content is the operator stream drawn last, in default user space.
	Content []byte
	// Resources maps a category (XObject, Font) to name → object reference.
	Resources map[string]map[string]string
}

// Apply writes the overlay content stream and rewrites the page object so
// that the existing content is wrapped in q/Q and the overlay is drawn on
// top of it.
func (w *Writer) Apply(p *Page, o Overlay) error {
	existing := p.V.Key("Contents")

	var contents bytes.Buffer
	contents.WriteString("[")
	if !existing.IsNull() {
		pushID, err := w.AddStream("", []byte("q\n"), "")
		if err != nil {
			return fmt.Errorf("failed to add content prefix: %w", err)
		}
		fmt.Fprintf(&contents, "%d 0 R ", pushID)
		if existing.Kind() == pdflib.Array {
			arrID := uint32(existing.GetPtr().GetID())
			for i := 0; i < existing.Len(); i++ {
				WriteValue(&contents, arrID, existing.Index(i))
				contents.WriteString(" ")
			}
		} else {
			WriteValue(&contents, p.ID, existing)
			contents.WriteString(" ")
		}
		o.Content = append([]byte("Q\n"), o.Content...)
	}

	overlayID, err := w.AddStream("", o.Content, "")
	if err != nil {
		return fmt.Errorf("failed to add overlay content: %w", err)
	}
	fmt.Fprintf(&contents, "%d 0 R]", overlayID)

	var page bytes.Buffer
	WriteDict(&page, p.ID, p.V, map[string]string{
		"Contents":  contents.String(),
		"Resources": p.mergedResources(o.Resources),
	})

	return w.UpdateObject(p.ID, p.Gen, page.Bytes())
}

// mergedResources serializes the page resources with the extra entries
// added to their categories.
func (p *Page) mergedResources(extra map[string]map[string]string) string {
	res := p.Resources()
	override := make(map[string]string, len(extra))
	for category, entries := range extra {
		var cat bytes.Buffer
		existing := res.Key(category)
		if existing.Kind() == pdflib.Dict {
			WriteDict(&cat, uint32(existing.GetPtr().GetID()), existing, entries)
		} else {
			WriteDict(&cat, 0, pdflib.Value{}, entries)
		}
		override[category] = cat.String()
	}

	var b bytes.Buffer
	WriteDict(&b, uint32(res.GetPtr().GetID()), res, override)
	return b.String()
}

// Content returns the decoded content of the page, concatenating all
// content streams.
func Content(page pdflib.Value) ([]byte, error) {
	contents := page.Key("Contents")
	if contents.IsNull() {
		return nil, nil
	}

	var streams []pdflib.Value
	if contents.Kind() == pdflib.Array {
		for i := 0; i < contents.Len(); i++ {
			streams = append(streams, contents.Index(i))
		}
	} else {
		streams = append(streams, contents)
	}

	var buf bytes.Buffer
	for _, s := range streams {
		if s.Kind() != pdflib.Stream {
			continue
		}
		r := s.Reader()
		if _, err := io.Copy(&buf, r); err != nil {
			_ = r.Close()
			return nil, fmt.Errorf("failed to read content stream: %w", err)
		}
		_ = r.Close()
		buf.WriteString("\n")
	}
	return buf.Bytes(), nil
}
