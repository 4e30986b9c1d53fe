// Package testpdf builds small single-page PDFs for tests.
package testpdf

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Options controls the generated document.
type Options struct {
	// Content is the page content stream. Empty omits /Contents.
	Content string
	// MediaBox defaults to A4 portrait.
	MediaBox [4]float64
	// InheritResources moves /Resources and /MediaBox to the page tree node.
	InheritResources bool
	// XrefStream writes a PDF 1.5 cross-reference stream instead of a table.
	XrefStream bool
}

// A4 returns a one-page A4 document with the given content.
func A4(content string) []byte {
	return New(Options{Content: content})
}

// New builds a document. Object layout:
//
//	1 catalog, 2 pages, 3 page, 4 content, 5 resources, 6 font, 7 info
func New(o Options) []byte {
	if o.MediaBox == ([4]float64{}) {
		o.MediaBox = [4]float64{0, 0, 595, 842}
	}
	mediaBox := fmt.Sprintf("/MediaBox [%g %g %g %g]", o.MediaBox[0], o.MediaBox[1], o.MediaBox[2], o.MediaBox[3])

	pages := "<< /Type /Pages /Kids [3 0 R] /Count 1"
	page := "<< /Type /Page /Parent 2 0 R"
	if o.InheritResources {
		pages += " /Resources 5 0 R " + mediaBox
	} else {
		page += " /Resources 5 0 R " + mediaBox
	}
	if o.Content != "" {
		page += " /Contents 4 0 R"
	}
	pages += " >>"
	page += " >>"

	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		pages,
		page,
		fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(o.Content), o.Content),
		"<< /ProcSet [/PDF /Text] /Font << /F1 6 0 R >> >>",
		"<< /Type /Font /Subtype /Type1 /BaseFont /Times-Roman >>",
		"<< /Producer (testpdf) >>",
	}

	var b bytes.Buffer
	if o.XrefStream {
		b.WriteString("%PDF-1.5\n%\xe2\xe3\xcf\xd3\n")
	} else {
		b.WriteString("%PDF-1.4\n%\xe2\xe3\xcf\xd3\n")
	}

	offsets := make([]int, len(objects)+1)
	for i, obj := range objects {
		offsets[i+1] = b.Len()
		fmt.Fprintf(&b, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	id := "<0123456789abcdef0123456789abcdef> <0123456789abcdef0123456789abcdef>"
	xrefStart := b.Len()

	if o.XrefStream {
		selfID := len(objects) + 1
		var rows bytes.Buffer
		writeRow(&rows, 0, 0, 255)
		for _, off := range offsets[1:] {
			writeRow(&rows, 1, off, 0)
		}
		writeRow(&rows, 1, xrefStart, 0)

		fmt.Fprintf(&b, "%d 0 obj\n<< /Type /XRef /Size %d /W [1 4 1] /Root 1 0 R /Info 7 0 R /ID [%s] /Length %d >>\nstream\n",
			selfID, selfID+1, id, rows.Len())
		b.Write(rows.Bytes())
		b.WriteString("\nendstream\nendobj\n")
	} else {
		fmt.Fprintf(&b, "xref\n0 %d\n0000000000 65535 f\r\n", len(objects)+1)
		for _, off := range offsets[1:] {
			fmt.Fprintf(&b, "%010d 00000 n\r\n", off)
		}
		fmt.Fprintf(&b, "trailer\n<< /Size %d /Root 1 0 R /Info 7 0 R /ID [%s] >>\n", len(objects)+1, id)
	}

	fmt.Fprintf(&b, "startxref\n%d\n%%%%EOF\n", xrefStart)
	return b.Bytes()
}

func writeRow(b *bytes.Buffer, typ byte, offset int, gen byte) {
	b.WriteByte(typ)
	var off [4]byte
	binary.BigEndian.PutUint32(off[:], uint32(offset))
	b.Write(off[:])
	b.WriteByte(gen)
}
