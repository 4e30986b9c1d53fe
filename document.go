// Package signatureengine stamps signature images, text and dates onto the
// first page of a PDF.
//
// Field positions arrive in PDF space (see package coords). Stamping is an
// incremental update: the original bytes are kept and the new content is
// appended, so the result can be compared against the original hash.
//
// Basic usage:
//
//	doc, err := signatureengine.OpenFile("pdfs/sample.pdf")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	out, err := doc.Stamp(signature, placements)
package signatureengine

import (
	"bytes"
	"compress/zlib"
	"errors"
	"fmt"
	"io/fs"
	"os"

	pdflib "github.com/digitorus/pdf"
)

// Document is a parsed base document.
type Document struct {
	data []byte
	rdr  *pdflib.Reader

	compressLevel int
}

// Open parses data as a PDF. The slice is retained and must not be modified.
func Open(data []byte) (doc *Document, err error) {
	// The reader panics on some malformed input instead of returning an error.
	defer func() {
		if r := recover(); r != nil {
			doc, err = nil, &DocumentError{Msg: "failed to open PDF", Err: fmt.Errorf("%v", r)}
		}
	}()

	if len(data) == 0 {
		return nil, &DocumentError{Msg: "failed to open PDF", Err: errors.New("empty document")}
	}
	rdr, err := pdflib.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, &DocumentError{Msg: "failed to open PDF", Err: err}
	}
	return &Document{
		data:          data,
		rdr:           rdr,
		compressLevel: zlib.DefaultCompression,
	}, nil
}

// OpenFile reads and parses the document at path. A missing file yields a
// NotFoundError.
func OpenFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &NotFoundError{Msg: "PDF not found", Err: err}
		}
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return Open(data)
}

// SetCompression configures the zlib compression level for new streams.
// zlib.NoCompression keeps stamped content readable in the output.
func (d *Document) SetCompression(level int) {
	d.compressLevel = level
}

// Bytes returns the original document bytes.
func (d *Document) Bytes() []byte {
	return d.data
}

// Reader returns the low-level PDF reader.
func (d *Document) Reader() *pdflib.Reader {
	return d.rdr
}
