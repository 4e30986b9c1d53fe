// Package pdf appends incremental updates to an existing PDF.
//
// The original bytes are never modified: new and rewritten objects, a new
// cross-reference section and a new trailer are written after the original
// %%EOF marker.
package pdf

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"strconv"

	pdflib "github.com/digitorus/pdf"
	"github.com/mattetti/filebuffer"
)

// Xref section types as reported by the reader.
const (
	xrefTable  = "table"
	xrefStream = "stream"
)

var errFinished = errors.New("writer already finished")

type xrefEntry struct {
	ID     uint32
	Gen    uint16
	Offset int64
}

// Writer collects the objects of one incremental update.
type Writer struct {
	rdr *pdflib.Reader
	buf *filebuffer.Buffer

	// CompressLevel is the zlib level used by AddStream. zlib.NoCompression
	// leaves stream data readable in the output.
	CompressLevel int

	firstNewID uint32
	nextID     uint32
	newEntries []xrefEntry
	updated    []xrefEntry
	finished   bool
}

// NewWriter starts an update of input, which rdr must have been opened on.
func NewWriter(input []byte, rdr *pdflib.Reader) (*Writer, error) {
	size := rdr.Trailer().Key("Size").Int64()
	if size <= 0 {
		size = rdr.XrefInformation.ItemCount
	}
	if size <= 0 {
		return nil, errors.New("trailer has no /Size")
	}

	w := &Writer{
		rdr:           rdr,
		buf:           filebuffer.New([]byte{}),
		CompressLevel: zlib.DefaultCompression,
		firstNewID:    uint32(size),
		nextID:        uint32(size),
	}

	if _, err := w.buf.Write(input); err != nil {
		return nil, err
	}
	// File always needs an empty line after %%EOF.
	if _, err := w.buf.Write([]byte("\n")); err != nil {
		return nil, err
	}
	return w, nil
}

// Reader returns the reader of the original document.
func (w *Writer) Reader() *pdflib.Reader { return w.rdr }

func (w *Writer) offset() int64 { return int64(w.buf.Buff.Len()) }

func (w *Writer) writeObject(id uint32, gen uint16, data []byte) error {
	if _, err := fmt.Fprintf(w.buf, "%d %d obj\n", id, gen); err != nil {
		return err
	}
	if _, err := w.buf.Write(data); err != nil {
		return err
	}
	if _, err := w.buf.Write([]byte("\nendobj\n")); err != nil {
		return err
	}
	return nil
}

// AddObject writes data as a new indirect object and returns its number.
func (w *Writer) AddObject(data []byte) (uint32, error) {
	if w.finished {
		return 0, errFinished
	}
	id := w.nextID
	entry := xrefEntry{ID: id, Offset: w.offset()}
	if err := w.writeObject(id, 0, data); err != nil {
		return 0, fmt.Errorf("failed to write object %d: %w", id, err)
	}
	w.nextID++
	w.newEntries = append(w.newEntries, entry)
	return id, nil
}

// AddStream writes a stream object. dict holds the dictionary entries
// without the surrounding << >>; /Length and /Filter are added here.
// Data is compressed unless CompressLevel is zlib.NoCompression or raw is
// already encoded (filter != "").
func (w *Writer) AddStream(dict string, data []byte, filter string) (uint32, error) {
	if filter == "" && w.CompressLevel != zlib.NoCompression {
		var b bytes.Buffer
		zw, err := zlib.NewWriterLevel(&b, w.CompressLevel)
		if err != nil {
			return 0, err
		}
		if _, err := zw.Write(data); err != nil {
			return 0, err
		}
		if err := zw.Close(); err != nil {
			return 0, err
		}
		data = b.Bytes()
		filter = "FlateDecode"
	}

	var obj bytes.Buffer
	obj.WriteString("<<")
	if dict != "" {
		obj.WriteString(" ")
		obj.WriteString(dict)
	}
	if filter != "" {
		obj.WriteString(" /Filter /")
		obj.WriteString(filter)
	}
	fmt.Fprintf(&obj, " /Length %d >>\nstream\n", len(data))
	obj.Write(data)
	obj.WriteString("\nendstream")

	return w.AddObject(obj.Bytes())
}

// UpdateObject writes a replacement for an existing object.
func (w *Writer) UpdateObject(id uint32, gen uint16, data []byte) error {
	if w.finished {
		return errFinished
	}
	if id == 0 || id >= w.firstNewID {
		return fmt.Errorf("object %d is not part of the original document", id)
	}
	entry := xrefEntry{ID: id, Gen: gen, Offset: w.offset()}
	if err := w.writeObject(id, gen, data); err != nil {
		return fmt.Errorf("failed to update object %d: %w", id, err)
	}
	w.updated = append(w.updated, entry)
	return nil
}

// Finish writes the cross-reference section and trailer and returns the
// complete document. The writer cannot be used afterwards.
func (w *Writer) Finish() ([]byte, error) {
	if w.finished {
		return nil, errFinished
	}
	w.finished = true

	sort.Slice(w.updated, func(i, j int) bool { return w.updated[i].ID < w.updated[j].ID })

	var err error
	var xrefStart int64
	switch w.rdr.XrefInformation.Type {
	case xrefStream:
		xrefStart, err = w.writeXrefStream()
	default:
		xrefStart, err = w.writeXrefTable()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to write xref: %w", err)
	}

	if _, err := fmt.Fprintf(w.buf, "startxref\n%d\n%%%%EOF\n", xrefStart); err != nil {
		return nil, err
	}
	return w.buf.Buff.Bytes(), nil
}

func (w *Writer) writeXrefTable() (int64, error) {
	start := w.offset()

	var b bytes.Buffer
	b.WriteString("xref\n")
	for _, e := range w.updated {
		fmt.Fprintf(&b, "%d 1\n%010d %05d n\r\n", e.ID, e.Offset, e.Gen)
	}
	if len(w.newEntries) > 0 {
		fmt.Fprintf(&b, "%d %d\n", w.firstNewID, len(w.newEntries))
		for _, e := range w.newEntries {
			fmt.Fprintf(&b, "%010d 00000 n\r\n", e.Offset)
		}
	}

	b.WriteString("trailer\n<<")
	fmt.Fprintf(&b, " /Size %d", w.nextID)
	w.writeTrailerEntries(&b)
	b.WriteString(" >>\n")

	if _, err := w.buf.Write(b.Bytes()); err != nil {
		return 0, err
	}
	return start, nil
}

// writeXrefStream writes a cross-reference stream that also covers itself.
func (w *Writer) writeXrefStream() (int64, error) {
	start := w.offset()
	selfID := w.nextID
	w.nextID++

	var rows bytes.Buffer
	var index []string
	for _, e := range w.updated {
		writeXrefStreamLine(&rows, 1, e.Offset, byte(e.Gen))
		index = append(index, strconv.FormatUint(uint64(e.ID), 10), "1")
	}
	for _, e := range w.newEntries {
		writeXrefStreamLine(&rows, 1, e.Offset, 0)
	}
	writeXrefStreamLine(&rows, 1, start, 0)
	index = append(index, strconv.FormatUint(uint64(w.firstNewID), 10), strconv.Itoa(len(w.newEntries)+1))

	var z bytes.Buffer
	zw := zlib.NewWriter(&z)
	if _, err := zw.Write(rows.Bytes()); err != nil {
		return 0, err
	}
	if err := zw.Close(); err != nil {
		return 0, err
	}

	var b bytes.Buffer
	fmt.Fprintf(&b, "%d 0 obj\n<< /Type /XRef /W [1 4 1] /Filter /FlateDecode", selfID)
	fmt.Fprintf(&b, " /Length %d /Size %d /Index [", z.Len(), w.nextID)
	for i, s := range index {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(s)
	}
	b.WriteString("]")
	w.writeTrailerEntries(&b)
	b.WriteString(" >>\nstream\n")
	b.Write(z.Bytes())
	b.WriteString("\nendstream\nendobj\n")

	if _, err := w.buf.Write(b.Bytes()); err != nil {
		return 0, err
	}
	return start, nil
}

// writeTrailerEntries writes /Root, /Prev, /Info and /ID as found in the
// original trailer.
func (w *Writer) writeTrailerEntries(b *bytes.Buffer) {
	trailer := w.rdr.Trailer()

	root := trailer.Key("Root").GetPtr()
	fmt.Fprintf(b, " /Root %d %d R", root.GetID(), root.GetGen())
	fmt.Fprintf(b, " /Prev %d", w.rdr.XrefInformation.StartPos)

	if info := trailer.Key("Info"); !info.IsNull() {
		ptr := info.GetPtr()
		if ptr.GetID() != 0 {
			fmt.Fprintf(b, " /Info %d %d R", ptr.GetID(), ptr.GetGen())
		}
	}

	if id := trailer.Key("ID"); id.Kind() == pdflib.Array && id.Len() == 2 {
		fmt.Fprintf(b, " /ID [<%s> <%s>]",
			hex.EncodeToString([]byte(id.Index(0).RawString())),
			hex.EncodeToString([]byte(id.Index(1).RawString())))
	}
}

// writeXrefStreamLine writes one row of a [1 4 1] cross-reference stream.
func writeXrefStreamLine(b *bytes.Buffer, xreftype byte, offset int64, gen byte) {
	b.WriteByte(xreftype)

	offsetBytes := make([]byte, 4)
	binary.BigEndian.PutUint32(offsetBytes, uint32(offset))
	b.Write(offsetBytes)

	b.WriteByte(gen)
}
