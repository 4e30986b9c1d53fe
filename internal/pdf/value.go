package pdf

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"sort"
	"strconv"
	"strings"

	pdflib "github.com/digitorus/pdf"
)

// WriteValue serializes v as it appears inside the object numbered parent.
// Values the reader resolved from another object are written back as
// indirect references so the rewritten object keeps sharing them.
func WriteValue(b *bytes.Buffer, parent uint32, v pdflib.Value) {
	ptr := v.GetPtr()
	if id := uint32(ptr.GetID()); id != 0 && id != parent {
		fmt.Fprintf(b, "%d %d R", id, ptr.GetGen())
		return
	}
	writeDirect(b, parent, v)
}

func writeDirect(b *bytes.Buffer, parent uint32, v pdflib.Value) {
	switch v.Kind() {
	case pdflib.Bool:
		b.WriteString(strconv.FormatBool(v.Bool()))
	case pdflib.Integer:
		b.WriteString(strconv.FormatInt(v.Int64(), 10))
	case pdflib.Real:
		b.WriteString(FormatNumber(v.Float64()))
	case pdflib.String:
		b.WriteString("<")
		b.WriteString(hex.EncodeToString([]byte(v.RawString())))
		b.WriteString(">")
	case pdflib.Name:
		b.WriteString(Name(v.Name()))
	case pdflib.Array:
		b.WriteString("[")
		for i := 0; i < v.Len(); i++ {
			if i > 0 {
				b.WriteString(" ")
			}
			WriteValue(b, parent, v.Index(i))
		}
		b.WriteString("]")
	case pdflib.Dict:
		WriteDict(b, parent, v, nil)
	default:
		// Streams only exist as indirect objects and were handled by the
		// caller; anything else degrades to null.
		b.WriteString("null")
	}
}

// WriteDict serializes the dictionary v. Keys present in override are
// written from override instead, and override keys missing from v are
// appended in sorted order.
func WriteDict(b *bytes.Buffer, parent uint32, v pdflib.Value, override map[string]string) {
	b.WriteString("<<")
	seen := make(map[string]bool, len(override))
	for _, key := range v.Keys() {
		b.WriteString(" ")
		b.WriteString(Name(key))
		b.WriteString(" ")
		if raw, ok := override[key]; ok {
			b.WriteString(raw)
			seen[key] = true
			continue
		}
		WriteValue(b, parent, v.Key(key))
	}
	for _, key := range sortedKeys(override) {
		if seen[key] {
			continue
		}
		b.WriteString(" ")
		b.WriteString(Name(key))
		b.WriteString(" ")
		b.WriteString(override[key])
	}
	b.WriteString(" >>")
}

// Name returns the PDF name token for s, escaping delimiters, whitespace
// and bytes outside printable ASCII as #xx.
func Name(s string) string {
	var b bytes.Buffer
	b.WriteByte('/')
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < 0x21 || c > 0x7e || isDelimiter(c) || c == '#' {
			fmt.Fprintf(&b, "#%02X", c)
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}

func isDelimiter(c byte) bool {
	switch c {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	}
	return false
}

// FormatNumber writes f with at most four decimals and no trailing zeros.
func FormatNumber(f float64) string {
	s := strconv.FormatFloat(f, 'f', 4, 64)
	for len(s) > 1 && s[len(s)-1] == '0' {
		s = s[:len(s)-1]
	}
	s = strings.TrimSuffix(s, ".")
	if s == "-0" {
		return "0"
	}
	return s
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Ref returns an indirect reference to object id with generation 0.
func Ref(id uint32) string {
	return strconv.FormatUint(uint64(id), 10) + " 0 R"
}
