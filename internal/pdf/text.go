package pdf

import (
	"encoding/hex"
	"strings"

	"golang.org/x/text/encoding/charmap"
)

// EncodeText returns s as a hex string operand in WinAnsiEncoding, the
// encoding of the standard Type1 fonts. Runes outside the code page are
// replaced by '?'.
func EncodeText(s string) string {
	var b strings.Builder
	b.WriteByte('<')
	for _, r := range s {
		c, ok := charmap.Windows1252.EncodeRune(r)
		if !ok {
			c = '?'
		}
		b.WriteString(hex.EncodeToString([]byte{c}))
	}
	b.WriteByte('>')
	return b.String()
}

// DecodeText reverses EncodeText for strings read back from a content
// stream operand.
func DecodeText(raw []byte) string {
	var b strings.Builder
	for _, c := range raw {
		b.WriteRune(charmap.Windows1252.DecodeByte(c))
	}
	return b.String()
}
