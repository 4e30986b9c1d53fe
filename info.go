package signatureengine

import (
	"strings"
	"time"

	pdflib "github.com/digitorus/pdf"
)

// DocumentInfo is the metadata of a base document.
type DocumentInfo struct {
	Title    string   `json:"title,omitempty"`
	Author   string   `json:"author,omitempty"`
	Subject  string   `json:"subject,omitempty"`
	Creator  string   `json:"creator,omitempty"`
	Producer string   `json:"producer,omitempty"`
	Keywords []string `json:"keywords,omitempty"`

	Pages        int       `json:"pages"`
	CreationDate time.Time `json:"creation_date,omitzero"`
	ModDate      time.Time `json:"mod_date,omitzero"`
}

// Info reads the trailer /Info dictionary and the page count.
func (d *Document) Info() (info DocumentInfo) {
	defer func() {
		// Broken info dictionaries are reported as empty.
		if r := recover(); r != nil {
			info = DocumentInfo{}
		}
	}()

	info.Pages = d.rdr.NumPage()

	v := d.rdr.Trailer().Key("Info")
	if v.IsNull() {
		return info
	}
	text := func(key string) string {
		return v.Key(key).Text()
	}
	info.Title = text("Title")
	info.Author = text("Author")
	info.Subject = text("Subject")
	info.Creator = text("Creator")
	info.Producer = text("Producer")
	if kw := text("Keywords"); kw != "" {
		info.Keywords = parseKeywords(kw)
	}
	info.CreationDate = parseDate(v.Key("CreationDate"))
	info.ModDate = parseDate(v.Key("ModDate"))
	return info
}

func parseDate(v pdflib.Value) time.Time {
	return parseDateString(v.Text())
}

// parseDateString parses a PDF date such as D:20240305120000+01'00'.
// Truncated forms are accepted; unparsable dates yield the zero time.
func parseDateString(s string) time.Time {
	s = strings.TrimPrefix(s, "D:")
	if s == "" {
		return time.Time{}
	}
	s = strings.TrimSuffix(s, "'")
	s = strings.Replace(s, "'", ":", 1)

	layouts := []string{
		"20060102150405Z07:00",
		"20060102150405Z0700",
		"20060102150405Z07",
		"20060102150405",
		"200601021504",
		"2006010215",
		"20060102",
		"200601",
		"2006",
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// parseKeywords splits on the first separator found.
func parseKeywords(value string) []string {
	for _, sep := range []string{";", ","} {
		if strings.Contains(value, sep) {
			var out []string
			for _, k := range strings.Split(value, sep) {
				if k = strings.TrimSpace(k); k != "" {
					out = append(out, k)
				}
			}
			return out
		}
	}
	return strings.Fields(value)
}
