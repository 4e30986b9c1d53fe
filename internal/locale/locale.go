// Package locale picks the short date layout of the host locale.
package locale

import (
	"os"
	"sort"
	"strings"
	"time"

	"github.com/goodsign/monday"
	"golang.org/x/text/language"
)

// DefaultLayout is used for the C/POSIX locale and anything unrecognised.
const DefaultLayout = "1/2/2006"

// CLDR short date patterns indexed by a language matcher. en-001 and es-419
// stand for the English and Spanish regions that follow the British and
// Spanish order.
var (
	patterns []string
	matcher  language.Matcher
)

func init() {
	locales := make([]string, 0, len(monday.ShortFormatsByLocale))
	for l := range monday.ShortFormatsByLocale {
		locales = append(locales, string(l))
	}
	sort.Strings(locales)

	// The first tag is what the matcher falls back to.
	tags := []language.Tag{language.AmericanEnglish}
	patterns = []string{DefaultLayout}
	add := func(tag language.Tag, locale string) {
		pattern, ok := monday.ShortFormatsByLocale[monday.Locale(locale)]
		if !ok {
			return
		}
		tags = append(tags, tag)
		patterns = append(patterns, pattern)
	}
	for _, l := range locales {
		tag, err := language.Parse(strings.ReplaceAll(l, "_", "-"))
		if err != nil {
			continue
		}
		add(tag, l)
	}
	add(language.MustParse("en-001"), "en_GB")
	add(language.MustParse("es-419"), "es_ES")

	matcher = language.NewMatcher(tags)
}

// ShortDateLayout returns a time layout for the short date format of tag.
// Component order and separators come from the CLDR short pattern of the
// closest supported locale; day and month are written without padding and
// the year in full. Year-first dates separated by '-' keep the ISO padding.
// When tag carries no explicit region the most likely one is used, so "de"
// maps to Germany.
func ShortDateLayout(tag language.Tag) string {
	if tag == language.Und {
		return DefaultLayout
	}
	_, i, conf := matcher.Match(tag)
	if conf == language.No || i <= 0 {
		return DefaultLayout
	}
	if layout, ok := numericLayout(patterns[i]); ok {
		return layout
	}
	return DefaultLayout
}

const (
	partDay = iota
	partMonth
	partYear
)

// numericLayout rewrites a numeric Go date layout such as "02.01.06" into
// the unpadded four-digit-year form "2.1.2006".
func numericLayout(pattern string) (string, bool) {
	var (
		parts []int
		seps  []string
		sep   strings.Builder
	)
	for i := 0; i < len(pattern); {
		rest := pattern[i:]
		part, n := -1, 0
		switch {
		case strings.HasPrefix(rest, "2006"):
			part, n = partYear, 4
		case strings.HasPrefix(rest, "06"):
			part, n = partYear, 2
		case strings.HasPrefix(rest, "01"):
			part, n = partMonth, 2
		case strings.HasPrefix(rest, "02"), strings.HasPrefix(rest, "_2"):
			part, n = partDay, 2
		case rest[0] == '1':
			part, n = partMonth, 1
		case rest[0] == '2':
			part, n = partDay, 1
		}
		if n == 0 {
			sep.WriteByte(rest[0])
			i++
			continue
		}
		parts = append(parts, part)
		seps = append(seps, sep.String())
		sep.Reset()
		i += n
	}
	seps = append(seps, sep.String())

	if len(parts) != 3 || parts[0] == parts[1] || parts[1] == parts[2] || parts[0] == parts[2] {
		return "", false
	}

	pad := parts[0] == partYear && strings.TrimSpace(seps[1]) == "-"

	var b strings.Builder
	for i, part := range parts {
		b.WriteString(seps[i])
		switch {
		case part == partYear:
			b.WriteString("2006")
		case part == partMonth && pad:
			b.WriteString("01")
		case part == partMonth:
			b.WriteString("1")
		case pad:
			b.WriteString("02")
		default:
			b.WriteString("2")
		}
	}
	b.WriteString(seps[3])
	return b.String(), true
}

// Parse converts a POSIX locale name such as "de_DE.UTF-8" into a tag.
// The C and POSIX locales yield language.Und.
func Parse(name string) language.Tag {
	if i := strings.IndexAny(name, ".@"); i >= 0 {
		name = name[:i]
	}
	name = strings.ReplaceAll(name, "_", "-")
	switch name {
	case "", "C", "POSIX":
		return language.Und
	}
	tag, err := language.Parse(name)
	if err != nil {
		return language.Und
	}
	return tag
}

// Host returns the tag for the process locale, consulting LC_ALL, LC_TIME
// and LANG in that order.
func Host() language.Tag {
	return hostFrom(os.Getenv)
}

func hostFrom(getenv func(string) string) language.Tag {
	for _, key := range []string{"LC_ALL", "LC_TIME", "LANG"} {
		if v := getenv(key); v != "" {
			return Parse(v)
		}
	}
	return language.Und
}

// HostLayout is ShortDateLayout(Host()), except that an unset or C locale
// falls back to DefaultLayout instead of a guessed region.
func HostLayout() string {
	tag := Host()
	if tag == language.Und {
		return DefaultLayout
	}
	return ShortDateLayout(tag)
}

// Format renders t with the given layout, or the host layout when layout
// is empty.
func Format(t time.Time, layout string) string {
	if layout == "" {
		layout = HostLayout()
	}
	return t.Format(layout)
}
