package searchdata

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var lower = cases.Lower(language.Und)

// EncodeKey returns the search key for a display label.
//
// The label is lowercased, then every byte outside [a-z0-9] is replaced by
// '_' followed by its two-digit lowercase hex code: "operator==" becomes
// "operator_3d_3d". Distinct labels may share a key; Build disambiguates.
func EncodeKey(label string) string {
	const hex = "0123456789abcdef"
	l := lower.String(label)
	var b strings.Builder
	b.Grow(len(l) * 2)
	for i := 0; i < len(l); i++ {
		c := l[i]
		if (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('_')
		b.WriteByte(hex[c>>4])
		b.WriteByte(hex[c&0x0f])
	}
	return b.String()
}

var (
	htmlEscaper   = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	htmlUnescaper = strings.NewReplacer("&lt;", "<", "&gt;", ">", "&amp;", "&")
)

// EscapeHTML entity-escapes &, < and >.
func EscapeHTML(s string) string { return htmlEscaper.Replace(s) }

// UnescapeHTML reverses EscapeHTML.
func UnescapeHTML(s string) string { return htmlUnescaper.Replace(s) }

var jsEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`, "\n", `\n`, "\r", `\r`)

// jsString renders s as a single-quoted JS string literal.
func jsString(s string) string {
	return "'" + jsEscaper.Replace(s) + "'"
}
