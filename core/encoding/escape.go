// Package encoding provides XML escaping helpers for hand-written markup.
package encoding

import "strings"

var textReplacer = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	"\r", "&#xD;",
)

var attrReplacer = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	"\"", "&quot;",
	"\r", "&#xD;",
	"\n", "&#xA;",
	"\t", "&#x9;",
)

// EscapeXMLText escapes text content. Carriage returns are written as
// character references so parsers do not normalize them away.
func EscapeXMLText(s string) string {
	return textReplacer.Replace(s)
}

// EscapeXMLAttr escapes text for use in double-quoted XML attributes.
// Whitespace other than spaces is written as character references, since
// attribute value normalization would turn it into spaces.
func EscapeXMLAttr(s string) string {
	return attrReplacer.Replace(s)
}
