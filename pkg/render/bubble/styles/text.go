package styles

import (
	"bytes"
	"encoding/xml"
)

// Label defaults.
const (
	DefaultFontSize = 12.0
	LabelDY         = ".2em"
	FontFamily      = "sans-serif"
)

// EscapeXML escapes s for use in SVG text and attribute values.
func EscapeXML(s string) string {
	var buf bytes.Buffer
	xml.EscapeText(&buf, []byte(s))
	return buf.String()
}
