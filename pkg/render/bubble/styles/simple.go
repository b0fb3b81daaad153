package styles

import (
	"bytes"
	"fmt"
)

// Simple draws solid circles without outlines and plain grid lines.
type Simple struct{}

func (Simple) RenderDefs(buf *bytes.Buffer) {}

func (Simple) RenderGrid(buf *bytes.Buffer, g Grid) {
	buf.WriteString(`  <g class="grid">` + "\n")
	for _, l := range g.Lines() {
		fmt.Fprintf(buf, `    <line class="grid-line" x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f" stroke="%s"/>`+"\n",
			l.X1, l.Y1, l.X2, l.Y2, GridLineColor)
	}
	buf.WriteString("  </g>\n")
}

func (Simple) RenderBubble(buf *bytes.Buffer, b Bubble) {
	fmt.Fprintf(buf, `    <circle id="%s" r="%.2f" fill="%s"/>`+"\n", EscapeXML(b.ID), b.R, b.Fill)
}

func (Simple) RenderLabel(buf *bytes.Buffer, b Bubble) {
	if b.Label == "" {
		return
	}
	size := b.FontSize
	if size <= 0 {
		size = DefaultFontSize
	}
	fmt.Fprintf(buf, `    <text dy="%s" text-anchor="middle" font-family="%s" font-size="%.0f">%s</text>`+"\n",
		LabelDY, FontFamily, size, EscapeXML(b.Label))
}
