package sink

import (
	"bytes"
	"fmt"

	"github.com/matzehuels/bubblechart/pkg/render/bubble/layout"
	"github.com/matzehuels/bubblechart/pkg/render/bubble/styles"
)

// SVGOption configures SVG rendering.
type SVGOption func(*svgRenderer)

type svgRenderer struct {
	style   styles.Style
	grid    bool
	palette *styles.Palette
}

// WithStyle sets the visual style (default styles.Simple).
func WithStyle(s styles.Style) SVGOption { return func(r *svgRenderer) { r.style = s } }

// WithGrid toggles the coordinate grid overlay (default on).
func WithGrid(show bool) SVGOption { return func(r *svgRenderer) { r.grid = show } }

// WithPalette sets the colour scale. By default each render gets a fresh
// category20c palette.
func WithPalette(p *styles.Palette) SVGOption { return func(r *svgRenderer) { r.palette = p } }

func newSVGRenderer(opts ...SVGOption) svgRenderer {
	r := svgRenderer{style: styles.Simple{}, grid: true}
	for _, opt := range opts {
		opt(&r)
	}
	if r.palette == nil {
		r.palette = NewPalette(nil)
	}
	return r
}

// RenderSVG renders the layout as an SVG document.
func RenderSVG(l layout.Layout, opts ...SVGOption) []byte {
	r := newSVGRenderer(opts...)
	primePalette(r.palette, l)

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" class="bubble" viewBox="0 0 %.1f %.1f" width="%.0f" height="%.0f">`+"\n",
		l.Width, l.Height, l.Width, l.Height)

	r.style.RenderDefs(&buf)
	if r.grid {
		r.style.RenderGrid(&buf, styles.NewGrid(l.Width, l.Height))
	}

	for _, b := range l.Bubbles {
		sb := styleBubble(b, r.palette)
		fmt.Fprintf(&buf, `  <g class="%s" transform="translate(%.2f,%.2f)">`+"\n", bubbleClass(l.Policy, b.Cluster), b.X, b.Y)
		fmt.Fprintf(&buf, "    <title>%s</title>\n", styles.EscapeXML(b.Title))
		r.style.RenderBubble(&buf, sb)
		r.style.RenderLabel(&buf, sb)
		buf.WriteString("  </g>\n")
	}

	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

// NewPalette returns the palette used when no WithPalette option is given.
// colors may be nil.
func NewPalette(colors []string) *styles.Palette {
	return styles.NewPalette(colors...)
}

// primePalette requests colours in cluster order first so that colour
// assignment follows domain order rather than bubble order.
func primePalette(p *styles.Palette, l layout.Layout) {
	for _, c := range l.Clusters {
		p.Color(c.Domain)
	}
	for _, b := range l.Bubbles {
		p.Color(b.ColorKey)
	}
}

func styleBubble(b layout.Bubble, p *styles.Palette) styles.Bubble {
	return styles.Bubble{
		ID:       b.ID,
		Label:    b.Label,
		R:        b.R,
		Fill:     p.Color(b.ColorKey),
		Stroke:   p.Stroke(b.ColorKey),
		FontSize: styles.DefaultFontSize,
	}
}

func bubbleClass(p layout.Policy, cluster int) string {
	switch p {
	case layout.PolicyGrid:
		return fmt.Sprintf("cluster-%d", cluster)
	case layout.PolicyForce:
		return "circle"
	default:
		return "node"
	}
}
