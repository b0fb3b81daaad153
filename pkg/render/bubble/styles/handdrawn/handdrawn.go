package handdrawn

import (
	"bytes"
	"fmt"
	"hash/fnv"
	"math"
	"strings"

	"github.com/matzehuels/bubblechart/pkg/render/bubble/styles"
)

// FontFamily is the font stack used for labels.
const FontFamily = `'xkcd Script', 'Comic Neue', 'Comic Sans MS', cursive`

const (
	segments     = 12
	wobbleFrac   = 0.035
	wobbleMin    = 0.6
	lineWobble   = 1.2
	strokeColor  = "#333"
	strokeWidth  = 1.5
	fillOpacity  = 0.85
	greyMin      = 0x90
	greyMax      = 0xd0
	lineSegments = 4
)

// HandDrawn is a sketch style. The zero value uses seed 0.
type HandDrawn struct {
	seed uint64
}

var _ styles.Style = HandDrawn{}

// New returns a hand-drawn style whose wobble is seeded by seed.
func New(seed uint64) HandDrawn {
	return HandDrawn{seed: seed}
}

func (h HandDrawn) RenderDefs(buf *bytes.Buffer) {
	buf.WriteString("  <defs>\n")
	buf.WriteString(`    <filter id="sketch"><feTurbulence type="fractalNoise" baseFrequency="0.03" numOctaves="2" result="noise"/>` +
		`<feDisplacementMap in="SourceGraphic" in2="noise" scale="1.5"/></filter>` + "\n")
	buf.WriteString("  </defs>\n")
}

func (h HandDrawn) RenderGrid(buf *bytes.Buffer, g styles.Grid) {
	buf.WriteString(`  <g class="grid">` + "\n")
	for i, l := range g.Lines() {
		fmt.Fprintf(buf, `    <path class="grid-line" d="%s" fill="none" stroke="%s"/>`+"\n",
			wobbledLine(l.X1, l.Y1, l.X2, l.Y2, h.seed, fmt.Sprintf("grid-%d", i)), styles.GridLineColor)
	}
	buf.WriteString("  </g>\n")
}

func (h HandDrawn) RenderBubble(buf *bytes.Buffer, b styles.Bubble) {
	fill := b.Fill
	if fill == "" {
		fill = greyForID(b.ID)
	}
	fmt.Fprintf(buf, `    <path id="%s" d="%s" fill="%s" fill-opacity="%.2f" stroke="%s" stroke-width="%.1f" stroke-linejoin="round" filter="url(#sketch)"/>`+"\n",
		styles.EscapeXML(b.ID), wobbledCircle(b.R, h.seed, b.ID), fill, fillOpacity, strokeColor, strokeWidth)
}

func (h HandDrawn) RenderLabel(buf *bytes.Buffer, b styles.Bubble) {
	if b.Label == "" {
		return
	}
	size := b.FontSize
	if size <= 0 {
		size = styles.DefaultFontSize
	}
	fmt.Fprintf(buf, `    <text dy="%s" text-anchor="middle" font-family="%s" font-size="%.0f" fill="%s">%s</text>`+"\n",
		styles.LabelDY, styles.EscapeXML(FontFamily), size, strokeColor, styles.EscapeXML(b.Label))
}

// hash mixes an id with the seed into a stable 64-bit value.
func hash(id string, seed uint64) uint64 {
	f := fnv.New64a()
	f.Write([]byte(id))
	return f.Sum64() ^ (seed * 0x9e3779b97f4a7c15)
}

// jitter returns a value in [-1, 1) for the n-th draw of (id, seed).
func jitter(id string, seed uint64, n int) float64 {
	x := hash(id, seed) + uint64(n)*0xbf58476d1ce4e5b9
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	x *= 0x94d049bb133111eb
	x ^= x >> 31
	return float64(x>>11)/float64(1<<52) - 1
}

// wobbledCircle returns a closed path approximating a circle of radius r
// centred on the origin.
func wobbledCircle(r float64, seed uint64, id string) string {
	if r <= 0 {
		return "M0,0Z"
	}
	amp := math.Max(r*wobbleFrac, wobbleMin)
	pts := make([][2]float64, segments)
	for i := range pts {
		a := 2 * math.Pi * float64(i) / segments
		rr := r + jitter(id, seed, i)*amp
		pts[i] = [2]float64{rr * math.Cos(a), rr * math.Sin(a)}
	}

	// Control points sit on the tangent intersection so the path bulges like
	// an arc between neighbouring points.
	k := 1 / math.Cos(math.Pi/segments)
	var sb strings.Builder
	fmt.Fprintf(&sb, "M%.2f,%.2f", pts[0][0], pts[0][1])
	for i := range pts {
		next := pts[(i+1)%segments]
		mid := 2 * math.Pi * (float64(i) + 0.5) / segments
		cr := r * k
		cx, cy := cr*math.Cos(mid), cr*math.Sin(mid)
		fmt.Fprintf(&sb, " Q%.2f,%.2f %.2f,%.2f", cx, cy, next[0], next[1])
	}
	sb.WriteString(" Z")
	return sb.String()
}

// wobbledLine returns a gently bent open path from (x1,y1) to (x2,y2).
func wobbledLine(x1, y1, x2, y2 float64, seed uint64, id string) string {
	dx, dy := x2-x1, y2-y1
	l := math.Hypot(dx, dy)
	if l == 0 {
		return fmt.Sprintf("M%.2f,%.2f", x1, y1)
	}
	nx, ny := -dy/l, dx/l

	var sb strings.Builder
	fmt.Fprintf(&sb, "M%.2f,%.2f", x1, y1)
	for i := 1; i <= lineSegments; i++ {
		t0 := (float64(i) - 0.5) / lineSegments
		t1 := float64(i) / lineSegments
		off := jitter(id, seed, i) * lineWobble
		cx, cy := x1+dx*t0+nx*off, y1+dy*t0+ny*off
		fmt.Fprintf(&sb, " Q%.2f,%.2f %.2f,%.2f", cx, cy, x1+dx*t1, y1+dy*t1)
	}
	return sb.String()
}

// greyForID picks a stable grey for bubbles rendered without a palette.
func greyForID(id string) string {
	v := greyMin + int(hash(id, 0)%uint64(greyMax-greyMin+1))
	return fmt.Sprintf("#%02x%02x%02x", v, v, v)
}
