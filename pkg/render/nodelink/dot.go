package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"regexp"
	"strconv"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/bubblechart/pkg/intent"
	"github.com/matzehuels/bubblechart/pkg/render"
	"github.com/matzehuels/bubblechart/pkg/render/bubble/styles"
)

// Intent node diameters in inches.
const (
	minNodeWidth = 0.3
	maxNodeWidth = 1.6
	hubID        = "hub"
)

// Options configures node-link diagram rendering.
type Options struct {
	// Detailed adds the value to intent labels.
	Detailed bool
	// Palette colours domains; nil uses a fresh category20c palette.
	Palette *styles.Palette
}

// ToDOT converts intents to an undirected Graphviz graph for the twopi engine.
// Intents with a non-positive value are skipped.
func ToDOT(intents []intent.Intent, opts Options) string {
	palette := opts.Palette
	if palette == nil {
		palette = styles.NewPalette()
	}
	data := intent.Filter(intents)
	maxValue := intent.MaxValue(data)

	var buf bytes.Buffer
	buf.WriteString("graph G {\n")
	buf.WriteString("  layout=twopi;\n")
	fmt.Fprintf(&buf, "  root=%q;\n", hubID)
	buf.WriteString("  ranksep=1.2;\n")
	buf.WriteString("  overlap=false;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=circle, style=filled, fontname=\"Helvetica\", fontsize=10, fixedsize=true];\n")
	buf.WriteString("  edge [color=\"#e0e0e0\"];\n")
	fmt.Fprintf(&buf, "  %q [style=invis, width=0.1, label=\"\"];\n", hubID)
	buf.WriteString("\n")

	for _, g := range intent.GroupByDomain(data) {
		did := domainID(g.Domain)
		fill := palette.Color(g.Domain)
		fmt.Fprintf(&buf, "  %q [label=%q, shape=box, style=\"rounded,filled\", fixedsize=false, fillcolor=%q, color=%q];\n",
			did, g.Domain, fill, styles.Darken(fill, 0.3))
		fmt.Fprintf(&buf, "  %q -- %q [style=invis];\n", hubID, did)

		for _, it := range g.Intents {
			fmt.Fprintf(&buf, "  %q [label=%q, width=%.2f, fillcolor=%q, color=%q, tooltip=%q];\n",
				intentID(it.ID), fmtLabel(it, opts.Detailed), nodeWidth(it.Value, maxValue),
				fill, styles.Darken(fill, 0.3), it.Name+"\n"+it.Domain)
			fmt.Fprintf(&buf, "  %q -- %q;\n", did, intentID(it.ID))
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func domainID(domain string) string { return "domain:" + domain }
func intentID(id string) string     { return "intent:" + id }

func nodeWidth(value, maxValue float64) float64 {
	if maxValue <= 0 {
		return minNodeWidth
	}
	return minNodeWidth + (maxNodeWidth-minNodeWidth)*math.Sqrt(value/maxValue)
}

func fmtLabel(it intent.Intent, detailed bool) string {
	if !detailed {
		return it.Name
	}
	return fmt.Sprintf("%s\n%s", it.Name, strconv.FormatFloat(it.Value, 'f', -1, 64))
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
// Returns the SVG bytes ready for display or further conversion with [render.ToPDF] or [render.ToPNG].
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's point-based <svg> header with a plain
// pixel viewBox so the diagram scales like the bubble charts.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	header := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" class="nodelink" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(header))
}

// RenderPDF renders a DOT graph as PDF via SVG conversion.
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func RenderPDF(ctx context.Context, dot string) ([]byte, error) {
	svg, err := RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	return render.ToPDF(ctx, svg)
}

// RenderPNG renders a DOT graph as PNG via SVG conversion.
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func RenderPNG(ctx context.Context, dot string, scale float64) ([]byte, error) {
	svg, err := RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	return render.ToPNG(ctx, svg, scale)
}
