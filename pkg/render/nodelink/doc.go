// Package nodelink renders intents as a radial node-link diagram.
//
// # Overview
//
// Domains and intents become Graphviz nodes arranged by the twopi engine:
// a hidden hub in the centre, one ring of domain nodes and an outer ring of
// intent nodes whose diameter grows with the square root of their value, so
// node area tracks value the same way bubble area does.
//
// # Usage
//
// Convert intents to DOT, then render:
//
//	dot := nodelink.ToDOT(intents, nodelink.Options{})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// For PDF or PNG output:
//
//	pdf, err := nodelink.RenderPDF(ctx, dot)
//	png, err := nodelink.RenderPNG(ctx, dot, 2.0)  // 2x scale
//
// # Options
//
//   - Detailed: intent labels include the value
//   - Palette: fill colours per domain (category20c by default)
//
// # Serialization
//
// Graphviz computes positions while rendering, so a [Layout] carries the DOT
// source instead of coordinates. Use [Export] and [Parse] to move it through
// caches and files.
package nodelink
