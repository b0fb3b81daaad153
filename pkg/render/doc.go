// Package render provides visualization rendering for intent data.
//
// # Overview
//
// This package contains the rendering pipeline that turns intents into
// visual outputs. It provides:
//
//   - Generic format conversion (SVG to PDF/PNG)
//   - Bubble charts (in [bubble] subpackages)
//   - Domain/intent graph diagrams (in [nodelink] subpackage)
//
// # Format Conversion
//
// The [ToPDF] and [ToPNG] functions convert any SVG to other formats using
// the external rsvg-convert tool (from librsvg). Bubble PDFs and node-link
// PDF/PNG output go through them.
//
//	svg := sink.RenderSVG(l)
//	pdf, err := render.ToPDF(ctx, svg)
//	png, err := render.ToPNG(ctx, svg, 2.0)  // 2x scale
//
// # Bubble Charts
//
// Key bubble subpackages:
//   - [bubble/layout]: Bubble position computation (pack, grid, force)
//   - [bubble/styles]: Visual styles (simple, handdrawn) and the colour palette
//   - [bubble/sink]: Output formats (SVG, PNG, PDF, JSON)
//
// # Node-Link Diagrams
//
// The [nodelink] subpackage renders domains and intents as a radial
// Graphviz graph.
//
//	dot := nodelink.ToDOT(intents, nodelink.Options{})
//	svg, err := nodelink.RenderSVG(ctx, dot)
package render
