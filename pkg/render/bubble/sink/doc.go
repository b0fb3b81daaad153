// Package sink renders bubble layouts to output formats.
//
// # Formats
//
//   - [RenderSVG]: scalable vector output with the grid overlay, one group per
//     bubble holding a tooltip title, the circle and its label
//   - [RenderPNG]: raster output drawn natively with golang.org/x/image,
//     supersampled for smooth edges
//   - [RenderPDF]: the SVG converted with rsvg-convert
//   - [RenderJSON]: the layout itself, pretty-printed
//
// # Options
//
// SVG rendering is configured with functional options:
//
//	svg := sink.RenderSVG(l,
//	    sink.WithStyle(handdrawn.New(42)),
//	    sink.WithGrid(false),
//	)
//
// Bubble groups carry the class of the layout policy: "node" for flat and
// nested packs, "cluster-<i>" for the grid policy and "circle" for the force
// policy.
package sink
