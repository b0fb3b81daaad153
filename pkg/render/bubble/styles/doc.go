// Package styles defines visual styles for bubble chart rendering.
//
// # Overview
//
// A [Style] controls how the grid overlay, bubble circles and bubble labels
// are drawn. Two styles are provided:
//
//   - [Simple]: flat filled circles and thin grid lines
//   - handdrawn: sketchy circle outlines and a comic font (in subpackage)
//
// Styles write SVG fragments into a shared buffer. The sink owns the
// surrounding document and the per-bubble group element, so styles draw
// each bubble centred on the origin.
//
// # Colours
//
// [Palette] assigns colours from the category20c scheme to colour keys in
// order of first request, the way an ordinal scale does. Stroke colours are
// derived from the fill in CIE-L*a*b* space.
//
// # Grid
//
// [NewGrid] computes the fixed coordinate overlay: 9 vertical lines spanning
// the width (ticks 0..8) and 15 horizontal lines spanning the height (ticks
// 14..0). The overlay does not depend on the data.
package styles
