// Package handdrawn provides a sketchy, hand-drawn bubble style.
//
// Circles are drawn as closed quadratic Bézier paths whose radius wobbles a
// little around the true radius, grid lines bend slightly, and labels use a
// comic font stack. The wobble is derived from a hash of the element id and
// the style seed, so the same input always renders the same picture.
//
//	style := handdrawn.New(42)
//	svg := sink.RenderSVG(l, sink.WithStyle(style))
package handdrawn
