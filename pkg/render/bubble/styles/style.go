package styles

import "bytes"

// Style defines the visual appearance for bubble rendering.
type Style interface {
	// RenderDefs writes SVG <defs> and <style> content.
	RenderDefs(buf *bytes.Buffer)
	// RenderGrid writes the coordinate grid overlay.
	RenderGrid(buf *bytes.Buffer, g Grid)
	// RenderBubble writes the circle for one bubble, centred on the origin.
	RenderBubble(buf *bytes.Buffer, b Bubble)
	// RenderLabel writes the label text for one bubble, centred on the origin.
	RenderLabel(buf *bytes.Buffer, b Bubble)
}

// Bubble contains what a style needs to draw one bubble.
type Bubble struct {
	ID       string  // Element id
	Label    string  // Display text (may be empty)
	R        float64 // Radius
	Fill     string  // Fill colour
	Stroke   string  // Outline colour
	FontSize float64 // Label font size
}
