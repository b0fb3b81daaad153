package styles

// Grid overlay constants.
const (
	GridXTicks    = 8
	GridYTicks    = 14
	GridLineColor = "#e0e0e0"
	gridOverhang  = 2
)

// GridLine is one overlay line in canvas coordinates.
type GridLine struct {
	X1, Y1, X2, Y2 float64
	Tick           int
}

// Grid is the coordinate overlay drawn behind the bubbles.
type Grid struct {
	Width, Height float64
	Vertical      []GridLine
	Horizontal    []GridLine
}

// NewGrid computes the overlay for a width×height canvas.
//
// Vertical lines sit at x = i/8·(width+2) and run from the bottom edge up by
// height+2. Horizontal lines sit at y = (14−j)/14·(height+2) − 1 and run from
// x = −1 across width+2.
func NewGrid(width, height float64) Grid {
	g := Grid{Width: width, Height: height}
	xLen, yLen := width+gridOverhang, height+gridOverhang

	for i := 0; i <= GridXTicks; i++ {
		x := float64(i) / GridXTicks * xLen
		g.Vertical = append(g.Vertical, GridLine{X1: x, Y1: height, X2: x, Y2: height - yLen, Tick: i})
	}
	for j := 0; j <= GridYTicks; j++ {
		y := float64(GridYTicks-j)/GridYTicks*yLen - 1
		g.Horizontal = append(g.Horizontal, GridLine{X1: -1, Y1: y, X2: xLen - 1, Y2: y, Tick: j})
	}
	return g
}

// Lines returns all grid lines, vertical first.
func (g Grid) Lines() []GridLine {
	out := make([]GridLine, 0, len(g.Vertical)+len(g.Horizontal))
	out = append(out, g.Vertical...)
	return append(out, g.Horizontal...)
}
