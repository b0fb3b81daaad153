package force

import "math"

// Node is a circle participating in a simulation.
type Node struct {
	Index   int
	X, Y    float64
	VX, VY  float64
	Radius  float64
	Cluster int
}

const (
	initialRadius = 10
)

var initialAngle = math.Pi * (3 - math.Sqrt(5))

// place assigns phyllotaxis positions to nodes whose coordinates are NaN.
func place(nodes []*Node) {
	for i, n := range nodes {
		n.Index = i
		if math.IsNaN(n.X) || math.IsNaN(n.Y) {
			r := initialRadius * math.Sqrt(0.5+float64(i))
			a := float64(i) * initialAngle
			n.X = r * math.Cos(a)
			n.Y = r * math.Sin(a)
		}
		if math.IsNaN(n.VX) || math.IsNaN(n.VY) {
			n.VX, n.VY = 0, 0
		}
	}
}

// NewNodes returns n unplaced nodes with the given radii. Positions are
// assigned by the simulation.
func NewNodes(radii []float64) []*Node {
	nodes := make([]*Node, len(radii))
	for i, r := range radii {
		nodes[i] = &Node{Index: i, X: math.NaN(), Y: math.NaN(), Radius: r}
	}
	return nodes
}
