package pack

import (
	"math"

	"github.com/matzehuels/bubblechart/pkg/force"
)

// Packer lays out a hierarchy as nested circles inside a Width×Height frame.
type Packer struct {
	Width   float64
	Height  float64
	Padding float64
}

// Pack assigns X, Y and R to every node under root. Leaf radii start at
// sqrt(Value); siblings are separated by at least Padding once the tree is
// scaled so the root circle has diameter min(Width, Height). The root is
// centred in the frame.
//
// Call [Hierarchy] first so internal node values are summed.
func (p Packer) Pack(root *Node) *Node {
	rng := force.NewRand(1)
	side := math.Min(p.Width, p.Height)

	root.X, root.Y = p.Width/2, p.Height/2
	root.EachBefore(func(n *Node) {
		if n.IsLeaf() {
			n.R = math.Sqrt(math.Max(0, n.Value))
		}
	})

	root.EachAfter(packChildren(0, rng))
	if root.R == 0 || side <= 0 {
		root.EachBefore(func(n *Node) {
			n.X, n.Y, n.R = root.X, root.Y, 0
		})
		return root
	}

	root.EachAfter(packChildren(p.Padding*root.R/side, rng))

	k := side / (2 * root.R)
	root.EachBefore(func(n *Node) {
		n.R *= k
		if n.Parent != nil {
			n.X = n.Parent.X + k*n.X
			n.Y = n.Parent.Y + k*n.Y
		}
	})
	return root
}

// packChildren packs the children of each internal node around the node's
// local origin, inflating every child by pad while placing it.
func packChildren(pad float64, rng *force.Rand) func(*Node) {
	return func(n *Node) {
		if n.IsLeaf() {
			return
		}
		circles := make([]Circle, len(n.Children))
		for i, c := range n.Children {
			circles[i] = Circle{R: c.R + pad}
		}
		ptrs := make([]*Circle, len(circles))
		for i := range circles {
			ptrs[i] = &circles[i]
		}
		e := packSiblings(ptrs, rng)
		for i, c := range n.Children {
			c.X, c.Y = circles[i].X, circles[i].Y
		}
		n.R = e + pad
	}
}
