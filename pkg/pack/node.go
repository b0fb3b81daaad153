package pack

// Node is a node in a packing hierarchy.
//
// Leaf nodes carry their own Value. [Hierarchy] replaces the Value of every
// internal node with the sum of its leaves.
type Node struct {
	Data     any
	Value    float64
	X, Y, R  float64
	Depth    int
	Parent   *Node
	Children []*Node
}

// NewNode returns an internal node carrying data.
func NewNode(data any) *Node {
	return &Node{Data: data}
}

// NewLeaf returns a leaf node carrying data with the given value.
func NewLeaf(data any, value float64) *Node {
	return &Node{Data: data, Value: value}
}

// Add appends children to n.
func (n *Node) Add(children ...*Node) *Node {
	for _, c := range children {
		c.Parent = n
		n.Children = append(n.Children, c)
	}
	return n
}

// IsLeaf reports whether n has no children.
func (n *Node) IsLeaf() bool {
	return len(n.Children) == 0
}

// Leaves returns the leaves below n in pre-order.
func (n *Node) Leaves() []*Node {
	var out []*Node
	n.EachBefore(func(c *Node) {
		if c.IsLeaf() {
			out = append(out, c)
		}
	})
	return out
}

// Descendants returns n and every node below it in pre-order.
func (n *Node) Descendants() []*Node {
	var out []*Node
	n.EachBefore(func(c *Node) { out = append(out, c) })
	return out
}

// EachBefore calls fn for n and then its descendants (pre-order).
func (n *Node) EachBefore(fn func(*Node)) {
	stack := []*Node{n}
	for len(stack) > 0 {
		c := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		fn(c)
		for i := len(c.Children) - 1; i >= 0; i-- {
			stack = append(stack, c.Children[i])
		}
	}
}

// EachAfter calls fn for the descendants of n and then n (post-order).
func (n *Node) EachAfter(fn func(*Node)) {
	for _, c := range n.Children {
		c.EachAfter(fn)
	}
	fn(n)
}

// Hierarchy prepares a tree for packing: it sets Depth and Parent links and
// sums leaf values into every internal node. Negative and NaN leaf values
// count as zero.
func Hierarchy(root *Node) *Node {
	root.Parent = nil
	root.Depth = 0
	root.EachBefore(func(n *Node) {
		for _, c := range n.Children {
			c.Parent = n
			c.Depth = n.Depth + 1
		}
	})
	root.EachAfter(func(n *Node) {
		if n.IsLeaf() {
			if !(n.Value > 0) {
				n.Value = 0
			}
			return
		}
		var sum float64
		for _, c := range n.Children {
			sum += c.Value
		}
		n.Value = sum
	})
	return root
}
