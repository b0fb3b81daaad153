// Package pack implements hierarchical circle packing.
//
// Leaves are sized by the square root of their value so that circle area is
// proportional to value. Siblings are placed with the front-chain algorithm,
// each level is wrapped in its smallest enclosing circle, and the finished
// tree is scaled so the root circle fits the requested frame.
//
// # Usage
//
//	root := pack.NewNode(nil)
//	root.Add(pack.NewLeaf("a", 10), pack.NewLeaf("b", 5))
//	pack.Hierarchy(root)
//	pack.Packer{Width: 300, Height: 200, Padding: 8}.Pack(root)
//	for _, leaf := range root.Leaves() {
//	    fmt.Println(leaf.X, leaf.Y, leaf.R)
//	}
//
// # Determinism
//
// The smallest enclosing circle is computed with a randomized incremental
// algorithm. Randomness comes from a fixed linear congruential generator, so
// identical input always produces identical output.
package pack
