package pack_test

import (
	"fmt"

	"github.com/matzehuels/bubblechart/pkg/pack"
)

func ExamplePacker_Pack() {
	root := pack.NewNode(nil).Add(
		pack.NewLeaf("a", 1),
		pack.NewLeaf("b", 1),
	)
	pack.Hierarchy(root)
	pack.Packer{Width: 200, Height: 100}.Pack(root)

	for _, leaf := range root.Leaves() {
		fmt.Printf("%s x=%.0f y=%.0f r=%.0f\n", leaf.Data, leaf.X, leaf.Y, leaf.R)
	}
	// Output:
	// a x=75 y=50 r=25
	// b x=125 y=50 r=25
}
