package layout

import (
	"github.com/matzehuels/bubblechart/pkg/intent"
	"github.com/matzehuels/bubblechart/pkg/pack"
)

func buildFlat(l *Layout, data []intent.Intent, opts Options) {
	l.Padding = opts.padding(DefaultFlatPadding)
	idx := domainIndex(data)

	root := pack.NewNode(nil)
	for _, it := range data {
		root.Add(pack.NewLeaf(it, it.Value))
	}
	pack.Hierarchy(root)
	pack.Packer{Width: l.Width, Height: l.Height, Padding: l.Padding}.Pack(root)

	for _, leaf := range root.Leaves() {
		it := leaf.Data.(intent.Intent)
		l.Bubbles = append(l.Bubbles, packedBubble(it, idx[it.Domain], leaf))
	}
}

func buildNested(l *Layout, data []intent.Intent, opts Options) {
	l.Padding = opts.padding(DefaultNestedPadding)

	root, groups := domainTree(data)
	pack.Packer{Width: l.Width, Height: l.Height, Padding: l.Padding}.Pack(root)

	for i, g := range groups {
		l.Clusters = append(l.Clusters, Cluster{
			Index:          i,
			Domain:         g.Data.(string),
			X:              g.X,
			Y:              g.Y,
			R:              g.R,
			Representative: largestLeaf(g),
		})
		for _, leaf := range g.Children {
			l.Bubbles = append(l.Bubbles, packedBubble(leaf.Data.(intent.Intent), i, leaf))
		}
	}
}

// domainTree builds root → domain → intent and sums values.
func domainTree(data []intent.Intent) (*pack.Node, []*pack.Node) {
	root := pack.NewNode(nil)
	var groups []*pack.Node
	for _, g := range intent.GroupByDomain(data) {
		node := pack.NewNode(g.Domain)
		for _, it := range g.Intents {
			node.Add(pack.NewLeaf(it, it.Value))
		}
		root.Add(node)
		groups = append(groups, node)
	}
	pack.Hierarchy(root)
	return root, groups
}

func packedBubble(it intent.Intent, cluster int, n *pack.Node) Bubble {
	b := newBubble(it, cluster)
	b.X, b.Y, b.R = n.X, n.Y, n.R
	b.Label = PackLabel(it.Name, n.R)
	return b
}

func largestLeaf(n *pack.Node) string {
	var best *pack.Node
	for _, c := range n.Children {
		if best == nil || c.R > best.R {
			best = c
		}
	}
	if best == nil {
		return ""
	}
	return best.Data.(intent.Intent).ID
}
