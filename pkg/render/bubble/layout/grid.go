package layout

import (
	"math"

	"github.com/matzehuels/bubblechart/pkg/intent"
	"github.com/matzehuels/bubblechart/pkg/pack"
)

// GridDims returns the column and row count of the cluster grid for n
// clusters on a canvas with the given aspect ratio (width/height).
//
// Every row count h in [1, n] is a candidate with ceil(n/h) columns. The
// candidate whose cols/rows ratio is closest to aspect wins; ties go to the
// grid with fewer cells, then fewer rows. The result always satisfies
// cols*rows >= n. It returns (0, 0) for n <= 0.
func GridDims(n int, aspect float64) (cols, rows int) {
	if n <= 0 {
		return 0, 0
	}
	if !(aspect > 0) || math.IsInf(aspect, 0) {
		aspect = 1
	}
	best := math.Inf(1)
	for h := 1; h <= n; h++ {
		w := (n + h - 1) / h
		d := math.Abs(float64(w)/float64(h) - aspect)
		switch {
		case d < best:
		case d == best && w*h < cols*rows:
		case d == best && w*h == cols*rows && h < rows:
		default:
			continue
		}
		best, cols, rows = d, w, h
	}
	return cols, rows
}

type gridCluster struct {
	node                   *pack.Node
	minX, minY, maxX, maxY float64
}

func (c gridCluster) width() float64   { return c.maxX - c.minX }
func (c gridCluster) height() float64  { return c.maxY - c.minY }
func (c gridCluster) centerX() float64 { return (c.minX + c.maxX) / 2 }
func (c gridCluster) centerY() float64 { return (c.minY + c.maxY) / 2 }

func buildGrid(l *Layout, data []intent.Intent, opts Options) {
	l.Padding = opts.padding(DefaultGridPadding)

	groups := intent.GroupByDomain(data)
	if len(groups) == 1 {
		buildFlat(l, data, opts)
		l.Policy = PolicyGrid
		l.Grid = &Grid{Cols: 1, Rows: 1, CellWidth: l.Width, CellHeight: l.Height}
		l.Clusters = []Cluster{{
			Index:          0,
			Domain:         groups[0].Domain,
			X:              l.Width / 2,
			Y:              l.Height / 2,
			Cell:           &Cell{Width: l.Width, Height: l.Height},
			Representative: largestBubble(l.Bubbles),
		}}
		return
	}

	// Pack every domain in one hierarchy so all clusters share a radius scale.
	root, nodes := domainTree(data)
	pack.Packer{Width: l.Width, Height: l.Height * GridPackHeightFactor, Padding: l.Padding}.Pack(root)

	clusters := make([]gridCluster, len(nodes))
	for i, n := range nodes {
		c := gridCluster{node: n, minX: math.Inf(1), minY: math.Inf(1), maxX: math.Inf(-1), maxY: math.Inf(-1)}
		for _, leaf := range n.Children {
			c.minX = math.Min(c.minX, leaf.X-leaf.R)
			c.minY = math.Min(c.minY, leaf.Y-leaf.R)
			c.maxX = math.Max(c.maxX, leaf.X+leaf.R)
			c.maxY = math.Max(c.maxY, leaf.Y+leaf.R)
		}
		clusters[i] = c
	}

	cols, rows := GridDims(len(clusters), l.Width/l.Height)
	cellW, cellH := l.Width/float64(cols), l.Height/float64(rows)
	l.Grid = &Grid{Cols: cols, Rows: rows, CellWidth: cellW, CellHeight: cellH}

	// Each cluster keeps half the padding free on every side of its cell.
	availW := math.Max(cellW-l.Padding, cellW/2)
	availH := math.Max(cellH-l.Padding, cellH/2)
	scale := 1.0
	for _, c := range clusters {
		if w := c.width(); w > 0 {
			scale = math.Min(scale, availW/w)
		}
		if h := c.height(); h > 0 {
			scale = math.Min(scale, availH/h)
		}
	}

	lastRow := (len(clusters) - 1) / cols
	used := len(clusters) - lastRow*cols
	shift := opts.gridShift() * cellW

	for i, c := range clusters {
		col, row := i%cols, i/cols
		cell := Cell{
			Col:    col,
			Row:    row,
			X:      float64(col) * cellW,
			Y:      float64(row) * cellH,
			Width:  cellW,
			Height: cellH,
		}
		if row == lastRow && used < cols && !opts.NoLastRowShift {
			cell.X += float64(cols-used) * cellW / 2
		}

		slack := math.Max(0, (availW-c.width()*scale)/2)
		dx := math.Min(shift, slack)
		if row%2 == 0 {
			dx = -dx
		}

		cx := cell.X + cellW/2 + dx
		cy := cell.Y + cellH/2
		for _, leaf := range c.node.Children {
			leaf.X = cx + (leaf.X-c.centerX())*scale
			leaf.Y = cy + (leaf.Y-c.centerY())*scale
			leaf.R *= scale
			l.Bubbles = append(l.Bubbles, packedBubble(leaf.Data.(intent.Intent), i, leaf))
		}

		l.Clusters = append(l.Clusters, Cluster{
			Index:          i,
			Domain:         c.node.Data.(string),
			X:              cx,
			Y:              cy,
			Cell:           &cell,
			Representative: largestLeaf(c.node),
		})
	}
}

func largestBubble(bubbles []Bubble) string {
	best := -1
	for i, b := range bubbles {
		if best < 0 || b.R > bubbles[best].R {
			best = i
		}
	}
	if best < 0 {
		return ""
	}
	return bubbles[best].ID
}
