package force

import "math"

// Center translates nodes so their mean position is (X, Y).
type Center struct {
	X, Y  float64
	nodes []*Node
}

func (f *Center) Initialize(nodes []*Node, _ *Rand) { f.nodes = nodes }

func (f *Center) Apply(float64) {
	if len(f.nodes) == 0 {
		return
	}
	var sx, sy float64
	for _, n := range f.nodes {
		sx += n.X
		sy += n.Y
	}
	sx = sx/float64(len(f.nodes)) - f.X
	sy = sy/float64(len(f.nodes)) - f.Y
	for _, n := range f.nodes {
		n.X -= sx
		n.Y -= sy
	}
}

// Collide resolves overlaps between circles. Radius returns the collision
// radius of a node; nil uses Node.Radius.
type Collide struct {
	Radius     func(*Node) float64
	Strength   float64
	Iterations int

	nodes []*Node
	radii []float64
	rnd   *Rand
}

// NewCollide returns a collision force with strength 1 and one iteration.
func NewCollide(radius func(*Node) float64) *Collide {
	return &Collide{Radius: radius, Strength: 1, Iterations: 1}
}

func (f *Collide) Initialize(nodes []*Node, rnd *Rand) {
	f.nodes, f.rnd = nodes, rnd
	f.radii = make([]float64, len(nodes))
	for i, n := range nodes {
		if f.Radius != nil {
			f.radii[i] = f.Radius(n)
		} else {
			f.radii[i] = n.Radius
		}
	}
	if f.Iterations < 1 {
		f.Iterations = 1
	}
}

func (f *Collide) Apply(float64) {
	for k := 0; k < f.Iterations; k++ {
		for i, a := range f.nodes {
			ri := f.radii[i]
			xi, yi := a.X+a.VX, a.Y+a.VY
			for j := i + 1; j < len(f.nodes); j++ {
				b := f.nodes[j]
				rj := f.radii[j]
				r := ri + rj
				x := xi - b.X - b.VX
				y := yi - b.Y - b.VY
				l := x*x + y*y
				if l >= r*r {
					continue
				}
				if x == 0 {
					x = jiggle(f.rnd)
					l += x * x
				}
				if y == 0 {
					y = jiggle(f.rnd)
					l += y * y
				}
				l = math.Sqrt(l)
				l = (r - l) / l * f.Strength
				x *= l
				y *= l
				w := rj * rj / (ri*ri + rj*rj)
				a.VX += x * w
				a.VY += y * w
				w = 1 - w
				b.VX -= x * w
				b.VY -= y * w
			}
		}
	}
}

// ManyBody applies a pairwise charge between nodes scaled by alpha.
// Negative strengths repel, positive strengths attract. Squared distances
// below one are softened to avoid explosive forces between near neighbours.
type ManyBody struct {
	Strength float64
	nodes    []*Node
	rnd      *Rand
}

func (f *ManyBody) Initialize(nodes []*Node, rnd *Rand) { f.nodes, f.rnd = nodes, rnd }

func (f *ManyBody) Apply(alpha float64) {
	for i, a := range f.nodes {
		for j, b := range f.nodes {
			if i == j {
				continue
			}
			x, y := b.X-a.X, b.Y-a.Y
			l := x*x + y*y
			if x == 0 {
				x = jiggle(f.rnd)
				l += x * x
			}
			if y == 0 {
				y = jiggle(f.rnd)
				l += y * y
			}
			if l < 1 {
				l = math.Sqrt(l)
			}
			w := f.Strength * alpha / l
			a.VX += x * w
			a.VY += y * w
		}
	}
}

// PositionX springs nodes toward X.
type PositionX struct {
	X        float64
	Strength float64
	nodes    []*Node
}

func (f *PositionX) Initialize(nodes []*Node, _ *Rand) { f.nodes = nodes }

func (f *PositionX) Apply(alpha float64) {
	for _, n := range f.nodes {
		n.VX += (f.X - n.X) * f.Strength * alpha
	}
}

// PositionY springs nodes toward Y.
type PositionY struct {
	Y        float64
	Strength float64
	nodes    []*Node
}

func (f *PositionY) Initialize(nodes []*Node, _ *Rand) { f.nodes = nodes }

func (f *PositionY) Apply(alpha float64) {
	for _, n := range f.nodes {
		n.VY += (f.Y - n.Y) * f.Strength * alpha
	}
}

// ClusterDrift subtracts alpha from both velocity components of every node.
// Representatives records the largest node of each cluster; the drift itself
// does not consult it.
type ClusterDrift struct {
	Representatives map[int]*Node
	nodes           []*Node
}

func (f *ClusterDrift) Initialize(nodes []*Node, _ *Rand) {
	f.nodes = nodes
	f.Representatives = make(map[int]*Node)
	for _, n := range nodes {
		if rep, ok := f.Representatives[n.Cluster]; !ok || n.Radius > rep.Radius {
			f.Representatives[n.Cluster] = n
		}
	}
}

func (f *ClusterDrift) Apply(alpha float64) {
	for _, n := range f.nodes {
		n.VX -= alpha
		n.VY -= alpha
	}
}
