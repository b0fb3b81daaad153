package layout

import (
	"cmp"
	"math"
	"slices"

	"github.com/matzehuels/bubblechart/pkg/force"
	"github.com/matzehuels/bubblechart/pkg/intent"
)

// Force policy constants.
const (
	ForceManyBodyStrength = -30.0
	ForceYStrength        = 6.0

	relaxPassesPerNode = 8
)

// ForcePadding returns the collision padding for a canvas aspect ratio.
func ForcePadding(aspect float64) float64 {
	if aspect > 2.5 {
		return math.Floor(aspect * 2)
	}
	return math.Floor(aspect)
}

// ForceXStrength returns the horizontal spring strength for an aspect ratio.
func ForceXStrength(aspect float64) float64 {
	return 0.9 - math.Floor(aspect*10)/100
}

// ForceMaxRadius returns the radius of the largest bubble: the radius of a
// circle whose area is the largest value's share of the canvas, less
// padding, capped at a quarter of the height.
func ForceMaxRadius(width, height float64, data []intent.Intent, padding float64) float64 {
	sum := intent.Sum(data)
	if sum <= 0 {
		return 0
	}
	r := math.Sqrt((intent.MaxValue(data)*width*height/sum)/math.Pi) - padding
	return math.Max(0, math.Min(r, height/4))
}

// ForceModel is a prepared force simulation for the force policy.
//
// The simulation runs in a coordinate system centred on the origin;
// [ForceModel.Bubbles] translates positions to the canvas.
type ForceModel struct {
	Sim      *force.Simulation
	Drift    *force.ClusterDrift
	padding  float64
	template Layout
}

// NewForceModel prepares, but does not run, the force simulation.
func NewForceModel(intents []intent.Intent, width, height float64, opts Options) *ForceModel {
	l := Layout{Policy: PolicyForce, Width: width, Height: height, Bubbles: []Bubble{}}
	data := intent.Filter(intents)
	if !(width > 0) || !(height > 0) {
		data = nil
	}

	aspect := 1.0
	if height > 0 {
		aspect = width / height
	}
	l.Padding = opts.padding(ForcePadding(aspect))

	idx := domainIndex(data)
	maxValue := intent.MaxValue(data)
	maxR := ForceMaxRadius(width, height, data, l.Padding)

	sorted := slices.Clone(data)
	slices.SortStableFunc(sorted, func(a, b intent.Intent) int {
		return cmp.Compare(b.Value, a.Value)
	})

	nodes := make([]*force.Node, len(sorted))
	for i, it := range sorted {
		r := maxR * math.Sqrt(it.Value/maxValue)
		nodes[i] = &force.Node{X: math.NaN(), Y: math.NaN(), Radius: r, Cluster: idx[it.Domain]}
		b := newBubble(it, idx[it.Domain])
		b.R = r
		b.Label = ForceLabel(it.Name, r)
		l.Bubbles = append(l.Bubbles, b)
	}

	padding := l.Padding
	drift := &force.ClusterDrift{}
	sim := force.New(nodes, opts.seed()).Add(
		&force.Center{},
		&force.Collide{
			Radius:     func(n *force.Node) float64 { return n.Radius + padding },
			Strength:   1,
			Iterations: 1,
		},
		drift,
		&force.ManyBody{Strength: ForceManyBodyStrength},
		&force.PositionX{Strength: ForceXStrength(aspect)},
		&force.PositionY{Strength: ForceYStrength},
	)

	return &ForceModel{Sim: sim, Drift: drift, padding: padding, template: l}
}

// Bubbles converts simulation positions into canvas bubbles. Positions are
// matched by node index; pass nil to use the simulation's current state.
func (m *ForceModel) Bubbles(positions []force.Node) []Bubble {
	if positions == nil {
		positions = m.Sim.Positions()
	}
	out := slices.Clone(m.template.Bubbles)
	cx, cy := m.template.Width/2, m.template.Height/2
	for _, p := range positions {
		if p.Index < 0 || p.Index >= len(out) {
			continue
		}
		out[p.Index].X = p.X + cx
		out[p.Index].Y = p.Y + cy
	}
	return out
}

// Layout returns the layout for the simulation's current state.
func (m *ForceModel) Layout() Layout {
	l := m.template
	l.Bubbles = m.Bubbles(nil)
	l.Ticks = m.Sim.Ticks()
	l.Clusters = m.clusters(l.Bubbles)
	return l
}

// Run steps the simulation to convergence, settles any remaining overlap
// and returns the final layout.
func (m *ForceModel) Run() Layout {
	m.Sim.Run()
	m.Settle()
	return m.Layout()
}

// Settle separates bubbles that still overlap once the simulation has
// cooled, keeping the collision padding between them. Pairwise relaxation
// runs for at least [force.DefaultRelaxIterations] passes, more for large
// charts; if it still leaves overlaps the whole layout is spread about its
// centroid instead. Settle reports whether relaxation alone was enough.
func (m *ForceModel) Settle() bool {
	radius := func(n *force.Node) float64 { return n.Radius + m.padding }
	limit := max(force.DefaultRelaxIterations, relaxPassesPerNode*len(m.Sim.Nodes()))
	if m.Sim.Relax(radius, limit) < limit {
		return true
	}
	m.Sim.Spread(radius)
	return false
}

func (m *ForceModel) clusters(bubbles []Bubble) []Cluster {
	if len(bubbles) == 0 {
		return nil
	}
	var out []Cluster
	counts := map[int]int{}
	byIndex := map[int]int{}
	for _, b := range bubbles {
		i, ok := byIndex[b.Cluster]
		if !ok {
			i = len(out)
			byIndex[b.Cluster] = i
			out = append(out, Cluster{Index: b.Cluster, Domain: b.Domain})
		}
		out[i].X += b.X
		out[i].Y += b.Y
		counts[b.Cluster]++
	}
	for i := range out {
		n := float64(counts[out[i].Index])
		out[i].X /= n
		out[i].Y /= n
		if rep := m.Drift.Representatives[out[i].Index]; rep != nil {
			out[i].Representative = bubbles[rep.Index].ID
		}
	}
	slices.SortFunc(out, func(a, b Cluster) int { return cmp.Compare(a.Index, b.Index) })
	return out
}

func buildForce(l *Layout, data []intent.Intent, opts Options) {
	*l = NewForceModel(data, l.Width, l.Height, opts).Run()
}
