package force

import "math"

// Default simulation parameters.
const (
	DefaultAlpha         = 1.0
	DefaultAlphaMin      = 0.001
	DefaultAlphaTarget   = 0.0
	DefaultVelocityDecay = 0.4
)

// DefaultAlphaDecay cools alpha from 1 to AlphaMin in roughly 300 ticks.
var DefaultAlphaDecay = 1 - math.Pow(DefaultAlphaMin, 1.0/300)

// Force is one contribution to node velocities.
type Force interface {
	// Initialize is called once with the simulation nodes and random source.
	Initialize(nodes []*Node, rnd *Rand)
	// Apply updates node velocities (or positions) for the given alpha.
	Apply(alpha float64)
}

// Simulation is a single-goroutine force simulation.
type Simulation struct {
	Alpha         float64
	AlphaMin      float64
	AlphaDecay    float64
	AlphaTarget   float64
	VelocityDecay float64

	nodes  []*Node
	forces []Force
	rnd    *Rand
	ticks  int
}

// New creates a simulation over nodes. Nodes with NaN coordinates are placed
// on a phyllotaxis spiral.
func New(nodes []*Node, seed uint64) *Simulation {
	place(nodes)
	return &Simulation{
		Alpha:         DefaultAlpha,
		AlphaMin:      DefaultAlphaMin,
		AlphaDecay:    DefaultAlphaDecay,
		AlphaTarget:   DefaultAlphaTarget,
		VelocityDecay: DefaultVelocityDecay,
		nodes:         nodes,
		rnd:           NewRand(seed),
	}
}

// Add registers forces in application order.
func (s *Simulation) Add(forces ...Force) *Simulation {
	for _, f := range forces {
		f.Initialize(s.nodes, s.rnd)
		s.forces = append(s.forces, f)
	}
	return s
}

// Nodes returns the simulated nodes.
func (s *Simulation) Nodes() []*Node { return s.nodes }

// Ticks returns the number of steps taken.
func (s *Simulation) Ticks() int { return s.ticks }

// Hot reports whether alpha is still at or above AlphaMin.
func (s *Simulation) Hot() bool { return s.Alpha >= s.AlphaMin }

// Step advances the simulation by one tick and reports whether it is still hot.
func (s *Simulation) Step() bool {
	s.Alpha += (s.AlphaTarget - s.Alpha) * s.AlphaDecay
	for _, f := range s.forces {
		f.Apply(s.Alpha)
	}
	keep := 1 - s.VelocityDecay
	for _, n := range s.nodes {
		n.VX *= keep
		n.VY *= keep
		n.X += n.VX
		n.Y += n.VY
	}
	s.ticks++
	return s.Hot()
}

// Run steps until the simulation cools and returns the tick count.
func (s *Simulation) Run() int {
	for s.Step() {
	}
	return s.ticks
}

// KineticEnergy returns the sum of squared node velocities.
func (s *Simulation) KineticEnergy() float64 {
	var e float64
	for _, n := range s.nodes {
		e += n.VX*n.VX + n.VY*n.VY
	}
	return e
}

// Positions returns a copy of the current node state.
func (s *Simulation) Positions() []Node {
	out := make([]Node, len(s.nodes))
	for i, n := range s.nodes {
		out[i] = *n
	}
	return out
}
