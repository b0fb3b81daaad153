package force

import "math"

// DefaultRelaxIterations bounds [Simulation.Relax].
const DefaultRelaxIterations = 1000

const relaxTolerance = 1e-6

// Relax removes remaining overlaps after the simulation has cooled by moving
// overlapping pairs apart directly, without touching velocities. Each pair is
// separated along the line between centres and the displacement is split by
// squared radius like [Collide]. It returns the number of passes made; a
// result below maxIter means no pair overlaps by more than a micro-pixel.
//
// radius returns the separation radius of a node; nil uses Node.Radius.
func (s *Simulation) Relax(radius func(*Node) float64, maxIter int) int {
	if maxIter <= 0 {
		maxIter = DefaultRelaxIterations
	}
	radii := make([]float64, len(s.nodes))
	for i, n := range s.nodes {
		if radius != nil {
			radii[i] = radius(n)
		} else {
			radii[i] = n.Radius
		}
	}

	for pass := 0; pass < maxIter; pass++ {
		moved := false
		for i, a := range s.nodes {
			ri := radii[i]
			for j := i + 1; j < len(s.nodes); j++ {
				b := s.nodes[j]
				rj := radii[j]
				r := ri + rj - relaxTolerance
				x, y := a.X-b.X, a.Y-b.Y
				l := x*x + y*y
				if r <= 0 || l >= r*r {
					continue
				}
				moved = true
				if l == 0 {
					x, y = jiggle(s.rnd), jiggle(s.rnd)
					l = x*x + y*y
				}
				l = math.Sqrt(l)
				k := (ri + rj - l) / l
				x *= k
				y *= k
				w := rj * rj / (ri*ri + rj*rj)
				a.X += x * w
				a.Y += y * w
				w = 1 - w
				b.X -= x * w
				b.Y -= y * w
			}
		}
		if !moved {
			return pass
		}
	}
	return maxIter
}

// Spread scales node positions about their centroid until no pair overlaps.
// Unlike [Simulation.Relax] it always succeeds, at the cost of loosening the
// whole layout. It returns the scale factor applied, 1 when nothing overlapped.
//
// radius returns the separation radius of a node; nil uses Node.Radius.
func (s *Simulation) Spread(radius func(*Node) float64) float64 {
	n := len(s.nodes)
	if n < 2 {
		return 1
	}
	radii := make([]float64, n)
	for i, nd := range s.nodes {
		if radius != nil {
			radii[i] = radius(nd)
		} else {
			radii[i] = nd.Radius
		}
	}

	// Coincident pairs cannot be separated by scaling.
	for i, a := range s.nodes {
		for j := i + 1; j < n; j++ {
			b := s.nodes[j]
			r := math.Max(radii[i]+radii[j], 1)
			if math.Hypot(a.X-b.X, a.Y-b.Y) < relaxTolerance {
				x, y := jiggle(s.rnd), jiggle(s.rnd)
				l := math.Hypot(x, y)
				b.X = a.X + x/l*r
				b.Y = a.Y + y/l*r
			}
		}
	}

	var cx, cy float64
	for _, nd := range s.nodes {
		cx += nd.X
		cy += nd.Y
	}
	cx /= float64(n)
	cy /= float64(n)

	scale := 1.0
	for i, a := range s.nodes {
		for j := i + 1; j < n; j++ {
			b := s.nodes[j]
			r := radii[i] + radii[j]
			d := math.Hypot(a.X-b.X, a.Y-b.Y)
			if r <= 0 || d <= 0 {
				continue
			}
			if k := r / d; k > scale {
				scale = k
			}
		}
	}
	if scale == 1 {
		return 1
	}
	scale *= 1 + 1e-9
	for _, nd := range s.nodes {
		nd.X = cx + (nd.X-cx)*scale
		nd.Y = cy + (nd.Y-cy)*scale
	}
	return scale
}
