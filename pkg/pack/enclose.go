package pack

import (
	"math"

	"github.com/matzehuels/bubblechart/pkg/force"
)

// Circle is a circle in the plane.
type Circle struct {
	X, Y, R float64
}

// Enclose returns the smallest circle enclosing every circle in circles.
// It returns the zero Circle for empty input.
func Enclose(circles []Circle) Circle {
	return encloseRandom(circles, force.NewRand(1))
}

func encloseRandom(circles []Circle, rng *force.Rand) Circle {
	if len(circles) == 0 {
		return Circle{}
	}
	shuffled := make([]Circle, len(circles))
	copy(shuffled, circles)
	shuffle(shuffled, rng)

	var (
		basis []Circle
		e     Circle
		have  bool
	)
	for i := 0; i < len(shuffled); {
		p := shuffled[i]
		if have && enclosesWeak(e, p) {
			i++
			continue
		}
		next, ok := extendBasis(basis, p)
		if !ok {
			return encloseFallback(circles)
		}
		basis = next
		e = encloseBasis(basis)
		have = true
		i = 0
	}
	return e
}

func shuffle(c []Circle, rng *force.Rand) {
	for m := len(c); m > 0; {
		i := int(rng.Float64() * float64(m))
		m--
		c[m], c[i] = c[i], c[m]
	}
}

func extendBasis(basis []Circle, p Circle) ([]Circle, bool) {
	if enclosesWeakAll(p, basis) {
		return []Circle{p}, true
	}

	for _, b := range basis {
		if enclosesNot(p, b) && enclosesWeakAll(encloseBasis2(b, p), basis) {
			return []Circle{b, p}, true
		}
	}

	for i := 0; i < len(basis)-1; i++ {
		for j := i + 1; j < len(basis); j++ {
			bi, bj := basis[i], basis[j]
			if enclosesNot(encloseBasis2(bi, bj), p) &&
				enclosesNot(encloseBasis2(bi, p), bj) &&
				enclosesNot(encloseBasis2(bj, p), bi) &&
				enclosesWeakAll(encloseBasis3(bi, bj, p), basis) {
				return []Circle{bi, bj, p}, true
			}
		}
	}
	return nil, false
}

// encloseFallback is used only when floating point error leaves no valid
// basis. It wraps the circles around their bounding-box centre.
func encloseFallback(circles []Circle) Circle {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, c := range circles {
		minX = math.Min(minX, c.X-c.R)
		minY = math.Min(minY, c.Y-c.R)
		maxX = math.Max(maxX, c.X+c.R)
		maxY = math.Max(maxY, c.Y+c.R)
	}
	e := Circle{X: (minX + maxX) / 2, Y: (minY + maxY) / 2}
	for _, c := range circles {
		e.R = math.Max(e.R, math.Hypot(c.X-e.X, c.Y-e.Y)+c.R)
	}
	return e
}

func enclosesNot(a, b Circle) bool {
	dr := a.R - b.R
	dx, dy := b.X-a.X, b.Y-a.Y
	return dr < 0 || dr*dr < dx*dx+dy*dy
}

func enclosesWeak(a, b Circle) bool {
	dr := a.R - b.R + math.Max(math.Max(a.R, b.R), 1)*1e-9
	dx, dy := b.X-a.X, b.Y-a.Y
	return dr > 0 && dr*dr > dx*dx+dy*dy
}

func enclosesWeakAll(a Circle, basis []Circle) bool {
	for _, b := range basis {
		if !enclosesWeak(a, b) {
			return false
		}
	}
	return true
}

func encloseBasis(basis []Circle) Circle {
	switch len(basis) {
	case 1:
		return basis[0]
	case 2:
		return encloseBasis2(basis[0], basis[1])
	default:
		return encloseBasis3(basis[0], basis[1], basis[2])
	}
}

func encloseBasis2(a, b Circle) Circle {
	x21, y21, r21 := b.X-a.X, b.Y-a.Y, b.R-a.R
	l := math.Sqrt(x21*x21 + y21*y21)
	return Circle{
		X: (a.X + b.X + x21/l*r21) / 2,
		Y: (a.Y + b.Y + y21/l*r21) / 2,
		R: (l + a.R + b.R) / 2,
	}
}

func encloseBasis3(a, b, c Circle) Circle {
	x1, y1, r1 := a.X, a.Y, a.R
	x2, y2, r2 := b.X, b.Y, b.R
	x3, y3, r3 := c.X, c.Y, c.R

	a2, a3 := x1-x2, x1-x3
	b2, b3 := y1-y2, y1-y3
	c2, c3 := r2-r1, r3-r1
	d1 := x1*x1 + y1*y1 - r1*r1
	d2 := d1 - x2*x2 - y2*y2 + r2*r2
	d3 := d1 - x3*x3 - y3*y3 + r3*r3
	ab := a3*b2 - a2*b3
	xa := (b2*d3-b3*d2)/(ab*2) - x1
	xb := (b3*c2 - b2*c3) / ab
	ya := (a3*d2-a2*d3)/(ab*2) - y1
	yb := (a2*c3 - a3*c2) / ab

	qa := xb*xb + yb*yb - 1
	qb := 2 * (r1 + xa*xb + ya*yb)
	qc := xa*xa + ya*ya - r1*r1

	var r float64
	if math.Abs(qa) > 1e-6 {
		r = -(qb + math.Sqrt(qb*qb-4*qa*qc)) / (2 * qa)
	} else {
		r = -qc / qb
	}
	return Circle{X: x1 + xa + xb*r, Y: y1 + ya + yb*r, R: r}
}
