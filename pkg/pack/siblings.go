package pack

import (
	"math"

	"github.com/matzehuels/bubblechart/pkg/force"
)

// chain is a node of the front-chain: the circular list of circles on the
// outer boundary of the packed set.
type chain struct {
	c          *Circle
	next, prev *chain
}

// Siblings packs circles tangent to one another around the origin, updating
// X and Y in place, and returns the radius of the enclosing circle. Radii
// are read but not modified.
func Siblings(circles []Circle) float64 {
	ptrs := make([]*Circle, len(circles))
	for i := range circles {
		ptrs[i] = &circles[i]
	}
	return packSiblings(ptrs, force.NewRand(1))
}

func packSiblings(circles []*Circle, rng *force.Rand) float64 {
	n := len(circles)
	if n == 0 {
		return 0
	}

	a := circles[0]
	a.X, a.Y = 0, 0
	if n == 1 {
		return a.R
	}

	b := circles[1]
	a.X, b.X, b.Y = -b.R, a.R, 0
	if n == 2 {
		return a.R + b.R
	}

	place(b, a, circles[2])

	ca, cb, cc := &chain{c: a}, &chain{c: b}, &chain{c: circles[2]}
	ca.next, cc.prev = cb, cb
	cb.next, ca.prev = cc, cc
	cc.next, cb.prev = ca, ca

	first, second := ca, cb

next:
	for i := 3; i < n; i++ {
		place(first.c, second.c, circles[i])
		c := &chain{c: circles[i]}

		// Find the closest intersecting circle on the front-chain, measured by
		// distance along the chain in either direction.
		j, k := second.next, first.prev
		sj, sk := second.c.R, first.c.R
		for {
			if sj <= sk {
				if intersects(j.c, c.c) {
					second = j
					first.next, second.prev = second, first
					i--
					continue next
				}
				sj += j.c.R
				j = j.next
			} else {
				if intersects(k.c, c.c) {
					first = k
					first.next, second.prev = second, first
					i--
					continue next
				}
				sk += k.c.R
				k = k.prev
			}
			if j == k.next {
				break
			}
		}

		c.prev, c.next = first, second
		first.next, second.prev = c, c
		second = c

		// Pick the adjacent pair closest to the centroid as the next insertion point.
		best := score(first)
		for c = c.next; c != second; c = c.next {
			if s := score(c); s < best {
				first, best = c, s
			}
		}
		second = first.next
	}

	var front []Circle
	front = append(front, *second.c)
	for c := second.next; c != second; c = c.next {
		front = append(front, *c.c)
	}
	e := encloseRandom(front, rng)

	for _, c := range circles {
		c.X -= e.X
		c.Y -= e.Y
	}
	return e.R
}

// place positions c tangent to both a and b.
func place(b, a, c *Circle) {
	dx, dy := b.X-a.X, b.Y-a.Y
	d2 := dx*dx + dy*dy
	if d2 == 0 {
		c.X = a.X + c.R
		c.Y = a.Y
		return
	}
	a2 := (a.R + c.R) * (a.R + c.R)
	b2 := (b.R + c.R) * (b.R + c.R)
	if a2 > b2 {
		x := (d2 + b2 - a2) / (2 * d2)
		y := math.Sqrt(math.Max(0, b2/d2-x*x))
		c.X = b.X - x*dx - y*dy
		c.Y = b.Y - x*dy + y*dx
	} else {
		x := (d2 + a2 - b2) / (2 * d2)
		y := math.Sqrt(math.Max(0, a2/d2-x*x))
		c.X = a.X + x*dx - y*dy
		c.Y = a.Y + x*dy + y*dx
	}
}

func intersects(a, b *Circle) bool {
	dr := a.R + b.R - 1e-6
	dx, dy := b.X-a.X, b.Y-a.Y
	return dr > 0 && dr*dr > dx*dx+dy*dy
}

func score(n *chain) float64 {
	a, b := n.c, n.next.c
	ab := a.R + b.R
	dx := (a.X*b.R + b.X*a.R) / ab
	dy := (a.Y*b.R + b.Y*a.R) / ab
	return dx*dx + dy*dy
}
