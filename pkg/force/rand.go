package force

const (
	lcgA = 1664525
	lcgC = 1013904223
	lcgM = 1 << 32
)

// Rand is a seeded linear congruential generator yielding values in [0, 1).
// Package pack shuffles with it too, so every layout policy draws from the
// same sequence for a given seed.
type Rand struct {
	s uint64
}

// NewRand returns a generator seeded with seed. A zero seed behaves like 1.
func NewRand(seed uint64) *Rand {
	if seed == 0 {
		seed = 1
	}
	return &Rand{s: seed % lcgM}
}

// Float64 returns the next value in [0, 1).
func (r *Rand) Float64() float64 {
	r.s = (lcgA*r.s + lcgC) % lcgM
	return float64(r.s) / lcgM
}

// jiggle returns a tiny non-zero offset used to separate coincident nodes.
func jiggle(r *Rand) float64 {
	return (r.Float64() - 0.5) * 1e-6
}
