package engine

import "math/rand/v2"

// Rand is the random source threaded through every engine call.
// *rand.Rand from math/rand/v2 satisfies it.
type Rand interface {
	Float64() float64
	IntN(n int) int
	Shuffle(n int, swap func(i, j int))
}

// NewRand returns a seeded source. Equal seeds give equal turns.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// intBetween draws uniformly from [lo, hi].
func intBetween(rng Rand, lo, hi int) int {
	return lo + rng.IntN(hi-lo+1)
}
