package ember

import (
	"math/rand/v2"
	"time"
)

// NewRand returns a PCG-backed generator seeded with the given pair. Systems
// that share a generator draw from it in emission order, so a fixed seed and a
// fixed call sequence reproduce the same particles.
func NewRand(seed1, seed2 uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed1, seed2))
}

// newTimeSeededRand is the fallback when a host supplies no generator.
func newTimeSeededRand() *rand.Rand {
	now := uint64(time.Now().UnixNano())
	return rand.New(rand.NewPCG(now, now>>17|1))
}

// randF returns a uniform float32 in [0, 1).
func randF(r *rand.Rand) float32 {
	return r.Float32()
}

// randRange returns a uniform float32 in [lo, hi).
func randRange(r *rand.Rand, lo, hi float32) float32 {
	return lo + (hi-lo)*r.Float32()
}

// randVariance returns base plus a uniform offset in [-variance, variance].
func randVariance(r *rand.Rand, base, variance float64) float64 {
	if variance == 0 {
		return base
	}
	return base + variance*(2*r.Float64()-1)
}

// randIndex returns a uniform int in [0, n). n must be positive.
func randIndex(r *rand.Rand, n int) int {
	return r.IntN(n)
}
