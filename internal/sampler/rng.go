package sampler

import "math/rand/v2"

// RandomSource supplies the randomness for sampling and pacing.
// *rand.Rand from math/rand/v2 satisfies it.
type RandomSource interface {
	Float64() float64    // uniform in [0, 1)
	ExpFloat64() float64 // exponential with rate 1
}

// DefaultRNG returns an unseeded source for real runs.
func DefaultRNG() RandomSource {
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}

// NewSeededRNG returns a reproducible source, for tests and replayable runs.
func NewSeededRNG(seed uint64) RandomSource {
	return rand.New(rand.NewPCG(seed, 0))
}

// Uniform draws from [lo, hi).
func Uniform(rng RandomSource, lo, hi float64) float64 {
	return lo + (hi-lo)*rng.Float64()
}

// Exponential draws an exponentially distributed value with the given rate.
func Exponential(rng RandomSource, rate float64) float64 {
	return rng.ExpFloat64() / rate
}
