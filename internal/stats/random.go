// Package stats provides the random streams and summary statistics used by the simulator.
package stats

import (
	"math/rand"
	"time"
)

// Stream is the minimal random source a race needs.
// *rand.Rand satisfies it.
type Stream interface {
	NormFloat64() float64
}

// NewRand returns a random stream seeded with seed.
func NewRand(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

// NewSeed draws a base seed from the clock for runs that were not given one.
func NewSeed() int64 {
	return time.Now().UnixNano()
}

// TrialSeed derives the seed for trial n of a run seeded with base.
// The mix (splitmix64) keeps neighbouring bases from sharing trial streams.
func TrialSeed(base int64, n int) int64 {
	z := uint64(base) + uint64(n+1)*0x9E3779B97F4A7C15
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	return int64(z ^ (z >> 31))
}

// Gaussian draws one value from N(mean, stddev²) using the given stream.
// A zero stddev still consumes a draw so replaying a stream stays aligned.
func Gaussian(s Stream, mean, stddev float64) float64 {
	return mean + stddev*s.NormFloat64()
}
