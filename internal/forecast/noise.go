package forecast

import (
	"math/rand/v2"
	"sync"
)

// NoiseSource yields jitter values in [-1, 1].
type NoiseSource interface {
	Next() float64
}

// RandomNoise draws uniform jitter from a PCG generator. It is safe for
// concurrent use.
type RandomNoise struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomNoise returns a seeded generator. The same seed always yields
// the same sequence.
func NewRandomNoise(seed uint64) *RandomNoise {
	return &RandomNoise{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// NewUnseededNoise returns a generator seeded from the runtime source.
func NewUnseededNoise() *RandomNoise {
	return NewRandomNoise(rand.Uint64())
}

// Next returns a value in [-1, 1).
func (r *RandomNoise) Next() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.Float64()*2 - 1
}

// ZeroNoise always returns 0.
type ZeroNoise struct{}

// Next returns 0.
func (ZeroNoise) Next() float64 { return 0 }

// FixedNoise always returns the same value, clamped to [-1, 1].
type FixedNoise float64

// Next returns the fixed value.
func (f FixedNoise) Next() float64 {
	switch v := float64(f); {
	case v < -1:
		return -1
	case v > 1:
		return 1
	default:
		return v
	}
}
