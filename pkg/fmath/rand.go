// SPDX-License-Identifier: MIT
package fmath

// Splitmix64 is a fast, high-quality 64-bit mixer. It is used to turn
// correlated inputs (tick timestamps, particle indices) into
// uncorrelated seeds.
func Splitmix64(x uint64) uint64 {
	x += 0x9E3779B97F4A7C15
	z := x
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	return z ^ (z >> 31)
}

// Rand is a tiny deterministic RNG (xorshift64*). It exists so field
// layouts and backdrop phases replay identically for a given seed,
// which math/rand's global state cannot promise across processes.
type Rand struct {
	s uint64
}

// NewRand seeds a generator. Seed zero is remapped because xorshift
// has a fixed point at zero.
func NewRand(seed uint64) *Rand {
	if seed == 0 {
		seed = 1
	}
	return &Rand{s: seed}
}

// Reseed restarts the sequence in place, so per-frame reseeding does
// not allocate.
func (r *Rand) Reseed(seed uint64) {
	if seed == 0 {
		seed = 1
	}
	r.s = seed
}

func (r *Rand) NextU64() uint64 {
	x := r.s
	x ^= x >> 12
	x ^= x << 25
	x ^= x >> 27
	r.s = x
	return x * 2685821657736338717
}

// Float64 returns a uniform value in [0,1).
func (r *Rand) Float64() float64 {
	return float64(r.NextU64()>>11) * (1.0 / (1 << 53))
}

// RangeF returns a uniform value in [min,max).
func (r *Rand) RangeF(min, max float64) float64 {
	if max <= min {
		return min
	}
	return min + (max-min)*r.Float64()
}

// Intn returns a value in [0,n). n <= 0 returns 0.
func (r *Rand) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	return int(r.NextU64() % uint64(n))
}
