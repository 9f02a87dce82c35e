// SPDX-License-Identifier: MIT
// Package feature reduces analyser snapshots to the scalar signals
// the rest of the pipeline runs on.
package feature

// High-band bin range. Fixed design constants relative to the default
// 256-bin output analyser, clamped at extraction time so smaller
// analysers stay in bounds.
const (
	highBandLo = 200
	highBandHi = 240
)

// Vector is one frame's scalar reduction of an analyser snapshot.
// All fields are in [0, 1]. It is always produced whole, never
// partially updated.
type Vector struct {
	AvgEnergy float64 // Mean of all frequency magnitudes.
	HighBand  float64 // Mean of the high-index bin range.
	Presence  float64 // Activity measure feeding the idle machine.
}

// Extract computes the feature vector for one snapshot pair. Pure
// function, no hidden state: identical snapshots produce identical
// vectors. The time-domain snapshot is part of the sampling contract
// but no current feature draws on it.
func Extract(freq, timeDomain []byte) Vector {
	if len(freq) == 0 {
		return Vector{}
	}

	var sum int
	for _, v := range freq {
		sum += int(v)
	}
	avg := float64(sum) / float64(len(freq)) / 255

	lo, hi := highBandLo, highBandHi
	if hi > len(freq) {
		hi = len(freq)
	}
	var high float64
	if lo < hi {
		var hsum int
		for _, v := range freq[lo:hi] {
			hsum += int(v)
		}
		high = float64(hsum) / float64(hi-lo) / 255
	}

	return Vector{
		AvgEnergy: avg,
		HighBand:  high,
		Presence:  avg,
	}
}
