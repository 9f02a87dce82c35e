// SPDX-License-Identifier: MIT
package scene

import (
	"testing"
	"time"

	"vizor/internal/feature"
)

func TestBackdropCount(t *testing.T) {
	b := NewBackdrop(testSceneConfig())
	if b.Count() != 64 {
		t.Errorf("Count() = %d, expected 64", b.Count())
	}
	if buf := b.Advance(feature.Vector{}, 1, 0); len(buf) != 64*Stride {
		t.Errorf("len(buf) = %d, expected %d", len(buf), 64*Stride)
	}
}

// The flicker is reseeded from the timestamp, so equal timestamps
// replay the exact same shell.
func TestBackdropDeterministicPerTimestamp(t *testing.T) {
	b := NewBackdrop(testSceneConfig())
	v := feature.Vector{AvgEnergy: 0.6, HighBand: 0.3}

	first := append([]float32(nil), b.Advance(v, 0.8, 500*time.Millisecond)...)
	b.Advance(v, 0.8, 900*time.Millisecond) // disturb internal state
	second := b.Advance(v, 0.8, 500*time.Millisecond)

	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("buffer diverged at index %d: %v != %v", i, first[i], second[i])
		}
	}
}

func TestBackdropFlickerVariesOverTime(t *testing.T) {
	b := NewBackdrop(testSceneConfig())
	v := feature.Vector{AvgEnergy: 0.6, HighBand: 0.3}

	first := append([]float32(nil), b.Advance(v, 1, 16*time.Millisecond)...)
	second := b.Advance(v, 1, 32*time.Millisecond)

	same := true
	for i := range first {
		if first[i] != second[i] {
			same = false
			break
		}
	}
	if same {
		t.Error("consecutive frames produced identical flicker")
	}
}

// Idle fades the shell toward black; the points themselves stay.
func TestBackdropIdleFadesToBlack(t *testing.T) {
	b := NewBackdrop(testSceneConfig())
	v := feature.Vector{AvgEnergy: 1, HighBand: 0.5}

	buf := b.Advance(v, 0, time.Second)
	if len(buf) != b.Count()*Stride {
		t.Fatalf("len(buf) = %d, expected %d", len(buf), b.Count()*Stride)
	}
	for i := 0; i < len(buf); i += Stride {
		if buf[i+4] != 0 || buf[i+5] != 0 || buf[i+6] != 0 {
			t.Fatalf("point %d colour = (%v,%v,%v), expected black at idle factor 0",
				i/Stride, buf[i+4], buf[i+5], buf[i+6])
		}
	}
}

func TestBackdropAdvanceNoAllocs(t *testing.T) {
	b := NewBackdrop(testSceneConfig())
	v := feature.Vector{AvgEnergy: 0.5, HighBand: 0.5}
	b.Advance(v, 1, 0)

	allocs := testing.AllocsPerRun(100, func() {
		b.Advance(v, 1, time.Second)
	})
	if allocs > 0 {
		t.Errorf("Advance allocates %.1f times per frame, expected 0", allocs)
	}
}

func BenchmarkBackdropAdvance(b *testing.B) {
	cfg := testSceneConfig()
	cfg.BackdropCount = 512
	bd := NewBackdrop(cfg)
	v := feature.Vector{AvgEnergy: 0.7, HighBand: 0.4}

	var now time.Duration
	b.ReportAllocs()
	for b.Loop() {
		bd.Advance(v, 1, now)
		now += 16 * time.Millisecond
	}
}
