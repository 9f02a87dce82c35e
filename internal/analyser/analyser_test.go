// SPDX-License-Identifier: MIT
package analyser

import (
	"errors"
	"fmt"
	"testing"

	"vizor/internal/audio"
)

const (
	testWindow = 1024
	testRate   = 44100
)

// binFreq returns the exact center frequency of bin k so test tones
// land on a single bin with minimal leakage.
func binFreq(k int) float64 {
	return float64(k) * testRate / testWindow
}

func newTestAnalyser(t *testing.T) *Analyser {
	t.Helper()
	a, err := New(Config{
		WindowSize: testWindow,
		Smoothing:  0.8,
		MinDB:      -100,
		MaxDB:      -30,
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return a
}

func findPeakBin(freq []byte) int {
	peak := 0
	for i := range freq {
		if freq[i] > freq[peak] {
			peak = i
		}
	}
	return peak
}

func TestNewRejectsBadConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"Not power of two", Config{WindowSize: 500, Smoothing: 0.8, MinDB: -100, MaxDB: -30}},
		{"Too small", Config{WindowSize: 16, Smoothing: 0.8, MinDB: -100, MaxDB: -30}},
		{"Too large", Config{WindowSize: 65536, Smoothing: 0.8, MinDB: -100, MaxDB: -30}},
		{"Smoothing at one", Config{WindowSize: 512, Smoothing: 1.0, MinDB: -100, MaxDB: -30}},
		{"Negative smoothing", Config{WindowSize: 512, Smoothing: -0.1, MinDB: -100, MaxDB: -30}},
		{"Inverted dB range", Config{WindowSize: 512, Smoothing: 0.8, MinDB: -30, MaxDB: -100}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.cfg); err == nil {
				t.Errorf("New(%+v) succeeded, expected error", tt.cfg)
			}
		})
	}
}

func TestNewAcceptsWindowRange(t *testing.T) {
	for _, w := range []int{32, 128, 512, 2048, 32768} {
		t.Run(fmt.Sprintf("%d", w), func(t *testing.T) {
			a, err := New(Config{WindowSize: w, Smoothing: 0.8, MinDB: -100, MaxDB: -30})
			if err != nil {
				t.Fatalf("New rejected valid window %d: %v", w, err)
			}
			if a.Bins() != w/2 {
				t.Errorf("Bins() = %d, expected %d", a.Bins(), w/2)
			}
		})
	}
}

func TestSampleNotBound(t *testing.T) {
	a := newTestAnalyser(t)
	_, _, err := a.Sample()
	if !errors.Is(err, ErrNotBound) {
		t.Errorf("Sample on unbound analyser = %v, expected ErrNotBound", err)
	}

	a.Bind(audio.NewSilenceSource(testRate))
	if _, _, err := a.Sample(); err != nil {
		t.Errorf("Sample after Bind = %v, expected nil", err)
	}

	a.Unbind()
	if _, _, err := a.Sample(); !errors.Is(err, ErrNotBound) {
		t.Errorf("Sample after Unbind = %v, expected ErrNotBound", err)
	}
}

func TestSineWaveLightsItsBin(t *testing.T) {
	const k = 32
	a := newTestAnalyser(t)
	a.Bind(audio.NewOscSource(testRate, binFreq(k), 0.05))

	// Let the per-bin smoothing converge.
	var freq []byte
	var err error
	for i := 0; i < 50; i++ {
		freq, _, err = a.Sample()
		if err != nil {
			t.Fatalf("Sample failed: %v", err)
		}
	}

	if len(freq) != testWindow/2 {
		t.Fatalf("freq snapshot has %d bins, expected %d", len(freq), testWindow/2)
	}

	peak := findPeakBin(freq)
	if peak != k {
		t.Errorf("peak bin = %d, expected %d", peak, k)
	}
	if freq[k] < 180 {
		t.Errorf("peak bin byte = %d, expected a strong response", freq[k])
	}
	for i, v := range freq {
		if i > k+32 || i < k-32 {
			if v > 40 {
				t.Errorf("bin %d = %d, expected near-silence away from the tone", i, v)
			}
		}
	}
}

func TestTimeDomainBias(t *testing.T) {
	a := newTestAnalyser(t)
	a.Bind(audio.NewSilenceSource(testRate))

	_, timeDomain, err := a.Sample()
	if err != nil {
		t.Fatalf("Sample failed: %v", err)
	}
	if len(timeDomain) != testWindow {
		t.Fatalf("time snapshot has %d samples, expected %d", len(timeDomain), testWindow)
	}
	for i, v := range timeDomain {
		if v != 128 {
			t.Errorf("timeDomain[%d] = %d, expected 128 for silence", i, v)
		}
	}
}

func TestBiasByte(t *testing.T) {
	tests := []struct {
		s        float32
		expected byte
	}{
		{0, 128},
		{1, 255},   // 256 clamps down
		{-1, 0},
		{0.5, 192},
		{-0.5, 64},
		{2, 255},   // Out-of-range input clamps
		{-2, 0},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%.1f→%d", tt.s, tt.expected), func(t *testing.T) {
			if got := biasByte(tt.s); got != tt.expected {
				t.Errorf("biasByte(%v) = %d, expected %d", tt.s, got, tt.expected)
			}
		})
	}
}

func TestDetachedSourceDecaysToSilence(t *testing.T) {
	src := audio.NewHarmonicSource(testRate)
	a := newTestAnalyser(t)
	a.Bind(src)

	for i := 0; i < 30; i++ {
		if _, _, err := a.Sample(); err != nil {
			t.Fatalf("Sample failed: %v", err)
		}
	}

	src.Detach()

	// Sampling must keep working, the spectrum just decays.
	var freq, timeDomain []byte
	var err error
	for i := 0; i < 100; i++ {
		freq, timeDomain, err = a.Sample()
		if err != nil {
			t.Fatalf("Sample after detach failed: %v", err)
		}
	}

	for i, v := range freq {
		if v != 0 {
			t.Errorf("freq[%d] = %d, expected full decay to 0", i, v)
		}
	}
	for i, v := range timeDomain {
		if v != 128 {
			t.Errorf("timeDomain[%d] = %d, expected 128", i, v)
		}
	}
}

func TestRebindResetsSmoothing(t *testing.T) {
	a := newTestAnalyser(t)
	a.Bind(audio.NewHarmonicSource(testRate))
	for i := 0; i < 30; i++ {
		a.Sample()
	}

	// A fresh bind must not replay the previous source's spectrum.
	a.Bind(audio.NewSilenceSource(testRate))
	freq, _, err := a.Sample()
	if err != nil {
		t.Fatalf("Sample failed: %v", err)
	}
	for i, v := range freq {
		if v != 0 {
			t.Errorf("freq[%d] = %d after rebind to silence, expected 0", i, v)
		}
	}
}

func TestBinFrequency(t *testing.T) {
	a := newTestAnalyser(t)

	if got := a.BinFrequency(10); got != 0 {
		t.Errorf("BinFrequency unbound = %v, expected 0", got)
	}

	a.Bind(audio.NewSilenceSource(testRate))
	tests := []struct {
		bin      int
		expected float64
	}{
		{0, 0},
		{32, binFreq(32)},
		{testWindow / 2, testRate / 2}, // Nyquist
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("bin%d", tt.bin), func(t *testing.T) {
			if got := a.BinFrequency(tt.bin); got != tt.expected {
				t.Errorf("BinFrequency(%d) = %v, expected %v", tt.bin, got, tt.expected)
			}
		})
	}

	if got := a.BinFrequency(-1); got != 0 {
		t.Errorf("BinFrequency(-1) = %v, expected 0", got)
	}
	if got := a.BinFrequency(testWindow); got != 0 {
		t.Errorf("BinFrequency out of range = %v, expected 0", got)
	}
}

func TestSampleHotPath(t *testing.T) {
	a := newTestAnalyser(t)
	a.Bind(audio.NewHarmonicSource(testRate))

	// Warm-up call so one-time work does not count.
	a.Sample()
	allocs := testing.AllocsPerRun(100, func() {
		a.Sample()
	})
	if allocs > 0 {
		t.Errorf("Expected zero allocations in Sample hot path, got %.1f", allocs)
	}
}

func BenchmarkSample(b *testing.B) {
	a, err := New(Config{WindowSize: testWindow, Smoothing: 0.8, MinDB: -100, MaxDB: -30})
	if err != nil {
		b.Fatal(err)
	}
	a.Bind(audio.NewHarmonicSource(testRate))

	b.ReportAllocs()
	for b.Loop() {
		a.Sample()
	}
}
