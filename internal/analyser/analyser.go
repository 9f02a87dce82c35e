// SPDX-License-Identifier: MIT
/*
Package analyser converts a bound audio source into the byte-valued
frequency and time-domain snapshots the visualization consumes.

The pipeline per Sample call is fixed: snapshot the newest window of
samples, apply a Hann window, run a real FFT, normalize magnitudes,
smooth each bin exponentially against its previous value, then map
through a dB range onto 0..255. Time-domain bytes are the same window
of samples biased around 128.

All buffers are allocated once at construction. Sample is
allocation-free and safe to call every tick.
*/
package analyser

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/dsp/window"

	"vizor/internal/audio"
	"vizor/internal/config"
	"vizor/pkg/bitint"
)

// ErrNotBound reports a Sample call on an analyser with no source.
// Callers are expected to bind before sampling, this is a contract
// violation rather than a runtime condition to retry.
var ErrNotBound = errors.New("analyser: no source bound")

// Config sets the analysis window and response curve.
type Config struct {
	WindowSize int     // Samples per analysis, power of 2 in [32, 32768].
	Smoothing  float64 // Per-bin exponential smoothing in [0, 1).
	MinDB      float64 // Floor of the dB range mapped to byte 0.
	MaxDB      float64 // Ceiling of the dB range mapped to byte 255.
}

// Analyser holds the FFT state for one bound source.
type Analyser struct {
	cfg  Config
	bins int // WindowSize / 2.
	fft  *fourier.FFT
	rate float64 // Sample rate of the bound source, 0 when unbound.

	src audio.Source

	// Workspace, allocated once. Sample reuses everything below.
	win       []float64    // Hann coefficients.
	samples   []float32    // Raw snapshot from the source.
	input     []float64    // Windowed samples for the FFT.
	coeffs    []complex128 // FFT output, WindowSize/2+1.
	smoothed  []float64    // Per-bin smoothed magnitudes, carried across calls.
	freqBytes []byte       // Published frequency snapshot.
	timeBytes []byte       // Published time-domain snapshot.
}

// New validates cfg and allocates the analyser workspace.
func New(cfg Config) (*Analyser, error) {
	if !bitint.IsPowerOfTwo(cfg.WindowSize) ||
		cfg.WindowSize < config.MinWindowSize || cfg.WindowSize > config.MaxWindowSize {
		return nil, fmt.Errorf("analyser: window size must be a power of 2 in [%d, %d], got %d",
			config.MinWindowSize, config.MaxWindowSize, cfg.WindowSize)
	}
	if cfg.Smoothing < 0 || cfg.Smoothing >= 1 {
		return nil, fmt.Errorf("analyser: smoothing must be in [0, 1), got %v", cfg.Smoothing)
	}
	if cfg.MinDB >= cfg.MaxDB {
		return nil, fmt.Errorf("analyser: min dB (%v) must be below max dB (%v)", cfg.MinDB, cfg.MaxDB)
	}

	n := cfg.WindowSize

	// The coefficient table is the window applied to a run of ones.
	win := make([]float64, n)
	for i := range win {
		win[i] = 1
	}
	window.Hann(win)

	return &Analyser{
		cfg:       cfg,
		bins:      n / 2,
		fft:       fourier.NewFFT(n),
		win:       win,
		samples:   make([]float32, n),
		input:     make([]float64, n),
		coeffs:    make([]complex128, n/2+1),
		smoothed:  make([]float64, n/2),
		freqBytes: make([]byte, n/2),
		timeBytes: make([]byte, n),
	}, nil
}

// WindowSize returns the configured analysis window.
func (a *Analyser) WindowSize() int { return a.cfg.WindowSize }

// Bins returns the number of frequency bins, WindowSize/2.
func (a *Analyser) Bins() int { return a.bins }

// Bound reports whether a source is attached.
func (a *Analyser) Bound() bool { return a.src != nil }

// Bind attaches a source. Smoothing state restarts from silence so a
// rebind does not replay the previous source's spectrum.
func (a *Analyser) Bind(src audio.Source) {
	a.src = src
	if src != nil {
		a.rate = src.SampleRate()
	} else {
		a.rate = 0
	}
	for i := range a.smoothed {
		a.smoothed[i] = 0
	}
}

// Unbind detaches the current source. Sample returns ErrNotBound
// until the next Bind.
func (a *Analyser) Unbind() {
	a.src = nil
	a.rate = 0
}

// Sample runs one analysis pass and returns the frequency and
// time-domain byte snapshots. Both slices are owned by the analyser
// and overwritten by the next call.
//
// A detached or silent source flows through the same path: magnitudes
// decay toward byte 0 at the smoothing rate and time-domain bytes sit
// at the 128 bias.
func (a *Analyser) Sample() (freq, timeDomain []byte, err error) {
	if a.src == nil {
		return nil, nil, ErrNotBound
	}

	a.src.Snapshot(a.samples)

	// Window and widen in one pass, and emit the biased time bytes
	// from the same samples.
	for i, s := range a.samples {
		a.input[i] = float64(s) * a.win[i]
		a.timeBytes[i] = biasByte(s)
	}

	a.fft.Coefficients(a.coeffs, a.input)

	invN := 1 / float64(a.cfg.WindowSize)
	tau := a.cfg.Smoothing
	scale := 255 / (a.cfg.MaxDB - a.cfg.MinDB)
	for k := 0; k < a.bins; k++ {
		mag := cmplx.Abs(a.coeffs[k]) * invN
		sm := tau*a.smoothed[k] + (1-tau)*mag
		a.smoothed[k] = sm

		// 20*log10(0) is -Inf, which clamps to byte 0 below.
		db := 20 * math.Log10(sm)
		v := (db - a.cfg.MinDB) * scale
		switch {
		case v <= 0 || math.IsNaN(v):
			a.freqBytes[k] = 0
		case v >= 255:
			a.freqBytes[k] = 255
		default:
			a.freqBytes[k] = byte(v)
		}
	}

	return a.freqBytes, a.timeBytes, nil
}

// BinFrequency returns the center frequency in Hz of bin i for the
// bound source's rate, 0 when out of range or unbound.
func (a *Analyser) BinFrequency(i int) float64 {
	if i < 0 || i >= len(a.coeffs) || a.rate == 0 {
		return 0
	}
	return a.fft.Freq(i) * a.rate
}

// biasByte maps a sample in [-1, 1] onto the 128-centered byte scale.
func biasByte(s float32) byte {
	v := 128 + int(s*128)
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return byte(v)
}
