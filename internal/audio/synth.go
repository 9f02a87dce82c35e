package audio

import (
	"math"
	"sync/atomic"
)

// Partial is one sinusoidal component of an oscillator.
type Partial struct {
	Freq float64 // Hz
	Amp  float64 // Peak amplitude contribution.
}

// OscSource is a deterministic signal generator. It stands in for a
// live device in tests and demos: each Snapshot continues the
// waveform exactly where the previous one stopped, so two runs with
// the same settings produce identical streams.
type OscSource struct {
	rate     float64
	partials []Partial
	n        int64 // Samples generated so far.
	detached atomic.Bool
}

var _ Source = (*OscSource)(nil)

// NewOscSource returns a sine generator at freq Hz with the given
// peak amplitude.
func NewOscSource(sampleRate, freq, amp float64) *OscSource {
	return &OscSource{
		rate:     sampleRate,
		partials: []Partial{{Freq: freq, Amp: amp}},
	}
}

// NewHarmonicSource returns a 440 Hz fundamental with two overtones,
// a signal rich enough to light several analyser bins at once.
func NewHarmonicSource(sampleRate float64) *OscSource {
	return &OscSource{
		rate: sampleRate,
		partials: []Partial{
			{Freq: 440, Amp: 0.5},
			{Freq: 880, Amp: 0.3},
			{Freq: 1320, Amp: 0.2},
		},
	}
}

// NewSilenceSource returns a generator that only ever produces zeros.
func NewSilenceSource(sampleRate float64) *OscSource {
	return &OscSource{rate: sampleRate}
}

// AddPartial extends the waveform with another component.
func (o *OscSource) AddPartial(freq, amp float64) {
	o.partials = append(o.partials, Partial{Freq: freq, Amp: amp})
}

// SampleRate returns the generator rate in Hz.
func (o *OscSource) SampleRate() float64 { return o.rate }

// Snapshot fills dst with the next samples of the waveform.
func (o *OscSource) Snapshot(dst []float32) int {
	if o.detached.Load() {
		for i := range dst {
			dst[i] = 0
		}
		return 0
	}
	for i := range dst {
		t := float64(o.n+int64(i)) / o.rate
		var v float64
		for _, p := range o.partials {
			v += p.Amp * math.Sin(2*math.Pi*p.Freq*t)
		}
		dst[i] = float32(v)
	}
	o.n += int64(len(dst))
	return len(dst)
}

// Detached reports whether the generator has been stopped.
func (o *OscSource) Detached() bool { return o.detached.Load() }

// Detach stops the generator, snapshots serve zeros afterwards.
func (o *OscSource) Detach() { o.detached.Store(true) }

// Close detaches the generator. There is no device to release.
func (o *OscSource) Close() error {
	o.Detach()
	return nil
}
