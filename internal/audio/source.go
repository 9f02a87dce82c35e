// SPDX-License-Identifier: MIT
/*
Package audio provides the signal sources the analyser binds to:
microphone capture through PortAudio, file playback through oto with a
tap on the decoded stream, and a deterministic oscillator for tests
and demos.

All sources expose the same contract: a non-blocking Snapshot of the
most recent mono samples. A detached source stays callable and serves
silence, detachment never propagates as an error into the render loop.
*/
package audio

// Source is a stream of mono samples in [-1, 1] that the analyser can
// snapshot at any time.
type Source interface {
	// SampleRate returns the stream rate in Hz.
	SampleRate() float64

	// Snapshot fills dst with the most recent len(dst) samples,
	// oldest first, and returns how many of them carry real signal.
	// When the source is detached or has not produced enough history,
	// the remainder of dst is zero-filled. Snapshot never blocks and
	// never allocates.
	Snapshot(dst []float32) int

	// Detached reports whether the stream has ended or lost its
	// device. A detached source keeps serving zero-filled snapshots.
	Detached() bool

	// Close releases the underlying device or file. The source is
	// detached afterwards.
	Close() error
}
