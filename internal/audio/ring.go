// SPDX-License-Identifier: MIT
package audio

import (
	"sync"

	"vizor/pkg/bitint"
)

// Ring is a fixed-capacity sample buffer written by the audio
// callback and snapshotted by the render loop. Capacity rounds up to
// a power of 2 so wrap-around is a mask, not a modulo.
type Ring struct {
	mu    sync.Mutex
	buf   []float32
	mask  int
	pos   int    // Next write index.
	total uint64 // Samples written since creation or Reset.
}

// NewRing allocates a ring holding at least capacity samples.
func NewRing(capacity int) *Ring {
	n := bitint.NextPowerOfTwo(capacity)
	return &Ring{
		buf:  make([]float32, n),
		mask: n - 1,
	}
}

// Cap returns the rounded-up capacity.
func (r *Ring) Cap() int { return len(r.buf) }

// Write appends samples, overwriting the oldest when full. Called
// from the audio callback, so the critical section is two copies.
func (r *Ring) Write(samples []float32) {
	if len(samples) == 0 {
		return
	}
	r.mu.Lock()
	src := samples
	// A burst larger than the ring only keeps its tail.
	if len(src) > len(r.buf) {
		src = src[len(src)-len(r.buf):]
	}
	n := copy(r.buf[r.pos:], src)
	if n < len(src) {
		copy(r.buf, src[n:])
	}
	r.pos = (r.pos + len(src)) & r.mask
	r.total += uint64(len(samples))
	r.mu.Unlock()
}

// Snapshot fills dst with the most recent len(dst) samples in
// arrival order and returns how many were real. Missing history is
// zero-filled at the front so dst always ends with the newest sample.
func (r *Ring) Snapshot(dst []float32) int {
	if len(dst) == 0 {
		return 0
	}
	r.mu.Lock()
	avail := int(r.total)
	if uint64(avail) != r.total || avail > len(r.buf) {
		avail = len(r.buf)
	}
	n := len(dst)
	if n > avail {
		n = avail
	}
	pad := len(dst) - n
	for i := 0; i < pad; i++ {
		dst[i] = 0
	}
	// Newest n samples end at pos-1.
	start := (r.pos - n) & r.mask
	c := copy(dst[pad:], r.buf[start:])
	if c < n {
		copy(dst[pad+c:], r.buf[:n-c])
	}
	r.mu.Unlock()
	return n
}

// Reset forgets all buffered samples. Subsequent snapshots are all
// zeros until new writes arrive.
func (r *Ring) Reset() {
	r.mu.Lock()
	for i := range r.buf {
		r.buf[i] = 0
	}
	r.pos = 0
	r.total = 0
	r.mu.Unlock()
}
