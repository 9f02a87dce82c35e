/*
Package bitint provides the power-of-2 arithmetic used for FFT window
validation and mask-based ring buffer sizing.

All operations are O(1), allocation-free and safe to call from the
audio callback.
*/
package bitint

import "math/bits"

// NextPowerOfTwo returns the smallest power of 2 >= size. Powers of 2
// map to themselves, zero and negative inputs map to 1.
//
// The size-1 before bits.Len is what keeps exact powers of 2 from
// doubling: Len(8)=4 would yield 16, Len(7)=3 yields 8.
func NextPowerOfTwo(size int) int {
	if size <= 0 {
		return 1
	}
	return 1 << bits.Len64(uint64(size-1))
}

// IsPowerOfTwo reports whether n is a positive power of 2. Powers of 2
// have exactly one bit set, so n&(n-1) clears to zero only for them.
func IsPowerOfTwo(n int) bool {
	return n > 0 && (n&(n-1)) == 0
}

// Mask returns the index mask for a power-of-2 capacity, so ring
// positions wrap with idx&Mask(cap) instead of a modulo.
// Non-power-of-2 capacities get the mask of the next power of 2.
func Mask(capacity int) int {
	return NextPowerOfTwo(capacity) - 1
}
