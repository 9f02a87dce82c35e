// SPDX-License-Identifier: MIT
package bitint

import (
	"fmt"
	"testing"
)

func TestNextPowerOfTwo(t *testing.T) {
	tests := []struct {
		n        int
		expected int
	}{
		{-10, 1},     // Negative number
		{0, 1},       // Zero
		{8, 8},       // Already power of two
		{10, 16},     // Not power of two
		{512, 512},   // Default output window
		{1000, 1024}, // Large number
		{3, 4},       // Small non-power
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d→%d", tt.n, tt.expected), func(t *testing.T) {
			result := NextPowerOfTwo(tt.n)
			if result != tt.expected {
				t.Errorf("NextPowerOfTwo(%d) = %d, expected %d", tt.n, result, tt.expected)
			}
		})
	}
}

func TestIsPowerOfTwo(t *testing.T) {
	tests := []struct {
		n        int
		expected bool
	}{
		{-2, false},     // Negative number
		{0, false},      // Zero
		{1, true},       // One
		{32, true},      // Smallest valid window
		{10, false},     // Not power of two
		{32768, true},   // Largest valid window
		{1 << 20, true}, // Large power of two
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d→%t", tt.n, tt.expected), func(t *testing.T) {
			result := IsPowerOfTwo(tt.n)
			if result != tt.expected {
				t.Errorf("IsPowerOfTwo(%d) = %v, expected %v", tt.n, result, tt.expected)
			}
		})
	}
}

func TestMask(t *testing.T) {
	tests := []struct {
		capacity int
		expected int
	}{
		{8, 7},       // Power of two
		{10, 15},     // Rounded up to 16
		{1024, 1023}, // Ring default
		{1, 0},       // Degenerate
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d→%d", tt.capacity, tt.expected), func(t *testing.T) {
			result := Mask(tt.capacity)
			if result != tt.expected {
				t.Errorf("Mask(%d) = %d, expected %d", tt.capacity, result, tt.expected)
			}
		})
	}

	// Wrapping with the mask must agree with modulo for pow-2 capacities.
	const capacity = 16
	m := Mask(capacity)
	for i := 0; i < 100; i++ {
		if i&m != i%capacity {
			t.Fatalf("mask wrap diverges from modulo at %d", i)
		}
	}
}

func BenchmarkNextPowerOfTwo(b *testing.B) {
	var i int
	b.ReportAllocs()
	for b.Loop() {
		NextPowerOfTwo(i % 10000)
		i++
	}
}

func BenchmarkIsPowerOfTwo(b *testing.B) {
	var i int
	b.ReportAllocs()
	for b.Loop() {
		IsPowerOfTwo(i % 10000)
		i++
	}
}
