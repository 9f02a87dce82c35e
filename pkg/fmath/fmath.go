// SPDX-License-Identifier: MIT
/*
Package fmath provides small float helpers shared by the analysis and
render paths. Everything here is allocation-free and branch-cheap so it
can be called per particle per frame.
*/
package fmath

// Clamp limits v to the closed range [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Clamp32 is Clamp for float32 render buffers.
func Clamp32(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Lerp interpolates linearly from a to b by t in [0,1]. t outside the
// range extrapolates, callers clamp first when that matters.
func Lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// Smootherstep maps t in [0,1] onto the quintic ease 6t^5-15t^4+10t^3.
// The curve starts and ends with zero first and second derivative, so
// fades driven by it never show a velocity kink at either endpoint.
// Inputs outside [0,1] are clamped.
func Smootherstep(t float64) float64 {
	if t <= 0 {
		return 0
	}
	if t >= 1 {
		return 1
	}
	return t * t * t * (t*(t*6-15) + 10)
}

// Approach moves cur toward target by at most maxDelta and never
// overshoots.
func Approach(cur, target, maxDelta float64) float64 {
	if cur < target {
		cur += maxDelta
		if cur > target {
			cur = target
		}
		return cur
	}
	if cur > target {
		cur -= maxDelta
		if cur < target {
			cur = target
		}
	}
	return cur
}
