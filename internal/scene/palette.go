// SPDX-License-Identifier: MIT
package scene

// RGB is an 8-bit per channel colour.
type RGB struct {
	R, G, B uint8
}

// Mul scales all channels by k/255.
func (c RGB) Mul(k uint8) RGB {
	return RGB{
		R: uint8((uint16(c.R) * uint16(k)) / 255),
		G: uint8((uint16(c.G) * uint16(k)) / 255),
		B: uint8((uint16(c.B) * uint16(k)) / 255),
	}
}

func lerpU8(a, b uint8, t float64) uint8 {
	if t <= 0 {
		return a
	}
	if t >= 1 {
		return b
	}
	return uint8(float64(a) + (float64(b)-float64(a))*t)
}

func lerpRGB(a, b RGB, t float64) RGB {
	return RGB{R: lerpU8(a.R, b.R, t), G: lerpU8(a.G, b.G, t), B: lerpU8(a.B, b.B, t)}
}

// Colour endpoints are fixed at design time; average energy blends
// Calm toward Surge, high-band energy then pulls toward Shimmer.
var palette = struct {
	Calm     RGB // dominant while the signal is quiet
	Surge    RGB // blended in by average energy
	Shimmer  RGB // blended in by high-band energy
	BackCold RGB // backdrop at silence
	BackWarm RGB // backdrop at full energy
}{
	Calm:     RGB{R: 38, G: 92, B: 180},
	Surge:    RGB{R: 214, G: 62, B: 150},
	Shimmer:  RGB{R: 236, G: 245, B: 255},
	BackCold: RGB{R: 14, G: 18, B: 30},
	BackWarm: RGB{R: 58, G: 26, B: 70},
}
