// SPDX-License-Identifier: MIT
package scene

import (
	"math"
	"time"

	"vizor/internal/config"
	"vizor/internal/feature"
	"vizor/pkg/fmath"
)

const (
	backdropShell  = 4.0  // shell radius as a multiple of the field radius
	backdropBase   = 0.22 // brightness floor before idle scaling
	backdropGain   = 0.55 // brightness per unit average energy
	backdropWobble = 0.12 // radial distortion per unit high-band energy
	backdropSize   = 2.6  // flat point size, no perspective scaling
)

type backdropPoint struct {
	bx, by, bz float64
}

// Backdrop is an enclosing shell of dim flicker points behind the
// field. Unlike the particles it carries no per-point phase: every
// frame reseeds its jitter from the tick timestamp, so the flicker is
// organic yet replays identically for a given timestamp. Brightness
// scales with the idle factor, fading the shell toward black rather
// than removing it.
type Backdrop struct {
	cfg config.SceneConfig
	pts []backdropPoint
	buf []float32
	rnd *fmath.Rand
}

func NewBackdrop(cfg config.SceneConfig) *Backdrop {
	if cfg.BackdropCount < 0 {
		cfg.BackdropCount = 0
	}
	// Decorrelate the shell layout from the field layout under the
	// shared seed.
	rnd := fmath.NewRand(fmath.Splitmix64(cfg.Seed + 1))

	shell := cfg.Radius * backdropShell
	pts := make([]backdropPoint, cfg.BackdropCount)
	for i := range pts {
		u := rnd.RangeF(-1, 1)
		theta := rnd.RangeF(0, 2*math.Pi)
		r := math.Sqrt(1 - u*u)
		pts[i] = backdropPoint{
			bx: shell * r * math.Cos(theta),
			by: shell * u,
			bz: shell * r * math.Sin(theta),
		}
	}

	return &Backdrop{
		cfg: cfg,
		pts: pts,
		buf: make([]float32, 0, cfg.BackdropCount*Stride),
		rnd: fmath.NewRand(1),
	}
}

// Count returns the fixed shell point count.
func (b *Backdrop) Count() int { return len(b.pts) }

// Advance computes this frame's packed [x y z size r g b] shell
// attributes. The jitter generator is reseeded from now, so equal
// timestamps yield equal buffers. The returned slice is reused on the
// next call.
func (b *Backdrop) Advance(v feature.Vector, idleFactor float64, now time.Duration) []float32 {
	b.buf = b.buf[:0]
	b.rnd.Reseed(fmath.Splitmix64(uint64(now)))

	bright := fmath.Clamp(backdropBase+backdropGain*v.AvgEnergy, 0, 1) * idleFactor
	col := lerpRGB(palette.BackCold, palette.BackWarm, v.AvgEnergy)
	wobble := backdropWobble * v.HighBand

	for i := range b.pts {
		p := &b.pts[i]

		k := 1 + wobble*b.rnd.RangeF(-1, 1)
		flick := b.rnd.RangeF(0.35, 1)

		c := col.Mul(uint8(bright * flick * 255))
		b.buf = append(b.buf,
			float32(p.bx*k), float32(p.by*k), float32(p.bz*k),
			float32(backdropSize),
			float32(c.R)/255, float32(c.G)/255, float32(c.B)/255,
		)
	}
	return b.buf
}
