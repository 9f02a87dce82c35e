// SPDX-License-Identifier: MIT
/*
Package scene turns the per-frame feature vector into drawable
geometry: a fixed particle field on a sphere, a flickering backdrop
shell behind it, and an orbit camera. Nothing here touches a GPU; the
output is packed attribute buffers a host renderer uploads as-is.
*/
package scene

import (
	"math"
	"time"

	"vizor/internal/config"
	"vizor/internal/feature"
	"vizor/pkg/fmath"
)

// Stride is the float32 count per point in a packed attribute buffer:
// [x y z size r g b].
const Stride = 7

// pulseRate is the angular speed of the per-particle displacement
// pulse in rad/s. Each particle carries its own fixed phase offset so
// the field breathes instead of pumping in lockstep.
const pulseRate = 5.2

type particle struct {
	bx, by, bz float64 // base position, never reassigned
	phase      float64 // fixed pulse offset
}

// Field is a fixed-size particle set on a sphere. Base positions and
// phases are assigned once at construction; every frame only the
// derived attributes (displaced position, size, colour) change.
type Field struct {
	cfg config.SceneConfig
	pts []particle
	buf []float32
}

// NewField lays out cfg.Particles points uniformly on a sphere of
// cfg.Radius, seeded by cfg.Seed. Seed zero picks a fixed default, so
// two engines with the same config render the same layout.
func NewField(cfg config.SceneConfig) *Field {
	if cfg.Particles < 0 {
		cfg.Particles = 0
	}
	rnd := fmath.NewRand(cfg.Seed)

	pts := make([]particle, cfg.Particles)
	for i := range pts {
		// Uniform on the sphere: height from [-1,1], angle from [0,2π).
		u := rnd.RangeF(-1, 1)
		theta := rnd.RangeF(0, 2*math.Pi)
		r := math.Sqrt(1 - u*u)
		pts[i] = particle{
			bx:    cfg.Radius * r * math.Cos(theta),
			by:    cfg.Radius * u,
			bz:    cfg.Radius * r * math.Sin(theta),
			phase: rnd.RangeF(0, 2*math.Pi),
		}
	}

	return &Field{
		cfg: cfg,
		pts: pts,
		buf: make([]float32, 0, cfg.Particles*Stride),
	}
}

// Count returns the fixed particle count.
func (f *Field) Count() int { return len(f.pts) }

// BasePosition returns particle i's construction-time position.
func (f *Field) BasePosition(i int) (x, y, z float64) {
	p := &f.pts[i]
	return p.bx, p.by, p.bz
}

// Advance computes this frame's packed [x y z size r g b] attributes.
// Positions are the base sphere displaced radially by average energy,
// modulated per particle by its pulse phase. Size is an affine blend
// of both features over a floor, perspective-scaled by distance to the
// camera eye. The returned slice is reused on the next call; callers
// must consume it before then.
func (f *Field) Advance(v feature.Vector, now time.Duration, cam *Camera) []float32 {
	f.buf = f.buf[:0]

	col := lerpRGB(lerpRGB(palette.Calm, palette.Surge, v.AvgEnergy), palette.Shimmer, v.HighBand)
	rc := float32(col.R) / 255
	gc := float32(col.G) / 255
	bc := float32(col.B) / 255

	size := f.cfg.SizeFloor + f.cfg.SizeGain*(0.65*v.AvgEnergy+0.35*v.HighBand)
	amp := v.AvgEnergy * f.cfg.DisplacementScale
	sec := now.Seconds()
	ex, ey, ez := cam.Eye()
	ref := cam.Distance()

	for i := range f.pts {
		p := &f.pts[i]

		pulse := 0.5 + 0.5*math.Sin(p.phase+sec*pulseRate)
		k := 1 + amp*pulse/f.cfg.Radius
		x := p.bx * k
		y := p.by * k
		z := p.bz * k

		dx, dy, dz := x-ex, y-ey, z-ez
		d := math.Sqrt(dx*dx + dy*dy + dz*dz)
		if d < 1e-6 {
			d = 1e-6
		}
		s := size * ref / d

		f.buf = append(f.buf, float32(x), float32(y), float32(z), float32(s), rc, gc, bc)
	}
	return f.buf
}
