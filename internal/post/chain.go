// SPDX-License-Identifier: MIT
/*
Package post models the post-processing chain: base render, bloom,
afterimage, composite, in that fixed order. The chain never reorders
or skips a stage at runtime; the audio only moves the scalar params.
Each stage owns a render target descriptor the host mirrors on its
GPU, with bloom running at half resolution.
*/
package post

import (
	"vizor/internal/config"
	"vizor/internal/feature"
	"vizor/pkg/fmath"
)

// Stage identifies one slot in the effect order. The declaration
// order is the execution order.
type Stage int

const (
	StageBase Stage = iota
	StageBloom
	StageAfterimage
	StageComposite

	NumStages = 4
)

func (s Stage) String() string {
	switch s {
	case StageBase:
		return "base"
	case StageBloom:
		return "bloom"
	case StageAfterimage:
		return "afterimage"
	case StageComposite:
		return "composite"
	}
	return "unknown"
}

// Target describes one stage's render target in pixels.
type Target struct {
	Width  int
	Height int
}

// Params are the per-frame effect scalars.
type Params struct {
	BloomStrength float64 // additive glow intensity
	BloomRadius   float64 // glow spread
	TrailDecay    float64 // afterimage retention in [0,1)
}

// Chain holds the fixed stage sequence, its targets, and the params
// computed for the current frame.
type Chain struct {
	cfg     config.PostConfig
	params  Params
	targets [NumStages]Target
}

func NewChain(cfg config.PostConfig, width, height int) *Chain {
	c := &Chain{cfg: cfg}
	c.Resize(width, height)
	c.Advance(feature.Vector{}, 1)
	return c
}

// Advance recomputes the effect scalars for this frame. Bloom
// strength is affine in average energy and scaled by the idle factor,
// so an idle scene glows down to black. Bloom radius follows the high
// band. Trail decay eases between its quiet and loud endpoints on
// squared energy, keeping trails subtle until the signal gets loud.
func (c *Chain) Advance(v feature.Vector, idleFactor float64) Params {
	c.params = Params{
		BloomStrength: (c.cfg.BloomBase + c.cfg.BloomGain*v.AvgEnergy) * idleFactor,
		BloomRadius:   c.cfg.RadiusBase + c.cfg.RadiusGain*v.HighBand,
		TrailDecay:    fmath.Lerp(c.cfg.TrailQuiet, c.cfg.TrailLoud, v.AvgEnergy*v.AvgEnergy),
	}
	return c.params
}

// Params returns the scalars from the latest Advance.
func (c *Chain) Params() Params { return c.params }

// Target returns the render target for one stage.
func (c *Chain) Target(s Stage) Target { return c.targets[s] }

// Resize matches every render target to a new surface size. Bloom
// stays at half resolution. Degenerate sizes are ignored.
func (c *Chain) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	full := Target{Width: width, Height: height}
	c.targets[StageBase] = full
	c.targets[StageBloom] = Target{Width: halved(width), Height: halved(height)}
	c.targets[StageAfterimage] = full
	c.targets[StageComposite] = full
}

func halved(px int) int {
	if px < 2 {
		return 1
	}
	return px / 2
}
