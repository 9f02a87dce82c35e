// SPDX-License-Identifier: MIT
package post

import (
	"fmt"
	"math"
	"testing"

	"vizor/internal/config"
	"vizor/internal/feature"
)

func testPostConfig() config.PostConfig {
	return config.PostConfig{
		BloomBase:  0.4,
		BloomGain:  1.1,
		RadiusBase: 0.3,
		RadiusGain: 0.5,
		TrailQuiet: 0.82,
		TrailLoud:  0.96,
	}
}

func TestBloomStrengthAffineInEnergy(t *testing.T) {
	tests := []struct {
		avg, idle float64
		expected  float64
	}{
		{0, 1, 0.4},   // Idle-scaled base, zero audio contribution
		{1, 1, 1.5},   // Base plus the full fixed increment
		{0.5, 1, 0.95},
		{0, 0.5, 0.2}, // Idle factor scales the whole strength
		{1, 0, 0},     // Fully idle glows down to black
	}

	c := NewChain(testPostConfig(), 800, 600)
	for _, tt := range tests {
		t.Run(fmt.Sprintf("avg=%.1f,idle=%.1f", tt.avg, tt.idle), func(t *testing.T) {
			p := c.Advance(feature.Vector{AvgEnergy: tt.avg}, tt.idle)
			if math.Abs(p.BloomStrength-tt.expected) > 1e-12 {
				t.Errorf("BloomStrength = %v, expected %v", p.BloomStrength, tt.expected)
			}
		})
	}
}

func TestBloomRadiusFollowsHighBand(t *testing.T) {
	c := NewChain(testPostConfig(), 800, 600)

	p := c.Advance(feature.Vector{HighBand: 0}, 1)
	if math.Abs(p.BloomRadius-0.3) > 1e-12 {
		t.Errorf("BloomRadius at zero high band = %v, expected 0.3", p.BloomRadius)
	}
	p = c.Advance(feature.Vector{HighBand: 1}, 1)
	if math.Abs(p.BloomRadius-0.8) > 1e-12 {
		t.Errorf("BloomRadius at full high band = %v, expected 0.8", p.BloomRadius)
	}
}

// Trail decay interpolates on squared energy, so half energy sits a
// quarter of the way between the endpoints.
func TestTrailDecayQuadratic(t *testing.T) {
	tests := []struct {
		avg      float64
		expected float64
	}{
		{0, 0.82},
		{1, 0.96},
		{0.5, 0.82 + (0.96-0.82)*0.25},
	}

	c := NewChain(testPostConfig(), 800, 600)
	for _, tt := range tests {
		t.Run(fmt.Sprintf("avg=%.1f", tt.avg), func(t *testing.T) {
			p := c.Advance(feature.Vector{AvgEnergy: tt.avg}, 1)
			if math.Abs(p.TrailDecay-tt.expected) > 1e-12 {
				t.Errorf("TrailDecay = %v, expected %v", p.TrailDecay, tt.expected)
			}
		})
	}
}

func TestStageOrderFixed(t *testing.T) {
	want := []string{"base", "bloom", "afterimage", "composite"}
	for i := 0; i < NumStages; i++ {
		if got := Stage(i).String(); got != want[i] {
			t.Errorf("stage %d = %q, expected %q", i, got, want[i])
		}
	}
}

func TestResizeUpdatesAllTargets(t *testing.T) {
	c := NewChain(testPostConfig(), 800, 600)

	if got := c.Target(StageBase); got != (Target{800, 600}) {
		t.Fatalf("base target = %+v, expected 800x600", got)
	}
	if got := c.Target(StageBloom); got != (Target{400, 300}) {
		t.Fatalf("bloom target = %+v, expected 400x300 (half resolution)", got)
	}

	c.Resize(1920, 1080)
	for _, s := range []Stage{StageBase, StageAfterimage, StageComposite} {
		if got := c.Target(s); got != (Target{1920, 1080}) {
			t.Errorf("%v target = %+v, expected 1920x1080", s, got)
		}
	}
	if got := c.Target(StageBloom); got != (Target{960, 540}) {
		t.Errorf("bloom target = %+v, expected 960x540", got)
	}
}

func TestResizeIgnoresDegenerateSurface(t *testing.T) {
	c := NewChain(testPostConfig(), 800, 600)
	c.Resize(0, 1080)
	c.Resize(1920, -1)
	if got := c.Target(StageBase); got != (Target{800, 600}) {
		t.Errorf("base target = %+v after degenerate resizes, expected 800x600", got)
	}
}

func TestAdvanceNoAllocs(t *testing.T) {
	c := NewChain(testPostConfig(), 800, 600)
	v := feature.Vector{AvgEnergy: 0.5, HighBand: 0.5}
	allocs := testing.AllocsPerRun(100, func() {
		c.Advance(v, 0.8)
	})
	if allocs > 0 {
		t.Errorf("Advance allocates %.1f times per frame, expected 0", allocs)
	}
}
