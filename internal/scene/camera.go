// SPDX-License-Identifier: MIT
package scene

import (
	"math"
	"time"

	"vizor/internal/config"
)

// Camera orbits the field origin at a fixed distance and elevation.
// Only the yaw moves at runtime, driven by signal presence, so a quiet
// room leaves the view parked instead of spinning over nothing.
type Camera struct {
	yaw    float64
	pitch  float64
	dist   float64
	aspect float64
	gain   float64 // rad/s at full presence
}

func NewCamera(cfg config.SceneConfig, width, height int) *Camera {
	c := &Camera{
		pitch: 0.32,
		dist:  cfg.Radius * 2.75,
		gain:  cfg.RotateGain,
	}
	c.Resize(width, height)
	return c
}

// Advance rotates the orbit by gain * presence * idleFactor over dt.
// Both scalars live in [0,1], so the yaw only ever moves forward.
func (c *Camera) Advance(presence, idleFactor float64, dt time.Duration) {
	c.yaw += c.gain * presence * idleFactor * dt.Seconds()
	if c.yaw >= 2*math.Pi {
		c.yaw = math.Mod(c.yaw, 2*math.Pi)
	}
}

// Eye returns the camera position in world space.
func (c *Camera) Eye() (x, y, z float64) {
	cp := math.Cos(c.pitch)
	x = c.dist * cp * math.Sin(c.yaw)
	y = c.dist * math.Sin(c.pitch)
	z = c.dist * cp * math.Cos(c.yaw)
	return x, y, z
}

// Resize recomputes the projection aspect for a new surface size.
func (c *Camera) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	c.aspect = float64(width) / float64(height)
}

func (c *Camera) Aspect() float64   { return c.aspect }
func (c *Camera) Yaw() float64      { return c.yaw }
func (c *Camera) Distance() float64 { return c.dist }
