// SPDX-License-Identifier: MIT
package vis

import (
	"time"

	"vizor/internal/feature"
	"vizor/internal/post"
)

// Frame is the composited output of one engine tick: the scalar state
// a host needs to draw, plus the packed point attributes for hosts
// that render the exact geometry.
type Frame struct {
	Seq        uint64
	Now        time.Duration
	Output     feature.Vector // playback-side features driving the visuals
	Presence   float64        // capture-side presence driving idleness
	IdleFactor float64
	Post       post.Params
	CameraYaw  float64
	Aspect     float64
	Width      int
	Height     int
	Particles  []float32 // packed [x y z size r g b] per particle
	Backdrop   []float32 // same layout for the backdrop shell
}

// Sink consumes composited frames. Publish must return quickly and
// must not retain the frame or its slices; the engine reuses both on
// the next tick. A non-nil error means the sink dropped the frame,
// never that the engine should stop.
type Sink interface {
	Publish(*Frame) error
}
