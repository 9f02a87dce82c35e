// SPDX-License-Identifier: MIT
/*
Package idle tracks how recently the input signal showed activity and
turns that into a continuous visibility factor.

The machine has no terminal state. Factor 1 means fully active, 0
fully faded, and the only carried state is the last-active timestamp:
activity at any point during a fade snaps the factor straight back
to 1.
*/
package idle

import (
	"time"

	"vizor/pkg/fmath"
)

// Config sets the activity threshold and the fade timing.
type Config struct {
	Threshold float64       // Presence above this counts as activity.
	Delay     time.Duration // Grace period before fading starts.
	Fade      time.Duration // Time to fade from 1 to 0.
}

// Machine computes the idle factor once per frame.
type Machine struct {
	cfg        Config
	lastActive time.Duration
	factor     float64
}

// NewMachine returns a machine that considers itself active at time
// zero.
func NewMachine(cfg Config) *Machine {
	return &Machine{cfg: cfg, factor: 1}
}

// Reset marks now as the last activity, so a restarted pipeline
// begins fully visible regardless of clock origin.
func (m *Machine) Reset(now time.Duration) {
	m.lastActive = now
	m.factor = 1
}

// Step advances the machine to now and returns the idle factor in
// [0, 1]. Presence strictly above the threshold refreshes activity.
// Within the delay window the factor holds at 1, past it the factor
// follows the smootherstep fade down to 0.
func (m *Machine) Step(presence float64, now time.Duration) float64 {
	if presence > m.cfg.Threshold {
		m.lastActive = now
	}

	elapsed := now - m.lastActive
	if elapsed <= m.cfg.Delay {
		m.factor = 1
		return 1
	}

	p := fmath.Clamp(float64(elapsed-m.cfg.Delay)/float64(m.cfg.Fade), 0, 1)
	m.factor = 1 - fmath.Smootherstep(p)
	return m.factor
}

// Factor returns the value computed by the most recent Step.
func (m *Machine) Factor() float64 { return m.factor }

// LastActive returns the timestamp of the most recent activity.
func (m *Machine) LastActive() time.Duration { return m.lastActive }
