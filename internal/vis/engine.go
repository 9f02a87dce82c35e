// SPDX-License-Identifier: MIT
/*
Package vis runs the render loop. The Engine owns the whole pipeline
between audio sources and the frame sink: two analysers (playback and
capture side), the feature extraction, the idle machine, the particle
field, the backdrop, the orbit camera and the post chain.

The host owns the clock. It calls Tick once per display refresh with a
monotonic timestamp; the engine never schedules itself, never blocks
and never spawns a goroutine. Everything a tick touches is allocated
up front, so steady-state ticks are allocation-free.
*/
package vis

import (
	"errors"
	"fmt"
	"time"

	"vizor/internal/analyser"
	"vizor/internal/audio"
	"vizor/internal/config"
	"vizor/internal/feature"
	"vizor/internal/idle"
	"vizor/internal/log"
	"vizor/internal/post"
	"vizor/internal/scene"
)

var (
	// ErrRunning reports a Start on an engine that is already ticking.
	ErrRunning = errors.New("vis: engine already running")
	// ErrNotRunning reports a Tick outside a Start/Stop window.
	ErrNotRunning = errors.New("vis: engine not running")
)

// Engine coordinates one fixed-order pipeline step per Tick: sample
// both analysers, extract features, step the idle machine, advance
// scene and post params, advance the camera, publish the frame.
type Engine struct {
	outAnalyser *analyser.Analyser // playback side, drives the visuals
	inAnalyser  *analyser.Analyser // capture side, drives idleness
	idle        *idle.Machine
	field       *scene.Field
	backdrop    *scene.Backdrop
	camera      *scene.Camera
	chain       *post.Chain
	sink        Sink

	running  bool
	lastTick time.Duration // -1 until the first tick after Start
	seq      uint64
	dropped  uint64
	width    int
	height   int
	frame    Frame
}

// NewEngine builds the pipeline from cfg. The sink may be nil for a
// headless engine that only advances state.
func NewEngine(cfg *config.Config, sink Sink) (*Engine, error) {
	outAn, err := analyser.New(analyser.Config{
		WindowSize: cfg.Analyser.OutputWindow,
		Smoothing:  cfg.Analyser.Smoothing,
		MinDB:      cfg.Analyser.MinDB,
		MaxDB:      cfg.Analyser.MaxDB,
	})
	if err != nil {
		return nil, fmt.Errorf("vis: output analyser: %w", err)
	}
	inAn, err := analyser.New(analyser.Config{
		WindowSize: cfg.Analyser.InputWindow,
		Smoothing:  cfg.Analyser.Smoothing,
		MinDB:      cfg.Analyser.MinDB,
		MaxDB:      cfg.Analyser.MaxDB,
	})
	if err != nil {
		return nil, fmt.Errorf("vis: input analyser: %w", err)
	}

	width, height := cfg.Engine.Width, cfg.Engine.Height
	return &Engine{
		outAnalyser: outAn,
		inAnalyser:  inAn,
		idle: idle.NewMachine(idle.Config{
			Threshold: cfg.Idle.Threshold,
			Delay:     cfg.Idle.Delay.Std(),
			Fade:      cfg.Idle.Fade.Std(),
		}),
		field:    scene.NewField(cfg.Scene),
		backdrop: scene.NewBackdrop(cfg.Scene),
		camera:   scene.NewCamera(cfg.Scene, width, height),
		chain:    post.NewChain(cfg.Post, width, height),
		sink:     sink,
		lastTick: -1,
		width:    width,
		height:   height,
	}, nil
}

// Start binds the analysers and begins accepting ticks. Either source
// may be nil: that side stays unbound and contributes a zero feature
// vector each tick instead of failing. The engine holds the sources
// while running but never opens or closes them.
func (e *Engine) Start(input, output audio.Source) error {
	if e.running {
		return ErrRunning
	}
	if input != nil {
		e.inAnalyser.Bind(input)
	}
	if output != nil {
		e.outAnalyser.Bind(output)
	}
	e.running = true
	e.lastTick = -1
	return nil
}

// Stop unbinds both analysers between steps. A later Start binds
// fresh analysis state rather than resuming the old bindings. Stopping
// a stopped engine is a no-op.
func (e *Engine) Stop() {
	if !e.running {
		return
	}
	e.running = false
	e.inAnalyser.Unbind()
	e.outAnalyser.Unbind()
}

// Running reports whether the engine accepts ticks.
func (e *Engine) Running() bool { return e.running }

// Dropped returns how many frames the sink refused so far.
func (e *Engine) Dropped() uint64 { return e.dropped }

// Resize propagates a new surface size to the camera aspect and every
// post-chain render target. Degenerate sizes are ignored.
func (e *Engine) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	e.width, e.height = width, height
	e.camera.Resize(width, height)
	e.chain.Resize(width, height)
}

// Tick advances the pipeline one step at the host-supplied timestamp.
// The idle factor computed this step is the one applied to this
// step's scene, post params and published frame.
func (e *Engine) Tick(now time.Duration) error {
	if !e.running {
		return ErrNotRunning
	}
	if e.lastTick < 0 {
		// First tick after Start anchors the idle clock, otherwise a
		// host clock already minutes old would begin mid-fade.
		e.idle.Reset(now)
		e.lastTick = now
	}

	var outVec, inVec feature.Vector
	if e.outAnalyser.Bound() {
		freq, td, err := e.outAnalyser.Sample()
		if err != nil {
			return fmt.Errorf("vis: output sample: %w", err)
		}
		outVec = feature.Extract(freq, td)
	}
	if e.inAnalyser.Bound() {
		freq, td, err := e.inAnalyser.Sample()
		if err != nil {
			return fmt.Errorf("vis: input sample: %w", err)
		}
		inVec = feature.Extract(freq, td)
	}

	factor := e.idle.Step(inVec.Presence, now)

	particles := e.field.Advance(outVec, now, e.camera)
	backdrop := e.backdrop.Advance(outVec, factor, now)
	params := e.chain.Advance(outVec, factor)

	dt := now - e.lastTick
	if dt < 0 {
		dt = 0
	}
	e.camera.Advance(inVec.Presence, factor, dt)
	e.lastTick = now

	e.seq++
	e.frame = Frame{
		Seq:        e.seq,
		Now:        now,
		Output:     outVec,
		Presence:   inVec.Presence,
		IdleFactor: factor,
		Post:       params,
		CameraYaw:  e.camera.Yaw(),
		Aspect:     e.camera.Aspect(),
		Width:      e.width,
		Height:     e.height,
		Particles:  particles,
		Backdrop:   backdrop,
	}
	if e.sink != nil {
		if err := e.sink.Publish(&e.frame); err != nil {
			e.dropped++
			log.Debugf("engine: frame %d dropped: %v", e.frame.Seq, err)
		}
	}
	return nil
}
