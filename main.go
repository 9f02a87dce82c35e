package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"vizor/cmd"
	"vizor/internal/audio"
	"vizor/internal/log"
	"vizor/internal/transport"
	"vizor/internal/tui"
	"vizor/internal/vis"
	"vizor/pkg/build"
)

// main is the entry point for the visualizer. The program flow is
// divided into three distinct phases:
//
// 1. Startup Phase (Cold Path):
//   - Initialize PortAudio
//   - Parse command line arguments and load configuration
//   - Execute one-off commands if requested
//
// 2. Render Phase (Hot Path):
//   - Open the audio source (capture device or playback file)
//   - Wire the frame transports
//   - Tick the engine at the configured rate
//
// 3. Shutdown Phase (Cold Path):
//   - Handle termination signals
//   - Stop the engine and release sources and sinks
func main() {
	// ==================== STARTUP PHASE (Cold Path) ====================

	// Limit OS threads: one for the audio callback (time-critical),
	// one for the render tick and transport I/O.
	runtime.GOMAXPROCS(2)

	// Initialize PortAudio subsystem
	if err := audio.Initialize(); err != nil {
		log.Fatalf("%v", err)
	}
	defer audio.Terminate()

	// Parse command line arguments and build configuration
	cfg, err := cmd.ParseArgs()
	if err != nil {
		log.Fatalf("%v", err)
	}
	if cfg == nil {
		// Cobra already handled the invocation (--help, --version).
		return
	}

	if level, ok := log.ParseLevel(cfg.LogLevel); ok {
		log.SetLevel(level)
	}
	if cfg.Debug {
		log.SetLevel(log.LevelDebug)
	}

	// Handle one-off commands (device listing, the interactive picker)
	// that don't require the engine to be running
	if cfg.Command != "" {
		if err := executeCommand(cfg.Command); err != nil {
			log.Fatalf("%v", err)
		}
		return
	}

	// ==================== RENDER PHASE (Hot Path) ====================

	// Setup signal handling for graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	var sinks []vis.Sink
	if cfg.Transport.WSEnabled {
		ws, err := transport.NewWSSink(cfg.Transport)
		if err != nil {
			log.Fatalf("transport: %v", err)
		}
		defer ws.Close()
		sinks = append(sinks, ws)
	}
	if cfg.Transport.UDPEnabled {
		udp, err := transport.NewUDPSink(cfg.Transport)
		if err != nil {
			log.Fatalf("transport: %v", err)
		}
		defer udp.Close()
		sinks = append(sinks, udp)
	}
	if cfg.Transport.LogFrames || cfg.Debug {
		sinks = append(sinks, transport.NewLogSink(time.Second))
	}

	// One source feeds both analyser bindings: the coarse one decides
	// presence, the fine one drives the visuals. A denied capture
	// leaves both unbound and the scene fades out on its own.
	var source audio.Source
	if cfg.Audio.PlaybackFile != "" {
		pb, err := audio.OpenPlayback(cfg.Audio.PlaybackFile)
		if err != nil {
			log.Fatalf("audio: %v", err)
		}
		defer pb.Close()
		source = pb
	} else {
		capture, err := audio.RequestCapture(cfg.Audio)
		switch {
		case err == nil:
			defer capture.Close()
			source = capture
		case errors.Is(err, audio.ErrAccessDenied):
			log.Warnf("audio: capture unavailable, rendering without input: %v", err)
		default:
			log.Fatalf("audio: %v", err)
		}
	}

	engine, err := vis.NewEngine(cfg, transport.Multi(sinks...))
	if err != nil {
		log.Fatalf("%v", err)
	}
	if err := engine.Start(source, source); err != nil {
		log.Fatalf("%v", err)
	}

	info := build.Resolve()
	log.Infof("%s %s: %d particles at %d fps", info.Name, info.Version,
		cfg.Scene.Particles, cfg.Engine.FPS)

	ticker := time.NewTicker(time.Second / time.Duration(cfg.Engine.FPS))
	defer ticker.Stop()

	start := time.Now()
	for running := true; running; {
		select {
		case <-done:
			running = false
		case <-ticker.C:
			if err := engine.Tick(time.Since(start)); err != nil {
				log.Errorf("engine: %v", err)
				running = false
			}
		}
	}

	// ==================== SHUTDOWN PHASE (Cold Path) ====================

	engine.Stop()
	if n := engine.Dropped(); n > 0 {
		log.Warnf("engine: %d frame(s) dropped by transports", n)
	}
}

// executeCommand handles one-off commands that don't require the
// engine to be running.
func executeCommand(command string) error {
	switch command {
	case "list":
		return audio.ListDevices()
	case "devices":
		sel, err := tui.StartDeviceListUI()
		if err != nil {
			return err
		}
		if sel.DeviceID >= 0 {
			fmt.Printf("\nSelected device %d at %.0f Hz. Start the visualizer with:\n\n  %s --device %d --sample-rate %.0f\n\n",
				sel.DeviceID, sel.SampleRate, build.Resolve().Name, sel.DeviceID, sel.SampleRate)
		}
		return nil
	default:
		return fmt.Errorf("unknown command: %q", command)
	}
}
