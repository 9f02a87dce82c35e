// SPDX-License-Identifier: MIT
package audio

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gordonklaus/portaudio"

	"vizor/internal/config"
	"vizor/internal/log"
)

// CaptureSource streams the microphone into a ring buffer. The
// PortAudio callback writes, the render loop snapshots, and the two
// never share more state than the ring.
type CaptureSource struct {
	ring       *Ring
	stream     *portaudio.Stream
	device     Device
	sampleRate float64
	channels   int

	// mono is the pre-allocated mixdown target for multi-channel
	// capture. The callback must not allocate.
	mono []float32

	detached  atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

var _ Source = (*CaptureSource)(nil)

// RequestCapture asks the host for the configured input device and
// starts streaming. A refusal to open or start the device is reported
// as ErrAccessDenied, the caller decides what to render without it.
// PortAudio must be initialized first.
func RequestCapture(cfg config.AudioConfig) (*CaptureSource, error) {
	device, err := InputDevice(cfg.InputDevice)
	if err != nil {
		return nil, fmt.Errorf("resolving input device: %w", err)
	}

	channels := cfg.InputChannels
	if device.MaxInputChannels > 0 && channels > device.MaxInputChannels {
		channels = device.MaxInputChannels
	}
	if channels < 1 {
		channels = 1
	}

	var latency time.Duration
	if cfg.LowLatency {
		latency = device.DefaultLowInputLatency
	} else {
		latency = device.DefaultHighInputLatency
	}

	s := &CaptureSource{
		// Sized for the largest analyser window so any binding can
		// snapshot a full window from history.
		ring:       NewRing(config.MaxWindowSize),
		device:     device,
		sampleRate: cfg.SampleRate,
		channels:   channels,
		mono:       make([]float32, cfg.FramesPerBuffer),
	}

	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   device.info,
			Channels: channels,
			Latency:  latency,
		},
		FramesPerBuffer: cfg.FramesPerBuffer,
		SampleRate:      cfg.SampleRate,
	}

	stream, err := portaudio.OpenStream(params, s.onInput)
	if err != nil {
		return nil, fmt.Errorf("%w: open stream on %q: %v", ErrAccessDenied, device.Name, err)
	}
	s.stream = stream

	if err := s.stream.Start(); err != nil {
		s.stream.Close()
		return nil, fmt.Errorf("%w: start stream on %q: %v", ErrAccessDenied, device.Name, err)
	}

	log.Infof("audio: capturing %q at %.0f Hz, %d channel(s), %d frames/buffer",
		device.Name, cfg.SampleRate, channels, cfg.FramesPerBuffer)

	return s, nil
}

// onInput is the capture callback. Hot path: pre-allocated buffers
// only, the single lock taken is the ring's copy-length critical
// section.
func (s *CaptureSource) onInput(in []float32) {
	if s.detached.Load() {
		return
	}
	if s.channels == 1 {
		s.ring.Write(in)
		return
	}

	frames := len(in) / s.channels
	if frames > len(s.mono) {
		frames = len(s.mono)
	}
	inv := 1 / float32(s.channels)
	for i := 0; i < frames; i++ {
		var sum float32
		base := i * s.channels
		for c := 0; c < s.channels; c++ {
			sum += in[base+c]
		}
		s.mono[i] = sum * inv
	}
	s.ring.Write(s.mono[:frames])
}

// SampleRate returns the configured stream rate in Hz.
func (s *CaptureSource) SampleRate() float64 { return s.sampleRate }

// Snapshot fills dst with the most recent mono samples. A detached
// capture serves zeros.
func (s *CaptureSource) Snapshot(dst []float32) int {
	if s.detached.Load() {
		for i := range dst {
			dst[i] = 0
		}
		return 0
	}
	return s.ring.Snapshot(dst)
}

// Detached reports whether the device has been released.
func (s *CaptureSource) Detached() bool { return s.detached.Load() }

// Device returns the resolved capture device.
func (s *CaptureSource) Device() Device { return s.device }

// Close stops the stream and releases the device. Afterwards the
// source is detached and snapshots are silent.
func (s *CaptureSource) Close() error {
	s.closeOnce.Do(func() {
		s.detached.Store(true)
		if s.stream != nil {
			if err := s.stream.Stop(); err != nil {
				s.closeErr = fmt.Errorf("stopping capture stream: %w", err)
			}
			if err := s.stream.Close(); err != nil && s.closeErr == nil {
				s.closeErr = fmt.Errorf("closing capture stream: %w", err)
			}
			s.stream = nil
		}
		s.ring.Reset()
		log.Debugf("audio: capture on %q released", s.device.Name)
	})
	return s.closeErr
}
