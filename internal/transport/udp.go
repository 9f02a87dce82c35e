// SPDX-License-Identifier: MIT
package transport

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"time"

	"vizor/internal/config"
	"vizor/internal/log"
	"vizor/internal/scene"
	"vizor/internal/vis"
)

// maxPacketParticles caps the attribute payload so the datagram stays
// inside the 65507-byte UDP limit with the 50-byte header in front.
const maxPacketParticles = 2300

// UDPSink sends one binary packet per published frame, rate-limited
// on the frame clock. Unlike the WebSocket feed it carries the full
// particle attributes, for hosts that render the exact geometry.
//
// Packet layout, big endian:
//
//	offset  size  field
//	0       4     sequence number (uint32)
//	4       8     frame timestamp, host clock ns (int64)
//	12      36    scalars, 9 x float32: avg energy, high band,
//	              presence, idle factor, bloom strength, bloom
//	              radius, trail decay, camera yaw, aspect
//	48      2     particle count N (uint16)
//	50      N*28  particle attributes, N x 7 float32 [x y z size r g b]
type UDPSink struct {
	sender   *Sender
	interval time.Duration
	lastSend time.Duration
	seq      uint32
	packet   *bytes.Buffer
	scalars  [9]float32
}

var _ vis.Sink = (*UDPSink)(nil)

func NewUDPSink(cfg config.TransportConfig) (*UDPSink, error) {
	sender, err := NewSender(cfg.UDPTargetAddress)
	if err != nil {
		return nil, err
	}
	interval := cfg.UDPSendInterval.Std()
	if interval <= 0 {
		interval = 16 * time.Millisecond
		log.Warnf("udp: invalid send interval, defaulting to %s", interval)
	}
	return &UDPSink{
		sender:   sender,
		interval: interval,
		lastSend: -1 << 62,
		packet:   new(bytes.Buffer),
	}, nil
}

// Publish packs and sends the frame unless the rate limit says to
// skip. Send failures surface as errors so the engine counts the
// frame as dropped.
func (s *UDPSink) Publish(f *vis.Frame) error {
	if f.Now-s.lastSend < s.interval && f.Now >= s.lastSend {
		return nil
	}
	s.lastSend = f.Now

	s.seq++
	if err := s.pack(f); err != nil {
		return fmt.Errorf("udp: pack frame %d: %w", f.Seq, err)
	}
	return s.sender.Send(s.packet.Bytes())
}

func (s *UDPSink) pack(f *vis.Frame) error {
	count := len(f.Particles) / scene.Stride
	if count > maxPacketParticles {
		count = maxPacketParticles
	}

	s.scalars = [9]float32{
		float32(f.Output.AvgEnergy),
		float32(f.Output.HighBand),
		float32(f.Presence),
		float32(f.IdleFactor),
		float32(f.Post.BloomStrength),
		float32(f.Post.BloomRadius),
		float32(f.Post.TrailDecay),
		float32(f.CameraYaw),
		float32(f.Aspect),
	}

	s.packet.Reset()
	err := binary.Write(s.packet, binary.BigEndian, s.seq)
	if err == nil {
		err = binary.Write(s.packet, binary.BigEndian, int64(f.Now))
	}
	if err == nil {
		err = binary.Write(s.packet, binary.BigEndian, s.scalars[:])
	}
	if err == nil {
		err = binary.Write(s.packet, binary.BigEndian, uint16(count))
	}
	if err == nil {
		err = binary.Write(s.packet, binary.BigEndian, f.Particles[:count*scene.Stride])
	}
	return err
}

// Close shuts the underlying sender down.
func (s *UDPSink) Close() error { return s.sender.Close() }
