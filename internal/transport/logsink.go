package transport

import (
	"time"

	"vizor/internal/log"
	"vizor/internal/vis"
)

// LogSink prints rate-limited frame summaries. It is a debugging aid
// for running the engine with no display host attached.
type LogSink struct {
	interval time.Duration
	lastSend time.Duration
}

var _ vis.Sink = (*LogSink)(nil)

func NewLogSink(interval time.Duration) *LogSink {
	if interval <= 0 {
		interval = time.Second
	}
	return &LogSink{interval: interval, lastSend: -1 << 62}
}

func (s *LogSink) Publish(f *vis.Frame) error {
	if f.Now-s.lastSend < s.interval && f.Now >= s.lastSend {
		return nil
	}
	s.lastSend = f.Now

	log.Infof("frame %d: avg=%.3f high=%.3f presence=%.3f idle=%.2f bloom=%.2f trail=%.2f yaw=%.2f",
		f.Seq, f.Output.AvgEnergy, f.Output.HighBand, f.Presence,
		f.IdleFactor, f.Post.BloomStrength, f.Post.TrailDecay, f.CameraYaw)
	return nil
}
