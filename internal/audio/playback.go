package audio

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ebitengine/oto/v3"
	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"

	"vizor/internal/config"
	"vizor/internal/log"
)

const (
	playbackChannels  = 2
	playbackBitDepth  = 2 // 16-bit samples.
	playbackFrameSize = playbackChannels * playbackBitDepth
)

// oto allows one context per process, so it is created once with the
// rate of the first file opened.
var (
	globalOtoCtx *oto.Context
	otoOnce      sync.Once
	otoInitErr   error
)

func otoContext(sampleRate int) (*oto.Context, error) {
	otoOnce.Do(func() {
		op := &oto.NewContextOptions{
			SampleRate:   sampleRate,
			ChannelCount: playbackChannels,
			Format:       oto.FormatSignedInt16LE,
		}
		var ready chan struct{}
		globalOtoCtx, ready, otoInitErr = oto.NewContext(op)
		if otoInitErr == nil {
			<-ready
		}
	})
	return globalOtoCtx, otoInitErr
}

// tapReader sits between the decoder and the player. Every PCM frame
// the player pulls is mirrored into the ring as a mono sample, so the
// analyser sees exactly what is being heard.
type tapReader struct {
	src    io.Reader
	ring   *Ring
	mono   []float32
	carry  [playbackFrameSize]byte
	nCarry int
	onEOF  func()
}

func (t *tapReader) Read(p []byte) (int, error) {
	n, err := t.src.Read(p)
	if n > 0 {
		t.feed(p[:n])
	}
	if err == io.EOF && t.onEOF != nil {
		t.onEOF()
		t.onEOF = nil
	}
	return n, err
}

// feed converts interleaved stereo s16le bytes to mono float32 and
// writes them to the ring. Frames split across Read calls are carried
// over.
func (t *tapReader) feed(b []byte) {
	for len(b) > 0 {
		if t.nCarry > 0 || len(b) < playbackFrameSize {
			// Complete a partial frame byte by byte.
			take := playbackFrameSize - t.nCarry
			if take > len(b) {
				take = len(b)
			}
			copy(t.carry[t.nCarry:], b[:take])
			t.nCarry += take
			b = b[take:]
			if t.nCarry < playbackFrameSize {
				return
			}
			t.nCarry = 0
			t.ring.Write(t.mono[:monoFrames(t.carry[:], t.mono[:1])])
			continue
		}

		frames := len(b) / playbackFrameSize
		if frames > len(t.mono) {
			frames = len(t.mono)
		}
		used := frames * playbackFrameSize
		t.ring.Write(t.mono[:monoFrames(b[:used], t.mono)])
		b = b[used:]
	}
}

// monoFrames decodes s16le stereo frames from b into mono samples in
// dst and returns the frame count.
func monoFrames(b []byte, dst []float32) int {
	frames := len(b) / playbackFrameSize
	if frames > len(dst) {
		frames = len(dst)
	}
	for i := 0; i < frames; i++ {
		off := i * playbackFrameSize
		l := int16(uint16(b[off]) | uint16(b[off+1])<<8)
		r := int16(uint16(b[off+2]) | uint16(b[off+3])<<8)
		dst[i] = (float32(l) + float32(r)) / (2 * 32768)
	}
	return frames
}

// PlaybackSource plays a WAV or MP3 file through the system output
// and exposes the decoded stream to the analyser.
type PlaybackSource struct {
	path       string
	file       *os.File
	player     *oto.Player
	ring       *Ring
	sampleRate float64
	duration   time.Duration

	detached  atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

var _ Source = (*PlaybackSource)(nil)

// OpenPlayback decodes path and starts playing it. The format is
// picked by extension, anything but .wav and .mp3 is rejected with
// ErrUnsupportedFormat.
func OpenPlayback(path string) (*PlaybackSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening playback file: %w", err)
	}

	var (
		pcm      io.Reader
		rate     int
		pcmBytes int64
		keepFile bool
	)

	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3":
		dec, derr := mp3.NewDecoder(f)
		if derr != nil {
			f.Close()
			return nil, fmt.Errorf("decoding %s: %w", path, derr)
		}
		// go-mp3 always yields stereo s16le at the decoder rate.
		pcm = dec
		rate = dec.SampleRate()
		pcmBytes = dec.Length()
		keepFile = true
	case ".wav":
		pcm, rate, pcmBytes, err = decodeWAV(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("decoding %s: %w", path, err)
		}
	default:
		f.Close()
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}

	ctx, err := otoContext(rate)
	if err != nil {
		if keepFile {
			f.Close()
		}
		return nil, fmt.Errorf("opening audio output: %w", err)
	}

	s := &PlaybackSource{
		path:       path,
		ring:       NewRing(config.MaxWindowSize),
		sampleRate: float64(rate),
	}
	if keepFile {
		s.file = f
	}
	if pcmBytes > 0 {
		secs := float64(pcmBytes) / float64(rate*playbackFrameSize)
		s.duration = time.Duration(secs * float64(time.Second))
	}

	tap := &tapReader{
		src:   pcm,
		ring:  s.ring,
		mono:  make([]float32, 4096),
		onEOF: func() { s.detached.Store(true) },
	}

	s.player = ctx.NewPlayer(tap)
	s.player.Play()

	log.Infof("audio: playing %q at %d Hz (%s)", filepath.Base(path), rate, s.duration.Round(time.Second))

	return s, nil
}

// decodeWAV reads the whole file into an interleaved stereo s16le
// buffer. WAV files small enough to visualize fit in memory, and a
// flat buffer makes the tap trivial.
func decodeWAV(f *os.File) (io.Reader, int, int64, error) {
	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, 0, 0, ErrUnsupportedFormat
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, 0, 0, fmt.Errorf("reading PCM: %w", err)
	}
	if buf.Format == nil || buf.Format.NumChannels < 1 {
		return nil, 0, 0, ErrUnsupportedFormat
	}

	chans := buf.Format.NumChannels
	frames := len(buf.Data) / chans
	pcm := make([]byte, frames*playbackFrameSize)

	for i := 0; i < frames; i++ {
		l := sampleToS16(buf.Data[i*chans], int(dec.BitDepth))
		r := l
		if chans > 1 {
			r = sampleToS16(buf.Data[i*chans+1], int(dec.BitDepth))
		}
		off := i * playbackFrameSize
		pcm[off] = byte(l)
		pcm[off+1] = byte(uint16(l) >> 8)
		pcm[off+2] = byte(r)
		pcm[off+3] = byte(uint16(r) >> 8)
	}

	return bytes.NewReader(pcm), buf.Format.SampleRate, int64(len(pcm)), nil
}

// sampleToS16 rescales a decoded integer sample to 16 bits.
func sampleToS16(v, bitDepth int) int16 {
	switch {
	case bitDepth == 8:
		// 8-bit WAV is unsigned.
		return int16((v - 128) << 8)
	case bitDepth > 16:
		return int16(v >> (bitDepth - 16))
	case bitDepth < 16 && bitDepth > 0:
		return int16(v << (16 - bitDepth))
	default:
		return int16(v)
	}
}

// SampleRate returns the decoded stream rate in Hz.
func (s *PlaybackSource) SampleRate() float64 { return s.sampleRate }

// Snapshot fills dst with the most recent decoded mono samples. A
// finished or closed playback serves zeros.
func (s *PlaybackSource) Snapshot(dst []float32) int {
	if s.detached.Load() {
		for i := range dst {
			dst[i] = 0
		}
		return 0
	}
	return s.ring.Snapshot(dst)
}

// Detached reports whether playback has ended or been closed.
func (s *PlaybackSource) Detached() bool { return s.detached.Load() }

// Duration returns the track length, zero when unknown.
func (s *PlaybackSource) Duration() time.Duration { return s.duration }

// Path returns the playback file path.
func (s *PlaybackSource) Path() string { return s.path }

// Close stops playback and releases the file.
func (s *PlaybackSource) Close() error {
	s.closeOnce.Do(func() {
		s.detached.Store(true)
		if s.player != nil {
			if err := s.player.Close(); err != nil {
				s.closeErr = fmt.Errorf("closing player: %w", err)
			}
		}
		if s.file != nil {
			if err := s.file.Close(); err != nil && s.closeErr == nil {
				s.closeErr = fmt.Errorf("closing playback file: %w", err)
			}
		}
		s.ring.Reset()
		log.Debugf("audio: playback of %q closed", filepath.Base(s.path))
	})
	return s.closeErr
}
