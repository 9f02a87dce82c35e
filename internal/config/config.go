package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"vizor/internal/log"
	"vizor/pkg/bitint"
)

// Hardware and processing limits.
const (
	MinDeviceID   = -1 // -1 represents the system default device.
	MinWindowSize = 32
	MaxWindowSize = 32768
	MinSampleRate = 8000
	MaxSampleRate = 192000
)

// Duration wraps time.Duration so YAML files can carry human-readable
// values like "250ms" or "3s". Bare numbers are read as milliseconds.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err == nil {
		parsed, perr := time.ParseDuration(s)
		if perr != nil {
			return fmt.Errorf("invalid duration %q: %w", s, perr)
		}
		*d = Duration(parsed)
		return nil
	}
	var ms int64
	if err := value.Decode(&ms); err != nil {
		return fmt.Errorf("invalid duration value: %w", err)
	}
	*d = Duration(time.Duration(ms) * time.Millisecond)
	return nil
}

func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config is the main application configuration, loaded from YAML.
type Config struct {
	Debug     bool            `yaml:"debug"`     // Verbose logging and frame diagnostics.
	LogLevel  string          `yaml:"log_level"` // "debug", "info", "warn", "error".
	Audio     AudioConfig     `yaml:"audio"`
	Analyser  AnalyserConfig  `yaml:"analyser"`
	Idle      IdleConfig      `yaml:"idle"`
	Scene     SceneConfig     `yaml:"scene"`
	Post      PostConfig      `yaml:"post"`
	Engine    EngineConfig    `yaml:"engine"`
	Transport TransportConfig `yaml:"transport"`

	// Command is the one-off subcommand picked on the command line,
	// empty when the engine should run. Never read from the file.
	Command string `yaml:"-"`
}

// AudioConfig holds capture and playback settings.
type AudioConfig struct {
	InputDevice     int     `yaml:"input_device"`      // PortAudio device index, -1 for default.
	SampleRate      float64 `yaml:"sample_rate"`       // Hz, e.g. 44100 or 48000.
	FramesPerBuffer int     `yaml:"frames_per_buffer"` // Frames per capture callback.
	InputChannels   int     `yaml:"input_channels"`    // Captured channels, mixed down to mono.
	LowLatency      bool    `yaml:"low_latency"`       // Request low latency from PortAudio.
	PlaybackFile    string  `yaml:"playback_file"`     // Optional wav/mp3 to play and visualize.
}

// AnalyserConfig holds the frequency and time-domain snapshot settings.
type AnalyserConfig struct {
	OutputWindow int     `yaml:"output_window"` // FFT window for the playback path, power of 2.
	InputWindow  int     `yaml:"input_window"`  // FFT window for the capture path, power of 2.
	Smoothing    float64 `yaml:"smoothing"`     // Per-bin exponential smoothing in [0,1).
	MinDB        float64 `yaml:"min_db"`        // Magnitudes at or below map to byte 0.
	MaxDB        float64 `yaml:"max_db"`        // Magnitudes at or above map to byte 255.
}

// IdleConfig controls the presence detector and the idle fade.
type IdleConfig struct {
	Threshold float64  `yaml:"threshold"` // Presence above this counts as activity.
	Delay     Duration `yaml:"delay"`     // Quiet time before the fade starts.
	Fade      Duration `yaml:"fade"`      // Fade duration from full to idle.
}

// SceneConfig shapes the particle field and backdrop.
type SceneConfig struct {
	Particles         int     `yaml:"particles"`          // Field size, fixed for the engine lifetime.
	Radius            float64 `yaml:"radius"`             // Sphere radius for base positions.
	DisplacementScale float64 `yaml:"displacement_scale"` // Radial offset per unit of bin energy.
	SizeFloor         float64 `yaml:"size_floor"`         // Minimum point size.
	SizeGain          float64 `yaml:"size_gain"`          // Point size added per unit of bin energy.
	RotateGain        float64 `yaml:"rotate_gain"`        // Camera rad/s at full presence.
	BackdropCount     int     `yaml:"backdrop_count"`     // Background flicker points.
	Seed              uint64  `yaml:"seed"`               // Field layout seed, 0 picks a fixed default.
}

// PostConfig carries the post-processing response curves.
type PostConfig struct {
	BloomBase  float64 `yaml:"bloom_base"`  // Bloom strength floor.
	BloomGain  float64 `yaml:"bloom_gain"`  // Bloom strength per unit average energy.
	RadiusBase float64 `yaml:"radius_base"` // Bloom radius floor.
	RadiusGain float64 `yaml:"radius_gain"` // Bloom radius per unit high-band energy.
	TrailQuiet float64 `yaml:"trail_quiet"` // Afterimage decay at silence.
	TrailLoud  float64 `yaml:"trail_loud"`  // Afterimage decay at full energy.
}

// EngineConfig holds the render loop settings.
type EngineConfig struct {
	FPS    int `yaml:"fps"`    // Target tick rate.
	Width  int `yaml:"width"`  // Initial viewport width in pixels.
	Height int `yaml:"height"` // Initial viewport height in pixels.
}

// TransportConfig holds settings for publishing frames off the engine.
type TransportConfig struct {
	WSEnabled        bool     `yaml:"ws_enabled"`         // Serve frames as JSON over WebSocket.
	WSAddress        string   `yaml:"ws_address"`         // Listen address, e.g. ":8080".
	WSInterval       Duration `yaml:"ws_interval"`        // Minimum time between broadcasts.
	UDPEnabled       bool     `yaml:"udp_enabled"`        // Send binary frame packets over UDP.
	UDPTargetAddress string   `yaml:"udp_target_address"` // Target address, e.g. "127.0.0.1:9090".
	UDPSendInterval  Duration `yaml:"udp_send_interval"`  // Interval between UDP packets.
	LogFrames        bool     `yaml:"log_frames"`         // Log frame summaries, debug aid.
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Debug:    false,
		LogLevel: "info",
		Audio: AudioConfig{
			InputDevice:     MinDeviceID,
			SampleRate:      44100,
			FramesPerBuffer: 1024,
			InputChannels:   1,
			LowLatency:      false,
			PlaybackFile:    "",
		},
		Analyser: AnalyserConfig{
			OutputWindow: 512,
			InputWindow:  128,
			Smoothing:    0.8,
			MinDB:        -100,
			MaxDB:        -30,
		},
		Idle: IdleConfig{
			Threshold: 0.01,
			Delay:     Duration(3 * time.Second),
			Fade:      Duration(2 * time.Second),
		},
		Scene: SceneConfig{
			Particles:         2048,
			Radius:            16,
			DisplacementScale: 6,
			SizeFloor:         1.5,
			SizeGain:          3.5,
			RotateGain:        2.4,
			BackdropCount:     512,
			Seed:              0,
		},
		Post: PostConfig{
			BloomBase:  0.4,
			BloomGain:  1.1,
			RadiusBase: 0.3,
			RadiusGain: 0.5,
			TrailQuiet: 0.82,
			TrailLoud:  0.96,
		},
		Engine: EngineConfig{
			FPS:    60,
			Width:  1280,
			Height: 720,
		},
		Transport: TransportConfig{
			WSEnabled:        true,
			WSAddress:        ":8080",
			WSInterval:       Duration(33 * time.Millisecond),
			UDPEnabled:       false,
			UDPTargetAddress: "127.0.0.1:9090",
			UDPSendInterval:  Duration(33 * time.Millisecond),
			LogFrames:        false,
		},
	}
}

// LoadConfig loads configuration from a YAML file. An empty path
// searches default locations ("config.yaml", "vizor.yaml") and falls
// back to built-in defaults when nothing is found. Environment
// overrides apply after the file, then the result is validated.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		candidates := []string{"config.yaml", "vizor.yaml"}
		for _, candidate := range candidates {
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				break
			}
		}
		if path == "" {
			cfg.applyEnvOverrides()
			if err := cfg.Validate(); err != nil {
				return nil, fmt.Errorf("invalid default configuration: %w", err)
			}
			return cfg, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate rejects configurations the engine cannot run with. It
// reports the first problem found, named by its YAML path.
func (c *Config) Validate() error {
	if c.Audio.SampleRate < MinSampleRate || c.Audio.SampleRate > MaxSampleRate {
		return fmt.Errorf("audio.sample_rate must be in [%d, %d], got %v",
			MinSampleRate, MaxSampleRate, c.Audio.SampleRate)
	}
	if c.Audio.FramesPerBuffer <= 0 {
		return fmt.Errorf("audio.frames_per_buffer must be positive, got %d", c.Audio.FramesPerBuffer)
	}
	if c.Audio.InputChannels < 1 {
		return fmt.Errorf("audio.input_channels must be at least 1, got %d", c.Audio.InputChannels)
	}
	if c.Audio.InputDevice < MinDeviceID {
		return fmt.Errorf("audio.input_device must be %d or a device index, got %d",
			MinDeviceID, c.Audio.InputDevice)
	}

	for name, w := range map[string]int{
		"analyser.output_window": c.Analyser.OutputWindow,
		"analyser.input_window":  c.Analyser.InputWindow,
	} {
		if !bitint.IsPowerOfTwo(w) || w < MinWindowSize || w > MaxWindowSize {
			return fmt.Errorf("%s must be a power of 2 in [%d, %d], got %d",
				name, MinWindowSize, MaxWindowSize, w)
		}
	}
	if c.Analyser.Smoothing < 0 || c.Analyser.Smoothing >= 1 {
		return fmt.Errorf("analyser.smoothing must be in [0, 1), got %v", c.Analyser.Smoothing)
	}
	if c.Analyser.MinDB >= c.Analyser.MaxDB {
		return fmt.Errorf("analyser.min_db (%v) must be below analyser.max_db (%v)",
			c.Analyser.MinDB, c.Analyser.MaxDB)
	}

	if c.Idle.Threshold < 0 || c.Idle.Threshold > 1 {
		return fmt.Errorf("idle.threshold must be in [0, 1], got %v", c.Idle.Threshold)
	}
	if c.Idle.Delay < 0 {
		return fmt.Errorf("idle.delay must not be negative, got %v", c.Idle.Delay.Std())
	}
	if c.Idle.Fade <= 0 {
		return fmt.Errorf("idle.fade must be positive, got %v", c.Idle.Fade.Std())
	}

	if c.Scene.Particles <= 0 {
		return fmt.Errorf("scene.particles must be positive, got %d", c.Scene.Particles)
	}
	if c.Scene.Radius <= 0 {
		return fmt.Errorf("scene.radius must be positive, got %v", c.Scene.Radius)
	}
	if c.Scene.BackdropCount < 0 {
		return fmt.Errorf("scene.backdrop_count must not be negative, got %d", c.Scene.BackdropCount)
	}

	if c.Post.TrailQuiet < 0 || c.Post.TrailQuiet >= 1 ||
		c.Post.TrailLoud < 0 || c.Post.TrailLoud >= 1 {
		return fmt.Errorf("post.trail_quiet and post.trail_loud must be in [0, 1), got %v and %v",
			c.Post.TrailQuiet, c.Post.TrailLoud)
	}

	if c.Engine.FPS <= 0 {
		return fmt.Errorf("engine.fps must be positive, got %d", c.Engine.FPS)
	}
	if c.Engine.Width <= 0 || c.Engine.Height <= 0 {
		return fmt.Errorf("engine.width and engine.height must be positive, got %dx%d",
			c.Engine.Width, c.Engine.Height)
	}

	if c.Transport.WSEnabled && c.Transport.WSAddress == "" {
		return fmt.Errorf("transport.ws_address must be set when WebSocket transport is enabled")
	}
	if c.Transport.UDPEnabled {
		if c.Transport.UDPTargetAddress == "" {
			return fmt.Errorf("transport.udp_target_address must be set when UDP is enabled")
		}
		if c.Transport.UDPSendInterval <= 0 {
			return fmt.Errorf("transport.udp_send_interval must be positive when UDP is enabled")
		}
	}

	return nil
}

// applyEnvOverrides lets VIZOR_* environment variables override the
// loaded file, which keeps container deployments free of config
// mounts. Unparseable values are ignored with a warning.
func (cfg *Config) applyEnvOverrides() {
	if val, ok := os.LookupEnv("VIZOR_DEBUG"); ok {
		if bVal, err := strconv.ParseBool(val); err == nil {
			cfg.Debug = bVal
			log.Debugf("configuration: overriding debug from env: %v", bVal)
		} else {
			log.Warnf("configuration: ignoring VIZOR_DEBUG=%q: %v", val, err)
		}
	}
	if val, ok := os.LookupEnv("VIZOR_LOG_LEVEL"); ok {
		cfg.LogLevel = val
		log.Debugf("configuration: overriding log_level from env: %s", val)
	}
	if val, ok := os.LookupEnv("VIZOR_INPUT_DEVICE"); ok {
		if iVal, err := strconv.Atoi(val); err == nil {
			cfg.Audio.InputDevice = iVal
			log.Debugf("configuration: overriding audio.input_device from env: %d", iVal)
		} else {
			log.Warnf("configuration: ignoring VIZOR_INPUT_DEVICE=%q: %v", val, err)
		}
	}
	if val, ok := os.LookupEnv("VIZOR_PLAYBACK_FILE"); ok {
		cfg.Audio.PlaybackFile = val
		log.Debugf("configuration: overriding audio.playback_file from env: %s", val)
	}
	if val, ok := os.LookupEnv("VIZOR_WS_ADDRESS"); ok {
		cfg.Transport.WSAddress = val
		log.Debugf("configuration: overriding transport.ws_address from env: %s", val)
	}
	if val, ok := os.LookupEnv("VIZOR_UDP_ENABLED"); ok {
		if bVal, err := strconv.ParseBool(val); err == nil {
			cfg.Transport.UDPEnabled = bVal
			log.Debugf("configuration: overriding transport.udp_enabled from env: %v", bVal)
		} else {
			log.Warnf("configuration: ignoring VIZOR_UDP_ENABLED=%q: %v", val, err)
		}
	}
	if val, ok := os.LookupEnv("VIZOR_UDP_TARGET_ADDRESS"); ok {
		cfg.Transport.UDPTargetAddress = val
		log.Debugf("configuration: overriding transport.udp_target_address from env: %s", val)
	}
	if val, ok := os.LookupEnv("VIZOR_UDP_SEND_INTERVAL"); ok {
		if dur, err := time.ParseDuration(val); err == nil {
			cfg.Transport.UDPSendInterval = Duration(dur)
			log.Debugf("configuration: overriding transport.udp_send_interval from env: %s", dur)
		} else {
			log.Warnf("configuration: ignoring VIZOR_UDP_SEND_INTERVAL=%q: %v", val, err)
		}
	}
}
