package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"vizor/internal/config"
	"vizor/pkg/build"
)

// ParseArgs builds the command line, loads the configuration file and
// applies flag overrides on top of it. One-off subcommands are
// reported through the returned config's Command field; a nil config
// with a nil error means cobra already handled the invocation
// (--help, --version).
func ParseArgs() (*config.Config, error) {
	info := build.Resolve()
	def := config.Default()

	var (
		cfg        *config.Config
		configPath string
		deviceID   int
		sampleRate float64
		playFile   string
		wsAddress  string
		udpTarget  string
		outWindow  int
		inWindow   int
		fps        int
		seed       uint64
		verbose    bool
	)

	// load reads the file named by --config and folds the flags the
	// user actually set over it. Flag defaults never clobber file
	// values.
	load := func(cmd *cobra.Command) error {
		loaded, err := config.LoadConfig(configPath)
		if err != nil {
			return err
		}
		flags := cmd.Flags()
		if flags.Changed("device") {
			loaded.Audio.InputDevice = deviceID
		}
		if flags.Changed("sample-rate") {
			loaded.Audio.SampleRate = sampleRate
		}
		if flags.Changed("play") {
			loaded.Audio.PlaybackFile = playFile
		}
		if flags.Changed("ws-address") {
			loaded.Transport.WSAddress = wsAddress
			loaded.Transport.WSEnabled = true
		}
		if flags.Changed("udp-target") {
			loaded.Transport.UDPTargetAddress = udpTarget
			loaded.Transport.UDPEnabled = true
		}
		if flags.Changed("output-window") {
			loaded.Analyser.OutputWindow = outWindow
		}
		if flags.Changed("input-window") {
			loaded.Analyser.InputWindow = inWindow
		}
		if flags.Changed("fps") {
			loaded.Engine.FPS = fps
		}
		if flags.Changed("seed") {
			loaded.Scene.Seed = seed
		}
		if verbose {
			loaded.Debug = true
			loaded.LogLevel = "debug"
		}
		if err := loaded.Validate(); err != nil {
			return err
		}
		cfg = loaded
		return nil
	}

	rootCmd := &cobra.Command{
		Use:           info.Name,
		Short:         "Audio-reactive particle field, published over WebSocket and UDP",
		Version:       info.Version,
		SilenceErrors: true,
		SilenceUsage:  true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd:   true,
			DisableDescriptions: true,
			DisableNoDescFlag:   true,
			HiddenDefaultCmd:    true,
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return load(cmd)
		},
	}

	// Display help message
	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})

	// One-off commands run without a config file so a broken file
	// never blocks device inspection.
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List available audio devices",
		Run: func(cmd *cobra.Command, args []string) {
			cfg = config.Default()
			cfg.Command = "list"
		},
	}
	rootCmd.AddCommand(listCmd)

	devicesCmd := &cobra.Command{
		Use:   "devices",
		Short: "Pick a capture device interactively",
		Run: func(cmd *cobra.Command, args []string) {
			cfg = config.Default()
			cfg.Command = "devices"
		},
	}
	rootCmd.AddCommand(devicesCmd)

	// Audio source configuration
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "f", "",
		"Path to a YAML config file. Defaults to ./config.yaml if present.")
	rootCmd.PersistentFlags().IntVarP(&deviceID, "device", "d", def.Audio.InputDevice,
		"Input device ID. Use 'list' to see available devices, -1 for the system default.")
	rootCmd.PersistentFlags().Float64VarP(&sampleRate, "sample-rate", "s", def.Audio.SampleRate,
		"Capture sample rate, measured in Hertz (Hz)")
	rootCmd.PersistentFlags().StringVarP(&playFile, "play", "p", "",
		"Play a .wav or .mp3 file and visualize it instead of capturing")

	// Transport configuration
	rootCmd.PersistentFlags().StringVarP(&wsAddress, "ws-address", "w", def.Transport.WSAddress,
		"WebSocket listen address for frame broadcasts")
	rootCmd.PersistentFlags().StringVarP(&udpTarget, "udp-target", "u", def.Transport.UDPTargetAddress,
		"UDP target address for binary frame packets, enables UDP when set")

	// Analysis configuration
	rootCmd.PersistentFlags().IntVar(&outWindow, "output-window", def.Analyser.OutputWindow,
		"Analysis window for the visual path, a power of 2")
	rootCmd.PersistentFlags().IntVar(&inWindow, "input-window", def.Analyser.InputWindow,
		"Analysis window for the presence path, a power of 2")

	// Scene configuration
	rootCmd.PersistentFlags().IntVar(&fps, "fps", def.Engine.FPS,
		"Render loop tick rate")
	rootCmd.PersistentFlags().Uint64Var(&seed, "seed", def.Scene.Seed,
		"Particle layout seed, 0 picks the built-in default")

	// Debug configuration
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"Show verbose output")

	// Execute the CLI
	rootCmd.SetArgs(os.Args[1:])
	if err := rootCmd.Execute(); err != nil {
		return nil, err
	}

	return cfg, nil
}
