package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/MeKo-Tech/quadwarp/internal/config"
	"github.com/MeKo-Tech/quadwarp/internal/version"
)

// viperKey is the flag annotation naming the configuration key a flag
// overrides.
const viperKey = "viper_key"

// cli carries the state of one command invocation.
type cli struct {
	v       *viper.Viper
	loader  *config.Loader
	cfgFile string
	cfg     *config.Config
	log     *slog.Logger
}

// NewRootCommand builds the complete command tree with fresh state, so it
// can be executed repeatedly in one process.
func NewRootCommand() *cobra.Command {
	c := &cli{v: viper.New()}
	c.loader = config.NewLoaderWithViper(c.v)

	rootCmd := &cobra.Command{
		Use:   "quadwarp",
		Short: "Four-point homography estimation and perspective warping",
		Long: `quadwarp estimates the planar homography that maps one quadrilateral onto
another and applies it to points and images.

This tool provides:
- Homography estimation from four point correspondences
- Forward and inverse point mapping
- Perspective rectification of images
- A headless corner-drag scene renderer
- An HTTP and WebSocket server

Examples:
  quadwarp estimate --src "0,0 100,0 100,100 0,100" --dst "10,10 90,5 95,95 5,90"
  quadwarp map --src "0,0 1,0 1,1 0,1" --dst "0,0 2,0 2,2 0,2" 0.5,0.5
  quadwarp warp photo.jpg --corners "12,40 610,22 630,470 5,455" -o page.png
  quadwarp serve --port 8080`,
		Version:       version.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.init(cmd)
		},
	}

	rootCmd.PersistentFlags().StringVar(&c.cfgFile, "config", "",
		"config file (default is search in ., $HOME, $HOME/.config/quadwarp, /etc/quadwarp)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output (equivalent to --log-level=debug)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Float64("tolerance", 0, "relative pivot tolerance of the solver")
	bindFlag(rootCmd.PersistentFlags(), "verbose", "verbose")
	bindFlag(rootCmd.PersistentFlags(), "log-level", "log_level")
	bindFlag(rootCmd.PersistentFlags(), "tolerance", "solver.tolerance")

	rootCmd.AddCommand(
		newEstimateCommand(c),
		newMapCommand(c),
		newWarpCommand(c),
		newRenderCommand(c),
		newServeCommand(c),
		newConfigCommand(c),
		newBenchCommand(c),
	)
	return rootCmd
}

// Execute runs the command line and exits non-zero on failure.
func Execute() {
	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		_, _ = fmt.Fprintln(rootCmd.ErrOrStderr(), "Error:", err)
		os.Exit(1)
	}
}

// GetRootCommand returns a fresh root command for testing purposes.
// This allows tests to execute commands without calling os.Exit().
func GetRootCommand() *cobra.Command {
	return NewRootCommand()
}

// bindFlag marks flag as the command-line override of a configuration key.
func bindFlag(fs *pflag.FlagSet, flag, key string) {
	if err := fs.SetAnnotation(flag, viperKey, []string{key}); err != nil {
		panic(err)
	}
}

// init binds the flags of the running command, loads the configuration and
// installs the logger.
func (c *cli) init(cmd *cobra.Command) error {
	var bindErr error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if keys := f.Annotations[viperKey]; len(keys) > 0 && bindErr == nil {
			bindErr = c.v.BindPFlag(keys[0], f)
		}
	})
	if bindErr != nil {
		return bindErr
	}

	cfg, err := c.loader.LoadWithFile(c.cfgFile)
	if err != nil {
		return fmt.Errorf("error loading configuration: %w", err)
	}
	c.cfg = cfg

	c.log = newLogger(cmd.ErrOrStderr(), cfg)
	slog.SetDefault(c.log)
	return nil
}

// newLogger builds the JSON logger for the configured level; verbose wins.
func newLogger(w io.Writer, cfg *config.Config) *slog.Logger {
	var level slog.Level
	switch {
	case cfg.Verbose:
		level = slog.LevelDebug
	case cfg.LogLevel == "debug":
		level = slog.LevelDebug
	case cfg.LogLevel == "warn":
		level = slog.LevelWarn
	case cfg.LogLevel == "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

// outputWriter returns the configured output file or the command's stdout.
// The returned close function is always safe to call.
func (c *cli) outputWriter(cmd *cobra.Command) (io.Writer, func() error, error) {
	if c.cfg.Output.File == "" {
		return cmd.OutOrStdout(), func() error { return nil }, nil
	}
	f, err := os.Create(c.cfg.Output.File)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, f.Close, nil
}
