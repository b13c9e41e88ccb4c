package config

import (
	"fmt"
	"slices"
	"strings"

	"golang.org/x/text/language"

	"github.com/MeKo-Tech/quadwarp/internal/output"
	"github.com/MeKo-Tech/quadwarp/internal/scene"
	"github.com/MeKo-Tech/quadwarp/internal/solver"
	"github.com/MeKo-Tech/quadwarp/internal/warp"
)

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() Config {
	return Config{
		LogLevel: "info",
		Verbose:  false,
		Solver: SolverConfig{
			Tolerance: solver.DefaultTolerance,
		},
		Output: OutputConfig{
			Format:    string(output.Text),
			Precision: 6,
			Language:  "en",
		},
		Warp: WarpConfig{
			OutputHeight:    warp.DefaultOutputHeight,
			Background:      "transparent",
			MaxOutputPixels: warp.MaxOutputPixels,
		},
		Scene: SceneConfig{
			Width:      1024,
			Height:     768,
			DragRadius: scene.DragRadius,
		},
		Server: ServerConfig{
			Host:            "localhost",
			Port:            8080,
			CORSOrigin:      "*",
			MaxUploadMB:     50,
			TimeoutSec:      30,
			ShutdownTimeout: 10,
			RateLimit: RateLimitConfig{
				Enabled:           false,
				RequestsPerMinute: 60,
				RequestsPerHour:   1000,
				MaxRequestsPerDay: 5000,
				MaxDataPerDayMB:   1024,
			},
		},
	}
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	validLogLevels := []string{"debug", "info", "warn", "error"}
	if !slices.Contains(validLogLevels, c.LogLevel) {
		return fmt.Errorf("invalid log level: %s (must be one of: %s)", c.LogLevel, strings.Join(validLogLevels, ", "))
	}

	if c.Output.Format != "" {
		if _, err := output.ParseFormat(c.Output.Format); err != nil {
			return err
		}
	}
	if c.Output.Precision < 0 || c.Output.Precision > 17 {
		return fmt.Errorf("invalid output precision: %d (must be between 0 and 17)", c.Output.Precision)
	}
	if c.Output.Language != "" {
		if _, err := language.Parse(c.Output.Language); err != nil {
			return fmt.Errorf("invalid output language: %s: %w", c.Output.Language, err)
		}
	}

	if c.Solver.Tolerance < 0 || c.Solver.Tolerance >= 1 {
		return fmt.Errorf("invalid solver tolerance: %g (must be in [0, 1))", c.Solver.Tolerance)
	}

	if c.Warp.OutputHeight < 0 || c.Warp.OutputHeight > warp.MaxOutputSide {
		return fmt.Errorf("invalid warp output height: %d (must be in [0, %d])", c.Warp.OutputHeight, warp.MaxOutputSide)
	}
	if c.Warp.MaxOutputPixels <= 0 {
		return fmt.Errorf("invalid warp max output pixels: %d (must be positive)", c.Warp.MaxOutputPixels)
	}
	if _, err := warp.ParseColor(c.Warp.Background); err != nil {
		return fmt.Errorf("invalid warp background: %w", err)
	}

	if c.Scene.Width <= 0 || c.Scene.Height <= 0 {
		return fmt.Errorf("invalid scene size: %dx%d (must be positive)", c.Scene.Width, c.Scene.Height)
	}
	if c.Scene.DragRadius <= 0 {
		return fmt.Errorf("invalid scene drag radius: %g (must be positive)", c.Scene.DragRadius)
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d (must be between 1 and 65535)", c.Server.Port)
	}
	if c.Server.MaxUploadMB <= 0 {
		return fmt.Errorf("invalid max upload size: %d (must be positive)", c.Server.MaxUploadMB)
	}
	if c.Server.TimeoutSec <= 0 {
		return fmt.Errorf("invalid timeout: %d (must be positive)", c.Server.TimeoutSec)
	}
	rl := c.Server.RateLimit
	if rl.RequestsPerMinute < 0 || rl.RequestsPerHour < 0 || rl.MaxRequestsPerDay < 0 || rl.MaxDataPerDayMB < 0 {
		return fmt.Errorf("invalid rate limit: limits must not be negative")
	}

	return nil
}

// OutputOptions converts the output section for the output package.
func (c *Config) OutputOptions() output.Options {
	opts := output.DefaultOptions()
	if c.Output.Format != "" {
		opts.Format = output.Format(strings.ToLower(c.Output.Format))
	}
	opts.Precision = c.Output.Precision
	if tag, err := language.Parse(c.Output.Language); err == nil {
		opts.Language = tag
	}
	return opts
}

// WarpOptions converts the warp section. An unparsable background falls back
// to transparent; Validate reports it.
func (c *Config) WarpOptions() warp.Options {
	bg, _ := warp.ParseColor(c.Warp.Background)
	return warp.Options{Background: bg, DebugDir: c.Warp.DebugDir, MaxPixels: c.Warp.MaxOutputPixels}
}

// SolverOptions returns the solver options for estimation.
func (c *Config) SolverOptions() []solver.Option {
	return []solver.Option{solver.WithTolerance(c.Solver.Tolerance)}
}

// SceneOptions returns the options for scene.New.
func (c *Config) SceneOptions() []scene.Option {
	return []scene.Option{
		scene.WithDragRadius(c.Scene.DragRadius),
		scene.WithTolerance(c.Solver.Tolerance),
	}
}
