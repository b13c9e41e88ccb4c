package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/MeKo-Tech/quadwarp/internal/output"
	"github.com/MeKo-Tech/quadwarp/internal/warp"
)

const (
	infoLevel  = "info"
	debugLevel = "debug"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, infoLevel, cfg.LogLevel)
	assert.False(t, cfg.Verbose)
	assert.InDelta(t, 1e-12, cfg.Solver.Tolerance, 0)
	assert.Equal(t, "text", cfg.Output.Format)
	assert.Equal(t, 6, cfg.Output.Precision)
	assert.Equal(t, 1024, cfg.Warp.OutputHeight)
	assert.Equal(t, "transparent", cfg.Warp.Background)
	assert.InDelta(t, 10.0, cfg.Scene.DragRadius, 0)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.False(t, cfg.Server.RateLimit.Enabled)

	require.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"log level", func(c *Config) { c.LogLevel = "trace" }, "invalid log level"},
		{"output format", func(c *Config) { c.Output.Format = "xml" }, "invalid output format"},
		{"empty format allowed", func(c *Config) { c.Output.Format = "" }, ""},
		{"precision", func(c *Config) { c.Output.Precision = -1 }, "invalid output precision"},
		{"language", func(c *Config) { c.Output.Language = "!!" }, "invalid output language"},
		{"negative tolerance", func(c *Config) { c.Solver.Tolerance = -1 }, "invalid solver tolerance"},
		{"zero tolerance allowed", func(c *Config) { c.Solver.Tolerance = 0 }, ""},
		{"output height", func(c *Config) { c.Warp.OutputHeight = -5 }, "invalid warp output height"},
		{"output height above side limit", func(c *Config) { c.Warp.OutputHeight = 1 << 20 }, "invalid warp output height"},
		{"max output pixels", func(c *Config) { c.Warp.MaxOutputPixels = 0 }, "invalid warp max output pixels"},
		{"background", func(c *Config) { c.Warp.Background = "#12" }, "invalid warp background"},
		{"scene size", func(c *Config) { c.Scene.Width = 0 }, "invalid scene size"},
		{"drag radius", func(c *Config) { c.Scene.DragRadius = 0 }, "invalid scene drag radius"},
		{"port", func(c *Config) { c.Server.Port = 70000 }, "invalid server port"},
		{"upload", func(c *Config) { c.Server.MaxUploadMB = 0 }, "invalid max upload size"},
		{"timeout", func(c *Config) { c.Server.TimeoutSec = 0 }, "invalid timeout"},
		{"rate limit", func(c *Config) { c.Server.RateLimit.RequestsPerHour = -1 }, "invalid rate limit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestOutputOptions(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Output.Format = "JSON"
	cfg.Output.Precision = 3
	cfg.Output.Language = "de"

	opts := cfg.OutputOptions()
	assert.Equal(t, output.JSON, opts.Format)
	assert.Equal(t, 3, opts.Precision)
	assert.Equal(t, language.German, opts.Language)
}

func TestWarpOptions(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Warp.Background = "#ff0000"
	cfg.Warp.DebugDir = "/tmp/debug"

	opts := cfg.WarpOptions()
	assert.Equal(t, uint8(255), opts.Background.R)
	assert.Equal(t, uint8(255), opts.Background.A)
	assert.Equal(t, "/tmp/debug", opts.DebugDir)
	assert.Equal(t, warp.MaxOutputPixels, opts.MaxPixels)
	assert.Zero(t, opts.Width)
}

func TestSolverAndSceneOptions(t *testing.T) {
	cfg := DefaultConfig()
	assert.Len(t, cfg.SolverOptions(), 1)
	assert.Len(t, cfg.SceneOptions(), 2)
}

func TestValidate_ErrorListsChoices(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LogLevel = "loud"
	err := cfg.Validate()
	require.Error(t, err)
	assert.True(t, strings.HasSuffix(err.Error(), "(must be one of: debug, info, warn, error)"))
}
