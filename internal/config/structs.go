//nolint:lll
package config

// Config is the complete configuration of the quadwarp tool. Values come from
// defaults, an optional quadwarp.yaml, QUADWARP_* environment variables and
// command-line flags, in increasing order of precedence.
type Config struct {
	// Global settings
	LogLevel string `mapstructure:"log_level" yaml:"log_level" json:"log_level"`
	Verbose  bool   `mapstructure:"verbose" yaml:"verbose" json:"verbose"`

	Solver SolverConfig `mapstructure:"solver" yaml:"solver" json:"solver"`
	Output OutputConfig `mapstructure:"output" yaml:"output" json:"output"`
	Warp   WarpConfig   `mapstructure:"warp" yaml:"warp" json:"warp"`
	Scene  SceneConfig  `mapstructure:"scene" yaml:"scene" json:"scene"`

	// Server configuration (for serve command)
	Server ServerConfig `mapstructure:"server" yaml:"server" json:"server"`
}

// SolverConfig tunes the linear solver.
type SolverConfig struct {
	// Tolerance is the relative pivot threshold; 0 means exact zero test.
	Tolerance float64 `mapstructure:"tolerance" yaml:"tolerance" json:"tolerance"`
}

// OutputConfig contains output formatting settings.
type OutputConfig struct {
	Format    string `mapstructure:"format" yaml:"format" json:"format"`
	Precision int    `mapstructure:"precision" yaml:"precision" json:"precision"`
	Language  string `mapstructure:"language" yaml:"language" json:"language"`
	File      string `mapstructure:"file" yaml:"file" json:"file"`
}

// WarpConfig contains raster warping settings.
type WarpConfig struct {
	OutputHeight    int    `mapstructure:"output_height" yaml:"output_height" json:"output_height"`
	Background      string `mapstructure:"background" yaml:"background" json:"background"`
	DebugDir        string `mapstructure:"debug_dir" yaml:"debug_dir" json:"debug_dir"`
	MaxOutputPixels int    `mapstructure:"max_output_pixels" yaml:"max_output_pixels" json:"max_output_pixels"`
}

// SceneConfig sizes the interactive canvas.
type SceneConfig struct {
	Width      int     `mapstructure:"width" yaml:"width" json:"width"`
	Height     int     `mapstructure:"height" yaml:"height" json:"height"`
	DragRadius float64 `mapstructure:"drag_radius" yaml:"drag_radius" json:"drag_radius"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host            string          `mapstructure:"host" yaml:"host" json:"host"`
	Port            int             `mapstructure:"port" yaml:"port" json:"port"`
	CORSOrigin      string          `mapstructure:"cors_origin" yaml:"cors_origin" json:"cors_origin"`
	MaxUploadMB     int             `mapstructure:"max_upload_mb" yaml:"max_upload_mb" json:"max_upload_mb"`
	TimeoutSec      int             `mapstructure:"timeout_sec" yaml:"timeout_sec" json:"timeout_sec"`
	ShutdownTimeout int             `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout" json:"shutdown_timeout"`
	RateLimit       RateLimitConfig `mapstructure:"rate_limit" yaml:"rate_limit" json:"rate_limit"`
}

// RateLimitConfig limits /v1/warp per client. Zero disables a limit.
type RateLimitConfig struct {
	Enabled           bool  `mapstructure:"enabled" yaml:"enabled" json:"enabled"`
	RequestsPerMinute int   `mapstructure:"requests_per_minute" yaml:"requests_per_minute" json:"requests_per_minute"`
	RequestsPerHour   int   `mapstructure:"requests_per_hour" yaml:"requests_per_hour" json:"requests_per_hour"`
	MaxRequestsPerDay int   `mapstructure:"max_requests_per_day" yaml:"max_requests_per_day" json:"max_requests_per_day"`
	MaxDataPerDayMB   int64 `mapstructure:"max_data_per_day_mb" yaml:"max_data_per_day_mb" json:"max_data_per_day_mb"`
}
