package server

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MeKo-Tech/quadwarp/internal/homography"
	"github.com/MeKo-Tech/quadwarp/internal/output"
	"github.com/MeKo-Tech/quadwarp/internal/scene"
	"github.com/MeKo-Tech/quadwarp/internal/solver"
	"github.com/MeKo-Tech/quadwarp/internal/warp"
)

// Server holds the HTTP server state and dependencies. It keeps no per-request
// state; WebSocket sessions own their Scene.
type Server struct {
	corsOrigin   string
	maxUploadMB  int64
	timeoutSec   int
	rateLimiter  *RateLimiter
	solverOpts   []solver.Option
	sceneWidth   int
	sceneHeight  int
	sceneOpts    []scene.Option
	warpOpts     warp.Options
	outputHeight int
	log          *slog.Logger
}

// Config holds server configuration.
type Config struct {
	Host        string
	Port        int
	CORSOrigin  string
	MaxUploadMB int64
	TimeoutSec  int

	SolverOptions []solver.Option
	SceneWidth    int
	SceneHeight   int
	SceneOptions  []scene.Option
	Warp          warp.Options
	OutputHeight  int

	RateLimit RateLimitConfig
	Logger    *slog.Logger
}

// RateLimitConfig enables per-client limits on /v1/warp. Zero disables a limit.
type RateLimitConfig struct {
	Enabled           bool
	RequestsPerMinute int
	RequestsPerHour   int
	MaxRequestsPerDay int
	MaxDataPerDay     int64 // bytes
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
	Time    string `json:"time"`
}

// EstimateRequest carries four or more correspondences; only the first four
// are used.
type EstimateRequest struct {
	Source      []homography.Point `json:"source"`
	Destination []homography.Point `json:"destination"`
}

// EstimateResponse returns the homography in every layout.
type EstimateResponse struct {
	Success bool                 `json:"success"`
	Matrix  *output.MatrixReport `json:"matrix,omitempty"`
	Error   string               `json:"error,omitempty"`
}

// MapRequest maps points through a homography. The matrix is either given
// directly (column-major) or estimated from Source/Destination.
type MapRequest struct {
	Matrix      *[16]float64       `json:"matrix,omitempty"`
	Source      []homography.Point `json:"source,omitempty"`
	Destination []homography.Point `json:"destination,omitempty"`
	Points      []homography.Point `json:"points"`
	Inverse     bool               `json:"inverse,omitempty"`
}

// MapResponse lists one mapping per input point; points that map to
// infinity carry an error instead of an output.
type MapResponse struct {
	Success  bool             `json:"success"`
	Matrix   *[16]float64     `json:"matrix,omitempty"`
	Mappings []output.Mapping `json:"mappings,omitempty"`
	Error    string           `json:"error,omitempty"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Success   bool   `json:"success"`
	Error     string `json:"error"`
	ErrorType string `json:"error_type,omitempty"`
}

// NewServer creates a server from config.
func NewServer(config Config) *Server {
	s := &Server{
		corsOrigin:   config.CORSOrigin,
		maxUploadMB:  config.MaxUploadMB,
		timeoutSec:   config.TimeoutSec,
		solverOpts:   config.SolverOptions,
		sceneWidth:   config.SceneWidth,
		sceneHeight:  config.SceneHeight,
		sceneOpts:    config.SceneOptions,
		warpOpts:     config.Warp,
		outputHeight: config.OutputHeight,
		log:          config.Logger,
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	if s.maxUploadMB <= 0 {
		s.maxUploadMB = 50
	}
	if s.sceneWidth <= 0 || s.sceneHeight <= 0 {
		s.sceneWidth, s.sceneHeight = 1024, 768
	}
	if rl := config.RateLimit; rl.Enabled {
		s.rateLimiter = NewRateLimiter(rl.RequestsPerMinute, rl.RequestsPerHour, rl.MaxRequestsPerDay, rl.MaxDataPerDay)
	}
	return s
}

// SetupRoutes configures the HTTP routes.
func (s *Server) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", s.corsMiddleware(s.healthHandler))
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/v1/estimate", s.corsMiddleware(s.estimateHandler))
	mux.HandleFunc("/v1/map", s.corsMiddleware(s.mapHandler))
	mux.HandleFunc("/v1/warp", s.corsMiddleware(s.rateLimitMiddleware(s.warpHandler)))
	mux.HandleFunc("/v1/session", s.sessionHandler)
}

// Handler returns a mux with every route registered.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.SetupRoutes(mux)
	return mux
}
