package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/quadwarp/internal/server"
)

func newServeCommand(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start HTTP server for the homography API",
		Long: `Start an HTTP server that exposes estimation, point mapping and image
rectification, plus a WebSocket session driving the corner-drag scene.

The server provides the following endpoints:
  GET  /health       - Health check endpoint
  GET  /metrics      - Prometheus metrics
  POST /v1/estimate  - Estimate a homography from four correspondences
  POST /v1/map       - Map points forward or backward
  POST /v1/warp      - Rectify an uploaded image (multipart)
  GET  /v1/session   - WebSocket corner-drag session

Examples:
  quadwarp serve
  quadwarp serve --port 8080
  quadwarp serve --host 0.0.0.0 --port 3000 --rate-limit-enabled`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := c.cfg
			sc := cfg.Server

			srv := server.NewServer(server.Config{
				Host:          sc.Host,
				Port:          sc.Port,
				CORSOrigin:    sc.CORSOrigin,
				MaxUploadMB:   int64(sc.MaxUploadMB),
				TimeoutSec:    sc.TimeoutSec,
				SolverOptions: cfg.SolverOptions(),
				SceneWidth:    cfg.Scene.Width,
				SceneHeight:   cfg.Scene.Height,
				SceneOptions:  cfg.SceneOptions(),
				Warp:          cfg.WarpOptions(),
				OutputHeight:  cfg.Warp.OutputHeight,
				RateLimit: server.RateLimitConfig{
					Enabled:           sc.RateLimit.Enabled,
					RequestsPerMinute: sc.RateLimit.RequestsPerMinute,
					RequestsPerHour:   sc.RateLimit.RequestsPerHour,
					MaxRequestsPerDay: sc.RateLimit.MaxRequestsPerDay,
					MaxDataPerDay:     sc.RateLimit.MaxDataPerDayMB * 1024 * 1024,
				},
				Logger: c.log,
			})

			addr := net.JoinHostPort(sc.Host, strconv.Itoa(sc.Port))
			ln, err := net.Listen("tcp", addr)
			if err != nil {
				return fmt.Errorf("failed to listen on %s: %w", addr, err)
			}

			timeout := time.Duration(sc.TimeoutSec) * time.Second
			httpServer := &http.Server{
				Handler:           srv.Handler(),
				ReadHeaderTimeout: 5 * time.Second,
				ReadTimeout:       timeout,
				WriteTimeout:      2 * timeout,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			serveErr := make(chan error, 1)
			go func() {
				c.log.Info("starting server", "addr", ln.Addr().String(),
					"rate_limit", sc.RateLimit.Enabled, "timeout_sec", sc.TimeoutSec)
				serveErr <- httpServer.Serve(ln)
			}()
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Server listening on http://%s\n", ln.Addr())

			select {
			case err := <-serveErr:
				if !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("server failed: %w", err)
				}
				return nil
			case <-ctx.Done():
			}

			c.log.Info("shutting down server", "timeout_sec", sc.ShutdownTimeout)
			shutdownCtx, cancel := context.WithTimeout(context.Background(),
				time.Duration(sc.ShutdownTimeout)*time.Second)
			defer cancel()
			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("server forced to shutdown: %w", err)
			}
			c.log.Info("server stopped")
			return nil
		},
	}

	cmd.Flags().String("host", "localhost", "server host")
	cmd.Flags().IntP("port", "p", 8080, "server port")
	cmd.Flags().String("cors-origin", "*", "CORS allowed origin")
	cmd.Flags().Int("max-upload-size", 50, "maximum upload size in MB")
	cmd.Flags().Int("timeout", 30, "request timeout in seconds")
	cmd.Flags().Int("shutdown-timeout", 10, "graceful shutdown timeout in seconds")
	cmd.Flags().Bool("rate-limit-enabled", false, "enable per-client rate limiting on /v1/warp")
	cmd.Flags().Int("requests-per-minute", 60, "maximum requests per minute per client")
	cmd.Flags().Int("requests-per-hour", 1000, "maximum requests per hour per client")
	cmd.Flags().Int("max-requests-per-day", 5000, "maximum requests per day per client")
	cmd.Flags().Int64("max-data-per-day", 1024, "maximum upload volume per day per client in MB")
	cmd.Flags().Int("scene-width", 1024, "canvas width of WebSocket sessions")
	cmd.Flags().Int("scene-height", 768, "canvas height of WebSocket sessions")

	for flag, key := range map[string]string{
		"host":                 "server.host",
		"port":                 "server.port",
		"cors-origin":          "server.cors_origin",
		"max-upload-size":      "server.max_upload_mb",
		"timeout":              "server.timeout_sec",
		"shutdown-timeout":     "server.shutdown_timeout",
		"rate-limit-enabled":   "server.rate_limit.enabled",
		"requests-per-minute":  "server.rate_limit.requests_per_minute",
		"requests-per-hour":    "server.rate_limit.requests_per_hour",
		"max-requests-per-day": "server.rate_limit.max_requests_per_day",
		"max-data-per-day":     "server.rate_limit.max_data_per_day_mb",
		"scene-width":          "scene.width",
		"scene-height":         "scene.height",
	} {
		bindFlag(cmd.Flags(), flag, key)
	}
	return cmd
}
