package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/MeKo-Tech/quadwarp/internal/common"
	"github.com/MeKo-Tech/quadwarp/internal/homography"
	"github.com/MeKo-Tech/quadwarp/internal/output"
	"github.com/MeKo-Tech/quadwarp/internal/version"
	"github.com/MeKo-Tech/quadwarp/internal/warp"
)

const maxJSONBody = 1 << 20

// healthHandler handles health check requests.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeErrorResponse(w, "Method not allowed", "method_not_allowed", http.StatusMethodNotAllowed)
		return
	}
	v, _, _ := version.Info()
	s.writeJSON(w, http.StatusOK, HealthResponse{
		Status:  "healthy",
		Version: v,
		Time:    time.Now().UTC().Format(time.RFC3339),
	})
}

// estimateHandler solves for the homography between two quadrilaterals.
func (s *Server) estimateHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeErrorResponse(w, "Method not allowed", "method_not_allowed", http.StatusMethodNotAllowed)
		return
	}

	var req EstimateRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.writeErrorResponse(w, "Invalid request body: "+err.Error(), "invalid_request", http.StatusBadRequest)
		return
	}

	m, err := s.estimate("http", req.Source, req.Destination)
	if err != nil {
		s.writeError(w, err)
		return
	}

	report := output.NewMatrixReport(m)
	s.writeJSON(w, http.StatusOK, EstimateResponse{Success: true, Matrix: &report})
}

// mapHandler maps points forward or backward through a homography.
func (s *Server) mapHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeErrorResponse(w, "Method not allowed", "method_not_allowed", http.StatusMethodNotAllowed)
		return
	}

	var req MapRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.writeErrorResponse(w, "Invalid request body: "+err.Error(), "invalid_request", http.StatusBadRequest)
		return
	}
	if len(req.Points) == 0 {
		s.writeErrorResponse(w, "No points provided", "invalid_request", http.StatusBadRequest)
		return
	}

	var m homography.Matrix4
	switch {
	case req.Matrix != nil:
		m = homography.Matrix4(*req.Matrix)
	case len(req.Source) > 0 || len(req.Destination) > 0:
		est, err := s.estimate("map", req.Source, req.Destination)
		if err != nil {
			s.writeError(w, err)
			return
		}
		m = est
	default:
		s.writeErrorResponse(w, "Either matrix or source and destination are required", "invalid_request",
			http.StatusBadRequest)
		return
	}

	mapper := m
	if req.Inverse {
		inv, err := m.Inverse()
		if err != nil {
			s.writeError(w, err)
			return
		}
		mapper = inv
	}

	resp := MapResponse{Success: true, Mappings: mapPoints(req.Points, mapper)}
	cm := [16]float64(m)
	resp.Matrix = &cm
	s.writeJSON(w, http.StatusOK, resp)
}

// mapPoints maps each point independently so one point at infinity does not
// hide the others.
func mapPoints(pts []homography.Point, m homography.Matrix4) []output.Mapping {
	maps := make([]output.Mapping, len(pts))
	for i, p := range pts {
		maps[i].Input = p
		q, err := homography.MapForward(p, m)
		if err != nil {
			mappedPointsTotal.WithLabelValues("degenerate").Inc()
			maps[i].Error = err.Error()
			continue
		}
		mappedPointsTotal.WithLabelValues("success").Inc()
		maps[i].Output = &q
	}
	return maps
}

// warpHandler rectifies the quadrilateral given by the "corners" field of an
// uploaded image and returns the result as PNG.
func (s *Server) warpHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeErrorResponse(w, "Method not allowed", "method_not_allowed", http.StatusMethodNotAllowed)
		return
	}

	maxBytes := s.maxUploadMB * 1024 * 1024
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		s.writeErrorResponse(w, "Failed to parse form: "+err.Error(), "invalid_request", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		s.writeErrorResponse(w, "No image file provided", "invalid_request", http.StatusBadRequest)
		return
	}
	defer func() { _ = file.Close() }()
	uploadSizeBytes.Observe(float64(header.Size))

	quad, err := parseCorners(r.FormValue("corners"))
	if err != nil {
		s.writeErrorResponse(w, err.Error(), "invalid_request", http.StatusBadRequest)
		return
	}

	height := s.outputHeight
	if v := r.FormValue("height"); v != "" {
		height, err = strconv.Atoi(v)
		if err != nil || height < 0 || height > warp.MaxOutputSide {
			s.writeErrorResponse(w, fmt.Sprintf("Invalid height: %s (must be in [0, %d])", v, warp.MaxOutputSide),
				"invalid_request", http.StatusBadRequest)
			return
		}
	}

	opts := s.warpOpts
	if v := r.FormValue("background"); v != "" {
		bg, err := warp.ParseColor(v)
		if err != nil {
			s.writeErrorResponse(w, err.Error(), "invalid_request", http.StatusBadRequest)
			return
		}
		opts.Background = bg
	}

	img, err := warp.Decode(file)
	if err != nil {
		s.writeError(w, err)
		return
	}

	ctx := r.Context()
	if s.timeoutSec > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(s.timeoutSec)*time.Second)
		defer cancel()
	}

	timer := common.Start("warp")
	out, err := warp.Rectify(ctx, img, quad, height, opts)
	if err != nil {
		if errors.Is(err, homography.ErrSingular) {
			estimateTotal.WithLabelValues("warp", "singular").Inc()
		}
		s.writeError(w, err)
		return
	}
	estimateTotal.WithLabelValues("warp", "success").Inc()
	timer.ObserveTo(warpDuration)
	b := out.Bounds()
	warpOutputPixels.Observe(float64(b.Dx() * b.Dy()))
	s.log.Debug("warped image", "file", header.Filename, "width", b.Dx(), "height", b.Dy(), "elapsed", timer)

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("X-Output-Size", fmt.Sprintf("%dx%d", b.Dx(), b.Dy()))
	w.WriteHeader(http.StatusOK)
	if err := warp.EncodePNG(w, out); err != nil {
		s.log.Error("Failed to write PNG response", "error", err)
	}
}

// parseCorners accepts either a JSON array of four {x, y} objects or eight
// comma-separated numbers x1,y1,...,x4,y4.
func parseCorners(s string) ([4]homography.Point, error) {
	var quad [4]homography.Point
	s = strings.TrimSpace(s)
	if s == "" {
		return quad, errors.New("corners are required")
	}

	if strings.HasPrefix(s, "[") {
		var pts []homography.Point
		if err := json.Unmarshal([]byte(s), &pts); err != nil {
			return quad, fmt.Errorf("invalid corners: %w", err)
		}
		if len(pts) != 4 {
			return quad, fmt.Errorf("invalid corners: need 4 points, got %d", len(pts))
		}
		copy(quad[:], pts)
		return quad, nil
	}

	parts := strings.Split(s, ",")
	if len(parts) != 8 {
		return quad, fmt.Errorf("invalid corners: need 8 numbers, got %d", len(parts))
	}
	for i := range 4 {
		x, errX := strconv.ParseFloat(strings.TrimSpace(parts[2*i]), 64)
		y, errY := strconv.ParseFloat(strings.TrimSpace(parts[2*i+1]), 64)
		if err := errors.Join(errX, errY); err != nil {
			return quad, fmt.Errorf("invalid corner %d: %w", i, err)
		}
		quad[i] = homography.Pt(x, y)
	}
	return quad, nil
}

// estimate wraps homography.Estimate with metrics.
func (s *Server) estimate(source string, src, dst []homography.Point) (homography.Matrix4, error) {
	m, err := homography.Estimate(src, dst, s.solverOpts...)
	if err != nil {
		estimateTotal.WithLabelValues(source, errorType(err)).Inc()
		return m, err
	}
	estimateTotal.WithLabelValues(source, "success").Inc()
	return m, nil
}

func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// errorType classifies err for the error_type field and metrics.
func errorType(err error) string {
	var imgErr *warp.ImageError
	switch {
	case errors.Is(err, homography.ErrConfiguration):
		return "configuration"
	case errors.Is(err, homography.ErrSingular):
		return "singular"
	case errors.Is(err, homography.ErrDegenerateMapping):
		return "degenerate_mapping"
	case errors.Is(err, warp.ErrQuadTooSmall):
		return "quad_too_small"
	case errors.Is(err, warp.ErrOutputTooLarge):
		return "output_too_large"
	case errors.As(err, &imgErr):
		return "invalid_image"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "internal_error"
	}
}

// statusFor maps an error type to its HTTP status.
func statusFor(kind string) int {
	switch kind {
	case "configuration", "invalid_image":
		return http.StatusBadRequest
	case "singular", "degenerate_mapping", "quad_too_small", "output_too_large":
		return http.StatusUnprocessableEntity
	case "timeout":
		return http.StatusGatewayTimeout
	case "canceled":
		return http.StatusRequestTimeout
	default:
		return http.StatusInternalServerError
	}
}

// writeError classifies err and writes the matching error response.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	kind := errorType(err)
	status := statusFor(kind)
	if status >= http.StatusInternalServerError {
		s.log.Error("request failed", "error", err)
	}
	s.writeErrorResponse(w, err.Error(), kind, status)
}

// writeErrorResponse writes a JSON error response.
func (s *Server) writeErrorResponse(w http.ResponseWriter, message, errType string, statusCode int) {
	s.writeJSON(w, statusCode, ErrorResponse{Success: false, Error: message, ErrorType: errType})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Can't send another response
		s.log.Error("Error writing response", "error", err)
	}
}
