package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/MeKo-Tech/quadwarp/internal/homography"
)

// parsePoints reads points written as "x,y" or "x,y,z", separated by
// whitespace or semicolons.
func parsePoints(s string) ([]homography.Point, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ';' || r == ' ' || r == '\t' || r == '\n'
	})
	pts := make([]homography.Point, 0, len(fields))
	for _, f := range fields {
		p, err := parsePoint(f)
		if err != nil {
			return nil, err
		}
		pts = append(pts, p)
	}
	return pts, nil
}

func parsePoint(s string) (homography.Point, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 && len(parts) != 3 {
		return homography.Point{}, fmt.Errorf("invalid point %q: want x,y or x,y,z", s)
	}
	var v [3]float64
	for i, part := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return homography.Point{}, fmt.Errorf("invalid point %q: %w", s, err)
		}
		v[i] = f
	}
	return homography.Point{X: v[0], Y: v[1], Z: v[2]}, nil
}

// parseQuad parses exactly four points.
func parseQuad(s string) ([4]homography.Point, error) {
	var quad [4]homography.Point
	pts, err := parsePoints(s)
	if err != nil {
		return quad, err
	}
	if len(pts) != 4 {
		return quad, fmt.Errorf("expected 4 corners, got %d", len(pts))
	}
	copy(quad[:], pts)
	return quad, nil
}

// parseMatrix reads 16 column-major values separated by commas or
// whitespace.
func parseMatrix(s string) (homography.Matrix4, error) {
	var m homography.Matrix4
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ';' || r == ' ' || r == '\t' || r == '\n'
	})
	if len(fields) != len(m) {
		return m, fmt.Errorf("expected %d matrix values, got %d", len(m), len(fields))
	}
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return m, fmt.Errorf("invalid matrix value %q: %w", f, err)
		}
		m[i] = v
	}
	return m, nil
}

// correspondence is the on-disk form of a source and destination quad.
type correspondence struct {
	Name        string             `json:"name,omitempty"`
	Source      []homography.Point `json:"source"`
	Destination []homography.Point `json:"destination"`
}

func loadCorrespondence(path string) (correspondence, error) {
	var c correspondence
	data, err := os.ReadFile(path) //nolint:gosec // G304: user-supplied input file
	if err != nil {
		return c, fmt.Errorf("failed to read correspondence file: %w", err)
	}
	if err := json.Unmarshal(data, &c); err != nil {
		return c, fmt.Errorf("failed to parse correspondence file %s: %w", path, err)
	}
	return c, nil
}

// correspondenceFromFlags resolves --src/--dst or --fixture into point
// lists. The fixture file wins when both are given.
func correspondenceFromFlags(src, dst, fixture string) ([]homography.Point, []homography.Point, error) {
	if fixture != "" {
		c, err := loadCorrespondence(fixture)
		if err != nil {
			return nil, nil, err
		}
		return c.Source, c.Destination, nil
	}
	if src == "" || dst == "" {
		return nil, nil, fmt.Errorf("both --src and --dst are required (or --fixture)")
	}
	s, err := parsePoints(src)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid --src: %w", err)
	}
	d, err := parsePoints(dst)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid --dst: %w", err)
	}
	return s, d, nil
}
