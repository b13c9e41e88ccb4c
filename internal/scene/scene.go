// Package scene is a headless model of the interactive corner-drag demo: a
// rectangle whose four corners can be dragged to new positions, a free-hand
// polyline, and a pointer, all related through the homography between the
// original and the dragged corners.
package scene

import (
	"log/slog"
	"sync"

	"github.com/MeKo-Tech/quadwarp/internal/homography"
	"github.com/MeKo-Tech/quadwarp/internal/solver"
)

// RectScale is the fraction of the canvas covered by the original rectangle.
const RectScale = 0.7

// Option configures a Scene.
type Option func(*Scene)

// WithDragRadius sets the grab radius of the corner handles.
func WithDragRadius(r float64) Option {
	return func(s *Scene) {
		if r > 0 {
			s.radius = r
		}
	}
}

// WithTolerance sets the solver pivot tolerance used when rebuilding.
func WithTolerance(eps float64) Option {
	return func(s *Scene) { s.solverOpts = []solver.Option{solver.WithTolerance(eps)} }
}

// WithLogger sets the logger; the default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Scene) {
		if l != nil {
			s.log = l
		}
	}
}

// Scene holds the demo state. All methods are safe for concurrent use; the
// homography is replaced wholesale whenever a corner moves.
type Scene struct {
	mu sync.RWMutex

	width, height int
	rect          homography.Rect
	source        [4]homography.Point
	corners       [4]*DraggablePoint
	matrix        homography.Matrix4
	poly          []homography.Point
	pointer       homography.Point
	lastErr       error

	radius     float64
	solverOpts []solver.Option
	log        *slog.Logger
}

// New returns a scene for a width x height canvas. The original rectangle is
// the canvas scaled by RectScale around its center and the destination
// corners start on top of it, so the initial transform is the identity.
func New(width, height int, opts ...Option) *Scene {
	s := &Scene{
		width:  width,
		height: height,
		radius: DragRadius,
		log:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.rect = homography.Rect{Width: float64(width), Height: float64(height)}.ScaleFromCenter(RectScale)
	s.source = homography.CornersOfRectangle(s.rect)
	s.resetLocked()
	return s
}

func (s *Scene) resetLocked() {
	for i, p := range s.source {
		s.corners[i] = &DraggablePoint{Pos: p, Radius: s.radius}
	}
	s.matrix = homography.Identity()
	s.poly = nil
	s.lastErr = nil
}

// Reset puts the corners back on the original rectangle and clears the polyline.
func (s *Scene) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetLocked()
}

// Size returns the canvas dimensions.
func (s *Scene) Size() (int, int) { return s.width, s.height }

// Rect returns the original rectangle.
func (s *Scene) Rect() homography.Rect { return s.rect }

// Source returns the original rectangle's corners.
func (s *Scene) Source() [4]homography.Point { return s.source }

// Corners returns the current destination corners.
func (s *Scene) Corners() [4]homography.Point {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cornersLocked()
}

func (s *Scene) cornersLocked() [4]homography.Point {
	var out [4]homography.Point
	for i, c := range s.corners {
		out[i] = c.Pos
	}
	return out
}

// Homography returns the transform from the original rectangle to the
// dragged corners.
func (s *Scene) Homography() homography.Matrix4 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.matrix
}

// LastError returns the error of the most recent failed rebuild, or nil once
// a rebuild succeeds again.
func (s *Scene) LastError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

// PointerPressed grabs every corner under p. When none is hit a new polyline
// starts at p. It reports whether a corner was grabbed.
func (s *Scene) PointerPressed(p homography.Point) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pointer = p

	grabbed := false
	for _, c := range s.corners {
		if c.Press(p) {
			grabbed = true
		}
	}
	if !grabbed {
		s.poly = append(s.poly[:0], p)
	}
	return grabbed
}

// PointerDragged moves grabbed corners and rebuilds the homography, or
// extends the polyline when nothing is grabbed. A failed rebuild keeps the
// previous matrix and returns the error.
func (s *Scene) PointerDragged(p homography.Point) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pointer = p

	moved := false
	for _, c := range s.corners {
		if c.Drag(p) {
			moved = true
		}
	}
	if !moved {
		s.poly = append(s.poly, p)
		return nil
	}
	return s.rebuildLocked()
}

// PointerReleased drops every grabbed corner and rebuilds if any was held.
func (s *Scene) PointerReleased(p homography.Point) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pointer = p

	released := false
	for _, c := range s.corners {
		if c.Release() {
			released = true
		}
	}
	if !released {
		return nil
	}
	return s.rebuildLocked()
}

// PointerMoved records the pointer position without pressing.
func (s *Scene) PointerMoved(p homography.Point) {
	s.mu.Lock()
	s.pointer = p
	s.mu.Unlock()
}

// SetCorners replaces the destination corners and rebuilds.
func (s *Scene) SetCorners(dst [4]homography.Point) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.cornersLocked()
	for i, p := range dst {
		s.corners[i].Pos = p
	}
	if err := s.rebuildLocked(); err != nil {
		for i, p := range prev {
			s.corners[i].Pos = p
		}
		return err
	}
	return nil
}

func (s *Scene) rebuildLocked() error {
	m, err := homography.EstimateQuad(s.source, s.cornersLocked(), s.solverOpts...)
	if err != nil {
		s.lastErr = err
		s.log.Warn("scene: keeping previous homography", "error", err)
		return err
	}
	s.matrix = m
	s.lastErr = nil
	s.log.Debug("scene: homography rebuilt", "h", m.H3())
	return nil
}

// Polyline returns a copy of the free-hand polyline in screen space.
func (s *Scene) Polyline() []homography.Point {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]homography.Point(nil), s.poly...)
}

// WarpedPolyline maps the polyline forward through the current homography.
func (s *Scene) WarpedPolyline() ([]homography.Point, error) {
	s.mu.RLock()
	poly := append([]homography.Point(nil), s.poly...)
	m := s.matrix
	s.mu.RUnlock()
	return homography.MapForwardAll(poly, m)
}

// Pointer returns the last pointer position.
func (s *Scene) Pointer() homography.Point {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pointer
}

// PointerInSource maps a screen position back into the original rectangle's
// coordinate space.
func (s *Scene) PointerInSource(p homography.Point) (homography.Point, error) {
	return homography.MapInverse(p, s.Homography())
}

// Marker is the fixed point at 80% of the original rectangle's width and
// height, in local coordinates.
func (s *Scene) Marker() homography.Point {
	return homography.Pt(s.rect.X+s.rect.Width*0.8, s.rect.Y+s.rect.Height*0.8)
}

// MarkerOnScreen maps Marker forward.
func (s *Scene) MarkerOnScreen() (homography.Point, error) {
	return homography.MapForward(s.Marker(), s.Homography())
}
