package scene

import "github.com/MeKo-Tech/quadwarp/internal/homography"

// State is a point-in-time view of a Scene for transport or display.
type State struct {
	Width          int                 `json:"width" yaml:"width"`
	Height         int                 `json:"height" yaml:"height"`
	Rect           homography.Rect     `json:"rect" yaml:"rect"`
	Matrix         [16]float64         `json:"matrix" yaml:"matrix"`
	H3             [9]float64          `json:"h3" yaml:"h3"`
	Source         [4]homography.Point `json:"source" yaml:"source"`
	Corners        [4]homography.Point `json:"corners" yaml:"corners"`
	Dragging       []int               `json:"dragging,omitempty" yaml:"dragging,omitempty"`
	Pointer        homography.Point    `json:"pointer" yaml:"pointer"`
	PointerSource  *homography.Point   `json:"pointer_in_source,omitempty" yaml:"pointer_in_source,omitempty"`
	Polyline       []homography.Point  `json:"polyline,omitempty" yaml:"polyline,omitempty"`
	WarpedPolyline []homography.Point  `json:"warped_polyline,omitempty" yaml:"warped_polyline,omitempty"`
	Marker         homography.Point    `json:"marker" yaml:"marker"`
	MarkerOnScreen *homography.Point   `json:"marker_on_screen,omitempty" yaml:"marker_on_screen,omitempty"`
	Error          string              `json:"error,omitempty" yaml:"error,omitempty"`
}

// Snapshot captures the current state. Mappings that fail are left empty;
// Error carries the last rebuild failure.
func (s *Scene) Snapshot() State {
	s.mu.RLock()
	st := State{
		Width:   s.width,
		Height:  s.height,
		Rect:    s.rect,
		Matrix:  s.matrix,
		H3:      s.matrix.H3(),
		Source:  s.source,
		Corners: s.cornersLocked(),
		Pointer: s.pointer,
		Marker:  s.Marker(),
	}
	for i, c := range s.corners {
		if c.Dragging() {
			st.Dragging = append(st.Dragging, i)
		}
	}
	if len(s.poly) > 0 {
		st.Polyline = append([]homography.Point(nil), s.poly...)
	}
	if s.lastErr != nil {
		st.Error = s.lastErr.Error()
	}
	m := s.matrix
	s.mu.RUnlock()

	if p, err := homography.MapInverse(st.Pointer, m); err == nil {
		st.PointerSource = &p
	}
	if p, err := homography.MapForward(st.Marker, m); err == nil {
		st.MarkerOnScreen = &p
	}
	if len(st.Polyline) > 0 {
		if w, err := homography.MapForwardAll(st.Polyline, m); err == nil {
			st.WarpedPolyline = w
		}
	}
	return st
}
