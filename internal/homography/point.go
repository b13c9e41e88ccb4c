package homography

import "math"

// Point is a coordinate in the plane with an optional Z that is carried
// through the transform. The homogeneous W is implicitly 1.
type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
	Z float64 `json:"z,omitempty" yaml:"z,omitempty"`
}

// Pt returns the planar point (x, y, 0).
func Pt(x, y float64) Point { return Point{X: x, Y: y} }

// Add returns p + q.
func (p Point) Add(q Point) Point { return Point{X: p.X + q.X, Y: p.Y + q.Y, Z: p.Z + q.Z} }

// Sub returns p - q.
func (p Point) Sub(q Point) Point { return Point{X: p.X - q.X, Y: p.Y - q.Y, Z: p.Z - q.Z} }

// Dist returns the planar distance between p and q.
func (p Point) Dist(q Point) float64 { return math.Hypot(p.X-q.X, p.Y-q.Y) }

// IsFinite reports whether every coordinate is a finite number.
func (p Point) IsFinite() bool { return finite(p.X) && finite(p.Y) && finite(p.Z) }

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

// Rect is an axis-aligned rectangle anchored at its top-left corner.
type Rect struct {
	X      float64 `json:"x" yaml:"x"`
	Y      float64 `json:"y" yaml:"y"`
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
}

func (r Rect) TopLeft() Point     { return Pt(r.X, r.Y) }
func (r Rect) TopRight() Point    { return Pt(r.X+r.Width, r.Y) }
func (r Rect) BottomRight() Point { return Pt(r.X+r.Width, r.Y+r.Height) }
func (r Rect) BottomLeft() Point  { return Pt(r.X, r.Y+r.Height) }

// Center returns the rectangle's midpoint.
func (r Rect) Center() Point { return Pt(r.X+r.Width/2, r.Y+r.Height/2) }

// ScaleFromCenter scales the rectangle by s around its center.
func (r Rect) ScaleFromCenter(s float64) Rect {
	c := r.Center()
	w, h := r.Width*s, r.Height*s
	return Rect{X: c.X - w/2, Y: c.Y - h/2, Width: w, Height: h}
}

// CornersOfRectangle returns the corners of r in the traversal order used for
// every correspondence set in this package: top-left, top-right,
// bottom-right, bottom-left.
func CornersOfRectangle(r Rect) [4]Point {
	return [4]Point{r.TopLeft(), r.TopRight(), r.BottomRight(), r.BottomLeft()}
}
