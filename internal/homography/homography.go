// Package homography estimates the planar projective transform that maps one
// quadrilateral onto another and applies it to points.
//
// The transform is solved from exactly four point correspondences as an 8x9
// linear system (h33 fixed to 1) and embedded in a column-major 4x4 matrix so
// it can be handed to rendering pipelines unchanged. Both point sets are
// centered and scaled to unit size before solving and the result is mapped
// back to the caller's coordinates.
package homography

import (
	"fmt"
	"math"

	"github.com/MeKo-Tech/quadwarp/internal/solver"
)

const (
	// WEpsilon is the largest homogeneous divisor magnitude that still counts
	// as a point at infinity.
	WEpsilon = 1e-12

	// collinearTolerance is relative to the squared extent of the point set.
	collinearTolerance = 1e-9
)

// Estimate solves for the homography that maps src[i] to dst[i] for i in 0..3.
// Only the first four points of each side are used; fewer than four is a
// *ConfigurationError. Any three collinear points on a side, or a system the
// solver cannot resolve, is ErrSingular.
func Estimate(src, dst []Point, opts ...solver.Option) (Matrix4, error) {
	if len(src) < 4 {
		return Matrix4{}, &ConfigurationError{Side: "source", Got: len(src)}
	}
	if len(dst) < 4 {
		return Matrix4{}, &ConfigurationError{Side: "destination", Got: len(dst)}
	}
	var s, d [4]Point
	copy(s[:], src)
	copy(d[:], dst)
	return EstimateQuad(s, d, opts...)
}

// EstimateQuad is Estimate for fixed-size corner sets.
func EstimateQuad(src, dst [4]Point, opts ...solver.Option) (Matrix4, error) {
	for i := range 4 {
		if !src[i].IsFinite() || !dst[i].IsFinite() {
			return Matrix4{}, fmt.Errorf("homography: correspondence %d is not finite: %w", i, ErrSingular)
		}
	}
	if err := checkCollinear("source", src); err != nil {
		return Matrix4{}, err
	}
	if err := checkCollinear("destination", dst); err != nil {
		return Matrix4{}, err
	}

	ns, toSrc, _ := normalize(src)
	nd, _, fromDst := normalize(dst)

	sys, err := solver.NewAugmented(8)
	if err != nil {
		return Matrix4{}, err
	}
	defer sys.Release()

	for i := range 4 {
		sx, sy := ns[i].X, ns[i].Y
		dx, dy := nd[i].X, nd[i].Y
		sys.SetRow(2*i, -sx, -sy, -1, 0, 0, 0, sx*dx, sy*dx, -dx)
		sys.SetRow(2*i+1, 0, 0, 0, -sx, -sy, -1, sx*dy, sy*dy, -dy)
	}

	if err := solver.Solve(sys, opts...); err != nil {
		return Matrix4{}, fmt.Errorf("homography: estimate: %w", err)
	}

	h := sys.Solution()
	hn := FromH3([9]float64{
		h[0], h[1], h[2],
		h[3], h[4], h[5],
		h[6], h[7], 1,
	})

	// Undo the normalization and rescale so that h33 is 1 again.
	full := fromDst.Mul(hn).Mul(toSrc).H3()
	peak := 0.0
	for _, v := range full {
		peak = math.Max(peak, math.Abs(v))
	}
	if !finite(peak) || math.Abs(full[8]) <= WEpsilon*peak {
		return Matrix4{}, fmt.Errorf("homography: estimate: source origin maps to infinity: %w", ErrSingular)
	}
	h33 := full[8]
	for i := range full {
		full[i] /= h33
	}
	full[8] = 1

	m := FromH3(full)
	if !m.IsFinite() {
		return Matrix4{}, fmt.Errorf("homography: estimate produced non-finite coefficients: %w", ErrSingular)
	}
	return m, nil
}

// normalize translates pts to their centroid and scales them so the mean
// distance from it is sqrt(2). It returns the moved points, the similarity
// applied and its inverse. The points must not all coincide.
func normalize(pts [4]Point) ([4]Point, Matrix4, Matrix4) {
	var cx, cy float64
	for _, p := range pts {
		cx += p.X
		cy += p.Y
	}
	cx, cy = cx/4, cy/4

	mean := 0.0
	for _, p := range pts {
		mean += math.Hypot(p.X-cx, p.Y-cy)
	}
	k := math.Sqrt2 / (mean / 4)

	var out [4]Point
	for i, p := range pts {
		out[i] = Point{X: k * (p.X - cx), Y: k * (p.Y - cy), Z: p.Z}
	}
	fwd := FromH3([9]float64{k, 0, -k * cx, 0, k, -k * cy, 0, 0, 1})
	inv := FromH3([9]float64{1 / k, 0, cx, 0, 1 / k, cy, 0, 0, 1})
	return out, fwd, inv
}

// checkCollinear rejects point sets where any three points lie on one line,
// coincident points included.
func checkCollinear(side string, pts [4]Point) error {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range pts {
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
		minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
	}
	extent := math.Max(maxX-minX, maxY-minY)
	limit := collinearTolerance * extent * extent

	triples := [4][3]int{{0, 1, 2}, {0, 1, 3}, {0, 2, 3}, {1, 2, 3}}
	for _, t := range triples {
		a, b, c := pts[t[0]], pts[t[1]], pts[t[2]]
		cross := (b.X-a.X)*(c.Y-a.Y) - (b.Y-a.Y)*(c.X-a.X)
		if math.Abs(cross) <= limit {
			return fmt.Errorf("homography: %s points %d, %d, %d are collinear: %w",
				side, t[0], t[1], t[2], ErrSingular)
		}
	}
	return nil
}

// MapForward applies m to (x, y, z, 1) and divides by the resulting w.
func MapForward(p Point, m Matrix4) (Point, error) {
	x, y, z, w := m.MulVec4(p.X, p.Y, p.Z, 1)
	if math.Abs(w) <= WEpsilon || !finite(w) {
		return Point{}, fmt.Errorf("homography: map (%g, %g): w=%g: %w", p.X, p.Y, w, ErrDegenerateMapping)
	}
	out := Point{X: x / w, Y: y / w, Z: z / w}
	if !out.IsFinite() {
		return Point{}, fmt.Errorf("homography: map (%g, %g): %w", p.X, p.Y, ErrDegenerateMapping)
	}
	return out, nil
}

// MapInverse maps p through the inverse of m.
func MapInverse(p Point, m Matrix4) (Point, error) {
	inv, err := m.Inverse()
	if err != nil {
		return Point{}, err
	}
	return MapForward(p, inv)
}

// MapForwardAll maps every point and stops at the first failure.
func MapForwardAll(pts []Point, m Matrix4) ([]Point, error) {
	out := make([]Point, len(pts))
	for i, p := range pts {
		q, err := MapForward(p, m)
		if err != nil {
			return nil, fmt.Errorf("point %d: %w", i, err)
		}
		out[i] = q
	}
	return out, nil
}

// MapInverseAll inverts m once and maps every point through it.
func MapInverseAll(pts []Point, m Matrix4) ([]Point, error) {
	inv, err := m.Inverse()
	if err != nil {
		return nil, err
	}
	return MapForwardAll(pts, inv)
}
