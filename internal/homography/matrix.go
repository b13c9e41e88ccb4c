package homography

import (
	"fmt"
	"math"
	"strings"

	"github.com/MeKo-Tech/quadwarp/internal/solver"
)

// Matrix4 is a 4x4 homogeneous transform stored column-major, the layout
// OpenGL-style pipelines consume directly: element (row r, column c) lives at
// index c*4+r. A planar homography H occupies rows/columns 0, 1 and 3:
//
//	| h11 h12 0 h13 |
//	| h21 h22 0 h23 |
//	|  0   0  1  0  |
//	| h31 h32 0 h33 |
//
// Z passes through unchanged, so the matrix is invertible whenever H is.
type Matrix4 [16]float64

// Identity returns the 4x4 identity.
func Identity() Matrix4 {
	return Matrix4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// FromRowMajor builds a matrix from 16 values listed row by row.
func FromRowMajor(v [16]float64) Matrix4 {
	var m Matrix4
	for r := range 4 {
		for c := range 4 {
			m[c*4+r] = v[r*4+c]
		}
	}
	return m
}

// FromH3 embeds a row-major 3x3 planar homography.
func FromH3(h [9]float64) Matrix4 {
	return FromRowMajor([16]float64{
		h[0], h[1], 0, h[2],
		h[3], h[4], 0, h[5],
		0, 0, 1, 0,
		h[6], h[7], 0, h[8],
	})
}

// At returns element (r, c).
func (m Matrix4) At(r, c int) float64 { return m[c*4+r] }

// Set stores v at (r, c).
func (m *Matrix4) Set(r, c int, v float64) { m[c*4+r] = v }

// RowMajor returns the 16 values row by row.
func (m Matrix4) RowMajor() [16]float64 {
	var v [16]float64
	for r := range 4 {
		for c := range 4 {
			v[r*4+c] = m[c*4+r]
		}
	}
	return v
}

// H3 extracts the planar 3x3 homography, row-major.
func (m Matrix4) H3() [9]float64 {
	return [9]float64{
		m.At(0, 0), m.At(0, 1), m.At(0, 3),
		m.At(1, 0), m.At(1, 1), m.At(1, 3),
		m.At(3, 0), m.At(3, 1), m.At(3, 3),
	}
}

// Mul returns m * o.
func (m Matrix4) Mul(o Matrix4) Matrix4 {
	var out Matrix4
	for r := range 4 {
		for c := range 4 {
			sum := 0.0
			for k := range 4 {
				sum += m.At(r, k) * o.At(k, c)
			}
			out.Set(r, c, sum)
		}
	}
	return out
}

// MulVec4 returns m * (x, y, z, w).
func (m Matrix4) MulVec4(x, y, z, w float64) (float64, float64, float64, float64) {
	return m[0]*x + m[4]*y + m[8]*z + m[12]*w,
		m[1]*x + m[5]*y + m[9]*z + m[13]*w,
		m[2]*x + m[6]*y + m[10]*z + m[14]*w,
		m[3]*x + m[7]*y + m[11]*z + m[15]*w
}

// Transpose returns the transposed matrix.
func (m Matrix4) Transpose() Matrix4 {
	var out Matrix4
	for r := range 4 {
		for c := range 4 {
			out.Set(r, c, m.At(c, r))
		}
	}
	return out
}

// Determinant returns det(m) by cofactor expansion over 2x2 minors.
func (m Matrix4) Determinant() float64 {
	a := m.RowMajor()
	s0 := a[0]*a[5] - a[4]*a[1]
	s1 := a[0]*a[6] - a[4]*a[2]
	s2 := a[0]*a[7] - a[4]*a[3]
	s3 := a[1]*a[6] - a[5]*a[2]
	s4 := a[1]*a[7] - a[5]*a[3]
	s5 := a[2]*a[7] - a[6]*a[3]

	c5 := a[10]*a[15] - a[14]*a[11]
	c4 := a[9]*a[15] - a[13]*a[11]
	c3 := a[9]*a[14] - a[13]*a[10]
	c2 := a[8]*a[15] - a[12]*a[11]
	c1 := a[8]*a[14] - a[12]*a[10]
	c0 := a[8]*a[13] - a[12]*a[9]

	return s0*c5 - s1*c4 + s2*c3 + s3*c2 - s4*c1 + s5*c0
}

// Inverse returns m^-1, solving m x = e_c for every identity column with the
// same elimination used for estimation. A singular matrix yields ErrSingular.
func (m Matrix4) Inverse() (Matrix4, error) {
	if !m.IsFinite() {
		return Matrix4{}, fmt.Errorf("homography: invert: non-finite matrix: %w", ErrSingular)
	}
	sys, err := solver.NewAugmented(4)
	if err != nil {
		return Matrix4{}, err
	}
	defer sys.Release()

	var inv Matrix4
	for col := range 4 {
		for r := range 4 {
			rhs := 0.0
			if r == col {
				rhs = 1
			}
			sys.SetRow(r, m.At(r, 0), m.At(r, 1), m.At(r, 2), m.At(r, 3), rhs)
		}
		if err := solver.Solve(sys); err != nil {
			return Matrix4{}, fmt.Errorf("homography: invert: %w", err)
		}
		for r := range 4 {
			inv.Set(r, col, sys.At(r, 4))
		}
	}
	return inv, nil
}

// IsFinite reports whether every element is a finite number.
func (m Matrix4) IsFinite() bool {
	for _, v := range m {
		if !finite(v) {
			return false
		}
	}
	return true
}

// ApproxEqual reports whether every element differs by at most tol.
func (m Matrix4) ApproxEqual(o Matrix4, tol float64) bool {
	for i := range m {
		if math.Abs(m[i]-o[i]) > tol {
			return false
		}
	}
	return true
}

// Normalized scales m so that the (3, 3) element is 1. Homographies are scale
// invariant; this makes two estimates of the same transform comparable.
func (m Matrix4) Normalized() Matrix4 {
	s := m.At(3, 3)
	if s == 0 || !finite(s) {
		return m
	}
	out := m
	for i := range out {
		out[i] /= s
	}
	// Keep the z pass-through at exactly 1.
	out.Set(2, 2, 1)
	return out
}

// String prints the matrix row by row.
func (m Matrix4) String() string {
	var b strings.Builder
	for r := range 4 {
		if r > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "[%g %g %g %g]", m.At(r, 0), m.At(r, 1), m.At(r, 2), m.At(r, 3))
	}
	return b.String()
}
