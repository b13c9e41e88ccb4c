// Package solver solves square linear systems given as an augmented matrix
// [A | b] using Gaussian elimination with partial pivoting. The solution is
// written in place into the last column of the augmented buffer.
package solver

import (
	"errors"
	"fmt"
	"math"

	"github.com/MeKo-Tech/quadwarp/internal/mempool"
)

// DefaultTolerance is the relative pivot threshold. A pivot whose magnitude is
// not above DefaultTolerance times the largest original coefficient in its
// column is treated as zero.
const DefaultTolerance = 1e-12

var (
	// ErrSingular is returned when elimination meets a column without a usable
	// pivot or the solution is not finite.
	ErrSingular = errors.New("solver: singular system")

	// ErrShape is returned when the buffer does not hold rows x (rows+1) values.
	ErrShape = errors.New("solver: augmented matrix must be rows x (rows+1)")
)

// SingularError reports the first coefficient column that had no usable pivot.
// Column is -1 when elimination succeeded but the solution was not finite.
type SingularError struct {
	Column int
}

func (e *SingularError) Error() string {
	if e.Column < 0 {
		return "solver: singular system (non-finite solution)"
	}
	return fmt.Sprintf("solver: singular system (no pivot in column %d)", e.Column)
}

func (e *SingularError) Unwrap() error { return ErrSingular }

type settings struct {
	tolerance float64
}

// Option tunes a solve.
type Option func(*settings)

// WithTolerance sets the relative pivot threshold. Zero restores the exact
// zero test of plain Gaussian elimination.
func WithTolerance(eps float64) Option {
	return func(s *settings) {
		if eps >= 0 {
			s.tolerance = eps
		}
	}
}

// Solve solves the system held by a in place.
func Solve(a *Augmented, opts ...Option) error {
	if a == nil {
		return ErrShape
	}
	return SolveInPlace(a.data, a.cols, opts...)
}

// SolveInPlace solves the row-major augmented system stored in buf with the
// given number of total columns (unknowns + 1). On success the last column
// holds the solution; on failure buf holds partially eliminated values.
func SolveInPlace(buf []float64, cols int, opts ...Option) error {
	s := settings{tolerance: DefaultTolerance}
	for _, opt := range opts {
		opt(&s)
	}

	rows := cols - 1
	if rows < 1 || len(buf) < rows*cols {
		return fmt.Errorf("%w: got %d values for %d columns", ErrShape, len(buf), cols)
	}

	scale := mempool.GetFloat64(rows)
	defer mempool.PutFloat64(scale)
	if bad := columnScales(buf, rows, cols, scale); bad >= 0 {
		return &SingularError{Column: bad}
	}

	// Forward elimination. A column without a pivot is skipped, as in the
	// textbook algorithm, but remembered so the caller gets an error instead of
	// whatever ended up in the solution column.
	skipped := -1
	i := 0
	for j := 0; i < rows && j < rows; j++ {
		p := findPivotRow(buf, cols, rows, i, j)
		if math.Abs(buf[p*cols+j]) <= s.tolerance*scale[j] {
			if skipped < 0 {
				skipped = j
			}
			continue
		}
		if p != i {
			swapRows(buf, cols, i, p)
		}
		normalizeRow(buf, cols, i, j)
		eliminateBelow(buf, cols, rows, i, j)
		i++
	}
	if skipped >= 0 {
		return &SingularError{Column: skipped}
	}

	backSubstitute(buf, cols, rows)

	for r := range rows {
		v := buf[r*cols+rows]
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return &SingularError{Column: -1}
		}
	}
	return nil
}

// columnScales stores the largest absolute coefficient of every column in
// scale and returns the first column holding a non-finite value, or -1.
func columnScales(buf []float64, rows, cols int, scale []float64) int {
	clear(scale)
	for r := range rows {
		row := buf[r*cols : r*cols+rows]
		for j, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return j
			}
			scale[j] = math.Max(scale[j], math.Abs(v))
		}
	}
	return -1
}

// findPivotRow returns the row in [start, rows) with the largest magnitude in
// column col. Every remaining row, the last one included, is a candidate.
func findPivotRow(buf []float64, cols, rows, start, col int) int {
	best := start
	for k := start + 1; k < rows; k++ {
		if math.Abs(buf[k*cols+col]) > math.Abs(buf[best*cols+col]) {
			best = k
		}
	}
	return best
}

func swapRows(buf []float64, cols, r1, r2 int) {
	a := buf[r1*cols : r1*cols+cols]
	b := buf[r2*cols : r2*cols+cols]
	for k := range cols {
		a[k], b[k] = b[k], a[k]
	}
}

// normalizeRow divides row so that its entry in column col becomes 1.
func normalizeRow(buf []float64, cols, row, col int) {
	r := buf[row*cols : row*cols+cols]
	div := r[col]
	for k := range r {
		r[k] /= div
	}
}

// eliminateBelow zeroes column col in every row below pivotRow.
func eliminateBelow(buf []float64, cols, rows, pivotRow, col int) {
	pr := buf[pivotRow*cols : pivotRow*cols+cols]
	for u := pivotRow + 1; u < rows; u++ {
		r := buf[u*cols : u*cols+cols]
		factor := r[col]
		if factor == 0 {
			continue
		}
		for k := range r {
			r[k] -= factor * pr[k]
		}
	}
}

// backSubstitute resolves the upper unit-triangular system from the bottom up.
// The last row is already solved by normalization.
func backSubstitute(buf []float64, cols, rows int) {
	for i := rows - 2; i >= 0; i-- {
		for j := i + 1; j < rows; j++ {
			buf[i*cols+rows] -= buf[i*cols+j] * buf[j*cols+rows]
		}
	}
}
