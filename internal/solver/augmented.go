package solver

import (
	"fmt"

	"github.com/MeKo-Tech/quadwarp/internal/mempool"
)

// Augmented is an owned, row-major rows x (rows+1) buffer holding [A | b].
// Solve mutates it in place; after a successful solve Solution returns x.
type Augmented struct {
	rows   int
	cols   int
	data   []float64
	pooled bool
}

// NewAugmented returns a zeroed system with the given number of unknowns,
// backed by a pooled buffer. Call Release when done with it.
func NewAugmented(unknowns int) (*Augmented, error) {
	if unknowns < 1 {
		return nil, fmt.Errorf("%w: %d unknowns", ErrShape, unknowns)
	}
	cols := unknowns + 1
	return &Augmented{
		rows:   unknowns,
		cols:   cols,
		data:   mempool.GetFloat64Zeroed(unknowns * cols),
		pooled: true,
	}, nil
}

// FromRows copies rows into a new system. Every row must have len(rows)+1 values.
func FromRows(rows [][]float64) (*Augmented, error) {
	n := len(rows)
	if n == 0 {
		return nil, fmt.Errorf("%w: no rows", ErrShape)
	}
	a := &Augmented{rows: n, cols: n + 1, data: make([]float64, n*(n+1))}
	for r, row := range rows {
		if len(row) != a.cols {
			return nil, fmt.Errorf("%w: row %d has %d values, want %d", ErrShape, r, len(row), a.cols)
		}
		copy(a.data[r*a.cols:], row)
	}
	return a, nil
}

// Rows returns the number of equations.
func (a *Augmented) Rows() int { return a.rows }

// Cols returns the total number of columns, right-hand side included.
func (a *Augmented) Cols() int { return a.cols }

// At returns the element at (r, c). It panics on out-of-range indices like a slice.
func (a *Augmented) At(r, c int) float64 { return a.data[r*a.cols+c] }

// Set stores v at (r, c).
func (a *Augmented) Set(r, c int, v float64) { a.data[r*a.cols+c] = v }

// SetRow overwrites row r with vals (coefficients followed by the right-hand side).
func (a *Augmented) SetRow(r int, vals ...float64) {
	copy(a.data[r*a.cols:r*a.cols+a.cols], vals)
}

// Solution returns the last column. Only meaningful after a successful Solve.
func (a *Augmented) Solution() []float64 {
	x := make([]float64, a.rows)
	for r := range a.rows {
		x[r] = a.data[r*a.cols+a.rows]
	}
	return x
}

// Release hands a pooled buffer back. The system must not be used afterwards.
func (a *Augmented) Release() {
	if a == nil || a.data == nil {
		return
	}
	if a.pooled {
		mempool.PutFloat64(a.data)
	}
	a.data = nil
}
