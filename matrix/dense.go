// Package matrix - Dense storage (row-major) & safe accessors.
//
// Purpose:
//   - Provide a cache-friendly row-major buffer with the explicit index
//     formula i*cols + j.
//   - Guarantee safety at the public surface: At/Set return errors instead of
//     panicking.
//   - Keep algorithmic determinism (fixed loop orders, no map iteration).

package matrix

import (
	"fmt"
	"math"
)

// denseErrorf wraps a sentinel with Dense method context and callsite indices.
func denseErrorf(method string, row, col int, err error) error {
	return fmt.Errorf("Dense.%s(%d,%d): %w", method, row, col, err)
}

// Dense is a concrete row-major matrix of float64 values.
//   - r, c hold dimensions (rows, cols).
//   - data is a flat buffer of length r*c in row-major order (offset i*c+j).
type Dense struct {
	r, c int       // number of rows and columns
	data []float64 // flat backing storage, length == r*c
}

// NewDense creates an r×c Dense matrix initialized to zeros.
// Stage 1 (Validate): ensure rows and cols > 0.
// Stage 2 (Prepare): allocate flat backing slice.
// Stage 3 (Finalize): return new Dense or ErrBadShape.
// Complexity: O(r·c) time and memory.
func NewDense(rows, cols int) (*Dense, error) {
	// Validate dimensions
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("NewDense(%d,%d): %w", rows, cols, ErrBadShape)
	}
	// Allocate flat slice and return
	return &Dense{r: rows, c: cols, data: make([]float64, rows*cols)}, nil
}

// NewSquare creates an n×n Dense matrix initialized to zeros.
// Complexity: O(n²).
func NewSquare(n int) (*Dense, error) {
	return NewDense(n, n)
}

// Rows returns the number of rows. Complexity: O(1).
func (m *Dense) Rows() int { return m.r }

// Cols returns the number of columns. Complexity: O(1).
func (m *Dense) Cols() int { return m.c }

// At returns the value at (row, col), or ErrOutOfRange.
// Complexity: O(1).
func (m *Dense) At(row, col int) (float64, error) {
	if row < 0 || row >= m.r || col < 0 || col >= m.c {
		return 0, denseErrorf("At", row, col, ErrOutOfRange)
	}

	return m.data[row*m.c+col], nil
}

// Set stores v at (row, col). Returns ErrOutOfRange for bad indices and
// ErrNaNInf for non-finite values (finite-only numeric policy).
// Complexity: O(1).
func (m *Dense) Set(row, col int, v float64) error {
	if row < 0 || row >= m.r || col < 0 || col >= m.c {
		return denseErrorf("Set", row, col, ErrOutOfRange)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return denseErrorf("Set", row, col, ErrNaNInf)
	}
	m.data[row*m.c+col] = v

	return nil
}

// Row returns the backing slice of row i (no copy; mutations reflect in m).
// Hot-path accessor for the determinant engine; returns ErrOutOfRange for a
// bad index. Complexity: O(1).
func (m *Dense) Row(i int) ([]float64, error) {
	if i < 0 || i >= m.r {
		return nil, denseErrorf("Row", i, 0, ErrOutOfRange)
	}

	return m.data[i*m.c : (i+1)*m.c], nil
}

// Data exposes the flat row-major buffer (no copy). Hot callers only;
// treat the layout (offset i*c+j) as part of the contract.
func (m *Dense) Data() []float64 { return m.data }

// Clone returns a deep copy of m. Complexity: O(r·c).
func (m *Dense) Clone() *Dense {
	out := &Dense{r: m.r, c: m.c, data: make([]float64, len(m.data))}
	copy(out.data, m.data)

	return out
}

// CopyFrom overwrites m with the contents of src.
// Stage 1 (Validate): shapes must match exactly (ErrDimensionMismatch).
// Stage 2 (Execute): bulk copy of the flat buffers.
// Complexity: O(r·c).
func (m *Dense) CopyFrom(src *Dense) error {
	if m.r != src.r || m.c != src.c {
		return fmt.Errorf("Dense.CopyFrom: %dx%d into %dx%d: %w",
			src.r, src.c, m.r, m.c, ErrDimensionMismatch)
	}
	copy(m.data, src.data)

	return nil
}

// MaxAbsDiff returns the largest absolute element-wise difference between m
// and other, or an error if shapes differ. Used by drift checks and tests.
// Complexity: O(r·c).
func (m *Dense) MaxAbsDiff(other *Dense) (float64, error) {
	if m.r != other.r || m.c != other.c {
		return 0, fmt.Errorf("Dense.MaxAbsDiff: %w", ErrDimensionMismatch)
	}
	var worst float64
	for i := range m.data { // fixed order, flat scan
		if d := math.Abs(m.data[i] - other.data[i]); d > worst {
			worst = d
		}
	}

	return worst, nil
}
