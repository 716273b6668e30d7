package matrix

import (
	"fmt"
	"math"
)

// DefaultPivotTol is the smallest pivot magnitude accepted during
// factorization. Anything below it classifies the matrix as singular.
const DefaultPivotTol = 1e-12

// Factors holds a P·A = L·U factorization with partial pivoting, packed in
// the usual compact form: L (unit lower triangular, implicit ones) and U share
// one matrix; piv records the row exchanges; parity tracks det(P).
type Factors struct {
	lu     *Dense // packed L\U, n×n
	piv    []int  // piv[k] = row swapped into position k at step k
	parity int    // +1 for an even number of swaps, -1 for odd
}

// Factorize computes the pivoted LU factorization of the square matrix m.
//
// Blueprint:
//
//	Stage 1 (Validate): ensure m is square.
//	Stage 2 (Prepare): clone m into the packed workspace.
//	Stage 3 (Execute): for each column k, select the largest-magnitude pivot
//	        at or below the diagonal, swap rows, eliminate below the pivot.
//	Stage 4 (Finalize): return Factors, or ErrSingular if the best pivot
//	        candidate falls under tol.
//
// Partial pivoting is required here: the Slater matrices this package serves
// carry rows in arbitrary magnitude order, and the factorization must stay
// stable across thousands of recomputes for the drift bound to hold.
// Pass tol <= 0 to use DefaultPivotTol.
//
// Complexity: O(n³) time, O(n²) memory, where n = m.Rows().
func Factorize(m *Dense, tol float64) (*Factors, error) {
	// Stage 1: Validate input shape
	n := m.Rows()
	if n != m.Cols() {
		return nil, fmt.Errorf("Factorize: %dx%d: %w", m.Rows(), m.Cols(), ErrNonSquare)
	}
	if tol <= 0 {
		tol = DefaultPivotTol
	}

	// Stage 2: Prepare packed workspace
	f := &Factors{lu: m.Clone(), piv: make([]int, n), parity: 1}
	a := f.lu.data // flat row-major view of the workspace

	// Stage 3: Eliminate column by column
	var (
		k, i, j int     // loop indices
		p       int     // pivot row for the current column
		best    float64 // best pivot magnitude seen in the column
		mult    float64 // elimination multiplier, stored into L
	)
	for k = 0; k < n; k++ {
		// Select the largest-magnitude pivot at or below the diagonal.
		p, best = k, math.Abs(a[k*n+k])
		for i = k + 1; i < n; i++ {
			if v := math.Abs(a[i*n+k]); v > best {
				p, best = i, v
			}
		}
		if best < tol { // every candidate under tolerance: singular
			return nil, fmt.Errorf("Factorize: column %d pivot %.3e under tol %.3e: %w", k, best, tol, ErrSingular)
		}
		f.piv[k] = p
		if p != k { // exchange rows k and p in the packed workspace
			rowK, rowP := a[k*n:(k+1)*n], a[p*n:(p+1)*n]
			for j = 0; j < n; j++ {
				rowK[j], rowP[j] = rowP[j], rowK[j]
			}
			f.parity = -f.parity
		}
		// Eliminate entries below the pivot; multipliers land in L's slot.
		pivot := a[k*n+k]
		for i = k + 1; i < n; i++ {
			mult = a[i*n+k] / pivot
			a[i*n+k] = mult // L[i][k]
			if mult == 0 {
				continue // nothing to subtract from this row
			}
			for j = k + 1; j < n; j++ {
				a[i*n+j] -= mult * a[k*n+j]
			}
		}
	}

	// Stage 4: Finalize
	return f, nil
}

// LogDet returns log|det A| and the determinant sign (+1 or -1) from the
// factorization: the product of U's diagonal times the pivot parity.
// Complexity: O(n).
func (f *Factors) LogDet() (logAbs float64, sign int) {
	n := f.lu.r
	sign = f.parity
	for k := 0; k < n; k++ {
		d := f.lu.data[k*n+k]
		if d < 0 {
			sign = -sign
			d = -d
		}
		logAbs += math.Log(d)
	}

	return logAbs, sign
}

// SolveInto solves A·x = b using the stored factors, writing the solution
// into x (len n). b is consumed as the right-hand side and left permuted.
//
// Stage 1: apply the recorded row exchanges to b.
// Stage 2: forward substitution L·y = P·b (unit diagonal).
// Stage 3: backward substitution U·x = y.
//
// Complexity: O(n²).
func (f *Factors) SolveInto(x, b []float64) error {
	n := f.lu.r
	if len(x) != n || len(b) != n {
		return fmt.Errorf("Factors.SolveInto: rhs length %d for order %d: %w", len(b), n, ErrDimensionMismatch)
	}
	a := f.lu.data

	// Stage 1: permute b in place, replaying the recorded exchanges.
	for k := 0; k < n; k++ {
		if p := f.piv[k]; p != k {
			b[k], b[p] = b[p], b[k]
		}
	}

	// Stage 2: forward substitution (L has implicit unit diagonal).
	var sum float64
	for i := 0; i < n; i++ {
		sum = b[i]
		for k := 0; k < i; k++ {
			sum -= a[i*n+k] * x[k]
		}
		x[i] = sum
	}

	// Stage 3: backward substitution.
	for i := n - 1; i >= 0; i-- {
		sum = x[i]
		for k := i + 1; k < n; k++ {
			sum -= a[i*n+k] * x[k]
		}
		x[i] = sum / a[i*n+i]
	}

	return nil
}
