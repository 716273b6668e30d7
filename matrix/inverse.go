// Package matrix - inversion via pivoted LU and column solves, following
// strict fail-fast and Go-idiomatic patterns.
package matrix

import "fmt"

// Inverse returns the inverse of the square matrix m, or an error if m is not
// square or singular under tol (pass tol <= 0 for DefaultPivotTol).
//
// Blueprint:
//
//	Stage 1 (Decompose): P·A = L·U via Factorize.
//	Stage 2 (Prepare): allocate result matrix and scratch slices.
//	Stage 3 (Execute): for each identity column eᵢ, solve A·x = eᵢ.
//	Stage 4 (Finalize): assemble columns into the inverse and return.
//
// Complexity: O(n³) time, O(n²) memory.
func Inverse(m *Dense, tol float64) (*Dense, error) {
	inv, _, _, err := InverseWithLogDet(m, tol)

	return inv, err
}

// InverseWithLogDet computes the inverse together with log|det A| and the
// determinant sign in a single factorization pass. The determinant engine
// needs all three on every recompute, so they are produced together rather
// than factorizing twice.
//
// Complexity: O(n³) time, O(n²) memory.
func InverseWithLogDet(m *Dense, tol float64) (inv *Dense, logAbsDet float64, sign int, err error) {
	// Stage 1: LU decomposition (validates shape; fail-fast on singular)
	f, err := Factorize(m, tol)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("Inverse: %w", err)
	}
	logAbsDet, sign = f.LogDet()

	// Stage 2: Prepare result container and workspaces
	n := m.Rows()
	inv, err = NewSquare(n)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("Inverse: %w", err)
	}
	e := make([]float64, n) // current identity column
	x := make([]float64, n) // solution scratch

	// Stage 3: Compute each column of the inverse
	var col, i int
	for col = 0; col < n; col++ {
		for i = 0; i < n; i++ { // rebuild e_col (SolveInto permutes its rhs)
			e[i] = 0
		}
		e[col] = 1
		if err = f.SolveInto(x, e); err != nil {
			return nil, 0, 0, fmt.Errorf("Inverse: column %d: %w", col, err)
		}
		for i = 0; i < n; i++ { // write solution into column col
			inv.data[i*n+col] = x[i]
		}
	}

	// Stage 4: Return assembled inverse
	return inv, logAbsDet, sign, nil
}
