package matrix_test

import (
	"math"
	"testing"

	"github.com/qmckit/qmcwalk/matrix"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNewDense_BadShape verifies that non-positive dimensions yield
// ErrBadShape.
func TestNewDense_BadShape(t *testing.T) {
	_, err := matrix.NewDense(0, 3)
	assert.ErrorIs(t, err, matrix.ErrBadShape, "zero rows must error")

	_, err = matrix.NewDense(3, -1)
	assert.ErrorIs(t, err, matrix.ErrBadShape, "negative cols must error")
}

// TestDense_AtSetBounds verifies checked accessors reject bad indices with
// ErrOutOfRange and never panic.
func TestDense_AtSetBounds(t *testing.T) {
	m, err := matrix.NewDense(2, 3)
	require.NoError(t, err)

	_, err = m.At(2, 0)
	assert.ErrorIs(t, err, matrix.ErrOutOfRange, "row past end must error")

	err = m.Set(0, 3, 1.0)
	assert.ErrorIs(t, err, matrix.ErrOutOfRange, "col past end must error")

	_, err = m.Row(-1)
	assert.ErrorIs(t, err, matrix.ErrOutOfRange, "negative row must error")
}

// TestDense_SetRejectsNonFinite enforces the finite-only numeric policy.
func TestDense_SetRejectsNonFinite(t *testing.T) {
	m, err := matrix.NewSquare(2)
	require.NoError(t, err)

	assert.ErrorIs(t, m.Set(0, 0, math.NaN()), matrix.ErrNaNInf, "NaN must be rejected")
	assert.ErrorIs(t, m.Set(0, 0, math.Inf(-1)), matrix.ErrNaNInf, "-Inf must be rejected")
	assert.NoError(t, m.Set(0, 0, 1.5), "finite value must pass")
}

// TestDense_RowIsView verifies Row returns a live view, not a copy.
func TestDense_RowIsView(t *testing.T) {
	m, err := matrix.NewDense(2, 2)
	require.NoError(t, err)

	row, err := m.Row(1)
	require.NoError(t, err)
	row[0] = 42

	got, err := m.At(1, 0)
	require.NoError(t, err)
	assert.Equal(t, 42.0, got, "mutation through Row must reflect in the matrix")
}

// setAll fills m from a row-major literal; test helper.
func setAll(t *testing.T, m *matrix.Dense, vals []float64) {
	t.Helper()
	n := m.Cols()
	for i := 0; i < m.Rows(); i++ {
		for j := 0; j < n; j++ {
			require.NoError(t, m.Set(i, j, vals[i*n+j]))
		}
	}
}

// TestFactorize_NonSquare rejects rectangular input.
func TestFactorize_NonSquare(t *testing.T) {
	m, err := matrix.NewDense(2, 3)
	require.NoError(t, err)

	_, err = matrix.Factorize(m, 0)
	assert.ErrorIs(t, err, matrix.ErrNonSquare)
}

// TestFactorize_Singular verifies that a rank-deficient matrix is reported
// as ErrSingular rather than producing garbage factors.
func TestFactorize_Singular(t *testing.T) {
	m, err := matrix.NewSquare(2)
	require.NoError(t, err)
	setAll(t, m, []float64{1, 2, 2, 4}) // second row = 2 × first row

	_, err = matrix.Factorize(m, 0)
	assert.ErrorIs(t, err, matrix.ErrSingular)
}

// TestFactorize_PivotingHandlesZeroDiagonal checks that a matrix with a zero
// leading diagonal entry (regular, but fatal without row exchanges)
// factorizes cleanly.
func TestFactorize_PivotingHandlesZeroDiagonal(t *testing.T) {
	m, err := matrix.NewSquare(2)
	require.NoError(t, err)
	setAll(t, m, []float64{0, 1, 1, 0}) // permutation matrix, det = -1

	f, err := matrix.Factorize(m, 0)
	require.NoError(t, err, "pivoting must rescue the zero diagonal")

	logAbs, sign := f.LogDet()
	assert.InDelta(t, 0.0, logAbs, 1e-14, "|det| of a permutation is 1")
	assert.Equal(t, -1, sign, "single row swap flips the sign")
}

// TestFactors_LogDet checks log-determinant and sign on a known 3×3 matrix.
func TestFactors_LogDet(t *testing.T) {
	m, err := matrix.NewSquare(3)
	require.NoError(t, err)
	// det = 2·(3·1 − 0) − 1·(1·1 − 0) + 0 = 5
	setAll(t, m, []float64{
		2, 1, 0,
		1, 3, 0,
		0, 0, 1,
	})

	f, err := matrix.Factorize(m, 0)
	require.NoError(t, err)

	logAbs, sign := f.LogDet()
	assert.InDelta(t, math.Log(5), logAbs, 1e-12)
	assert.Equal(t, 1, sign)
}

// TestInverse_ProductIsIdentity verifies A·A⁻¹ ≈ I on a well-conditioned
// matrix.
func TestInverse_ProductIsIdentity(t *testing.T) {
	const n = 4
	m, err := matrix.NewSquare(n)
	require.NoError(t, err)
	// Diagonally dominant, deterministic fill.
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			v := 0.25 * float64((i*7+j*3)%5)
			if i == j {
				v += float64(n)
			}
			require.NoError(t, m.Set(i, j, v))
		}
	}

	inv, err := matrix.Inverse(m, 0)
	require.NoError(t, err)

	// Multiply and compare against the identity.
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			var sum float64
			for k := 0; k < n; k++ {
				a, _ := m.At(i, k)
				b, _ := inv.At(k, j)
				sum += a * b
			}
			want := 0.0
			if i == j {
				want = 1.0
			}
			assert.InDelta(t, want, sum, 1e-12, "product entry (%d,%d)", i, j)
		}
	}
}

// TestInverse_Idempotent verifies that inverting the same matrix twice yields
// identical results (deterministic factorization, no hidden state).
func TestInverse_Idempotent(t *testing.T) {
	m, err := matrix.NewSquare(3)
	require.NoError(t, err)
	setAll(t, m, []float64{
		4, 1, 0.5,
		1, 5, 1,
		0.5, 1, 6,
	})

	first, err := matrix.Inverse(m, 0)
	require.NoError(t, err)
	second, err := matrix.Inverse(m, 0)
	require.NoError(t, err)

	diff, err := first.MaxAbsDiff(second)
	require.NoError(t, err)
	assert.Equal(t, 0.0, diff, "repeated inversion must be bit-identical")
}

// TestDense_CopyFromShapeMismatch rejects shape-incompatible copies.
func TestDense_CopyFromShapeMismatch(t *testing.T) {
	a, err := matrix.NewDense(2, 2)
	require.NoError(t, err)
	b, err := matrix.NewDense(3, 2)
	require.NoError(t, err)

	assert.ErrorIs(t, a.CopyFrom(b), matrix.ErrDimensionMismatch)
}
