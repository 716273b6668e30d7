// Package detref is the correctness oracle: an independently written,
// unbatched determinant engine driven in lock-step against the production
// engine on a cloned random stream. It deliberately shares no code with the
// incremental engine — the inverse is rebuilt from scratch by Gauss-Jordan
// elimination on every accepted move, and ratios come from full determinant
// evaluations. Slow by design; never used in timing runs.
package detref

import (
	"errors"
	"fmt"
	"math"

	"github.com/qmckit/qmcwalk/rng"
)

// ErrDegenerate is returned when elimination meets a vanishing pivot.
var ErrDegenerate = errors.New("detref: degenerate matrix")

const pivotTol = 1e-12

// RefEngine holds one spin group's orbital rows and their inverse. The
// engine owns a copy of the walker's stream and draws its own trial rows
// from it, exactly as the production engine does from its copy.
type RefEngine struct {
	n      int
	mat    [][]float64 // orbital rows
	inv    [][]float64 // rebuilt in full after every accepted move
	det    float64     // determinant of mat, cached by the last rebuild
	stream *rng.Stream
	psiV   []float64 // trial row of the pending proposal
}

// NewRefEngine draws the initial n×n orbital matrix from the stream
// (uniform, centered on zero) and inverts it.
func NewRefEngine(n int, stream *rng.Stream) (*RefEngine, error) {
	e := &RefEngine{
		n:      n,
		mat:    newSquare(n),
		inv:    newSquare(n),
		stream: stream,
		psiV:   make([]float64, n),
	}
	for i := 0; i < n; i++ {
		stream.FillUniform(e.mat[i])
		for j := 0; j < n; j++ {
			e.mat[i][j] -= 0.5
		}
	}
	if err := e.Recompute(); err != nil {
		return nil, err
	}

	return e, nil
}

func newSquare(n int) [][]float64 {
	m := make([][]float64, n)
	for i := range m {
		m[i] = make([]float64, n)
	}

	return m
}

// N returns the matrix order.
func (e *RefEngine) N() int { return e.n }

// Size returns the number of inverse elements the harness accumulates
// error over.
func (e *RefEngine) Size() int { return e.n * e.n }

// Element returns inverse element i in flat row-major order.
func (e *RefEngine) Element(i int) float64 { return e.inv[i/e.n][i%e.n] }

// Recompute rebuilds the inverse and cached determinant from the stored
// rows.
func (e *RefEngine) Recompute() error {
	det, err := gaussJordan(e.mat, e.inv)
	if err != nil {
		return err
	}
	e.det = det

	return nil
}

// Ratio draws the trial row for particle iel from the engine's own stream
// and returns det(trial matrix)/det(current matrix) by direct evaluation.
func (e *RefEngine) Ratio(iel int) (float64, error) {
	e.stream.FillUniform(e.psiV)
	for j := range e.psiV {
		e.psiV[j] -= 0.5
	}
	trial := newSquare(e.n)
	for i := range trial {
		copy(trial[i], e.mat[i])
	}
	copy(trial[iel], e.psiV)
	detNew, err := determinant(trial)
	if err != nil {
		return 0, err
	}
	if e.det == 0 {
		return 0, fmt.Errorf("detref.Ratio: %w", ErrDegenerate)
	}

	return detNew / e.det, nil
}

// AcceptMove writes the last trial row into the matrix and rebuilds the
// inverse in full.
func (e *RefEngine) AcceptMove(iel int) error {
	copy(e.mat[iel], e.psiV)

	return e.Recompute()
}

// SelfCheck returns the largest deviation of mat·inv from the identity.
func (e *RefEngine) SelfCheck() float64 {
	var worst float64
	for i := 0; i < e.n; i++ {
		for j := 0; j < e.n; j++ {
			var sum float64
			for k := 0; k < e.n; k++ {
				sum += e.mat[i][k] * e.inv[k][j]
			}
			want := 0.0
			if i == j {
				want = 1.0
			}
			if d := math.Abs(sum - want); d > worst {
				worst = d
			}
		}
	}

	return worst
}

// gaussJordan inverts src into dst by full Gauss-Jordan elimination with
// partial pivoting and returns the determinant of src. src is untouched.
func gaussJordan(src, dst [][]float64) (float64, error) {
	n := len(src)
	// augmented work copy [src | I]
	w := make([][]float64, n)
	for i := range w {
		w[i] = make([]float64, 2*n)
		copy(w[i], src[i])
		w[i][n+i] = 1
	}

	det := 1.0
	for col := 0; col < n; col++ {
		pivot := col
		for r := col + 1; r < n; r++ {
			if math.Abs(w[r][col]) > math.Abs(w[pivot][col]) {
				pivot = r
			}
		}
		if math.Abs(w[pivot][col]) < pivotTol {
			return 0, fmt.Errorf("detref: pivot %d: %w", col, ErrDegenerate)
		}
		if pivot != col {
			w[pivot], w[col] = w[col], w[pivot]
			det = -det
		}
		p := w[col][col]
		det *= p
		for j := 0; j < 2*n; j++ {
			w[col][j] /= p
		}
		for r := 0; r < n; r++ {
			if r == col || w[r][col] == 0 {
				continue
			}
			f := w[r][col]
			for j := 0; j < 2*n; j++ {
				w[r][j] -= f * w[col][j]
			}
		}
	}
	for i := 0; i < n; i++ {
		copy(dst[i], w[i][n:])
	}

	return det, nil
}

// determinant evaluates det(src) by Gaussian elimination with partial
// pivoting. src is untouched.
func determinant(src [][]float64) (float64, error) {
	n := len(src)
	w := make([][]float64, n)
	for i := range w {
		w[i] = append([]float64(nil), src[i]...)
	}
	det := 1.0
	for col := 0; col < n; col++ {
		pivot := col
		for r := col + 1; r < n; r++ {
			if math.Abs(w[r][col]) > math.Abs(w[pivot][col]) {
				pivot = r
			}
		}
		if math.Abs(w[pivot][col]) < pivotTol {
			return 0, fmt.Errorf("detref: pivot %d: %w", col, ErrDegenerate)
		}
		if pivot != col {
			w[pivot], w[col] = w[col], w[pivot]
			det = -det
		}
		det *= w[col][col]
		for r := col + 1; r < n; r++ {
			f := w[r][col] / w[col][col]
			for j := col; j < n; j++ {
				w[r][j] -= f * w[col][j]
			}
		}
	}

	return det, nil
}
