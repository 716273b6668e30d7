package detmat

import (
	"fmt"
	"math"

	"github.com/qmckit/qmcwalk/matrix"
)

// Engine maintains an N×N orbital-value matrix together with its inverse,
// the log-determinant, and the bookkeeping for one in-flight row proposal.
//
// Invariant: outside a propose/commit window, inv is the true inverse of mat
// to within the drift accumulated since the last Recompute. Exactly one
// proposal may be pending at a time; commit and discard both close the
// window. An Engine is owned by one walker and is not safe for concurrent
// use.
type Engine struct {
	n   int
	tol float64

	mat *matrix.Dense // orbital values, one row per particle
	inv *matrix.Dense // maintained inverse of mat

	logDet float64 // log|det mat|, kept in sync by commits
	sign   int     // determinant sign, +1 or -1

	// pending proposal window
	hasPending   bool
	pendingRow   int
	pendingRatio float64
	pendingVals  []float64

	updates int // committed row updates since the last Recompute

	// scratch reused across commits to keep the hot path allocation-free
	colScratch []float64
	tScratch   []float64
}

// New builds an engine over a copy of the square matrix m and performs the
// mandatory initial Recompute (the inverse must exist before any incremental
// update). Pass tol <= 0 for matrix.DefaultPivotTol.
//
// Complexity: O(N³).
func New(m *matrix.Dense, tol float64) (*Engine, error) {
	n := m.Rows()
	if n != m.Cols() {
		return nil, fmt.Errorf("detmat.New: %dx%d: %w", m.Rows(), m.Cols(), matrix.ErrNonSquare)
	}
	if tol <= 0 {
		tol = matrix.DefaultPivotTol
	}
	e := &Engine{
		n:           n,
		tol:         tol,
		mat:         m.Clone(),
		pendingVals: make([]float64, n),
		colScratch:  make([]float64, n),
		tScratch:    make([]float64, n),
	}
	if err := e.Recompute(); err != nil {
		return nil, err
	}

	return e, nil
}

// N returns the matrix order.
func (e *Engine) N() int { return e.n }

// Size returns the number of inverse elements (N²), the unit the correctness
// harness accumulates error over.
func (e *Engine) Size() int { return e.n * e.n }

// Recompute refactorizes the stored matrix from scratch, replacing the
// maintained inverse and resetting the drift counter. Any pending proposal
// is dropped. Fatal (ErrSingular) if the matrix is singular under tol.
//
// Callers schedule this on a fixed cadence (once per outer step) to bound
// the round-off accumulated by CommitRowUpdate.
//
// Complexity: O(N³).
func (e *Engine) Recompute() error {
	inv, logDet, sign, err := matrix.InverseWithLogDet(e.mat, e.tol)
	if err != nil {
		return fmt.Errorf("detmat.Recompute: %w", err)
	}
	e.inv = inv
	e.logDet = logDet
	e.sign = sign
	e.updates = 0
	e.hasPending = false

	return nil
}

// ProposeRowUpdate computes the determinant ratio produced by replacing row
// `row` of the matrix with newRow, without mutating stored state, and opens
// the proposal window for a matching commit.
//
// The ratio is the dot product of the trial row against column `row` of the
// maintained inverse: det(A')/det(A) = Σⱼ uⱼ · A⁻¹[j][row].
//
// Re-proposing overwrites any pending proposal (a rejected trial needs no
// explicit discard before the next one). A non-finite ratio is a fatal
// numerical fault.
//
// Complexity: O(N).
func (e *Engine) ProposeRowUpdate(row int, newRow []float64) (float64, error) {
	if row < 0 || row >= e.n {
		return 0, fmt.Errorf("detmat.ProposeRowUpdate: row %d of %d: %w", row, e.n, ErrRowRange)
	}
	if len(newRow) != e.n {
		return 0, fmt.Errorf("detmat.ProposeRowUpdate: len %d want %d: %w", len(newRow), e.n, ErrRowLength)
	}

	// ratio = u · (column `row` of inv); strided walk down the column.
	invd := e.inv.Data()
	var ratio float64
	for j := 0; j < e.n; j++ {
		ratio += newRow[j] * invd[j*e.n+row]
	}
	if math.IsNaN(ratio) || math.IsInf(ratio, 0) {
		return 0, fmt.Errorf("detmat.ProposeRowUpdate: row %d: %w", row, ErrNonFiniteRatio)
	}

	// Open the proposal window.
	e.hasPending = true
	e.pendingRow = row
	e.pendingRatio = ratio
	copy(e.pendingVals, newRow)

	return ratio, nil
}

// CommitRowUpdate applies the pending rank-1 update to the maintained
// inverse (Sherman–Morrison) and writes the new row into the stored matrix.
//
// Preconditions (protocol, violations are fatal):
//   - a proposal is pending (ErrNoPendingProposal otherwise);
//   - row, newRow and ratio match that proposal exactly
//     (ErrProposalMismatch otherwise).
//
// On any error the engine state is untouched.
//
// Update rule for replacing row k with u, given tⱼ = Σₘ uₘ·A⁻¹[m][j]:
//
//	A'⁻¹[i][j] = A⁻¹[i][j] − A⁻¹[i][k] · (tⱼ − δₖⱼ) / ratio
//
// Complexity: O(N²).
func (e *Engine) CommitRowUpdate(row int, newRow []float64, ratio float64) error {
	// Stage 1: protocol validation, no mutation on failure.
	if !e.hasPending {
		return fmt.Errorf("detmat.CommitRowUpdate: row %d: %w", row, ErrNoPendingProposal)
	}
	if row != e.pendingRow || ratio != e.pendingRatio || len(newRow) != e.n {
		return fmt.Errorf("detmat.CommitRowUpdate: row %d ratio %g: %w", row, ratio, ErrProposalMismatch)
	}
	for j := 0; j < e.n; j++ {
		if newRow[j] != e.pendingVals[j] {
			return fmt.Errorf("detmat.CommitRowUpdate: row value %d: %w", j, ErrProposalMismatch)
		}
	}
	if ratio == 0 { // accepted move with zero ratio would destroy the inverse
		return fmt.Errorf("detmat.CommitRowUpdate: zero ratio: %w", matrix.ErrSingular)
	}

	n, k := e.n, row
	u := e.pendingVals
	invd := e.inv.Data()

	// Stage 2: save the outgoing inverse column k (it is overwritten below).
	col := e.colScratch
	for i := 0; i < n; i++ {
		col[i] = invd[i*n+k]
	}

	// Stage 3: t = uᵀ·A⁻¹, accumulated row-by-row for cache friendliness.
	tv := e.tScratch
	for j := 0; j < n; j++ {
		tv[j] = 0
	}
	for m := 0; m < n; m++ {
		um := u[m]
		if um == 0 {
			continue
		}
		rowM := invd[m*n : (m+1)*n]
		for j := 0; j < n; j++ {
			tv[j] += um * rowM[j]
		}
	}

	// Stage 4: fold in 1/ratio and the Kronecker delta at j = k.
	c := 1.0 / ratio
	for j := 0; j < n; j++ {
		tv[j] *= c
	}
	tv[k] -= c

	// Stage 5: rank-1 subtraction inv[i][j] -= col[i]·tv[j].
	for i := 0; i < n; i++ {
		ci := col[i]
		if ci == 0 {
			continue
		}
		rowI := invd[i*n : (i+1)*n]
		for j := 0; j < n; j++ {
			rowI[j] -= ci * tv[j]
		}
	}

	// Stage 6: write the accepted row into the stored matrix, update the
	// determinant bookkeeping, close the proposal window.
	matRow, err := e.mat.Row(k)
	if err != nil {
		return fmt.Errorf("detmat.CommitRowUpdate: %w", err)
	}
	copy(matRow, u)
	e.logDet += math.Log(math.Abs(ratio))
	if ratio < 0 {
		e.sign = -e.sign
	}
	e.updates++
	e.hasPending = false

	return nil
}

// DiscardProposal closes the proposal window with no side effects. Safe to
// call when nothing is pending (a rejected boundary move never proposed).
func (e *Engine) DiscardProposal() { e.hasPending = false }

// HasPending reports whether a proposal window is open.
func (e *Engine) HasPending() bool { return e.hasPending }

// Inverse returns the maintained inverse. Live view, read-only by contract;
// the correctness harness walks it element by element.
func (e *Engine) Inverse() *matrix.Dense { return e.inv }

// InverseElement returns the i-th element of the inverse in flat row-major
// order, the indexing convention of the accumulated-error check.
func (e *Engine) InverseElement(i int) float64 { return e.inv.Data()[i] }

// Matrix returns a copy of the stored orbital matrix.
func (e *Engine) Matrix() *matrix.Dense { return e.mat.Clone() }

// LogDet returns log|det| and the determinant sign as maintained through
// commits since the last Recompute.
func (e *Engine) LogDet() (float64, int) { return e.logDet, e.sign }

// UpdatesSinceRecompute returns the number of committed row updates since
// the last full recompute; the cadence policy watches this counter.
func (e *Engine) UpdatesSinceRecompute() int { return e.updates }

// CheckMatrix recomputes the inverse from scratch and returns the largest
// absolute deviation of the maintained inverse from it: the accumulated
// drift. It does not modify engine state.
//
// Complexity: O(N³).
func (e *Engine) CheckMatrix() (float64, error) {
	fresh, err := matrix.Inverse(e.mat, e.tol)
	if err != nil {
		return 0, fmt.Errorf("detmat.CheckMatrix: %w", err)
	}
	diff, err := e.inv.MaxAbsDiff(fresh)
	if err != nil {
		return 0, fmt.Errorf("detmat.CheckMatrix: %w", err)
	}

	return diff, nil
}
