package detmat_test

import (
	"math"
	"testing"

	"github.com/qmckit/qmcwalk/detmat"
	"github.com/qmckit/qmcwalk/matrix"
	"github.com/qmckit/qmcwalk/rng"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// randomMatrix fills an n×n matrix with uniform deviates in [-0.5, 0.5),
// the fill the benchmark determinants use. Deterministic for a given seed.
func randomMatrix(t *testing.T, n int, seed int64) *matrix.Dense {
	t.Helper()
	s := rng.New(seed)
	m, err := matrix.NewSquare(n)
	require.NoError(t, err)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			require.NoError(t, m.Set(i, j, s.Float64()-0.5))
		}
	}

	return m
}

// randomRow draws a trial row the same way.
func randomRow(n int, s *rng.Stream) []float64 {
	row := make([]float64, n)
	for j := range row {
		row[j] = s.Float64() - 0.5
	}

	return row
}

// TestNew_RequiresSquare rejects rectangular input.
func TestNew_RequiresSquare(t *testing.T) {
	m, err := matrix.NewDense(2, 3)
	require.NoError(t, err)

	_, err = detmat.New(m, 0)
	assert.ErrorIs(t, err, matrix.ErrNonSquare)
}

// TestNew_SingularIsFatal verifies that a singular initial matrix fails the
// mandatory first recompute.
func TestNew_SingularIsFatal(t *testing.T) {
	m, err := matrix.NewSquare(2)
	require.NoError(t, err)
	require.NoError(t, m.Set(0, 0, 1))
	require.NoError(t, m.Set(0, 1, 2))
	require.NoError(t, m.Set(1, 0, 2))
	require.NoError(t, m.Set(1, 1, 4))

	_, err = detmat.New(m, 0)
	assert.ErrorIs(t, err, matrix.ErrSingular)
}

// TestPropose_TrivialRowRoundTrip: proposing a row equal to the current row
// yields ratio ≈ 1, and committing it reproduces the identical inverse
// within tolerance.
func TestPropose_TrivialRowRoundTrip(t *testing.T) {
	const n = 8
	m := randomMatrix(t, n, 11)
	e, err := detmat.New(m, 0)
	require.NoError(t, err)
	before := e.Inverse().Clone()

	row, err := m.Row(3)
	require.NoError(t, err)
	same := append([]float64(nil), row...)

	ratio, err := e.ProposeRowUpdate(3, same)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, ratio, 1e-12, "replacing a row with itself has unit ratio")

	require.NoError(t, e.CommitRowUpdate(3, same, ratio))

	diff, err := e.Inverse().MaxAbsDiff(before)
	require.NoError(t, err)
	assert.Less(t, diff, 1e-12, "trivial commit must reproduce the inverse")
}

// TestCommit_MatchesDirectInverse: after a sequence of accepted row updates,
// the incrementally maintained inverse agrees with a fresh inversion of the
// fully updated matrix to 1e-10.
func TestCommit_MatchesDirectInverse(t *testing.T) {
	const (
		n     = 12
		moves = 40
	)
	e, err := detmat.New(randomMatrix(t, n, 11), 0)
	require.NoError(t, err)

	s := rng.New(17)
	for mc := 0; mc < moves; mc++ {
		row := mc % n
		trial := randomRow(n, s)
		ratio, err := e.ProposeRowUpdate(row, trial)
		require.NoError(t, err)
		if math.Abs(ratio) < 1e-6 {
			e.DiscardProposal() // skip near-singular trials, as a driver would

			continue
		}
		require.NoError(t, e.CommitRowUpdate(row, trial, ratio))
	}

	fresh, err := matrix.Inverse(e.Matrix(), 0)
	require.NoError(t, err)
	diff, err := e.Inverse().MaxAbsDiff(fresh)
	require.NoError(t, err)
	assert.Less(t, diff, 1e-10, "incremental inverse drifted past tolerance")
}

// TestCommit_RatioTracksLogDet verifies that committed ratios keep the
// running log-determinant in sync with a direct factorization.
func TestCommit_RatioTracksLogDet(t *testing.T) {
	const n = 6
	e, err := detmat.New(randomMatrix(t, n, 23), 0)
	require.NoError(t, err)

	s := rng.New(29)
	for mc := 0; mc < 10; mc++ {
		trial := randomRow(n, s)
		ratio, err := e.ProposeRowUpdate(mc%n, trial)
		require.NoError(t, err)
		require.NoError(t, e.CommitRowUpdate(mc%n, trial, ratio))
	}

	f, err := matrix.Factorize(e.Matrix(), 0)
	require.NoError(t, err)
	wantLog, wantSign := f.LogDet()
	gotLog, gotSign := e.LogDet()

	assert.InDelta(t, wantLog, gotLog, 1e-9, "log|det| out of sync")
	assert.Equal(t, wantSign, gotSign, "determinant sign out of sync")
}

// TestDiscard_IsBitIdenticalNoOp: a proposed-then-discarded trial leaves the
// matrix and inverse bit-identical to the state before the trial began.
func TestDiscard_IsBitIdenticalNoOp(t *testing.T) {
	const n = 8
	e, err := detmat.New(randomMatrix(t, n, 11), 0)
	require.NoError(t, err)

	matBefore := e.Matrix()
	invBefore := e.Inverse().Clone()

	s := rng.New(41)
	_, err = e.ProposeRowUpdate(5, randomRow(n, s))
	require.NoError(t, err)
	e.DiscardProposal()

	matDiff, err := e.Matrix().MaxAbsDiff(matBefore)
	require.NoError(t, err)
	invDiff, err := e.Inverse().MaxAbsDiff(invBefore)
	require.NoError(t, err)
	assert.Equal(t, 0.0, matDiff, "matrix must be bit-identical after discard")
	assert.Equal(t, 0.0, invDiff, "inverse must be bit-identical after discard")
	assert.Zero(t, e.UpdatesSinceRecompute())
}

// TestRecompute_Idempotent: two consecutive recomputes yield identical
// inverses.
func TestRecompute_Idempotent(t *testing.T) {
	e, err := detmat.New(randomMatrix(t, 10, 11), 0)
	require.NoError(t, err)

	require.NoError(t, e.Recompute())
	first := e.Inverse().Clone()
	require.NoError(t, e.Recompute())

	diff, err := e.Inverse().MaxAbsDiff(first)
	require.NoError(t, err)
	assert.Equal(t, 0.0, diff, "recompute must be deterministic")
}

// TestRecompute_ResetsDriftCounter verifies the cadence bookkeeping.
func TestRecompute_ResetsDriftCounter(t *testing.T) {
	const n = 5
	e, err := detmat.New(randomMatrix(t, n, 11), 0)
	require.NoError(t, err)

	s := rng.New(13)
	for mc := 0; mc < 3; mc++ {
		trial := randomRow(n, s)
		ratio, err := e.ProposeRowUpdate(mc, trial)
		require.NoError(t, err)
		require.NoError(t, e.CommitRowUpdate(mc, trial, ratio))
	}
	assert.Equal(t, 3, e.UpdatesSinceRecompute())

	require.NoError(t, e.Recompute())
	assert.Equal(t, 0, e.UpdatesSinceRecompute())

	drift, err := e.CheckMatrix()
	require.NoError(t, err)
	assert.Equal(t, 0.0, drift, "freshly recomputed inverse has zero drift")
}

// TestCommit_ProtocolViolations: commit without proposal, commit for a
// different row, and commit with altered values must all refuse without
// mutating state.
func TestCommit_ProtocolViolations(t *testing.T) {
	const n = 6
	e, err := detmat.New(randomMatrix(t, n, 11), 0)
	require.NoError(t, err)
	invBefore := e.Inverse().Clone()

	s := rng.New(19)
	trial := randomRow(n, s)

	// No pending proposal at all.
	err = e.CommitRowUpdate(2, trial, 1.0)
	assert.ErrorIs(t, err, detmat.ErrNoPendingProposal)

	ratio, err := e.ProposeRowUpdate(2, trial)
	require.NoError(t, err)

	// Wrong row.
	err = e.CommitRowUpdate(3, trial, ratio)
	assert.ErrorIs(t, err, detmat.ErrProposalMismatch)

	// Wrong ratio.
	err = e.CommitRowUpdate(2, trial, ratio*1.0000001)
	assert.ErrorIs(t, err, detmat.ErrProposalMismatch)

	// Altered row values.
	altered := append([]float64(nil), trial...)
	altered[0] += 1e-9
	err = e.CommitRowUpdate(2, altered, ratio)
	assert.ErrorIs(t, err, detmat.ErrProposalMismatch)

	// Nothing leaked into the inverse.
	diff, err := e.Inverse().MaxAbsDiff(invBefore)
	require.NoError(t, err)
	assert.Equal(t, 0.0, diff, "failed commits must not mutate the inverse")
}

// TestPropose_Validation covers index and length checks plus the non-finite
// ratio fault.
func TestPropose_Validation(t *testing.T) {
	const n = 4
	e, err := detmat.New(randomMatrix(t, n, 11), 0)
	require.NoError(t, err)

	_, err = e.ProposeRowUpdate(-1, make([]float64, n))
	assert.ErrorIs(t, err, detmat.ErrRowRange)

	_, err = e.ProposeRowUpdate(n, make([]float64, n))
	assert.ErrorIs(t, err, detmat.ErrRowRange)

	_, err = e.ProposeRowUpdate(0, make([]float64, n-1))
	assert.ErrorIs(t, err, detmat.ErrRowLength)

	bad := make([]float64, n)
	bad[1] = math.Inf(1)
	_, err = e.ProposeRowUpdate(0, bad)
	assert.ErrorIs(t, err, detmat.ErrNonFiniteRatio)
}

// TestPropose_OverwritesPending: a second proposal replaces the first, so a
// commit matching the first must refuse.
func TestPropose_OverwritesPending(t *testing.T) {
	const n = 5
	e, err := detmat.New(randomMatrix(t, n, 11), 0)
	require.NoError(t, err)

	s := rng.New(31)
	first := randomRow(n, s)
	second := randomRow(n, s)

	r1, err := e.ProposeRowUpdate(1, first)
	require.NoError(t, err)
	r2, err := e.ProposeRowUpdate(1, second)
	require.NoError(t, err)

	assert.ErrorIs(t, e.CommitRowUpdate(1, first, r1), detmat.ErrProposalMismatch)
	assert.NoError(t, e.CommitRowUpdate(1, second, r2))
}
