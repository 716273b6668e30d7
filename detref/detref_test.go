package detref_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/qmckit/qmcwalk/config"
	"github.com/qmckit/qmcwalk/detref"
	"github.com/qmckit/qmcwalk/lattice"
	"github.com/qmckit/qmcwalk/particle"
	"github.com/qmckit/qmcwalk/rng"
	"github.com/qmckit/qmcwalk/spo"
	"github.com/qmckit/qmcwalk/wavefn"
)

func TestRefEngine_SelfCheck(t *testing.T) {
	e, err := detref.NewRefEngine(8, rng.New(11))
	require.NoError(t, err)
	assert.Less(t, e.SelfCheck(), 1e-10)
	assert.Equal(t, 64, e.Size())
}

func TestRefEngine_AcceptKeepsInverseExact(t *testing.T) {
	e, err := detref.NewRefEngine(6, rng.New(23))
	require.NoError(t, err)
	for iel := 0; iel < 6; iel++ {
		_, err := e.Ratio(iel)
		require.NoError(t, err)
		require.NoError(t, e.AcceptMove(iel))
	}
	assert.Less(t, e.SelfCheck(), 1e-10)
}

// The oracle and the incremental engine must produce the same ratio for the
// same trial row when fed from clones of one stream.
func TestRefEngine_RatioAgreesWithIncrementalEngine(t *testing.T) {
	const nels = 8
	stream := rng.New(11)
	ions, lat, err := lattice.BuildIons(config.DefaultCell, [3]int{1, 1, 1})
	require.NoError(t, err)
	els, err := particle.NewSet(lat, ions, particle.BuildElectrons(lat, nels, stream))
	require.NoError(t, err)

	ref, err := detref.NewRefEngine(nels, stream.Clone())
	require.NoError(t, err)
	prod, err := wavefn.NewDeterminant("det", 0, nels, spo.NewPseudoSource(stream.Clone()), 0, els)
	require.NoError(t, err)

	for iel := 0; iel < nels; iel++ {
		require.NoError(t, els.SetActive(iel))
		ok, err := els.MakeMoveAndCheck(iel, lattice.Vec{0.01, -0.01, 0.02})
		require.NoError(t, err)
		if !ok {
			continue
		}
		refRatio, err := ref.Ratio(iel)
		require.NoError(t, err)
		prodRatio, err := prod.Ratio(els, iel)
		require.NoError(t, err)
		assert.InDelta(t, refRatio, prodRatio, 1e-10, "particle %d", iel)

		if iel%2 == 0 {
			require.NoError(t, els.AcceptMove(iel))
			require.NoError(t, ref.AcceptMove(iel))
			require.NoError(t, prod.AcceptMove(els, iel))
		} else {
			els.RejectMove(iel)
		}
	}
}

func TestCheck_CanonicalRunPasses(t *testing.T) {
	res, err := detref.Check(config.DefaultParams(), zap.NewNop())
	require.NoError(t, err)
	assert.True(t, res.Passed)
	assert.LessOrEqual(t, res.PerWalker, res.Tolerance)
	assert.Equal(t, 1, res.Walkers)
}

func TestCheck_IsDeterministic(t *testing.T) {
	a, err := detref.Check(config.DefaultParams(), zap.NewNop())
	require.NoError(t, err)
	b, err := detref.Check(config.DefaultParams(), zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, a.AccumulatedError, b.AccumulatedError)
	assert.Equal(t, a.Accepted, b.Accepted)
}

func TestCheck_TiledLattice(t *testing.T) {
	if testing.Short() {
		t.Skip("large tiling")
	}
	p := config.DefaultParams()
	p.Tiling = [3]int{3, 3, 3}
	res, err := detref.Check(p, zap.NewNop())
	require.NoError(t, err)
	assert.True(t, res.Passed, "per-walker error %g exceeds %g", res.PerWalker, res.Tolerance)
}

func TestCheck_ScalesAcrossWalkers(t *testing.T) {
	p := config.DefaultParams()
	p.Walkers = 3
	res, err := detref.Check(p, zap.NewNop())
	require.NoError(t, err)
	assert.True(t, res.Passed)
	assert.Equal(t, 3, res.Walkers)
}

func TestCheck_RejectsInvalidParams(t *testing.T) {
	p := config.DefaultParams()
	p.Steps = 0
	_, err := detref.Check(p, zap.NewNop())
	assert.ErrorIs(t, err, config.ErrBadParams)
}
