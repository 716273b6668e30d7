package detref

import (
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/qmckit/qmcwalk/config"
	"github.com/qmckit/qmcwalk/lattice"
	"github.com/qmckit/qmcwalk/particle"
	"github.com/qmckit/qmcwalk/rng"
	"github.com/qmckit/qmcwalk/spo"
	"github.com/qmckit/qmcwalk/wavefn"
)

// epsilon is the double-precision machine epsilon.
const epsilon = 2.220446049250313e-16

// Tolerance is the per-walker accumulated-error bound of the verification
// entry point.
const Tolerance = epsilon * 6e8

// Result is the outcome of one verification run.
type Result struct {
	// AccumulatedError is the summed absolute difference between the
	// production and reference inverse elements over all walkers.
	AccumulatedError float64

	// PerWalker is AccumulatedError scaled by the walker count; it is what
	// gets compared against Tolerance.
	PerWalker float64

	Tolerance float64
	Accepted  int64
	Walkers   int
	Passed    bool
}

// Check drives the production inverse engine and the reference oracle
// through an identical move sequence on cloned streams and accumulates the
// element-wise deviation of their inverses.
//
// The walker's stream is cloned twice at the same state, once into each
// engine, so both draw identical initial matrices and identical trial rows;
// the harness keeps the original stream for displacements and the
// acceptance array. The acceptance array is drawn once per walker, before
// the step loop, and a move is accepted when its entry exceeds the
// configured threshold.
func Check(p config.Params, log *zap.Logger) (*Result, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	ions, lat, err := lattice.BuildIons(p.Cell, p.Tiling)
	if err != nil {
		return nil, err
	}
	nels := p.Nels()
	sqrttau := math.Sqrt(p.Tau)

	res := &Result{Tolerance: Tolerance, Walkers: p.Walkers}
	for iw := 0; iw < p.Walkers; iw++ {
		stream := rng.ForWalker(p.Seed, iw)
		els, err := particle.NewSet(lat, ions, particle.BuildElectrons(lat, nels, stream))
		if err != nil {
			return nil, fmt.Errorf("detref.Check: walker %d: %w", iw, err)
		}

		ref, err := NewRefEngine(nels, stream.Clone())
		if err != nil {
			return nil, fmt.Errorf("detref.Check: walker %d: %w", iw, err)
		}
		prod, err := wavefn.NewDeterminant("det", 0, nels, spo.NewPseudoSource(stream.Clone()), 0, els)
		if err != nil {
			return nil, fmt.Errorf("detref.Check: walker %d: %w", iw, err)
		}
		log.Debug("engines built",
			zap.Int("walker", iw),
			zap.Float64("ref_self_check", ref.SelfCheck()),
		)

		ur := make([]float64, nels)
		stream.FillUniform(ur)
		delta := make([]float64, 3*nels)

		for mc := 0; mc < p.Steps; mc++ {
			if err := ref.Recompute(); err != nil {
				return nil, fmt.Errorf("detref.Check: walker %d step %d: %w", iw, mc, err)
			}
			if err := prod.Recompute(els); err != nil {
				return nil, fmt.Errorf("detref.Check: walker %d step %d: %w", iw, mc, err)
			}
			for sub := 0; sub < p.Substeps; sub++ {
				stream.FillNormal(delta)
				for iel := 0; iel < nels; iel++ {
					if err := els.SetActive(iel); err != nil {
						return nil, err
					}
					dr := lattice.Vec{
						sqrttau * delta[3*iel],
						sqrttau * delta[3*iel+1],
						sqrttau * delta[3*iel+2],
					}
					ok, err := els.MakeMoveAndCheck(iel, dr)
					if err != nil {
						return nil, err
					}
					if !ok {
						continue
					}
					if _, err := ref.Ratio(iel); err != nil {
						return nil, fmt.Errorf("detref.Check: walker %d: %w", iw, err)
					}
					if _, err := prod.Ratio(els, iel); err != nil {
						return nil, fmt.Errorf("detref.Check: walker %d: %w", iw, err)
					}
					if ur[iel] > p.Accept {
						if err := els.AcceptMove(iel); err != nil {
							return nil, err
						}
						if err := ref.AcceptMove(iel); err != nil {
							return nil, fmt.Errorf("detref.Check: walker %d: %w", iw, err)
						}
						if err := prod.AcceptMove(els, iel); err != nil {
							return nil, fmt.Errorf("detref.Check: walker %d: %w", iw, err)
						}
						res.Accepted++
					} else {
						els.RejectMove(iel)
					}
				}
			}
			els.DonePbyP()
		}

		eng := prod.Engine()
		for i := 0; i < ref.Size(); i++ {
			res.AccumulatedError += math.Abs(ref.Element(i) - eng.InverseElement(i))
		}
	}

	res.PerWalker = res.AccumulatedError / float64(p.Walkers)
	res.Passed = res.PerWalker <= res.Tolerance
	log.Info("verification complete",
		zap.Float64("accumulated_error", res.AccumulatedError),
		zap.Float64("per_walker", res.PerWalker),
		zap.Float64("tolerance", res.Tolerance),
		zap.Int64("accepted", res.Accepted),
		zap.Bool("passed", res.Passed),
	)

	return res, nil
}
