package wavefn

import (
	"fmt"
	"math"

	"github.com/qmckit/qmcwalk/lattice"
	"github.com/qmckit/qmcwalk/particle"
)

// TwoBody is the electron–electron correlation factor
//
//	log J₂ = −Σ_{i<j} u(r_ij),  u(r) = a·r/(1+b·r) shifted to zero at rcut.
//
// It caches the per-particle pair sums uat[i] = Σ_{j≠i} u(r_ij) so a
// rejected trial is a pure no-op and an accepted one updates in O(N).
type TwoBody struct {
	f padeFunctor
	n int

	uat  []float64 // committed pair sums
	uOld []float64 // u at the committed distances of the pending particle
	uNew []float64 // u at the trial distances of the pending particle

	pending int // particle with trial sums cached, -1 otherwise
	logVal  float64
}

// NewTwoBody builds the two-body factor over the set's lattice cutoff.
func NewTwoBody(a, b float64, p *particle.Set) (*TwoBody, error) {
	if b <= 0 {
		return nil, fmt.Errorf("wavefn.NewTwoBody: b=%g: %w", b, ErrBadParam)
	}
	j := &TwoBody{
		f:       newPade(a, b, p.Lattice().CutoffRadius()),
		n:       p.N(),
		uat:     make([]float64, p.N()),
		uOld:    make([]float64, p.N()),
		uNew:    make([]float64, p.N()),
		pending: -1,
	}
	if _, err := j.EvaluateLog(p); err != nil {
		return nil, err
	}

	return j, nil
}

// Name returns the component name.
func (j *TwoBody) Name() string { return "J2" }

// EvaluateLog rebuilds the pair sums from the distance table.
// Complexity: O(N²).
func (j *TwoBody) EvaluateLog(p *particle.Set) (float64, error) {
	ee := p.EE()
	for i := 0; i < j.n; i++ {
		var sum float64
		for k := 0; k < j.n; k++ {
			if k == i {
				continue
			}
			sum += j.f.value(ee.At(i, k))
		}
		j.uat[i] = sum
	}
	var total float64
	for _, u := range j.uat {
		total += u
	}
	j.logVal = -0.5 * total // each pair appears in two per-particle sums
	j.pending = -1

	return j.logVal, nil
}

// EvalGrad returns ∇_iel log J₂ at the committed position.
// Complexity: O(N).
func (j *TwoBody) EvalGrad(p *particle.Set, iel int) (lattice.Vec, error) {
	return j.gradAt(p, iel, p.Pos(iel)), nil
}

func (j *TwoBody) gradAt(p *particle.Set, iel int, pos lattice.Vec) lattice.Vec {
	var g lattice.Vec
	for k := 0; k < j.n; k++ {
		if k == iel {
			continue
		}
		dr, r := p.Lattice().MinImage(pos, p.Pos(k))
		if r >= j.f.rcut || r == 0 {
			continue
		}
		_, du, _ := j.f.derivs(r)
		g = g.Add(dr.Scale(du / r))
	}

	return g
}

// RatioGrad evaluates the factor ratio and log-gradient at the trial
// position, caching the trial sums for a possible accept.
func (j *TwoBody) RatioGrad(p *particle.Set, iel int) (float64, lattice.Vec, error) {
	ratio, err := j.Ratio(p, iel)
	if err != nil {
		return 0, lattice.Vec{}, err
	}
	trial, err := p.TrialPos(iel)
	if err != nil {
		return 0, lattice.Vec{}, fmt.Errorf("wavefn J2: %w", err)
	}

	return ratio, j.gradAt(p, iel, trial), nil
}

// Ratio returns exp(−ΔU) for the pending trial of particle iel.
// Complexity: O(N).
func (j *TwoBody) Ratio(p *particle.Set, iel int) (float64, error) {
	if _, err := p.TrialPos(iel); err != nil {
		return 0, fmt.Errorf("wavefn J2: %w", err)
	}
	ee := p.EE()
	var delta float64
	for k := 0; k < j.n; k++ {
		if k == iel {
			j.uOld[k], j.uNew[k] = 0, 0

			continue
		}
		j.uOld[k] = j.f.value(ee.At(iel, k))
		j.uNew[k] = j.f.value(ee.Temp(k))
		delta += j.uNew[k] - j.uOld[k]
	}
	j.pending = iel

	return math.Exp(-delta), nil
}

// AcceptMove folds the cached trial sums into the committed state in O(N).
func (j *TwoBody) AcceptMove(_ *particle.Set, iel int) error {
	if j.pending != iel {
		return fmt.Errorf("wavefn J2: accept for particle %d, pending %d: %w", iel, j.pending, ErrProtocol)
	}
	var newSum float64
	for k := 0; k < j.n; k++ {
		if k == iel {
			continue
		}
		d := j.uNew[k] - j.uOld[k]
		j.uat[k] += d
		newSum += j.uNew[k]
	}
	// the moved particle's sum and the mirrored pair entries change by the
	// same total, so the log value moves by the full delta
	j.logVal -= newSum - j.uat[iel]
	j.uat[iel] = newSum
	j.pending = -1

	return nil
}

// Restore discards the cached trial sums; safe when none are pending.
func (j *TwoBody) Restore(iel int) {
	if j.pending == iel {
		j.pending = -1
	}
}

// EvaluateGL accumulates the log-gradient and laplacian into the set's
// accumulators. Complexity: O(N²).
func (j *TwoBody) EvaluateGL(p *particle.Set) (float64, error) {
	if _, err := j.EvaluateLog(p); err != nil {
		return 0, err
	}
	g, l := p.GradAccum(), p.LapAccum()
	for i := 0; i < j.n; i++ {
		for k := 0; k < j.n; k++ {
			if k == i {
				continue
			}
			dr, r := p.Lattice().MinImage(p.Pos(i), p.Pos(k))
			if r >= j.f.rcut || r == 0 {
				continue
			}
			_, du, d2u := j.f.derivs(r)
			g[i] = g[i].Add(dr.Scale(du / r))
			l[i] -= d2u + 2*du/r
		}
	}

	return j.logVal, nil
}

// Recompute rebuilds the pair sums from scratch.
func (j *TwoBody) Recompute(p *particle.Set) error {
	_, err := j.EvaluateLog(p)

	return err
}
