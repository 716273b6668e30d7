package wavefn

import (
	"fmt"
	"math"

	"github.com/qmckit/qmcwalk/lattice"
	"github.com/qmckit/qmcwalk/particle"
)

// OneBody is the electron–ion correlation factor
//
//	log J₁ = −Σ_i Σ_a u(r_ia),  u(r) = a·exp(−b·r) shifted to zero at rcut.
//
// Same caching discipline as TwoBody, but only the moved electron's row
// changes (ions are fixed), so accept is O(nIons).
type OneBody struct {
	f  expFunctor
	n  int
	nI int

	uat     []float64 // Σ_a u(r_ia) per electron
	newSum  float64   // trial-row sum of the pending electron
	pending int
	logVal  float64
}

// NewOneBody builds the one-body factor over the set's lattice cutoff.
func NewOneBody(a, b float64, p *particle.Set) (*OneBody, error) {
	if b <= 0 {
		return nil, fmt.Errorf("wavefn.NewOneBody: b=%g: %w", b, ErrBadParam)
	}
	j := &OneBody{
		f:       newExp(a, b, p.Lattice().CutoffRadius()),
		n:       p.N(),
		nI:      p.NIons(),
		uat:     make([]float64, p.N()),
		pending: -1,
	}
	if _, err := j.EvaluateLog(p); err != nil {
		return nil, err
	}

	return j, nil
}

// Name returns the component name.
func (j *OneBody) Name() string { return "J1" }

// EvaluateLog rebuilds the per-electron ion sums. Complexity: O(N·nIons).
func (j *OneBody) EvaluateLog(p *particle.Set) (float64, error) {
	ei := p.EI()
	var total float64
	for i := 0; i < j.n; i++ {
		var sum float64
		for a := 0; a < j.nI; a++ {
			sum += j.f.value(ei.At(i, a))
		}
		j.uat[i] = sum
		total += sum
	}
	j.logVal = -total
	j.pending = -1

	return j.logVal, nil
}

// EvalGrad returns ∇_iel log J₁ at the committed position.
func (j *OneBody) EvalGrad(p *particle.Set, iel int) (lattice.Vec, error) {
	return j.gradAt(p, p.Pos(iel)), nil
}

func (j *OneBody) gradAt(p *particle.Set, pos lattice.Vec) lattice.Vec {
	var g lattice.Vec
	for a := 0; a < j.nI; a++ {
		dr, r := p.Lattice().MinImage(pos, p.Ion(a))
		if r >= j.f.rcut || r == 0 {
			continue
		}
		_, du, _ := j.f.derivs(r)
		g = g.Add(dr.Scale(du / r))
	}

	return g
}

// RatioGrad evaluates the ratio and log-gradient at the trial position.
func (j *OneBody) RatioGrad(p *particle.Set, iel int) (float64, lattice.Vec, error) {
	ratio, err := j.Ratio(p, iel)
	if err != nil {
		return 0, lattice.Vec{}, err
	}
	trial, err := p.TrialPos(iel)
	if err != nil {
		return 0, lattice.Vec{}, fmt.Errorf("wavefn J1: %w", err)
	}

	return ratio, j.gradAt(p, trial), nil
}

// Ratio returns exp(−ΔU) for the pending trial. Complexity: O(nIons).
func (j *OneBody) Ratio(p *particle.Set, iel int) (float64, error) {
	if _, err := p.TrialPos(iel); err != nil {
		return 0, fmt.Errorf("wavefn J1: %w", err)
	}
	ei := p.EI()
	var sum float64
	for a := 0; a < j.nI; a++ {
		sum += j.f.value(ei.Temp(a))
	}
	j.newSum = sum
	j.pending = iel

	return math.Exp(-(sum - j.uat[iel])), nil
}

// AcceptMove commits the cached trial-row sum in O(1).
func (j *OneBody) AcceptMove(_ *particle.Set, iel int) error {
	if j.pending != iel {
		return fmt.Errorf("wavefn J1: accept for particle %d, pending %d: %w", iel, j.pending, ErrProtocol)
	}
	j.logVal -= j.newSum - j.uat[iel]
	j.uat[iel] = j.newSum
	j.pending = -1

	return nil
}

// Restore discards the cached trial sum; safe when none is pending.
func (j *OneBody) Restore(iel int) {
	if j.pending == iel {
		j.pending = -1
	}
}

// EvaluateGL accumulates the log-gradient and laplacian into the set's
// accumulators. Complexity: O(N·nIons).
func (j *OneBody) EvaluateGL(p *particle.Set) (float64, error) {
	if _, err := j.EvaluateLog(p); err != nil {
		return 0, err
	}
	g, l := p.GradAccum(), p.LapAccum()
	for i := 0; i < j.n; i++ {
		for a := 0; a < j.nI; a++ {
			dr, r := p.Lattice().MinImage(p.Pos(i), p.Ion(a))
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

// Recompute rebuilds the ion sums from scratch.
func (j *OneBody) Recompute(p *particle.Set) error {
	_, err := j.EvaluateLog(p)

	return err
}
