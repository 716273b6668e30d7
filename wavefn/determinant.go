package wavefn

import (
	"fmt"
	"math"

	"github.com/qmckit/qmcwalk/detmat"
	"github.com/qmckit/qmcwalk/lattice"
	"github.com/qmckit/qmcwalk/matrix"
	"github.com/qmckit/qmcwalk/particle"
	"github.com/qmckit/qmcwalk/spo"
)

// Determinant wraps one spin group's inverse engine as a wavefunction
// component. It owns the orbital-value matrix for particles [first,
// first+n) and translates global particle indices into engine rows.
//
// Calls for a particle outside the group are identity no-ops (ratio 1, zero
// gradient): the composed wavefunction loops all components uniformly and
// only the owning determinant reacts.
//
// The benchmark orbital source has no spatial dependence, so the
// determinant's gradient and laplacian contributions are identically zero;
// the log value and the ratio are where all the numerical work lives.
type Determinant struct {
	name  string
	first int
	n     int

	eng *detmat.Engine
	src spo.Source

	psiV      []float64 // trial orbital row, valid while a proposal is pending
	lastRatio float64
	gradIel   int // particle of the last EvalGrad, -1 when none cached
}

// NewDeterminant draws the initial orbital matrix from src at the committed
// positions of particles [first, first+n) and builds the inverse engine
// over it. Pass tol <= 0 for the engine default.
func NewDeterminant(name string, first, n int, src spo.Source, tol float64, p *particle.Set) (*Determinant, error) {
	if first < 0 || n < 1 || first+n > p.N() {
		return nil, fmt.Errorf("wavefn.NewDeterminant %s: group [%d,%d) of %d particles: %w",
			name, first, first+n, p.N(), ErrBadSplit)
	}
	m, err := matrix.NewSquare(n)
	if err != nil {
		return nil, fmt.Errorf("wavefn.NewDeterminant %s: %w", name, err)
	}
	for i := 0; i < n; i++ {
		row, err := m.Row(i)
		if err != nil {
			return nil, fmt.Errorf("wavefn.NewDeterminant %s: %w", name, err)
		}
		src.EvaluateRow(row, p.Pos(first+i))
	}
	eng, err := detmat.New(m, tol)
	if err != nil {
		return nil, fmt.Errorf("wavefn.NewDeterminant %s: %w", name, err)
	}

	return &Determinant{
		name:    name,
		first:   first,
		n:       n,
		eng:     eng,
		src:     src,
		psiV:    make([]float64, n),
		gradIel: -1,
	}, nil
}

// Name returns the component name.
func (d *Determinant) Name() string { return d.name }

// Engine exposes the underlying inverse engine (drift checks, harness).
func (d *Determinant) Engine() *detmat.Engine { return d.eng }

// owns reports whether particle iel belongs to this spin group.
func (d *Determinant) owns(iel int) bool { return iel >= d.first && iel < d.first+d.n }

// EvaluateLog returns log|det| as maintained by the engine.
func (d *Determinant) EvaluateLog(_ *particle.Set) (float64, error) {
	logDet, _ := d.eng.LogDet()

	return logDet, nil
}

// EvalGrad caches the active particle and returns the gradient of log|det|
// at its current position (zero for the position-independent benchmark
// orbitals).
func (d *Determinant) EvalGrad(_ *particle.Set, iel int) (lattice.Vec, error) {
	if !d.owns(iel) {
		return lattice.Vec{}, nil
	}
	d.gradIel = iel

	return lattice.Vec{}, nil
}

// RatioGrad draws the trial orbital row, proposes the row replacement and
// returns the determinant ratio. ErrProtocol without a prior EvalGrad for
// the same particle.
func (d *Determinant) RatioGrad(p *particle.Set, iel int) (float64, lattice.Vec, error) {
	if !d.owns(iel) {
		return 1, lattice.Vec{}, nil
	}
	if d.gradIel != iel {
		return 0, lattice.Vec{}, fmt.Errorf("wavefn %s: particle %d, cached gradient for %d: %w",
			d.name, iel, d.gradIel, ErrProtocol)
	}
	ratio, err := d.propose(p, iel)
	if err != nil {
		return 0, lattice.Vec{}, err
	}

	return ratio, lattice.Vec{}, nil
}

// Ratio proposes the row replacement without the gradient precondition.
func (d *Determinant) Ratio(p *particle.Set, iel int) (float64, error) {
	if !d.owns(iel) {
		return 1, nil
	}

	return d.propose(p, iel)
}

func (d *Determinant) propose(p *particle.Set, iel int) (float64, error) {
	pos, err := p.TrialPos(iel)
	if err != nil {
		return 0, fmt.Errorf("wavefn %s: %w", d.name, err)
	}
	d.src.EvaluateRow(d.psiV, pos)
	ratio, err := d.eng.ProposeRowUpdate(iel-d.first, d.psiV)
	if err != nil {
		return 0, fmt.Errorf("wavefn %s: %w", d.name, err)
	}
	d.lastRatio = ratio

	return ratio, nil
}

// AcceptMove commits the pending row replacement via the engine.
func (d *Determinant) AcceptMove(_ *particle.Set, iel int) error {
	if !d.owns(iel) {
		return nil
	}
	if err := d.eng.CommitRowUpdate(iel-d.first, d.psiV, d.lastRatio); err != nil {
		return fmt.Errorf("wavefn %s: %w", d.name, err)
	}
	d.gradIel = -1

	return nil
}

// Restore discards the pending proposal; safe when none is pending.
func (d *Determinant) Restore(iel int) {
	if !d.owns(iel) {
		return
	}
	d.eng.DiscardProposal()
	d.gradIel = -1
}

// EvaluateGL returns log|det|; the benchmark orbitals contribute nothing to
// the gradient or laplacian accumulators.
func (d *Determinant) EvaluateGL(_ *particle.Set) (float64, error) {
	logDet, _ := d.eng.LogDet()

	return logDet, nil
}

// Recompute refactorizes the stored matrix, resetting accumulated drift.
func (d *Determinant) Recompute(_ *particle.Set) error {
	if err := d.eng.Recompute(); err != nil {
		return fmt.Errorf("wavefn %s: %w", d.name, err)
	}

	return nil
}

// LogDetSign returns the maintained log|det| and determinant sign.
func (d *Determinant) LogDetSign() (float64, int) { return d.eng.LogDet() }

// Drift returns the current deviation of the maintained inverse from a
// fresh factorization.
func (d *Determinant) Drift() (float64, error) {
	drift, err := d.eng.CheckMatrix()
	if err != nil {
		return 0, fmt.Errorf("wavefn %s: %w", d.name, err)
	}
	if math.IsNaN(drift) {
		return 0, fmt.Errorf("wavefn %s: drift: %w", d.name, matrix.ErrNaNInf)
	}

	return drift, nil
}
