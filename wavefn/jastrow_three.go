package wavefn

import (
	"fmt"
	"math"

	"github.com/qmckit/qmcwalk/lattice"
	"github.com/qmckit/qmcwalk/particle"
)

// ThreeBody is the electron–electron–ion correlation factor
//
//	log J₃ = −Σ_{i<j} Σ_a w(r_ia, r_ja, r_ij)
//	w = c · gI(r_ia) · gI(r_ja) · gE(r_ij)
//
// with gI, gE shifted exponentials that vanish at the lattice cutoff. The
// factorized form keeps a trial move at O(N·nIons): only terms touching the
// moved electron change.
type ThreeBody struct {
	c      float64
	gI, gE expFunctor
	n, nI  int

	uat     []float64 // Σ_{j≠i} Σ_a w per electron
	delta   []float64 // per-j trial deltas of the pending electron
	pending int
	logVal  float64
}

// NewThreeBody builds the three-body factor. bI and bE set the ion and
// electron decay lengths of the two exponential legs.
func NewThreeBody(c, bI, bE float64, p *particle.Set) (*ThreeBody, error) {
	if bI <= 0 || bE <= 0 {
		return nil, fmt.Errorf("wavefn.NewThreeBody: bI=%g bE=%g: %w", bI, bE, ErrBadParam)
	}
	rcut := p.Lattice().CutoffRadius()
	j := &ThreeBody{
		c:       c,
		gI:      newExp(1, bI, rcut),
		gE:      newExp(1, bE, rcut),
		n:       p.N(),
		nI:      p.NIons(),
		uat:     make([]float64, p.N()),
		delta:   make([]float64, p.N()),
		pending: -1,
	}
	if _, err := j.EvaluateLog(p); err != nil {
		return nil, err
	}

	return j, nil
}

// Name returns the component name.
func (j *ThreeBody) Name() string { return "J3" }

// triple returns w and its three partial derivatives for one (rIA, rJA,
// rEE) triple.
func (j *ThreeBody) triple(rIA, rJA, rEE float64) (w, wIA, wEE float64) {
	gja := j.gI.value(rJA)
	if gja == 0 {
		return 0, 0, 0
	}
	gia, dgia, _ := j.gI.derivs(rIA)
	gee, dgee, _ := j.gE.derivs(rEE)
	base := j.c * gja
	w = base * gia * gee
	wIA = base * dgia * gee
	wEE = base * gia * dgee

	return w, wIA, wEE
}

// EvaluateLog rebuilds the per-electron triple sums.
// Complexity: O(N²·nIons).
func (j *ThreeBody) EvaluateLog(p *particle.Set) (float64, error) {
	ee, ei := p.EE(), p.EI()
	var total float64
	for i := 0; i < j.n; i++ {
		var sum float64
		for k := 0; k < j.n; k++ {
			if k == i {
				continue
			}
			ge := j.gE.value(ee.At(i, k))
			if ge == 0 {
				continue
			}
			for a := 0; a < j.nI; a++ {
				sum += j.c * j.gI.value(ei.At(i, a)) * j.gI.value(ei.At(k, a)) * ge
			}
		}
		j.uat[i] = sum
		total += sum
	}
	j.logVal = -0.5 * total
	j.pending = -1

	return j.logVal, nil
}

// EvalGrad returns ∇_iel log J₃ at the committed position.
func (j *ThreeBody) EvalGrad(p *particle.Set, iel int) (lattice.Vec, error) {
	return j.gradAt(p, iel, p.Pos(iel)), nil
}

func (j *ThreeBody) gradAt(p *particle.Set, iel int, pos lattice.Vec) lattice.Vec {
	lat, ei := p.Lattice(), p.EI()
	var g lattice.Vec
	for k := 0; k < j.n; k++ {
		if k == iel {
			continue
		}
		drEE, rEE := lat.MinImage(pos, p.Pos(k))
		if rEE == 0 {
			continue
		}
		for a := 0; a < j.nI; a++ {
			drIA, rIA := lat.MinImage(pos, p.Ion(a))
			if rIA == 0 {
				continue
			}
			_, wIA, wEE := j.triple(rIA, ei.At(k, a), rEE)
			g = g.Add(drIA.Scale(wIA / rIA)).Add(drEE.Scale(wEE / rEE))
		}
	}

	return g
}

// RatioGrad evaluates the ratio and log-gradient at the trial position.
func (j *ThreeBody) RatioGrad(p *particle.Set, iel int) (float64, lattice.Vec, error) {
	ratio, err := j.Ratio(p, iel)
	if err != nil {
		return 0, lattice.Vec{}, err
	}
	trial, err := p.TrialPos(iel)
	if err != nil {
		return 0, lattice.Vec{}, fmt.Errorf("wavefn J3: %w", err)
	}

	return ratio, j.gradAt(p, iel, trial), nil
}

// Ratio returns exp(−ΔU) for the pending trial, caching the per-partner
// deltas for a possible accept. Complexity: O(N·nIons).
func (j *ThreeBody) Ratio(p *particle.Set, iel int) (float64, error) {
	if _, err := p.TrialPos(iel); err != nil {
		return 0, fmt.Errorf("wavefn J3: %w", err)
	}
	ee, ei := p.EE(), p.EI()
	var total float64
	for k := 0; k < j.n; k++ {
		if k == iel {
			j.delta[k] = 0

			continue
		}
		geOld := j.gE.value(ee.At(iel, k))
		geNew := j.gE.value(ee.Temp(k))
		var d float64
		if geOld != 0 || geNew != 0 {
			for a := 0; a < j.nI; a++ {
				gka := j.gI.value(ei.At(k, a))
				if gka == 0 {
					continue
				}
				d += j.c * gka * (j.gI.value(ei.Temp(a))*geNew - j.gI.value(ei.At(iel, a))*geOld)
			}
		}
		j.delta[k] = d
		total += d
	}
	j.pending = iel

	return math.Exp(-total), nil
}

// AcceptMove folds the cached deltas into the committed sums in O(N).
func (j *ThreeBody) AcceptMove(_ *particle.Set, iel int) error {
	if j.pending != iel {
		return fmt.Errorf("wavefn J3: accept for particle %d, pending %d: %w", iel, j.pending, ErrProtocol)
	}
	var total float64
	for k := 0; k < j.n; k++ {
		if k == iel {
			continue
		}
		j.uat[k] += j.delta[k]
		total += j.delta[k]
	}
	j.uat[iel] += total
	j.logVal -= total
	j.pending = -1

	return nil
}

// Restore discards the cached deltas; safe when none are pending.
func (j *ThreeBody) Restore(iel int) {
	if j.pending == iel {
		j.pending = -1
	}
}

// EvaluateGL accumulates the log-gradient and laplacian into the set's
// accumulators. Complexity: O(N²·nIons).
func (j *ThreeBody) EvaluateGL(p *particle.Set) (float64, error) {
	if _, err := j.EvaluateLog(p); err != nil {
		return 0, err
	}
	lat, ei := p.Lattice(), p.EI()
	g, l := p.GradAccum(), p.LapAccum()
	for i := 0; i < j.n; i++ {
		for k := 0; k < j.n; k++ {
			if k == i {
				continue
			}
			drEE, rEE := lat.MinImage(p.Pos(i), p.Pos(k))
			if rEE == 0 {
				continue
			}
			geV, geD, geD2 := j.gE.derivs(rEE)
			for a := 0; a < j.nI; a++ {
				drIA, rIA := lat.MinImage(p.Pos(i), p.Ion(a))
				if rIA == 0 {
					continue
				}
				gja := j.gI.value(ei.At(k, a))
				if gja == 0 {
					continue
				}
				giV, giD, giD2 := j.gI.derivs(rIA)
				base := j.c * gja

				wIA := base * giD * geV
				wEE := base * giV * geD
				g[i] = g[i].Add(drIA.Scale(wIA / rIA)).Add(drEE.Scale(wEE / rEE))

				// second derivatives, including the mixed term along the
				// ion and electron legs
				cosIE := drIA.Dot(drEE) / (rIA * rEE)
				l[i] -= base*giD2*geV + 2*wIA/rIA +
					base*giV*geD2 + 2*wEE/rEE +
					2*base*giD*geD*cosIE
			}
		}
	}

	return j.logVal, nil
}

// Recompute rebuilds the triple sums from scratch.
func (j *ThreeBody) Recompute(p *particle.Set) error {
	_, err := j.EvaluateLog(p)

	return err
}
