package wavefn

import (
	"fmt"

	"github.com/qmckit/qmcwalk/lattice"
	"github.com/qmckit/qmcwalk/particle"
	"github.com/qmckit/qmcwalk/spo"
)

// Options selects the component set and parameters of one trial
// wavefunction.
type Options struct {
	// NelUp is the size of the spin-up group; particles [NelUp, N) form the
	// spin-down group.
	NelUp int

	// DetTol is the pivot tolerance of the determinant engines; <= 0 means
	// the engine default.
	DetTol float64

	// One- and two-body Jastrow parameters (amplitude, decay).
	J1A, J1B float64
	J2A, J2B float64

	// UseJ3 enables the three-body factor.
	UseJ3           bool
	J3C, J3BI, J3BE float64
}

// DefaultOptions returns the benchmark parameter set for nels electrons:
// spin split down the middle, both Jastrow legs on, three-body off.
func DefaultOptions(nels int) Options {
	return Options{
		NelUp: nels / 2,
		J1A:   0.5, J1B: 1.0,
		J2A: 0.5, J2B: 0.5,
		J3C: 0.1, J3BI: 1.0, J3BE: 1.0,
	}
}

// WaveFunction composes determinant and Jastrow components for one walker:
// ratios multiply, log-gradients add. Owned by exactly one walker.
type WaveFunction struct {
	comps []Component
	dets  []*Determinant

	logVal  float64
	gradIel int // particle of the last EvalGrad, -1 when none cached
}

// New builds the composed wavefunction over the walker's particle set. The
// up and dn sources feed the two spin determinants; dn is unused when every
// particle is spin-up.
func New(p *particle.Set, up, dn spo.Source, opt Options) (*WaveFunction, error) {
	n := p.N()
	if opt.NelUp < 1 || opt.NelUp > n {
		return nil, fmt.Errorf("wavefn.New: NelUp %d of %d: %w", opt.NelUp, n, ErrBadSplit)
	}

	wf := &WaveFunction{gradIel: -1}

	detUp, err := NewDeterminant("det_up", 0, opt.NelUp, up, opt.DetTol, p)
	if err != nil {
		return nil, err
	}
	wf.addDet(detUp)
	if opt.NelUp < n {
		detDn, err := NewDeterminant("det_dn", opt.NelUp, n-opt.NelUp, dn, opt.DetTol, p)
		if err != nil {
			return nil, err
		}
		wf.addDet(detDn)
	}

	j1, err := NewOneBody(opt.J1A, opt.J1B, p)
	if err != nil {
		return nil, err
	}
	wf.comps = append(wf.comps, j1)
	j2, err := NewTwoBody(opt.J2A, opt.J2B, p)
	if err != nil {
		return nil, err
	}
	wf.comps = append(wf.comps, j2)
	if opt.UseJ3 {
		j3, err := NewThreeBody(opt.J3C, opt.J3BI, opt.J3BE, p)
		if err != nil {
			return nil, err
		}
		wf.comps = append(wf.comps, j3)
	}

	if _, err := wf.EvaluateLog(p); err != nil {
		return nil, err
	}

	return wf, nil
}

func (wf *WaveFunction) addDet(d *Determinant) {
	wf.comps = append(wf.comps, d)
	wf.dets = append(wf.dets, d)
}

// Components returns the component list in evaluation order.
func (wf *WaveFunction) Components() []Component { return wf.comps }

// Determinants returns the determinant components (drift checks, cadence).
func (wf *WaveFunction) Determinants() []*Determinant { return wf.dets }

// LogValue returns the log value cached by the last EvaluateLog or
// EvaluateGL.
func (wf *WaveFunction) LogValue() float64 { return wf.logVal }

// EvaluateLog sums the component log values at the committed positions.
func (wf *WaveFunction) EvaluateLog(p *particle.Set) (float64, error) {
	var total float64
	for _, c := range wf.comps {
		lv, err := c.EvaluateLog(p)
		if err != nil {
			return 0, err
		}
		total += lv
	}
	wf.logVal = total
	wf.gradIel = -1

	return total, nil
}

// EvalGrad sums the component log-gradients at particle iel's committed
// position and caches iel for the ratio step.
func (wf *WaveFunction) EvalGrad(p *particle.Set, iel int) (lattice.Vec, error) {
	var g lattice.Vec
	for _, c := range wf.comps {
		cg, err := c.EvalGrad(p, iel)
		if err != nil {
			return lattice.Vec{}, err
		}
		g = g.Add(cg)
	}
	wf.gradIel = iel

	return g, nil
}

// RatioGrad multiplies component ratios and sums trial-position gradients.
// ErrProtocol without a matching prior EvalGrad.
func (wf *WaveFunction) RatioGrad(p *particle.Set, iel int) (float64, lattice.Vec, error) {
	if wf.gradIel != iel {
		return 0, lattice.Vec{}, fmt.Errorf("wavefn: particle %d, cached gradient for %d: %w",
			iel, wf.gradIel, ErrProtocol)
	}
	ratio := 1.0
	var g lattice.Vec
	for _, c := range wf.comps {
		r, cg, err := c.RatioGrad(p, iel)
		if err != nil {
			return 0, lattice.Vec{}, err
		}
		ratio *= r
		g = g.Add(cg)
	}

	return ratio, g, nil
}

// Ratio multiplies component ratios at the trial position without the
// gradient precondition.
func (wf *WaveFunction) Ratio(p *particle.Set, iel int) (float64, error) {
	ratio := 1.0
	for _, c := range wf.comps {
		r, err := c.Ratio(p, iel)
		if err != nil {
			return 0, err
		}
		ratio *= r
	}

	return ratio, nil
}

// AcceptMove commits every component's trial, then the particle position
// itself. The component commits run while the trial is still in flight so
// they can read both committed and temporary distance rows.
func (wf *WaveFunction) AcceptMove(p *particle.Set, iel int) error {
	for _, c := range wf.comps {
		if err := c.AcceptMove(p, iel); err != nil {
			return err
		}
	}
	if err := p.AcceptMove(iel); err != nil {
		return err
	}
	wf.gradIel = -1

	return nil
}

// Restore discards every component's trial state and the in-flight
// position. Safe for boundary-rejected walkers that never proposed.
func (wf *WaveFunction) Restore(p *particle.Set, iel int) {
	for _, c := range wf.comps {
		c.Restore(iel)
	}
	p.RejectMove(iel)
	wf.gradIel = -1
}

// EvaluateGL zeroes the set's accumulators and runs every component's full
// gradient/laplacian sweep, returning the composed log value.
func (wf *WaveFunction) EvaluateGL(p *particle.Set) (float64, error) {
	p.ResetGL()
	var total float64
	for _, c := range wf.comps {
		lv, err := c.EvaluateGL(p)
		if err != nil {
			return 0, err
		}
		total += lv
	}
	wf.logVal = total

	return total, nil
}

// Recompute rebuilds every component from scratch at the committed
// positions, resetting accumulated round-off, then refreshes the log value.
func (wf *WaveFunction) Recompute(p *particle.Set) error {
	for _, c := range wf.comps {
		if err := c.Recompute(p); err != nil {
			return err
		}
	}
	_, err := wf.EvaluateLog(p)

	return err
}

// checkBatch validates the walker-parallel slice shapes once per Flex call.
func checkBatch(nw int, lens ...int) error {
	for _, l := range lens {
		if l != nw {
			return fmt.Errorf("wavefn: batch of %d, argument of %d: %w", nw, l, ErrBatchShape)
		}
	}

	return nil
}

// FlexEvalGrad applies EvalGrad for particle iel across a batch of walkers.
func FlexEvalGrad(wfs []*WaveFunction, ps []*particle.Set, iel int) ([]lattice.Vec, error) {
	if err := checkBatch(len(wfs), len(ps)); err != nil {
		return nil, err
	}
	grads := make([]lattice.Vec, len(wfs))
	for iw := range wfs {
		g, err := wfs[iw].EvalGrad(ps[iw], iel)
		if err != nil {
			return nil, fmt.Errorf("walker %d: %w", iw, err)
		}
		grads[iw] = g
	}

	return grads, nil
}

// FlexRatioGrad applies RatioGrad across a batch, skipping walkers whose
// trial failed the validity check (their ratio entry stays zero and they
// carry prior state into the next iteration).
func FlexRatioGrad(wfs []*WaveFunction, ps []*particle.Set, iel int, valid []bool) ([]float64, []lattice.Vec, error) {
	if err := checkBatch(len(wfs), len(ps), len(valid)); err != nil {
		return nil, nil, err
	}
	ratios := make([]float64, len(wfs))
	grads := make([]lattice.Vec, len(wfs))
	for iw := range wfs {
		if !valid[iw] {
			continue
		}
		r, g, err := wfs[iw].RatioGrad(ps[iw], iel)
		if err != nil {
			return nil, nil, fmt.Errorf("walker %d: %w", iw, err)
		}
		ratios[iw] = r
		grads[iw] = g
	}

	return ratios, grads, nil
}

// FlexAcceptRestore resolves the trial for every walker: accepted walkers
// commit all components and the position, the rest restore. Walkers with an
// invalid trial restore too (a no-op for them).
func FlexAcceptRestore(wfs []*WaveFunction, ps []*particle.Set, iel int, accept []bool) error {
	if err := checkBatch(len(wfs), len(ps), len(accept)); err != nil {
		return err
	}
	for iw := range wfs {
		if accept[iw] {
			if err := wfs[iw].AcceptMove(ps[iw], iel); err != nil {
				return fmt.Errorf("walker %d: %w", iw, err)
			}

			continue
		}
		wfs[iw].Restore(ps[iw], iel)
	}

	return nil
}

// FlexEvaluateGL runs the full gradient/laplacian sweep across a batch.
func FlexEvaluateGL(wfs []*WaveFunction, ps []*particle.Set) error {
	if err := checkBatch(len(wfs), len(ps)); err != nil {
		return err
	}
	for iw := range wfs {
		if _, err := wfs[iw].EvaluateGL(ps[iw]); err != nil {
			return fmt.Errorf("walker %d: %w", iw, err)
		}
	}

	return nil
}

// FlexRecompute rebuilds every walker's wavefunction from scratch.
func FlexRecompute(wfs []*WaveFunction, ps []*particle.Set) error {
	if err := checkBatch(len(wfs), len(ps)); err != nil {
		return err
	}
	for iw := range wfs {
		if err := wfs[iw].Recompute(ps[iw]); err != nil {
			return fmt.Errorf("walker %d: %w", iw, err)
		}
	}

	return nil
}
