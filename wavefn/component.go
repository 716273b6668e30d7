package wavefn

import (
	"github.com/qmckit/qmcwalk/lattice"
	"github.com/qmckit/qmcwalk/particle"
)

// Component is one multiplicative factor of the trial wavefunction. All
// methods operate in log space where a log value is returned; ratios are
// returned as plain factors so the caller multiplies them across
// components.
//
// Call-order contract for a trial move of particle iel:
//
//	EvalGrad(p, iel)                  // current position, cached
//	RatioGrad(p, iel) or Ratio(p, iel) // trial position
//	AcceptMove(p, iel) | Restore(iel)  // resolve, exactly one of the two
//
// AcceptMove runs while the particle set still holds the trial in flight;
// the component may read both the committed rows and the temporary rows of
// the distance tables. Restore discards all trial state with no side
// effects and is safe when no trial is pending.
type Component interface {
	// Name identifies the component in logs and wrapped errors.
	Name() string

	// EvaluateLog returns the component's log value at the committed
	// positions, refreshing any cached per-particle sums.
	EvaluateLog(p *particle.Set) (float64, error)

	// EvalGrad returns the gradient of the log value with respect to
	// particle iel at its current position.
	EvalGrad(p *particle.Set, iel int) (lattice.Vec, error)

	// RatioGrad returns the value ratio and the log-gradient at the trial
	// position of particle iel. Requires a prior EvalGrad for iel.
	RatioGrad(p *particle.Set, iel int) (float64, lattice.Vec, error)

	// Ratio returns the value ratio at the trial position without the
	// gradient and without the EvalGrad precondition.
	Ratio(p *particle.Set, iel int) (float64, error)

	// AcceptMove commits the pending trial for particle iel.
	AcceptMove(p *particle.Set, iel int) error

	// Restore discards the pending trial for particle iel.
	Restore(iel int)

	// EvaluateGL accumulates the component's log-gradient and laplacian
	// into the set's accumulators and returns the log value.
	EvaluateGL(p *particle.Set) (float64, error)

	// Recompute rebuilds internal state from scratch at the committed
	// positions, resetting accumulated round-off.
	Recompute(p *particle.Set) error
}
