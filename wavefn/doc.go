// Package wavefn composes the trial wavefunction from polymorphic
// components: two spin-split Slater determinants over the incremental
// inverse engine, plus one-, two- and optionally three-body Jastrow
// correlation factors.
//
// ✨ Contract
//
// Every component implements Component: log-value, gradient at the current
// position, ratio (with or without gradient) at the in-flight trial
// position, commit/restore, and the full gradient/laplacian sweep. The
// WaveFunction multiplies component ratios and adds component gradients.
//
// 🚦 Move protocol
//
// One particle is in flight at a time. RatioGrad for particle iel is legal
// only after EvalGrad for the same iel; breaking that order is a programming
// error and returns ErrProtocol. Plain Ratio carries no such precondition
// (the correctness harness drives it standalone). AcceptMove is called
// while the particle set still holds the trial (temporary distance rows
// live); Restore must leave every component bit-identical to its
// pre-proposal state.
//
// All per-walker state lives in the components; a WaveFunction is owned by
// exactly one walker and is not safe for concurrent use. Batched variants
// (FlexEvalGrad and friends) apply one logical operation across many
// walkers and are the seam the driver parallelizes over.
package wavefn
