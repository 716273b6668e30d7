// Package detmat maintains the inverse of a Slater-determinant matrix under
// single-row trial updates: the algorithmic heart of the move engine.
//
// 🚀 The contract:
//
//	• Recompute         — full pivoted-LU inversion; resets accumulated drift
//	• ProposeRowUpdate  — O(N) determinant ratio for replacing one row,
//	                      without touching stored state
//	• CommitRowUpdate   — O(N²) Sherman–Morrison rank-1 inverse update,
//	                      valid only against the matching pending proposal
//	• DiscardProposal   — drop the pending trial with no side effects
//
// ✨ Numerical policy:
//
//   - The incremental update accumulates round-off; callers MUST force a full
//     Recompute on a fixed cadence (the drivers do it once per outer step).
//     UpdatesSinceRecompute exposes the counter that makes the cadence
//     testable. This is a correctness decision, not an optimization.
//   - A singular matrix at Recompute and a non-finite ratio at propose are
//     fatal faults: the errors surface immediately and nothing is retried.
//   - Committing without a matching proposal is a protocol violation
//     (ErrNoPendingProposal / ErrProposalMismatch); the engine refuses and
//     leaves its state untouched.
//
// Complexity quicksheet:
//
//	Recompute O(N³) · ProposeRowUpdate O(N) · CommitRowUpdate O(N²)
package detmat
